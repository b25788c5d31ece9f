package models

// RoomInsight summarises one room for the terminal report.
type RoomInsight struct {
	Name          string
	Note          float64
	TasksResolved int
	TasksTotal    int
	Problems      int
	ExitPhotos    int
}

// InsightReport is the terminal summary of a mapped report.
type InsightReport struct {
	ReportID           string
	Logement           string
	Statut             string
	Moment             string
	NoteGenerale       float64
	ScoreConfiance     int
	TotalRooms         int
	AverageRoomNote    float64
	TasksResolved      int
	TasksTotal         int
	ProblemsBySeverity map[Severity]int
	FalsePositives     int
	OpenSignalements   int
	CheckFinalFailed   int
	WorstRooms         []RoomInsight
	Sources            SourceOutcomes
}
