package models

import "time"

// SourceStatus records how one upstream source contributed to a load.
type SourceStatus string

const (
	SourceOK          SourceStatus = "ok"
	SourceFailed      SourceStatus = "failed"
	SourceSynthesized SourceStatus = "synthesized"
	SourceSkipped     SourceStatus = "skipped"
)

// SourceOutcomes is the all-settled result of the four source fetches.
type SourceOutcomes struct {
	AI           SourceStatus `json:"ai"`
	Session      SourceStatus `json:"session"`
	Signalements SourceStatus `json:"signalements"`
	Bundle       SourceStatus `json:"bundle"`
}

// RawData is the session side of a fused report, with merged issue reports
// and overlaid timestamps.
type RawData struct {
	Agent              Agent               `json:"agent"`
	Parcours           Parcours            `json:"parcours"`
	Checkin            Checkin             `json:"checkin"`
	Signalements       []Signalement       `json:"signalements"`
	Timestamps         Timestamps          `json:"timestamps"`
	BubbleSignalements []BubbleSignalement `json:"bubbleSignalements"`
}

// RoomJoin is the per-room join across all sources.
type RoomJoin struct {
	AI           PieceDetail        `json:"aiData"`
	RawPiece     *Piece             `json:"rawPiece,omitempty"`
	Etapes       []Etape            `json:"etapes"`
	Signalements []Signalement      `json:"signalements"`
	Consignes    []BubbleConsigneIA `json:"consignesIA"`
}

// FusedReport is the joined aggregate produced once per load. It is
// read-only once built.
type FusedReport struct {
	RapportData
	Raw       RawData              `json:"rawData"`
	Rooms     map[string]*RoomJoin `json:"-"`
	RoomOrder []string             `json:"-"`
	FullData  *FullData            `json:"fullData"`
	Sources   SourceOutcomes       `json:"sources"`
	LoadedAt  time.Time            `json:"loadedAt"`
}

// Room returns the join for a room id, or nil.
func (f *FusedReport) Room(id string) *RoomJoin {
	if f.Rooms == nil {
		return nil
	}
	return f.Rooms[id]
}

// RoomTimestamps are the first/last action times of a room.
type RoomTimestamps struct {
	FirstAction string `json:"firstAction,omitempty"`
	LastAction  string `json:"lastAction,omitempty"`
	Duration    *int   `json:"duration,omitempty"`
}

type PhotoStats struct {
	Total        int `json:"total"`
	Validated    int `json:"validated"`
	NotValidated int `json:"notValidated"`
}

// SignalementCategories partitions a room's issue reports by origin.
type SignalementCategories struct {
	UserReports []Signalement `json:"userReports"`
	AIDetected  []Signalement `json:"aiDetected"`
}
