package models

type ParcoursInfo struct {
	StartTime            string  `json:"startTime"`
	CurrentTime          string  `json:"currentTime"`
	DurationMinutes      float64 `json:"durationMinutes"`
	CompletionPercentage float64 `json:"completionPercentage"`
	TotalPieces          int     `json:"totalPieces"`
	CompletedPieces      int     `json:"completedPieces"`
	PiecesWithIssues     int     `json:"piecesWithIssues"`
}

type AgentInfo struct {
	ID                 string `json:"id"`
	Firstname          string `json:"firstname"`
	Lastname           string `json:"lastname"`
	Phone              string `json:"phone"`
	Type               string `json:"type"`
	TypeLabel          string `json:"typeLabel"`
	VerificationStatus string `json:"verificationStatus"`
}

// AppRapport is the page header projection.
type AppRapport struct {
	ID              string       `json:"id"`
	Logement        string       `json:"logement"`
	DateDebut       string       `json:"dateDebut"`
	DateFin         string       `json:"dateFin"`
	Statut          string       `json:"statut"`
	Parcours        string       `json:"parcours"`
	TypeParcours    string       `json:"typeParcours"`
	EtatLieuxMoment string       `json:"etatLieuxMoment"`
	Operateur       string       `json:"operateur"`
	Etat            int          `json:"etat"`
	Signalements    int          `json:"signalements"`
	ScoreConfiance  int          `json:"scoreConfiance"`
	ParcoursInfo    ParcoursInfo `json:"parcoursInfo"`
	AgentInfo       AgentInfo    `json:"agentInfo"`
}

// SyntheseView is the synthesis panel projection. Nil hours are rendered as
// absent.
type SyntheseView struct {
	Logement           string             `json:"logement"`
	Voyageur           string             `json:"voyageur"`
	Email              string             `json:"email"`
	Telephone          string             `json:"telephone"`
	DateDebut          string             `json:"dateDebut"`
	DateFin            string             `json:"dateFin"`
	HeureCheckin       string             `json:"heureCheckin"`
	HeureCheckout      string             `json:"heureCheckout"`
	NoteGenerale       float64            `json:"noteGenerale"`
	SousNotes          SousNotes          `json:"sousNotes"`
	Statut             string             `json:"statut"`
	RemarquesGenerales RemarquesGenerales `json:"remarquesGenerales"`
	ScoreExplanation   string             `json:"scoreExplanation,omitempty"`
	AgentFullName      string             `json:"agentFullName"`
	AgentPhone         string             `json:"agentPhone"`
	AgentType          string             `json:"agentType"`
	TypeParcours       string             `json:"typeParcours"`
	EtatLieuxMoment    string             `json:"etatLieuxMoment"`
	CheckinStartHour   *string            `json:"checkinStartHour"`
	CheckinEndHour     *string            `json:"checkinEndHour"`
	CheckoutStartHour  *string            `json:"checkoutStartHour"`
	CheckoutEndHour    *string            `json:"checkoutEndHour"`
}

// User report display statuses.
const (
	ReportConfirmed     = "confirmé"
	ReportNotVerifiable = "non_verifiable"
)

// CheckFinalRoom is the pseudo room name of final-check entries.
const CheckFinalRoom = "Check final"

type UserReportView struct {
	Text                string     `json:"text"`
	Status              string     `json:"status"`
	Room                string     `json:"room"`
	RoomName            string     `json:"roomName,omitempty"`
	SignalementID       string     `json:"signalementId,omitempty"`
	TypeText            string     `json:"typeText,omitempty"`
	ImgURL              string     `json:"img_url,omitempty"`
	Signaleur           *Signaleur `json:"signaleur,omitempty"`
	CreatedAt           string     `json:"created_at,omitempty"`
	UpdatedAt           string     `json:"updated_at,omitempty"`
	OSSignalementStatut string     `json:"OS_signalementStatut,omitempty"`
}

type RemarquesView struct {
	Scope       string           `json:"scope"`
	Meta        RemarquesMeta    `json:"meta"`
	Counts      IssueCounts      `json:"counts"`
	Alerts      Alerts           `json:"alerts"`
	Highlights  []Highlight      `json:"highlights"`
	UserReports []UserReportView `json:"user_reports"`
	Rooms       []RoomSummary    `json:"rooms"`
}

// PieceRawView carries the per-room raw aggregates.
type PieceRawView struct {
	Etapes                  []Etape        `json:"etapes"`
	Photos                  []Etape        `json:"photos"`
	Signalements            []Signalement  `json:"signalements"`
	SignalementsUtilisateur []Signalement  `json:"signalementsUtilisateur"`
	SignalementsIA          []Signalement  `json:"signalementsIA"`
	Timestamps              RoomTimestamps `json:"timestamps"`
	PhotoStats              PhotoStats     `json:"photoStats"`
	TotalEtapes             int            `json:"totalEtapes"`
	TotalPhotos             int            `json:"totalPhotos"`
	TotalSignalements       int            `json:"totalSignalements"`
}

// PieceView is one room of the detail screen.
type PieceView struct {
	ID                string             `json:"id"`
	Nom               string             `json:"nom"`
	PieceIcon         string             `json:"pieceIcon"`
	Note              float64            `json:"note"`
	Resume            string             `json:"resume"`
	PhotosReference   []string           `json:"photosReference"`
	CheckEntree       *CheckEntree       `json:"checkEntree,omitempty"`
	CheckSortie       *CheckSortie       `json:"checkSortie,omitempty"`
	TachesValidees    []TacheValidee     `json:"tachesValidees"`
	Problemes         []Probleme         `json:"problemes"`
	ConsignesIA       []ConsigneIA       `json:"consignesIA"`
	ConsignesIABubble []BubbleConsigneIA `json:"consignesIABubble"`
	ResolvedTaskCount int                `json:"resolvedTaskCount"`
	RawData           PieceRawView       `json:"rawData"`
}

type RawGlobalData struct {
	Agent              Agent          `json:"agent"`
	Parcours           Parcours       `json:"parcours"`
	CheckinStats       CheckinStats   `json:"checkinStats"`
	TotalSignalements  int            `json:"totalSignalements"`
	SignalementsByType map[string]int `json:"signalementsByType"`
}

// MappedRapport holds every screen projection of one fused report.
type MappedRapport struct {
	Rapport            AppRapport       `json:"rapport"`
	Synthese           SyntheseView     `json:"synthese"`
	RemarquesGenerales RemarquesView    `json:"remarquesGenerales"`
	Pieces             []PieceView      `json:"pieces"`
	Suggestions        []SuggestionIA   `json:"suggestions"`
	CheckFinal         []CheckFinalItem `json:"checkFinal"`
	RawGlobalData      RawGlobalData    `json:"rawGlobalData"`
	Sources            SourceOutcomes   `json:"sources"`
}
