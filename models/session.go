package models

// Step interaction types recorded by the mobile session.
const (
	EtapeButtonClick = "button_click"
	EtapePhotoTaken  = "photo_taken"
)

// Step phases.
const (
	PhaseCheckin  = "checkin"
	PhaseCheckout = "checkout"
)

type Agent struct {
	ID                 string `json:"id"`
	Firstname          string `json:"firstname"`
	Lastname           string `json:"lastname"`
	Phone              string `json:"phone"`
	Type               string `json:"type"`
	TypeLabel          string `json:"type_label"`
	VerificationStatus string `json:"verification_status"`
}

type Parcours struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Type                 string  `json:"type"`
	StartTime            string  `json:"start_time"`
	CurrentTime          string  `json:"current_time"`
	DurationMinutes      float64 `json:"duration_minutes"`
	CompletionPercentage float64 `json:"completion_percentage"`
	TotalPieces          int     `json:"total_pieces"`
	CompletedPieces      int     `json:"completed_pieces"`
	PiecesWithIssues     int     `json:"pieces_with_issues"`
}

// Etape is one raw step recorded during the session.
type Etape struct {
	EtapeID        string   `json:"etape_id"`
	Type           string   `json:"type"`
	EtapeType      string   `json:"etape_type"`
	Status         string   `json:"status"`
	Timestamp      string   `json:"timestamp"`
	IsTodo         bool     `json:"is_todo"`
	TodoTitle      string   `json:"todo_title"`
	Action         string   `json:"action,omitempty"`
	Comment        string   `json:"comment"`
	PhotosAttached []string `json:"photos_attached,omitempty"`
	PhotoID        string   `json:"photo_id,omitempty"`
	PhotoURL       string   `json:"photo_url,omitempty"`
	PhotoBase64    string   `json:"photo_base64,omitempty"`
	Validated      bool     `json:"validated,omitempty"`
	RetakeCount    int      `json:"retake_count,omitempty"`
}

// Photo returns the URL when present, otherwise the inline data.
func (e Etape) Photo() string {
	if !IsBlank(e.PhotoURL) {
		return e.PhotoURL
	}
	return e.PhotoBase64
}

// Piece is one room as recorded by the session.
type Piece struct {
	PieceID string  `json:"piece_id"`
	Nom     string  `json:"nom"`
	Status  string  `json:"status"`
	Etapes  []Etape `json:"etapes"`
}

type CheckinStats struct {
	TotalPieces    int     `json:"total_pieces"`
	TotalPhotos    int     `json:"total_photos"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}

// Timestamps of the session. Hour fields are nil when not applicable, e.g.
// entry hours on exit-only inspections.
type Timestamps struct {
	SessionStart           string  `json:"session_start,omitempty"`
	SnapshotCreated        string  `json:"snapshot_created,omitempty"`
	CheckinCompleted       string  `json:"checkin_completed,omitempty"`
	ExitQuestionsCompleted *string `json:"exit_questions_completed,omitempty"`
	CheckinStartHour       *string `json:"checkinStartHour"`
	CheckinEndHour         *string `json:"checkinEndHour"`
	CheckoutStartHour      *string `json:"checkoutStartHour"`
	CheckoutEndHour        *string `json:"checkoutEndHour"`
}

type Checkin struct {
	Pieces     []Piece      `json:"pieces"`
	Stats      CheckinStats `json:"stats"`
	Timestamp  string       `json:"timestamp"`
	Timestamps *Timestamps  `json:"timestamps,omitempty"`
}

// SessionSignalement is the minimal locally-recorded issue stub.
type SessionSignalement struct {
	SignalementID string `json:"signalement_id"`
	Description   string `json:"description"`
	ImgURL        string `json:"img_url"`
	ImgBase64     string `json:"img_base64"`
	Timestamp     string `json:"timestamp"`
}

// SessionData is the raw session/task log document.
type SessionData struct {
	WebhookVersion string               `json:"webhook_version"`
	Schema         string               `json:"schema"`
	CheckID        string               `json:"checkID"`
	ParcoursID     string               `json:"parcours_id"`
	LogementID     string               `json:"logement_id"`
	LogementName   string               `json:"logement_name"`
	Agent          Agent                `json:"agent"`
	Parcours       Parcours             `json:"parcours"`
	Checkin        Checkin              `json:"checkin"`
	Signalements   []SessionSignalement `json:"signalements"`
	Timestamps     *Timestamps          `json:"timestamps,omitempty"`
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if IsBlank(s) {
		return nil
	}
	return &s
}

// Deref returns the pointed value or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
