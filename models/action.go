package models

// ActionType names one mutation the page can send back to the backend.
type ActionType string

const (
	ActionCreateSignalement       ActionType = "CREATE_SIGNALEMENT"
	ActionCreateConsigneIA        ActionType = "CREATE_CONSIGNE_IA"
	ActionUpdateConsigneIA        ActionType = "UPDATE_CONSIGNE_IA"
	ActionDeleteConsigneIA        ActionType = "DELETE_CONSIGNE_IA"
	ActionMarkFalsePositive       ActionType = "MARK_FALSE_POSITIVE"
	ActionUpdateSignalementStatus ActionType = "UPDATE_SIGNALEMENT_STATUS"
	ActionSelectPhotoReference    ActionType = "SELECT_PHOTO_REFERENCE"
	ActionDeletePhoto             ActionType = "DELETE_PHOTO"
)

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	switch t {
	case ActionCreateSignalement, ActionCreateConsigneIA, ActionUpdateConsigneIA,
		ActionDeleteConsigneIA, ActionMarkFalsePositive, ActionUpdateSignalementStatus,
		ActionSelectPhotoReference, ActionDeletePhoto:
		return true
	}
	return false
}

// ActionData is the union of every action payload. Only the fields relevant
// to the action type are set.
type ActionData struct {
	PieceID       string `json:"pieceId,omitempty"`
	EtapeID       string `json:"etapeId,omitempty"`
	Probleme      string `json:"probleme,omitempty"`
	Commentaire   string `json:"commentaire,omitempty"`
	PhotoURL      string `json:"photoUrl,omitempty"`
	PhotoBase64   string `json:"photoBase64,omitempty"`
	ConsigneID    string `json:"consigneId,omitempty"`
	Consigne      string `json:"consigne,omitempty"`
	Type          string `json:"type,omitempty"`
	SignalementID string `json:"signalementId,omitempty"`
	Statut        string `json:"statut,omitempty"`
	PhotoID       string `json:"photoId,omitempty"`
}

type Action struct {
	ActionType ActionType `json:"actionType"`
	Data       ActionData `json:"data"`
}

// ActionRequest is the envelope posted to the universal form endpoint.
type ActionRequest struct {
	RapportID string   `json:"rapportId"`
	Version   string   `json:"version"`
	Timestamp string   `json:"timestamp"`
	UserID    string   `json:"userId"`
	Actions   []Action `json:"actions"`
}

// ActionResult is the per-action outcome returned to the caller.
type ActionResult struct {
	ActionType    ActionType `json:"actionType"`
	Status        string     `json:"status"`
	Message       string     `json:"message,omitempty"`
	SignalementID string     `json:"signalementId,omitempty"`
	ConsigneID    string     `json:"consigneId,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Succeeded reports whether the backend accepted the action.
func (r ActionResult) Succeeded() bool {
	return r.Status == "success"
}
