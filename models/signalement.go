package models

// Backend issue-report statuses.
const (
	SignalementToProcess  = "À traiter"
	SignalementInProgress = "En cours"
	SignalementResolved   = "Résolu"
)

// Issue-report categories.
const (
	SignalementDirect     = "direct"
	SignalementPhotoIssue = "photo_issue"
)

// BubbleSignalement is a backend-enriched issue report.
type BubbleSignalement struct {
	ID                    string `json:"_id"`
	PieceRef              string `json:"Piece_ref"`
	Conciergerie          string `json:"Conciergerie"`
	PhoneSignaleur        string `json:"phone signaleur"`
	ParcoursRef           string `json:"parcours_ref"`
	TypeText              string `json:"typeText"`
	Statut                string `json:"OS_signalementStatut"`
	NomSignaleur          string `json:"Nom signaleur"`
	Description           string `json:"description"`
	RapportRef            string `json:"rapport_ref"`
	PrenomSignaleur       string `json:"Prenom signaleur"`
	CreatedDate           int64  `json:"Created Date"`
	ModifiedDate          int64  `json:"Modified Date"`
	CreatedBy             string `json:"Created By"`
	LogementRef           string `json:"logement_ref"`
	Photo                 string `json:"photo,omitempty"`
	CommentaireTraitement string `json:"commentaireTraitement,omitempty"`
}

// BubbleConsigneIA is an externally-persisted guidance note.
type BubbleConsigneIA struct {
	ID           string `json:"_id"`
	Commentaire  string `json:"Commentaire"`
	CreatedBy    string `json:"Created By"`
	CreatedDate  int64  `json:"Created Date"`
	ModifiedDate int64  `json:"Modified Date"`
	Piece        string `json:"Piece,omitempty"`
	Type         string `json:"os_consigneType,omitempty"`
	REF          string `json:"REF,omitempty"`
	ParcourRef   string `json:"parcourRef,omitempty"`
	Probleme     string `json:"probleme,omitempty"`
}

// JourneyRef returns the journey instance the note belongs to.
func (c BubbleConsigneIA) JourneyRef() string {
	return FirstNonBlank(c.ParcourRef, c.REF)
}

type SignalementsPayload struct {
	Signalement []BubbleSignalement `json:"signalement"`
	ConsigneIA  []BubbleConsigneIA  `json:"consigneIA"`
}

// SignalementsResponse is the issue-reports endpoint envelope.
type SignalementsResponse struct {
	Status   string              `json:"status"`
	Response SignalementsPayload `json:"response"`
}

type Signaleur struct {
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
	Phone  string `json:"phone"`
}

// Signalement is the merged issue report used by the rest of the pipeline.
type Signalement struct {
	SignalementID   string     `json:"signalement_id"`
	EtapeID         string     `json:"etape_id,omitempty"`
	RoomID          string     `json:"room_id"`
	Titre           string     `json:"titre"`
	Commentaire     string     `json:"commentaire"`
	ImgURL          string     `json:"img_url,omitempty"`
	ImgBase64       string     `json:"img_base64,omitempty"`
	FlowType        string     `json:"flow_type"`
	Origine         string     `json:"origine"`
	Status          string     `json:"status"`
	Priorite        bool       `json:"priorite"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
	Description     string     `json:"description"`
	Comment         string     `json:"comment"`
	Timestamp       string     `json:"timestamp"`
	Severity        Severity   `json:"severity"`
	SignalementType string     `json:"signalement_type"`
	TypeText        string     `json:"typeText,omitempty"`
	Signaleur       *Signaleur `json:"signaleur,omitempty"`
}
