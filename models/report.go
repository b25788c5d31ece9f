package models

import (
	"encoding/json"
	"strings"
)

// Severity is the AI-assigned gravity of a finding.
type Severity string

const (
	SeverityLow    Severity = "faible"
	SeverityMedium Severity = "moyenne"
	SeverityHigh   Severity = "elevee"
)

// Rank orders severities high → medium → low. Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// Report status labels as sent by the backend.
const (
	StatusCompleted  = "Terminé"
	StatusExpired    = "Expiré"
	StatusInProgress = "En cours"
)

// Journey kinds.
const (
	JourneyTraveler     = "voyageur"
	JourneyHousekeeping = "menage"
)

// Inspection moments.
const (
	MomentExitOnly     = "sortie"
	MomentEntryAndExit = "arrivee-sortie"
)

// GlobalScore is the AI-enrichment score with its natural-language explanation.
type GlobalScore struct {
	Score            float64 `json:"score"`
	Label            string  `json:"label"`
	Description      string  `json:"description"`
	ScoreExplanation string  `json:"score_explanation,omitempty"`
}

// ReportMetadata identifies one inspection instance.
type ReportMetadata struct {
	ID              string       `json:"id"`
	Logement        string       `json:"logement"`
	LogementName    string       `json:"logementName,omitempty"`
	DateDebut       string       `json:"dateDebut"`
	DateFin         string       `json:"dateFin"`
	Statut          string       `json:"statut"`
	Parcours        string       `json:"parcours"`
	TypeParcours    string       `json:"typeParcours"`
	EtatLieuxMoment string       `json:"etatLieuxMoment"`
	Operateur       string       `json:"operateur"`
	Etat            int          `json:"etat"`
	DateGeneration  string       `json:"dateGeneration"`
	HeureGeneration string       `json:"heureGeneration"`
	GlobalScore     *GlobalScore `json:"global_score,omitempty"`
}

// IsExitOnly reports whether only the exit inspection took place.
func (m ReportMetadata) IsExitOnly() bool {
	return m.EtatLieuxMoment != MomentEntryAndExit
}

// SousNotes are the 1–5 sub-ratings of the overall score.
type SousNotes struct {
	PresenceObjets float64 `json:"presenceObjets"`
	EtatObjets     float64 `json:"etatObjets"`
	Proprete       float64 `json:"proprete"`
	Agencement     float64 `json:"agencement"`
}

type RemarquesGenerales struct {
	ObjetsManquants    []string `json:"objetsManquants"`
	Degradations       []string `json:"degradations"`
	PropreteAgencement []string `json:"propreteAgencement"`
	Signalements       []string `json:"signalements"`
}

// SyntheseSection is the summary panel produced by the AI pipeline.
type SyntheseSection struct {
	Logement           string             `json:"logement"`
	LogementName       string             `json:"logementName,omitempty"`
	Voyageur           string             `json:"voyageur"`
	Email              string             `json:"email"`
	Telephone          string             `json:"telephone"`
	DateDebut          string             `json:"dateDebut"`
	DateFin            string             `json:"dateFin"`
	HeureCheckin       string             `json:"heureCheckin"`
	HeureCheckout      string             `json:"heureCheckout"`
	HeureCheckinFin    string             `json:"heureCheckinFin"`
	HeureCheckoutFin   string             `json:"heureCheckoutFin"`
	NoteGenerale       float64            `json:"noteGenerale"`
	SousNotes          SousNotes          `json:"sousNotes"`
	Statut             string             `json:"statut"`
	RemarquesGenerales RemarquesGenerales `json:"remarquesGenerales"`
	ScoreExplanation   string             `json:"scoreExplanation,omitempty"`
}

type SeverityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type IssueCounts struct {
	MissingItem  int            `json:"missing_item"`
	AddedItem    int            `json:"added_item"`
	Positioning  int            `json:"positioning"`
	Cleanliness  SeverityCounts `json:"cleanliness"`
	Damage       SeverityCounts `json:"damage"`
	ImageQuality int            `json:"image_quality"`
	WrongRoom    int            `json:"wrong_room"`
}

type RemarquesMeta struct {
	LogementID      string `json:"logementId"`
	RapportID       string `json:"rapportId"`
	DateGeneration  string `json:"dateGeneration"`
	HeureGeneration string `json:"heureGeneration"`
	PhotosCheckin   int    `json:"photosCheckin"`
	PhotosCheckout  int    `json:"photosCheckout"`
}

type Alerts struct {
	WrongRoom         bool     `json:"wrong_room"`
	ImageQuality      bool     `json:"image_quality"`
	WrongRoomRooms    []string `json:"wrong_room_rooms"`
	ImageQualityRooms []string `json:"image_quality_rooms"`
}

type Highlight struct {
	Text      string   `json:"text"`
	Titre     string   `json:"titre"`
	Severite  Severity `json:"severite"`
	PieceName string   `json:"pieceName"`
}

type UserReportSummary struct {
	Text   string `json:"text"`
	Status string `json:"status"`
	Room   string `json:"room"`
}

type RoomSummary struct {
	Name          string      `json:"name"`
	Icon          string      `json:"icon"`
	Status        string      `json:"status"`
	IssuesSummary IssueCounts `json:"issues_summary"`
	Flags         []string    `json:"flags"`
	Link          string      `json:"link"`
}

// RemarquesGeneralesSection is the global remarks panel of the AI pipeline.
type RemarquesGeneralesSection struct {
	Scope       string              `json:"scope"`
	Meta        RemarquesMeta       `json:"meta"`
	Counts      IssueCounts         `json:"counts"`
	Alerts      Alerts              `json:"alerts"`
	Highlights  []Highlight         `json:"highlights"`
	UserReports []UserReportSummary `json:"user_reports"`
	Rooms       []RoomSummary       `json:"rooms"`
}

// TacheValidee is one checklist item inside a room.
type TacheValidee struct {
	EtapeID             string `json:"etapeId,omitempty"`
	Nom                 string `json:"nom"`
	EstApprouve         bool   `json:"estApprouve"`
	DateHeureValidation string `json:"dateHeureValidation"`
	Commentaire         string `json:"commentaire,omitempty"`
	PhotoURL            string `json:"photo_url,omitempty"`
	PhotoReferenceURL   string `json:"photo_reference_url,omitempty"`
}

// Probleme is one finding from photo analysis.
type Probleme struct {
	ID          string   `json:"id"`
	Titre       string   `json:"titre"`
	Description string   `json:"description"`
	Severite    Severity `json:"severite"`
	DetectionIA bool     `json:"detectionIA"`
	ConsignesIA []string `json:"consignesIA,omitempty"`
	EstFaux     bool     `json:"estFaux,omitempty"`
	EtapeID     string   `json:"etapeId,omitempty"`
	PhotoURL    string   `json:"photoUrl,omitempty"`
}

type CheckEntree struct {
	EstConforme         bool     `json:"estConforme"`
	DateHeureValidation string   `json:"dateHeureValidation"`
	PhotosReprises      []string `json:"photosReprises,omitempty"`
	PhotosEntree        []string `json:"photosEntree,omitempty"`
}

// PhotoSortie is an exit photo. Upstream sends either a bare URL string or
// an object carrying the capture date.
type PhotoSortie struct {
	URL       string `json:"url"`
	DatePhoto string `json:"datephoto,omitempty"`
}

func (p *PhotoSortie) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PhotoSortie{URL: s}
		return nil
	}
	type plain PhotoSortie
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = PhotoSortie(obj)
	return nil
}

type CheckSortie struct {
	EstValide           bool          `json:"estValide"`
	DateHeureValidation string        `json:"dateHeureValidation"`
	PhotosSortie        []PhotoSortie `json:"photosSortie"`
	PhotosNonConformes  []string      `json:"photosNonConformes,omitempty"`
}

// Guidance note kinds.
const (
	ConsigneIgnore = "ignorer"
	ConsigneWatch  = "surveiller"
)

// ConsigneIA is an AI guidance note. Informal notes arrive as bare strings
// and keep an empty Type.
type ConsigneIA struct {
	Type     string `json:"type,omitempty"`
	Consigne string `json:"consigne"`
}

func (c *ConsigneIA) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ConsigneIA{Consigne: s}
		return nil
	}
	type plain ConsigneIA
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = ConsigneIA(obj)
	return nil
}

// IsIgnore reports whether the note belongs to the "ignore" list. Informal
// string notes are shown there too.
func (c ConsigneIA) IsIgnore() bool {
	return c.Type == "" || c.Type == ConsigneIgnore
}

// PieceDetail is one inspected room as produced by the AI pipeline.
type PieceDetail struct {
	ID              string         `json:"id"`
	Nom             string         `json:"nom"`
	PieceIcon       string         `json:"pieceIcon"`
	Note            float64        `json:"note"`
	Resume          string         `json:"resume"`
	PhotosReference []string       `json:"photosReference"`
	CheckEntree     *CheckEntree   `json:"checkEntree,omitempty"`
	CheckSortie     *CheckSortie   `json:"checkSortie,omitempty"`
	TachesValidees  []TacheValidee `json:"tachesValidees"`
	Problemes       []Probleme     `json:"problemes"`
	ConsignesIA     []ConsigneIA   `json:"consignesIA"`
}

type CheckFinalItem struct {
	ID           string `json:"id,omitempty"`
	Text         string `json:"text"`
	Completed    bool   `json:"completed"`
	Icon         string `json:"icon,omitempty"`
	Photo        string `json:"photo,omitempty"`
	ResponseText string `json:"responseText,omitempty"`
}

type SuggestionIA struct {
	Titre       string `json:"titre"`
	Description string `json:"description"`
	Priorite    string `json:"priorite"`
}

// RapportData is the AI findings document.
type RapportData struct {
	ReportMetadata            ReportMetadata            `json:"reportMetadata"`
	SyntheseSection           SyntheseSection           `json:"syntheseSection"`
	RemarquesGeneralesSection RemarquesGeneralesSection `json:"remarquesGeneralesSection"`
	DetailParPieceSection     []PieceDetail             `json:"detailParPieceSection"`
	CheckFinalSection         []CheckFinalItem          `json:"checkFinalSection"`
	SuggestionsIASection      []SuggestionIA            `json:"suggestionsIASection"`
}

// IsBlank reports whether s is empty once trimmed.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// FirstNonBlank returns the first value that is not blank, or "".
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if !IsBlank(v) {
			return v
		}
	}
	return ""
}
