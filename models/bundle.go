package models

import (
	"encoding/json"
	"strings"
)

// Bundle enum values.
const (
	BundleTypeTraveler     = "Voyageur"
	BundleTypeHousekeeping = "Ménage"
	BundleStepExitOnly     = "checkOutOnly"
	BundleStepEntryAndExit = "checkInAndCheckOut"
	BundleAnswerYes        = "oui"
	BundleAnswerNo         = "non"
	QuestionTypeBoolean    = "boolean"
	QuestionTypeText       = "text"
)

type PhotoPieceCheckout struct {
	PieceID       string `json:"pieceid"`
	Nom           string `json:"nom,omitempty"`
	ImageCheckout string `json:"imagecheckout"`
	DatePhoto     string `json:"datephoto,omitempty"`
}

type PhotoPieceInitiale struct {
	PieceID  string   `json:"pieceid"`
	Nom      string   `json:"nom"`
	PhotoURL []string `json:"photourl"`
}

// EtapeResponse is one checklist step of the bundle.
type EtapeResponse struct {
	PieceID        string `json:"pieceid"`
	Nom            string `json:"nom,omitempty"`
	EtapeID        string `json:"etapeid"`
	ReferencePhoto string `json:"referencephoto"`
	CheckPhoto     string `json:"checkphoto"`
	Title          string `json:"title"`
	Consigne       string `json:"consigne"`
	IsDone         string `json:"isdone"`
}

type ExitQuestion struct {
	Question         string `json:"question"`
	ResponseText     string `json:"responseText"`
	ResponseBoolean  string `json:"responseBoolean"`
	ImageResponseURL string `json:"imageresponseurl"`
	QuestionType     string `json:"questionType"`
}

// IsNegative reports a boolean question answered "non".
func (q ExitQuestion) IsNegative() bool {
	return q.QuestionType == QuestionTypeBoolean && q.ResponseBoolean == BundleAnswerNo
}

type BundlePiece struct {
	PieceID string `json:"pieceid"`
	Nom     string `json:"nom"`
}

type AnalysisEnrichment struct {
	GlobalScore *GlobalScore `json:"global_score,omitempty"`
}

type DataIA struct {
	AnalysisEnrichment *AnalysisEnrichment `json:"analysis_enrichment,omitempty"`
}

// UnmarshalJSON ignores payloads that are not objects; upstream sometimes
// sends an empty string.
func (d *DataIA) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		*d = DataIA{}
		return nil
	}
	type plain DataIA
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*d = DataIA(obj)
	return nil
}

// FullData is the mandatory full bundle.
type FullData struct {
	RapportID           string               `json:"rapportID"`
	UserFirstname       string               `json:"userfirstname,omitempty"`
	UserLastname        string               `json:"userlastname,omitempty"`
	UserPhone           string               `json:"userPhone,omitempty"`
	LogementName        string               `json:"logementName,omitempty"`
	LogementAdress      string               `json:"logementAdress,omitempty"`
	LogementUniqueID    string               `json:"logementUniqueID,omitempty"`
	ConciergerieName    string               `json:"conciergerieName,omitempty"`
	RapportType         string               `json:"rapportType,omitempty"`
	RapportStep         string               `json:"rapportStep,omitempty"`
	CheckinStartTime    string               `json:"checkinstarttime,omitempty"`
	CheckinEndTime      string               `json:"checkinendtime,omitempty"`
	CheckoutStartTime   string               `json:"checkoutstarttime,omitempty"`
	CheckoutEndTime     string               `json:"checkoutendtime,omitempty"`
	PhotoPieceInitiales []PhotoPieceInitiale `json:"photoPieceinitiales,omitempty"`
	PhotoPieceCheckout  []PhotoPieceCheckout `json:"photoPiececheckout"`
	EtapeResponse       []EtapeResponse      `json:"etaperesponse"`
	ExitQuestion        []ExitQuestion       `json:"exitQuestion"`
	Piece               []BundlePiece        `json:"piece,omitempty"`
	DataIA              *DataIA              `json:"dataia,omitempty"`
}

// JourneyKind maps the bundle's report type onto the app journey kind.
func (f *FullData) JourneyKind() string {
	if f.RapportType == BundleTypeTraveler {
		return JourneyTraveler
	}
	return JourneyHousekeeping
}

// InspectionMoment maps the bundle's report step onto the app moment.
func (f *FullData) InspectionMoment() string {
	if f.RapportStep == BundleStepEntryAndExit {
		return MomentEntryAndExit
	}
	return MomentExitOnly
}

// IsExitOnly reports whether the bundle describes an exit-only inspection.
func (f *FullData) IsExitOnly() bool {
	return f.InspectionMoment() == MomentExitOnly
}

// RoomName looks the room up in the bundle's registry.
func (f *FullData) RoomName(pieceID string) string {
	for _, p := range f.Piece {
		if p.PieceID == pieceID && !IsBlank(p.Nom) {
			return p.Nom
		}
	}
	return ""
}

// InitialPhotos returns the non-blank baseline photo URLs of a room.
func (f *FullData) InitialPhotos(pieceID string) []string {
	for _, p := range f.PhotoPieceInitiales {
		if p.PieceID != pieceID || len(p.PhotoURL) == 0 {
			continue
		}
		urls := make([]string, 0, len(p.PhotoURL))
		for _, u := range p.PhotoURL {
			if !IsBlank(u) {
				urls = append(urls, u)
			}
		}
		return urls
	}
	return nil
}

// CheckoutPhotos returns the bundle's exit photos for one room.
func (f *FullData) CheckoutPhotos(pieceID string) []PhotoSortie {
	var photos []PhotoSortie
	for _, p := range f.PhotoPieceCheckout {
		if p.PieceID == pieceID && !IsBlank(p.ImageCheckout) {
			photos = append(photos, PhotoSortie{URL: p.ImageCheckout, DatePhoto: p.DatePhoto})
		}
	}
	return photos
}

// GlobalScore returns the AI-enrichment score, if any.
func (f *FullData) GlobalScore() *GlobalScore {
	if f.DataIA == nil || f.DataIA.AnalysisEnrichment == nil {
		return nil
	}
	return f.DataIA.AnalysisEnrichment.GlobalScore
}

// OperatorName joins the user's names.
func (f *FullData) OperatorName() string {
	name := f.UserFirstname
	if f.UserLastname != "" {
		if name != "" {
			name += " "
		}
		name += f.UserLastname
	}
	return name
}
