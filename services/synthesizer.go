package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"checkeasy-report/models"
	"checkeasy-report/utils"
)

const (
	defaultNote       = 8
	defaultHour       = "00:00:00"
	defaultPieceIcon  = "🏠"
	defaultRoomResume = "État général satisfaisant"
	defaultAgentID    = "default-agent"
)

// Synthesizer builds stand-in session and AI documents from the full bundle
// when the corresponding endpoints are unavailable. Output depends only on its
// inputs and the given clock reading.
type Synthesizer struct {
	logger *utils.Logger
}

// NewSynthesizer creates a Synthesizer with the given logger.
func NewSynthesizer(logger *utils.Logger) *Synthesizer {
	return &Synthesizer{logger: logger}
}

func dateAndTime(now time.Time) (string, string) {
	return now.Format("2006-01-02"), now.Format("15:04:05")
}

// SynthesizeSession builds a session document with no rooms and the bundle's
// operator as agent.
func (s *Synthesizer) SynthesizeSession(reportID string, bundle *models.FullData, now time.Time) *models.SessionData {
	dateStr, timeStr := dateAndTime(now)
	steps := len(bundle.EtapeResponse)

	var checkinStart, checkinEnd *string
	if bundle.RapportStep != models.BundleStepExitOnly {
		checkinStart = models.StringPtr(timeStr)
		checkinEnd = models.StringPtr(timeStr)
	}
	timestamps := func() *models.Timestamps {
		return &models.Timestamps{
			SessionStart:           dateStr,
			SnapshotCreated:        dateStr,
			CheckinCompleted:       dateStr,
			ExitQuestionsCompleted: models.StringPtr(dateStr),
			CheckinStartHour:       checkinStart,
			CheckinEndHour:         checkinEnd,
			CheckoutStartHour:      models.StringPtr(timeStr),
			CheckoutEndHour:        models.StringPtr(timeStr),
		}
	}

	session := &models.SessionData{
		WebhookVersion: "1.0",
		Schema:         "default",
		CheckID:        reportID,
		ParcoursID:     reportID,
		LogementID:     bundle.LogementUniqueID,
		LogementName:   bundle.LogementName,
		Agent: models.Agent{
			ID:                 defaultAgentID,
			Firstname:          orDefault(bundle.UserFirstname, "Prénom"),
			Lastname:           orDefault(bundle.UserLastname, "Nom"),
			Phone:              bundle.UserPhone,
			Type:               models.JourneyTraveler,
			TypeLabel:          "Voyageur",
			VerificationStatus: "verified",
		},
		Parcours: models.Parcours{
			ID:                   reportID,
			Name:                 orDefault(bundle.LogementName, "Parcours"),
			Type:                 models.PhaseCheckout,
			StartTime:            timeStr,
			CurrentTime:          timeStr,
			CompletionPercentage: 100,
			TotalPieces:          steps,
			CompletedPieces:      steps,
		},
		Checkin: models.Checkin{
			Pieces:     []models.Piece{},
			Stats:      models.CheckinStats{CompletionRate: 100},
			Timestamp:  dateStr,
			Timestamps: timestamps(),
		},
		Signalements: []models.SessionSignalement{},
		Timestamps:   timestamps(),
	}

	s.logger.Debug("[synth] Built default session for %s (%d steps)", reportID, steps)
	return session
}

// SynthesizeAI builds an AI findings document with neutral ratings and one
// room per room id found in the bundle's steps and checkout photos.
func (s *Synthesizer) SynthesizeAI(reportID string, bundle *models.FullData, session *models.SessionData, now time.Time) *models.RapportData {
	dateStr, timeStr := dateAndTime(now)
	if session == nil {
		session = &models.SessionData{}
	}
	ts := session.Timestamps
	if ts == nil {
		ts = &models.Timestamps{}
	}

	logement := orDefault(bundle.LogementName, "Logement")

	voyageur := ""
	if bundle.UserFirstname != "" && bundle.UserLastname != "" {
		voyageur = strings.TrimSpace(bundle.UserFirstname + " " + bundle.UserLastname)
	} else {
		voyageur = orDefault(strings.TrimSpace(session.Agent.Firstname+" "+session.Agent.Lastname), "Voyageur")
	}

	photosCheckin := 0
	for _, p := range session.Checkin.Pieces {
		photosCheckin += len(p.Etapes)
	}

	data := &models.RapportData{
		ReportMetadata: models.ReportMetadata{
			ID:              reportID,
			Logement:        logement,
			DateDebut:       dateStr,
			DateFin:         dateStr,
			Statut:          models.StatusCompleted,
			Parcours:        orDefault(session.Parcours.ID, reportID),
			TypeParcours:    bundle.JourneyKind(),
			EtatLieuxMoment: bundle.InspectionMoment(),
			Operateur:       orDefault(strings.TrimSpace(bundle.OperatorName()), "Opérateur"),
			Etat:            1,
			DateGeneration:  dateStr,
			HeureGeneration: timeStr,
		},
		SyntheseSection: models.SyntheseSection{
			Logement:         logement,
			Voyageur:         voyageur,
			Telephone:        models.FirstNonBlank(bundle.UserPhone, session.Agent.Phone),
			DateDebut:        dateStr,
			DateFin:          dateStr,
			HeureCheckin:     models.FirstNonBlank(models.Deref(ts.CheckinStartHour), session.Parcours.StartTime, defaultHour),
			HeureCheckout:    derefOr(ts.CheckoutStartHour, defaultHour),
			HeureCheckinFin:  derefOr(ts.CheckinEndHour, defaultHour),
			HeureCheckoutFin: derefOr(ts.CheckoutEndHour, defaultHour),
			NoteGenerale:     defaultNote,
			SousNotes: models.SousNotes{
				PresenceObjets: defaultNote,
				EtatObjets:     defaultNote,
				Proprete:       defaultNote,
				Agencement:     defaultNote,
			},
			Statut:             models.StatusCompleted,
			RemarquesGenerales: emptyRemarques(),
		},
		RemarquesGeneralesSection: models.RemarquesGeneralesSection{
			Scope: "global",
			Meta: models.RemarquesMeta{
				LogementID:      bundle.LogementUniqueID,
				RapportID:       reportID,
				DateGeneration:  dateStr,
				HeureGeneration: timeStr,
				PhotosCheckin:   photosCheckin,
				PhotosCheckout:  len(bundle.PhotoPieceCheckout),
			},
			Alerts: models.Alerts{
				WrongRoomRooms:    []string{},
				ImageQualityRooms: []string{},
			},
			Highlights:  []models.Highlight{},
			UserReports: []models.UserReportSummary{},
			Rooms:       []models.RoomSummary{},
		},
		DetailParPieceSection: s.synthesizeRooms(bundle, session, ts, dateStr),
		CheckFinalSection:     synthesizeCheckFinal(bundle.ExitQuestion),
		SuggestionsIASection:  []models.SuggestionIA{},
	}

	s.logger.Debug("[synth] Built default AI data for %s (%d rooms)", reportID, len(data.DetailParPieceSection))
	return data
}

func (s *Synthesizer) synthesizeRooms(bundle *models.FullData, session *models.SessionData, ts *models.Timestamps, dateStr string) []models.PieceDetail {
	var order []string
	stepsByRoom := make(map[string][]models.EtapeResponse)
	photosByRoom := make(map[string][]models.PhotoSortie)
	seen := make(map[string]bool)
	track := func(id string) {
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}

	for _, step := range bundle.EtapeResponse {
		track(step.PieceID)
		stepsByRoom[step.PieceID] = append(stepsByRoom[step.PieceID], step)
	}
	for _, p := range bundle.PhotoPieceCheckout {
		track(p.PieceID)
		photosByRoom[p.PieceID] = append(photosByRoom[p.PieceID], models.PhotoSortie{URL: p.ImageCheckout, DatePhoto: p.DatePhoto})
	}

	rooms := make([]models.PieceDetail, 0, len(order))
	for _, id := range order {
		steps := stepsByRoom[id]
		photos := photosByRoom[id]
		if photos == nil {
			photos = []models.PhotoSortie{}
		}

		tasks := make([]models.TacheValidee, 0, len(steps))
		for _, step := range steps {
			tasks = append(tasks, models.TacheValidee{
				EtapeID:             step.EtapeID,
				Nom:                 orDefault(step.Title, "Tâche"),
				EstApprouve:         step.IsDone == models.BundleAnswerYes,
				DateHeureValidation: dateStr,
				Commentaire:         step.Consigne,
				PhotoURL:            step.CheckPhoto,
				PhotoReferenceURL:   step.ReferencePhoto,
			})
		}

		name := ResolveRoomName(id, bundle, session)
		rooms = append(rooms, models.PieceDetail{
			ID:              id,
			Nom:             name,
			PieceIcon:       defaultPieceIcon,
			Note:            defaultNote,
			Resume:          defaultRoomResume,
			PhotosReference: []string{},
			CheckEntree: &models.CheckEntree{
				EstConforme:         true,
				DateHeureValidation: derefOr(ts.CheckinStartHour, dateStr),
				PhotosEntree:        []string{},
			},
			CheckSortie: &models.CheckSortie{
				EstValide:           true,
				DateHeureValidation: derefOr(ts.CheckoutStartHour, dateStr),
				PhotosSortie:        photos,
				PhotosNonConformes:  []string{},
			},
			TachesValidees: tasks,
			Problemes:      []models.Probleme{},
			ConsignesIA:    []models.ConsigneIA{},
		})
	}
	return rooms
}

func synthesizeCheckFinal(questions []models.ExitQuestion) []models.CheckFinalItem {
	items := make([]models.CheckFinalItem, 0, len(questions))
	for i, q := range questions {
		completed := q.ResponseBoolean == models.BundleAnswerYes
		icon := LeadingEmoji(q.Question)
		if icon == "" {
			icon = "✗"
			if completed {
				icon = "✓"
			}
		}
		items = append(items, models.CheckFinalItem{
			ID:           checkFinalID(i),
			Text:         q.Question,
			Completed:    completed,
			Icon:         icon,
			Photo:        q.ImageResponseURL,
			ResponseText: q.ResponseText,
		})
	}
	return items
}

// checkFinalID identifies the check-final item built from the i-th exit
// question.
func checkFinalID(i int) string {
	return fmt.Sprintf("exit-question-%d", i)
}

// ResolveRoomName returns the display name of a room: the bundle registry,
// then the name carried by a bundle step, then by a checkout photo, then the
// session room, then "Pièce <id prefix>".
func ResolveRoomName(pieceID string, bundle *models.FullData, session *models.SessionData) string {
	if bundle != nil {
		if name := bundle.RoomName(pieceID); name != "" {
			return name
		}
		for _, step := range bundle.EtapeResponse {
			if step.PieceID == pieceID && !models.IsBlank(step.Nom) {
				return step.Nom
			}
		}
		for _, p := range bundle.PhotoPieceCheckout {
			if p.PieceID == pieceID && !models.IsBlank(p.Nom) {
				return p.Nom
			}
		}
	}
	if session != nil {
		for _, p := range session.Checkin.Pieces {
			if p.PieceID == pieceID && !models.IsBlank(p.Nom) {
				return p.Nom
			}
		}
	}
	prefix := pieceID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "Pièce " + prefix
}

// LeadingEmoji returns the first rune of s when it is a pictograph in the
// U+1F300–U+1F9FF block, or "".
func LeadingEmoji(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r < 0x1F300 || r > 0x1F9FF {
		return ""
	}
	return string(r)
}

func emptyRemarques() models.RemarquesGenerales {
	return models.RemarquesGenerales{
		ObjetsManquants:    []string{},
		Degradations:       []string{},
		PropreteAgencement: []string{},
		Signalements:       []string{},
	}
}

func orDefault(s, fallback string) string {
	if models.IsBlank(s) {
		return fallback
	}
	return s
}
