package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"checkeasy-report/models"
)

const (
	placeholderAddress  = "Adresse non renseignée"
	placeholderLogement = "Logement non renseigné"
	placeholderVoyageur = "Non renseigné"
	defaultCheckIcon    = "shield"
)

// The Map* functions project a fused report onto the page's screens. They
// never modify the report and never fail: missing data renders as zero
// values and empty lists.

// MapRapport builds every projection of the report.
func MapRapport(f *models.FusedReport) *models.MappedRapport {
	return &models.MappedRapport{
		Rapport:            MapAppRapport(f),
		Synthese:           MapSynthese(f),
		RemarquesGenerales: MapRemarquesGenerales(f),
		Pieces:             MapPieces(f),
		Suggestions:        MapSuggestions(f),
		CheckFinal:         MapCheckFinal(f),
		RawGlobalData:      mapRawGlobalData(f),
		Sources:            f.Sources,
	}
}

func bundleOf(f *models.FusedReport) *models.FullData {
	if f.FullData == nil {
		return &models.FullData{}
	}
	return f.FullData
}

// MapAppRapport builds the page header.
func MapAppRapport(f *models.FusedReport) models.AppRapport {
	meta := f.ReportMetadata
	moment := models.MomentEntryAndExit
	if meta.EtatLieuxMoment == models.MomentExitOnly {
		moment = models.MomentExitOnly
	}
	agent := f.Raw.Agent
	parcours := f.Raw.Parcours

	return models.AppRapport{
		ID:              meta.ID,
		Logement:        meta.Logement,
		DateDebut:       models.FirstNonBlank(meta.DateDebut, f.SyntheseSection.DateDebut),
		DateFin:         models.FirstNonBlank(meta.DateFin, f.SyntheseSection.DateFin),
		Statut:          meta.Statut,
		Parcours:        meta.Parcours,
		TypeParcours:    meta.TypeParcours,
		EtatLieuxMoment: moment,
		Operateur:       meta.Operateur,
		Etat:            meta.Etat,
		Signalements:    len(f.Raw.Signalements),
		ScoreConfiance:  int(math.Round(f.SyntheseSection.NoteGenerale / 5 * 100)),
		ParcoursInfo: models.ParcoursInfo{
			StartTime:            parcours.StartTime,
			CurrentTime:          parcours.CurrentTime,
			DurationMinutes:      parcours.DurationMinutes,
			CompletionPercentage: parcours.CompletionPercentage,
			TotalPieces:          parcours.TotalPieces,
			CompletedPieces:      parcours.CompletedPieces,
			PiecesWithIssues:     parcours.PiecesWithIssues,
		},
		AgentInfo: models.AgentInfo{
			ID:                 agent.ID,
			Firstname:          agent.Firstname,
			Lastname:           agent.Lastname,
			Phone:              agent.Phone,
			Type:               agent.Type,
			TypeLabel:          agent.TypeLabel,
			VerificationStatus: agent.VerificationStatus,
		},
	}
}

// ResolveDwellingName picks the dwelling name: metadata name, synthesis
// name, bundle name, then the address unless it is the placeholder.
func ResolveDwellingName(f *models.FusedReport) string {
	address := f.SyntheseSection.Logement
	if address == placeholderAddress {
		address = ""
	}
	name := models.FirstNonBlank(
		f.ReportMetadata.LogementName,
		f.SyntheseSection.LogementName,
		bundleOf(f).LogementName,
		address,
	)
	if name == "" {
		return placeholderLogement
	}
	return name
}

// MapSynthese builds the synthesis panel.
func MapSynthese(f *models.FusedReport) models.SyntheseView {
	s := f.SyntheseSection
	ts := f.Raw.Timestamps
	agent := f.Raw.Agent
	agentName := strings.TrimSpace(agent.Firstname + " " + agent.Lastname)

	voyageur := s.Voyageur
	if models.IsBlank(voyageur) || voyageur == placeholderVoyageur {
		voyageur = agentName
	}

	dateDebut := s.DateDebut
	if models.IsBlank(dateDebut) && ts.SessionStart != "" {
		dateDebut = FormatFrenchDate(ts.SessionStart)
	}
	dateFin := s.DateFin
	if models.IsBlank(dateFin) && ts.CheckinCompleted != "" {
		dateFin = FormatFrenchDate(ts.CheckinCompleted)
	}

	scoreExplanation := s.ScoreExplanation
	if scoreExplanation == "" && f.ReportMetadata.GlobalScore != nil {
		scoreExplanation = f.ReportMetadata.GlobalScore.ScoreExplanation
	}

	view := models.SyntheseView{
		Logement:           ResolveDwellingName(f),
		Voyageur:           voyageur,
		Email:              s.Email,
		Telephone:          models.FirstNonBlank(s.Telephone, agent.Phone),
		DateDebut:          dateDebut,
		DateFin:            dateFin,
		HeureCheckin:       s.HeureCheckin,
		HeureCheckout:      models.FirstNonBlank(s.HeureCheckout, s.HeureCheckoutFin),
		NoteGenerale:       s.NoteGenerale,
		SousNotes:          s.SousNotes,
		Statut:             s.Statut,
		RemarquesGenerales: s.RemarquesGenerales,
		ScoreExplanation:   scoreExplanation,
		AgentFullName:      agentName,
		AgentPhone:         agent.Phone,
		AgentType:          agent.TypeLabel,
		TypeParcours:       f.ReportMetadata.TypeParcours,
		EtatLieuxMoment:    f.ReportMetadata.EtatLieuxMoment,
		CheckinStartHour:   firstHour(ts.CheckinStartHour),
		CheckinEndHour:     firstHour(ts.CheckinEndHour),
		CheckoutStartHour:  firstHour(ts.CheckoutStartHour),
		CheckoutEndHour:    firstHour(ts.CheckoutEndHour),
	}
	if f.ReportMetadata.EtatLieuxMoment == models.MomentExitOnly {
		view.CheckinStartHour = nil
		view.CheckinEndHour = nil
	}
	return view
}

// MapRemarquesGenerales builds the global remarks panel: AI user reports,
// direct issue reports, final-check entries and severity-sorted highlights.
func MapRemarquesGenerales(f *models.FusedReport) models.RemarquesView {
	src := f.RemarquesGeneralesSection
	roomNames := make(map[string]string, len(f.DetailParPieceSection))
	for _, p := range f.DetailParPieceSection {
		roomNames[p.ID] = p.Nom
	}

	reports := make([]models.UserReportView, 0, len(src.UserReports)+len(f.Raw.Signalements))
	for _, r := range src.UserReports {
		reports = append(reports, models.UserReportView{Text: r.Text, Status: r.Status, Room: r.Room})
	}

	for _, s := range f.Raw.Signalements {
		if s.SignalementType != models.SignalementDirect {
			continue
		}
		status := models.ReportNotVerifiable
		if s.Status == "open" {
			status = models.ReportConfirmed
		}
		roomName := roomNames[s.RoomID]
		if roomName == "" {
			roomName = s.RoomID
		}
		reports = append(reports, models.UserReportView{
			Text:                models.FirstNonBlank(s.Description, s.Titre),
			Status:              status,
			Room:                s.RoomID,
			RoomName:            roomName,
			SignalementID:       s.SignalementID,
			TypeText:            s.TypeText,
			ImgURL:              s.ImgURL,
			Signaleur:           s.Signaleur,
			CreatedAt:           s.CreatedAt,
			UpdatedAt:           s.UpdatedAt,
			OSSignalementStatut: s.Status,
		})
	}

	reports = append(reports, checkFinalReports(bundleOf(f).ExitQuestion)...)

	highlights := make([]models.Highlight, 0)
	for _, p := range f.DetailParPieceSection {
		for _, prob := range p.Problemes {
			if prob.EstFaux {
				continue
			}
			highlights = append(highlights, models.Highlight{
				Text:      models.FirstNonBlank(prob.Description, prob.Titre),
				Titre:     prob.Titre,
				Severite:  prob.Severite,
				PieceName: p.Nom,
			})
		}
	}
	sort.SliceStable(highlights, func(i, j int) bool {
		return highlights[i].Severite.Rank() < highlights[j].Severite.Rank()
	})

	return models.RemarquesView{
		Scope:       src.Scope,
		Meta:        src.Meta,
		Counts:      src.Counts,
		Alerts:      src.Alerts,
		Highlights:  highlights,
		UserReports: reports,
		Rooms:       nonNilRooms(src.Rooms),
	}
}

// checkFinalReports turns "non" answers and commented final-check answers
// into user reports.
func checkFinalReports(questions []models.ExitQuestion) []models.UserReportView {
	var reports []models.UserReportView
	for _, q := range questions {
		negative := q.IsNegative()
		commented := !models.IsBlank(q.ResponseText)
		if !negative && !commented {
			continue
		}

		text := ""
		if negative {
			text = fmt.Sprintf("Réponse \"Non\" : %s", q.Question)
		}
		if commented {
			if text != "" {
				text = fmt.Sprintf("%s\nCommentaire : %s", text, q.ResponseText)
			} else {
				text = fmt.Sprintf("%s\nCommentaire : %s", q.Question, q.ResponseText)
			}
		}

		reports = append(reports, models.UserReportView{
			Text:                text,
			Status:              models.ReportConfirmed,
			RoomName:            models.CheckFinalRoom,
			TypeText:            models.CheckFinalRoom,
			ImgURL:              q.ImageResponseURL,
			OSSignalementStatut: models.SignalementToProcess,
		})
	}
	return reports
}

// MapPieces builds the per-room detail screens.
func MapPieces(f *models.FusedReport) []models.PieceView {
	bundle := bundleOf(f)
	withEntryPhotos := f.ReportMetadata.EtatLieuxMoment != models.MomentExitOnly &&
		f.ReportMetadata.TypeParcours != models.JourneyHousekeeping

	views := make([]models.PieceView, 0, len(f.DetailParPieceSection))
	for _, piece := range f.DetailParPieceSection {
		join := f.Room(piece.ID)
		if join == nil {
			join = &models.RoomJoin{AI: piece}
		}
		etapes := nonNilEtapes(join.Etapes)
		signalements := join.Signalements
		if signalements == nil {
			signalements = []models.Signalement{}
		}
		photos := RoomPhotos(f, piece.ID)
		roomID := piece.ID
		stepPhoto := func(etapeID string) (models.Etape, bool) {
			return PhotoForEtape(f, roomID, etapeID)
		}

		exitPhotos := bundle.CheckoutPhotos(piece.ID)
		if len(exitPhotos) == 0 {
			for _, src := range photosByPhase(photos, models.PhaseCheckout) {
				exitPhotos = append(exitPhotos, models.PhotoSortie{URL: src})
			}
		}

		var entryPhotos []string
		if withEntryPhotos {
			entryPhotos = photosByPhase(photos, models.PhaseCheckin)
		}

		view := models.PieceView{
			ID:                piece.ID,
			Nom:               piece.Nom,
			PieceIcon:         piece.PieceIcon,
			Note:              piece.Note,
			Resume:            piece.Resume,
			PhotosReference:   nonNilStrings(piece.PhotosReference),
			TachesValidees:    resolveTasks(piece, bundle, etapes),
			ConsignesIA:       piece.ConsignesIA,
			ConsignesIABubble: join.Consignes,
		}
		if view.ConsignesIA == nil {
			view.ConsignesIA = []models.ConsigneIA{}
		}
		if view.ConsignesIABubble == nil {
			view.ConsignesIABubble = []models.BubbleConsigneIA{}
		}

		if piece.CheckEntree != nil {
			view.CheckEntree = &models.CheckEntree{
				EstConforme:         piece.CheckEntree.EstConforme,
				DateHeureValidation: piece.CheckEntree.DateHeureValidation,
				PhotosReprises:      nonNilStrings(piece.CheckEntree.PhotosReprises),
				PhotosEntree:        entryPhotos,
			}
		}
		if piece.CheckSortie != nil {
			sortie := exitPhotos
			if len(sortie) == 0 {
				sortie = piece.CheckSortie.PhotosSortie
			}
			if sortie == nil {
				sortie = []models.PhotoSortie{}
			}
			view.CheckSortie = &models.CheckSortie{
				EstValide:           piece.CheckSortie.EstValide,
				DateHeureValidation: piece.CheckSortie.DateHeureValidation,
				PhotosSortie:        sortie,
				PhotosNonConformes:  nonNilStrings(piece.CheckSortie.PhotosNonConformes),
			}
			exitPhotos = sortie
		}

		view.Problemes = make([]models.Probleme, 0, len(piece.Problemes))
		for _, p := range piece.Problemes {
			p.ConsignesIA = nonNilStrings(p.ConsignesIA)
			if p.PhotoURL == "" {
				p.PhotoURL = MatchProblemPhoto(p, view.TachesValidees, stepPhoto, exitPhotos)
			}
			view.Problemes = append(view.Problemes, p)
		}
		view.ResolvedTaskCount = resolvedTaskCount(view.TachesValidees, view.Problemes)

		cats := CategorizeSignalements(signalements)
		view.RawData = models.PieceRawView{
			Etapes:                  etapes,
			Photos:                  photos,
			Signalements:            signalements,
			SignalementsUtilisateur: cats.UserReports,
			SignalementsIA:          cats.AIDetected,
			Timestamps:              RoomTimestamps(f, piece.ID),
			PhotoStats:              PhotoValidationStats(photos),
			TotalEtapes:             len(etapes),
			TotalPhotos:             len(photos),
			TotalSignalements:       len(signalements),
		}
		views = append(views, view)
	}
	return views
}

// resolveTasks returns the room's tasks with their photos. Rooms without AI
// tasks get one task per bundle step. Otherwise each task takes its photos
// from the bundle step with the same title in the room, then from the
// session step with its etape id, then from a session todo with its title.
func resolveTasks(piece models.PieceDetail, bundle *models.FullData, etapes []models.Etape) []models.TacheValidee {
	if len(piece.TachesValidees) == 0 {
		tasks := make([]models.TacheValidee, 0)
		for _, step := range bundle.EtapeResponse {
			if step.PieceID != piece.ID {
				continue
			}
			tasks = append(tasks, models.TacheValidee{
				EtapeID:           step.EtapeID,
				Nom:               orDefault(step.Title, "Tâche"),
				EstApprouve:       step.IsDone == models.BundleAnswerYes,
				Commentaire:       step.Consigne,
				PhotoURL:          step.CheckPhoto,
				PhotoReferenceURL: step.ReferencePhoto,
			})
		}
		return tasks
	}

	tasks := make([]models.TacheValidee, 0, len(piece.TachesValidees))
	for _, task := range piece.TachesValidees {
		photo, reference := "", ""
		for _, step := range bundle.EtapeResponse {
			if step.Title == task.Nom && step.PieceID == piece.ID {
				photo = step.CheckPhoto
				reference = step.ReferencePhoto
				if task.Commentaire == "" && step.Consigne != "" {
					task.Commentaire = step.Consigne
				}
				break
			}
		}

		if photo == "" {
			photo = sessionTaskPhoto(task, etapes)
		}

		task.PhotoURL = models.FirstNonBlank(photo, task.PhotoURL)
		task.PhotoReferenceURL = models.FirstNonBlank(reference, task.PhotoReferenceURL)
		tasks = append(tasks, task)
	}
	return tasks
}

func sessionTaskPhoto(task models.TacheValidee, etapes []models.Etape) string {
	for _, e := range etapes {
		var match bool
		if task.EtapeID != "" {
			match = e.EtapeID == task.EtapeID
		} else {
			match = e.IsTodo && e.TodoTitle == task.Nom
		}
		if !match {
			continue
		}
		if src := e.Photo(); !models.IsBlank(src) {
			return src
		}
	}
	return ""
}

// resolvedTaskCount counts approved tasks not linked to an open AI finding.
func resolvedTaskCount(tasks []models.TacheValidee, problems []models.Probleme) int {
	flagged := make(map[string]bool)
	for _, p := range problems {
		if p.EtapeID != "" && p.DetectionIA && !p.EstFaux {
			flagged[p.EtapeID] = true
		}
	}
	n := 0
	for _, t := range tasks {
		if t.EstApprouve && !(t.EtapeID != "" && flagged[t.EtapeID]) {
			n++
		}
	}
	return n
}

// MapSuggestions returns the AI suggestions.
func MapSuggestions(f *models.FusedReport) []models.SuggestionIA {
	out := make([]models.SuggestionIA, 0, len(f.SuggestionsIASection))
	for _, s := range f.SuggestionsIASection {
		out = append(out, models.SuggestionIA{Titre: s.Titre, Description: s.Description, Priorite: s.Priorite})
	}
	return out
}

// MapCheckFinal lists the final-check questions from the bundle, falling
// back to the AI final-check section.
func MapCheckFinal(f *models.FusedReport) []models.CheckFinalItem {
	questions := bundleOf(f).ExitQuestion
	if len(questions) > 0 {
		items := make([]models.CheckFinalItem, 0, len(questions))
		for i, q := range questions {
			completed := false
			switch q.QuestionType {
			case models.QuestionTypeBoolean:
				completed = q.ResponseBoolean == models.BundleAnswerYes
			case models.QuestionTypeText:
				completed = !models.IsBlank(q.ResponseText)
			}
			icon := LeadingEmoji(q.Question)
			if icon == "" {
				icon = defaultCheckIcon
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

	items := make([]models.CheckFinalItem, 0, len(f.CheckFinalSection))
	for i, c := range f.CheckFinalSection {
		items = append(items, models.CheckFinalItem{
			ID:        models.FirstNonBlank(c.ID, fmt.Sprintf("check-%d", i)),
			Text:      c.Text,
			Completed: c.Completed,
			Icon:      models.FirstNonBlank(c.Icon, defaultCheckIcon),
		})
	}
	return items
}

func mapRawGlobalData(f *models.FusedReport) models.RawGlobalData {
	byType := make(map[string]int)
	for kind, list := range SignalementsByType(f.Raw.Signalements) {
		byType[kind] = len(list)
	}
	return models.RawGlobalData{
		Agent:              f.Raw.Agent,
		Parcours:           f.Raw.Parcours,
		CheckinStats:       f.Raw.Checkin.Stats,
		TotalSignalements:  len(f.Raw.Signalements),
		SignalementsByType: byType,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilEtapes(e []models.Etape) []models.Etape {
	if e == nil {
		return []models.Etape{}
	}
	return e
}

func nonNilRooms(r []models.RoomSummary) []models.RoomSummary {
	if r == nil {
		return []models.RoomSummary{}
	}
	return r
}
