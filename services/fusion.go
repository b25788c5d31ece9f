package services

import (
	"checkeasy-report/models"
	"checkeasy-report/utils"
)

// FusionEngine joins the four source documents into one FusedReport.
type FusionEngine struct {
	cleaner *Cleaner
	logger  *utils.Logger
}

// NewFusionEngine creates a FusionEngine with the given logger.
func NewFusionEngine(logger *utils.Logger) *FusionEngine {
	return &FusionEngine{cleaner: NewCleaner(logger), logger: logger}
}

// Fuse builds the fused report. Inputs are not modified. ai, session and
// bundle must be non-nil; missing sources are synthesized beforehand.
func (e *FusionEngine) Fuse(ai *models.RapportData, session *models.SessionData, bubble models.SignalementsResponse, bundle *models.FullData) *models.FusedReport {
	rawPieces := make(map[string]*models.Piece, len(session.Checkin.Pieces))
	for i := range session.Checkin.Pieces {
		p := &session.Checkin.Pieces[i]
		rawPieces[p.PieceID] = p
	}

	bubbleSignalements := bubble.Response.Signalement
	if bubbleSignalements == nil {
		bubbleSignalements = []models.BubbleSignalement{}
	}
	merged := MergeSignalements(e.cleaner.Clean(session.Signalements), bubbleSignalements)
	byRoom := GroupByRoom(merged)

	journeyRef := ""
	if len(bubbleSignalements) > 0 {
		journeyRef = bubbleSignalements[0].ParcoursRef
	}
	notesByRoom := GroupConsignes(bubble.Response.ConsigneIA, journeyRef)

	fused := &models.FusedReport{
		RapportData: *ai,
		Rooms:       make(map[string]*models.RoomJoin, len(ai.DetailParPieceSection)),
		RoomOrder:   make([]string, 0, len(ai.DetailParPieceSection)),
		FullData:    bundle,
	}

	rooms := make([]models.PieceDetail, len(ai.DetailParPieceSection))
	for i, piece := range ai.DetailParPieceSection {
		if name := bundle.RoomName(piece.ID); name != "" {
			piece.Nom = name
		}
		if initial := bundle.InitialPhotos(piece.ID); len(initial) > 0 {
			piece.PhotosReference = initial
		}
		rooms[i] = piece

		join := &models.RoomJoin{
			AI:           piece,
			RawPiece:     rawPieces[piece.ID],
			Etapes:       []models.Etape{},
			Signalements: byRoom[piece.ID],
			Consignes:    notesByRoom[piece.ID],
		}
		if join.RawPiece != nil && join.RawPiece.Etapes != nil {
			join.Etapes = join.RawPiece.Etapes
		}
		if join.Signalements == nil {
			join.Signalements = []models.Signalement{}
		}
		if join.Consignes == nil {
			join.Consignes = []models.BubbleConsigneIA{}
		}

		if _, dup := fused.Rooms[piece.ID]; !dup {
			fused.RoomOrder = append(fused.RoomOrder, piece.ID)
		}
		fused.Rooms[piece.ID] = join
	}
	fused.DetailParPieceSection = rooms

	meta := &fused.ReportMetadata
	meta.TypeParcours = bundle.JourneyKind()
	meta.EtatLieuxMoment = bundle.InspectionMoment()
	meta.LogementName = bundle.LogementName
	meta.GlobalScore = bundle.GlobalScore()

	fused.Raw = models.RawData{
		Agent:              session.Agent,
		Parcours:           session.Parcours,
		Checkin:            session.Checkin,
		Signalements:       merged,
		Timestamps:         overlayTimestamps(session.Timestamps, bundle),
		BubbleSignalements: bubbleSignalements,
	}

	e.logger.Debug("[fusion] %s: %d rooms, %d merged reports (%d from backend), %d guidance notes",
		meta.ID, len(fused.RoomOrder), len(merged), len(bubbleSignalements), len(bubble.Response.ConsigneIA))
	return fused
}

// overlayTimestamps prefers the bundle's dates, reduced to HH:mm, over the
// session hours. Entry hours are cleared on exit-only inspections.
func overlayTimestamps(session *models.Timestamps, bundle *models.FullData) models.Timestamps {
	var ts models.Timestamps
	if session != nil {
		ts = *session
	}

	if bundle.IsExitOnly() {
		ts.CheckinStartHour = nil
		ts.CheckinEndHour = nil
	} else {
		ts.CheckinStartHour = preferHour(BubbleDateToHour(bundle.CheckinStartTime), ts.CheckinStartHour)
		ts.CheckinEndHour = preferHour(BubbleDateToHour(bundle.CheckinEndTime), ts.CheckinEndHour)
	}
	ts.CheckoutStartHour = preferHour(BubbleDateToHour(bundle.CheckoutStartTime), ts.CheckoutStartHour)
	ts.CheckoutEndHour = preferHour(BubbleDateToHour(bundle.CheckoutEndTime), ts.CheckoutEndHour)
	return ts
}

func preferHour(primary, fallback *string) *string {
	if primary != nil {
		return primary
	}
	if fallback != nil && models.IsBlank(*fallback) {
		return nil
	}
	return fallback
}
