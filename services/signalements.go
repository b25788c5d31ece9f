package services

import (
	"time"

	"checkeasy-report/models"
)

// BaseSignalement is a locally-recorded issue report before enrichment.
// Merged is set when the record already went through MergeSignalements; an
// unmatched record carrying it is passed through unchanged.
type BaseSignalement struct {
	ID          string
	Description string
	PhotoURL    string
	PhotoBase64 string
	Timestamp   string
	Merged      *models.Signalement
}

// FromSession converts session stubs into merge input.
func FromSession(stubs []models.SessionSignalement) []BaseSignalement {
	base := make([]BaseSignalement, 0, len(stubs))
	for _, s := range stubs {
		base = append(base, BaseSignalement{
			ID:          s.SignalementID,
			Description: s.Description,
			PhotoURL:    s.ImgURL,
			PhotoBase64: s.ImgBase64,
			Timestamp:   s.Timestamp,
		})
	}
	return base
}

// FromMerged converts already-merged reports back into merge input.
func FromMerged(merged []models.Signalement) []BaseSignalement {
	base := make([]BaseSignalement, 0, len(merged))
	for i := range merged {
		m := merged[i]
		base = append(base, BaseSignalement{
			ID:          m.SignalementID,
			Description: m.Description,
			PhotoURL:    m.ImgURL,
			PhotoBase64: m.ImgBase64,
			Timestamp:   m.Timestamp,
			Merged:      &m,
		})
	}
	return base
}

// MergeSignalements enriches local reports with backend records matched by
// exact description. The first backend record with a given description is
// the match, and each backend record is emitted once: later local reports
// with an already-matched description are dropped. Local reports keep their
// order; backend records that matched nothing are appended after them in
// backend order.
func MergeSignalements(base []BaseSignalement, bubble []models.BubbleSignalement) []models.Signalement {
	byDescription := make(map[string]int, len(bubble))
	for i, b := range bubble {
		if _, exists := byDescription[b.Description]; !exists {
			byDescription[b.Description] = i
		}
	}

	used := make(map[int]bool)
	merged := make([]models.Signalement, 0, len(base)+len(bubble))

	for _, local := range base {
		idx, ok := byDescription[local.Description]
		if !ok {
			merged = append(merged, unmatchedLocal(local))
			continue
		}
		if used[idx] {
			// Already merged from an earlier stub with the same description.
			continue
		}
		used[idx] = true
		b := bubble[idx]
		merged = append(merged, models.Signalement{
			SignalementID:   b.ID,
			RoomID:          b.PieceRef,
			Titre:           b.TypeText,
			Commentaire:     b.Description,
			ImgURL:          models.FirstNonBlank(b.Photo, local.PhotoURL),
			ImgBase64:       local.PhotoBase64,
			FlowType:        "user",
			Origine:         "user",
			Status:          b.Statut,
			Priorite:        b.Statut == models.SignalementToProcess,
			CreatedAt:       epochToISO(b.CreatedDate),
			UpdatedAt:       epochToISO(b.ModifiedDate),
			Description:     b.Description,
			Timestamp:       local.Timestamp,
			Severity:        SeverityFromStatus(b.Statut),
			SignalementType: models.SignalementDirect,
			TypeText:        b.TypeText,
			Signaleur:       signaleurOf(b),
		})
	}

	for i, b := range bubble {
		if used[i] {
			continue
		}
		created := epochToISO(b.CreatedDate)
		merged = append(merged, models.Signalement{
			SignalementID:   b.ID,
			RoomID:          b.PieceRef,
			Titre:           b.TypeText,
			Commentaire:     b.Description,
			ImgURL:          b.Photo,
			FlowType:        "user",
			Origine:         "user",
			Status:          b.Statut,
			Priorite:        b.Statut == models.SignalementToProcess,
			CreatedAt:       created,
			UpdatedAt:       epochToISO(b.ModifiedDate),
			Description:     b.Description,
			Comment:         b.CommentaireTraitement,
			Timestamp:       created,
			Severity:        SeverityFromStatus(b.Statut),
			SignalementType: models.SignalementDirect,
			TypeText:        b.TypeText,
			Signaleur:       signaleurOf(b),
		})
	}

	return merged
}

func unmatchedLocal(local BaseSignalement) models.Signalement {
	if local.Merged != nil {
		return *local.Merged
	}
	return models.Signalement{
		SignalementID:   local.ID,
		Titre:           "Signalement",
		Commentaire:     local.Description,
		ImgURL:          local.PhotoURL,
		ImgBase64:       local.PhotoBase64,
		FlowType:        "user",
		Origine:         "user",
		Status:          models.SignalementToProcess,
		Priorite:        true,
		CreatedAt:       local.Timestamp,
		UpdatedAt:       local.Timestamp,
		Description:     local.Description,
		Timestamp:       local.Timestamp,
		Severity:        models.SeverityMedium,
		SignalementType: models.SignalementDirect,
	}
}

// SeverityFromStatus maps a backend status onto a severity.
func SeverityFromStatus(status string) models.Severity {
	switch status {
	case models.SignalementToProcess:
		return models.SeverityHigh
	case models.SignalementInProgress:
		return models.SeverityMedium
	case models.SignalementResolved:
		return models.SeverityLow
	default:
		return models.SeverityMedium
	}
}

// GroupConsignes buckets guidance notes by room. When journeyRef is not
// blank only notes of that journey are kept. Notes without a room are
// dropped.
func GroupConsignes(notes []models.BubbleConsigneIA, journeyRef string) map[string][]models.BubbleConsigneIA {
	byRoom := make(map[string][]models.BubbleConsigneIA)
	for _, n := range notes {
		if journeyRef != "" && n.JourneyRef() != journeyRef {
			continue
		}
		if n.Piece == "" {
			continue
		}
		byRoom[n.Piece] = append(byRoom[n.Piece], n)
	}
	return byRoom
}

// GroupByRoom buckets merged reports by room id. Reports without a room are
// left out.
func GroupByRoom(signalements []models.Signalement) map[string][]models.Signalement {
	byRoom := make(map[string][]models.Signalement)
	for _, s := range signalements {
		if s.RoomID == "" {
			continue
		}
		byRoom[s.RoomID] = append(byRoom[s.RoomID], s)
	}
	return byRoom
}

func signaleurOf(b models.BubbleSignalement) *models.Signaleur {
	return &models.Signaleur{
		Nom:    b.NomSignaleur,
		Prenom: b.PrenomSignaleur,
		Phone:  b.PhoneSignaleur,
	}
}

func epochToISO(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
