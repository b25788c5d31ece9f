package services

import (
	"math"
	"sort"
	"time"

	"checkeasy-report/models"
)

// HasImage reports whether a step carries a photo. Photo steps always do;
// button clicks only when they hold a URL or inline data.
func HasImage(e models.Etape) bool {
	switch e.Type {
	case models.EtapePhotoTaken:
		return true
	case models.EtapeButtonClick:
		return !models.IsBlank(e.PhotoURL) || !models.IsBlank(e.PhotoBase64)
	}
	return false
}

// DedupePhotos keeps the image-bearing steps, one per etape id, in first-seen
// order. A later duplicate replaces the kept step only when it has a URL and
// the kept one does not.
func DedupePhotos(etapes []models.Etape) []models.Etape {
	index := make(map[string]int)
	photos := make([]models.Etape, 0, len(etapes))

	for _, e := range etapes {
		if !HasImage(e) {
			continue
		}
		i, exists := index[e.EtapeID]
		if !exists {
			index[e.EtapeID] = len(photos)
			photos = append(photos, e)
			continue
		}
		if !models.IsBlank(e.PhotoURL) && models.IsBlank(photos[i].PhotoURL) {
			photos[i] = e
		}
	}
	return photos
}

// RoomPhotos returns the deduplicated photos of one room.
func RoomPhotos(f *models.FusedReport, roomID string) []models.Etape {
	room := f.Room(roomID)
	if room == nil {
		return []models.Etape{}
	}
	return DedupePhotos(room.Etapes)
}

// PhotoForEtape returns the first image-bearing step of a room with the
// given etape id.
func PhotoForEtape(f *models.FusedReport, roomID, etapeID string) (models.Etape, bool) {
	room := f.Room(roomID)
	if room == nil {
		return models.Etape{}, false
	}
	for _, e := range room.Etapes {
		if e.EtapeID == etapeID && HasImage(e) {
			return e, true
		}
	}
	return models.Etape{}, false
}

// RoomTimestamps returns the first and last action of a room and the elapsed
// minutes between them. Unparseable step times are ignored.
func RoomTimestamps(f *models.FusedReport, roomID string) models.RoomTimestamps {
	room := f.Room(roomID)
	if room == nil {
		return models.RoomTimestamps{}
	}
	return StepTimestamps(room.Etapes)
}

// StepTimestamps computes the action window of a list of steps.
func StepTimestamps(etapes []models.Etape) models.RoomTimestamps {
	times := make([]time.Time, 0, len(etapes))
	for _, e := range etapes {
		if t, ok := ParseTimestamp(e.Timestamp); ok {
			times = append(times, t)
		}
	}
	if len(times) == 0 {
		return models.RoomTimestamps{}
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	first, last := times[0], times[len(times)-1]
	minutes := int(math.Round(last.Sub(first).Minutes()))

	return models.RoomTimestamps{
		FirstAction: first.UTC().Format(time.RFC3339),
		LastAction:  last.UTC().Format(time.RFC3339),
		Duration:    &minutes,
	}
}

// PhotoValidationStats counts validated photos among the deduplicated ones.
func PhotoValidationStats(photos []models.Etape) models.PhotoStats {
	validated := 0
	for _, p := range photos {
		if p.Validated {
			validated++
		}
	}
	return models.PhotoStats{
		Total:        len(photos),
		Validated:    validated,
		NotValidated: len(photos) - validated,
	}
}

// SignalementsByType groups reports by category. Uncategorised reports go
// under "other".
func SignalementsByType(signalements []models.Signalement) map[string][]models.Signalement {
	byType := make(map[string][]models.Signalement)
	for _, s := range signalements {
		kind := s.SignalementType
		if kind == "" {
			kind = "other"
		}
		byType[kind] = append(byType[kind], s)
	}
	return byType
}

// CategorizeSignalements splits reports into user reports and AI detections.
func CategorizeSignalements(signalements []models.Signalement) models.SignalementCategories {
	cats := models.SignalementCategories{
		UserReports: []models.Signalement{},
		AIDetected:  []models.Signalement{},
	}
	for _, s := range signalements {
		switch s.SignalementType {
		case models.SignalementDirect:
			cats.UserReports = append(cats.UserReports, s)
		case models.SignalementPhotoIssue:
			cats.AIDetected = append(cats.AIDetected, s)
		}
	}
	return cats
}

// photosByPhase returns the photo data of the deduplicated steps of the given
// phase.
func photosByPhase(photos []models.Etape, phase string) []string {
	var urls []string
	for _, p := range photos {
		if p.EtapeType != phase {
			continue
		}
		if src := p.Photo(); !models.IsBlank(src) {
			urls = append(urls, src)
		}
	}
	return urls
}
