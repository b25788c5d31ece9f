package services

import (
	"strings"
	"unicode"

	"checkeasy-report/models"
	"checkeasy-report/utils"
)

// Cleaner turns session issue stubs into merge input.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean trims identifiers and photo references, drops stubs that carry
// neither an id nor a description, and keeps the first stub per id.
// Descriptions are kept byte for byte since they are the match key.
func (c *Cleaner) Clean(raw []models.SessionSignalement) []BaseSignalement {
	seen := utils.NewKeySet()
	kept := make([]models.SessionSignalement, 0, len(raw))

	for _, r := range raw {
		id := strings.TrimSpace(r.SignalementID)
		if id == "" && models.IsBlank(r.Description) {
			c.logger.Warn("[cleaner] Dropping issue stub with no id and no description")
			continue
		}

		if id != "" {
			if !seen.Add(id) {
				c.logger.Debug("[cleaner] Duplicate issue stub skipped: %s", id)
				continue
			}
		}

		kept = append(kept, models.SessionSignalement{
			SignalementID: id,
			Description:   r.Description,
			ImgURL:        strings.TrimSpace(r.ImgURL),
			ImgBase64:     strings.TrimSpace(r.ImgBase64),
			Timestamp:     strings.TrimSpace(r.Timestamp),
		})
	}

	if len(kept) != len(raw) {
		c.logger.Info("[cleaner] Cleaned %d → %d issue stubs (dropped %d)",
			len(raw), len(kept), len(raw)-len(kept))
	}
	return FromSession(kept)
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
