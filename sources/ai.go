package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/utils"
)

// AIClient fetches the AI findings document.
type AIClient struct {
	baseClient
}

func NewAIClient(cfg *config.Config, httpClient *http.Client, logger *utils.Logger) *AIClient {
	return &AIClient{baseClient: newBaseClient(SourceAI, cfg, httpClient, logger)}
}

// Fetch returns the AI findings for a report. A payload missing its room
// section is rejected so the caller can fall back to synthesis.
func (c *AIClient) Fetch(ctx context.Context, reportID string) (*models.RapportData, error) {
	if strings.TrimSpace(reportID) == "" {
		return nil, config.MissingReportIDError()
	}

	body, err := c.getText(ctx, EndpointAI, map[string]string{"rapport": reportID})
	if err != nil {
		return nil, err
	}
	if err := validateAIPayload(body); err != nil {
		return nil, err
	}

	var data models.RapportData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", SourceAI, err)
	}

	c.logger.Debug("[ai] Loaded findings for %s (%d rooms)", reportID, len(data.DetailParPieceSection))
	return &data, nil
}

var requiredAISections = []string{
	"reportMetadata",
	"syntheseSection",
	"remarquesGeneralesSection",
	"detailParPieceSection",
	"suggestionsIASection",
}

func validateAIPayload(body []byte) error {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(body, &sections); err != nil {
		return fmt.Errorf("%s: decode response: %w", SourceAI, err)
	}
	for _, name := range requiredAISections {
		raw, ok := sections[name]
		if !ok || string(raw) == "null" {
			return fmt.Errorf("%s: missing section %q", SourceAI, name)
		}
	}
	for _, name := range []string{"detailParPieceSection", "suggestionsIASection"} {
		if trimmed := strings.TrimSpace(string(sections[name])); !strings.HasPrefix(trimmed, "[") {
			return fmt.Errorf("%s: section %q must be an array", SourceAI, name)
		}
	}
	return nil
}
