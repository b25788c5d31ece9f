package sources

import (
	"context"
	"fmt"
	"net/http"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/utils"
)

// SignalementsClient fetches backend issue reports and guidance notes. The
// source is optional: every failure yields an empty response.
type SignalementsClient struct {
	baseClient
}

func NewSignalementsClient(cfg *config.Config, httpClient *http.Client, logger *utils.Logger) *SignalementsClient {
	return &SignalementsClient{baseClient: newBaseClient(SourceSignalements, cfg, httpClient, logger)}
}

// Fetch never returns an error. The bool reports whether the backend answered
// successfully.
func (c *SignalementsClient) Fetch(ctx context.Context, reportID string) (models.SignalementsResponse, bool) {
	resp, err := c.fetch(ctx, reportID)
	if err != nil {
		c.logger.Debug("[signalements] Ignoring failure for %s: %v", reportID, err)
		return EmptySignalements(), false
	}
	return resp, true
}

func (c *SignalementsClient) fetch(ctx context.Context, reportID string) (models.SignalementsResponse, error) {
	var resp models.SignalementsResponse
	if err := c.getJSON(ctx, EndpointSignalements, map[string]string{"rapportid": reportID}, &resp); err != nil {
		return resp, err
	}
	if resp.Status != "success" {
		return resp, fmt.Errorf("%s: api returned status %q", SourceSignalements, resp.Status)
	}
	if resp.Response.Signalement == nil {
		resp.Response.Signalement = []models.BubbleSignalement{}
	}
	if resp.Response.ConsigneIA == nil {
		resp.Response.ConsigneIA = []models.BubbleConsigneIA{}
	}
	return resp, nil
}

// EmptySignalements is the response used when the source is unavailable.
func EmptySignalements() models.SignalementsResponse {
	return models.SignalementsResponse{
		Status: "error",
		Response: models.SignalementsPayload{
			Signalement: []models.BubbleSignalement{},
			ConsigneIA:  []models.BubbleConsigneIA{},
		},
	}
}

// FilterByReport drops issue reports attached to another report. Records
// without a report reference are kept.
func FilterByReport(sigs []models.BubbleSignalement, reportID string) []models.BubbleSignalement {
	out := make([]models.BubbleSignalement, 0, len(sigs))
	for _, s := range sigs {
		if s.RapportRef == reportID || models.IsBlank(s.RapportRef) {
			out = append(out, s)
		}
	}
	return out
}
