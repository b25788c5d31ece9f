package sources

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/utils"
)

// ErrSessionDisabled is returned when the session endpoint is switched off.
var ErrSessionDisabled = errors.New("session endpoint disabled")

// SessionClient fetches the raw session log. It fails loudly; tolerance is
// the loader's job.
type SessionClient struct {
	baseClient
	Enabled bool
}

func NewSessionClient(cfg *config.Config, httpClient *http.Client, logger *utils.Logger) *SessionClient {
	return &SessionClient{
		baseClient: newBaseClient(SourceSession, cfg, httpClient, logger),
		Enabled:    cfg.SessionEndpointEnabled,
	}
}

func (c *SessionClient) Fetch(ctx context.Context, reportID string) (*models.SessionData, error) {
	if !c.Enabled {
		return nil, ErrSessionDisabled
	}
	if strings.TrimSpace(reportID) == "" {
		return nil, config.MissingReportIDError()
	}

	var data models.SessionData
	if err := c.getJSON(ctx, EndpointSession, map[string]string{"rapport": reportID}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
