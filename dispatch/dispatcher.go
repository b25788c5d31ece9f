package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/sources"
	"checkeasy-report/utils"
)

// Endpoint names of the mutation API.
const (
	EndpointForm            = "endpointrapportform"
	EndpointFormSignalement = "endpointrapportformsignalement"
	EndpointFormConsigne    = "endpointrapportformconsigne"
	EndpointSignalementDone = "signalementendpointtraite"
)

const sourceDispatch = "dispatch"

// Observer is notified of every dispatched action.
type Observer interface {
	ObserveDispatch(action string, ok bool)
}

// Dispatcher posts page actions to the backend. A failed action never
// affects the loaded report; callers keep their overlay and reload later.
type Dispatcher struct {
	cfg        *config.Config
	httpClient *http.Client
	observer   Observer
	logger     *utils.Logger
	now        func() time.Time
}

// New creates a Dispatcher. observer may be nil.
func New(cfg *config.Config, httpClient *http.Client, observer Observer, logger *utils.Logger) *Dispatcher {
	if httpClient == nil {
		httpClient = sources.NewHTTPClient(cfg)
	}
	return &Dispatcher{cfg: cfg, httpClient: httpClient, observer: observer, logger: logger, now: time.Now}
}

// WithVersion returns a Dispatcher targeting the given API version.
func (d *Dispatcher) WithVersion(version string) *Dispatcher {
	cp := *d
	cp.cfg = d.cfg.WithVersion(version)
	return &cp
}

type backendResponse struct {
	Status   string `json:"status"`
	Response struct {
		Sucess bool `json:"sucess"`
	} `json:"response"`
}

// Send posts one action and reports its outcome.
func (d *Dispatcher) Send(ctx context.Context, reportID, userID string, action models.Action) models.ActionResult {
	result := models.ActionResult{ActionType: action.ActionType, Status: "error"}
	if !action.ActionType.Valid() {
		result.Error = fmt.Sprintf("unknown action type %q", action.ActionType)
		d.observe(action, false)
		return result
	}

	endpoint, body := d.route(reportID, userID, action)
	resp, err := d.post(ctx, endpoint, body)
	if err != nil {
		d.logger.Warn("[dispatch] %s on %s failed: %v", action.ActionType, reportID, err)
		result.Error = err.Error()
		d.observe(action, false)
		return result
	}

	ok := resp.Status == "success" && resp.Response.Sucess
	if ok {
		result.Status = "success"
		result.Message = successMessage(action.ActionType)
		result.SignalementID = action.Data.SignalementID
		result.ConsigneID = action.Data.ConsigneID
		d.logger.Info("[dispatch] %s on %s accepted", action.ActionType, reportID)
	} else {
		result.Message = "Erreur lors du traitement"
		result.Error = fmt.Sprintf("backend answered status %q", resp.Status)
		d.logger.Warn("[dispatch] %s on %s rejected (status=%q)", action.ActionType, reportID, resp.Status)
	}
	d.observe(action, ok)
	return result
}

// SendAll posts every action through a worker pool bounded by the configured
// concurrency and rate limit. Results keep the order of actions.
func (d *Dispatcher) SendAll(ctx context.Context, reportID, userID string, actions []models.Action) []models.ActionResult {
	results := make([]models.ActionResult, len(actions))
	if len(actions) == 0 {
		return results
	}

	pool := utils.NewWorkerPool(d.cfg.DispatchConcurrency, d.cfg.RateLimitMs)
	for i, a := range actions {
		i, a := i, a
		pool.Submit(ctx, func(ctx context.Context) {
			if err := ctx.Err(); err != nil {
				results[i] = models.ActionResult{ActionType: a.ActionType, Status: "error", Error: err.Error()}
				d.observe(a, false)
				return
			}
			results[i] = d.Send(ctx, reportID, userID, a)
		})
	}
	pool.Wait()

	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
		}
	}
	d.logger.Info("[dispatch] %d/%d actions accepted for %s", len(results)-failed, len(results), reportID)
	return results
}

// route picks the endpoint and builds the body of an action.
func (d *Dispatcher) route(reportID, userID string, a models.Action) (string, any) {
	ts := d.now().UTC().Format("2006-01-02T15:04:05.000Z")
	data := a.Data

	switch a.ActionType {
	case models.ActionCreateSignalement:
		body := map[string]any{
			"rapportId":   reportID,
			"version":     d.cfg.Version,
			"timestamp":   ts,
			"userId":      userID,
			"Piece":       data.PieceID,
			"description": data.Commentaire,
			"probleme":    data.Probleme,
			"photo":       nil,
		}
		if data.PhotoBase64 != "" {
			body["photo"] = StripDataURL(data.PhotoBase64)
		}
		if data.EtapeID != "" {
			body["etapeId"] = data.EtapeID
		}
		return EndpointFormSignalement, body

	case models.ActionCreateConsigneIA:
		body := map[string]any{
			"rapportId":       reportID,
			"version":         d.cfg.Version,
			"timestamp":       ts,
			"userId":          userID,
			"Piece":           data.PieceID,
			"Commentaire":     data.Consigne,
			"os_consigneType": data.Type,
		}
		if data.Probleme != "" {
			body["probleme"] = data.Probleme
		}
		return EndpointFormConsigne, body

	case models.ActionUpdateSignalementStatus:
		if data.Statut == models.SignalementResolved {
			return EndpointSignalementDone, map[string]string{"signalementId": data.SignalementID}
		}

	case models.ActionMarkFalsePositive:
		return EndpointForm, envelope(reportID, d.cfg.Version, ts, userID, formAction{
			ActionType: a.ActionType,
			Data:       map[string]string{"Piece": data.PieceID, "probleme": data.Probleme},
		})
	}

	return EndpointForm, envelope(reportID, d.cfg.Version, ts, userID, formAction{ActionType: a.ActionType, Data: data})
}

type formAction struct {
	ActionType models.ActionType `json:"actionType"`
	Data       any               `json:"data"`
}

type formRequest struct {
	RapportID string       `json:"rapportId"`
	Version   string       `json:"version"`
	Timestamp string       `json:"timestamp"`
	UserID    string       `json:"userId"`
	Actions   []formAction `json:"actions"`
}

func envelope(reportID, version, ts, userID string, actions ...formAction) formRequest {
	return formRequest{RapportID: reportID, Version: version, Timestamp: ts, UserID: userID, Actions: actions}
}

func (d *Dispatcher) post(ctx context.Context, endpoint string, body any) (backendResponse, error) {
	var out backendResponse
	url := d.cfg.BuildURL(endpoint, nil)

	payload, err := json.Marshal(body)
	if err != nil {
		return out, fmt.Errorf("%s: encode body: %w", sourceDispatch, err)
	}
	d.logger.Debug("[dispatch] POST %s (%d bytes)", url, len(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return out, fmt.Errorf("%s: create request: %w", sourceDispatch, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return out, &sources.NetworkError{Source: sourceDispatch, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return out, &sources.APIError{Source: sourceDispatch, URL: url, StatusCode: resp.StatusCode, Body: string(excerpt)}
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("%s: decode response: %w", sourceDispatch, err)
	}
	return out, nil
}

func (d *Dispatcher) observe(a models.Action, ok bool) {
	if d.observer != nil {
		d.observer.ObserveDispatch(string(a.ActionType), ok)
	}
}

// StripDataURL returns the base64 payload of a data URL, or s unchanged.
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, "base64,"); i >= 0 {
		return s[i+len("base64,"):]
	}
	return s
}

func successMessage(t models.ActionType) string {
	switch t {
	case models.ActionCreateSignalement:
		return "Signalement créé avec succès"
	case models.ActionCreateConsigneIA:
		return "Consigne IA créée avec succès"
	case models.ActionUpdateSignalementStatus:
		return "Statut du signalement mis à jour"
	default:
		return "Actions traitées avec succès"
	}
}
