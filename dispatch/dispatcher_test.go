package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/utils"
)

type recordedCall struct {
	path string
	body map[string]any
}

type fakeBackend struct {
	mu     sync.Mutex
	calls  []recordedCall
	status string
	sucess bool
	code   int
}

func (b *fakeBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		b.mu.Lock()
		b.calls = append(b.calls, recordedCall{path: r.URL.Path, body: body})
		code, status, sucess := b.code, b.status, b.sucess
		b.mu.Unlock()

		if code != 0 {
			w.WriteHeader(code)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "response": map[string]any{"sucess": sucess}})
	}
}

type countingObserver struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (o *countingObserver) ObserveDispatch(_ string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ok {
		o.ok++
	} else {
		o.failed++
	}
}

func newTestDispatcher(t *testing.T, backend *fakeBackend) (*Dispatcher, *countingObserver) {
	t.Helper()
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		APIBase:             srv.URL,
		Version:             config.VersionTest,
		HTTPTimeout:         5 * time.Second,
		DispatchConcurrency: 2,
	}
	obs := &countingObserver{}
	d := New(cfg, nil, obs, utils.NewNopLogger())
	d.now = func() time.Time { return time.Date(2025, 11, 20, 10, 0, 0, 0, time.UTC) }
	return d, obs
}

func wfPath(endpoint string) string {
	return "/version-test/api/1.1/wf/" + endpoint
}

func TestSendCreateSignalement(t *testing.T) {
	backend := &fakeBackend{status: "success", sucess: true}
	d, obs := newTestDispatcher(t, backend)

	res := d.Send(context.Background(), "r1", "u1", models.Action{
		ActionType: models.ActionCreateSignalement,
		Data: models.ActionData{
			PieceID:     "p1",
			EtapeID:     "e1",
			Probleme:    "Tache",
			Commentaire: "Tache sur le canapé",
			PhotoBase64: "data:image/jpeg;base64,AAAA",
		},
	})

	assert.True(t, res.Succeeded())
	require.Len(t, backend.calls, 1)
	call := backend.calls[0]
	assert.Equal(t, wfPath(EndpointFormSignalement), call.path)
	assert.Equal(t, "p1", call.body["Piece"])
	assert.Equal(t, "Tache sur le canapé", call.body["description"])
	assert.Equal(t, "AAAA", call.body["photo"])
	assert.Equal(t, "e1", call.body["etapeId"])
	assert.Equal(t, "r1", call.body["rapportId"])
	assert.Equal(t, "test", call.body["version"])
	assert.Equal(t, "2025-11-20T10:00:00.000Z", call.body["timestamp"])
	assert.Equal(t, 1, obs.ok)
}

func TestSendCreateSignalementWithoutPhoto(t *testing.T) {
	backend := &fakeBackend{status: "success", sucess: true}
	d, _ := newTestDispatcher(t, backend)

	d.Send(context.Background(), "r1", "u1", models.Action{
		ActionType: models.ActionCreateSignalement,
		Data:       models.ActionData{PieceID: "p1", Commentaire: "x"},
	})

	require.Len(t, backend.calls, 1)
	photo, present := backend.calls[0].body["photo"]
	assert.True(t, present)
	assert.Nil(t, photo)
	_, hasEtape := backend.calls[0].body["etapeId"]
	assert.False(t, hasEtape)
}

func TestSendRoutesByActionType(t *testing.T) {
	tests := []struct {
		name     string
		action   models.Action
		wantPath string
	}{
		{
			name:     "guidance note",
			action:   models.Action{ActionType: models.ActionCreateConsigneIA, Data: models.ActionData{PieceID: "p1", Consigne: "ignorer la plante", Type: models.ConsigneIgnore}},
			wantPath: wfPath(EndpointFormConsigne),
		},
		{
			name:     "false positive",
			action:   models.Action{ActionType: models.ActionMarkFalsePositive, Data: models.ActionData{PieceID: "p1", Probleme: "Plante"}},
			wantPath: wfPath(EndpointForm),
		},
		{
			name:     "resolved report",
			action:   models.Action{ActionType: models.ActionUpdateSignalementStatus, Data: models.ActionData{SignalementID: "s1", Statut: models.SignalementResolved}},
			wantPath: wfPath(EndpointSignalementDone),
		},
		{
			name:     "reopened report",
			action:   models.Action{ActionType: models.ActionUpdateSignalementStatus, Data: models.ActionData{SignalementID: "s1", Statut: models.SignalementToProcess}},
			wantPath: wfPath(EndpointForm),
		},
		{
			name:     "delete photo",
			action:   models.Action{ActionType: models.ActionDeletePhoto, Data: models.ActionData{PieceID: "p1", PhotoID: "ph1"}},
			wantPath: wfPath(EndpointForm),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{status: "success", sucess: true}
			d, _ := newTestDispatcher(t, backend)

			res := d.Send(context.Background(), "r1", "u1", tt.action)
			assert.True(t, res.Succeeded())
			require.Len(t, backend.calls, 1)
			if backend.calls[0].path != tt.wantPath {
				t.Errorf("path: got %q, want %q", backend.calls[0].path, tt.wantPath)
			}
		})
	}
}

func TestSendFalsePositiveUsesBackendFieldNames(t *testing.T) {
	backend := &fakeBackend{status: "success", sucess: true}
	d, _ := newTestDispatcher(t, backend)

	d.Send(context.Background(), "r1", "u1", models.Action{
		ActionType: models.ActionMarkFalsePositive,
		Data:       models.ActionData{PieceID: "p1", Probleme: "Plante"},
	})

	require.Len(t, backend.calls, 1)
	actions, ok := backend.calls[0].body["actions"].([]any)
	require.True(t, ok)
	require.Len(t, actions, 1)
	action := actions[0].(map[string]any)
	assert.Equal(t, "MARK_FALSE_POSITIVE", action["actionType"])
	assert.Equal(t, map[string]any{"Piece": "p1", "probleme": "Plante"}, action["data"])
}

func TestSendReportsBackendRejection(t *testing.T) {
	backend := &fakeBackend{status: "success", sucess: false}
	d, obs := newTestDispatcher(t, backend)

	res := d.Send(context.Background(), "r1", "u1", models.Action{
		ActionType: models.ActionDeletePhoto,
		Data:       models.ActionData{PieceID: "p1", PhotoID: "ph1"},
	})
	assert.False(t, res.Succeeded())
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, 1, obs.failed)
}

func TestSendReportsHTTPError(t *testing.T) {
	backend := &fakeBackend{code: http.StatusInternalServerError}
	d, _ := newTestDispatcher(t, backend)

	res := d.Send(context.Background(), "r1", "u1", models.Action{
		ActionType: models.ActionDeletePhoto,
		Data:       models.ActionData{PieceID: "p1", PhotoID: "ph1"},
	})
	assert.False(t, res.Succeeded())
	assert.Contains(t, res.Error, "500")
}

func TestSendRejectsUnknownAction(t *testing.T) {
	backend := &fakeBackend{status: "success", sucess: true}
	d, _ := newTestDispatcher(t, backend)

	res := d.Send(context.Background(), "r1", "u1", models.Action{ActionType: "NOPE"})
	assert.False(t, res.Succeeded())
	assert.Empty(t, backend.calls)
}

func TestSendAllKeepsOrder(t *testing.T) {
	backend := &fakeBackend{status: "success", sucess: true}
	d, obs := newTestDispatcher(t, backend)

	actions := []models.Action{
		{ActionType: models.ActionMarkFalsePositive, Data: models.ActionData{PieceID: "p1", Probleme: "a"}},
		{ActionType: "NOPE"},
		{ActionType: models.ActionDeletePhoto, Data: models.ActionData{PieceID: "p1", PhotoID: "ph"}},
	}
	results := d.SendAll(context.Background(), "r1", "u1", actions)

	require.Len(t, results, 3)
	assert.True(t, results[0].Succeeded())
	assert.False(t, results[1].Succeeded())
	assert.True(t, results[2].Succeeded())
	assert.Equal(t, models.ActionDeletePhoto, results[2].ActionType)
	assert.Len(t, backend.calls, 2)
	assert.Equal(t, 2, obs.ok)
	assert.Equal(t, 1, obs.failed)
}

func TestSendAllCancelledContext(t *testing.T) {
	backend := &fakeBackend{status: "success", sucess: true}
	d, _ := newTestDispatcher(t, backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := d.SendAll(ctx, "r1", "u1", []models.Action{
		{ActionType: models.ActionDeletePhoto, Data: models.ActionData{PieceID: "p1", PhotoID: "ph"}},
	})
	require.Len(t, results, 1)
	assert.False(t, results[0].Succeeded())
	assert.Empty(t, backend.calls)
}

func TestStripDataURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"data:image/png;base64,iVBOR", "iVBOR"},
		{"iVBOR", "iVBOR"},
		{"data:text/plain,hello", "data:text/plain,hello"},
	}
	for _, tt := range tests {
		if got := StripDataURL(tt.in); got != tt.want {
			t.Errorf("StripDataURL(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithVersionDoesNotMutate(t *testing.T) {
	backend := &fakeBackend{status: "success", sucess: true}
	d, _ := newTestDispatcher(t, backend)

	live := d.WithVersion(config.VersionLive)
	assert.Equal(t, config.VersionLive, live.cfg.Version)
	assert.Equal(t, config.VersionTest, d.cfg.Version)
}
