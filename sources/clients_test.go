package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/utils"
)

const aiPayload = `{
	"reportMetadata": {"id": "r1", "logement": "Villa", "statut": "Terminé"},
	"syntheseSection": {"noteGenerale": 4},
	"remarquesGeneralesSection": {"highlights": []},
	"detailParPieceSection": [{"id": "p1", "nom": "Salon", "note": 4, "consignesIA": ["ne pas signaler la plante", {"type": "surveiller", "consigne": "tapis"}]}],
	"checkFinalSection": [],
	"suggestionsIASection": []
}`

func newTestServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *config.Config {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &config.Config{APIBase: srv.URL, Version: config.VersionTest, HTTPTimeout: 5 * time.Second, SessionEndpointEnabled: true}
}

func wfPath(endpoint string) string {
	return "/version-test/api/1.1/wf/" + endpoint
}

func TestAIClientFetch(t *testing.T) {
	cfg := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		wfPath(EndpointAI): func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "r1", r.URL.Query().Get("rapport"))
			_, _ = w.Write([]byte(aiPayload))
		},
	})

	data, err := NewAIClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, data.DetailParPieceSection, 1)

	notes := data.DetailParPieceSection[0].ConsignesIA
	require.Len(t, notes, 2)
	assert.Equal(t, "", notes[0].Type)
	assert.True(t, notes[0].IsIgnore())
	assert.Equal(t, models.ConsigneWatch, notes[1].Type)
}

func TestAIClientRejectsIncompletePayload(t *testing.T) {
	cfg := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		wfPath(EndpointAI): func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"reportMetadata": {}, "detailParPieceSection": {}}`))
		},
	})

	_, err := NewAIClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), "r1")
	require.Error(t, err)
}

func TestAIClientAPIError(t *testing.T) {
	cfg := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		wfPath(EndpointAI): func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})

	_, err := NewAIClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), "r1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestAIClientNetworkError(t *testing.T) {
	cfg := &config.Config{APIBase: "http://127.0.0.1:1", Version: config.VersionTest, HTTPTimeout: time.Second}

	_, err := NewAIClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), "r1")
	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr), "got %v", err)
}

func TestSessionClientDisabled(t *testing.T) {
	cfg := &config.Config{APIBase: "http://127.0.0.1:1", Version: config.VersionTest}
	c := NewSessionClient(cfg, nil, utils.NewNopLogger())

	_, err := c.Fetch(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrSessionDisabled)
}

func TestSessionClientFetch(t *testing.T) {
	cfg := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		wfPath(EndpointSession): func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"agent":{"firstname":"Ana"},"checkin":{"pieces":[{"piece_id":"p1","etapes":[{"etape_id":"e1","type":"photo_taken"}]}]},"timestamps":{"checkinStartHour":null,"checkoutStartHour":"10:12"}}`))
		},
	})

	data, err := NewSessionClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", data.Agent.Firstname)
	require.NotNil(t, data.Timestamps)
	assert.Nil(t, data.Timestamps.CheckinStartHour)
	assert.Equal(t, "10:12", models.Deref(data.Timestamps.CheckoutStartHour))
}

func TestSignalementsClientAbsorbsFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter, r *http.Request)
	}{
		{"http 500", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"status":`)) }},
		{"error status", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"error","response":{"signalement":[{"_id":"x"}]}}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
				wfPath(EndpointSignalements): tt.handler,
			})
			resp, ok := NewSignalementsClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), "r1")
			assert.False(t, ok)
			assert.Empty(t, resp.Response.Signalement)
			assert.NotNil(t, resp.Response.ConsigneIA)
		})
	}
}

func TestSignalementsClientFetch(t *testing.T) {
	cfg := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		wfPath(EndpointSignalements): func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "r1", r.URL.Query().Get("rapportid"))
			_, _ = w.Write([]byte(`{"status":"success","response":{"signalement":[
				{"_id":"b1","description":"Tache","rapport_ref":"r1","Created Date":1732614120000,"OS_signalementStatut":"À traiter"},
				{"_id":"b2","description":"Autre","rapport_ref":"r2"}
			]}}`))
		},
	})

	resp, ok := NewSignalementsClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), "r1")
	require.True(t, ok)
	require.Len(t, resp.Response.Signalement, 2)
	assert.NotNil(t, resp.Response.ConsigneIA)
	assert.Equal(t, int64(1732614120000), resp.Response.Signalement[0].CreatedDate)

	filtered := FilterByReport(resp.Response.Signalement, "r1")
	require.Len(t, filtered, 1)
	assert.Equal(t, "b1", filtered[0].ID)
}

func TestBundleClientFetch(t *testing.T) {
	cfg := newTestServer(t, map[string]func(http.ResponseWriter, *http.Request){
		wfPath(EndpointBundle): func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{\"rapportID\":\"r1\",\"logementName\":\"Villa Azur\",\"photoPiececheckout\":[{\"pieceid\":\"p1\",\"imagecheckout\":\"//cdn/a.jpg\"}],\n" +
				"\"etaperesponse\":[],\"exitQuestion\":[],\"logementName\":\"\",\"dataia\":{\"analysis_enrichment\":{\"global_score\":{\"score\":4,\"label\":\"Bon\",\"score_explanation\":\"RAS\"}}}}"))
		},
	})

	data, err := NewBundleClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Villa Azur", data.LogementName)
	assert.Equal(t, "https://cdn/a.jpg", data.PhotoPieceCheckout[0].ImageCheckout)
	require.NotNil(t, data.GlobalScore())
	assert.Equal(t, "RAS", data.GlobalScore().ScoreExplanation)
}

func TestBundleClientMissingID(t *testing.T) {
	cfg := &config.Config{APIBase: "http://127.0.0.1:1", Version: config.VersionTest}
	_, err := NewBundleClient(cfg, nil, utils.NewNopLogger()).Fetch(context.Background(), " ")
	assert.ErrorIs(t, err, config.ErrMissingReportID)
}
