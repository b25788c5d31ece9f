package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/sources"
)

type fakeAI struct {
	data *models.RapportData
	err  error
}

func (f fakeAI) Fetch(context.Context, string) (*models.RapportData, error) { return f.data, f.err }

type fakeSession struct {
	data *models.SessionData
	err  error
}

func (f fakeSession) Fetch(context.Context, string) (*models.SessionData, error) { return f.data, f.err }

type fakeSignalements struct {
	resp models.SignalementsResponse
	ok   bool
}

func (f fakeSignalements) Fetch(context.Context, string) (models.SignalementsResponse, bool) {
	return f.resp, f.ok
}

type fakeBundle struct {
	data *models.FullData
	err  error
}

func (f fakeBundle) Fetch(context.Context, string) (*models.FullData, error) { return f.data, f.err }

type recordingObserver struct {
	mu          sync.Mutex
	fetches     map[string]models.SourceStatus
	synthesized []string
}

func (o *recordingObserver) ObserveFetch(source string, status models.SourceStatus, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fetches == nil {
		o.fetches = make(map[string]models.SourceStatus)
	}
	o.fetches[source] = status
}

func (o *recordingObserver) ObserveSynthesis(dataset string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.synthesized = append(o.synthesized, dataset)
}

type recordingArchive struct {
	loads []*models.FusedReport
	err   error
}

func (a *recordingArchive) ArchiveLoad(_ context.Context, r *models.FusedReport) error {
	a.loads = append(a.loads, r)
	return a.err
}

func healthyClients() Clients {
	ai, session, bubble, bundle := fusionInputs()
	bubble.Response.Signalement = append(bubble.Response.Signalement,
		models.BubbleSignalement{ID: "foreign", RapportRef: "r2", Description: "Autre rapport"})
	return Clients{
		AI:           fakeAI{data: ai},
		Session:      fakeSession{data: session},
		Signalements: fakeSignalements{resp: bubble, ok: true},
		Bundle:       fakeBundle{data: bundle},
	}
}

func TestLoadAllSourcesHealthy(t *testing.T) {
	obs := &recordingObserver{}
	archive := &recordingArchive{}
	l := NewLoader(healthyClients(), obs, archive, newTestLogger())
	l.SetClock(func() time.Time { return synthNow })

	fused, err := l.Load(context.Background(), " r1 ")
	require.NoError(t, err)

	assert.Equal(t, models.SourceOutcomes{
		AI: models.SourceOK, Session: models.SourceOK, Signalements: models.SourceOK, Bundle: models.SourceOK,
	}, fused.Sources)
	assert.Equal(t, synthNow, fused.LoadedAt)
	assert.Empty(t, obs.synthesized)
	assert.Len(t, obs.fetches, 4)
	require.Len(t, archive.loads, 1)

	for _, b := range fused.Raw.BubbleSignalements {
		assert.NotEqual(t, "foreign", b.ID, "reports of another rapport should be filtered out")
	}
}

func TestLoadSynthesizesMissingSources(t *testing.T) {
	clients := healthyClients()
	clients.AI = fakeAI{err: errors.New("404")}
	clients.Session = fakeSession{err: errors.New("timeout")}
	clients.Signalements = fakeSignalements{resp: sources.EmptySignalements(), ok: false}

	obs := &recordingObserver{}
	l := NewLoader(clients, obs, nil, newTestLogger())
	l.SetClock(func() time.Time { return synthNow })

	fused, err := l.Load(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, models.SourceSynthesized, fused.Sources.AI)
	assert.Equal(t, models.SourceSynthesized, fused.Sources.Session)
	assert.Equal(t, models.SourceFailed, fused.Sources.Signalements)
	assert.Equal(t, []string{DatasetSession, DatasetAI}, obs.synthesized)
	assert.Equal(t, models.SourceFailed, obs.fetches[sources.SourceAI])

	assert.Equal(t, models.StatusCompleted, fused.ReportMetadata.Statut)
	assert.Equal(t, []string{}, fused.RoomOrder)
}

func TestLoadSynthesizedRoomsFromBundle(t *testing.T) {
	_, session, _, _ := fusionInputs()
	clients := Clients{
		AI:           fakeAI{err: &sources.APIError{Source: sources.SourceAI, StatusCode: 500, Body: "boom"}},
		Session:      fakeSession{data: session},
		Signalements: fakeSignalements{resp: sources.EmptySignalements(), ok: false},
		Bundle:       fakeBundle{data: sampleBundle()},
	}

	obs := &recordingObserver{}
	l := NewLoader(clients, obs, nil, newTestLogger())
	l.SetClock(func() time.Time { return synthNow })

	fused, err := l.Load(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, models.SourceSynthesized, fused.Sources.AI)
	assert.Equal(t, models.SourceOK, fused.Sources.Session)
	assert.Equal(t, models.SourceFailed, fused.Sources.Signalements)
	assert.Equal(t, []string{DatasetAI}, obs.synthesized)

	assert.Equal(t, "Terminé", fused.ReportMetadata.Statut)
	require.Equal(t, []string{"p1", "p2"}, fused.RoomOrder)
	require.Len(t, fused.DetailParPieceSection, 2)
	for _, id := range fused.RoomOrder {
		room := fused.Room(id)
		require.NotNil(t, room, id)
		assert.NotNil(t, room.Signalements, id)
		assert.Empty(t, room.Signalements, id)
	}
}

func TestLoadSessionDisabledIsSkipped(t *testing.T) {
	clients := healthyClients()
	clients.Session = fakeSession{err: sources.ErrSessionDisabled}

	obs := &recordingObserver{}
	fused, err := NewLoader(clients, obs, nil, newTestLogger()).Load(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, models.SourceSkipped, fused.Sources.Session)
	assert.Equal(t, models.SourceSkipped, obs.fetches[sources.SourceSession])
}

func TestLoadMissingBundleIsFatal(t *testing.T) {
	clients := healthyClients()
	clients.Bundle = fakeBundle{err: errors.New("503")}
	archive := &recordingArchive{}

	_, err := NewLoader(clients, nil, archive, newTestLogger()).Load(context.Background(), "r1")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Empty(t, archive.loads)
}

func TestLoadBlankIDIsFatal(t *testing.T) {
	_, err := NewLoader(healthyClients(), nil, nil, newTestLogger()).Load(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, config.ErrMissingReportID)
}

func TestLoadArchiveFailureIsNotFatal(t *testing.T) {
	archive := &recordingArchive{err: errors.New("db down")}
	fused, err := NewLoader(healthyClients(), nil, archive, newTestLogger()).Load(context.Background(), "r1")
	require.NoError(t, err)
	assert.NotNil(t, fused)
}
