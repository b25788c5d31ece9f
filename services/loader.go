package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"checkeasy-report/config"
	"checkeasy-report/models"
	"checkeasy-report/sources"
	"checkeasy-report/storage"
	"checkeasy-report/utils"
)

// Dataset names reported to the observer when a document is synthesized.
const (
	DatasetSession = "session"
	DatasetAI      = "ai"
)

type AIFetcher interface {
	Fetch(ctx context.Context, reportID string) (*models.RapportData, error)
}

type SessionFetcher interface {
	Fetch(ctx context.Context, reportID string) (*models.SessionData, error)
}

type SignalementsFetcher interface {
	Fetch(ctx context.Context, reportID string) (models.SignalementsResponse, bool)
}

type BundleFetcher interface {
	Fetch(ctx context.Context, reportID string) (*models.FullData, error)
}

// Clients groups the four upstream sources.
type Clients struct {
	AI           AIFetcher
	Session      SessionFetcher
	Signalements SignalementsFetcher
	Bundle       BundleFetcher
}

// NewClients builds HTTP clients for every source from cfg.
func NewClients(cfg *config.Config, logger *utils.Logger) Clients {
	httpClient := sources.NewHTTPClient(cfg)
	return Clients{
		AI:           sources.NewAIClient(cfg, httpClient, logger),
		Session:      sources.NewSessionClient(cfg, httpClient, logger),
		Signalements: sources.NewSignalementsClient(cfg, httpClient, logger),
		Bundle:       sources.NewBundleClient(cfg, httpClient, logger),
	}
}

// LoadObserver receives per-source fetch outcomes and synthesis events.
type LoadObserver interface {
	ObserveFetch(source string, status models.SourceStatus, elapsed time.Duration)
	ObserveSynthesis(dataset string)
}

// LoadError is returned when a load cannot produce a report.
type LoadError struct {
	ReportID string
	Fatal    bool
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load report %s: %v", e.ReportID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsFatal reports whether err is a fatal load error.
func IsFatal(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Fatal
}

// Loader fetches every source concurrently and fuses the results.
type Loader struct {
	clients  Clients
	synth    *Synthesizer
	fusion   *FusionEngine
	observer LoadObserver
	archive  storage.LoadArchiver
	logger   *utils.Logger
	now      func() time.Time
}

// NewLoader creates a Loader. observer and archive may be nil.
func NewLoader(clients Clients, observer LoadObserver, archive storage.LoadArchiver, logger *utils.Logger) *Loader {
	return &Loader{
		clients:  clients,
		synth:    NewSynthesizer(logger),
		fusion:   NewFusionEngine(logger),
		observer: observer,
		archive:  archive,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the clock used for synthesized documents.
func (l *Loader) SetClock(now func() time.Time) {
	l.now = now
}

type fetchResult struct {
	ai           *models.RapportData
	aiErr        error
	session      *models.SessionData
	sessionErr   error
	signalements models.SignalementsResponse
	signalOK     bool
	bundle       *models.FullData
	bundleErr    error
}

// Load runs one load cycle. Only a blank id or a missing bundle are fatal;
// every other failure degrades to synthesized or empty data.
func (l *Loader) Load(ctx context.Context, reportID string) (*models.FusedReport, error) {
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return nil, &LoadError{Fatal: true, Err: config.MissingReportIDError()}
	}

	l.logger.Info("[loader] Loading report %s", reportID)
	start := time.Now()
	res := l.fetchAll(ctx, reportID)

	outcomes := models.SourceOutcomes{
		AI:           models.SourceOK,
		Session:      models.SourceOK,
		Signalements: models.SourceOK,
		Bundle:       models.SourceOK,
	}

	if res.bundleErr != nil {
		l.logger.Error("[loader] Full bundle unavailable for %s: %v", reportID, res.bundleErr)
		return nil, &LoadError{ReportID: reportID, Fatal: true, Err: res.bundleErr}
	}
	now := l.now()

	session := res.session
	if res.sessionErr != nil {
		if errors.Is(res.sessionErr, sources.ErrSessionDisabled) {
			outcomes.Session = models.SourceSkipped
			l.logger.Debug("[loader] Session endpoint disabled, synthesizing session for %s", reportID)
		} else {
			outcomes.Session = models.SourceSynthesized
			l.logger.Warn("[loader] Session data unavailable for %s, synthesizing: %v", reportID, res.sessionErr)
		}
		session = l.synth.SynthesizeSession(reportID, res.bundle, now)
		l.observeSynthesis(DatasetSession)
	}

	ai := res.ai
	if res.aiErr != nil {
		outcomes.AI = models.SourceSynthesized
		l.logger.Warn("[loader] AI data unavailable for %s, synthesizing: %v", reportID, res.aiErr)
		ai = l.synth.SynthesizeAI(reportID, res.bundle, session, now)
		l.observeSynthesis(DatasetAI)
	}

	signalements := res.signalements
	if !res.signalOK {
		outcomes.Signalements = models.SourceFailed
	}
	signalements.Response.Signalement = sources.FilterByReport(signalements.Response.Signalement, reportID)

	fused := l.fusion.Fuse(ai, session, signalements, res.bundle)
	fused.Sources = outcomes
	fused.LoadedAt = now

	if l.archive != nil {
		if err := l.archive.ArchiveLoad(ctx, fused); err != nil {
			l.logger.Warn("[loader] Could not archive load of %s: %v", reportID, err)
		}
	}

	l.logger.Info("[loader] Report %s ready in %v (ai=%s session=%s signalements=%s, %d rooms)",
		reportID, time.Since(start).Round(time.Millisecond), outcomes.AI, outcomes.Session, outcomes.Signalements, len(fused.RoomOrder))
	return fused, nil
}

// fetchAll runs the four fetches concurrently. Every goroutine records its
// own outcome and returns nil so that one failure never cancels the others.
func (l *Loader) fetchAll(ctx context.Context, reportID string) fetchResult {
	var res fetchResult
	var g errgroup.Group

	g.Go(func() error {
		start := time.Now()
		res.ai, res.aiErr = l.clients.AI.Fetch(ctx, reportID)
		l.observeFetch(sources.SourceAI, statusOf(res.aiErr), start)
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		res.session, res.sessionErr = l.clients.Session.Fetch(ctx, reportID)
		status := statusOf(res.sessionErr)
		if errors.Is(res.sessionErr, sources.ErrSessionDisabled) {
			status = models.SourceSkipped
		}
		l.observeFetch(sources.SourceSession, status, start)
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		res.signalements, res.signalOK = l.clients.Signalements.Fetch(ctx, reportID)
		status := models.SourceOK
		if !res.signalOK {
			status = models.SourceFailed
		}
		l.observeFetch(sources.SourceSignalements, status, start)
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		res.bundle, res.bundleErr = l.clients.Bundle.Fetch(ctx, reportID)
		l.observeFetch(sources.SourceBundle, statusOf(res.bundleErr), start)
		return nil
	})

	_ = g.Wait()
	return res
}

func statusOf(err error) models.SourceStatus {
	if err != nil {
		return models.SourceFailed
	}
	return models.SourceOK
}

func (l *Loader) observeFetch(source string, status models.SourceStatus, start time.Time) {
	if l.observer != nil {
		l.observer.ObserveFetch(source, status, time.Since(start))
	}
}

func (l *Loader) observeSynthesis(dataset string) {
	if l.observer != nil {
		l.observer.ObserveSynthesis(dataset)
	}
}
