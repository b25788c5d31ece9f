package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"checkeasy-report/config"
	"checkeasy-report/dispatch"
	"checkeasy-report/models"
	"checkeasy-report/services"
	"checkeasy-report/utils"
)

// ReportLoader runs one load cycle for a report.
type ReportLoader interface {
	Load(ctx context.Context, reportID string) (*models.FusedReport, error)
}

// PDFPrinter prints a mapped report.
type PDFPrinter interface {
	PDF(ctx context.Context, r *models.MappedRapport) ([]byte, error)
}

// Deps are the collaborators of the HTTP server.
type Deps struct {
	// LoaderFor returns the loader bound to an API version.
	LoaderFor  func(version string) ReportLoader
	Dispatcher *dispatch.Dispatcher
	Overlays   *services.OverlayStore
	Printer    PDFPrinter
}

type cacheKey struct {
	id      string
	version string
}

func (k cacheKey) overlayID() string {
	return k.version + "/" + k.id
}

type cachedReport struct {
	loadedAt time.Time
	mapped   *models.MappedRapport
}

// Server exposes the mapped report, the action boundary and metrics.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger *utils.Logger

	mu      sync.RWMutex
	cache   map[cacheKey]cachedReport
	loading singleflight.Group
}

func New(cfg *config.Config, deps Deps, logger *utils.Logger) *Server {
	if deps.Overlays == nil {
		deps.Overlays = services.NewOverlayStore()
	}
	return &Server{cfg: cfg, deps: deps, logger: logger, cache: make(map[cacheKey]cachedReport)}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(s.requestLogger())

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/rapport", s.getRapport)
	r := router.Group("/rapport/:id")
	{
		r.POST("/reload", s.reload)
		r.POST("/actions", s.postActions)
		r.GET("/pdf", s.getPDF)
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[server] Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("[server] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[server] %s %s -> %d (%v, encoding=%q)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Millisecond), c.Writer.Header().Get("Content-Encoding"))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"service":         "checkeasy-report",
		"pending_reports": len(s.deps.Overlays.Reports()),
	})
}

func (s *Server) keyFromRequest(c *gin.Context, id string) cacheKey {
	version := strings.TrimSpace(c.Query("version"))
	if version != config.VersionTest && version != config.VersionLive {
		version = s.cfg.Version
	}
	return cacheKey{id: strings.TrimSpace(id), version: version}
}

func (s *Server) getRapport(c *gin.Context) {
	key := s.keyFromRequest(c, c.Query("rapport"))
	if key.id == "" {
		s.writeError(c, config.MissingReportIDError())
		return
	}

	report, err := s.report(c.Request.Context(), key, false)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("X-Report-Loaded-At", report.loadedAt.UTC().Format(time.RFC3339))
	c.JSON(http.StatusOK, s.deps.Overlays.Render(key.overlayID(), report.mapped))
}

func (s *Server) reload(c *gin.Context) {
	key := s.keyFromRequest(c, c.Param("id"))
	report, err := s.report(c.Request.Context(), key, true)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.deps.Overlays.Reset(key.overlayID())
	c.JSON(http.StatusOK, report.mapped)
}

type actionsRequest struct {
	UserID  string          `json:"userId"`
	Actions []models.Action `json:"actions" binding:"required"`
}

func (s *Server) postActions(c *gin.Context) {
	key := s.keyFromRequest(c, c.Param("id"))

	var req actionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	results := make([]models.ActionResult, len(req.Actions))
	accepted := make([]models.Action, 0, len(req.Actions))
	acceptedIdx := make([]int, 0, len(req.Actions))
	localIDs := make([]string, len(req.Actions))
	for i, a := range req.Actions {
		id, err := s.deps.Overlays.Apply(key.overlayID(), a)
		if err != nil {
			results[i] = models.ActionResult{ActionType: a.ActionType, Status: "error", Error: err.Error()}
			continue
		}
		localIDs[i] = id
		results[i] = models.ActionResult{ActionType: a.ActionType, Status: "error", Error: "not dispatched"}
		accepted = append(accepted, a)
		acceptedIdx = append(acceptedIdx, i)
	}

	if s.deps.Dispatcher != nil && len(accepted) > 0 {
		sent := s.deps.Dispatcher.WithVersion(key.version).SendAll(c.Request.Context(), key.id, req.UserID, accepted)
		for j, r := range sent {
			i := acceptedIdx[j]
			switch req.Actions[i].ActionType {
			case models.ActionCreateSignalement:
				if r.SignalementID == "" {
					r.SignalementID = localIDs[i]
				}
			case models.ActionCreateConsigneIA:
				if r.ConsigneID == "" {
					r.ConsigneID = localIDs[i]
				}
			}
			results[i] = r
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
		}
	}
	status := "success"
	switch {
	case failed > 0 && failed == len(results):
		status = "error"
	case failed > 0:
		status = "partial_success"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"rapportId":        key.id,
		"processedActions": len(results) - failed,
		"results":          results,
	})
}

func (s *Server) getPDF(c *gin.Context) {
	if s.deps.Printer == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "pdf export is not configured"})
		return
	}
	key := s.keyFromRequest(c, c.Param("id"))
	report, err := s.report(c.Request.Context(), key, false)
	if err != nil {
		s.writeError(c, err)
		return
	}

	pdf, err := s.deps.Printer.PDF(c.Request.Context(), s.deps.Overlays.Render(key.overlayID(), report.mapped))
	if err != nil {
		s.logger.Error("[server] PDF export of %s failed: %v", key.id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pdf export failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="rapport-%s.pdf"`, key.id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// report returns the cached report, loading it when missing or when fresh
// is set.
func (s *Server) report(ctx context.Context, key cacheKey, fresh bool) (cachedReport, error) {
	if !fresh {
		s.mu.RLock()
		cached, ok := s.cache[key]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	// Concurrent requests for the same report share one load. The load is
	// detached from the request that started it; each caller stops waiting
	// when its own context ends.
	ch := s.loading.DoChan(key.overlayID(), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout())
		defer cancel()

		fused, err := s.deps.LoaderFor(key.version).Load(loadCtx, key.id)
		if err != nil {
			return cachedReport{}, err
		}
		report := cachedReport{loadedAt: fused.LoadedAt, mapped: services.MapRapport(fused)}

		s.mu.Lock()
		s.cache[key] = report
		s.mu.Unlock()
		return report, nil
	})

	select {
	case <-ctx.Done():
		return cachedReport{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return cachedReport{}, res.Err
		}
		if res.Shared {
			s.logger.Debug("[server] Joined in-flight load of %s", key.overlayID())
		}
		return res.Val.(cachedReport), nil
	}
}

func (s *Server) loadTimeout() time.Duration {
	if s.cfg.LoadTimeout > 0 {
		return s.cfg.LoadTimeout
	}
	return config.DefaultLoadTimeout
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, config.ErrMissingReportID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "example": config.ExampleURL})
	case services.IsFatal(err):
		s.logger.Error("[server] %v", err)
		id := c.Param("id")
		if id == "" {
			id = c.Query("rapport")
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
			"retry": fmt.Sprintf("POST /rapport/%s/reload", id),
		})
	default:
		s.logger.Error("[server] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
