package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/repositories"
	"github.com/desertthunder/playlog/internal/shared"
	"github.com/desertthunder/playlog/internal/tasks"
)

const defaultRunsLimit = 20

// StatsProvider computes statistics for a store (tasks.AnalysisEngine).
type StatsProvider interface {
	Analyze(path string, year, k int) (*models.AggregationResult, error)
}

// SyncRunLister reads the sync history (repositories.SyncRunRepository).
type SyncRunLister interface {
	List(criteria map[string]any) ([]*models.SyncRun, error)
}

// SyncTrigger runs one ingestion cycle on demand (tasks.Syncer).
type SyncTrigger interface {
	RunOnce(ctx context.Context) tasks.CycleResult
}

// APIOpts configures the JSON API. Only Stats is required.
type APIOpts struct {
	Stats     StatsProvider
	StorePath string
	TopK      int
	Year      int // 0 means the current year at request time
	Runs      SyncRunLister
	Sync      SyncTrigger
	Clock     func() time.Time
}

// API serves playback statistics and sync history as JSON.
type API struct {
	stats     StatsProvider
	storePath string
	topK      int
	year      int
	runs      SyncRunLister
	sync      SyncTrigger
	now       func() time.Time

	mu   sync.Mutex
	last *tasks.CycleResult
}

// NewAPI creates an [API].
func NewAPI(opts APIOpts) *API {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &API{
		stats:     opts.Stats,
		storePath: opts.StorePath,
		topK:      opts.TopK,
		year:      opts.Year,
		runs:      opts.Runs,
		sync:      opts.Sync,
		now:       clock,
	}
}

// Register adds the API routes to r.
//
//	GET  /health
//	GET  /api/stats?year=&top=
//	GET  /api/sync/runs?limit=&status=
//	POST /api/sync
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.Health))
	r.Handle(http.MethodGet, "/api/stats", http.HandlerFunc(a.Stats))
	r.Handle(http.MethodGet, "/api/sync/runs", http.HandlerFunc(a.SyncRuns))
	r.Handle(http.MethodPost, "/api/sync", http.HandlerFunc(a.TriggerSync))
}

// NewRouter builds a [BasicRouter] with panic recovery, request logging and the API routes.
func NewRouter(api *API, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(RecoverMiddleware(logger), LoggingMiddleware(logger))
	api.Register(router)
	return router
}

// RecordCycle remembers result as the latest sync cycle reported by /health.
func (a *API) RecordCycle(result tasks.CycleResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = &result
}

func (a *API) lastCycle() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil
	}

	last := map[string]any{
		"ok":          a.last.OK(),
		"started_at":  a.last.StartedAt.UTC().Format(time.RFC3339),
		"duration_ms": a.last.Duration.Milliseconds(),
	}
	if a.last.OK() {
		last["added_rows"] = a.last.Report.AddedRows()
		last["total_rows"] = a.last.Report.TotalRows
	} else {
		last["error"] = a.last.Err.Error()
	}
	return last
}

// Health reports liveness, whether the store exists and the latest sync cycle, if any.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":       "ok",
		"store":        a.storePath,
		"store_exists": a.storePath != "" && repositories.NewEventStore(a.storePath).Exists(),
		"time":         a.now().UTC().Format(time.RFC3339),
	}
	if last := a.lastCycle(); last != nil {
		body["last_sync"] = last
	}
	writeJSON(w, http.StatusOK, body)
}

// Stats runs the aggregation for the requested year and ranking size.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", a.year)
	if err != nil || year < 0 {
		writeError(w, http.StatusBadRequest, "year must be a non-negative integer")
		return
	}
	if year == 0 {
		year = a.now().Year()
	}

	k, err := intParam(r, "top", a.topK)
	if err != nil || k < 0 {
		writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
		return
	}

	result, err := a.stats.Analyze(a.storePath, year, k)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, shared.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrSchema):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// SyncRuns lists recent sync runs, newest first.
func (a *API) SyncRuns(w http.ResponseWriter, r *http.Request) {
	if a.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "sync history is not configured")
		return
	}

	limit, err := intParam(r, "limit", defaultRunsLimit)
	if err != nil || limit <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	criteria := map[string]any{"limit": limit}
	if status := r.URL.Query().Get("status"); status != "" {
		criteria["status"] = status
	}

	runs, err := a.runs.List(criteria)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*models.SyncRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// TriggerSync runs one ingestion cycle and returns its merge report.
func (a *API) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if a.sync == nil {
		writeError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}

	result := a.sync.RunOnce(r.Context())
	a.RecordCycle(result)
	if result.Err != nil {
		status := http.StatusInternalServerError
		if errors.Is(result.Err, shared.ErrFetch) {
			status = http.StatusBadGateway
		}
		writeError(w, status, result.Err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"report":      result.Report,
		"added_rows":  result.Report.AddedRows(),
		"duration_ms": result.Duration.Milliseconds(),
	})
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
