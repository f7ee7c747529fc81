// handlers/admin_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hakanhakan/TelekomExpport2/models"
	"github.com/hakanhakan/TelekomExpport2/services"
)

type Syncer interface {
	Sync(ctx context.Context, opts services.SyncOptions) (models.SyncStats, error)
	Report(ctx context.Context) (services.DiffReport, error)
}

type PropertyReader interface {
	Get(ctx context.Context, folID string) (*models.PropertyRecord, error)
	LookupExploration(ctx context.Context, folID string) (*models.ExplorationMarker, error)
}

type RunLister interface {
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// API serves the admin endpoints of the reconciliation backend.
type API struct {
	db          Pinger
	syncer      Syncer
	properties  PropertyReader
	runs        RunLister
	syncOptions services.SyncOptions
	log         *zap.Logger
}

func NewAPI(db Pinger, syncer Syncer, properties PropertyReader, runs RunLister, opts services.SyncOptions, log *zap.Logger) *API {
	return &API{db: db, syncer: syncer, properties: properties, runs: runs, syncOptions: opts, log: log}
}

// Helper to respond with JSON
func (a *API) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		a.log.Error("API: failed to marshal JSON response", zap.Error(err))
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func (a *API) respondWithError(w http.ResponseWriter, code int, message string) {
	a.log.Warn("API: error response", zap.Int("code", code), zap.String("message", message))
	a.respondWithJSON(w, code, map[string]string{"error": message})
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	if err := a.db.PingContext(r.Context()); err != nil {
		a.log.Error("API: health check failed", zap.Error(err))
		a.respondWithJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "database connection error"})
		return
	}
	a.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RunSync starts a reconciliation pass and waits for it.
// Query parameters: dry_run=true, batch_size=N, max_records=N.
func (a *API) RunSync(w http.ResponseWriter, r *http.Request) {
	opts := a.syncOptions
	q := r.URL.Query()
	if v := q.Get("dry_run"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			a.respondWithError(w, http.StatusBadRequest, "Invalid dry_run value: "+v)
			return
		}
		opts.DryRun = dry
	}
	for name, target := range map[string]*int{"batch_size": &opts.BatchSize, "max_records": &opts.MaxRecords} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			a.respondWithError(w, http.StatusBadRequest, "Invalid "+name+" value: "+v)
			return
		}
		*target = n
	}

	stats, err := a.syncer.Sync(r.Context(), opts)
	if err != nil {
		a.respondWithError(w, http.StatusInternalServerError, "Sync failed: "+err.Error())
		return
	}
	a.respondWithJSON(w, http.StatusOK, map[string]any{"dry_run": opts.DryRun, "stats": stats})
}

// DiffReport renders the pending differences as text.
func (a *API) DiffReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.syncer.Report(r.Context())
	if err != nil {
		a.respondWithError(w, http.StatusInternalServerError, "Failed to build report: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := report.Write(w); err != nil {
		a.log.Error("API: failed to write report", zap.Error(err))
	}
}

func (a *API) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			a.respondWithError(w, http.StatusBadRequest, "Invalid limit value: "+v)
			return
		}
		limit = n
	}
	runs, err := a.runs.ListSyncRuns(r.Context(), limit)
	if err != nil {
		a.respondWithError(w, http.StatusInternalServerError, "Failed to list sync runs: "+err.Error())
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	a.respondWithJSON(w, http.StatusOK, runs)
}

func (a *API) GetExploration(w http.ResponseWriter, r *http.Request) {
	folID := mux.Vars(r)["folID"]
	marker, err := a.properties.LookupExploration(r.Context(), folID)
	if err != nil {
		a.respondWithError(w, http.StatusInternalServerError, "Failed to look up property: "+err.Error())
		return
	}
	if marker == nil {
		a.respondWithError(w, http.StatusNotFound, "Property "+folID+" not found")
		return
	}
	a.respondWithJSON(w, http.StatusOK, map[string]string{
		"fol_id":          marker.FolID,
		"exploration":     marker.Exploration,
		"exploration_pdf": marker.ExplorationPDF,
	})
}

func (a *API) GetProperty(w http.ResponseWriter, r *http.Request) {
	folID := mux.Vars(r)["folID"]
	rec, err := a.properties.Get(r.Context(), folID)
	if err != nil {
		a.respondWithError(w, http.StatusInternalServerError, "Failed to load property: "+err.Error())
		return
	}
	if rec == nil {
		a.respondWithError(w, http.StatusNotFound, "Property "+folID+" not found")
		return
	}
	a.respondWithJSON(w, http.StatusOK, rec)
}
