// handlers/router.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(a *API) *mux.Router {
	r := mux.NewRouter()
	// Routes sit on the root router so a wrong method answers 405.
	r.HandleFunc("/api/health", a.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/sync", a.RunSync).Methods(http.MethodPost)
	r.HandleFunc("/api/sync/report", a.DiffReport).Methods(http.MethodGet)
	r.HandleFunc("/api/sync/runs", a.ListRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/properties/{folID}", a.GetProperty).Methods(http.MethodGet)
	r.HandleFunc("/api/properties/{folID}/exploration", a.GetExploration).Methods(http.MethodGet)
	return r
}
