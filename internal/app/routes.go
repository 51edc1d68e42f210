package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {
	r.HandleFunc("/api/reports/{month}", deps.ReportHandler.Generate).Methods("POST")
	r.HandleFunc("/api/reports/{month}", deps.ReportHandler.Get).Methods("GET")
}
