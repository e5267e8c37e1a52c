// Package api exposes the report trigger/poll HTTP surface.
package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/nadmax/storepulse/internal/dashboard"
	"github.com/nadmax/storepulse/internal/httputil"
	"github.com/nadmax/storepulse/internal/registry"
	"github.com/nadmax/storepulse/internal/report"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	controller *report.Controller
	mux        *http.ServeMux
}

type TriggerResponse struct {
	ReportID string `json:"report_id"`
}

type StatusResponse struct {
	Status registry.JobStatus `json:"status"`
}

func NewAPI(c *report.Controller, reg *registry.Registry) *API {
	api := &API{
		controller: c,
		mux:        http.NewServeMux(),
	}

	api.setupRoutes(reg)
	return api
}

func (a *API) setupRoutes(reg *registry.Registry) {
	a.mux.HandleFunc("/trigger_report", a.triggerReport)
	a.mux.HandleFunc("/get_report/", a.getReport)

	dash := dashboard.NewDashboard(reg)
	a.mux.HandleFunc("/api/dashboard/stats", dash.GetStats)
	a.mux.HandleFunc("/api/dashboard/history", dash.GetRecentJobs)

	a.mux.Handle("/metrics", promhttp.Handler())
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) triggerReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reportID, err := a.controller.TriggerReport(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, TriggerResponse{ReportID: reportID})
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reportID := strings.TrimPrefix(r.URL.Path, "/get_report/")
	if reportID == "" {
		httputil.WriteJSONError(w, "Report ID is required", http.StatusBadRequest)
		return
	}

	job, err := a.controller.GetReport(r.Context(), reportID)
	if errors.Is(err, registry.ErrUnknownJob) {
		httputil.WriteJSONError(w, "Report ID not found", http.StatusNotFound)
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if job.Status == registry.StatusRunning {
		httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: registry.StatusRunning})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=store_report_%s.csv", reportID))
	if err := report.WriteCSV(w, job.Rows); err != nil {
		log.Printf("failed to write report %s: %v", reportID, err)
	}
}
