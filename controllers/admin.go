package controllers

import (
	"context"
	"net/http"
	"time"

	"bioshop/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const backupTimeout = 5 * time.Minute

// BackupController creates and removes database exports.
type BackupController struct {
	backups *services.BackupService
	log     *zap.Logger
}

func NewBackupController(backups *services.BackupService, log *zap.Logger) *BackupController {
	return &BackupController{backups: backups, log: log}
}

// CreateBackup answers 201 for a completed backup and 500 with the record
// when any collection failed to export.
func (bc *BackupController) CreateBackup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), backupTimeout)
	defer cancel()

	backup, err := bc.backups.Create(ctx)
	if err != nil {
		respondError(w, bc.log, err)
		return
	}
	status := http.StatusCreated
	if backup.Status != services.BackupCompleted {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, backup)
}

func (bc *BackupController) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := bc.backups.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		respondError(w, bc.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnalyticsController reports sales figures.
type AnalyticsController struct {
	analytics *services.AnalyticsService
	log       *zap.Logger
}

func NewAnalyticsController(analytics *services.AnalyticsService, log *zap.Logger) *AnalyticsController {
	return &AnalyticsController{analytics: analytics, log: log}
}

// GetSummary accepts optional from and to dates.
func (ac *AnalyticsController) GetSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate(q.Get("from"), false)
	if err != nil {
		respondError(w, ac.log, err)
		return
	}
	to, err := parseDate(q.Get("to"), true)
	if err != nil {
		respondError(w, ac.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), orderTimeout)
	defer cancel()

	summary, err := ac.analytics.Summary(ctx, from, to)
	if err != nil {
		respondError(w, ac.log, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports whether the database answers.
func Health(db pinger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			log.Warn("health check failed", zap.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
