package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/aristath/portwatch/internal/di"
	"github.com/aristath/portwatch/internal/reliability"
	"github.com/aristath/portwatch/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	db          *database.DB
	backups     *reliability.BackupService
	jobs        *di.JobInstances
	sched       *scheduler.Scheduler
}

// NewSystemHandlers creates a new system handlers instance.
// jobs and sched may be nil; job endpoints then report nothing to run.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	db *database.DB,
	backups *reliability.BackupService,
	jobs *di.JobInstances,
	sched *scheduler.Scheduler,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		db:          db,
		backups:     backups,
		jobs:        jobs,
		sched:       sched,
	}
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status         string  `json:"status"` // "healthy" or "unhealthy"
	SchemaVersion  int     `json:"schema_version"`
	AccountCount   int     `json:"account_count"`
	PositionCount  int     `json:"position_count"`
	WatchlistCount int     `json:"watchlist_count"`
	DroppedLinks   int     `json:"dropped_links"`
	CPUPercent     float64 `json:"cpu_percent"`
	RAMPercent     float64 `json:"ram_percent"`
	UptimeSeconds  int64   `json:"uptime_seconds"`
}

// DatabaseStatsResponse is the payload of GET /api/system/database/stats
type DatabaseStatsResponse struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Stats       *database.Stats `json:"stats"`
	LastChecked string          `json:"last_checked"`
}

// DiskUsageResponse is the payload of GET /api/system/disk
type DiskUsageResponse struct {
	DataDirMB   float64 `json:"data_dir_mb"`
	BackupsMB   float64 `json:"backups_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// JobRunResponse reports a manually triggered job
type JobRunResponse struct {
	Job        string `json:"job"`
	Status     string `json:"status"` // "success" or "error"
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// HandleSystemStatus returns row counts, host load and the schema version
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
	}

	version, err := h.db.SchemaVersion()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read schema version")
		response.Status = "unhealthy"
	}
	response.SchemaVersion = version

	counts := []struct {
		dest  *int
		query string
	}{
		{&response.AccountCount, `SELECT COUNT(*) FROM accounts`},
		{&response.PositionCount, `SELECT COUNT(*) FROM positions WHERE shares > 0`},
		{&response.WatchlistCount, `SELECT COUNT(*) FROM watchlists`},
		{&response.DroppedLinks, `SELECT COUNT(*) FROM position_watchlist_links WHERE status = 'dropped'`},
	}
	for _, c := range counts {
		if err := h.db.Conn().QueryRowContext(r.Context(), c.query).Scan(c.dest); err != nil {
			h.log.Warn().Err(err).Str("query", c.query).Msg("Failed to count rows")
			response.Status = "unhealthy"
		}
	}

	response.CPUPercent, response.RAMPercent = h.getSystemStats()
	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns size and page statistics of the database
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, DatabaseStatsResponse{
		Name:        h.db.Name(),
		Path:        h.db.Path(),
		Stats:       stats,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// HandleDiskUsage returns data directory sizes and free space
// GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	response := DiskUsageResponse{
		DataDirMB: h.getDirSize(h.dataDir),
		BackupsMB: h.getDirSize(filepath.Join(h.dataDir, "backups")),
	}
	if usage, err := disk.Usage(h.dataDir); err == nil {
		response.FreeMB = float64(usage.Free) / 1024 / 1024
		response.UsedPercent = usage.UsedPercent
	} else {
		h.log.Warn().Err(err).Msg("Failed to read disk usage")
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleListBackups lists local database snapshots, newest first
// GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		h.writeJSON(w, http.StatusOK, []reliability.BackupInfo{})
		return
	}
	backups, err := h.backups.ListBackups()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if backups == nil {
		backups = []reliability.BackupInfo{}
	}
	h.writeJSON(w, http.StatusOK, backups)
}

// HandleListJobs returns the names of the jobs that can be triggered
// GET /api/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	for _, job := range h.jobs.All() {
		names = append(names, job.Name())
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"jobs": names})
}

// HandleTriggerJob runs a maintenance job immediately and waits for it
// POST /api/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job := h.jobs.ByName(name)
	if job == nil {
		h.writeError(w, http.StatusNotFound, "unknown job "+name)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job triggered")
	start := time.Now()
	var err error
	if h.sched != nil {
		err = h.sched.RunNow(job)
	} else {
		err = job.Run()
	}

	response := JobRunResponse{Job: name, Status: "success", DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		response.Status = "error"
		response.Message = err.Error()
		h.writeJSON(w, http.StatusInternalServerError, response)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages.
// The 100ms CPU sample keeps the status call fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
