package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// HandleAdminConfig reads or updates the live chat policy.
// GET  /admin/config  returns the current settings
// POST /admin/config  updates the fields present in the JSON body
func (r *Relay) HandleAdminConfig(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, r.chat.Settings())
	case http.MethodPost:
		var body ChatSettings
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		rateChanged, err := r.chat.Update(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if rateChanged {
			r.registry.SetChatRate(r.chat.Limit())
		}
		cur := r.chat.Settings()
		Log.Infof("chat config updated: max_length=%d rate=%d/%dms", *cur.MaxLength, *cur.RateMessages, *cur.RateWindowMs)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAdminSessions lists connected sessions with the relay counters.
// GET /admin/sessions
func (r *Relay) HandleAdminSessions(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": r.registry.Sessions(),
		"metrics":  r.metrics.Snapshot(),
		"process":  r.processStats(),
	})
}

// processStats reports uptime and resource use of the relay process. Fields
// the platform cannot provide are left out.
func (r *Relay) processStats() map[string]any {
	stats := map[string]any{
		"uptime_s":   int64(time.Since(r.started).Seconds()),
		"goroutines": runtime.NumGoroutine(),
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		Log.Debugf("process stats: %v", err)
		return stats
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		stats["rss_mb"] = float64(mem.RSS) / 1024 / 1024
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		stats["cpu_percent"] = cpu
	}
	return stats
}
