package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"quantumLottoServer/config"
	"quantumLottoServer/db"
	"quantumLottoServer/logger"
	"quantumLottoServer/quantum"
)

/* =========================
   RESPONSE TYPES
========================= */

// BackendInfo is one quantum backend with its live queue depth
type BackendInfo struct {
	Name        string `json:"name"`
	Qubits      int    `json:"qubits"`
	Simulator   bool   `json:"simulator"`
	Operational bool   `json:"operational"`
	Queue       int    `json:"queue"` // -1 when the status lookup failed
}

// BackendsResponse represents the backend listing response
type BackendsResponse struct {
	Success  bool          `json:"success"`
	Backends []BackendInfo `json:"backends"`
	Count    int           `json:"count"`
	Cached   bool          `json:"cached"`
}

var (
	quantumClient      *quantum.Client
	quantumClientMutex sync.RWMutex
)

// SetQuantumClient sets the runtime client used for backend listings
func SetQuantumClient(c *quantum.Client) {
	quantumClientMutex.Lock()
	defer quantumClientMutex.Unlock()
	quantumClient = c
}

/* =========================
   BACKEND ENDPOINTS
========================= */

// HandleGetBackends handles GET /api/backends
func HandleGetBackends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	quantumClientMutex.RLock()
	client := quantumClient
	quantumClientMutex.RUnlock()

	if client == nil {
		sendError(w, http.StatusServiceUnavailable, "Quantum runtime client not configured")
		return
	}

	ctx := r.Context()

	// Serve the device list from cache when possible
	cached := true
	backends, err := db.GetCachedBackends(ctx)
	if err != nil {
		logger.Warnf("⚠️  Backend cache lookup failed: %v", err)
	}
	if backends == nil {
		cached = false
		backends, err = client.ListBackends(ctx)
		if err != nil {
			logger.Errorf("❌ Failed to list backends: %v", err)
			sendError(w, http.StatusBadGateway, "Failed to list backends")
			return
		}
		if err := db.CacheBackends(ctx, backends); err != nil {
			logger.Warnf("⚠️  Failed to cache backends: %v", err)
		}
	}

	// Enrich with live queue depths
	infos := make([]BackendInfo, 0, len(backends))
	for _, backend := range backends {
		info := BackendInfo{
			Name:        backend.Name,
			Qubits:      backend.Qubits,
			Simulator:   backend.Simulator,
			Operational: backend.Operational,
			Queue:       -1,
		}
		if status, err := client.BackendStatus(ctx, backend.Name); err == nil {
			info.Queue = status.QueueLength
			info.Operational = status.Operational
		}
		infos = append(infos, info)
	}

	response := BackendsResponse{
		Success:  true,
		Backends: infos,
		Count:    len(infos),
		Cached:   cached,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", config.AllowOrigin)
	json.NewEncoder(w).Encode(response)

	logger.Infof("📋 Retrieved %d backends (cached: %v)", len(infos), cached)
}
