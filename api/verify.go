package api

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"quantumLottoServer/crypto"
	"quantumLottoServer/db"
	"quantumLottoServer/logger"
	"quantumLottoServer/lottery"
	"quantumLottoServer/quantum"
	"quantumLottoServer/ws"
)

/* =========================
   DRAW VERIFICATION
========================= */

// VerifyRequest asks the server to re-derive a seeded draw
type VerifyRequest struct {
	DrawID     string `json:"drawId"`
	ServerSeed string `json:"serverSeed"`
}

// VerifyResponse reports whether the revealed seed reproduces the draw
type VerifyResponse struct {
	Valid bool           `json:"valid"`
	Games []lottery.Game `json:"games,omitempty"`
	Error string         `json:"error,omitempty"`
}

// HandleVerifyDraw re-derives a seeded draw from a revealed server seed
// and compares it against the stored record
// POST /api/verify
func HandleVerifyDraw(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != "POST" {
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Error: "Method not allowed. Use POST.",
		})
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Error: "Invalid request body",
		})
		return
	}

	// Validate required fields
	if req.DrawID == "" || req.ServerSeed == "" {
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Error: "Missing required fields: drawId, serverSeed",
		})
		return
	}

	ctx := r.Context()

	// Look up the stored record, cache first
	record, err := db.GetCachedDraw(ctx, req.DrawID)
	if err != nil || record == nil {
		record, err = db.GetDraw(ctx, req.DrawID)
	}
	if err != nil {
		logger.Errorf("❌ Failed to load draw %s for verification: %v", req.DrawID, err)
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Error: "Failed to load draw record",
		})
		return
	}
	if record == nil {
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Error: "Draw not found",
		})
		return
	}

	if record.SeedHash == "" {
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Error: "Draw was not seeded, nothing to verify",
		})
		return
	}

	// Verify the server seed against the published commitment
	if !crypto.VerifySeed(req.ServerSeed, record.SeedHash) {
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Error: "Server seed hash does not match",
		})
		return
	}

	// Re-derive the ticket from the revealed seed
	games, err := rederiveTicket(ctx, req.ServerSeed, record.Params)
	if err != nil {
		logger.Errorf("❌ Failed to re-derive draw %s: %v", req.DrawID, err)
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Error: "Failed to re-derive draw: " + err.Error(),
		})
		return
	}

	if !gamesEqual(games, record.Games) {
		json.NewEncoder(w).Encode(VerifyResponse{
			Valid: false,
			Games: games,
			Error: "Re-derived games do not match the stored record",
		})
		return
	}

	logger.Infof("✅ Draw verified - ID: %s, Games: %d", req.DrawID, len(games))

	json.NewEncoder(w).Encode(VerifyResponse{
		Valid: true,
		Games: games,
	})
}

// rederiveTicket replays the seeded sampling and decoding pipeline
func rederiveTicket(ctx context.Context, serverSeed string, params lottery.DrawParameters) ([]lottery.Game, error) {
	width, err := lottery.SampleWidth(params)
	if err != nil {
		return nil, err
	}

	sample := lottery.RawSample{Value: big.NewInt(0), Bits: 0}
	if width > 0 {
		src := quantum.NewSeededSource(serverSeed)
		sample, err = src.UniformSample(ctx, width)
		if err != nil {
			return nil, err
		}
	}

	ticket, err := lottery.DecodeTicket(sample, params)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func gamesEqual(a, b []lottery.Game) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

/* =========================
   HEALTH CHECK ENDPOINT
========================= */

// HandleHealthCheck handles health check requests
// GET /health
func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()

	// Check Redis
	redisHealth := "ok"
	if err := db.HealthCheck(ctx); err != nil {
		redisHealth = "error: " + err.Error()
	}

	// Check PostgreSQL
	postgresHealth := "ok"
	if err := db.HealthCheckPostgres(ctx); err != nil {
		postgresHealth = "error: " + err.Error()
	}

	// Check the configured sample source
	quantumSourceMutex.RLock()
	src := quantumSource
	quantumSourceMutex.RUnlock()

	sourceHealth := "disabled"
	if src != nil {
		sourceHealth = src.Name()
	}

	response := map[string]interface{}{
		"success":          true,
		"redis":            redisHealth,
		"postgres":         postgresHealth,
		"sampleSource":     sourceHealth,
		"connectedClients": ws.ClientCount(),
		"currentDrawId":    ws.GetCurrentDrawID(),
		"message":          "Health check completed",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
