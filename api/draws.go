package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"quantumLottoServer/config"
	"quantumLottoServer/contract"
	"quantumLottoServer/crypto"
	"quantumLottoServer/db"
	"quantumLottoServer/logger"
	"quantumLottoServer/lottery"
	"quantumLottoServer/quantum"
	"quantumLottoServer/state"
	"quantumLottoServer/ws"
)

/* =========================
   REQUEST/RESPONSE TYPES
========================= */

// DrawRequest represents a draw request
type DrawRequest struct {
	NumbersPerGame int  `json:"numbersPerGame"` // Defaults to 6
	NumberRange    int  `json:"numberRange"`    // Defaults to 45
	NumGames       int  `json:"numGames"`       // Defaults to 4
	Seeded         bool `json:"seeded"`         // Derive from a revealed server seed instead of hardware
}

// DrawResponse represents a completed draw response
type DrawResponse struct {
	Success    bool                `json:"success"`
	Draw       *lottery.DrawRecord `json:"draw"`
	ServerSeed string              `json:"serverSeed,omitempty"` // Revealed after seeded draws
}

// RecentDrawsResponse represents the draw history response
type RecentDrawsResponse struct {
	Success bool                  `json:"success"`
	Draws   []*lottery.DrawRecord `json:"draws"`
	Count   int                   `json:"count"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

/* =========================
   WIRED DEPENDENCIES
========================= */

var (
	globalState      *state.GlobalState
	globalStateMutex sync.RWMutex

	quantumSource      quantum.SampleSource
	quantumSourceMutex sync.RWMutex

	attestorClient      *contract.Attestor
	attestorClientMutex sync.RWMutex
)

// SetGlobalState wires the shared draw state into the API handlers
func SetGlobalState(gs *state.GlobalState) {
	globalStateMutex.Lock()
	defer globalStateMutex.Unlock()
	globalState = gs
}

// SetSampleSource sets the source used for non-seeded draws
func SetSampleSource(src quantum.SampleSource) {
	quantumSourceMutex.Lock()
	defer quantumSourceMutex.Unlock()
	quantumSource = src
	logger.Infof("✅ Sample source set for draws: %s", src.Name())
}

// SetAttestor sets the on-chain attestor client instance
func SetAttestor(att *contract.Attestor) {
	attestorClientMutex.Lock()
	defer attestorClientMutex.Unlock()
	attestorClient = att
	logger.Info("✅ Attestor client set for draw commitments")
}

/* =========================
   DRAW ENDPOINTS
========================= */

// HandleDraw dispatches /api/draw by method
// POST /api/draw - run a new draw
// GET  /api/draw?id= - fetch a stored draw
func HandleDraw(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", config.AllowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		handleRunDraw(w, r)
	case http.MethodGet:
		handleGetDraw(w, r)
	default:
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleRunDraw runs a full draw: sample, decode, persist, broadcast
func handleRunDraw(w http.ResponseWriter, r *http.Request) {
	// Parse request (empty body means defaults)
	var req DrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Apply defaults
	params := lottery.DrawParameters{
		NumbersPerGame: req.NumbersPerGame,
		NumberRange:    req.NumberRange,
		NumGames:       req.NumGames,
	}
	if params.NumbersPerGame == 0 {
		params.NumbersPerGame = config.DefaultNumbersPerGame
	}
	if params.NumberRange == 0 {
		params.NumberRange = config.DefaultNumberRange
	}
	if params.NumGames == 0 {
		params.NumGames = config.DefaultNumGames
	}

	// Validate request
	if err := params.Validate(); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.NumberRange > config.MaxNumberRange {
		sendError(w, http.StatusBadRequest, fmt.Sprintf("Number range must be at most %d", config.MaxNumberRange))
		return
	}
	if params.NumGames > config.MaxGamesPerTicket {
		sendError(w, http.StatusBadRequest, fmt.Sprintf("At most %d games per ticket", config.MaxGamesPerTicket))
		return
	}

	bitsPerGame, err := lottery.BitWidth(params.NumberRange, params.NumbersPerGame)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	sampleWidth := params.NumGames * bitsPerGame

	// Pick the sample source for this draw
	var serverSeed string
	var src quantum.SampleSource
	if req.Seeded {
		serverSeed, _ = crypto.GenerateServerSeed()
		src = quantum.NewSeededSource(serverSeed)
	} else {
		quantumSourceMutex.RLock()
		src = quantumSource
		quantumSourceMutex.RUnlock()
		if src == nil {
			src = quantum.CryptoSource{}
		}
	}

	// Claim the draw slot
	gs := getGlobalState()
	drawID := time.Now().Format("20060102-150405.000")
	if !gs.Draw.BeginDraw(drawID, params, src.Name(), bitsPerGame, sampleWidth) {
		sendError(w, http.StatusConflict, "Another draw is already in flight")
		return
	}
	ws.SetCurrentDrawID(drawID)

	// Publish the seed commitment before sampling
	if serverSeed != "" {
		gs.Draw.SetSeedHash(crypto.HashSeed(serverSeed))
	}
	ws.BroadcastPhase(gs.Draw.Snapshot())

	ctx, cancel := context.WithTimeout(r.Context(), config.JobTimeout)
	defer cancel()

	// Sample: every game of a 1-combination draw decodes from index zero,
	// so a zero-width ticket needs no measurement at all
	sample := lottery.RawSample{Value: big.NewInt(0), Bits: 0}
	if sampleWidth > 0 {
		sample, err = sampleWithProvenance(ctx, gs, src, sampleWidth)
		if err != nil {
			gs.Draw.FailDraw(err.Error())
			ws.BroadcastPhase(gs.Draw.Snapshot())
			logger.Errorf("❌ Sampling failed for draw %s: %v", drawID, err)
			sendError(w, http.StatusBadGateway, fmt.Sprintf("Sampling failed: %v", err))
			return
		}
	}

	// Decode
	gs.Draw.SetPhase(state.PhaseDecoding)
	ws.BroadcastPhase(gs.Draw.Snapshot())

	ticket, err := lottery.DecodeTicket(sample, params)
	if err != nil {
		gs.Draw.FailDraw(err.Error())
		ws.BroadcastPhase(gs.Draw.Snapshot())
		logger.Errorf("❌ Decode failed for draw %s: %v", drawID, err)
		sendError(w, http.StatusInternalServerError, fmt.Sprintf("Decode failed: %v", err))
		return
	}

	snap := gs.Draw.Snapshot()
	record := &lottery.DrawRecord{
		ID:           drawID,
		Params:       params,
		Games:        ticket,
		Source:       src.Name(),
		Backend:      snap.Backend,
		JobID:        snap.JobID,
		SeedHash:     snap.SeedHash,
		MeasuredBits: sample.BitString(),
		BitsPerGame:  bitsPerGame,
		CreatedAt:    time.Now().UTC(),
	}

	// Persist and cache (best effort, the draw result stands either way)
	if err := db.SaveDraw(ctx, record); err != nil {
		logger.Warnf("⚠️  Failed to store draw %s: %v", drawID, err)
	}
	if err := db.CacheDraw(ctx, record); err != nil {
		logger.Warnf("⚠️  Failed to cache draw %s: %v", drawID, err)
	}

	gs.Draw.CompleteDraw(ticket)
	ws.BroadcastPhase(gs.Draw.Snapshot())
	ws.BroadcastDrawResult(record)

	// Attest the commitment on-chain (fire and forget)
	attestDraw(record)

	response := DrawResponse{
		Success:    true,
		Draw:       record,
		ServerSeed: serverSeed,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	logger.Infof("✅ Draw complete - ID: %s, Source: %s, Games: %d, Bits: %d",
		drawID, record.Source, len(ticket), sampleWidth)
}

// sampleWithProvenance samples the requested width, recording job metadata
// when the source is hardware backed
func sampleWithProvenance(ctx context.Context, gs *state.GlobalState, src quantum.SampleSource, width int) (lottery.RawSample, error) {
	if qs, ok := src.(*quantum.QuantumSource); ok {
		sample, prov, err := qs.SampleWithProvenance(ctx, width)
		if err != nil {
			return lottery.RawSample{}, err
		}

		gs.Draw.SetJob(prov.Backend, prov.JobID)
		if err := db.CacheJobStatus(ctx, prov.JobID, prov.Backend, quantum.JobCompleted); err != nil {
			logger.Warnf("⚠️  Failed to cache job status: %v", err)
		}
		return sample, nil
	}

	return src.UniformSample(ctx, width)
}

// attestDraw submits the draw commitment on-chain without blocking the response
func attestDraw(record *lottery.DrawRecord) {
	attestorClientMutex.RLock()
	att := attestorClient
	attestorClientMutex.RUnlock()

	if att == nil {
		return
	}

	entropy := record.SeedHash
	if entropy == "" {
		entropy = record.MeasuredBits
	}
	commitment := crypto.CommitmentHash(entropy,
		record.Params.NumbersPerGame, record.Params.NumberRange, record.Params.NumGames)

	go func() {
		for attempt := 1; attempt <= config.MaxRetries; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), config.TransactionTimeout)
			err := att.RecordDraw(ctx, record.ID, commitment)
			cancel()

			if err == nil {
				return
			}
			logger.Warnf("⚠️  Failed to attest draw %s (attempt %d/%d): %v",
				record.ID, attempt, config.MaxRetries, err)
			time.Sleep(config.RetryDelay)
		}
	}()
}

// handleGetDraw fetches a stored draw, cache first
func handleGetDraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	drawID := r.URL.Query().Get("id")
	if drawID == "" {
		sendError(w, http.StatusBadRequest, "Draw ID is required")
		return
	}

	// Redis first
	record, err := db.GetCachedDraw(ctx, drawID)
	if err != nil {
		logger.Warnf("⚠️  Cache lookup failed for draw %s: %v", drawID, err)
	}

	// PostgreSQL fallback
	if record == nil {
		record, err = db.GetDraw(ctx, drawID)
		if err != nil {
			logger.Errorf("❌ Failed to get draw %s: %v", drawID, err)
			sendError(w, http.StatusInternalServerError, "Failed to retrieve draw")
			return
		}
	}

	if record == nil {
		sendError(w, http.StatusNotFound, "Draw not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DrawResponse{
		Success: true,
		Draw:    record,
	})
}

// HandleGetRecentDraws handles GET /api/draws/recent
// Query params: limit (optional, default 10)
func HandleGetRecentDraws(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()

	limit := 10
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			sendError(w, http.StatusBadRequest, "Limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > config.MaxRecentDraws {
		limit = config.MaxRecentDraws
	}

	records, err := db.GetRecentDraws(ctx, limit)
	if err != nil {
		logger.Errorf("❌ Failed to get recent draws: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to retrieve draws")
		return
	}

	// Without a database, fall back to the Redis recent list
	if db.PostgresPool == nil {
		records = recentDrawsFromCache(ctx, limit)
	}
	if records == nil {
		records = []*lottery.DrawRecord{}
	}

	response := RecentDrawsResponse{
		Success: true,
		Draws:   records,
		Count:   len(records),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", config.AllowOrigin)
	json.NewEncoder(w).Encode(response)

	logger.Infof("📋 Retrieved %d recent draws", len(records))
}

// recentDrawsFromCache assembles recent draws from Redis when PostgreSQL is down
func recentDrawsFromCache(ctx context.Context, limit int) []*lottery.DrawRecord {
	ids, err := db.GetRecentDrawIDs(ctx, limit)
	if err != nil {
		logger.Warnf("⚠️  Failed to get recent draw IDs from cache: %v", err)
		return nil
	}

	records := make([]*lottery.DrawRecord, 0, len(ids))
	for _, id := range ids {
		record, err := db.GetCachedDraw(ctx, id)
		if err != nil || record == nil {
			continue
		}
		records = append(records, record)
	}
	return records
}

/* =========================
   HELPER FUNCTIONS
========================= */

// getGlobalState returns the wired draw state, creating one if main never set it
func getGlobalState() *state.GlobalState {
	globalStateMutex.RLock()
	gs := globalState
	globalStateMutex.RUnlock()
	if gs != nil {
		return gs
	}

	globalStateMutex.Lock()
	defer globalStateMutex.Unlock()
	if globalState == nil {
		globalState = state.NewGlobalState()
	}
	return globalState
}

// sendError sends an error response
func sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   message,
	})
}
