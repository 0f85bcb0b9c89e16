package main

import (
	"context"
	"math/big"
	"net/http"

	"quantumLottoServer/api"
	"quantumLottoServer/config"
	"quantumLottoServer/contract"
	"quantumLottoServer/db"
	"quantumLottoServer/logger"
	"quantumLottoServer/quantum"
	"quantumLottoServer/state"
	"quantumLottoServer/ws"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logger.Warn("⚠️  Warning: .env file not found, using environment variables")
	} else {
		logger.Info("✅ Loaded environment variables from .env")
	}

	cfg, err := config.ParseEnv()
	if err != nil {
		logger.Fatalf("❌ Invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	// Initialize database connections
	if err := db.InitPostgres(cfg); err != nil {
		logger.Warnf("⚠️  Warning: PostgreSQL initialization failed: %v", err)
		logger.Info("   Draw history will not be persisted")
	}
	defer db.ClosePostgres()

	if err := db.InitRedis(cfg); err != nil {
		logger.Warnf("⚠️  Warning: Redis initialization failed: %v", err)
		logger.Info("   Draw caching and job status tracking will be unavailable")
	}
	defer db.CloseRedis()

	// Shared draw lifecycle state
	globalState := state.NewGlobalState()
	api.SetGlobalState(globalState)
	ws.SetGlobalState(globalState)

	// Quantum runtime client and sample source
	if cfg.QuantumToken == "" {
		logger.Warn("⚠️  Warning: IBM_QUANTUM_TOKEN not set")
		logger.Info("   Draws will be sampled from crypto/rand instead of quantum hardware")
		api.SetSampleSource(quantum.CryptoSource{})
	} else {
		client, err := quantum.NewClient(quantum.Config{
			Token:    cfg.QuantumToken,
			Instance: cfg.QuantumInstance,
			BaseURL:  cfg.QuantumURL,
		})
		if err != nil {
			logger.Warnf("⚠️  Warning: Quantum client initialization failed: %v", err)
			logger.Info("   Draws will be sampled from crypto/rand instead of quantum hardware")
			api.SetSampleSource(quantum.CryptoSource{})
		} else {
			api.SetQuantumClient(client)
			api.SetSampleSource(quantum.NewQuantumSource(client, cfg.QuantumBackend, config.DefaultShots))
		}
	}

	// Initialize attestor client
	attestor, err := contract.NewAttestor(cfg)
	if err != nil {
		logger.Warnf("⚠️  Warning: Attestor initialization failed: %v", err)
		logger.Info("   Draw commitments will not be recorded on-chain")
	} else {
		api.SetAttestor(attestor)
		defer attestor.Close()
		go attestor.BalanceMonitor(context.Background(), config.BalanceCheckInterval, big.NewInt(config.AttestorMinBalance))
	}

	// WebSocket endpoints
	http.HandleFunc("/ws", ws.HandleWS)

	// API endpoints
	http.HandleFunc("/api/draw", api.HandleDraw)
	http.HandleFunc("/api/draws/recent", api.HandleGetRecentDraws)
	http.HandleFunc("/api/verify", api.HandleVerifyDraw)
	http.HandleFunc("/api/backends", api.HandleGetBackends)
	http.HandleFunc("/health", api.HandleHealthCheck)

	addr := config.ServerHost + ":" + cfg.Port
	logger.Infof("🚀 Server starting on %s", addr)
	logger.Info("")
	logger.Info("📡 WebSocket Endpoints:")
	logger.Info("   ws://localhost:" + cfg.Port + "/ws - Live draw feed")
	logger.Info("   - 'hello' carries the current draw state and history")
	logger.Info("   - 'phase' events track sampling/decoding transitions")
	logger.Info("   - 'draw_result' events carry completed tickets")
	logger.Info("")
	logger.Info("🔌 API Endpoints:")
	logger.Info("   POST /api/draw - Run a draw (quantum, crypto or seeded)")
	logger.Info("   GET  /api/draw?id= - Get a stored draw")
	logger.Info("   GET  /api/draws/recent - Get recent draw history")
	logger.Info("   POST /api/verify - Re-derive a seeded draw from its revealed seed")
	logger.Info("   GET  /api/backends - List quantum backends with queue depth")
	logger.Info("   GET  /health - Health check (Redis + PostgreSQL + source)")
	logger.Info("")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatalf("❌ Server error: %v", err)
	}
}
