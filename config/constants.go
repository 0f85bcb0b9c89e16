package config

import (
	"math/big"
	"time"
)

/* =========================
   QUANTUM SERVICE CONFIGURATION
========================= */

const (
	// IBM Quantum Runtime REST API
	IBMRuntimeBaseURL = "https://api.quantum-computing.ibm.com/runtime"

	// Sampler execution
	DefaultShots               = 1 // one measurement collapses the whole superposition
	TranspileOptimizationLevel = 3

	// Job polling
	JobPollInterval = 2 * time.Second
	JobTimeout      = 5 * time.Minute
	HTTPTimeout     = 30 * time.Second

	// Largest register we will request from a device
	MaxSampleQubits = 127
)

/* =========================
   DRAW DEFAULTS
========================= */

const (
	// Classic 6-of-45 ticket, four games
	DefaultNumbersPerGame = 6
	DefaultNumberRange    = 45
	DefaultNumGames       = 4

	// Request caps
	MaxNumberRange    = 99
	MaxGamesPerTicket = 20
	MaxRecentDraws    = 50
)

/* =========================
   REDIS TTL CONFIGURATION
========================= */

const (
	// Completed draw records (24 hours)
	// Key: lottery:draw:{drawId}
	DrawRecordTTL = 24 * time.Hour

	// Last observed runtime job status (10 minutes)
	// Key: lottery:job:{jobId}
	JobStatusTTL = 10 * time.Minute

	// Cached backend list (5 minutes)
	// Key: lottery:backends
	BackendListTTL = 5 * time.Minute
)

/* =========================
   REDIS KEY PATTERNS
========================= */

const (
	RedisDrawKey        = "lottery:draw:%s" // lottery:draw:{drawId}
	RedisJobKey         = "lottery:job:%s"  // lottery:job:{jobId}
	RedisBackendsKey    = "lottery:backends"
	RedisRecentDrawsKey = "lottery:draws:recent" // LIST of recent draw ids
)

/* =========================
   POSTGRESQL CONFIGURATION
========================= */

const (
	// Connection pool settings
	MaxOpenConns    = 25
	MaxIdleConns    = 5
	ConnMaxLifetime = 5 * time.Minute
)

/* =========================
   ATTESTATION CONFIGURATION
========================= */

const (
	// Mantle Sepolia Testnet
	MantleSepoliaRPC = "https://rpc.sepolia.mantle.xyz"
	MantleChainID    = 5003

	// Gas and retry settings
	AttestorGasLimit   = 150000
	TransactionTimeout = 30 * time.Second
	MaxRetries         = 3
	RetryDelay         = 2 * time.Second

	// Signer account funding
	AttestorMinBalance   = 50000000000000000 // 0.05 MNT minimum balance
	BalanceCheckInterval = 10 * time.Minute
)

/* =========================
   API CONFIGURATION
========================= */

const (
	// Server settings
	ServerHost = "0.0.0.0"

	// CORS settings
	AllowOrigin = "*"
)

/* =========================
   WEBSOCKET CONFIGURATION
========================= */

const (
	// WebSocket settings
	WSReadDeadline  = 60 * time.Second
	WSWriteDeadline = 10 * time.Second
	WSPingInterval  = 30 * time.Second

	// Buffer sizes
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024

	// Message size limits
	MaxMessageSize = 512 * 1024 // 512KB
)

/* =========================
   HELPER FUNCTIONS
========================= */

// SuperpositionSize returns 2^bits, the number of classical states the
// measured register represents simultaneously.
func SuperpositionSize(bits int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(bits))
}

// FormatApproxStates renders a superposition size for display, keeping
// small values exact and collapsing large ones to the 2^n form.
func FormatApproxStates(bits int) string {
	if bits <= 20 {
		return SuperpositionSize(bits).String()
	}
	return "2^" + big.NewInt(int64(bits)).String()
}
