package state

import (
	"sync"
	"time"

	"quantumLottoServer/lottery"
)

// ==============================================================================
// GLOBAL DRAW STATE (Single Source of Truth)
// ==============================================================================
//
// NOTE:
// The draw state is a pure state object (NO websocket connections inside).
// Broadcasting is handled at a higher layer by snapshotting the state and
// sending it to all subscribers.
//
// ==============================================================================

type GlobalState struct {
	mu sync.RWMutex

	// Subsystems
	Draw *DrawState

	// Server metadata
	ServerStartTime  time.Time
	TotalConnections int64
}

func NewGlobalState() *GlobalState {
	return &GlobalState{
		Draw:             NewDrawState(),
		ServerStartTime:  time.Now(),
		TotalConnections: 0,
	}
}

// ==============================================================================
// DRAW LIFECYCLE STATE
// ==============================================================================

type DrawPhase string

const (
	PhaseIdle     DrawPhase = "idle"
	PhaseSampling DrawPhase = "sampling"
	PhaseDecoding DrawPhase = "decoding"
	PhaseComplete DrawPhase = "complete"
	PhaseFailed   DrawPhase = "failed"
)

type DrawState struct {
	mu sync.RWMutex

	Phase DrawPhase

	DrawID      string
	Params      lottery.DrawParameters
	Source      string
	Backend     string
	JobID       string
	SeedHash    string
	BitsPerGame int
	SampleWidth int

	StartTime time.Time
	LastError string

	History []DrawSummary
}

// DrawSnapshot is a copy of the live draw state safe to hand to broadcasters
type DrawSnapshot struct {
	Phase       DrawPhase                `json:"phase"`
	DrawID      string                   `json:"drawId,omitempty"`
	Params      *lottery.DrawParameters  `json:"params,omitempty"`
	Source      string                   `json:"source,omitempty"`
	Backend     string                   `json:"backend,omitempty"`
	JobID       string                   `json:"jobId,omitempty"`
	SeedHash    string                   `json:"seedHash,omitempty"`
	BitsPerGame int                      `json:"bitsPerGame,omitempty"`
	SampleWidth int                      `json:"sampleWidth,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

type DrawSummary struct {
	DrawID    string         `json:"drawId"`
	Source    string         `json:"source"`
	Backend   string         `json:"backend,omitempty"`
	Games     []lottery.Game `json:"games"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewDrawState() *DrawState {
	return &DrawState{
		Phase:   PhaseIdle,
		History: make([]DrawSummary, 0, 15),
	}
}

// BeginDraw claims the draw slot for a new draw.
// Returns false if another draw is already in flight.
func (d *DrawState) BeginDraw(drawID string, params lottery.DrawParameters, source string, bitsPerGame, sampleWidth int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Phase == PhaseSampling || d.Phase == PhaseDecoding {
		return false
	}

	d.Phase = PhaseSampling
	d.DrawID = drawID
	d.Params = params
	d.Source = source
	d.Backend = ""
	d.JobID = ""
	d.SeedHash = ""
	d.BitsPerGame = bitsPerGame
	d.SampleWidth = sampleWidth
	d.StartTime = time.Now()
	d.LastError = ""
	return true
}

// SetJob records runtime job provenance once the sampler has a backend
func (d *DrawState) SetJob(backend, jobID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Backend = backend
	d.JobID = jobID
}

// SetSeedHash publishes the seed commitment before a seeded draw runs
func (d *DrawState) SetSeedHash(hash string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.SeedHash = hash
}

// SetPhase moves the draw into a new lifecycle phase
func (d *DrawState) SetPhase(phase DrawPhase) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Phase = phase
}

// CompleteDraw finishes the draw and appends it to the rolling history
func (d *DrawState) CompleteDraw(games []lottery.Game) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Phase = PhaseComplete

	d.History = append(d.History, DrawSummary{
		DrawID:    d.DrawID,
		Source:    d.Source,
		Backend:   d.Backend,
		Games:     copyGames(games),
		Timestamp: time.Now(),
	})
	if len(d.History) > 15 {
		d.History = d.History[len(d.History)-15:]
	}
}

// FailDraw marks the draw failed and records the error for the feed
func (d *DrawState) FailDraw(errMsg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Phase = PhaseFailed
	d.LastError = errMsg
}

// Snapshot returns a consistent copy of the current draw state
func (d *DrawState) Snapshot() DrawSnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := DrawSnapshot{
		Phase:       d.Phase,
		DrawID:      d.DrawID,
		Source:      d.Source,
		Backend:     d.Backend,
		JobID:       d.JobID,
		SeedHash:    d.SeedHash,
		BitsPerGame: d.BitsPerGame,
		SampleWidth: d.SampleWidth,
		Error:       d.LastError,
	}
	if d.DrawID != "" {
		params := d.Params
		snap.Params = &params
	}
	return snap
}

// GetHistory returns a copy of the rolling draw history
func (d *DrawState) GetHistory() []DrawSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()

	history := make([]DrawSummary, len(d.History))
	copy(history, d.History)
	return history
}

func copyGames(games []lottery.Game) []lottery.Game {
	out := make([]lottery.Game, len(games))
	for i, g := range games {
		cp := make(lottery.Game, len(g))
		copy(cp, g)
		out[i] = cp
	}
	return out
}
