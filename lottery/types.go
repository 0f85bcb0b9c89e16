package lottery

import "time"

type DrawParameters struct {
	NumbersPerGame int `json:"numbersPerGame"`
	NumberRange    int `json:"numberRange"`
	NumGames       int `json:"numGames"`
}

// Game is one set of drawn numbers, sorted ascending, 1-based.
type Game []int

// Ticket is the ordered list of games decoded from a single sample.
type Ticket []Game

type DrawRecord struct {
	ID           string         `json:"id"`
	Params       DrawParameters `json:"params"`
	Games        Ticket         `json:"games"`
	Source       string         `json:"source"`
	Backend      string         `json:"backend,omitempty"`
	JobID        string         `json:"jobId,omitempty"`
	SeedHash     string         `json:"seedHash,omitempty"`
	MeasuredBits string         `json:"measuredBits,omitempty"`
	BitsPerGame  int            `json:"bitsPerGame"`
	CreatedAt    time.Time      `json:"createdAt"`
}
