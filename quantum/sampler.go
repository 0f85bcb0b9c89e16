package quantum

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"quantumLottoServer/config"
	"quantumLottoServer/lottery"
)

var ErrInconsistentBits = errors.New("measured bit string does not match requested width")

// Provenance records where a hardware sample came from, for display
// and for the draw history.
type Provenance struct {
	Backend string `json:"backend"`
	JobID   string `json:"jobId"`
}

// QuantumSource samples by running the superposition circuit on IBM
// Quantum hardware through an explicit runtime client.
type QuantumSource struct {
	client  *Client
	backend string // pinned device name; empty means least busy per request
	shots   int
}

func NewQuantumSource(client *Client, backend string, shots int) *QuantumSource {
	if shots <= 0 {
		shots = config.DefaultShots
	}
	return &QuantumSource{client: client, backend: backend, shots: shots}
}

func (s *QuantumSource) Name() string { return SourceQuantum }

func (s *QuantumSource) UniformSample(ctx context.Context, bits int) (lottery.RawSample, error) {
	sample, _, err := s.SampleWithProvenance(ctx, bits)
	return sample, err
}

// SampleWithProvenance runs one sampler job and returns the measured
// sample along with the backend and job that produced it.
func (s *QuantumSource) SampleWithProvenance(ctx context.Context, bits int) (lottery.RawSample, Provenance, error) {
	if bits <= 0 {
		return lottery.RawSample{}, Provenance{}, fmt.Errorf("%w: sample width must be positive", lottery.ErrInvalidParameters)
	}
	if bits > config.MaxSampleQubits {
		return lottery.RawSample{}, Provenance{}, fmt.Errorf("%w: request needs %d qubits", ErrNoBackend, bits)
	}

	backend := s.backend
	if backend == "" {
		device, err := s.client.LeastBusy(ctx, bits)
		if err != nil {
			return lottery.RawSample{}, Provenance{}, err
		}
		backend = device.Name
	}

	qasm, err := SuperpositionCircuit(bits)
	if err != nil {
		return lottery.RawSample{}, Provenance{}, err
	}

	outcome, err := s.client.RunSampler(ctx, backend, qasm, s.shots)
	prov := Provenance{Backend: backend, JobID: outcome.JobID}
	if err != nil {
		return lottery.RawSample{}, prov, err
	}

	reading, err := firstReading(outcome.Counts)
	if err != nil {
		return lottery.RawSample{}, prov, err
	}
	sample, err := ParseBitString(reading, bits)
	if err != nil {
		return lottery.RawSample{}, prov, err
	}
	return sample, prov, nil
}

// firstReading picks the measurement to use from a counts map. With
// shots=1 there is exactly one key; with more shots the most frequent
// reading wins, ties broken lexicographically so the choice is stable.
func firstReading(counts map[string]int) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("%w: empty counts", ErrJobFailed)
	}
	best := ""
	bestCount := -1
	for reading, n := range counts {
		if n > bestCount || (n == bestCount && reading < best) {
			best = reading
			bestCount = n
		}
	}
	return best, nil
}

// ParseBitString converts a measured bit string (MSB leftmost, the
// runtime's counts-key convention) into a RawSample of the given width.
func ParseBitString(reading string, bits int) (lottery.RawSample, error) {
	if len(reading) != bits {
		return lottery.RawSample{}, fmt.Errorf("%w: got %d bits, want %d", ErrInconsistentBits, len(reading), bits)
	}
	value, ok := new(big.Int).SetString(reading, 2)
	if !ok {
		return lottery.RawSample{}, fmt.Errorf("%w: %q is not a binary string", ErrInconsistentBits, reading)
	}
	return lottery.RawSample{Value: value, Bits: bits}, nil
}
