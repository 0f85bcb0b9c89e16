package quantum

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"

	"quantumLottoServer/lottery"
)

const (
	SourceQuantum = "quantum"
	SourceCrypto  = "crypto"
	SourceSeeded  = "seeded"
)

// SampleSource supplies uniform random samples of a requested bit
// width. Implementations range from real quantum hardware to local
// substitutes, so the decoder and everything above it can run and be
// tested without contacting any external service.
type SampleSource interface {
	Name() string
	UniformSample(ctx context.Context, bits int) (lottery.RawSample, error)
}

// CryptoSource draws from the operating system entropy pool. It is the
// fallback source when no quantum credentials are configured.
type CryptoSource struct{}

func (CryptoSource) Name() string { return SourceCrypto }

func (CryptoSource) UniformSample(_ context.Context, bits int) (lottery.RawSample, error) {
	if bits <= 0 {
		return lottery.RawSample{}, fmt.Errorf("%w: sample width must be positive", lottery.ErrInvalidParameters)
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	value, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return lottery.RawSample{}, fmt.Errorf("read entropy: %w", err)
	}
	return lottery.RawSample{Value: value, Bits: bits}, nil
}

// SeededSource expands a server seed into the requested number of bits
// with counter-mode sha256. A revealed seed lets anyone replay the
// exact draw, which is what the provably-fair mode publishes.
type SeededSource struct {
	Seed string
}

func NewSeededSource(seed string) SeededSource {
	return SeededSource{Seed: seed}
}

func (s SeededSource) Name() string { return SourceSeeded }

func (s SeededSource) UniformSample(_ context.Context, bits int) (lottery.RawSample, error) {
	if bits <= 0 {
		return lottery.RawSample{}, fmt.Errorf("%w: sample width must be positive", lottery.ErrInvalidParameters)
	}
	blocks := (bits + 255) / 256
	stream := make([]byte, 0, blocks*sha256.Size)
	for counter := 0; counter < blocks; counter++ {
		block := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", s.Seed, counter)))
		stream = append(stream, block[:]...)
	}
	value := new(big.Int).SetBytes(stream)
	value.Rsh(value, uint(len(stream)*8-bits))
	return lottery.RawSample{Value: value, Bits: bits}, nil
}
