package quantum

import (
	"context"
	"errors"
	"testing"

	"quantumLottoServer/lottery"
)

func TestSeededSource(t *testing.T) {
	ctx := context.Background()

	// Test 1: same seed always expands to the same sample
	t.Run("Deterministic", func(t *testing.T) {
		src := NewSeededSource("13a9f2b8c4d5e6f7a8b9c0d1e2f3a4b5")
		first, err := src.UniformSample(ctx, 92)
		if err != nil {
			t.Fatalf("UniformSample failed: %v", err)
		}
		second, err := src.UniformSample(ctx, 92)
		if err != nil {
			t.Fatalf("UniformSample failed on repeat: %v", err)
		}
		if first.Value.Cmp(second.Value) != 0 || first.Bits != second.Bits {
			t.Errorf("same seed diverged: %s vs %s", first.BitString(), second.BitString())
		}
		t.Logf("Seeded sample: %s", first.BitString())
	})

	// Test 2: different seeds diverge
	t.Run("SeedsDiverge", func(t *testing.T) {
		a, _ := NewSeededSource("seed-a").UniformSample(ctx, 92)
		b, _ := NewSeededSource("seed-b").UniformSample(ctx, 92)
		if a.Value.Cmp(b.Value) == 0 {
			t.Error("distinct seeds produced identical samples")
		}
	})

	// Test 3: widths beyond one sha256 block still fit their declaration
	t.Run("WidthRespectsRequest", func(t *testing.T) {
		for _, bits := range []int{1, 8, 92, 256, 300} {
			sample, err := NewSeededSource("width-check").UniformSample(ctx, bits)
			if err != nil {
				t.Fatalf("UniformSample(%d) failed: %v", bits, err)
			}
			if sample.Bits != bits {
				t.Errorf("declared width %d, want %d", sample.Bits, bits)
			}
			if sample.Value.BitLen() > bits {
				t.Errorf("value needs %d bits, exceeds requested %d", sample.Value.BitLen(), bits)
			}
		}
	})

	// Test 4: a seeded sample decodes to a stable ticket
	t.Run("StableTicket", func(t *testing.T) {
		params := lottery.DrawParameters{NumbersPerGame: 6, NumberRange: 45, NumGames: 4}
		width, _ := lottery.SampleWidth(params)
		sample, _ := NewSeededSource("replay-me").UniformSample(ctx, width)

		ticket, err := lottery.DecodeTicket(sample, params)
		if err != nil {
			t.Fatalf("DecodeTicket failed: %v", err)
		}
		replay, _ := NewSeededSource("replay-me").UniformSample(ctx, width)
		again, err := lottery.DecodeTicket(replay, params)
		if err != nil {
			t.Fatalf("DecodeTicket replay failed: %v", err)
		}
		for i := range ticket {
			for j := range ticket[i] {
				if ticket[i][j] != again[i][j] {
					t.Fatalf("replayed ticket differs at game %d: %v vs %v", i, ticket[i], again[i])
				}
			}
		}
		t.Logf("Replayable ticket: %v", ticket)
	})

	// Test 5: zero-width requests are rejected
	t.Run("RejectsZeroWidth", func(t *testing.T) {
		if _, err := NewSeededSource("x").UniformSample(ctx, 0); !errors.Is(err, lottery.ErrInvalidParameters) {
			t.Errorf("err = %v, want ErrInvalidParameters", err)
		}
	})
}

func TestCryptoSource(t *testing.T) {
	ctx := context.Background()
	src := CryptoSource{}

	// Test 1: samples stay inside [0, 2^bits)
	t.Run("WithinRange", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			sample, err := src.UniformSample(ctx, 16)
			if err != nil {
				t.Fatalf("UniformSample failed: %v", err)
			}
			if sample.Bits != 16 {
				t.Fatalf("declared width %d, want 16", sample.Bits)
			}
			if sample.Value.Sign() < 0 || sample.Value.BitLen() > 16 {
				t.Fatalf("sample %s outside [0, 2^16)", sample.Value)
			}
		}
	})

	// Test 2: wide request for a full ticket
	t.Run("FullTicketWidth", func(t *testing.T) {
		sample, err := src.UniformSample(ctx, 92)
		if err != nil {
			t.Fatalf("UniformSample failed: %v", err)
		}
		params := lottery.DrawParameters{NumbersPerGame: 6, NumberRange: 45, NumGames: 4}
		if _, err := lottery.DecodeTicket(sample, params); err != nil {
			t.Errorf("crypto sample did not decode: %v", err)
		}
	})

	// Test 3: degenerate widths rejected
	t.Run("RejectsNonPositive", func(t *testing.T) {
		for _, bits := range []int{0, -5} {
			if _, err := src.UniformSample(ctx, bits); !errors.Is(err, lottery.ErrInvalidParameters) {
				t.Errorf("UniformSample(%d) err = %v, want ErrInvalidParameters", bits, err)
			}
		}
	})
}
