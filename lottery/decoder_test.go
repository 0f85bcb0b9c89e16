package lottery

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"testing"
)

func assembleSample(fields []int64, bitsPerGame int) RawSample {
	value := new(big.Int)
	for _, f := range fields {
		value.Lsh(value, uint(bitsPerGame))
		value.Or(value, big.NewInt(f))
	}
	return RawSample{Value: value, Bits: len(fields) * bitsPerGame}
}

func TestBitWidth(t *testing.T) {
	// Test 1: known widths
	t.Run("KnownWidths", func(t *testing.T) {
		cases := []struct {
			n, k, want int
		}{
			{45, 6, 23}, // C(45,6) = 8,145,060 <= 2^23
			{49, 6, 24}, // C(49,6) = 13,983,816 <= 2^24
			{6, 3, 5},   // C(6,3) = 20 <= 2^5
			{4, 1, 2},   // C(4,1) = 4, exact power of two
			{2, 1, 1},
			{5, 5, 0}, // single combination needs no bits
		}
		for _, c := range cases {
			got, err := BitWidth(c.n, c.k)
			if err != nil {
				t.Fatalf("BitWidth(%d,%d) failed: %v", c.n, c.k, err)
			}
			if got != c.want {
				t.Errorf("BitWidth(%d,%d) = %d, want %d", c.n, c.k, got, c.want)
			}
		}
	})

	// Test 2: minimality over a parameter sweep
	t.Run("Minimality", func(t *testing.T) {
		one := big.NewInt(1)
		for n := 1; n <= 12; n++ {
			for k := 1; k <= n; k++ {
				b, err := BitWidth(n, k)
				if err != nil {
					t.Fatalf("BitWidth(%d,%d) failed: %v", n, k, err)
				}
				total := new(big.Int).Binomial(int64(n), int64(k))
				capacity := new(big.Int).Lsh(one, uint(b))
				if capacity.Cmp(total) < 0 {
					t.Errorf("BitWidth(%d,%d) = %d: 2^%d < C = %s", n, k, b, b, total)
				}
				if b > 0 {
					half := new(big.Int).Lsh(one, uint(b-1))
					if half.Cmp(total) >= 0 {
						t.Errorf("BitWidth(%d,%d) = %d not minimal: 2^%d already covers C = %s", n, k, b, b-1, total)
					}
				}
			}
		}
	})

	// Test 3: invalid parameters
	t.Run("InvalidParameters", func(t *testing.T) {
		cases := []struct {
			name string
			n, k int
		}{
			{"PickExceedsRange", 5, 6},
			{"ZeroRange", 0, 1},
			{"ZeroPick", 10, 0},
			{"NegativeRange", -3, 2},
			{"NegativePick", 10, -1},
		}
		for _, c := range cases {
			if _, err := BitWidth(c.n, c.k); !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("%s: BitWidth(%d,%d) err = %v, want ErrInvalidParameters", c.name, c.n, c.k, err)
			}
		}
	})
}

func TestDecodeGame(t *testing.T) {
	// Test 1: total over the full slice range, always k distinct sorted numbers
	t.Run("TotalOverSliceRange", func(t *testing.T) {
		n, k := 7, 3
		b, _ := BitWidth(n, k) // C(7,3) = 35, b = 6
		limit := int64(1) << uint(b)
		for v := int64(0); v < limit; v++ {
			game, err := DecodeGame(big.NewInt(v), n, k)
			if err != nil {
				t.Fatalf("DecodeGame(%d) failed: %v", v, err)
			}
			if len(game) != k {
				t.Fatalf("DecodeGame(%d) returned %d numbers, want %d", v, len(game), k)
			}
			for i, num := range game {
				if num < 1 || num > n {
					t.Fatalf("DecodeGame(%d) number %d out of [1,%d]", v, num, n)
				}
				if i > 0 && game[i-1] >= num {
					t.Fatalf("DecodeGame(%d) not strictly ascending: %v", v, game)
				}
			}
		}
	})

	// Test 2: bijection over [0, C(6,3)) hits all 20 combinations exactly once
	t.Run("Bijection_6c3", func(t *testing.T) {
		seen := make(map[string]int64)
		for v := int64(0); v < 20; v++ {
			game, err := DecodeGame(big.NewInt(v), 6, 3)
			if err != nil {
				t.Fatalf("DecodeGame(%d) failed: %v", v, err)
			}
			key := fmt.Sprint(game)
			if prev, dup := seen[key]; dup {
				t.Fatalf("indexes %d and %d both decode to %v", prev, v, game)
			}
			seen[key] = v
		}
		if len(seen) != 20 {
			t.Errorf("Expected 20 distinct combinations, got %d", len(seen))
		}
		t.Logf("All %d combinations of C(6,3) reached", len(seen))
	})

	// Test 3: lexicographic order endpoints
	t.Run("LexicographicEndpoints", func(t *testing.T) {
		first, _ := DecodeGame(big.NewInt(0), 6, 3)
		if !reflect.DeepEqual(first, Game{1, 2, 3}) {
			t.Errorf("index 0 = %v, want [1 2 3]", first)
		}
		last, _ := DecodeGame(big.NewInt(19), 6, 3)
		if !reflect.DeepEqual(last, Game{4, 5, 6}) {
			t.Errorf("index 19 = %v, want [4 5 6]", last)
		}
	})

	// Test 4: boundary slices of the full bit range decode cleanly
	t.Run("BoundarySlices", func(t *testing.T) {
		n, k := 45, 6
		b, _ := BitWidth(n, k)
		top := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(b)), big.NewInt(1))
		for _, v := range []*big.Int{big.NewInt(0), top} {
			game, err := DecodeGame(v, n, k)
			if err != nil {
				t.Fatalf("DecodeGame(%s) failed: %v", v, err)
			}
			if len(game) != k {
				t.Errorf("DecodeGame(%s) returned %d numbers, want %d", v, len(game), k)
			}
		}
	})

	// Test 5: bad inputs
	t.Run("InvalidInputs", func(t *testing.T) {
		if _, err := DecodeGame(big.NewInt(-1), 6, 3); !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("negative slice err = %v, want ErrInvalidParameters", err)
		}
		if _, err := DecodeGame(nil, 6, 3); !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("nil slice err = %v, want ErrInvalidParameters", err)
		}
		if _, err := DecodeGame(big.NewInt(0), 3, 4); !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("pick>range err = %v, want ErrInvalidParameters", err)
		}
	})
}

func TestDecodeTicket(t *testing.T) {
	params := DrawParameters{NumbersPerGame: 6, NumberRange: 45, NumGames: 4}

	// Test 1: the reference draw — four 23-bit fields, MSB field first
	t.Run("ReferenceDraw_45c6x4", func(t *testing.T) {
		b, err := BitWidth(params.NumberRange, params.NumbersPerGame)
		if err != nil {
			t.Fatalf("BitWidth failed: %v", err)
		}
		if b != 23 {
			t.Fatalf("bits per game = %d, want 23", b)
		}
		w, err := SampleWidth(params)
		if err != nil {
			t.Fatalf("SampleWidth failed: %v", err)
		}
		if w != 92 {
			t.Fatalf("sample width = %d, want 92", w)
		}

		fields := []int64{0, 1, 8145059, 4000000} // 8145059 = C(45,6)-1
		sample := assembleSample(fields, b)
		ticket, err := DecodeTicket(sample, params)
		if err != nil {
			t.Fatalf("DecodeTicket failed: %v", err)
		}
		if len(ticket) != 4 {
			t.Fatalf("ticket has %d games, want 4", len(ticket))
		}

		if !reflect.DeepEqual(ticket[0], Game{1, 2, 3, 4, 5, 6}) {
			t.Errorf("game 0 = %v, want [1 2 3 4 5 6]", ticket[0])
		}
		if !reflect.DeepEqual(ticket[2], Game{40, 41, 42, 43, 44, 45}) {
			t.Errorf("game 2 = %v, want [40 41 42 43 44 45]", ticket[2])
		}

		// Every field must agree with decoding that field directly
		for i, f := range fields {
			direct, _ := DecodeGame(big.NewInt(f), params.NumberRange, params.NumbersPerGame)
			if !reflect.DeepEqual(ticket[i], direct) {
				t.Errorf("game %d = %v, direct decode of field %d = %v", i, ticket[i], f, direct)
			}
		}
		t.Logf("Reference ticket: %v", ticket)
	})

	// Test 2: field order is most-significant first
	t.Run("FieldOrderMSBFirst", func(t *testing.T) {
		small := DrawParameters{NumbersPerGame: 2, NumberRange: 4, NumGames: 2}
		b, _ := BitWidth(4, 2) // C(4,2) = 6, b = 3
		sample := assembleSample([]int64{1, 2}, b)
		ticket, err := DecodeTicket(sample, small)
		if err != nil {
			t.Fatalf("DecodeTicket failed: %v", err)
		}
		want0, _ := DecodeGame(big.NewInt(1), 4, 2)
		want1, _ := DecodeGame(big.NewInt(2), 4, 2)
		if !reflect.DeepEqual(ticket[0], want0) || !reflect.DeepEqual(ticket[1], want1) {
			t.Errorf("ticket = %v, want [%v %v] (high bits decode first)", ticket, want0, want1)
		}
	})

	// Test 3: determinism
	t.Run("Determinism", func(t *testing.T) {
		sample := assembleSample([]int64{123456, 7890123, 42, 8000000}, 23)
		first, err := DecodeTicket(sample, params)
		if err != nil {
			t.Fatalf("DecodeTicket failed: %v", err)
		}
		second, err := DecodeTicket(sample, params)
		if err != nil {
			t.Fatalf("DecodeTicket failed on repeat: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("same sample decoded differently: %v vs %v", first, second)
		}
	})

	// Test 4: narrow samples are rejected before any decoding
	t.Run("InsufficientWidth", func(t *testing.T) {
		sample := RawSample{Value: big.NewInt(12345), Bits: 91}
		ticket, err := DecodeTicket(sample, params)
		if !errors.Is(err, ErrInsufficientSampleWidth) {
			t.Errorf("91-bit sample err = %v, want ErrInsufficientSampleWidth", err)
		}
		if ticket != nil {
			t.Errorf("expected nil ticket on error, got %v", ticket)
		}

		// Declared width lies about the value
		wide := RawSample{Value: new(big.Int).Lsh(big.NewInt(1), 100), Bits: 92}
		if _, err := DecodeTicket(wide, params); !errors.Is(err, ErrInsufficientSampleWidth) {
			t.Errorf("overflowing value err = %v, want ErrInsufficientSampleWidth", err)
		}
	})

	// Test 5: parameter validation happens before decoding
	t.Run("InvalidParameters", func(t *testing.T) {
		sample := assembleSample([]int64{0, 0, 0, 0}, 23)
		bad := DrawParameters{NumbersPerGame: 50, NumberRange: 45, NumGames: 4}
		if _, err := DecodeTicket(sample, bad); !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("pick>range err = %v, want ErrInvalidParameters", err)
		}
		zero := DrawParameters{NumbersPerGame: 6, NumberRange: 45, NumGames: 0}
		if _, err := DecodeTicket(sample, zero); !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("zero games err = %v, want ErrInvalidParameters", err)
		}
	})

	// Test 6: all-zero and all-one samples decode (uniform source edge readings)
	t.Run("ExtremeSamples", func(t *testing.T) {
		zeros := RawSample{Value: big.NewInt(0), Bits: 92}
		ticket, err := DecodeTicket(zeros, params)
		if err != nil {
			t.Fatalf("all-zeros sample failed: %v", err)
		}
		if !reflect.DeepEqual(ticket[0], Game{1, 2, 3, 4, 5, 6}) {
			t.Errorf("all-zeros game 0 = %v, want [1 2 3 4 5 6]", ticket[0])
		}

		ones := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 92), big.NewInt(1))
		if _, err := DecodeTicket(RawSample{Value: ones, Bits: 92}, params); err != nil {
			t.Fatalf("all-ones sample failed: %v", err)
		}
	})
}

func TestRawSampleBitString(t *testing.T) {
	s := RawSample{Value: big.NewInt(5), Bits: 8}
	if got := s.BitString(); got != "00000101" {
		t.Errorf("BitString = %q, want 00000101", got)
	}
}
