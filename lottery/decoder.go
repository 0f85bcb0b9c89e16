package lottery

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInvalidParameters       = errors.New("invalid draw parameters")
	ErrInsufficientSampleWidth = errors.New("insufficient sample width")
)

// RawSample is a measured random value together with its declared bit
// width. The width travels with the value because leading zeros are
// real measurement outcomes: an all-zeros reading is a legitimate
// W-bit sample of value 0.
type RawSample struct {
	Value *big.Int
	Bits  int
}

// BitString renders the sample MSB-first, zero-padded to its width.
func (s RawSample) BitString() string {
	return fmt.Sprintf("%0*b", s.Bits, s.Value)
}

func (p DrawParameters) Validate() error {
	if p.NumGames <= 0 {
		return fmt.Errorf("%w: numGames must be positive, got %d", ErrInvalidParameters, p.NumGames)
	}
	return validateGameParams(p.NumberRange, p.NumbersPerGame)
}

func validateGameParams(numberRange, numbersPerGame int) error {
	if numberRange <= 0 || numbersPerGame <= 0 {
		return fmt.Errorf("%w: range %d, pick %d (both must be positive)", ErrInvalidParameters, numberRange, numbersPerGame)
	}
	if numbersPerGame > numberRange {
		return fmt.Errorf("%w: cannot pick %d distinct numbers from 1..%d", ErrInvalidParameters, numbersPerGame, numberRange)
	}
	return nil
}

// Combinations returns C(numberRange, numbersPerGame), the size of the
// combination space one game is drawn from.
func Combinations(numberRange, numbersPerGame int) (*big.Int, error) {
	if err := validateGameParams(numberRange, numbersPerGame); err != nil {
		return nil, err
	}
	return binomial(numberRange, numbersPerGame), nil
}

func binomial(n, k int) *big.Int {
	return new(big.Int).Binomial(int64(n), int64(k))
}

// BitWidth returns the smallest b such that 2^b >= C(numberRange, numbersPerGame),
// i.e. how many uniform random bits one game consumes.
func BitWidth(numberRange, numbersPerGame int) (int, error) {
	total, err := Combinations(numberRange, numbersPerGame)
	if err != nil {
		return 0, err
	}
	return new(big.Int).Sub(total, big.NewInt(1)).BitLen(), nil
}

// SampleWidth returns the total sample width W = numGames * BitWidth.
func SampleWidth(p DrawParameters) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	perGame, err := BitWidth(p.NumberRange, p.NumbersPerGame)
	if err != nil {
		return 0, err
	}
	return p.NumGames * perGame, nil
}

// DecodeGame maps sliceValue to one game of numbersPerGame distinct
// numbers in [1, numberRange]. The value is reduced modulo
// C(numberRange, numbersPerGame) and unranked through the combinatorial
// number system, so indexes 0..C-1 enumerate every combination exactly
// once in lexicographic order.
func DecodeGame(sliceValue *big.Int, numberRange, numbersPerGame int) (Game, error) {
	if err := validateGameParams(numberRange, numbersPerGame); err != nil {
		return nil, err
	}
	if sliceValue == nil || sliceValue.Sign() < 0 {
		return nil, fmt.Errorf("%w: slice value must be non-negative", ErrInvalidParameters)
	}
	index := new(big.Int).Mod(sliceValue, binomial(numberRange, numbersPerGame))
	return unrank(index, numberRange, numbersPerGame), nil
}

// unrank converts a lexicographic combination index into the k-subset
// it names, 1-based. At every position it walks candidate values
// upward, skipping C(remaining, still-needed-1) ranks per candidate.
func unrank(index *big.Int, n, k int) Game {
	numbers := make(Game, 0, k)
	idx := new(big.Int).Set(index)
	next := 0
	for pos := 0; pos < k; pos++ {
		for v := next; ; v++ {
			withV := binomial(n-1-v, k-1-pos)
			if idx.Cmp(withV) < 0 {
				numbers = append(numbers, v+1)
				next = v + 1
				break
			}
			idx.Sub(idx, withV)
		}
	}
	return numbers
}

// DecodeTicket splits the sample's low-order W bits into numGames
// contiguous fields, most-significant field first (game 0 sits in the
// highest-order bits, matching left-to-right reading of the measured
// bit string), and decodes each field into a game. Either every game
// decodes or an error is returned before any partial result.
func DecodeTicket(sample RawSample, params DrawParameters) (Ticket, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	perGame, err := BitWidth(params.NumberRange, params.NumbersPerGame)
	if err != nil {
		return nil, err
	}
	width := params.NumGames * perGame

	if sample.Value == nil || sample.Value.Sign() < 0 {
		return nil, fmt.Errorf("%w: sample value must be non-negative", ErrInvalidParameters)
	}
	if sample.Bits < width {
		return nil, fmt.Errorf("%w: sample is %d bits, ticket needs %d", ErrInsufficientSampleWidth, sample.Bits, width)
	}
	if sample.Value.BitLen() > sample.Bits {
		return nil, fmt.Errorf("%w: value needs %d bits but sample declares %d", ErrInsufficientSampleWidth, sample.Value.BitLen(), sample.Bits)
	}

	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(perGame)), big.NewInt(1))
	games := make(Ticket, 0, params.NumGames)
	for i := 0; i < params.NumGames; i++ {
		shift := uint((params.NumGames - 1 - i) * perGame)
		field := new(big.Int).Rsh(sample.Value, shift)
		field.And(field, mask)
		game, err := DecodeGame(field, params.NumberRange, params.NumbersPerGame)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, nil
}
