package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// GenerateServerSeed creates a fresh 32-byte server seed and the sha256
// hash that is published before the draw runs.
func GenerateServerSeed() (seed string, hash string) {
	bytes := make([]byte, 32)
	rand.Read(bytes)

	seed = hex.EncodeToString(bytes)
	hash = HashSeed(seed)

	return
}

func HashSeed(seed string) string {
	h := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(h[:])
}

func VerifySeed(seed, hash string) bool {
	return HashSeed(seed) == hash
}

// CommitmentHash binds a published seed hash to the draw parameters it
// was issued for. The keccak256 digest is what gets attested on-chain,
// so a revealed seed cannot be re-bound to different parameters later.
func CommitmentHash(seedHash string, numbersPerGame, numberRange, numGames int) string {
	payload := fmt.Sprintf("%s:%d:%d:%d", seedHash, numbersPerGame, numberRange, numGames)
	return ethcrypto.Keccak256Hash([]byte(payload)).Hex()
}
