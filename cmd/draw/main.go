package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"

	"quantumLottoServer/config"
	"quantumLottoServer/lottery"
	"quantumLottoServer/quantum"

	"github.com/joho/godotenv"
)

func main() {
	numbers := flag.Int("numbers", config.DefaultNumbersPerGame, "numbers drawn per game")
	numberRange := flag.Int("range", config.DefaultNumberRange, "numbers run from 1 to this value")
	games := flag.Int("games", config.DefaultNumGames, "games on the ticket")
	backend := flag.String("backend", "", "pin a backend instead of picking the least busy")
	shots := flag.Int("shots", config.DefaultShots, "measurement shots")
	simulate := flag.Bool("simulate", false, "sample from crypto/rand instead of quantum hardware")
	token := flag.String("token", "", "IBM Quantum API token (default: IBM_QUANTUM_TOKEN)")
	instance := flag.String("instance", "", "IBM Cloud instance CRN (default: IBM_QUANTUM_INSTANCE)")
	saveToken := flag.Bool("save-token", false, "append the token and instance to .env for future runs")
	flag.Parse()

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found")
	}

	params := lottery.DrawParameters{
		NumbersPerGame: *numbers,
		NumberRange:    *numberRange,
		NumGames:       *games,
	}
	if err := params.Validate(); err != nil {
		log.Fatalf("Invalid draw parameters: %v", err)
	}

	perGame, err := lottery.BitWidth(params.NumberRange, params.NumbersPerGame)
	if err != nil {
		log.Fatalf("Failed to size the draw: %v", err)
	}
	width := params.NumGames * perGame

	fmt.Println("🎰 Quantum Lottery Draw")
	fmt.Printf("   Picking %d of 1..%d, %d game(s)\n", params.NumbersPerGame, params.NumberRange, params.NumGames)
	fmt.Printf("   %d bits per game, %d qubits total (~%s superposition states)\n",
		perGame, width, config.FormatApproxStates(width))
	fmt.Println()

	apiToken := *token
	if apiToken == "" {
		apiToken = os.Getenv("IBM_QUANTUM_TOKEN")
	}
	crn := *instance
	if crn == "" {
		crn = os.Getenv("IBM_QUANTUM_INSTANCE")
	}

	if *saveToken {
		if apiToken == "" {
			log.Fatal("Nothing to save: provide -token")
		}
		if err := appendCredentials(apiToken, crn); err != nil {
			log.Fatalf("Failed to save credentials: %v", err)
		}
		fmt.Println("💾 Credentials saved to .env")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.JobTimeout)
	defer cancel()

	sample, source := drawSample(ctx, apiToken, crn, *backend, *shots, *simulate, width)

	ticket, err := lottery.DecodeTicket(sample, params)
	if err != nil {
		log.Fatalf("Failed to decode ticket: %v", err)
	}

	fmt.Println()
	fmt.Printf("🎟  Ticket (source: %s):\n", source)
	for i, game := range ticket {
		fmt.Printf("   Game %d: %v\n", i+1, game)
	}
}

// drawSample measures one raw sample of the requested width, falling
// back to crypto/rand when hardware is unavailable or fails
func drawSample(ctx context.Context, token, instance, backend string, shots int, simulate bool, width int) (lottery.RawSample, string) {
	if width == 0 {
		// One-combination games are fully forced, nothing to measure
		return lottery.RawSample{Value: big.NewInt(0), Bits: 0}, "forced"
	}

	if !simulate {
		if token == "" {
			log.Println("⚠️  No IBM Quantum token provided (-token or IBM_QUANTUM_TOKEN)")
			log.Println("   Falling back to crypto/rand")
		} else {
			client, err := quantum.NewClient(quantum.Config{
				Token:    token,
				Instance: instance,
				BaseURL:  os.Getenv("IBM_QUANTUM_URL"),
			})
			if err != nil {
				log.Printf("⚠️  Quantum client unavailable: %v", err)
				log.Println("   Falling back to crypto/rand")
			} else {
				source := quantum.NewQuantumSource(client, backend, shots)
				fmt.Printf("⚛️  Submitting %d-qubit sampler job...\n", width)

				sample, prov, err := source.SampleWithProvenance(ctx, width)
				if err == nil {
					fmt.Printf("   Backend: %s\n", prov.Backend)
					fmt.Printf("   Job ID: %s\n", prov.JobID)
					fmt.Printf("   Measured bits: %s\n", sample.BitString())
					return sample, quantum.SourceQuantum
				}

				log.Printf("⚠️  Quantum sampling failed: %v", err)
				log.Println("   Falling back to crypto/rand")
			}
		}
	}

	sample, err := quantum.CryptoSource{}.UniformSample(ctx, width)
	if err != nil {
		log.Fatalf("Failed to sample: %v", err)
	}
	fmt.Printf("   Measured bits: %s\n", sample.BitString())
	return sample, quantum.SourceCrypto
}

// appendCredentials persists the runtime credentials to .env
func appendCredentials(token, instance string) error {
	f, err := os.OpenFile(".env", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\nIBM_QUANTUM_TOKEN=%s\n", token); err != nil {
		return err
	}
	if instance != "" {
		if _, err := fmt.Fprintf(f, "IBM_QUANTUM_INSTANCE=%s\n", instance); err != nil {
			return err
		}
	}
	return nil
}
