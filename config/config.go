package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env is the process configuration read from environment variables
// (after godotenv has loaded any .env file).
type Env struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	QuantumToken    string `env:"IBM_QUANTUM_TOKEN"`
	QuantumInstance string `env:"IBM_QUANTUM_INSTANCE"`
	QuantumURL      string `env:"IBM_QUANTUM_URL" envDefault:"https://api.quantum-computing.ibm.com/runtime"`
	QuantumBackend  string `env:"LOTTERY_BACKEND"` // pin a device instead of picking the least busy

	RPCURL           string `env:"RPC_URL" envDefault:"https://rpc.sepolia.mantle.xyz"`
	AttestorKey      string `env:"ATTESTOR_PRIVATE_KEY"`
	AttestorContract string `env:"ATTESTOR_CONTRACT"`
}

// ParseEnv loads the typed configuration from the environment.
func ParseEnv() (Env, error) {
	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
