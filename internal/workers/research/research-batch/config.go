// internal/workers/research/research-batch/config.go
package researchbatch

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 600 * time.Second,
	}
}
