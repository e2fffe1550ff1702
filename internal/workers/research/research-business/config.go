// internal/workers/research/research-business/config.go
package researchbusiness

import "time"

type Config struct {
	Timeout time.Duration
	// IncludeContent controls whether the cleaned page text is written to the
	// process variables. It can be large.
	IncludeContent bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        180 * time.Second,
		IncludeContent: true,
	}
}
