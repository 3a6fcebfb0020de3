package engine

import (
	"math/rand/v2"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mattsolo1/grove-gallery/pkg/logging"
)

const (
	DefaultCooldown  = 10 * time.Second
	DefaultJitterMin = 1 * time.Second
	DefaultJitterMax = 3 * time.Second

	// MaxContextMessages and MaxMessageChars bound the size of every prompt.
	MaxContextMessages = 8
	MaxMessageChars    = 500
)

// Config tunes an Engine. Start from DefaultConfig; zero jitter disables
// pacing between cast entries and a zero cooldown disables throttling.
type Config struct {
	Cooldown  time.Duration
	JitterMin time.Duration
	JitterMax time.Duration

	// DirectorTemperature and DirectorMaxTokens configure the planning call.
	DirectorTemperature float64
	DirectorMaxTokens   int

	Clock  clock.Clock
	Logger logging.Logger
	// Rand drives the intro pick and jitter. Nil uses the global source.
	Rand *rand.Rand
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		Cooldown:            DefaultCooldown,
		JitterMin:           DefaultJitterMin,
		JitterMax:           DefaultJitterMax,
		DirectorTemperature: 0.7,
		DirectorMaxTokens:   300,
	}
}
