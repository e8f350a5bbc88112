package api

import (
	"time"

	"github.com/FocuswithJustin/Rhymer/core/rhyme"
)

// Config holds server configuration.
type Config struct {
	Port              int
	DefaultMode       rhyme.Mode    // mode used when a request names none
	MaxLines          int           // longest poem accepted (0 = unlimited)
	RequestTimeout    time.Duration // per-request labeling deadline (0 = none)
	RateLimitRequests int           // requests per minute per client (0 = disabled)
	RateLimitBurst    int           // burst size
	Auth              AuthConfig
	AllowedOrigins    []string // CORS and websocket origins (empty = allow all)
	WebSocket         WebSocketConfig
	BatchWorkers      int           // workers per batch job (<= 0 uses GOMAXPROCS)
	JobRetention      time.Duration // how long finished jobs stay queryable (0 = until evicted by count)
	MaxFinishedJobs   int           // finished jobs kept (0 = unlimited)
}

// DefaultConfig returns the configuration used by "rhymer serve".
func DefaultConfig() Config {
	return Config{
		Port:            8080,
		DefaultMode:     rhyme.Hybrid,
		MaxLines:        1000,
		RequestTimeout:  30 * time.Second,
		RateLimitBurst:  10,
		WebSocket:       DefaultWebSocketConfig(),
		JobRetention:    time.Hour,
		MaxFinishedJobs: 1000,
	}
}
