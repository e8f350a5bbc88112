package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FocuswithJustin/Rhymer/internal/api"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
	"github.com/FocuswithJustin/Rhymer/internal/store"
)

// ServeCmd starts the labeling API server.
type ServeCmd struct {
	Port           int           `help:"HTTP server port" default:"8080" env:"RHYMER_PORT"`
	DB             string        `help:"SQLite database for stored poems and job results" type:"path" env:"RHYMER_DB"`
	APIKey         string        `name:"api-key" help:"Require this key in X-API-Key" env:"RHYMER_API_KEY"`
	RateLimit      int           `name:"rate-limit" help:"Requests per minute per client (0 = unlimited)" default:"0" env:"RHYMER_RATE_LIMIT"`
	RateBurst      int           `name:"rate-burst" help:"Rate limit burst size" default:"10"`
	AllowedOrigins []string      `name:"allowed-origin" help:"Allowed CORS and websocket origins (repeatable)" env:"RHYMER_ALLOWED_ORIGINS"`
	MaxLines       int           `name:"max-lines" help:"Longest poem accepted" default:"1000"`
	RequestTimeout time.Duration `name:"request-timeout" help:"Deadline for one labeling request" default:"30s"`
	Workers        int           `help:"Labelers per batch job (0 = one per CPU)" default:"0"`
	SaveEvery      time.Duration `name:"save-every" help:"Write the rhyme cache this often while serving (0 = only at shutdown)" default:"5m"`
}

// config maps the flags onto the server configuration.
func (c *ServeCmd) config(g *Globals) (api.Config, error) {
	mode, err := g.mode()
	if err != nil {
		return api.Config{}, err
	}
	cfg := api.DefaultConfig()
	cfg.Port = c.Port
	cfg.DefaultMode = mode
	cfg.MaxLines = c.MaxLines
	cfg.RequestTimeout = c.RequestTimeout
	cfg.RateLimitRequests = c.RateLimit
	cfg.RateLimitBurst = c.RateBurst
	cfg.AllowedOrigins = c.AllowedOrigins
	cfg.BatchWorkers = c.Workers
	cfg.Auth = api.AuthConfig{Enabled: c.APIKey != "", APIKey: c.APIKey}
	return cfg, nil
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := c.config(g)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	o, err := g.openOracle(reg)
	if err != nil {
		return err
	}

	var st *store.Store
	if c.DB != "" {
		if st, err = store.Open(c.DB); err != nil {
			return err
		}
		defer st.Close()
	}

	srv, err := api.New(cfg, o, st, reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.SaveEvery > 0 && g.CacheFile != "" {
		go func() {
			ticker := time.NewTicker(c.SaveEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := g.saveOracle(o); err != nil {
						logging.Error("saving rhyme cache failed", "error", err)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	serveErr := srv.ListenAndServe(ctx)
	if err := g.saveOracle(o); err != nil {
		logging.Error("saving rhyme cache failed", "error", err)
	}
	return serveErr
}
