package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
)

// DefaultDatamuseEndpoint is the public Datamuse API.
const DefaultDatamuseEndpoint = "https://api.datamuse.com"

// maxResponseBytes bounds a single Datamuse response body.
const maxResponseBytes = 4 << 20

// DatamuseConfig configures the Datamuse source.
type DatamuseConfig struct {
	Endpoint      string        // Base URL; DefaultDatamuseEndpoint when empty
	Timeout       time.Duration // Per-attempt timeout
	Retries       int           // Extra attempts after the first on retryable failures
	Backoff       time.Duration // Delay before the first retry, doubled for each further retry
	RatePerSecond float64       // Client-side request rate (<= 0 disables limiting)
	HTTPClient    *http.Client  // Optional client; a default one is built otherwise
}

// DefaultDatamuseConfig returns the default Datamuse configuration.
func DefaultDatamuseConfig() DatamuseConfig {
	return DatamuseConfig{
		Endpoint:      DefaultDatamuseEndpoint,
		Timeout:       10 * time.Second,
		Retries:       2,
		Backoff:       250 * time.Millisecond,
		RatePerSecond: 10,
	}
}

// Datamuse fetches perfect rhymes from the Datamuse words API
// (GET /words?rel_rhy=<word>&max=<n>).
type Datamuse struct {
	cfg     DatamuseConfig
	client  *http.Client
	limiter *rate.Limiter
}

// datamuseWord is one element of a Datamuse response.
type datamuseWord struct {
	Word  string `json:"word"`
	Score int    `json:"score"`
}

// statusError is a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("datamuse returned HTTP %d", e.code)
}

// NewDatamuse creates a Datamuse source.
func NewDatamuse(cfg DatamuseConfig) *Datamuse {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultDatamuseEndpoint
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	d := &Datamuse{cfg: cfg, client: client}
	if cfg.RatePerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return d
}

// WordRhymes implements Source. Transport errors, 429 and 5xx responses are
// retried with exponential backoff; the final failure is a *errors.LookupError.
func (d *Datamuse) WordRhymes(ctx context.Context, word string, maxResults int) ([]string, error) {
	var lastErr error
	delay := d.cfg.Backoff
	for attempt := 0; attempt <= d.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.NewLookup(word, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		words, err := d.fetch(ctx, word, maxResults)
		if err == nil {
			return words, nil
		}
		lastErr = err
		logging.OracleFailure(ctx, word, attempt+1, err)
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, errors.NewLookup(word, lastErr)
}

func (d *Datamuse) fetch(ctx context.Context, word string, maxResults int) ([]string, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("rel_rhy", word)
	if maxResults > 0 {
		q.Set("max", strconv.Itoa(maxResults))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.Endpoint+"/words?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &statusError{code: resp.StatusCode}
	}

	var results []datamuseWord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&results); err != nil {
		return nil, errors.Wrap(err, "decoding datamuse response")
	}
	words := make([]string, 0, len(results))
	for _, r := range results {
		words = append(words, r.Word)
	}
	return words, nil
}

// retryable reports whether a failed attempt may succeed if repeated.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Decoding failures are not transient.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	return true
}
