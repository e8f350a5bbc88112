package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/FocuswithJustin/Rhymer/core/errors"
	"github.com/FocuswithJustin/Rhymer/core/partition"
	"github.com/FocuswithJustin/Rhymer/core/rhyme"
	"github.com/FocuswithJustin/Rhymer/core/scheme"
	"github.com/FocuswithJustin/Rhymer/internal/logging"
)

// maxBodyBytes bounds request bodies on the JSON endpoints.
const maxBodyBytes = 1 << 20

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// LabelRequest asks for one poem to be labeled. Either Lines or Words is
// given; with Lines the last token of each line is used.
type LabelRequest struct {
	ID    string   `json:"id,omitempty"`
	Lines []string `json:"lines,omitempty"`
	Words []string `json:"words,omitempty"`
	Mode  string   `json:"mode,omitempty"`
}

// LabelResponse is the labeling of one poem.
type LabelResponse struct {
	ID       string              `json:"id,omitempty"`
	Mode     string              `json:"mode"`
	Lines    int                 `json:"lines"`
	Groups   partition.Partition `json:"groups"`
	Notation string              `json:"notation"`
	Scheme   string              `json:"scheme,omitempty"` // sonnet scheme name when one was matched
}

// OracleResponse lists the cached rhymes of a word.
type OracleResponse struct {
	Word   string   `json:"word"`
	Loaded bool     `json:"loaded"`
	Rhymes []string `json:"rhymes"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"name":         "Rhymer API",
		"default_mode": s.cfg.DefaultMode.String(),
		"endpoints": []string{
			"POST /v1/label",
			"GET /v1/label/stream",
			"GET /v1/oracle/{word}",
			"POST /v1/jobs",
			"GET /v1/jobs/{id}",
			"DELETE /v1/jobs/{id}",
			"GET /v1/poems",
			"GET /v1/poems/{id}",
			"GET /healthz",
			"GET /metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"oracle_entries": s.oracle.Len(),
		"store":          s.store != nil,
	})
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	var req LabelRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body")
		return
	}

	resp, err := s.label(r.Context(), "http", req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, resp)
}

// label runs one request through the engine. It is shared by the HTTP and
// websocket transports.
func (s *Server) label(ctx context.Context, transport string, req LabelRequest) (*LabelResponse, error) {
	start := time.Now()
	resp, err := s.doLabel(ctx, req)
	code := "ok"
	mode := req.Mode
	if resp != nil {
		mode = resp.Mode
		s.metrics.labelDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		code = errorCode(err)
	}
	if mode == "" {
		mode = s.cfg.DefaultMode.String()
	}
	s.metrics.labels.WithLabelValues(transport, mode, code).Inc()
	return resp, err
}

func (s *Server) doLabel(ctx context.Context, req LabelRequest) (*LabelResponse, error) {
	mode := s.cfg.DefaultMode
	if req.Mode != "" {
		m, err := rhyme.ParseMode(req.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	words := req.Words
	if len(words) == 0 {
		if len(req.Lines) == 0 {
			return nil, errors.NewMalformed(-1, "request has neither lines nor words")
		}
		var err error
		if words, err = rhyme.EndingWords(req.Lines); err != nil {
			return nil, err
		}
	}
	if s.cfg.MaxLines > 0 && len(words) > s.cfg.MaxLines {
		return nil, errors.NewMalformed(-1, fmt.Sprintf("poem has %d lines, limit is %d", len(words), s.cfg.MaxLines))
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res, err := s.engine.Explain(ctx, words, mode)
	if err != nil {
		return nil, err
	}

	resp := &LabelResponse{
		ID:       req.ID,
		Mode:     mode.String(),
		Lines:    len(words),
		Groups:   res.Partition,
		Notation: scheme.Notation(res.Partition, len(words)),
	}
	if res.Analysis != nil {
		resp.Scheme = res.Analysis.SchemeName()
	}
	logging.PoemLabeled(ctx, req.ID, resp.Mode, len(res.Partition))
	return resp, nil
}

func (s *Server) handleOracle(w http.ResponseWriter, r *http.Request) {
	word := r.PathValue("word")
	if load, _ := strconv.ParseBool(r.URL.Query().Get("load")); load {
		if err := s.oracle.EnsureLoaded(r.Context(), []string{word}); err != nil {
			respondErr(w, err)
			return
		}
	}

	rhymes, ok := s.oracle.Rhymes(word)
	if rhymes == nil {
		rhymes = []string{}
	}
	respond(w, http.StatusOK, OracleResponse{Word: word, Loaded: ok, Rhymes: rhymes})
}

func (s *Server) handlePoems(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListPoems(r.Context(), r.URL.Query().Get("author"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondWithMeta(w, http.StatusOK, summaries, len(summaries))
}

func (s *Server) handlePoemByID(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.LoadPoem(r.Context(), r.PathValue("id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

// errorStatus maps engine errors to HTTP statuses and API error codes.
func errorStatus(err error) (int, string) {
	switch {
	// A lookup error may wrap another sentinel, such as ErrNotFound from an
	// offline oracle, so it is matched first.
	case errors.Is(err, errors.ErrExternalLookup):
		return http.StatusBadGateway, "LOOKUP_FAILED"
	case errors.Is(err, errors.ErrMalformedInput):
		return http.StatusBadRequest, "MALFORMED_INPUT"
	case errors.Is(err, errors.ErrInvalidConfiguration):
		return http.StatusBadRequest, "INVALID_MODE"
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func errorCode(err error) string {
	_, code := errorStatus(err)
	return code
}

func respondErr(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logging.Error("request failed", "code", code, "error", err)
	}
	respondError(w, status, code, err.Error())
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondWithMeta(w http.ResponseWriter, status int, data interface{}, total int) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func writeResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
