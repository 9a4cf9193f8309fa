package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/saint-community/querybuilder/internal/filter"
	"github.com/saint-community/querybuilder/internal/models"
	"github.com/saint-community/querybuilder/internal/store"
)

const maxBodyBytes = 1 << 20

// Server serves the filter compiler and member search over HTTP
type Server struct {
	searcher store.Searcher
	mapper   *filter.Mapper
	builder  *filter.Builder
	logger   *zap.Logger
}

// New creates a server. searcher is shared by all requests and must be
// safe for concurrent use.
func New(searcher store.Searcher, mapper *filter.Mapper, logger *zap.Logger) *Server {
	if mapper == nil {
		mapper = filter.NewMapper()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		searcher: searcher,
		mapper:   mapper,
		builder:  filter.NewBuilder(),
		logger:   logger,
	}
}

// Handler returns an http.Handler with all routes registered
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/fields", s.handleFields)
	mux.HandleFunc("POST /v1/filters/compile", s.handleCompile)
	mux.HandleFunc("POST /v1/members/query", s.handleQuery)
	mux.HandleFunc("POST /v1/members/search", s.handleSearch)
	return LoggingMiddleware(s.logger, mux)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type fieldResponse struct {
	models.Field
	Operators []models.Operator `json:"operators"`
}

// handleFields handles GET /v1/fields.
func (s *Server) handleFields(w http.ResponseWriter, _ *http.Request) {
	out := make([]fieldResponse, len(models.Fields))
	for i, f := range models.Fields {
		out[i] = fieldResponse{Field: f, Operators: f.Operators()}
	}
	writeJSON(w, http.StatusOK, out)
}

type compileResponse struct {
	Where string `json:"where"`
	Args  []any  `json:"args"`
}

// handleCompile handles POST /v1/filters/compile.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var group models.FilterGroup
	if err := decodeBody(w, r, &group); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	where, args, err := s.builder.BuildWhere(group)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if args == nil {
		args = []any{}
	}
	writeJSON(w, http.StatusOK, compileResponse{Where: where, Args: args})
}

// handleQuery handles POST /v1/members/query.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req store.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Filter.Operator == "" {
		req.Filter = filter.NewGroup()
	}
	s.search(w, r, req)
}

type searchResponse struct {
	store.Result
	Filter models.FilterGroup `json:"filter"`
}

// handleSearch handles POST /v1/members/search. The body is a set of form
// selections; limit and offset come from the query string.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var selections filter.Selections
	if err := decodeBody(w, r, &selections); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.search(w, r, store.Request{Filter: s.mapper.Map(selections), Limit: limit, Offset: offset})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req store.Request) {
	result, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrInvalidFilter) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Result: result, Filter: req.Filter})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
