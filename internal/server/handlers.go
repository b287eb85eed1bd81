package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/campaign-copy/internal/db"
	"github.com/jonathan/campaign-copy/internal/export"
	"github.com/jonathan/campaign-copy/internal/pipeline"
	"github.com/jonathan/campaign-copy/internal/reference"
	"github.com/jonathan/campaign-copy/internal/types"
)

// GenerateRequest represents the request body for /generate and /generate/stream
type GenerateRequest struct {
	ProductID string   `json:"product_id" validate:"required"`
	Channels  []string `json:"channels" validate:"required,min=1,unique,dive,required"`
	Tone      string   `json:"tone" validate:"required"`
	Occasion  string   `json:"occasion"`
	Variants  int      `json:"variants" validate:"omitempty,min=1,max=5"`
	Direction string   `json:"direction" validate:"max=2000"`
	Model     string   `json:"model"`
}

// GenerateResponse represents the response for /generate
type GenerateResponse struct {
	RunID   string                `json:"run_id"`
	Product types.Product         `json:"product"`
	Results []types.ChannelResult `json:"results"`
}

// CheckRequest represents the request body for /compliance/check
type CheckRequest struct {
	Text     string `json:"text" validate:"required"`
	Category string `json:"category" validate:"required"`
}

// CheckResponse represents the response for /compliance/check
type CheckResponse struct {
	Issues  []types.ComplianceIssue `json:"issues"`
	Verdict types.Verdict           `json:"verdict"`
}

// RunResponse represents the response for /runs/{id}
type RunResponse struct {
	Run     *types.Run            `json:"run"`
	Results []types.ChannelResult `json:"results"`
}

func (s *Server) handleProducts(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.library.Products())
}

func (s *Server) handleChannels(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.library.Channels())
}

func (s *Server) handleTones(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.library.Tones())
}

// handleComplianceCheck evaluates arbitrary text against a category's rules
func (s *Server) handleComplianceCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := s.decode(r, &req); err != nil {
		s.failure(w, err)
		return
	}

	issues, verdict := s.evaluator.Check(req.Text, req.Category)
	s.jsonResponse(w, http.StatusOK, CheckResponse{Issues: issues, Verdict: verdict})
}

// handleGenerate runs the pipeline and returns every channel result at once
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := s.decode(r, &req); err != nil {
		s.failure(w, err)
		return
	}

	opts, err := s.runOptions(req)
	if err != nil {
		s.failure(w, err)
		return
	}

	results, err := s.runner.Run(r.Context(), opts)
	if err != nil {
		s.failure(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, GenerateResponse{
		RunID:   opts.RunID.String(),
		Product: opts.Product,
		Results: results,
	})
}

// handleGenerateStream runs the pipeline and streams progress via SSE
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := s.decode(r, &req); err != nil {
		s.failure(w, err)
		return
	}

	opts, err := s.runOptions(req)
	if err != nil {
		s.failure(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent(EventProgress, progressPayload{ProgressEvent: event, Fraction: event.Fraction()}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to write SSE event")
		}
	}

	results, err := s.runner.Run(r.Context(), opts)
	if err != nil {
		sse.WriteError(err)
		sse.WriteComplete(opts.RunID.String(), types.RunStatusFailed)
		return
	}

	if err := sse.WriteEvent(EventResult, GenerateResponse{
		RunID:   opts.RunID.String(),
		Product: opts.Product,
		Results: results,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write SSE event")
	}
	sse.WriteComplete(opts.RunID.String(), types.RunStatusCompleted)
}

type progressPayload struct {
	pipeline.ProgressEvent
	Fraction float64 `json:"fraction"`
}

// handleListRuns lists recorded runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run history requires a database")
		return
	}

	query := r.URL.Query()
	filters := db.RunFilters{
		ProductID: query.Get("product_id"),
		Status:    query.Get("status"),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 200 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		filters.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleDeleteRun deletes a run and its results
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run history requires a database")
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID format")
		return
	}

	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			s.errorResponse(w, http.StatusNotFound, "Run not found")
			return
		}
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetRun returns a recorded run and its results
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	results, err := s.store.GetRunResults(r.Context(), run.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if results == nil {
		results = []types.ChannelResult{}
	}

	s.jsonResponse(w, http.StatusOK, RunResponse{Run: run, Results: results})
}

// handleExportRun renders a completed run as txt, csv or json
func (s *Server) handleExportRun(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(export.FormatJSON)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if run.Status != types.RunStatusCompleted {
		s.errorResponse(w, http.StatusConflict, fmt.Sprintf("Run is %s, only completed runs can be exported", run.Status))
		return
	}

	results, err := s.store.GetRunResults(r.Context(), run.ID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	product, err := s.library.Product(run.ProductID)
	if err != nil {
		product = types.Product{ID: run.ProductID, Name: run.ProductName, Category: run.Category, Brand: run.Brand}
	}

	generatedAt := run.CreatedAt
	if run.CompletedAt != nil {
		generatedAt = *run.CompletedAt
	}

	body, err := export.Render(format, product, results, generatedAt.UTC())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(product, format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write export")
	}
}

// lookupRun resolves the {id} path value, writing the error response itself when it fails
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*types.Run, bool) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Run history requires a database")
		return nil, false
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID format")
		return nil, false
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return nil, false
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, "Run not found")
		return nil, false
	}
	return run, true
}

// decode reads a JSON body into dst and validates it
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return requestError(fmt.Errorf("invalid request body: %w", err))
	}
	if err := s.validate.Struct(dst); err != nil {
		return requestError(err)
	}
	return nil
}

// runOptions resolves reference ids into a pipeline request
func (s *Server) runOptions(req GenerateRequest) (pipeline.RunOptions, error) {
	product, err := s.library.Product(req.ProductID)
	if err != nil {
		return pipeline.RunOptions{}, asValidation("product_id", err)
	}
	channels, err := s.library.ChannelsByID(req.Channels)
	if err != nil {
		return pipeline.RunOptions{}, asValidation("channels", err)
	}

	variants := req.Variants
	if variants == 0 {
		variants = s.cfg.DefaultVariants
	}
	model := req.Model
	if model == "" {
		model = s.cfg.Model
	}

	return pipeline.RunOptions{
		RunID:           uuid.New(),
		Product:         product,
		Channels:        channels,
		Tone:            req.Tone,
		Occasion:        req.Occasion,
		VariantCount:    variants,
		Direction:       req.Direction,
		Model:           model,
		MaxOutputTokens: s.cfg.MaxOutputTokens,
		CallTimeout:     s.cfg.CallTimeout,
	}, nil
}

// asValidation reports an unknown id in a request body as a bad request
func asValidation(field string, err error) error {
	var notFound *reference.NotFoundError
	if errors.As(err, &notFound) {
		return &pipeline.ValidationError{Field: field, Message: notFound.Error()}
	}
	return err
}

