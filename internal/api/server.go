package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"paperscreen/internal/config"
	"paperscreen/internal/eval"
	"paperscreen/internal/reconcile"
	"paperscreen/internal/runs"
	"paperscreen/internal/storage"
	"paperscreen/internal/truth"
	"paperscreen/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg      config.Config
	db       *storage.DB
	runRepo  *storage.RunRepo
	temporal tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:      cfg,
		db:       db,
		runRepo:  storage.NewRunRepo(db),
		temporal: tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/runsets", s.handleRunSets)
	mux.HandleFunc("/runsets/", s.handleRunSetsScoped)
	mux.HandleFunc("/batch", s.handleBatch)
	mux.HandleFunc("/reconcile", s.handleReconcile)
	mux.HandleFunc("/reconcile/", s.handleReconcileScoped)
	mux.HandleFunc("/evaluate", s.handleEvaluate)
	mux.HandleFunc("/diff", s.handleDiff)
	mux.HandleFunc("/reconciled", s.handleReconciled)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRunSets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	sets, err := s.runRepo.ListRunSets(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_sets": sets})
}

func (s *Server) handleRunSetsScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/runsets/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	runSetID := parts[0]
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if len(parts) == 2 && parts[1] == "progress" {
		var prog workflows.BatchReviewProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), "batch-"+runSetID, "", workflows.QueryGetBatchProgress)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
		return
	}
	rows, err := s.runRepo.ListByRunSet(r.Context(), runSetID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_set_id": runSetID, "runs": rows})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		RunSetID     string  `json:"run_set_id"`
		InputDir     string  `json:"input_dir"`
		Model        string  `json:"model"`
		Temperature  float64 `json:"temperature"`
		ProcessAll   bool    `json:"process_all"`
		UsePDFReader bool    `json:"use_pdf_reader"`
		DelaySeconds int     `json:"delay_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("model is required"))
		return
	}
	if req.RunSetID == "" {
		req.RunSetID = uuid.NewString()
	}
	if req.InputDir == "" {
		req.InputDir = s.cfg.PDFRoot
	}
	if req.DelaySeconds <= 0 {
		req.DelaySeconds = s.cfg.RequestDelaySecs
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       "batch-" + req.RunSetID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.BatchReviewWorkflow, workflows.BatchReviewInput{
		RunSetID:     req.RunSetID,
		InputDir:     req.InputDir,
		Model:        req.Model,
		Temperature:  req.Temperature,
		ProcessAll:   req.ProcessAll,
		UsePDFReader: req.UsePDFReader,
		DelaySeconds: req.DelaySeconds,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"run_set_id": req.RunSetID, "workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		RunSetID     string  `json:"run_set_id"`
		Glob1        string  `json:"glob1"`
		Glob2        string  `json:"glob2"`
		Model1       string  `json:"model1"`
		Model2       string  `json:"model2"`
		Temperature  float64 `json:"temperature"`
		UsePDFReader bool    `json:"use_pdf_reader"`
		DelaySeconds int     `json:"delay_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if req.Glob1 == "" || req.Glob2 == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("glob1 and glob2 are required"))
		return
	}
	if req.RunSetID == "" {
		req.RunSetID = uuid.NewString()
	}
	if req.DelaySeconds <= 0 {
		req.DelaySeconds = s.cfg.RequestDelaySecs
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       "reconcile-" + req.RunSetID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.ReconciliationWorkflow, workflows.ReconciliationInput{
		RunSetID:     req.RunSetID,
		Glob1:        req.Glob1,
		Glob2:        req.Glob2,
		Model1:       req.Model1,
		Model2:       req.Model2,
		Temperature:  req.Temperature,
		UsePDFReader: req.UsePDFReader,
		DelaySeconds: req.DelaySeconds,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"run_set_id": req.RunSetID, "workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) handleReconcileScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/reconcile/"), "/"), "/")
	if len(parts) != 2 || parts[1] != "progress" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var prog workflows.ReconciliationProgress
	resp, err := s.temporal.QueryWorkflow(r.Context(), "reconcile-"+parts[0], "", workflows.QueryGetReconcileProgress)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err := resp.Get(&prog); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

// handleEvaluate scores a stored run set against the ground-truth table.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		DataGlob       string   `json:"data_glob"`
		TruthCSV       string   `json:"truth_csv"`
		Combine7ABC    bool     `json:"combine_7abc"`
		IgnoreNA       bool     `json:"ignore_na"`
		RequiredPapers []string `json:"required_papers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if req.DataGlob == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("data_glob is required"))
		return
	}
	table, err := s.loadTruth(req.TruthCSV, req.IgnoreNA)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	loaded, err := runs.LoadGlob(req.DataGlob, req.Combine7ABC)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if len(loaded) == 0 {
		writeErr(w, http.StatusNotFound, fmt.Errorf("no run records match %s", req.DataGlob))
		return
	}
	report := eval.Aggregate(runs.AnswerSets(loaded), table, req.RequiredPapers)
	writeJSON(w, http.StatusOK, report)
}

// handleDiff lists per-paper mismatches between two run sets.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Glob1  string `json:"glob1"`
		Glob2  string `json:"glob2"`
		Model1 string `json:"model1"`
		Model2 string `json:"model2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if req.Glob1 == "" || req.Glob2 == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("glob1 and glob2 are required"))
		return
	}
	first, err := runs.LoadGlob(req.Glob1, false)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	second, err := runs.LoadGlob(req.Glob2, false)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if len(first) == 0 || len(second) == 0 {
		writeErr(w, http.StatusNotFound, fmt.Errorf("no run records match one of the globs"))
		return
	}
	mismatches := reconcile.Diff(runs.CanonicalSets(first), runs.CanonicalSets(second), req.Model1, req.Model2)
	writeJSON(w, http.StatusOK, map[string]any{"mismatches": mismatches})
}

// handleReconciled folds arbitration verdicts into a run set and re-scores it.
func (s *Server) handleReconciled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		DataGlob    string `json:"data_glob"`
		VerdictGlob string `json:"verdict_glob"`
		SecondGlob  string `json:"second_glob"`
		TruthCSV    string `json:"truth_csv"`
		IgnoreNA    bool   `json:"ignore_na"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if req.DataGlob == "" || req.VerdictGlob == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("data_glob and verdict_glob are required"))
		return
	}
	table, err := s.loadTruth(req.TruthCSV, req.IgnoreNA)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	loaded, err := runs.LoadGlob(req.DataGlob, false)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if len(loaded) == 0 {
		writeErr(w, http.StatusNotFound, fmt.Errorf("no run records match %s", req.DataGlob))
		return
	}
	verdicts, err := reconcile.LoadVerdicts(req.VerdictGlob)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if req.SecondGlob != "" {
		second, err := reconcile.LoadVerdicts(req.SecondGlob)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		verdicts = reconcile.Combine(verdicts, second)
	}
	corrected := reconcile.Apply(verdicts, runs.CanonicalSets(loaded))
	report := eval.Aggregate(corrected, table, nil)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) loadTruth(path string, ignoreNA bool) (truth.Table, error) {
	if path == "" {
		path = s.cfg.TruthCSV
	}
	return truth.LoadFile(path, ignoreNA)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "PS-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "PS-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "PS-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "PS-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "PS-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "PS-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "PS-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "PS-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "model is required"):
			msg = "A model name is required."
		case strings.Contains(low, "glob1 and glob2 are required"):
			msg = "Both run set globs are required."
		case strings.Contains(low, "data_glob is required"):
			msg = "A run set glob is required."
		case strings.Contains(low, "data_glob and verdict_glob are required"):
			msg = "Both the run set glob and the verdict glob are required."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
