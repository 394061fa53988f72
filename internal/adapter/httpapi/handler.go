package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"app-deployer/internal/application/port/input"
	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
)

const (
	maxRequestBytes = 8 << 20
	messageDeployed = "Application generated and deployed successfully"
	messageLocal    = "Application generated and published locally"
	messageFallback = "Application generated and deployed (fallback)"
)

type Config struct {
	Version         string
	PipelineTimeout time.Duration
}

type Handler struct {
	runner input.PipelineRunner
	logger output.LoggerPort
	cfg    Config
	now    func() time.Time
}

func NewHandler(runner input.PipelineRunner, logger output.LoggerPort, cfg Config) *Handler {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	return &Handler{runner: runner, logger: logger, cfg: cfg, now: time.Now}
}

type deploymentView struct {
	RepoName  string `json:"repo_name"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

type responseMetadata struct {
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	Timestamp string `json:"timestamp"`
}

type DeployResponse struct {
	Success                bool                       `json:"success"`
	Message                string                     `json:"message"`
	Deployment             deploymentView             `json:"deployment"`
	EvaluationNotification entity.NotificationOutcome `json:"evaluation_notification"`
	Metadata               responseMetadata           `json:"metadata"`
	Errors                 []string                   `json:"errors"`
	Fallback               bool                       `json:"fallback"`
	FallbackArtifact       bool                       `json:"fallback_artifact"`
	Code                   *entity.GeneratedArtifact  `json:"code,omitempty"`
}

type EvaluationRequest struct {
	Email          string         `json:"email"`
	Task           string         `json:"task"`
	Round          int            `json:"round"`
	Nonce          string         `json:"nonce"`
	EvaluationData map[string]any `json:"evaluation_data"`
	Timestamp      string         `json:"timestamp,omitempty"`
}

type statusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Deploy runs the pipeline for one request. Once the body decodes, the reply
// is always 200.
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	var req entity.TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Rejected malformed deploy request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}

	h.logger.Info("Received deploy request", "email", req.Email, "task", req.Task, "round", req.Round)

	// The pipeline finishes even if the client disconnects.
	ctx := context.WithoutCancel(r.Context())
	if h.cfg.PipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.PipelineTimeout)
		defer cancel()
	}

	result := h.runner.Run(ctx, req)
	writeJSON(w, http.StatusOK, h.buildResponse(req, result))
}

func (h *Handler) buildResponse(req entity.TaskRequest, result entity.PipelineResult) DeployResponse {
	message := messageDeployed
	switch {
	case result.Resource.Degraded && result.UsedFallbackArtifact:
		message = messageFallback
	case result.Resource.Degraded:
		message = messageLocal
	}

	errs := result.Diagnostics
	if errs == nil {
		errs = []string{}
	}

	completed := result.CompletedAt
	if completed.IsZero() {
		completed = h.now()
	}

	resp := DeployResponse{
		Success: true,
		Message: message,
		Deployment: deploymentView{
			RepoName:  result.Resource.Name,
			RepoURL:   result.Resource.URL,
			CommitSHA: result.Resource.RevisionID,
			PagesURL:  result.Resource.PublicURL,
		},
		EvaluationNotification: result.Notification,
		Metadata: responseMetadata{
			Round:     result.Round,
			Nonce:     result.Nonce,
			Timestamp: completed.UTC().Format(time.RFC3339),
		},
		Errors:           errs,
		Fallback:         result.Resource.Degraded,
		FallbackArtifact: result.UsedFallbackArtifact,
	}
	if req.ReturnCode {
		artifact := result.Artifact
		resp.Code = &artifact
	}
	return resp
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Task) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "email and task are required"})
		return
	}

	h.logger.Info("Received evaluation",
		"email", req.Email,
		"task", req.Task,
		"round", req.Round,
		"nonce", req.Nonce,
		"evaluation", req.EvaluationData)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Evaluation received successfully",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   h.cfg.Version,
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Endpoint not found"})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
