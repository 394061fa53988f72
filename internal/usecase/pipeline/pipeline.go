package pipeline

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"app-deployer/internal/application/port/input"
	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
	"app-deployer/internal/usecase/generator"
	"app-deployer/internal/usecase/publisher"
)

const (
	tracerName   = "app-deployer/pipeline"
	minimalTitle = "App"
)

var _ input.PipelineRunner = (*Pipeline)(nil)

type ArtifactGenerator interface {
	Generate(ctx context.Context, req entity.TaskRequest) entity.GenerationOutcome
}

type ResourcePublisher interface {
	Publish(ctx context.Context, req publisher.PublishRequest) (entity.ResourceDescriptor, error)
	WriteLocal(nameHint string, artifact entity.GeneratedArtifact, cause error) (entity.ResourceDescriptor, error)
}

type ResultNotifier interface {
	Notify(ctx context.Context, callbackURL string, payload entity.NotificationPayload) entity.NotificationOutcome
}

type Config struct {
	// SharedSecret is compared against the request secret. A mismatch is
	// logged and never rejects the run.
	SharedSecret string
}

type Pipeline struct {
	generator ArtifactGenerator
	publisher ResourcePublisher
	notifier  ResultNotifier
	registry  output.DeploymentRegistry
	logger    output.LoggerPort
	tracer    trace.Tracer
	cfg       Config
	now       func() time.Time
}

type Option func(*Pipeline)

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds the orchestrator. registry may be nil, in which case every
// round creates a fresh resource.
func New(
	gen ArtifactGenerator,
	pub ResourcePublisher,
	notifier ResultNotifier,
	registry output.DeploymentRegistry,
	logger output.LoggerPort,
	cfg Config,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		generator: gen,
		publisher: pub,
		notifier:  notifier,
		registry:  registry,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes generate, publish and notify in order. It always returns a
// result; panics and local write failures become a minimal local result.
func (p *Pipeline) Run(ctx context.Context, req entity.TaskRequest) (result entity.PipelineResult) {
	req = req.Normalize()
	if req.Nonce == "" {
		req.Nonce = uuid.NewString()
	}

	log := p.logger.WithFields(map[string]any{
		"task":  req.Task,
		"round": req.Round,
		"nonce": req.Nonce,
	})

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("task", req.Task),
		attribute.Int("round", req.Round),
		attribute.String("nonce", req.Nonce),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("pipeline panic: %v", r)
			log.Error("Pipeline panicked, returning minimal result", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			result = p.minimal(req, err)
		}
		p.summarize(log, result)
	}()

	p.checkSecret(log, req)

	outcome := p.generate(ctx, req)

	resource, err := p.publish(ctx, log, req, outcome.Artifact)
	if err != nil {
		var lwe *entity.LocalWriteError
		if !errors.As(err, &lwe) {
			err = &entity.LocalWriteError{Err: err}
		}
		log.Error("Local write failed, returning minimal result", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return p.minimal(req, err)
	}

	completedAt := p.now()
	payload := entity.NewNotificationPayload(req, resource, outcome.Artifact.Metadata, completedAt)
	notification := p.notify(ctx, req.CallbackURL, payload)

	result = entity.PipelineResult{
		Resource:             resource,
		Notification:         notification,
		Diagnostics:          diagnostics(outcome, resource, notification),
		UsedFallbackArtifact: outcome.UsedFallback(),
		Artifact:             outcome.Artifact,
		Round:                req.Round,
		Nonce:                req.Nonce,
		CompletedAt:          completedAt,
	}
	span.SetAttributes(
		attribute.Bool("degraded", resource.Degraded),
		attribute.Bool("fallback_artifact", result.UsedFallbackArtifact),
		attribute.Bool("notified", notification.Delivered),
	)
	span.SetStatus(codes.Ok, "")
	return result
}

func (p *Pipeline) checkSecret(log output.LoggerPort, req entity.TaskRequest) {
	if p.cfg.SharedSecret == "" {
		return
	}
	if subtle.ConstantTimeCompare([]byte(p.cfg.SharedSecret), []byte(req.Secret)) != 1 {
		log.Warn("Request secret does not match shared secret, continuing")
	}
}

func (p *Pipeline) generate(ctx context.Context, req entity.TaskRequest) entity.GenerationOutcome {
	ctx, span := p.tracer.Start(ctx, "pipeline.generate")
	defer span.End()

	outcome := p.generator.Generate(ctx, req)
	span.SetAttributes(attribute.String("status", string(outcome.Status)))
	if outcome.Reason != nil {
		span.RecordError(outcome.Reason)
	}
	return outcome
}

func (p *Pipeline) publish(ctx context.Context, log output.LoggerPort, req entity.TaskRequest, artifact entity.GeneratedArtifact) (entity.ResourceDescriptor, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.publish")
	defer span.End()

	preq := publisher.PublishRequest{
		NameHint:   req.Task,
		Artifact:   artifact,
		IsRevision: req.IsRevision(),
	}
	key := req.RegistryKey()

	if req.IsRevision() && p.registry != nil {
		name, found, err := p.registry.Lookup(ctx, key)
		switch {
		case err != nil:
			log.Warn("Registry lookup failed, publishing as new resource", "error", err)
		case found:
			preq.ExistingName = name
		default:
			log.Info("No earlier resource recorded for revision, publishing as new resource")
		}
	}

	resource, err := p.publisher.Publish(ctx, preq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.ResourceDescriptor{}, err
	}
	span.SetAttributes(
		attribute.String("resource", resource.Name),
		attribute.Bool("degraded", resource.Degraded),
	)

	if !resource.Degraded && p.registry != nil {
		if err := p.registry.Record(ctx, key, resource.Name); err != nil {
			log.Warn("Failed to record deployment", "repo", resource.Name, "error", err)
		}
	}
	return resource, nil
}

func (p *Pipeline) notify(ctx context.Context, callbackURL string, payload entity.NotificationPayload) entity.NotificationOutcome {
	ctx, span := p.tracer.Start(ctx, "pipeline.notify")
	defer span.End()

	outcome := p.notifier.Notify(ctx, callbackURL, payload)
	span.SetAttributes(attribute.Bool("delivered", outcome.Delivered))
	if outcome.StatusCode != nil {
		span.SetAttributes(attribute.Int("status_code", *outcome.StatusCode))
	}
	return outcome
}

// minimal builds the result for runs that could not complete normally.
func (p *Pipeline) minimal(req entity.TaskRequest, cause error) entity.PipelineResult {
	artifact := generator.FallbackArtifact(minimalTitle)

	resource, err := p.writeLocal(req.Task, artifact, cause)
	if err != nil {
		resource = entity.ResourceDescriptor{
			Name:    "local-" + publisher.Slugify(req.Task),
			Success: true,
		}
		p.logger.Error("Minimal local write failed", "error", err)
	}
	resource.Success = true
	resource.Degraded = true
	resource.Error = cause.Error()

	diag := []string{"pipeline aborted: " + cause.Error()}
	if err != nil {
		diag = append(diag, "minimal local write failed: "+err.Error())
	}

	return entity.PipelineResult{
		Resource:             resource,
		Diagnostics:          diag,
		UsedFallbackArtifact: true,
		Artifact:             artifact,
		Round:                req.Round,
		Nonce:                req.Nonce,
		CompletedAt:          p.now(),
	}
}

func (p *Pipeline) writeLocal(nameHint string, artifact entity.GeneratedArtifact, cause error) (res entity.ResourceDescriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("local write panic: %v", r)
		}
	}()
	return p.publisher.WriteLocal(nameHint, artifact, cause)
}

func diagnostics(outcome entity.GenerationOutcome, resource entity.ResourceDescriptor, n entity.NotificationOutcome) []string {
	var diag []string
	if outcome.UsedFallback() {
		reason := "unknown reason"
		if outcome.Reason != nil {
			reason = outcome.Reason.Error()
		}
		diag = append(diag, "generation used fallback artifact: "+reason)
	}
	if resource.Degraded {
		diag = append(diag, "publish degraded to local output: "+resource.Error)
	}
	if n.Attempted() && !n.Delivered {
		diag = append(diag, "notification not delivered: "+n.Error)
	}
	return diag
}

func (p *Pipeline) summarize(log output.LoggerPort, r entity.PipelineResult) {
	log.Info("Deployment summary",
		"repo", r.Resource.Name,
		"commit", r.Resource.RevisionID,
		"pages_url", r.Resource.PublicURL,
		"degraded", r.Resource.Degraded,
		"fallback_artifact", r.UsedFallbackArtifact,
		"notified", r.Notification.Delivered,
		"diagnostics", len(r.Diagnostics),
	)
}
