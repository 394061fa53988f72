package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
)

const (
	defaultNamePrefix        = "llm-app"
	defaultBranch            = "main"
	defaultMaxAttempts       = 5
	defaultRetryDelay        = time.Second
	defaultMaxCreateAttempts = 2
	localRevisionPrefix      = "local-"
)

var errHostingUnavailable = errors.New("hosting API not configured")

type Config struct {
	NamePrefix        string
	DefaultBranch     string
	MaxAttempts       int
	RetryDelay        time.Duration
	MaxCreateAttempts int
	OutputDir         string
}

func DefaultConfig() Config {
	return Config{
		NamePrefix:        defaultNamePrefix,
		DefaultBranch:     defaultBranch,
		MaxAttempts:       defaultMaxAttempts,
		RetryDelay:        defaultRetryDelay,
		MaxCreateAttempts: defaultMaxCreateAttempts,
		OutputDir:         "out",
	}
}

type PublishRequest struct {
	NameHint     string
	Artifact     entity.GeneratedArtifact
	IsRevision   bool
	ExistingName string
}

type Publisher struct {
	hosting output.HostingPort
	local   *LocalWriter
	logger  output.LoggerPort
	cfg     Config
	now     func() time.Time
}

// New wires a publisher. hosting may be nil, in which case every publish
// degrades to the local writer.
func New(hosting output.HostingPort, logger output.LoggerPort, cfg Config) *Publisher {
	def := DefaultConfig()
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = def.NamePrefix
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = def.DefaultBranch
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.MaxCreateAttempts <= 0 {
		cfg.MaxCreateAttempts = def.MaxCreateAttempts
	}

	return &Publisher{
		hosting: hosting,
		local:   NewLocalWriter(cfg.OutputDir),
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (p *Publisher) namer() namer {
	return namer{prefix: p.cfg.NamePrefix, now: p.now}
}

// Publish commits the artifact remotely and degrades to a local write on any
// remote failure. The only error it returns is *entity.LocalWriteError.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (entity.ResourceDescriptor, error) {
	files := AssembleFiles(req.Artifact, p.now())

	desc, err := p.publishRemote(ctx, req, files)
	if err == nil {
		p.logger.Info("Published resource", "repo", desc.Name, "commit", desc.RevisionID, "files", len(files))
		return desc, nil
	}

	p.logger.Error("Remote publish failed, degrading to local output", "error", err)
	return p.degrade(req, files, err)
}

func (p *Publisher) publishRemote(ctx context.Context, req PublishRequest, files []entity.FileEntry) (entity.ResourceDescriptor, error) {
	if p.hosting == nil {
		return entity.ResourceDescriptor{}, &entity.PublishFatalError{Err: errHostingUnavailable}
	}

	container, err := p.resolve(ctx, req)
	if err != nil {
		return entity.ResourceDescriptor{}, &entity.PublishFatalError{Resource: req.ExistingName, Err: err}
	}

	branch := container.DefaultBranch
	if branch == "" {
		branch = p.cfg.DefaultBranch
	}

	var revision string
	for _, f := range files {
		rev, err := p.commitFile(ctx, container.Name, branch, f, req.IsRevision)
		if err != nil {
			return entity.ResourceDescriptor{}, &entity.PublishFatalError{Resource: container.Name, Err: err}
		}
		revision = rev
	}

	return entity.ResourceDescriptor{
		Name:       container.Name,
		URL:        container.URL,
		RevisionID: revision,
		PublicURL:  p.hosting.PublicURL(container.Name),
		Success:    true,
	}, nil
}

func (p *Publisher) resolve(ctx context.Context, req PublishRequest) (*entity.Container, error) {
	if req.IsRevision && req.ExistingName != "" {
		c, err := p.hosting.GetContainer(ctx, req.ExistingName)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", req.ExistingName, err)
		}
		p.logger.Info("Updating existing resource", "repo", c.Name)
		return c, nil
	}

	n := p.namer()
	name := n.Name(req.NameHint)
	description := repoDescription(req.Artifact)

	for attempt := 1; ; attempt++ {
		c, err := p.hosting.CreateContainer(ctx, name, description)
		if err == nil {
			p.logger.Info("Created resource", "repo", c.Name, "attempt", attempt)
			return c, nil
		}
		if !errors.Is(err, entity.ErrNameCollision) {
			return nil, fmt.Errorf("create %s: %w", name, err)
		}
		if attempt >= p.cfg.MaxCreateAttempts {
			return nil, &entity.PublishCollisionError{Name: name, Attempts: attempt, Err: err}
		}
		p.logger.Warn("Resource name taken, retrying with finer suffix", "repo", name)
		name = n.Finer(name)
	}
}

// commitFile upserts one file, retrying any failure with a fixed delay.
func (p *Publisher) commitFile(ctx context.Context, container, branch string, f entity.FileEntry, isRevision bool) (string, error) {
	attempts := 0
	var revision string

	operation := func() error {
		attempts++
		existing, found, err := p.hosting.GetFile(ctx, container, f.Path, branch)
		if err != nil {
			return fmt.Errorf("get %s: %w", f.Path, err)
		}

		put := output.PutFileRequest{
			Path:    f.Path,
			Content: f.Content,
			Branch:  branch,
			Message: "Add file " + f.Path,
		}
		if found {
			put.Precondition = existing.Precondition
			if isRevision {
				put.Message = "Update file " + f.Path
			}
		}

		res, err := p.hosting.PutFile(ctx, container, put)
		if err != nil {
			return fmt.Errorf("put %s: %w", f.Path, err)
		}
		revision = res.RevisionID
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.cfg.RetryDelay), uint64(p.cfg.MaxAttempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		p.logger.Warn("File commit failed, retrying", "path", f.Path, "attempt", attempts, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", &entity.PublishTransientError{Path: f.Path, Attempts: attempts, Err: err}
	}
	return revision, nil
}

func (p *Publisher) degrade(req PublishRequest, files []entity.FileEntry, cause error) (entity.ResourceDescriptor, error) {
	name := p.namer().Name(req.NameHint)

	entry, err := p.local.Write(name, files)
	if err != nil {
		return entity.ResourceDescriptor{}, err
	}

	p.logger.Info("Published resource locally", "dir", entry.Dir, "entry", entry.EntryURL)
	return entity.ResourceDescriptor{
		Name:       name,
		URL:        entry.Dir,
		RevisionID: localRevisionPrefix + entry.Digest[:12],
		PublicURL:  entry.EntryURL,
		Success:    true,
		Degraded:   true,
		Error:      cause.Error(),
	}, nil
}

// WriteLocal stores files without attempting the remote path.
func (p *Publisher) WriteLocal(nameHint string, artifact entity.GeneratedArtifact, cause error) (entity.ResourceDescriptor, error) {
	return p.degrade(PublishRequest{NameHint: nameHint, Artifact: artifact}, AssembleFiles(artifact, p.now()), cause)
}
