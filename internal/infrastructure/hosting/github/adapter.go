package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"

	"app-deployer/internal/application/port/output"
	"app-deployer/internal/domain/entity"
)

var _ output.HostingPort = (*Adapter)(nil)

type Config struct {
	Token string
	// Owner is the account resources are created under. When empty it is
	// resolved from the token.
	Owner       string
	BaseURL     string
	Timeout     time.Duration
	EnablePages bool
}

func DefaultConfig(token string) Config {
	return Config{
		Token:       token,
		Timeout:     30 * time.Second,
		EnablePages: true,
	}
}

type Adapter struct {
	client *gh.Client
	owner  string
	cfg    Config
	logger output.LoggerPort
}

// New builds the adapter. Resolving the owner costs one API round-trip when
// cfg.Owner is empty.
func New(ctx context.Context, cfg Config, logger output.LoggerPort) (*Adapter, error) {
	if cfg.Token == "" {
		return nil, errors.New("github token not configured")
	}

	client := gh.NewClient(&http.Client{Timeout: cfg.Timeout}).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		client.BaseURL = base
	}

	owner := cfg.Owner
	if owner == "" {
		user, _, err := client.Users.Get(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("resolve github user: %w", err)
		}
		owner = user.GetLogin()
	}

	logger.Info("GitHub client ready", "owner", owner)
	return &Adapter{client: client, owner: owner, cfg: cfg, logger: logger}, nil
}

func (a *Adapter) Owner() string { return a.owner }

func (a *Adapter) CreateContainer(ctx context.Context, name, description string) (*entity.Container, error) {
	repo, _, err := a.client.Repositories.Create(ctx, "", &gh.Repository{
		Name:        gh.String(name),
		Description: gh.String(description),
		Private:     gh.Bool(false),
		AutoInit:    gh.Bool(true),
	})
	if err != nil {
		if statusOf(err) == http.StatusUnprocessableEntity {
			return nil, fmt.Errorf("%w: %s: %v", entity.ErrNameCollision, name, err)
		}
		return nil, fmt.Errorf("create repository %s: %w", name, err)
	}

	if a.cfg.EnablePages {
		a.enablePages(ctx, repo)
	}
	return toContainer(repo), nil
}

// enablePages is best effort; a repository without Pages is still a valid
// publish target.
func (a *Adapter) enablePages(ctx context.Context, repo *gh.Repository) {
	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}
	_, _, err := a.client.Repositories.EnablePages(ctx, a.owner, repo.GetName(), &gh.Pages{
		Source: &gh.PagesSource{Branch: gh.String(branch), Path: gh.String("/")},
	})
	if err != nil {
		a.logger.Warn("Failed to enable GitHub Pages", "repo", repo.GetName(), "error", err)
	}
}

func (a *Adapter) GetContainer(ctx context.Context, name string) (*entity.Container, error) {
	repo, _, err := a.client.Repositories.Get(ctx, a.owner, name)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s/%s", entity.ErrContainerNotFound, a.owner, name)
		}
		return nil, fmt.Errorf("get repository %s: %w", name, err)
	}
	return toContainer(repo), nil
}

func (a *Adapter) GetFile(ctx context.Context, container, path, branch string) (*entity.RemoteFile, bool, error) {
	var opts *gh.RepositoryContentGetOptions
	if branch != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: branch}
	}

	file, _, _, err := a.client.Repositories.GetContents(ctx, a.owner, container, path, opts)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get contents %s: %w", path, err)
	}
	if file == nil {
		return nil, false, fmt.Errorf("get contents %s: path is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, false, fmt.Errorf("decode contents %s: %w", path, err)
	}
	return &entity.RemoteFile{Path: path, Content: content, Precondition: file.GetSHA()}, true, nil
}

func (a *Adapter) PutFile(ctx context.Context, container string, req output.PutFileRequest) (*output.PutFileResult, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(req.Message),
		Content: []byte(req.Content),
	}
	if req.Branch != "" {
		opts.Branch = gh.String(req.Branch)
	}

	var (
		res *gh.RepositoryContentResponse
		err error
	)
	if req.Precondition != "" {
		opts.SHA = gh.String(req.Precondition)
		res, _, err = a.client.Repositories.UpdateFile(ctx, a.owner, container, req.Path, opts)
	} else {
		res, _, err = a.client.Repositories.CreateFile(ctx, a.owner, container, req.Path, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", req.Path, err)
	}

	return &output.PutFileResult{RevisionID: res.Commit.GetSHA()}, nil
}

func (a *Adapter) PublicURL(container string) string {
	return fmt.Sprintf("https://%s.github.io/%s", a.owner, container)
}

func toContainer(repo *gh.Repository) *entity.Container {
	return &entity.Container{
		Name:          repo.GetName(),
		URL:           repo.GetHTMLURL(),
		DefaultBranch: repo.GetDefaultBranch(),
	}
}

func statusOf(err error) int {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}
