package output

import (
	"context"

	"app-deployer/internal/domain/entity"
)

// HostingPort is the versioned hosting provider. CreateContainer reports a
// taken name with entity.ErrNameCollision and GetContainer reports a missing
// container with entity.ErrContainerNotFound. GetFile reports a missing file
// with found == false and a nil error.
type HostingPort interface {
	CreateContainer(ctx context.Context, name, description string) (*entity.Container, error)
	GetContainer(ctx context.Context, name string) (*entity.Container, error)
	GetFile(ctx context.Context, container, path, branch string) (file *entity.RemoteFile, found bool, err error)
	PutFile(ctx context.Context, container string, req PutFileRequest) (*PutFileResult, error)
	PublicURL(container string) string
}

// PutFileRequest creates a file when Precondition is empty and updates the
// stored version identified by Precondition otherwise.
type PutFileRequest struct {
	Path         string
	Content      string
	Branch       string
	Message      string
	Precondition string
}

type PutFileResult struct {
	RevisionID string
}
