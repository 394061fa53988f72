package output

import "context"

// DeploymentRegistry remembers which resource a task was published into so
// later rounds update it instead of creating a new one.
type DeploymentRegistry interface {
	Lookup(ctx context.Context, key string) (name string, found bool, err error)
	Record(ctx context.Context, key, name string) error
}
