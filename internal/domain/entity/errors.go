package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNoStrategy        = errors.New("no strategy available")
	ErrInvalidArtifact   = errors.New("generated artifact failed validation")
	ErrNameCollision     = errors.New("resource name already exists")
	ErrContainerNotFound = errors.New("resource container not found")
)

// GenerationError covers strategy selection and completion parsing failures.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type PublishCollisionError struct {
	Name     string
	Attempts int
	Err      error
}

func (e *PublishCollisionError) Error() string {
	return fmt.Sprintf("resource name %q still colliding after %d attempts: %v", e.Name, e.Attempts, e.Err)
}

func (e *PublishCollisionError) Unwrap() error { return e.Err }

// PublishTransientError is raised once a single file exhausted its retry budget.
type PublishTransientError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *PublishTransientError) Error() string {
	return fmt.Sprintf("commit %s failed after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *PublishTransientError) Unwrap() error { return e.Err }

// PublishFatalError aborts the remote publish path and triggers local degradation.
type PublishFatalError struct {
	Resource string
	Err      error
}

func (e *PublishFatalError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("remote publish failed: %v", e.Err)
	}
	return fmt.Sprintf("remote publish of %s failed: %v", e.Resource, e.Err)
}

func (e *PublishFatalError) Unwrap() error { return e.Err }

type NotificationError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NotificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("callback %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("callback %s: %v", e.URL, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// LocalWriteError is the only publisher failure that reaches the orchestrator.
type LocalWriteError struct {
	Path string
	Err  error
}

func (e *LocalWriteError) Error() string {
	return fmt.Sprintf("local write %s: %v", e.Path, e.Err)
}

func (e *LocalWriteError) Unwrap() error { return e.Err }
