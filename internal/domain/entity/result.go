package entity

import "time"

// PipelineResult is the only value a pipeline run hands back to its caller.
type PipelineResult struct {
	Resource             ResourceDescriptor
	Notification         NotificationOutcome
	Diagnostics          []string
	UsedFallbackArtifact bool
	Artifact             GeneratedArtifact
	Round                int
	Nonce                string
	CompletedAt          time.Time
}
