package entity

import "time"

type NotificationOutcome struct {
	Delivered  bool   `json:"sent"`
	StatusCode *int   `json:"status_code"`
	Error      string `json:"error,omitempty"`
}

// Attempted reports whether a delivery was actually tried.
func (o NotificationOutcome) Attempted() bool {
	return o.Delivered || o.StatusCode != nil || o.Error != ""
}

type DeploymentSummary struct {
	RepoName  string `json:"repo_name"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
	Success   bool   `json:"success"`
}

// NotificationPayload is the JSON body posted to the caller's callback.
type NotificationPayload struct {
	Email       string            `json:"email"`
	Task        string            `json:"task"`
	Round       int               `json:"round"`
	Nonce       string            `json:"nonce"`
	Timestamp   string            `json:"timestamp"`
	Deployment  DeploymentSummary `json:"deployment"`
	AppMetadata map[string]any    `json:"app_metadata"`
}

func NewNotificationPayload(req TaskRequest, res ResourceDescriptor, metadata map[string]any, at time.Time) NotificationPayload {
	return NotificationPayload{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		Timestamp: at.UTC().Format(time.RFC3339),
		Deployment: DeploymentSummary{
			RepoName:  res.Name,
			RepoURL:   res.URL,
			CommitSHA: res.RevisionID,
			PagesURL:  res.PublicURL,
			Success:   res.Success,
		},
		AppMetadata: metadata,
	}
}
