package entity

type ResourceDescriptor struct {
	Name       string `json:"repo_name"`
	URL        string `json:"repo_url"`
	RevisionID string `json:"commit_sha"`
	PublicURL  string `json:"pages_url"`
	Success    bool   `json:"success"`
	Degraded   bool   `json:"degraded"`
	Error      string `json:"error,omitempty"`
}

// Container is a remote resource container as reported by the hosting API.
type Container struct {
	Name          string
	URL           string
	DefaultBranch string
}

type RemoteFile struct {
	Path         string
	Content      string
	Precondition string
}

type FileEntry struct {
	Path    string
	Content string
}
