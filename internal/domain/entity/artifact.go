package entity

const MetadataTitle = "title"

type GeneratedArtifact struct {
	HTML       string            `json:"html_content"`
	CSS        string            `json:"css_content"`
	JS         string            `json:"js_content"`
	Metadata   map[string]any    `json:"metadata"`
	ExtraFiles map[string]string `json:"extra_files,omitempty"`
}

func (a GeneratedArtifact) Title() string {
	if v, ok := a.Metadata[MetadataTitle].(string); ok {
		return v
	}
	return ""
}

func (a GeneratedArtifact) Description() string {
	if v, ok := a.Metadata["description"].(string); ok {
		return v
	}
	return ""
}

type GenerationStatus string

const (
	GenerationOK       GenerationStatus = "ok"
	GenerationFallback GenerationStatus = "fallback"
)

// GenerationOutcome is either a usable generated artifact or the fallback
// artifact together with the reason it replaced the generated one.
type GenerationOutcome struct {
	Status   GenerationStatus
	Artifact GeneratedArtifact
	Reason   error
}

func Generated(a GeneratedArtifact) GenerationOutcome {
	return GenerationOutcome{Status: GenerationOK, Artifact: a}
}

func FallbackOutcome(a GeneratedArtifact, reason error) GenerationOutcome {
	return GenerationOutcome{Status: GenerationFallback, Artifact: a, Reason: reason}
}

func (o GenerationOutcome) UsedFallback() bool {
	return o.Status == GenerationFallback
}
