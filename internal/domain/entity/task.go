package entity

import "strings"

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TaskRequest is the caller's build request. It is never mutated after
// Normalize.
type TaskRequest struct {
	Email       string       `json:"email"`
	Secret      string       `json:"secret"`
	Task        string       `json:"task"`
	Brief       string       `json:"brief"`
	Round       int          `json:"round"`
	Nonce       string       `json:"nonce"`
	Attachments []Attachment `json:"attachments"`
	CallbackURL string       `json:"evaluation_url"`
	ReturnCode  bool         `json:"return_code"`
}

func (r TaskRequest) Normalize() TaskRequest {
	if r.Round < 1 {
		r.Round = 1
	}
	r.Task = strings.TrimSpace(r.Task)
	r.CallbackURL = strings.TrimSpace(r.CallbackURL)
	if len(r.Attachments) > 0 {
		r.Attachments = append([]Attachment(nil), r.Attachments...)
	}
	return r
}

func (r TaskRequest) IsRevision() bool {
	return r.Round > 1
}

// RegistryKey identifies the resource a series of rounds publishes into.
func (r TaskRequest) RegistryKey() string {
	return strings.ToLower(strings.TrimSpace(r.Email)) + "/" + r.Task
}
