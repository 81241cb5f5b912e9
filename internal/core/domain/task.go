package domain

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskProcessing TaskStatus = "PROCESSING"
	TaskSuccess    TaskStatus = "SUCCESS"
	TaskFailure    TaskStatus = "FAILURE"
	TaskRevoked    TaskStatus = "REVOKED"
)

// Terminal reports whether the poller should stop on this status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskSuccess, TaskFailure, TaskRevoked:
		return true
	default:
		return false
	}
}

type TaskKind string

const (
	TaskParse   TaskKind = "parse"
	TaskPrompts TaskKind = "prompts"
	TaskAudio   TaskKind = "audio"
	TaskImages  TaskKind = "images"
)

// GenerationRequest scopes a generation run to a chapter or an explicit
// sentence batch. CredentialID is mandatory for every kind.
type GenerationRequest struct {
	ProjectID    string   `json:"project_id"`
	ChapterID    string   `json:"chapter_id,omitempty"`
	SentenceIDs  []string `json:"sentence_ids,omitempty"`
	CredentialID string   `json:"credential_id"`
	Model        string   `json:"model,omitempty"`
	Voice        string   `json:"voice,omitempty"`
}

type GenerationTask struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"project_id"`
	ChapterID    string     `json:"chapter_id,omitempty"`
	Kind         TaskKind   `json:"kind"`
	Status       TaskStatus `json:"status"`
	Progress     int        `json:"progress"`
	SentenceIDs  []string   `json:"sentence_ids,omitempty"`
	CredentialID string     `json:"credential_id,omitempty"`
	Model        string     `json:"model,omitempty"`
	Voice        string     `json:"voice,omitempty"`
	Result       string     `json:"result,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
