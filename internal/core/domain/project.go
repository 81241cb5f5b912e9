package domain

import "time"

type ProjectStatus string

const (
	ProjectUploaded   ProjectStatus = "uploaded"
	ProjectParsing    ProjectStatus = "parsing"
	ProjectParsed     ProjectStatus = "parsed"
	ProjectGenerating ProjectStatus = "generating"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectFailed     ProjectStatus = "failed"
	ProjectArchived   ProjectStatus = "archived"
)

// Terminal reports whether no further backend transition is expected,
// i.e. status polling may stop.
func (s ProjectStatus) Terminal() bool {
	switch s {
	case ProjectParsed, ProjectCompleted, ProjectFailed, ProjectArchived:
		return true
	default:
		return false
	}
}

type Project struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description,omitempty"`
	Filename           string        `json:"filename"`
	MimeType           string        `json:"mime_type"`
	StoragePath        string        `json:"storage_path"`
	Status             ProjectStatus `json:"status"`
	ProcessingProgress int           `json:"processing_progress"`
	WordCount          int           `json:"word_count"`
	ChapterCount       int           `json:"chapter_count"`
	ParagraphCount     int           `json:"paragraph_count"`
	SentenceCount      int           `json:"sentence_count"`
	ErrorMessage       string        `json:"error_message,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// ProjectState is the status subset merged into client state while polling.
type ProjectState struct {
	ID                 string        `json:"id"`
	Status             ProjectStatus `json:"status"`
	ProcessingProgress int           `json:"processing_progress"`
	WordCount          int           `json:"word_count"`
	ChapterCount       int           `json:"chapter_count"`
	ParagraphCount     int           `json:"paragraph_count"`
	SentenceCount      int           `json:"sentence_count"`
	ErrorMessage       string        `json:"error_message,omitempty"`
	UpdatedAt          time.Time     `json:"updated_at"`
}
