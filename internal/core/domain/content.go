package domain

import "time"

type ChapterStatus string

const (
	ChapterPending   ChapterStatus = "pending"
	ChapterReady     ChapterStatus = "ready"
	ChapterConfirmed ChapterStatus = "confirmed"
)

type Chapter struct {
	ID             string        `json:"id"`
	ProjectID      string        `json:"project_id"`
	ChapterNumber  int           `json:"chapter_number"`
	Title          string        `json:"title"`
	Content        string        `json:"content"`
	WordCount      int           `json:"word_count"`
	ParagraphCount int           `json:"paragraph_count"`
	Status         ChapterStatus `json:"status"`
	IsConfirmed    bool          `json:"is_confirmed"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type Paragraph struct {
	ID         string    `json:"id"`
	ChapterID  string    `json:"chapter_id"`
	OrderIndex int       `json:"order_index"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Sentence struct {
	ID          string    `json:"id"`
	ParagraphID string    `json:"paragraph_id"`
	OrderIndex  int       `json:"order_index"`
	Content     string    `json:"content"`
	ImagePrompt string    `json:"image_prompt,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
	StartMs     int       `json:"start_ms"`
	DurationMs  int       `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ParagraphAction is a client-side staging intent. It is reconciled only on an
// explicit save and is never persisted server-side.
type ParagraphAction string

const (
	ActionKeep   ParagraphAction = "keep"
	ActionEdit   ParagraphAction = "edit"
	ActionDelete ParagraphAction = "delete"
	ActionIgnore ParagraphAction = "ignore"
)

// PendingEdit is one staged paragraph change. EditedContent is meaningful only
// when Action is ActionEdit.
type PendingEdit struct {
	Action        ParagraphAction `json:"action"`
	EditedContent string          `json:"edited_content,omitempty"`
}
