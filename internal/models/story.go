package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryStatus describes the generation lifecycle of a story.
// Matches the CHECK constraint on stories.status.
type StoryStatus string

const (
	StoryStatusGenerating StoryStatus = "generating" // request accepted, automation platform is working
	StoryStatusPartial    StoryStatus = "partial"    // first chapter delivered, generation continues
	StoryStatusCompleted  StoryStatus = "completed"  // terminal
	StoryStatusFailed     StoryStatus = "failed"     // terminal
)

// ImageStatus describes the independent cover-image sub-state.
type ImageStatus string

const (
	ImageStatusGenerating ImageStatus = "generating"
	ImageStatusCompleted  ImageStatus = "completed"
	ImageStatusFailed     ImageStatus = "failed"
)

// statusRank orders statuses for the forward-only transition guard.
// partial may repeat (progressive chapters), terminal states never regress.
var statusRank = map[StoryStatus]int{
	StoryStatusGenerating: 0,
	StoryStatusPartial:    1,
	StoryStatusCompleted:  2,
	StoryStatusFailed:     2,
}

// IsValidStoryStatus reports whether s is a status the webhook may deliver.
func IsValidStoryStatus(s StoryStatus) bool {
	switch s {
	case StoryStatusPartial, StoryStatusCompleted, StoryStatusFailed:
		return true
	}
	return false
}

// IsValidImageStatus reports whether s is a recognized image status.
func IsValidImageStatus(s ImageStatus) bool {
	switch s {
	case ImageStatusGenerating, ImageStatusCompleted, ImageStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further transition.
func (s StoryStatus) IsTerminal() bool {
	return s == StoryStatusCompleted || s == StoryStatusFailed
}

// CanTransitionTo reports whether moving from s to next is a legal,
// forward-only transition. Redelivering the same status is allowed so that
// duplicated webhook deliveries stay idempotent.
func (s StoryStatus) CanTransitionTo(next StoryStatus) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	return statusRank[next] >= statusRank[s]
}

// Story is the persisted unit of work representing one requested story.
// The descriptive fields are client-supplied and immutable after creation;
// the derived fields are written only by the status update receiver and the
// image ingestion path.
type Story struct {
	ID           string      `json:"id" db:"id"`
	Character    string      `json:"character" db:"character"`
	AgeGroup     string      `json:"age_group" db:"age_group"`
	StoryType    string      `json:"story_type" db:"story_type"`
	ExtraWishes  string      `json:"extra_wishes,omitempty" db:"extra_wishes"`
	ReadingTime  string      `json:"reading_time,omitempty" db:"reading_time"`
	Title        *string     `json:"title,omitempty" db:"title"`
	Slug         *string     `json:"slug,omitempty" db:"slug"`
	Story        *string     `json:"story,omitempty" db:"story"`
	PartialStory *string     `json:"partial_story,omitempty" db:"partial_story"`
	IsPartial    bool        `json:"is_partial" db:"is_partial"`
	ImageURL     *string     `json:"image_url,omitempty" db:"image_url"`
	ImageStatus  ImageStatus `json:"image_status" db:"image_status"`
	Status       StoryStatus `json:"status" db:"status"`
	AuthorID     *uuid.UUID  `json:"author_id,omitempty" db:"author_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// StoryListFilter narrows and orders catalog queries. Only completed stories
// are listed; the zero value returns the newest stories first.
type StoryListFilter struct {
	Search      string // matched against title, character and story text
	StoryType   string // exact story-type label
	AgeGroup    string // exact age-group label
	ReadingTime string // short, medium, long (derived from story length)
	SortBy      string // newest, oldest, title, readingTime
	Limit       int
	Offset      int
}
