package models

import "time"

// GenerateStoryRequest is the body of POST /api/generate-story.
type GenerateStoryRequest struct {
	Character   string `json:"character"`
	AgeGroup    string `json:"ageGroup"`
	StoryType   string `json:"storyType"`
	ExtraWishes string `json:"extraWishes,omitempty"`
	ReadingTime string `json:"readingTime,omitempty"`
}

// GenerateStoryResponse acknowledges an accepted generation request.
type GenerateStoryResponse struct {
	ID      string      `json:"id"`
	Status  StoryStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// DispatchPayload is posted to the external automation webhook. Field names
// are part of the integration contract and must not change.
type DispatchPayload struct {
	ID          string `json:"id"`
	Character   string `json:"character"`
	AgeGroup    string `json:"ageGroup"`
	ExtraWishes string `json:"extraWishes"`
	StoryType   string `json:"storyType"`
	ReadingTime string `json:"readingTime,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// StatusUpdate is the inbound webhook body delivered by the automation
// platform. The optional fields form a tagged union keyed by Status: a
// partial delivery carries PartialStory, a completed one carries the full
// Story text, a failed one carries Error.
type StatusUpdate struct {
	ID           string      `json:"id"`
	Status       StoryStatus `json:"status"`
	Title        string      `json:"title,omitempty"`
	Slug         string      `json:"slug,omitempty"`
	Story        string      `json:"story,omitempty"`
	PartialStory string      `json:"partial_story,omitempty"`
	IsPartial    *bool       `json:"is_partial,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// ImageUpdate is the inbound body of POST /api/image-webhook.
type ImageUpdate struct {
	ID          string      `json:"id"`
	ImageURL    string      `json:"image_url,omitempty"`
	ImageStatus ImageStatus `json:"image_status"`
	Error       string      `json:"error,omitempty"`
}

// StoryStatusResponse is returned by GET /api/webhook and streamed over the
// websocket subscription. An unknown id is reported as still generating so
// that pollers racing the initial insert keep waiting.
type StoryStatusResponse struct {
	ID           string      `json:"id"`
	Status       StoryStatus `json:"status"`
	Title        *string     `json:"title,omitempty"`
	Slug         *string     `json:"slug,omitempty"`
	StoryType    string      `json:"story_type,omitempty"`
	Story        *string     `json:"story,omitempty"`
	PartialStory *string     `json:"partial_story,omitempty"`
	IsPartial    bool        `json:"is_partial"`
	Message      string      `json:"message,omitempty"`
	Error        *string     `json:"error,omitempty"`
}

// WebhookAck is the success body of the webhook receivers.
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RandomStoryData is the AI-assisted prefill for the generator form.
type RandomStoryData struct {
	Character   string `json:"character"`
	AgeGroup    string `json:"ageGroup"`
	StoryType   string `json:"storyType"`
	ExtraWishes string `json:"extraWishes"`
}

// RandomStoryDataResponse wraps RandomStoryData; Fallback marks the static
// data used when the AI call failed.
type RandomStoryDataResponse struct {
	Success  bool            `json:"success"`
	Data     RandomStoryData `json:"data"`
	Fallback bool            `json:"fallback,omitempty"`
}

// StorySummary is the catalog list item.
type StorySummary struct {
	ID                 string    `json:"id"`
	Title              *string   `json:"title,omitempty"`
	Slug               *string   `json:"slug,omitempty"`
	Character          string    `json:"character"`
	AgeGroup           string    `json:"age_group"`
	StoryType          string    `json:"story_type"`
	ImageURL           *string   `json:"image_url,omitempty"`
	AuthorName         string    `json:"author_name"`
	ReadingTimeMinutes int       `json:"reading_time_minutes"`
	CreatedAt          time.Time `json:"created_at"`
}

// StoryListResponse is the paginated catalog answer.
type StoryListResponse struct {
	Stories []StorySummary `json:"stories"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// UpdateProfileRequest is the body of PUT /api/me/profile.
type UpdateProfileRequest struct {
	DisplayName string  `json:"display_name"`
	Username    *string `json:"username,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// ProfileResponse is the anonymization-aware public view of a profile.
type ProfileResponse struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Username    *string `json:"username,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	IsDeleted   bool    `json:"is_deleted"`
}

// NewProfileResponse applies the anonymized-read helpers so that stale data
// on soft-deleted rows never leaks out.
func NewProfileResponse(p *UserProfile) ProfileResponse {
	resp := ProfileResponse{
		DisplayName: p.PublicDisplayName(),
		Username:    p.PublicUsername(),
		AvatarURL:   p.PublicAvatarURL(),
		Bio:         p.PublicBio(),
	}
	if p != nil {
		resp.ID = p.ID.String()
		resp.IsDeleted = p.IsDeleted
	}
	return resp
}
