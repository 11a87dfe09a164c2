package media

import "time"

// Derivative processing states.
const (
	StatusPending = "pending"
	StatusReady   = "ready"
	StatusFailed  = "failed"
)

// Attachment is recorded media (audio, video, photo) belonging to a story.
// Attachments carry no protocol of their own: access always follows the
// parent story's protocol.
type Attachment struct {
	ID          int64     `json:"id"`
	CommunityID int64     `json:"community_id"`
	CreatorID   int64     `json:"creator_id"`
	StoryID     int64     `json:"story_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StoragePath string    `json:"storage_path"`
	DerivedPath string    `json:"derived_path,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttachInput carries validated fields for a new attachment.
type AttachInput struct {
	StoryID     int64
	Filename    string
	ContentType string
	SizeBytes   int64
	StoragePath string
}
