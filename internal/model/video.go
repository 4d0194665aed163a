package model

import (
	"strings"
	"time"
)

// VideoID uniquely identifies an uploaded video
type VideoID string

// Video is a lesson uploaded by a tutor
type Video struct {
	ID          VideoID   `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Media       MediaRef  `json:"media" bson:"media"`
	TutorID     UserID    `json:"tutor_id" bson:"tutor_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate checks the video record before it is persisted
func (v *Video) Validate() error {
	if strings.TrimSpace(v.Title) == "" {
		return NewValidationError("title", "Please enter the video title")
	}
	if strings.TrimSpace(v.Description) == "" {
		return NewValidationError("description", "Please enter the video description")
	}
	if v.Media.PublicID == "" || v.Media.URL == "" {
		return NewValidationError("video", "Video file is required")
	}
	if v.TutorID == "" {
		return NewValidationError("tutor", "Video must belong to a tutor")
	}
	return nil
}

// Clone returns a copy of the video
func (v *Video) Clone() *Video {
	c := *v
	return &c
}
