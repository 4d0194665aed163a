package model

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// UserID uniquely identifies a principal across the system
type UserID string

// Role is the authorization role of a principal
type Role string

const (
	RoleUser  Role = "user"
	RoleTutor Role = "tutor"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

// MaxNameLength is the longest display name accepted
const MaxNameLength = 30

// MediaRef points at an object held by the media service
type MediaRef struct {
	PublicID string `json:"public_id" bson:"public_id"`
	URL      string `json:"url" bson:"url"`
}

// PlaceholderAvatar is assigned to every newly registered principal
var PlaceholderAvatar = MediaRef{
	PublicID: "sample_avatar",
	URL:      "profilePictureUrl",
}

// User is a registered principal with stored credentials
type User struct {
	ID           UserID         `json:"id" bson:"_id"`
	Name         string         `json:"name" bson:"name"`
	Email        string         `json:"email" bson:"email"`
	PasswordHash string         `json:"password_hash" bson:"password_hash"` // bcrypt hash, never sent to clients
	Role         Role           `json:"role" bson:"role"`
	Avatar       MediaRef       `json:"avatar" bson:"avatar"`
	Reset        ResetChallenge `json:"reset" bson:"reset"`
	Videos       []VideoID      `json:"videos" bson:"videos"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
}

// NormalizeEmail canonicalizes an email address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the user record before it is persisted
func (u *User) Validate() error {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return NewValidationError("name", "Please enter your name")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return NewValidationError("name", "Name cannot exceed 30 characters")
	}
	if u.Email == "" {
		return NewValidationError("email", "Please enter your email")
	}
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		return NewValidationError("email", "Please enter a valid email")
	}
	if u.PasswordHash == "" {
		return NewValidationError("password", "Please enter your password")
	}
	if !u.Role.Valid() {
		return NewValidationError("role", "Unknown role")
	}
	return nil
}

// HasVideo reports whether the user owns the given video
func (u *User) HasVideo(id VideoID) bool {
	for _, v := range u.Videos {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveVideo drops a video reference, returning true if it was present
func (u *User) RemoveVideo(id VideoID) bool {
	for i, v := range u.Videos {
		if v == id {
			u.Videos = append(u.Videos[:i], u.Videos[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	c := *u
	c.Videos = append([]VideoID(nil), u.Videos...)
	return &c
}
