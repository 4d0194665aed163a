package model

import "time"

// ChallengeState is the reset-flow state of a principal at a point in time
type ChallengeState int

const (
	// ChallengeNone means no reset is in progress
	ChallengeNone ChallengeState = iota
	// ChallengePending means a code was issued and can still be redeemed
	ChallengePending
	// ChallengeExpired means a code was issued but its window has passed
	ChallengeExpired
)

// String returns a readable name for the state
func (s ChallengeState) String() string {
	switch s {
	case ChallengePending:
		return "pending"
	case ChallengeExpired:
		return "expired"
	default:
		return "none"
	}
}

// ResetChallenge is a single-use numeric code authorizing a credential reset.
// The zero value means no challenge is outstanding.
type ResetChallenge struct {
	Code      string    `json:"code,omitempty" bson:"code,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
}

// IsZero reports whether no challenge is present
func (c ResetChallenge) IsZero() bool {
	return c.Code == "" && c.ExpiresAt.IsZero()
}

// State classifies the challenge relative to now
func (c ResetChallenge) State(now time.Time) ChallengeState {
	if c.Code == "" {
		return ChallengeNone
	}
	if !now.Before(c.ExpiresAt) {
		return ChallengeExpired
	}
	return ChallengePending
}

// Matches reports whether code redeems this challenge (ignoring expiry)
func (c ResetChallenge) Matches(code string) bool {
	return c.Code != "" && c.Code == code
}
