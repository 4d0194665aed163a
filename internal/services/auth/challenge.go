package auth

import (
	"time"

	"github.com/mcoot/coursehub/internal/dependencies/clock"
	"github.com/mcoot/coursehub/internal/dependencies/random"
	"github.com/mcoot/coursehub/internal/model"
)

// ChallengeGenerator creates fixed-width numeric reset codes
type ChallengeGenerator struct {
	random random.Random
	clock  clock.Clock
	digits int
	ttl    time.Duration
}

// NewChallengeGenerator creates a generator issuing codes of the given width
// that stay redeemable for ttl
func NewChallengeGenerator(rng random.Random, clk clock.Clock, digits int, ttl time.Duration) *ChallengeGenerator {
	return &ChallengeGenerator{
		random: rng,
		clock:  clk,
		digits: digits,
		ttl:    ttl,
	}
}

// Generate returns a fresh challenge expiring ttl from now
func (g *ChallengeGenerator) Generate() model.ResetChallenge {
	return model.ResetChallenge{
		Code:      g.random.Digits(g.digits),
		ExpiresAt: g.clock.Now().Add(g.ttl),
	}
}
