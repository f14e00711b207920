package lifecycle

import (
	"time"

	"github.com/lorekeep/lorekeep/internal/entity"
)

// Config carries the per-tenant lifecycle policy. Retention windows grow
// with sensitivity so humans get more time to intervene before dissolution.
type Config struct {
	// ReviewWindow is how long an active entity may go without a human
	// review before it counts as stale.
	ReviewWindow time.Duration `conf:"review_window" yaml:"review_window" json:"review_window"`

	Retention Retention `conf:"retention" yaml:"retention" json:"retention"`
}

// Retention is the archived-to-dissolved window per sensitivity level.
type Retention struct {
	Public       time.Duration `conf:"public" yaml:"public" json:"public"`
	Personal     time.Duration `conf:"personal" yaml:"personal" json:"personal"`
	Confidential time.Duration `conf:"confidential" yaml:"confidential" json:"confidential"`
	Secret       time.Duration `conf:"secret" yaml:"secret" json:"secret"`
}

const day = 24 * time.Hour

// DefaultConfig returns the retention policy used when the tenant
// configures nothing.
func DefaultConfig() Config {
	return Config{
		ReviewWindow: 30 * day,
		Retention: Retention{
			Public:       30 * day,
			Personal:     90 * day,
			Confidential: 180 * day,
			Secret:       365 * day,
		},
	}
}

// Window returns the retention window for a sensitivity level. Unknown
// levels get the longest window, erring on the side of keeping data around
// for human review.
func (r Retention) Window(level entity.Level) time.Duration {
	switch level {
	case entity.LevelPublic:
		return r.Public
	case entity.LevelPersonal:
		return r.Personal
	case entity.LevelConfidential:
		return r.Confidential
	default:
		return r.Secret
	}
}
