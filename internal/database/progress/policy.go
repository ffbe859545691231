package progress

import (
	"time"

	"github.com/earshelf/earshelf/internal/config"
)

// RewindTier rewinds by Rewind once the player has been idle for at least Idle.
type RewindTier struct {
	Idle   time.Duration
	Rewind time.Duration
}

// RewindPolicy decides how far to step back when a book is resumed after a
// pause longer than its smart rewind threshold.
type RewindPolicy struct {
	Window           time.Duration // minimum rewind once the threshold is crossed
	Tiers            []RewindTier  // longer pauses, longer rewinds
	DefaultThreshold time.Duration // for books without a settings row
}

func DefaultRewindPolicy() RewindPolicy {
	return RewindPolicy{
		Window: 10 * time.Second,
		Tiers: []RewindTier{
			{Idle: time.Hour, Rewind: 30 * time.Second},
			{Idle: 24 * time.Hour, Rewind: 60 * time.Second},
		},
		DefaultThreshold: 300 * time.Second,
	}
}

// NewRewindPolicy applies configured window and threshold to the default tiers.
func NewRewindPolicy(cfg config.Rewind) RewindPolicy {
	p := DefaultRewindPolicy()
	if cfg.Window > 0 {
		p.Window = cfg.Window
	}
	if cfg.DefaultThreshold > 0 {
		p.DefaultThreshold = cfg.DefaultThreshold
	}
	return p
}

// Offset returns the rewind for a pause of idle under threshold: nothing up
// to the threshold, otherwise the larger of Window and the biggest tier the
// pause reaches.
func (p RewindPolicy) Offset(idle, threshold time.Duration) time.Duration {
	if idle <= threshold {
		return 0
	}
	offset := p.Window
	for _, tier := range p.Tiers {
		if idle >= tier.Idle && tier.Rewind > offset {
			offset = tier.Rewind
		}
	}
	return offset
}
