package model

import (
	"github.com/textweave/notifier/pkg/common"
)

// Scope is the breadth at which a subscription applies. Higher values are
// more specific and win during recipient resolution.
type Scope int32

const (
	ScopeDefault   Scope = 10
	ScopeAdmin     Scope = 20
	ScopeProject   Scope = 30
	ScopeComponent Scope = 40
)

func (s Scope) String() string {
	switch s {
	case ScopeDefault:
		return "default"
	case ScopeAdmin:
		return "admin"
	case ScopeProject:
		return "project"
	case ScopeComponent:
		return "component"
	}
	return "unknown"
}

// ParseScope maps a scope name to its Scope. The bool reports whether the
// name was recognized.
func ParseScope(name string) (Scope, bool) {
	switch name {
	case "default":
		return ScopeDefault, true
	case "admin":
		return ScopeAdmin, true
	case "project":
		return ScopeProject, true
	case "component":
		return ScopeComponent, true
	}
	return ScopeDefault, false
}

// Frequency is the cadence a user asked to be told at. FrequencyNone is an
// explicit opt-out, distinct from having no subscription row at all.
type Frequency int32

const (
	FrequencyNone    Frequency = 0
	FrequencyInstant Frequency = 1
	FrequencyDaily   Frequency = 2
	FrequencyWeekly  Frequency = 3
	FrequencyMonthly Frequency = 4
)

func (f Frequency) String() string {
	switch f {
	case FrequencyNone:
		return "none"
	case FrequencyInstant:
		return "instant"
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyMonthly:
		return "monthly"
	}
	return "unknown"
}

// ParseFrequency maps a cadence name to its Frequency. The bool reports
// whether the name was recognized.
func ParseFrequency(name string) (Frequency, bool) {
	switch name {
	case "none":
		return FrequencyNone, true
	case "instant":
		return FrequencyInstant, true
	case "daily":
		return FrequencyDaily, true
	case "weekly":
		return FrequencyWeekly, true
	case "monthly":
		return FrequencyMonthly, true
	}
	return FrequencyNone, false
}

// Eagerness ranks frequencies for redundancy filtering. Instant is the most
// eager; none is never eager. The weekly over monthly leg is a policy choice,
// not something users can observe directly.
func (f Frequency) Eagerness() int {
	switch f {
	case FrequencyInstant:
		return 4
	case FrequencyDaily:
		return 3
	case FrequencyWeekly:
		return 2
	case FrequencyMonthly:
		return 1
	}
	return 0
}

// DigestFrequencies are the cadences the digest runner accepts.
var DigestFrequencies = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly}

type Subscription struct {
	ID           int64
	UserID       string
	Notification string
	Scope        Scope
	Frequency    Frequency
	ProjectID    string
	ComponentID  string
}

// Validate enforces the scope/reference invariant: project scope needs a
// project reference, component scope a component reference, and the two
// broad scopes must carry neither.
func (s *Subscription) Validate() error {
	switch s.Scope {
	case ScopeDefault, ScopeAdmin:
		if s.ProjectID != "" || s.ComponentID != "" {
			return common.ErrInvalidScopeReference
		}
	case ScopeProject:
		if s.ProjectID == "" || s.ComponentID != "" {
			return common.ErrInvalidScopeReference
		}
	case ScopeComponent:
		if s.ComponentID == "" {
			return common.ErrInvalidScopeReference
		}
	default:
		return common.ErrInvalidScopeReference
	}
	return nil
}
