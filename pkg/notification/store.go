package notification

import (
	"context"
	"time"

	"github.com/textweave/notifier/pkg/model"
)

// SubscriptionStore is read access to subscription rows and the watch/admin/
// language relations, plus the writes the administration API needs. It holds
// data only; all precedence and suppression policy lives in the resolver and
// the redundancy filter.
type SubscriptionStore interface {
	AddSubscription(ctx context.Context, subscription model.Subscription) (model.Subscription, error)
	GetSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) error
	// GetSubscriptionsForEvent returns every row for the notification that
	// could decide a user's cadence for the change: broad scopes always,
	// project/component scopes only when their reference matches.
	GetSubscriptionsForEvent(ctx context.Context, notification string, change model.Change) ([]model.Subscription, error)

	AddUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)

	AddWatch(ctx context.Context, userID string, projectID string) error
	RemoveWatch(ctx context.Context, userID string, projectID string) error
	GetWatchers(ctx context.Context, projectID string) ([]string, error)

	AddAdmin(ctx context.Context, userID string, projectID string) error
	RemoveAdmin(ctx context.Context, userID string, projectID string) error
	GetAdmins(ctx context.Context, projectID string) ([]string, error)

	SetLanguages(ctx context.Context, userID string, languages []string) error
	GetLanguages(ctx context.Context, userID string) ([]string, error)
}

// ChangeLog is the append-only event log the digest runner reads back.
type ChangeLog interface {
	AppendChange(ctx context.Context, change model.Change) (model.Change, error)
	// GetChanges returns changes with from <= timestamp < to, oldest first.
	GetChanges(ctx context.Context, from time.Time, to time.Time) ([]model.Change, error)
}

// WatermarkStore persists one timestamp per digest cadence. Advance is
// conditional on the previously read value so concurrent runners cannot both
// advance the same window.
type WatermarkStore interface {
	GetWatermark(ctx context.Context, frequency model.Frequency) (time.Time, bool, error)
	AdvanceWatermark(ctx context.Context, frequency model.Frequency, from time.Time, to time.Time) error
}
