package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/textweave/notifier/pkg/model"
)

func alertChange() model.Change {
	return model.Change{
		Action:      model.ActionFailedMerge,
		ProjectID:   "sandbox",
		ComponentID: "sandbox/docs",
	}
}

func subscribe(t *testing.T, store *MemoryStore, userID string, notification string, frequency model.Frequency) {
	t.Helper()
	_, err := store.AddSubscription(context.Background(), model.Subscription{
		UserID:       userID,
		Notification: notification,
		Scope:        model.ScopeDefault,
		Frequency:    frequency,
	})
	require.NoError(t, err)
}

func TestParentSubscriptionSuppressesChild(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	registry := NewDefaultRegistry()
	resolver := NewScopeResolver(store)
	filter := NewRedundancyFilter(registry, resolver)
	change := alertChange()

	require.NoError(t, store.AddWatch(ctx, "hans", "sandbox"))
	subscribe(t, store, "hans", "MergeFailure", model.FrequencyInstant)

	candidates, err := resolver.ResolveRecipients(ctx, "MergeFailure", model.FrequencyInstant, change)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	// Without a parent subscription nothing is suppressed.
	filtered, err := filter.Filter(ctx, "MergeFailure", candidates, model.FrequencyInstant, change)
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	// An equally eager parent subscription subsumes the child message.
	subscribe(t, store, "hans", "RepositoryAlert", model.FrequencyInstant)
	filtered, err = filter.Filter(ctx, "MergeFailure", candidates, model.FrequencyInstant, change)
	require.NoError(t, err)
	require.Empty(t, filtered)
}

func TestLessEagerParentDoesNotSuppress(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	registry := NewDefaultRegistry()
	resolver := NewScopeResolver(store)
	filter := NewRedundancyFilter(registry, resolver)
	change := alertChange()

	require.NoError(t, store.AddWatch(ctx, "hans", "sandbox"))
	subscribe(t, store, "hans", "MergeFailure", model.FrequencyInstant)
	subscribe(t, store, "hans", "RepositoryAlert", model.FrequencyDaily)

	candidates, err := resolver.ResolveRecipients(ctx, "MergeFailure", model.FrequencyInstant, change)
	require.NoError(t, err)
	filtered, err := filter.Filter(ctx, "MergeFailure", candidates, model.FrequencyInstant, change)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
}

func TestMoreEagerParentSuppressesDigestChild(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	registry := NewDefaultRegistry()
	resolver := NewScopeResolver(store)
	filter := NewRedundancyFilter(registry, resolver)
	change := alertChange()

	require.NoError(t, store.AddWatch(ctx, "hans", "sandbox"))
	subscribe(t, store, "hans", "MergeFailure", model.FrequencyDaily)
	subscribe(t, store, "hans", "RepositoryAlert", model.FrequencyInstant)

	candidates, err := resolver.ResolveRecipients(ctx, "MergeFailure", model.FrequencyDaily, change)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	filtered, err := filter.Filter(ctx, "MergeFailure", candidates, model.FrequencyDaily, change)
	require.NoError(t, err)
	require.Empty(t, filtered)
}

func TestParentOptOutDoesNotSuppress(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	registry := NewDefaultRegistry()
	resolver := NewScopeResolver(store)
	filter := NewRedundancyFilter(registry, resolver)
	change := alertChange()

	require.NoError(t, store.AddWatch(ctx, "hans", "sandbox"))
	subscribe(t, store, "hans", "MergeFailure", model.FrequencyInstant)
	// An explicit parent opt-out is never "eligible at least as eagerly".
	subscribe(t, store, "hans", "RepositoryAlert", model.FrequencyNone)

	candidates, err := resolver.ResolveRecipients(ctx, "MergeFailure", model.FrequencyInstant, change)
	require.NoError(t, err)
	filtered, err := filter.Filter(ctx, "MergeFailure", candidates, model.FrequencyInstant, change)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
}

func TestFilterUnknownType(t *testing.T) {
	store := NewMemoryStore()
	registry := NewDefaultRegistry()
	filter := NewRedundancyFilter(registry, NewScopeResolver(store))

	_, err := filter.Filter(context.Background(), "NoSuchType", map[string]bool{"hans": true}, model.FrequencyInstant, alertChange())
	require.Error(t, err)
}
