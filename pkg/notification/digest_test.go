package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/model"
)

func newTestRunner(store *MemoryStore, notifier Notifier, now time.Time) *DigestRunner {
	registry := NewDefaultRegistry()
	resolver := NewScopeResolver(store)
	filter := NewRedundancyFilter(registry, resolver)
	runner := NewDigestRunner(registry, resolver, filter, store, store, store, notifier)
	runner.now = func() time.Time { return now }
	return runner
}

func appendChange(t *testing.T, store *MemoryStore, change model.Change) {
	t.Helper()
	_, err := store.AppendChange(context.Background(), change)
	require.NoError(t, err)
}

func TestDigestGroupsChanges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	notifier := NewMemoryNotifier()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runner := newTestRunner(store, notifier, base.Add(time.Hour))

	require.NoError(t, store.AddWatch(ctx, "hans", "sandbox"))
	subscribe(t, store, "hans", "MergeFailure", model.FrequencyDaily)

	for i := 0; i < 3; i++ {
		appendChange(t, store, model.Change{
			Action:      model.ActionFailedMerge,
			ProjectID:   "sandbox",
			ComponentID: "sandbox/docs",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
	}

	result, err := runner.Run(ctx, model.FrequencyDaily)
	require.NoError(t, err)
	require.Equal(t, 3, result.Events)
	require.Equal(t, 1, result.Submitted)
	require.True(t, result.Advanced)

	messages := notifier.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, "Digest: Merge failure", messages[0].Subject)
	require.Equal(t, model.FrequencyDaily, messages[0].Frequency)
	require.Len(t, messages[0].Changes, 3)
}

func TestDigestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	notifier := NewMemoryNotifier()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runner := newTestRunner(store, notifier, base.Add(time.Hour))

	require.NoError(t, store.AddWatch(ctx, "hans", "sandbox"))
	subscribe(t, store, "hans", "MergeFailure", model.FrequencyDaily)
	appendChange(t, store, model.Change{
		Action:      model.ActionFailedMerge,
		ProjectID:   "sandbox",
		ComponentID: "sandbox/docs",
		Timestamp:   base,
	})

	result, err := runner.Run(ctx, model.FrequencyDaily)
	require.NoError(t, err)
	require.Equal(t, 1, result.Submitted)

	// The watermark moved past the change, so a later run finds nothing.
	runner.now = func() time.Time { return base.Add(2 * time.Hour) }
	result, err = runner.Run(ctx, model.FrequencyDaily)
	require.NoError(t, err)
	require.Zero(t, result.Events)
	require.Zero(t, result.Submitted)
	require.True(t, result.Advanced)
	require.Len(t, notifier.Messages(), 1)
}

func TestDigestReprocessesFailedWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	inner := NewMemoryNotifier()
	notifier := &failingNotifier{inner: inner, failFor: map[string]bool{"hans": true}}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runner := newTestRunner(store, notifier, base.Add(time.Hour))

	require.NoError(t, store.AddWatch(ctx, "hans", "sandbox"))
	subscribe(t, store, "hans", "MergeFailure", model.FrequencyDaily)
	appendChange(t, store, model.Change{
		Action:      model.ActionFailedMerge,
		ProjectID:   "sandbox",
		ComponentID: "sandbox/docs",
		Timestamp:   base,
	})

	result, err := runner.Run(ctx, model.FrequencyDaily)
	require.NoError(t, err)
	require.Zero(t, result.Submitted)
	require.Len(t, result.Failures, 1)
	require.False(t, result.Advanced)

	// Delivery recovers; the same window is replayed against the same stores.
	notifier.failFor = nil
	runner.now = func() time.Time { return base.Add(2 * time.Hour) }
	result, err = runner.Run(ctx, model.FrequencyDaily)
	require.NoError(t, err)
	require.Equal(t, 1, result.Events)
	require.Equal(t, 1, result.Submitted)
	require.True(t, result.Advanced)
	require.Len(t, inner.Messages(), 1)
}

func TestDigestRejectsNonDigestFrequency(t *testing.T) {
	store := NewMemoryStore()
	runner := newTestRunner(store, NewMemoryNotifier(), time.Now())

	for _, frequency := range []model.Frequency{model.FrequencyInstant, model.FrequencyNone} {
		_, err := runner.Run(context.Background(), frequency)
		require.ErrorIs(t, err, common.ErrInvalidDigestFrequency)
	}
}

func TestDigestExcludesInstantOnlyTypes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	notifier := NewMemoryNotifier()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runner := newTestRunner(store, notifier, base.Add(time.Hour))

	require.NoError(t, store.AddWatch(ctx, "hans", "sandbox"))
	subscribe(t, store, "hans", "MentionComment", model.FrequencyDaily)
	appendChange(t, store, model.Change{
		Action:    model.ActionCommentMention,
		ProjectID: "sandbox",
		Timestamp: base,
	})

	result, err := runner.Run(ctx, model.FrequencyDaily)
	require.NoError(t, err)
	require.Equal(t, 1, result.Events)
	require.Zero(t, result.Submitted)
	require.Empty(t, notifier.Messages())
}
