package notification

import (
	"context"
	"sync"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/model"
	"github.com/textweave/notifier/pkg/otel"
)

type DigestResult struct {
	Frequency   model.Frequency   `json:"frequency"`
	WindowStart time.Time         `json:"window_start"`
	WindowEnd   time.Time         `json:"window_end"`
	Events      int               `json:"events"`
	Submitted   int               `json:"submitted"`
	Failures    []DeliveryFailure `json:"failures,omitempty"`
	Advanced    bool              `json:"advanced"`
}

// DigestRunner is the periodic path: it replays the change window since the
// cadence's watermark through the same resolution as the instant path, but
// buckets changes per (recipient, notification type) and submits one combined
// message per bucket. The watermark only advances when every bucket was
// submitted, so a partially failed window is reprocessed on the next run.
type DigestRunner struct {
	registry   *Registry
	resolver   *ScopeResolver
	filter     *RedundancyFilter
	store      SubscriptionStore
	changes    ChangeLog
	watermarks WatermarkStore
	notifier   Notifier

	// One lock per cadence; runs for different cadences never contend.
	locks map[model.Frequency]*sync.Mutex

	now func() time.Time
}

func NewDigestRunner(registry *Registry, resolver *ScopeResolver, filter *RedundancyFilter, store SubscriptionStore, changes ChangeLog, watermarks WatermarkStore, notifier Notifier) *DigestRunner {
	locks := make(map[model.Frequency]*sync.Mutex)
	for _, frequency := range model.DigestFrequencies {
		locks[frequency] = &sync.Mutex{}
	}
	return &DigestRunner{
		registry:   registry,
		resolver:   resolver,
		filter:     filter,
		store:      store,
		changes:    changes,
		watermarks: watermarks,
		notifier:   notifier,
		locks:      locks,
		now:        time.Now,
	}
}

func (r *DigestRunner) Run(ctx context.Context, frequency model.Frequency) (*DigestResult, error) {
	lock, ok := r.locks[frequency]
	if !ok {
		return nil, common.ErrInvalidDigestFrequency
	}
	lock.Lock()
	defer lock.Unlock()

	ctx, span := otel.StartSpan(ctx, "digest.Run")
	defer span.End()

	from, _, err := r.watermarks.GetWatermark(ctx, frequency)
	if err != nil {
		return nil, err
	}
	to := r.now()

	changes, err := r.changes.GetChanges(ctx, from, to)
	if err != nil {
		return nil, err
	}

	type bucketKey struct {
		userID       string
		notification string
	}
	buckets := make(map[bucketKey][]model.Change)
	var order []bucketKey

	for _, change := range changes {
		for _, notificationType := range r.registry.ForAction(change.Action) {
			if !notificationType.Digest {
				continue
			}
			recipients, err := r.resolver.ResolveRecipients(ctx, notificationType.Name, frequency, change)
			if err != nil {
				return nil, err
			}
			recipients, err = r.filter.Filter(ctx, notificationType.Name, recipients, frequency, change)
			if err != nil {
				return nil, err
			}
			for _, userID := range sortedKeys(recipients) {
				key := bucketKey{userID: userID, notification: notificationType.Name}
				if _, ok := buckets[key]; !ok {
					order = append(order, key)
				}
				buckets[key] = append(buckets[key], change)
			}
		}
	}

	result := &DigestResult{
		Frequency:   frequency,
		WindowStart: from,
		WindowEnd:   to,
		Events:      len(changes),
	}
	for _, key := range order {
		notificationType, _ := r.registry.Get(key.notification)
		message := buildMessage(ctx, r.store, key.userID, notificationType, frequency, buckets[key])
		if err := r.notifier.Notify(ctx, message); err != nil {
			log.Error("failed to submit digest message",
				zap.String("user_id", key.userID),
				zap.String("notification", key.notification),
				zap.Error(err))
			result.Failures = append(result.Failures, DeliveryFailure{
				UserID:       key.userID,
				Notification: key.notification,
				Error:        err.Error(),
			})
			continue
		}
		result.Submitted++
	}

	if len(result.Failures) > 0 {
		log.Warn("digest had delivery failures; watermark not advanced",
			zap.String("frequency", frequency.String()),
			zap.Int("failed", len(result.Failures)))
		return result, nil
	}

	if err := r.watermarks.AdvanceWatermark(ctx, frequency, from, to); err != nil {
		return result, err
	}
	result.Advanced = true
	log.Info("digest run complete",
		zap.String("frequency", frequency.String()),
		zap.Int("events", result.Events),
		zap.Int("submitted", result.Submitted))
	return result, nil
}
