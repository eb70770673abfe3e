package notification

import (
	"context"
	"sort"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/model"
	"github.com/textweave/notifier/pkg/otel"
	"github.com/textweave/notifier/pkg/types"
)

// DeliveryFailure is one recipient's job the notifier could not take. The
// engine reports it and moves on; retry belongs to the delivery collaborator.
type DeliveryFailure struct {
	UserID       string `json:"user_id"`
	Notification string `json:"notification"`
	Error        string `json:"error"`
}

type DispatchResult struct {
	Submitted int               `json:"submitted"`
	Failures  []DeliveryFailure `json:"failures,omitempty"`
}

// Dispatcher is the instant path: one call per change, one message per
// eligible (user, notification type) pair.
type Dispatcher struct {
	registry *Registry
	resolver *ScopeResolver
	filter   *RedundancyFilter
	store    SubscriptionStore
	notifier Notifier
}

func NewDispatcher(registry *Registry, resolver *ScopeResolver, filter *RedundancyFilter, store SubscriptionStore, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		resolver: resolver,
		filter:   filter,
		store:    store,
		notifier: notifier,
	}
}

func (d *Dispatcher) OnEvent(ctx context.Context, change model.Change) (*DispatchResult, error) {
	ctx, span := otel.StartSpan(ctx, "dispatcher.OnEvent")
	defer span.End()

	result := &DispatchResult{}
	for _, notificationType := range d.registry.ForAction(change.Action) {
		recipients, err := d.resolver.ResolveRecipients(ctx, notificationType.Name, model.FrequencyInstant, change)
		if err != nil {
			return nil, err
		}
		recipients, err = d.filter.Filter(ctx, notificationType.Name, recipients, model.FrequencyInstant, change)
		if err != nil {
			return nil, err
		}
		for _, userID := range sortedKeys(recipients) {
			message := d.buildMessage(ctx, userID, notificationType, model.FrequencyInstant, []model.Change{change})
			if err := d.notifier.Notify(ctx, message); err != nil {
				log.Error("failed to submit message",
					zap.String("user_id", userID),
					zap.String("notification", notificationType.Name),
					zap.Error(err))
				result.Failures = append(result.Failures, DeliveryFailure{
					UserID:       userID,
					Notification: notificationType.Name,
					Error:        err.Error(),
				})
				continue
			}
			result.Submitted++
		}
	}
	log.Info("dispatched change",
		zap.String("action", change.Action),
		zap.String("project_id", change.ProjectID),
		zap.Int("submitted", result.Submitted),
		zap.Int("failed", len(result.Failures)))
	return result, nil
}

func (d *Dispatcher) buildMessage(ctx context.Context, userID string, notificationType *NotificationType, frequency model.Frequency, changes []model.Change) *model.OutboundMessage {
	return buildMessage(ctx, d.store, userID, notificationType, frequency, changes)
}

func buildMessage(ctx context.Context, store SubscriptionStore, userID string, notificationType *NotificationType, frequency model.Frequency, changes []model.Change) *model.OutboundMessage {
	subject := notificationType.DigestSubject()
	if frequency == model.FrequencyInstant {
		subject = notificationType.Subject(changes[len(changes)-1])
	}
	email := ""
	if user, err := store.GetUser(ctx, userID); err == nil && user != nil {
		email = user.Email
	} else if err != nil {
		log.Warn("could not look up recipient email", zap.String("user_id", userID), zap.Error(err))
	}
	return &model.OutboundMessage{
		ID:           types.NewUniqueID().String(),
		UserID:       userID,
		Email:        email,
		Notification: notificationType.Name,
		Frequency:    frequency,
		Subject:      subject,
		Changes:      changes,
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
