package notification

import (
	"context"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/model"
)

// RedundancyFilter drops a candidate recipient when the user is also
// eligible for the type's declared parent at a cadence at least as eager.
// The user asked for the broad feed already; the narrow message would be a
// duplicate. Suppression is purely subtractive and follows the subsumption
// link one level only.
type RedundancyFilter struct {
	registry *Registry
	resolver *ScopeResolver
}

func NewRedundancyFilter(registry *Registry, resolver *ScopeResolver) *RedundancyFilter {
	return &RedundancyFilter{
		registry: registry,
		resolver: resolver,
	}
}

func (f *RedundancyFilter) Filter(ctx context.Context, notification string, candidates map[string]bool, frequency model.Frequency, change model.Change) (map[string]bool, error) {
	notificationType, ok := f.registry.Get(notification)
	if !ok {
		return nil, common.ErrUnknownNotificationType
	}
	if notificationType.Parent == "" || len(candidates) == 0 {
		return candidates, nil
	}

	parentFrequencies, err := f.resolver.DecideFrequencies(ctx, notificationType.Parent, change)
	if err != nil {
		return nil, err
	}

	result := make(map[string]bool, len(candidates))
	for userID := range candidates {
		parentFrequency, subscribed := parentFrequencies[userID]
		if subscribed && parentFrequency != model.FrequencyNone && parentFrequency.Eagerness() >= frequency.Eagerness() {
			log.Debug("suppressing notification subsumed by parent subscription",
				zap.String("user_id", userID),
				zap.String("notification", notification),
				zap.String("parent", notificationType.Parent),
				zap.String("parent_frequency", parentFrequency.String()))
			continue
		}
		result[userID] = true
	}
	return result, nil
}
