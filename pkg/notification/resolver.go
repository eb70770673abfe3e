package notification

import (
	"context"
	"sort"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/model"
)

// ScopeResolver decides, per user, which single subscription row applies to
// a change. Scopes are evaluated most specific first and the first row whose
// gating condition holds wins; a less specific row never overrides a more
// specific one, so an explicit component-level opt-out suppresses even when
// a broader row asks for mail.
type ScopeResolver struct {
	store SubscriptionStore
}

func NewScopeResolver(store SubscriptionStore) *ScopeResolver {
	return &ScopeResolver{store: store}
}

// Decision records why a user did or did not end up with a cadence for a
// change. It backs the audit endpoint.
type Decision struct {
	Subscribed bool            `json:"subscribed"`
	Scope      model.Scope     `json:"scope,omitempty"`
	Frequency  model.Frequency `json:"frequency"`
	Reason     string          `json:"reason"`
}

// ResolveRecipients returns the users whose deciding row carries exactly the
// given frequency for the change.
func (r *ScopeResolver) ResolveRecipients(ctx context.Context, notification string, frequency model.Frequency, change model.Change) (map[string]bool, error) {
	decisions, err := r.decide(ctx, notification, change)
	if err != nil {
		return nil, err
	}
	recipients := make(map[string]bool)
	for userID, decision := range decisions {
		if decision.Frequency == frequency && decision.Frequency != model.FrequencyNone {
			recipients[userID] = true
		}
	}
	return recipients, nil
}

// DecideFrequencies returns the deciding cadence per user. Users whose
// deciding row is an explicit opt-out are reported with FrequencyNone.
func (r *ScopeResolver) DecideFrequencies(ctx context.Context, notification string, change model.Change) (map[string]model.Frequency, error) {
	decisions, err := r.decide(ctx, notification, change)
	if err != nil {
		return nil, err
	}
	frequencies := make(map[string]model.Frequency, len(decisions))
	for userID, decision := range decisions {
		frequencies[userID] = decision.Frequency
	}
	return frequencies, nil
}

// Explain reports the resolution outcome for one user, including the reason
// a row did or did not apply.
func (r *ScopeResolver) Explain(ctx context.Context, userID string, notification string, change model.Change) (*Decision, error) {
	decisions, err := r.decide(ctx, notification, change)
	if err != nil {
		return nil, err
	}
	if decision, ok := decisions[userID]; ok {
		return &decision, nil
	}
	return &Decision{
		Subscribed: false,
		Frequency:  model.FrequencyNone,
		Reason:     "no applicable subscription",
	}, nil
}

func (r *ScopeResolver) decide(ctx context.Context, notification string, change model.Change) (map[string]Decision, error) {
	subscriptions, err := r.store.GetSubscriptionsForEvent(ctx, notification, change)
	if err != nil {
		return nil, err
	}

	perUser := make(map[string][]model.Subscription)
	needWatchers := false
	needAdmins := false
	for _, subscription := range subscriptions {
		if err := subscription.Validate(); err != nil {
			log.Warn("skipping invalid subscription row",
				zap.Int64("id", subscription.ID),
				zap.String("user_id", subscription.UserID),
				zap.String("scope", subscription.Scope.String()),
				zap.Error(err))
			continue
		}
		perUser[subscription.UserID] = append(perUser[subscription.UserID], subscription)
		if subscription.Scope == model.ScopeDefault {
			needWatchers = true
		}
		if subscription.Scope == model.ScopeAdmin {
			needAdmins = true
		}
	}

	watchers := map[string]bool{}
	admins := map[string]bool{}
	if change.ProjectID != "" {
		if needWatchers {
			users, err := r.store.GetWatchers(ctx, change.ProjectID)
			if err != nil {
				return nil, err
			}
			for _, userID := range users {
				watchers[userID] = true
			}
		}
		if needAdmins {
			users, err := r.store.GetAdmins(ctx, change.ProjectID)
			if err != nil {
				return nil, err
			}
			for _, userID := range users {
				admins[userID] = true
			}
		}
	}

	decisions := make(map[string]Decision, len(perUser))
	for userID, rows := range perUser {
		// Most specific scope first; row id breaks ties between duplicates.
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Scope != rows[j].Scope {
				return rows[i].Scope > rows[j].Scope
			}
			return rows[i].ID < rows[j].ID
		})
		for _, row := range rows {
			applies, reason, err := r.applies(ctx, row, change, watchers, admins)
			if err != nil {
				return nil, err
			}
			if !applies {
				continue
			}
			decisions[userID] = Decision{
				Subscribed: true,
				Scope:      row.Scope,
				Frequency:  row.Frequency,
				Reason:     reason,
			}
			break
		}
	}
	return decisions, nil
}

func (r *ScopeResolver) applies(ctx context.Context, row model.Subscription, change model.Change, watchers map[string]bool, admins map[string]bool) (bool, string, error) {
	switch row.Scope {
	case model.ScopeComponent:
		if change.ComponentID == "" || row.ComponentID != change.ComponentID {
			return false, "", nil
		}
		return true, "component subscription matches the event's component", nil
	case model.ScopeProject:
		if change.ProjectID == "" || row.ProjectID != change.ProjectID {
			return false, "", nil
		}
		return true, "project subscription matches the event's project", nil
	case model.ScopeAdmin:
		if change.ProjectID == "" || !admins[row.UserID] {
			return false, "", nil
		}
		return true, "admin subscription and the user administers the event's project", nil
	case model.ScopeDefault:
		if change.ProjectID == "" {
			// Site-wide changes reach default subscribers without gating.
			return true, "default subscription applies to site-wide events", nil
		}
		if !watchers[row.UserID] {
			return false, "", nil
		}
		if change.Language != "" {
			languages, err := r.store.GetLanguages(ctx, row.UserID)
			if err != nil {
				return false, "", err
			}
			// Users with no language preference hear about every language.
			if len(languages) > 0 && !contains(languages, change.Language) {
				return false, "", nil
			}
		}
		return true, "default subscription and the user watches the event's project", nil
	}
	return false, "", nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
