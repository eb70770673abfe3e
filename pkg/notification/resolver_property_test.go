package notification

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/textweave/notifier/pkg/model"
)

// Brute-force reference for one user: walk the rows most specific first and
// return the first one whose gate holds.
func referenceDecision(rows []model.Subscription, change model.Change, watching bool, admin bool, languages []string) (model.Frequency, bool) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Scope != rows[j].Scope {
			return rows[i].Scope > rows[j].Scope
		}
		return rows[i].ID < rows[j].ID
	})
	for _, row := range rows {
		switch row.Scope {
		case model.ScopeComponent:
			if change.ComponentID != "" && row.ComponentID == change.ComponentID {
				return row.Frequency, true
			}
		case model.ScopeProject:
			if change.ProjectID != "" && row.ProjectID == change.ProjectID {
				return row.Frequency, true
			}
		case model.ScopeAdmin:
			if change.ProjectID != "" && admin {
				return row.Frequency, true
			}
		case model.ScopeDefault:
			if change.ProjectID == "" {
				return row.Frequency, true
			}
			if !watching {
				continue
			}
			if change.Language != "" && len(languages) > 0 && !contains(languages, change.Language) {
				continue
			}
			return row.Frequency, true
		}
	}
	return model.FrequencyNone, false
}

func TestResolverMatchesReference(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		store := NewMemoryStore()
		resolver := NewScopeResolver(store)

		userIDs := []string{"ada", "ben", "cyd", "dee"}
		scopes := []model.Scope{model.ScopeDefault, model.ScopeAdmin, model.ScopeProject, model.ScopeComponent}
		frequencies := []model.Frequency{
			model.FrequencyNone, model.FrequencyInstant, model.FrequencyDaily,
			model.FrequencyWeekly, model.FrequencyMonthly,
		}

		change := model.Change{
			Action:      model.ActionFailedMerge,
			ProjectID:   rapid.SampledFrom([]string{"", "sandbox"}).Draw(t, "project"),
			ComponentID: rapid.SampledFrom([]string{"", "sandbox/docs"}).Draw(t, "component"),
			Language:    rapid.SampledFrom([]string{"", "cs"}).Draw(t, "language"),
		}
		if change.ProjectID == "" {
			change.ComponentID = ""
		}

		watching := make(map[string]bool)
		admins := make(map[string]bool)
		languages := make(map[string][]string)
		rowsByUser := make(map[string][]model.Subscription)

		for _, userID := range userIDs {
			if rapid.Bool().Draw(t, userID+"-watch") {
				watching[userID] = true
				require.NoError(t, store.AddWatch(ctx, userID, "sandbox"))
			}
			if rapid.Bool().Draw(t, userID+"-admin") {
				admins[userID] = true
				require.NoError(t, store.AddAdmin(ctx, userID, "sandbox"))
			}
			languages[userID] = rapid.SampledFrom([][]string{nil, {"cs"}, {"de"}, {"de", "cs"}}).Draw(t, userID+"-languages")
			require.NoError(t, store.SetLanguages(ctx, userID, languages[userID]))

			rowCount := rapid.IntRange(0, 5).Draw(t, userID+"-rows")
			for i := 0; i < rowCount; i++ {
				row := model.Subscription{
					UserID:       userID,
					Notification: "MergeFailure",
					Scope:        rapid.SampledFrom(scopes).Draw(t, userID+"-scope"),
					Frequency:    rapid.SampledFrom(frequencies).Draw(t, userID+"-frequency"),
				}
				switch row.Scope {
				case model.ScopeProject:
					row.ProjectID = "sandbox"
				case model.ScopeComponent:
					row.ComponentID = "sandbox/docs"
				}
				stored, err := store.AddSubscription(ctx, row)
				require.NoError(t, err)
				rowsByUser[userID] = append(rowsByUser[userID], stored)
			}
		}

		decided, err := resolver.DecideFrequencies(ctx, "MergeFailure", change)
		require.NoError(t, err)

		for _, userID := range userIDs {
			expected, subscribed := referenceDecision(rowsByUser[userID], change, watching[userID], admins[userID], languages[userID])
			actual, ok := decided[userID]
			require.Equal(t, subscribed, ok, "user %s", userID)
			if subscribed {
				require.Equal(t, expected, actual, "user %s", userID)
			}
		}

		// Each user lands in at most one non-opt-out frequency bucket.
		seen := make(map[string]int)
		for _, frequency := range frequencies[1:] {
			recipients, err := resolver.ResolveRecipients(ctx, "MergeFailure", frequency, change)
			require.NoError(t, err)
			for userID := range recipients {
				seen[userID]++
				require.Equal(t, frequency, decided[userID])
			}
		}
		for userID, count := range seen {
			require.Equal(t, 1, count, "user %s in multiple buckets", userID)
		}
	})
}
