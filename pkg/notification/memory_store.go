package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/model"
)

// MemoryStore keeps all subscription, relation, change, and watermark state
// in mutex-guarded maps. It backs tests and single-node development runs.
type MemoryStore struct {
	mu sync.RWMutex

	nextSubscriptionID int64
	subscriptions      map[int64]model.Subscription

	users     map[string]model.User
	watches   map[string]map[string]bool
	admins    map[string]map[string]bool
	languages map[string][]string

	nextChangeID int64
	changes      []model.Change

	watermarks map[model.Frequency]time.Time
}

var _ SubscriptionStore = &MemoryStore{}
var _ ChangeLog = &MemoryStore{}
var _ WatermarkStore = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscriptions: make(map[int64]model.Subscription),
		users:         make(map[string]model.User),
		watches:       make(map[string]map[string]bool),
		admins:        make(map[string]map[string]bool),
		languages:     make(map[string][]string),
		watermarks:    make(map[model.Frequency]time.Time),
	}
}

func (m *MemoryStore) AddSubscription(ctx context.Context, subscription model.Subscription) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSubscriptionID++
	subscription.ID = m.nextSubscriptionID
	m.subscriptions[subscription.ID] = subscription
	return subscription, nil
}

func (m *MemoryStore) GetSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []model.Subscription
	for _, subscription := range m.subscriptions {
		if subscription.UserID == userID {
			result = append(result, subscription)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryStore) DeleteSubscription(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[id]; !ok {
		return common.ErrSubscriptionNotFound
	}
	delete(m.subscriptions, id)
	return nil
}

func (m *MemoryStore) GetSubscriptionsForEvent(ctx context.Context, notification string, change model.Change) ([]model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []model.Subscription
	for _, subscription := range m.subscriptions {
		if subscription.Notification != notification {
			continue
		}
		switch subscription.Scope {
		case model.ScopeDefault, model.ScopeAdmin:
			result = append(result, subscription)
		case model.ScopeProject:
			if change.ProjectID != "" && subscription.ProjectID == change.ProjectID {
				result = append(result, subscription)
			}
		case model.ScopeComponent:
			if change.ComponentID != "" && subscription.ComponentID == change.ComponentID {
				result = append(result, subscription)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemoryStore) AddUser(ctx context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; ok {
		return common.ErrUserUniqueConstraintViolation
	}
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *MemoryStore) AddWatch(ctx context.Context, userID string, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watches[projectID] == nil {
		m.watches[projectID] = make(map[string]bool)
	}
	m.watches[projectID][userID] = true
	return nil
}

func (m *MemoryStore) RemoveWatch(ctx context.Context, userID string, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watches[projectID], userID)
	return nil
}

func (m *MemoryStore) GetWatchers(ctx context.Context, projectID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedMembers(m.watches[projectID]), nil
}

func (m *MemoryStore) AddAdmin(ctx context.Context, userID string, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.admins[projectID] == nil {
		m.admins[projectID] = make(map[string]bool)
	}
	m.admins[projectID][userID] = true
	return nil
}

func (m *MemoryStore) RemoveAdmin(ctx context.Context, userID string, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.admins[projectID], userID)
	return nil
}

func (m *MemoryStore) GetAdmins(ctx context.Context, projectID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedMembers(m.admins[projectID]), nil
}

func (m *MemoryStore) SetLanguages(ctx context.Context, userID string, languages []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.languages[userID] = append([]string(nil), languages...)
	return nil
}

func (m *MemoryStore) GetLanguages(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.languages[userID]...), nil
}

func (m *MemoryStore) AppendChange(ctx context.Context, change model.Change) (model.Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextChangeID++
	change.ID = m.nextChangeID
	if change.Timestamp.IsZero() {
		change.Timestamp = time.Now()
	}
	m.changes = append(m.changes, change)
	return change, nil
}

func (m *MemoryStore) GetChanges(ctx context.Context, from time.Time, to time.Time) ([]model.Change, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []model.Change
	for _, change := range m.changes {
		if !change.Timestamp.Before(from) && change.Timestamp.Before(to) {
			result = append(result, change)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID < result[j].ID
		}
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (m *MemoryStore) GetWatermark(ctx context.Context, frequency model.Frequency) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	watermark, ok := m.watermarks[frequency]
	return watermark, ok, nil
}

func (m *MemoryStore) AdvanceWatermark(ctx context.Context, frequency model.Frequency, from time.Time, to time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.watermarks[frequency]
	if ok && !current.Equal(from) {
		return common.ErrWatermarkConflict
	}
	if !ok && !from.IsZero() {
		return common.ErrWatermarkConflict
	}
	m.watermarks[frequency] = to
	return nil
}

func sortedMembers(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for member := range set {
		result = append(result, member)
	}
	sort.Strings(result)
	return result
}
