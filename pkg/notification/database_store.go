package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/metastore/db/dbmodel"
	"github.com/textweave/notifier/pkg/model"
)

// DatabaseStore serves the store contracts from the relational metastore.
type DatabaseStore struct {
	metaDomain dbmodel.IMetaDomain
	txImpl     dbmodel.ITransaction
}

var _ SubscriptionStore = &DatabaseStore{}
var _ ChangeLog = &DatabaseStore{}
var _ WatermarkStore = &DatabaseStore{}

func NewDatabaseStore(txImpl dbmodel.ITransaction, metaDomain dbmodel.IMetaDomain) *DatabaseStore {
	return &DatabaseStore{
		metaDomain: metaDomain,
		txImpl:     txImpl,
	}
}

func (d *DatabaseStore) AddSubscription(ctx context.Context, subscription model.Subscription) (model.Subscription, error) {
	row := subscriptionToDb(subscription)
	err := d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.SubscriptionDb(txCtx).Insert(row)
	})
	if err != nil {
		return model.Subscription{}, err
	}
	subscription.ID = row.ID
	return subscription, nil
}

func (d *DatabaseStore) GetSubscriptions(ctx context.Context, userID string) ([]model.Subscription, error) {
	rows, err := d.metaDomain.SubscriptionDb(ctx).GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return subscriptionsFromDb(rows), nil
}

func (d *DatabaseStore) DeleteSubscription(ctx context.Context, id int64) error {
	return d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.SubscriptionDb(txCtx).Delete(id)
	})
}

func (d *DatabaseStore) GetSubscriptionsForEvent(ctx context.Context, notification string, change model.Change) ([]model.Subscription, error) {
	rows, err := d.metaDomain.SubscriptionDb(ctx).GetForEvent(notification, change.ProjectID, change.ComponentID)
	if err != nil {
		return nil, err
	}
	// The dao matches broad scopes unconditionally; drop project/component
	// rows here when the change has no such location at all.
	result := make([]model.Subscription, 0, len(rows))
	for _, subscription := range subscriptionsFromDb(rows) {
		if subscription.Scope == model.ScopeProject && change.ProjectID == "" {
			continue
		}
		if subscription.Scope == model.ScopeComponent && change.ComponentID == "" {
			continue
		}
		result = append(result, subscription)
	}
	return result, nil
}

func (d *DatabaseStore) AddUser(ctx context.Context, user model.User) error {
	return d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.UserDb(txCtx).Insert(&dbmodel.User{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
		})
	})
}

func (d *DatabaseStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	row, err := d.metaDomain.UserDb(ctx).Get(id)
	if err != nil || row == nil {
		return nil, err
	}
	return &model.User{ID: row.ID, Email: row.Email, FullName: row.FullName}, nil
}

func (d *DatabaseStore) AddWatch(ctx context.Context, userID string, projectID string) error {
	return d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.RelationDb(txCtx).AddWatch(userID, projectID)
	})
}

func (d *DatabaseStore) RemoveWatch(ctx context.Context, userID string, projectID string) error {
	return d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.RelationDb(txCtx).RemoveWatch(userID, projectID)
	})
}

func (d *DatabaseStore) GetWatchers(ctx context.Context, projectID string) ([]string, error) {
	return d.metaDomain.RelationDb(ctx).GetWatchers(projectID)
}

func (d *DatabaseStore) AddAdmin(ctx context.Context, userID string, projectID string) error {
	return d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.RelationDb(txCtx).AddAdmin(userID, projectID)
	})
}

func (d *DatabaseStore) RemoveAdmin(ctx context.Context, userID string, projectID string) error {
	return d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.RelationDb(txCtx).RemoveAdmin(userID, projectID)
	})
}

func (d *DatabaseStore) GetAdmins(ctx context.Context, projectID string) ([]string, error) {
	return d.metaDomain.RelationDb(ctx).GetAdmins(projectID)
}

func (d *DatabaseStore) SetLanguages(ctx context.Context, userID string, languages []string) error {
	return d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.RelationDb(txCtx).SetLanguages(userID, languages)
	})
}

func (d *DatabaseStore) GetLanguages(ctx context.Context, userID string) ([]string, error) {
	return d.metaDomain.RelationDb(ctx).GetLanguages(userID)
}

func (d *DatabaseStore) AppendChange(ctx context.Context, change model.Change) (model.Change, error) {
	if change.Timestamp.IsZero() {
		change.Timestamp = time.Now()
	}
	row := changeToDb(change)
	err := d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.ChangeDb(txCtx).Insert(row)
	})
	if err != nil {
		return model.Change{}, err
	}
	change.ID = row.ID
	return change, nil
}

func (d *DatabaseStore) GetChanges(ctx context.Context, from time.Time, to time.Time) ([]model.Change, error) {
	rows, err := d.metaDomain.ChangeDb(ctx).GetWindow(from, to)
	if err != nil {
		return nil, err
	}
	result := make([]model.Change, 0, len(rows))
	for _, row := range rows {
		result = append(result, changeFromDb(row))
	}
	return result, nil
}

func (d *DatabaseStore) GetWatermark(ctx context.Context, frequency model.Frequency) (time.Time, bool, error) {
	return d.metaDomain.WatermarkDb(ctx).Get(int32(frequency))
}

func (d *DatabaseStore) AdvanceWatermark(ctx context.Context, frequency model.Frequency, from time.Time, to time.Time) error {
	return d.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		return d.metaDomain.WatermarkDb(txCtx).Advance(int32(frequency), from, to)
	})
}

func subscriptionToDb(subscription model.Subscription) *dbmodel.Subscription {
	return &dbmodel.Subscription{
		ID:           subscription.ID,
		UserID:       subscription.UserID,
		Notification: subscription.Notification,
		Scope:        int32(subscription.Scope),
		Frequency:    int32(subscription.Frequency),
		ProjectID:    subscription.ProjectID,
		ComponentID:  subscription.ComponentID,
	}
}

func subscriptionsFromDb(rows []*dbmodel.Subscription) []model.Subscription {
	result := make([]model.Subscription, 0, len(rows))
	for _, row := range rows {
		result = append(result, model.Subscription{
			ID:           row.ID,
			UserID:       row.UserID,
			Notification: row.Notification,
			Scope:        model.Scope(row.Scope),
			Frequency:    model.Frequency(row.Frequency),
			ProjectID:    row.ProjectID,
			ComponentID:  row.ComponentID,
		})
	}
	return result
}

func changeToDb(change model.Change) *dbmodel.Change {
	row := &dbmodel.Change{
		ID:        change.ID,
		Action:    change.Action,
		Timestamp: change.Timestamp,
	}
	row.ProjectID = optional(change.ProjectID)
	row.ComponentID = optional(change.ComponentID)
	row.TranslationID = optional(change.TranslationID)
	row.Language = optional(change.Language)
	row.ActorID = optional(change.ActorID)
	if len(change.Details) > 0 {
		details, err := json.Marshal(change.Details)
		if err != nil {
			log.Error("marshal change details failed", zap.Error(err))
		} else {
			row.Details = string(details)
		}
	}
	return row
}

func changeFromDb(row *dbmodel.Change) model.Change {
	change := model.Change{
		ID:        row.ID,
		Action:    row.Action,
		Timestamp: row.Timestamp,
	}
	change.ProjectID = deref(row.ProjectID)
	change.ComponentID = deref(row.ComponentID)
	change.TranslationID = deref(row.TranslationID)
	change.Language = deref(row.Language)
	change.ActorID = deref(row.ActorID)
	if row.Details != "" {
		if err := json.Unmarshal([]byte(row.Details), &change.Details); err != nil {
			log.Error("unmarshal change details failed", zap.Int64("id", row.ID), zap.Error(err))
		}
	}
	return change
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
