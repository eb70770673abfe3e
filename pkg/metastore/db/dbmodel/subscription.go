package dbmodel

import (
	"time"
)

// ProjectID and ComponentID are empty rather than NULL when the scope does
// not reference them, so the composite unique index catches duplicate rows
// for the broad scopes too.
type Subscription struct {
	ID           int64     `gorm:"id;primaryKey;autoIncrement"`
	UserID       string    `gorm:"user_id;index;uniqueIndex:uni_subscription_row"`
	Notification string    `gorm:"notification;uniqueIndex:uni_subscription_row"`
	Scope        int32     `gorm:"scope;uniqueIndex:uni_subscription_row"`
	Frequency    int32     `gorm:"frequency"`
	ProjectID    string    `gorm:"project_id;uniqueIndex:uni_subscription_row"`
	ComponentID  string    `gorm:"component_id;uniqueIndex:uni_subscription_row"`
	CreatedAt    time.Time `gorm:"created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"updated_at;default:CURRENT_TIMESTAMP"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

//go:generate mockery --name=ISubscriptionDb
type ISubscriptionDb interface {
	DeleteAll() error
	Insert(in *Subscription) error
	GetByID(id int64) (*Subscription, error)
	GetByUserID(userID string) ([]*Subscription, error)
	// GetForEvent returns every row for the notification that could decide a
	// user's cadence for an event at the given location: broad scopes plus
	// project/component scopes whose reference matches.
	GetForEvent(notification string, projectID string, componentID string) ([]*Subscription, error)
	Delete(id int64) error
}
