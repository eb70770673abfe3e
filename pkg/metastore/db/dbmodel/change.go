package dbmodel

import (
	"time"
)

type Change struct {
	ID            int64     `gorm:"id;primaryKey;autoIncrement"`
	Action        string    `gorm:"action"`
	ProjectID     *string   `gorm:"project_id"`
	ComponentID   *string   `gorm:"component_id"`
	TranslationID *string   `gorm:"translation_id"`
	Language      *string   `gorm:"language"`
	ActorID       *string   `gorm:"actor_id"`
	Details       string    `gorm:"details;type:text"`
	Timestamp     time.Time `gorm:"timestamp;index"`
}

func (Change) TableName() string {
	return "changes"
}

//go:generate mockery --name=IChangeDb
type IChangeDb interface {
	DeleteAll() error
	Insert(in *Change) error
	// GetWindow returns changes with from <= timestamp < to, oldest first.
	GetWindow(from time.Time, to time.Time) ([]*Change, error)
}
