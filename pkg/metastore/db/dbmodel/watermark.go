package dbmodel

import (
	"time"
)

type DigestWatermark struct {
	Frequency     int32     `gorm:"frequency;primaryKey"`
	LastProcessed time.Time `gorm:"last_processed"`
	UpdatedAt     time.Time `gorm:"updated_at;default:CURRENT_TIMESTAMP"`
}

func (DigestWatermark) TableName() string {
	return "digest_watermarks"
}

//go:generate mockery --name=IWatermarkDb
type IWatermarkDb interface {
	DeleteAll() error
	// Get returns the watermark for the cadence and whether one exists yet.
	Get(frequency int32) (time.Time, bool, error)
	// Advance moves the watermark from from to to. It fails with a conflict
	// when the stored value no longer equals from, so concurrent runners
	// cannot both advance the same window.
	Advance(frequency int32, from time.Time, to time.Time) error
}
