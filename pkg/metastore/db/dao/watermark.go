package dao

import (
	"errors"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/metastore/db/dbmodel"
)

type watermarkDb struct {
	db *gorm.DB
}

var _ dbmodel.IWatermarkDb = &watermarkDb{}

func (s *watermarkDb) DeleteAll() error {
	return s.db.Where("1 = 1").Delete(&dbmodel.DigestWatermark{}).Error
}

func (s *watermarkDb) Get(frequency int32) (time.Time, bool, error) {
	var watermark dbmodel.DigestWatermark
	err := s.db.Where("frequency = ?", frequency).First(&watermark).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		log.Error("get watermark failed", zap.Int32("frequency", frequency), zap.Error(err))
		return time.Time{}, false, err
	}
	return watermark.LastProcessed, true, nil
}

func (s *watermarkDb) Advance(frequency int32, from time.Time, to time.Time) error {
	if from.IsZero() {
		// First run for this cadence. The insert races with other runners;
		// whoever loses the conflict must not treat the window as advanced.
		result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&dbmodel.DigestWatermark{
			Frequency:     frequency,
			LastProcessed: to,
			UpdatedAt:     time.Now(),
		})
		if result.Error != nil {
			log.Error("insert watermark failed", zap.Int32("frequency", frequency), zap.Error(result.Error))
			return result.Error
		}
		if result.RowsAffected == 0 {
			return common.ErrWatermarkConflict
		}
		return nil
	}

	result := s.db.Model(&dbmodel.DigestWatermark{}).
		Where("frequency = ?", frequency).
		Where("last_processed = ?", from).
		Updates(map[string]interface{}{
			"last_processed": to,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		log.Error("advance watermark failed", zap.Int32("frequency", frequency), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrWatermarkConflict
	}
	return nil
}
