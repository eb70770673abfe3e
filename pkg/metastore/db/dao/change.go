package dao

import (
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/textweave/notifier/pkg/metastore/db/dbmodel"
)

type changeDb struct {
	db *gorm.DB
}

var _ dbmodel.IChangeDb = &changeDb{}

func (s *changeDb) DeleteAll() error {
	return s.db.Where("1 = 1").Delete(&dbmodel.Change{}).Error
}

func (s *changeDb) Insert(in *dbmodel.Change) error {
	err := s.db.Create(in).Error
	if err != nil {
		log.Error("insert change failed", zap.String("action", in.Action), zap.Error(err))
		return err
	}
	return nil
}

func (s *changeDb) GetWindow(from time.Time, to time.Time) ([]*dbmodel.Change, error) {
	var changes []*dbmodel.Change
	err := s.db.
		Where("timestamp >= ?", from).
		Where("timestamp < ?", to).
		Order("timestamp, id").
		Find(&changes).Error
	if err != nil {
		log.Error("GetWindow failed",
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Error(err))
		return nil, err
	}
	return changes, nil
}
