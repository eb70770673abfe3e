package dao

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/metastore/db/dbmodel"
	"github.com/textweave/notifier/pkg/model"
)

type subscriptionDb struct {
	db *gorm.DB
}

var _ dbmodel.ISubscriptionDb = &subscriptionDb{}

func (s *subscriptionDb) DeleteAll() error {
	return s.db.Where("1 = 1").Delete(&dbmodel.Subscription{}).Error
}

func (s *subscriptionDb) Insert(in *dbmodel.Subscription) error {
	err := s.db.Create(in).Error
	if err != nil {
		log.Error("insert subscription failed", zap.Error(err))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrSubscriptionUniqueConstraintViolation
		}
		var pgErr *pgconn.PgError
		ok := errors.As(err, &pgErr)
		if ok {
			log.Error("Postgres Error")
			switch pgErr.Code {
			case "23505":
				log.Error("subscription already exists")
				return common.ErrSubscriptionUniqueConstraintViolation
			default:
				return err
			}
		}
		return err
	}
	return nil
}

func (s *subscriptionDb) GetByID(id int64) (*dbmodel.Subscription, error) {
	var subscription dbmodel.Subscription
	err := s.db.Where("id = ?", id).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Error("GetByID failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return &subscription, nil
}

func (s *subscriptionDb) GetByUserID(userID string) ([]*dbmodel.Subscription, error) {
	var subscriptions []*dbmodel.Subscription
	err := s.db.Where("user_id = ?", userID).Order("id").Find(&subscriptions).Error
	if err != nil {
		log.Error("GetByUserID failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return subscriptions, nil
}

func (s *subscriptionDb) GetForEvent(notification string, projectID string, componentID string) ([]*dbmodel.Subscription, error) {
	query := s.db.Where("notification = ?", notification).
		Where(
			s.db.Where("scope IN ?", []int32{int32(model.ScopeDefault), int32(model.ScopeAdmin)}).
				Or(s.db.Where("scope = ?", int32(model.ScopeProject)).Where("project_id = ?", projectID)).
				Or(s.db.Where("scope = ?", int32(model.ScopeComponent)).Where("component_id = ?", componentID)),
		)

	var subscriptions []*dbmodel.Subscription
	err := query.Order("id").Find(&subscriptions).Error
	if err != nil {
		log.Error("GetForEvent failed",
			zap.String("notification", notification),
			zap.String("project_id", projectID),
			zap.Error(err))
		return nil, err
	}
	return subscriptions, nil
}

func (s *subscriptionDb) Delete(id int64) error {
	result := s.db.Where("id = ?", id).Delete(&dbmodel.Subscription{})
	if result.Error != nil {
		log.Error("delete subscription failed", zap.Int64("id", id), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrSubscriptionNotFound
	}
	return nil
}
