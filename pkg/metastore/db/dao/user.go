package dao

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/textweave/notifier/pkg/common"
	"github.com/textweave/notifier/pkg/metastore/db/dbmodel"
)

type userDb struct {
	db *gorm.DB
}

var _ dbmodel.IUserDb = &userDb{}

func (s *userDb) DeleteAll() error {
	return s.db.Where("1 = 1").Delete(&dbmodel.User{}).Error
}

func (s *userDb) Insert(in *dbmodel.User) error {
	err := s.db.Create(in).Error
	if err != nil {
		log.Error("insert user failed", zap.Error(err))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrUserUniqueConstraintViolation
		}
		var pgErr *pgconn.PgError
		ok := errors.As(err, &pgErr)
		if ok {
			log.Error("Postgres Error")
			switch pgErr.Code {
			case "23505":
				log.Error("user already exists")
				return common.ErrUserUniqueConstraintViolation
			default:
				return err
			}
		}
		return err
	}
	return nil
}

func (s *userDb) Get(id string) (*dbmodel.User, error) {
	var user dbmodel.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Error("get user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &user, nil
}
