package dao

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/textweave/notifier/pkg/metastore/db/dbmodel"
)

type relationDb struct {
	db *gorm.DB
}

var _ dbmodel.IRelationDb = &relationDb{}

func (s *relationDb) DeleteAll() error {
	if err := s.db.Where("1 = 1").Delete(&dbmodel.ProjectWatch{}).Error; err != nil {
		return err
	}
	if err := s.db.Where("1 = 1").Delete(&dbmodel.ProjectAdmin{}).Error; err != nil {
		return err
	}
	return s.db.Where("1 = 1").Delete(&dbmodel.UserLanguage{}).Error
}

func (s *relationDb) AddWatch(userID string, projectID string) error {
	watch := &dbmodel.ProjectWatch{UserID: userID, ProjectID: projectID}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(watch).Error
	if err != nil {
		log.Error("add watch failed", zap.String("user_id", userID), zap.String("project_id", projectID), zap.Error(err))
	}
	return err
}

func (s *relationDb) RemoveWatch(userID string, projectID string) error {
	return s.db.Where("user_id = ?", userID).Where("project_id = ?", projectID).Delete(&dbmodel.ProjectWatch{}).Error
}

func (s *relationDb) GetWatchers(projectID string) ([]string, error) {
	var userIDs []string
	err := s.db.Model(&dbmodel.ProjectWatch{}).Where("project_id = ?", projectID).Pluck("user_id", &userIDs).Error
	if err != nil {
		log.Error("get watchers failed", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return userIDs, nil
}

func (s *relationDb) AddAdmin(userID string, projectID string) error {
	admin := &dbmodel.ProjectAdmin{UserID: userID, ProjectID: projectID}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(admin).Error
	if err != nil {
		log.Error("add admin failed", zap.String("user_id", userID), zap.String("project_id", projectID), zap.Error(err))
	}
	return err
}

func (s *relationDb) RemoveAdmin(userID string, projectID string) error {
	return s.db.Where("user_id = ?", userID).Where("project_id = ?", projectID).Delete(&dbmodel.ProjectAdmin{}).Error
}

func (s *relationDb) GetAdmins(projectID string) ([]string, error) {
	var userIDs []string
	err := s.db.Model(&dbmodel.ProjectAdmin{}).Where("project_id = ?", projectID).Pluck("user_id", &userIDs).Error
	if err != nil {
		log.Error("get admins failed", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	return userIDs, nil
}

func (s *relationDb) SetLanguages(userID string, languages []string) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&dbmodel.UserLanguage{}).Error; err != nil {
		return err
	}
	if len(languages) == 0 {
		return nil
	}
	rows := make([]dbmodel.UserLanguage, 0, len(languages))
	for _, language := range languages {
		rows = append(rows, dbmodel.UserLanguage{UserID: userID, Language: language})
	}
	return s.db.Create(&rows).Error
}

func (s *relationDb) GetLanguages(userID string) ([]string, error) {
	var languages []string
	err := s.db.Model(&dbmodel.UserLanguage{}).Where("user_id = ?", userID).Pluck("language", &languages).Error
	if err != nil {
		log.Error("get languages failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return languages, nil
}
