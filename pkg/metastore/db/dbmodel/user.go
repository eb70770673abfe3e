package dbmodel

type User struct {
	ID       string `gorm:"id;primaryKey"`
	Email    string `gorm:"email"`
	FullName string `gorm:"full_name"`
}

func (User) TableName() string {
	return "users"
}

type UserLanguage struct {
	UserID   string `gorm:"user_id;primaryKey"`
	Language string `gorm:"language;primaryKey"`
}

func (UserLanguage) TableName() string {
	return "user_languages"
}

type ProjectWatch struct {
	UserID    string `gorm:"user_id;primaryKey"`
	ProjectID string `gorm:"project_id;primaryKey"`
}

func (ProjectWatch) TableName() string {
	return "project_watches"
}

type ProjectAdmin struct {
	UserID    string `gorm:"user_id;primaryKey"`
	ProjectID string `gorm:"project_id;primaryKey"`
}

func (ProjectAdmin) TableName() string {
	return "project_admins"
}

//go:generate mockery --name=IUserDb
type IUserDb interface {
	DeleteAll() error
	Insert(in *User) error
	Get(id string) (*User, error)
}

//go:generate mockery --name=IRelationDb
type IRelationDb interface {
	DeleteAll() error
	AddWatch(userID string, projectID string) error
	RemoveWatch(userID string, projectID string) error
	GetWatchers(projectID string) ([]string, error)
	AddAdmin(userID string, projectID string) error
	RemoveAdmin(userID string, projectID string) error
	GetAdmins(projectID string) ([]string, error)
	SetLanguages(userID string, languages []string) error
	GetLanguages(userID string) ([]string, error)
}
