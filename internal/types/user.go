package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	UserRoleEmployee = "employee"
	UserRoleAdmin    = "admin"
)

type User struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName    string          `gorm:"column:first_name;not null" json:"first_name"`
	LastName     string          `gorm:"column:last_name;not null" json:"last_name"`
	Email        string          `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Password     string          `gorm:"column:password;not null" json:"-"`
	Role         string          `gorm:"column:role;not null;default:employee" json:"role"`
	TotalDonated decimal.Decimal `gorm:"column:total_donated;type:numeric(12,2);not null;default:0" json:"total_donated"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
