package entity

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей
const (
	RoleAdmin  = "ADMIN"
	RolePlayer = "PLAYER"
)

// User представляет пользователя системы
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Скрыто от клиента
	Role         string    `gorm:"size:20;not null;default:'PLAYER'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
