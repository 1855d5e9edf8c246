package users

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("users: not found")

// User — учётка для входа. Пароль хранится только как bcrypt-хэш.
type User struct {
	ID           int64
	Username     string
	PasswordHash string `json:"-"`
	Admin        bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Store interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Set создаёт учётку или перезаписывает пароль/флаг админа.
	Set(ctx context.Context, username, passwordHash string, admin bool) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
}
