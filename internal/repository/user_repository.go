package repository

import (
	"context"
	"database/sql"
	"errors"

	"resale-pricing-server/config"
	"resale-pricing-server/internal/model"
	"resale-pricing-server/internal/util"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// CreateUser : сохраняет нового пользователя
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (uuid, login, password_hash)
	VALUES ($1, $2, $3)
	RETURNING uuid, login, created_at
	`

	createdUser := &model.User{}
	err := r.DB.QueryRowxContext(ctx, query, user.UUID, user.Login, user.PasswordHash).
		Scan(&createdUser.UUID, &createdUser.Login, &createdUser.CreatedAt)

	if err != nil {
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByUUID : ищет пользователя по UUID
func (r *UserRepository) FindByUUID(ctx context.Context, uuid string) (*model.User, error) {
	query := `SELECT uuid, login, password_hash, created_at FROM users WHERE uuid = $1`
	var user model.User
	err := sqlx.GetContext(ctx, r.DB, &user, query, uuid)
	if err != nil {
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

// FindByLogin : ищет пользователя по login.
// Возвращает nil без ошибки, если пользователя нет
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	query := `SELECT uuid, login, password_hash, created_at FROM users WHERE login = $1`
	var user model.User
	err := sqlx.GetContext(ctx, r.DB, &user, query, login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя по login", err)
	}
	return &user, nil
}

// Exists : проверяет, существует ли пользователь с таким login
func (r *UserRepository) Exists(ctx context.Context, login string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE login = $1)`
	err := sqlx.GetContext(ctx, r.DB, &exists, query, login)
	if err != nil {
		return false, util.LogError("[UserRepo] ошибка проверки существования пользователя", err)
	}
	return exists, nil
}
