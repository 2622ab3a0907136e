package ports

import (
	"context"

	"resale-pricing-server/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByUUID(ctx context.Context, uuid string) (*model.User, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	Exists(ctx context.Context, login string) (bool, error)
}

type UserService interface {
	Register(ctx context.Context, login, password, userAgent, ipAddress, fingerprint string) (*model.User, *model.TokensPair, error)
}
