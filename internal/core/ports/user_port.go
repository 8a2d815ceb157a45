package ports

import (
	"context"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"

	"github.com/google/uuid"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, user_id uuid.UUID) (*domain.User, error)
	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	UpdatePhone(ctx context.Context, user_id uuid.UUID, phone string) (*domain.User, error)
}

type UserService interface {
	Register(ctx context.Context, user *domain.User, password string) (*domain.User, string, error)
	LoginWithEmail(ctx context.Context, email, password string) (*domain.User, string, error)
	LoginWithPhone(ctx context.Context, phone, password string) (*domain.User, string, error)
	SendOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*domain.User, string, error)
	AddPhone(ctx context.Context, user_id uuid.UUID, phone string) (*domain.User, error)
}
