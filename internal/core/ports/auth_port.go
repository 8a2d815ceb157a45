package ports

import "github.com/ridenrent/vehicle_rental_service/internal/core/domain"

type TokenService interface {
	IssueToken(user *domain.User) (string, error)
	VerifyToken(token string) (*domain.TokenPayload, error)
}
