package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// otpTTL bounds how long a one-time login code stays valid. Codes are
// single-use: verification consumes the entry.
const otpTTL = 5 * time.Minute

type UserService struct {
	userRepo ports.UserRepository
	tokens   ports.TokenService
	logger   ports.LoggerPort
	validate *validator.Validate
	cache    ports.CachePort
}

func NewUserService(
	userRepo ports.UserRepository,
	tokens ports.TokenService,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		validate: validate,
		cache:    cache,
	}
}

func (s *UserService) Register(ctx context.Context, user *domain.User, password string) (*domain.User, string, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = domain.AppUser
	}

	if err := s.validate.Struct(user); err != nil {
		s.logger.Error("User validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, "", fmt.Errorf("validation error: %w", err)
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("validation error: password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}

	created, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("Failed to create user", map[string]interface{}{
			"error": err.Error(),
			"email": user.Email,
		})
		return nil, "", err
	}

	token, err := s.tokens.IssueToken(created)
	if err != nil {
		s.logger.Error("Failed to issue token", map[string]interface{}{
			"error":   err.Error(),
			"user_id": created.UserID,
		})
		return nil, "", err
	}

	s.logger.Info("User registered", map[string]interface{}{
		"user_id": created.UserID,
	})

	return created, token, nil
}

func (s *UserService) LoginWithEmail(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// same error whether the account is missing or the password is wrong
		return nil, "", domain.ErrInvalidCredentials
	}
	return s.finishPasswordLogin(user, password)
}

func (s *UserService) LoginWithPhone(ctx context.Context, phone, password string) (*domain.User, string, error) {
	user, err := s.userRepo.GetUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	return s.finishPasswordLogin(user, password)
}

func (s *UserService) finishPasswordLogin(user *domain.User, password string) (*domain.User, string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Failed login attempt", map[string]interface{}{
			"user_id": user.UserID,
		})
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user)
	if err != nil {
		s.logger.Error("Failed to issue token", map[string]interface{}{
			"error":   err.Error(),
			"user_id": user.UserID,
		})
		return nil, "", err
	}

	return user, token, nil
}

// SendOTP stores a fresh one-time code for the phone with a short TTL. The
// result is the same whether or not an account exists for the phone, so the
// endpoint cannot be used to enumerate registered numbers.
func (s *UserService) SendOTP(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("validation error: phone is required")
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.cache.Set(otpKey(phone), []byte(code), otpTTL); err != nil {
		s.logger.Error("Failed to store OTP", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	// Stand-in for an SMS provider: the code only shows up in server logs.
	s.logger.Info("OTP issued", map[string]interface{}{
		"phone": phone,
		"code":  code,
	})

	return nil
}

// VerifyOTP consumes the stored code and logs the caller in, creating an
// account keyed on the phone number the first time around.
func (s *UserService) VerifyOTP(ctx context.Context, phone, code string) (*domain.User, string, error) {
	phone = strings.TrimSpace(phone)

	stored, err := s.cache.GetDel(otpKey(phone))
	if err != nil || string(stored) != code || code == "" {
		s.logger.Warn("OTP verification failed", map[string]interface{}{
			"phone": phone,
		})
		return nil, "", domain.ErrInvalidOTP
	}

	user, err := s.userRepo.GetUserByPhone(ctx, phone)
	if err != nil {
		user = &domain.User{
			UserID:    uuid.New(),
			FirstName: phone,
			LastName:  "-",
			Email:     fmt.Sprintf("%s@phone.local", phone),
			Phone:     phone,
			Role:      domain.AppUser,
		}
		user, err = s.userRepo.CreateUser(ctx, user)
		if err != nil {
			s.logger.Error("Failed to create user from OTP login", map[string]interface{}{
				"error": err.Error(),
			})
			return nil, "", err
		}
		s.logger.Info("User created via OTP login", map[string]interface{}{
			"user_id": user.UserID,
		})
	}

	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *UserService) AddPhone(ctx context.Context, userID uuid.UUID, phone string) (*domain.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("validation error: phone is required")
	}

	if existing, err := s.userRepo.GetUserByPhone(ctx, phone); err == nil && existing.UserID != userID {
		return nil, domain.ErrPhoneTaken
	}

	updated, err := s.userRepo.UpdatePhone(ctx, userID, phone)
	if err != nil {
		s.logger.Error("Failed to update phone", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	s.logger.Info("Phone added to account", map[string]interface{}{
		"user_id": userID,
	})

	return updated, nil
}

func otpKey(phone string) string {
	return fmt.Sprintf("otp:%s", phone)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
