package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sharebook_backend/internals/constants"
	"sharebook_backend/internals/features/users/user/dto"
	"sharebook_backend/internals/features/users/user/model"
	"sharebook_backend/internals/helpers/apperror"
)

// ErrInvalidCredentials is returned by Login for unknown e-mails and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid e-mail or password")

type Users interface {
	FindByEmail(ctx context.Context, email string) (*model.UserModel, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.UserModel, error)
	Create(ctx context.Context, u *model.UserModel) error
	CreateIfAbsent(ctx context.Context, u *model.UserModel) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, u *model.UserModel) error
}

type AuthService struct {
	users  Users
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(users Users, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Session is what a successful login hands back.
type Session struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	User        *model.UserModel `json:"user"`
}

/* ==========================
   REGISTER / LOGIN
========================== */

func (s *AuthService) Register(ctx context.Context, in dto.RegisterRequest) (*model.UserModel, error) {
	in.Normalize()
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := in.ToModel()
	u.Password = hash
	if err := s.users.Create(ctx, u); err != nil {
		if apperror.IsConflict(err) {
			return nil, apperror.Conflict("e-mail %s is already registered", in.Email)
		}
		return nil, err
	}
	logger.Infof("[AUTH] user %s registered", u.ID)
	return u.Cleanup(), nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, dto.NormalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := CheckPassword(u.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, apperror.Forbidden("your account has been deactivated, contact an administrator")
	}

	token, exp, err := s.IssueToken(u)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: token, ExpiresAt: exp, User: u.Cleanup()}, nil
}

// IssueToken signs an HS256 access token carrying id, role and user_name.
func (s *AuthService) IssueToken(u *model.UserModel) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("JWT secret is not configured")
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"id":        u.ID.String(),
		"role":      u.Role,
		"user_name": u.Name,
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

/* ==========================
   PROFILE
========================== */

func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*model.UserModel, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return u.Cleanup(), nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, in dto.UpdateProfileRequest) (*model.UserModel, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	in.ApplyTo(u)
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u.Cleanup(), nil
}

func (s *AuthService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("user not found")
	}
	if err != nil {
		return err
	}
	if err := CheckPassword(u.Password, current); err != nil {
		return apperror.BadRequest("current password is incorrect")
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

/* ==========================
   ADMIN SEED
========================== */

// SeedAdmin creates the first administrator when the e-mail is not taken yet.
// Empty credentials disable seeding.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	email = dto.NormalizeEmail(email)
	if email == "" || password == "" {
		logger.Warningf("[AUTH] ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u := &model.UserModel{
		Name:              "Administrador",
		Email:             email,
		Password:          hash,
		Role:              constants.RoleAdmin,
		IsActive:          true,
		AllowSendingEmail: true,
	}
	created, err := s.users.CreateIfAbsent(ctx, u)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Infof("[AUTH] admin %s created", email)
	}
	return nil
}

/* ==========================
   PASSWORDS
========================== */

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
