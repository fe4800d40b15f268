// Package auth handles accounts: registration, login and the bearer tokens
// that identify a user on later requests.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/apperr"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

var ErrInvalidToken = errors.New("invalid token")

type Users interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type Service struct {
	users     Users
	secret    []byte
	accessTTL time.Duration
	cost      int
	log       zerolog.Logger
}

func NewService(users Users, secret string, accessTTL time.Duration, bcryptCost int, log zerolog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:     users,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		cost:      bcryptCost,
		log:       log.With().Str("component", "auth").Logger(),
	}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Address         string
}

type ProfilePatch struct {
	Username *string
	Email    *string
	Password *string
	Phone    *string
	Address  *string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if in.Password != in.ConfirmPassword {
		return models.User{}, apperr.Validation("Passwords do not match")
	}
	email := normalizeEmail(in.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now()
	user := models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Address:      in.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, apperr.Conflict("Email already registered", err)
		}
		return models.User{}, err
	}
	s.log.Info().Str("userId", user.ID.Hex()).Msg("user registered")
	return user, nil
}

// Login checks the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, "", apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn().Str("userId", user.ID.Hex()).Msg("login with wrong password")
		return models.User{}, "", apperr.Validation("Wrong password")
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) IssueToken(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"userId":   user.ID.Hex(),
		"username": user.Username,
		"exp":      time.Now().Add(s.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies the signature and expiry and returns the userId claim.
func (s *Service) ParseToken(raw string) (primitive.ObjectID, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return primitive.NilObjectID, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, ErrInvalidToken
	}
	userID, _ := claims["userId"].(string)
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(userID))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidToken
	}
	return id, nil
}

func (s *Service) Profile(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.NotFound("User not found")
	}
	return user, err
}

// UpdateProfile lets a user edit their own account. A new password is hashed
// before it is stored.
func (s *Service) UpdateProfile(ctx context.Context, callerID, id primitive.ObjectID, p ProfilePatch) (models.User, error) {
	if callerID != id {
		return models.User{}, apperr.Forbidden("You can only update your own account")
	}
	user, err := s.Profile(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if p.Username != nil {
		user.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		user.Email = normalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		user.Phone = *p.Phone
	}
	if p.Address != nil {
		user.Address = *p.Address
	}
	if p.Password != nil && *p.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), s.cost)
		if err != nil {
			return models.User{}, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.users.Update(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, apperr.Conflict("Email already registered", err)
		}
		return models.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
