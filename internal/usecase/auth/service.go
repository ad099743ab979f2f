package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kailas-cloud/moviemaster/internal/domain"
	domuser "github.com/kailas-cloud/moviemaster/internal/domain/user"
	"github.com/kailas-cloud/moviemaster/internal/validation"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=100"`
}

// LoginInput is a sign-in request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// Token is an issued bearer token.
type Token struct {
	Token     string
	ExpiresAt time.Time
	User      domuser.Identity
}

// Config holds token and hashing settings.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Service registers users, issues HS256 tokens and verifies them.
type Service struct {
	repo   Repository
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// New creates an auth service. An empty secret is rejected.
func New(repo Repository, cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:   repo,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TokenTTL,
		cost:   cfg.BcryptCost,
		now:    time.Now,
	}, nil
}

// Register creates an account. Returns domain.ErrAlreadyExists for a taken email.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domuser.User, error) {
	if err := validation.Struct(in); err != nil {
		return domuser.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domuser.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := domuser.New(uuid.NewString(), in.Email, in.Name, hash, s.now())
	if err != nil {
		return domuser.User{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return domuser.User{}, fmt.Errorf("register: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords both return domain.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, in LoginInput) (Token, error) {
	if err := validation.Struct(in); err != nil {
		return Token{}, err
	}

	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Token{}, errInvalidCredentials
		}
		return Token{}, fmt.Errorf("login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash(), []byte(in.Password)); err != nil {
		return Token{}, errInvalidCredentials
	}

	return s.issue(u)
}

func (s *Service) issue(u domuser.User) (Token, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	c := claims{
		Email: u.Email(),
		Name:  u.Name(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{
		Token:     signed,
		ExpiresAt: exp,
		User:      domuser.Identity{UserID: u.ID(), Email: u.Email(), Name: u.Name()},
	}, nil
}

// Verify validates a bearer token and returns its identity.
func (s *Service) Verify(token string) (domuser.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return domuser.Identity{}, fmt.Errorf("verify token: %w: %w", domain.ErrUnauthorized, err)
	}
	if c.Subject == "" {
		return domuser.Identity{}, fmt.Errorf("token has no subject: %w", domain.ErrUnauthorized)
	}
	return domuser.Identity{UserID: c.Subject, Email: c.Email, Name: c.Name}, nil
}
