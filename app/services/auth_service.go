package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"inkwell/app/models"
	"inkwell/app/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is an access/refresh token set issued at login, register
// and refresh time.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// tokenClaims is the JWT payload: the user in Subject, a uuid in ID for
// the blacklist, and the token type to keep access and refresh tokens
// from being swapped for each other.
type tokenClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and token lifecycle. Refresh
// tokens are revoked by blacklisting their jti until expiry.
type AuthService struct {
	userRepo   repositories.UserRepository
	tokenRepo  repositories.TokenRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, secret []byte, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates a new account and returns it with a token pair
func (s *AuthService) Register(username, email, password string) (*models.User, *TokenPair, error) {
	if len(password) < minPasswordLen {
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     SanitizeText(username),
		Email:        SanitizeText(email),
		PasswordHash: string(hash),
	}
	user.BeforeCreate()
	if err := user.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, nil, fmt.Errorf("%w: username or email already registered", ErrValidation)
		}
		return nil, nil, err
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login verifies credentials and returns the user with a token pair
func (s *AuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, nil, fmt.Errorf("%w: account is inactive", ErrInvalidCredentials)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// VerifyAccess resolves an access token to its user
func (s *AuthService) VerifyAccess(token string) (*models.User, error) {
	claims, err := s.parse(token, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: account is inactive", ErrInvalidCredentials)
	}
	return user, nil
}

// Refresh rotates a refresh token: the old one is blacklisted and a
// fresh pair is issued. A blacklisted or expired token fails.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	denied, err := s.tokenRepo.IsDenied(claims.ID)
	if err != nil {
		return nil, err
	}
	if denied {
		return nil, fmt.Errorf("%w: refresh token has been revoked", ErrInvalidCredentials)
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.tokenRepo.Deny(claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return nil, err
	}
	return s.issuePair(user)
}

// Logout blacklists a refresh token. An already invalid token is fine:
// the client ends up logged out either way.
func (s *AuthService) Logout(refreshToken string) error {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil
	}
	return s.tokenRepo.Deny(claims.ID, time.Until(claims.ExpiresAt.Time))
}

func (s *AuthService) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.sign(user, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *AuthService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return signed, nil
}

func (s *AuthService) parse(token, wantType string) (*tokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%w: wrong token type", ErrInvalidCredentials)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: token has no expiry", ErrInvalidCredentials)
	}
	return &claims, nil
}
