package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"vermicompost_monitor/internal/repository"
)

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSignUpClosed    = errors.New("sign-up closed")
)

// AuthOptions configures token issuance and operator enrolment.
// With an empty SignupKey only the first operator may enrol.
type AuthOptions struct {
	SigningKey string
	TokenTTL   time.Duration
	DeviceID   string
	SignupKey  string
}

// AuthService handles operator sign-up and JWT issuance.
type AuthService struct {
	authRepo   repository.Authorization
	signingKey []byte
	tokenTTL   time.Duration
	deviceID   string
	signupKey  string

	enrolMu sync.Mutex
}

func NewAuthService(repo repository.Authorization, opts AuthOptions) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	return &AuthService{
		authRepo:   repo,
		signingKey: []byte(opts.SigningKey),
		tokenTTL:   opts.TokenTTL,
		deviceID:   opts.DeviceID,
		signupKey:  opts.SignupKey,
	}
}

// SignUp hashes password and creates a new operator. Enrolment needs the
// configured signup key, or an empty operator table when none is set.
func (s *AuthService) SignUp(username, password, signupKey string) (int, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}

	s.enrolMu.Lock()
	defer s.enrolMu.Unlock()
	if err := s.admit(signupKey); err != nil {
		return 0, err
	}
	return s.authRepo.Create(username, hash)
}

func (s *AuthService) admit(signupKey string) error {
	if s.signupKey != "" {
		if subtle.ConstantTimeCompare([]byte(signupKey), []byte(s.signupKey)) != 1 {
			return ErrSignUpClosed
		}
		return nil
	}
	n, err := s.authRepo.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrSignUpClosed
	}
	return nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID   int    `json:"user_id"`
	DeviceID string `json:"device_id"`
}

// Identity is what a verified token asserts.
type Identity struct {
	OperatorID int
	DeviceID   string
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(username, password string) (string, error) {
	u, err := s.authRepo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}

	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}

	return s.issueToken(u.ID)
}

// ParseToken verifies a JWT and returns the operator and device it was issued for
func (s *AuthService) ParseToken(accessToken string) (Identity, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	return Identity{OperatorID: claims.UserID, DeviceID: claims.DeviceID}, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for an operator
func (s *AuthService) issueToken(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   userID,
		DeviceID: s.deviceID,
	})
	return token.SignedString(s.signingKey)
}
