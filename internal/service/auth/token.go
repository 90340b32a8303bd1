package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

const AccessToken = "access"

var ErrExpToken = errors.New("expired token")

// Claims of an access token issued by the auth service.
type Claims struct {
	TokenType string `json:"typ"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService verifies HS256 access tokens. Issuing lives in the auth
// service; Sign exists for operators and tests.
type TokenService struct {
	secret    []byte
	AccessTTL time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		AccessTTL: accessTTL,
		now:       time.Now,
	}
}

// Sign issues an access token for the user.
func (s *TokenService) Sign(ctx context.Context, user models.User) (string, time.Time, error) {
	ctx = wrap.WithAction(ctx, "sign_token")

	if user.ID == "" || !validRole(user.Role) {
		return "", time.Time{}, wrap.Error(ctx, fmt.Errorf("%w: user id and role required", types.ErrInvalidInput))
	}

	issuedAt := s.now().UTC()
	exp := issuedAt.Add(s.AccessTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TokenType: AccessToken,
		Role:      user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, wrap.Error(ctx, err)
	}
	return signed, exp, nil
}

// Verify validates the token and returns the user it was issued to.
func (s *TokenService) Verify(ctx context.Context, token string) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrap.Error(ctx, ErrExpToken)
		}
		return nil, wrap.Error(ctx, types.ErrInvalidToken)
	}
	if !parsed.Valid || claims.TokenType != AccessToken || claims.Subject == "" {
		return nil, wrap.Error(ctx, types.ErrInvalidToken)
	}

	role := types.UserRole(claims.Role)
	if !validRole(role) {
		return nil, wrap.Error(ctx, types.ErrInvalidToken)
	}

	return &models.User{ID: claims.Subject, Role: role}, nil
}

func validRole(r types.UserRole) bool {
	switch r {
	case types.RolePassenger, types.RoleDriver, types.RoleAdmin:
		return true
	default:
		return false
	}
}
