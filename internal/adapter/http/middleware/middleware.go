package middleware

import (
	"context"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/pkg/logger"
)

type (
	TokenVerifier interface {
		Verify(ctx context.Context, token string) (*models.User, error)
	}

	Middleware struct {
		auth TokenVerifier
		log  logger.Logger
	}
)

func NewMiddleware(auth TokenVerifier, log logger.Logger) *Middleware {
	return &Middleware{
		auth: auth,
		log:  log,
	}
}
