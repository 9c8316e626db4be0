package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"pastedown/internal/domain"
)

// JWKSVerifier verifies tickets issued by an external identity provider,
// with public keys fetched from its JWKS endpoint.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewJWKSVerifier creates a verifier. The key set is cached and refreshed
// in the background until Close.
func NewJWKSVerifier(jwksURL string, logger *slog.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWKS ticket verifier initialized", "jwks_url", jwksURL)
	return newJWKSVerifier(jwks, cancel, logger), nil
}

func newJWKSVerifier(jwks keyfunc.Keyfunc, cancel context.CancelFunc, logger *slog.Logger) *JWKSVerifier {
	return &JWKSVerifier{jwks: jwks, cancel: cancel, logger: logger}
}

// VerifyTicket validates a ticket and returns its subject
func (v *JWKSVerifier) VerifyTicket(ticket string) (string, error) {
	// Only asymmetric algorithms; an HS256 ticket signed with a public key
	// must not pass.
	token, err := jwt.ParseWithClaims(ticket, &jwt.RegisteredClaims{}, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		v.logger.Debug("ticket rejected", "error", err)
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		v.logger.Debug("ticket missing subject claim")
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}

// Close stops the background key refresh
func (v *JWKSVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWKS ticket verifier closed")
	return nil
}
