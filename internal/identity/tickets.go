package identity

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
)

const ticketIssuer = "pastedown"

// TicketClaims are the claims of a login ticket; Subject is the person name
type TicketClaims struct {
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// HMACTickets issues and verifies HS256 login tickets
type HMACTickets struct {
	secret []byte
	now    func() time.Time
	logger *slog.Logger
}

// NewHMACTickets creates a ticket issuer/verifier with a shared secret
func NewHMACTickets(secret string, logger *slog.Logger) (*HMACTickets, error) {
	if len(secret) < 16 {
		return nil, errors.New("ticket secret must be at least 16 bytes")
	}
	return &HMACTickets{secret: []byte(secret), now: time.Now, logger: logger}, nil
}

// IssueTicket signs a ticket for person valid for ttl
func (h *HMACTickets) IssueTicket(person *models.Person, ttl time.Duration) (string, error) {
	if person == nil || person.Name == "" {
		return "", fmt.Errorf("%w: ticket needs a person", domain.ErrValidation)
	}

	now := h.now()
	claims := TicketClaims{
		DisplayName: person.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ticketIssuer,
			Subject:   person.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// VerifyTicket checks signature, issuer and expiry and returns the subject
func (h *HMACTickets) VerifyTicket(ticket string) (string, error) {
	token, err := jwt.ParseWithClaims(ticket, &TicketClaims{},
		func(*jwt.Token) (interface{}, error) { return h.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)
	if err != nil || !token.Valid {
		h.logger.Debug("ticket rejected", "error", err)
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}
	return claims.Subject, nil
}

// Close is a no-op
func (h *HMACTickets) Close() error { return nil }
