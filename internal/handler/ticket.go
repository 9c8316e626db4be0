package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pastedown/internal/domain"
	pasteSvc "pastedown/internal/domain/services/paste"
	"pastedown/internal/httputil"
)

// TicketHandler issues login tickets straight from the directory. Only
// mounted in dev; real deployments get tickets from their identity provider.
type TicketHandler struct {
	people pasteSvc.IdentityDirectory
	issuer pasteSvc.TicketIssuer
	ttl    time.Duration
	logger *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(people pasteSvc.IdentityDirectory, issuer pasteSvc.TicketIssuer, ttl time.Duration, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{people: people, issuer: issuer, ttl: ttl, logger: logger}
}

// IssueTicket
// POST /debug/api/tickets
func (h *TicketHandler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var req TicketRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 64)),
	); err != nil {
		handleError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	person, err := h.people.Find(r.Context(), req.Name)
	if err != nil {
		handleError(w, err)
		return
	}

	ticket, err := h.issuer.IssueTicket(person, h.ttl)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("ticket issued", "name", person.Name)
	httputil.RespondJSON(w, http.StatusOK, TicketResponse{
		Ticket:    ticket,
		ExpiresAt: time.Now().Add(h.ttl),
	})
}
