package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"pastedown/internal/domain"
	pasteSvc "pastedown/internal/domain/services/paste"
	"pastedown/internal/httputil"
)

// Auth resolves "Authorization: Bearer <ticket>" to a person from the
// directory. Requests without the header continue anonymously; a header
// with a bad ticket, or a ticket naming no known person, is rejected.
func Auth(verifier pasteSvc.TicketVerifier, directory pasteSvc.IdentityDirectory, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			ticket, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || ticket == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "expected a bearer ticket")
				return
			}

			name, err := verifier.VerifyTicket(ticket)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid ticket")
				return
			}

			person, err := directory.Find(r.Context(), name)
			if err != nil {
				if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidation) {
					logger.Error("identity lookup failed", "name", name, "error", err)
					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
					return
				}
				logger.Warn("ticket for unknown person", "name", name)
				httputil.RespondError(w, http.StatusUnauthorized, "unknown person")
				return
			}

			next.ServeHTTP(w, httputil.WithPerson(r, person))
		})
	}
}
