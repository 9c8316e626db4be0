package handler

import "net/http"

// Register mounts the API on mux. tickets may be nil.
func Register(mux *http.ServeMux, pastes *PasteHandler, tickets *TicketHandler) {
	mux.HandleFunc("GET /health", pastes.HealthCheck)

	mux.HandleFunc("POST /api/documents", pastes.CreateDocument)
	mux.HandleFunc("GET /api/documents/{path...}", pastes.GetDocument)
	mux.HandleFunc("DELETE /api/documents/{path...}", pastes.DeleteDocument)
	mux.HandleFunc("GET /api/history/{key...}", pastes.ListRevisions)
	mux.HandleFunc("POST /api/revisions/{key...}", pastes.AppendRevision)
	mux.HandleFunc("POST /api/forks/{path...}", pastes.Fork)
	mux.HandleFunc("GET /api/people/{name}/documents", pastes.ListByAuthor)

	if tickets != nil {
		mux.HandleFunc("POST /debug/api/tickets", tickets.IssueTicket)
	}
}
