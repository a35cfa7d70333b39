package api

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/guestbook/internal/guestbook"
)

const (
	pageErrorMessage    = "Internal server error while processing the request."
	entriesErrorMessage = "failed to fetch guestbook entries"
)

type entryResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Visits    int64  `json:"visits"`
	Timestamp string `json:"timestamp"`
}

// page records a visit for the requested email and renders every entry.
func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	email := guestbook.EmailOrDefault(r.URL.Query().Get("email"))

	entries, err := s.store.RecordVisitAndList(r.Context(), email)
	if err != nil {
		s.logger.Error("failed to process guestbook request",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("email", email),
			zap.Error(err),
		)
		http.Error(w, pageErrorMessage, http.StatusInternalServerError)
		return
	}
	s.logger.Info("guestbook entry recorded", zap.String("email", email))

	var buf bytes.Buffer
	if err := renderPage(&buf, entries); err != nil {
		s.logger.Error("failed to render guestbook page",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		http.Error(w, pageErrorMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("write page failed", zap.Error(err))
	}
}

// listEntries returns every entry as JSON; it never records a visit.
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries(r.Context())
	if err != nil {
		s.logger.Error("failed to list guestbook entries",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err),
		)
		writeError(s.logger, w, http.StatusInternalServerError, entriesErrorMessage)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, toEntryResponses(entries))
}

func toEntryResponses(entries []guestbook.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:        e.ID,
			Email:     e.Email,
			Visits:    e.Visits,
			Timestamp: guestbook.FormatLocal(e.Timestamp),
		})
	}
	return out
}
