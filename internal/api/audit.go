package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-alexa/internal/audit"
)

// handleListAuditLogs returns paginated directive audit entries with
// optional filters.
//
// Query parameters:
//   - namespace: filter by directive namespace (Alexa.PowerController, ...)
//   - endpoint_id: filter by endpoint
//   - outcome: success, error or ignored
//   - since: RFC3339 lower bound on the entry time
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Namespace:  q.Get("namespace"),
		EndpointID: q.Get("endpoint_id"),
		Outcome:    q.Get("outcome"),
	}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC3339 timestamp")
			return
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
