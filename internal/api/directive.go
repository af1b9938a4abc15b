package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
)

// handleDirective decodes one Alexa directive, dispatches it and writes the
// response event. Ignored directives get 204 with no body.
func (s *Server) handleDirective(w http.ResponseWriter, r *http.Request) {
	var req alexa.Request
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "directive too large")
			return
		}
		writeBadRequest(w, "invalid directive JSON")
		return
	}

	h := req.Directive.Header
	if h.Namespace == "" || h.Name == "" {
		writeBadRequest(w, "directive header requires namespace and name")
		return
	}
	if h.PayloadVersion != "" && h.PayloadVersion != alexa.PayloadVersion {
		writeBadRequest(w, "unsupported payloadVersion "+h.PayloadVersion)
		return
	}

	resp := s.dispatcher.Handle(r.Context(), req)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
