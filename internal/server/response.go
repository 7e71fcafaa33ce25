package server

import (
	"encoding/json"
	"net/http"

	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2/gqlerror"

	executor "github.com/hanpama/membergraph/internal/executor"
	reqid "github.com/hanpama/membergraph/internal/reqid"
)

// rejected reports a document that failed parsing or validation. Nothing
// ran, so the response carries no data entry.
func rejected(errs gqlerror.List) *executor.ExecutionResult {
	return &executor.ExecutionResult{
		Aborted: true,
		Errors: lo.Map(errs, func(e *gqlerror.Error, _ int) executor.GraphQLError {
			return executor.GraphQLError{
				Message:    e.Message,
				Extensions: e.Extensions,
				Locations: lo.Map(e.Locations, func(l gqlerror.Location, _ int) executor.Location {
					return executor.Location{Line: l.Line, Column: l.Column}
				}),
			}
		}),
	}
}

func (h *Handler) write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

// allowOrigin sets the CORS response headers when the request's origin is
// permitted. Preflight requests also get the allowed methods and headers.
func (h *Handler) allowOrigin(w http.ResponseWriter, r *http.Request) {
	allowed := h.opt.CORS.AllowedOrigins
	origin := r.Header.Get("Origin")
	if len(allowed) == 0 || origin == "" {
		return
	}
	hdr := w.Header()
	switch {
	case lo.Contains(allowed, "*"):
		hdr.Set("Access-Control-Allow-Origin", "*")
	case lo.Contains(allowed, origin):
		hdr.Set("Access-Control-Allow-Origin", origin)
		hdr.Add("Vary", "Origin")
	default:
		return
	}
	hdr.Set("Access-Control-Expose-Headers", reqid.Header)
	if r.Method != http.MethodOptions {
		return
	}
	hdr.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
		hdr.Set("Access-Control-Allow-Headers", req)
	}
}
