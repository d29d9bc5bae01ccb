package query

import (
	"net/http"
	"strings"

	"github.com/RezaEskandarii/scribeflow/internal/identity"
	"go.uber.org/zap"
)

// HTTPHandler serves the router over net/http. Bearer tokens are verified
// here and their subject is passed on as an authorizer claim.
type HTTPHandler struct {
	router   *Router
	verifier *identity.TokenVerifier
	logger   *zap.Logger
}

func NewHTTPHandler(router *Router, verifier *identity.TokenVerifier, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{router: router, verifier: verifier, logger: logger}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	resp := h.router.Route(r.Context(), Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Source: identity.Source{Params: params, Claims: h.claims(r)},
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.JSON()); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *HTTPHandler) claims(r *http.Request) map[string]string {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || h.verifier == nil {
		return nil
	}
	sub, err := h.verifier.Subject(r.Context(), strings.TrimSpace(raw))
	if err != nil {
		h.logger.Warn("rejected bearer token", zap.Error(err))
		return nil
	}
	return map[string]string{identity.SubjectClaim: sub}
}
