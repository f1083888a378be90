package kit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiRoutePatternOrPath keeps metric label cardinality bounded by preferring
// the matched route pattern over the raw request path.
func ChiRoutePatternOrPath(r *http.Request) string {
	if rp := chi.RouteContext(r.Context()).RoutePattern(); rp != "" {
		return rp
	}
	return r.URL.Path
}
