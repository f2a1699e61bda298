package router

import (
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/shandysiswandi/gotp/internal/pkg/config"
)

// middlewareMaintenance answers 503 for the route patterns listed in
// app.maintenance.endpoints, e.g. "/api/v1/otp/request".
func middlewareMaintenance(cfg config.Config) Middleware {
	var routes map[string]struct{}
	if cfg != nil {
		patterns := lo.Compact(lo.Map(cfg.GetArray("app.maintenance.endpoints"), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
		routes = lo.Keyify(patterns)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, down := routes[matchedRoutePath(r)]; down {
				writeJSON(w, errorResponse{Message: "OTP service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
