package httpx

import (
	"net/http"
	"strings"
)

// RequireRole the caller must hold one of the listed roles.
func RequireRole(allowed ...string) Middleware {
	want := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		want[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromCtx(r.Context())
			if !ok {
				writeBearerRoleError(w, http.StatusForbidden, allowed...)
				return
			}

			if _, ok := want[role]; !ok {
				writeBearerRoleError(w, http.StatusForbidden, allowed...)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-style error response for callers lacking the required role.
func writeBearerRoleError(w http.ResponseWriter, code int, allowed ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_role", role="`+strings.Join(allowed, " ")+`"`)
	w.WriteHeader(code)
	_, _ = w.Write([]byte("insufficient_role"))
}
