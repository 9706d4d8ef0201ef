package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequireTenant refuses requests that reached an authenticated group without
// a tenant id in context. Every row in the store is tenant-scoped, so a
// request with no tenant has nothing it may touch.
func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid, ok := TenantIDFromContext(r.Context())
			if !ok || tid == uuid.Nil {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"request is not bound to a tenant"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
