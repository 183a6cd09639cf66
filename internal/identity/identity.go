// Package identity carries the authenticated user id resolved by the edge of
// the system. Sessions and tokens are handled upstream; services only see the
// X-User-ID header the gateway forwards.
package identity

import (
	"context"
	"net/http"
	"strconv"
)

// Header names the request header holding the caller's user id.
const Header = "X-User-ID"

type ctxKey struct{}

// WithUserID returns a copy of ctx carrying id.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID returns the caller's id, if one was attached.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok && id > 0
}

// Middleware attaches the user id from the X-User-ID header. Requests without
// a valid header pass through anonymously; handlers decide whether that is
// acceptable.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get(Header); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				r = r.WithContext(WithUserID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
