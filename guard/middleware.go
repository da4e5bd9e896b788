package guard

import (
	"context"
	"net/http"
)

type decisionContextKey struct{}

// DecisionFromContext returns the decision attached by Middleware.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}

// Middleware applies the guard to inbound requests for server-rendered front ends.
// Redirect decisions answer 302 Found; allowed requests carry the Decision in their
// context.
func Middleware(g *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			d := g.Decide(r.Context(), r.URL.Path)
			if !d.Allowed() {
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), decisionContextKey{}, d)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
