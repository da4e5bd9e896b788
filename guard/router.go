package guard

import (
	"context"
	"fmt"
	"sync"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/events"
)

const (
	navigatedTopic      = "guard:navigated"
	defaultMaxRedirects = 8
)

// Navigation describes a completed navigation.
type Navigation struct {
	From      string
	To        string
	Requested string
	// Redirects lists every guard redirect followed, in order.
	Redirects []Decision
}

// Router is a guarded navigator. It satisfies goSession.Navigator, so it can be handed to
// the Manager as the logout navigation target.
type Router struct {
	guard        *Guard
	maxRedirects int

	mu      sync.Mutex
	current string

	navigated *events.Topic[Navigation]
}

// NewRouter returns a Router with no current location.
func NewRouter(g *Guard) *Router {
	return &Router{guard: g, maxRedirects: defaultMaxRedirects, navigated: events.NewTopic[Navigation](navigatedTopic)}
}

// Current returns the last location navigated to.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate runs the guard for target and follows its redirects. It returns
// goSession.ErrNavigationDuplicated when the final location is the current one.
//
// The guard runs without the router's lock held: deciding may log the session out, which
// navigates again.
func (r *Router) Navigate(ctx context.Context, target string) error {
	requested := cleanPath(target)
	nav := Navigation{Requested: requested}
	seen := map[string]bool{}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := r.guard.Decide(ctx, target)
		if d.Allowed() {
			target = d.Path
			break
		}
		nav.Redirects = append(nav.Redirects, d)
		if seen[d.Redirect] || len(nav.Redirects) > r.maxRedirects {
			return fmt.Errorf("%w: %s", ErrRedirectLoop, requested)
		}
		seen[d.Path] = true
		seen[d.Redirect] = true
		target = d.Redirect
	}

	r.mu.Lock()
	if target == r.current {
		r.mu.Unlock()
		return goSession.ErrNavigationDuplicated
	}
	nav.From, nav.To = r.current, target
	r.current = target
	r.mu.Unlock()

	r.navigated.Publish(nav)
	return nil
}

// OnNavigate registers fn for every completed navigation. fn may navigate again; that
// navigation is reported after the current one. The returned function stops delivery.
func (r *Router) OnNavigate(fn func(Navigation)) (func(), error) {
	return r.navigated.Subscribe(fn)
}
