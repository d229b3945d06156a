package console

import (
	"sync"

	"github.com/jrsteele09/farma-console/session"
	"github.com/jrsteele09/farma-console/users"
	"github.com/rs/zerolog/log"
)

// SessionSource is what the router needs from the session manager
type SessionSource interface {
	Subscribe(fn func(session.State)) (cancel func())
}

// Router tracks the displayed route and guards protected routes with the
// session it last observed. It is the session.Navigator of the console.
type Router struct {
	mu      sync.Mutex
	current string
	history []string
	state   session.State
	cancel  func()
}

var _ session.Navigator = (*Router)(nil)

// NewRouter starts on the login route with no session observed
func NewRouter() *Router {
	return &Router{
		current: RouteLogin,
		history: []string{RouteLogin},
	}
}

// Attach follows the session's transitions. A logout observed while a
// protected route is displayed sends the router back to login.
func (r *Router) Attach(source SessionSource) {
	cancel := source.Subscribe(r.observe)

	r.mu.Lock()
	previous := r.cancel
	r.cancel = cancel
	r.mu.Unlock()

	if previous != nil {
		previous()
	}
}

// Close stops following the session
func (r *Router) Close() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Navigate implements session.Navigator
func (r *Router) Navigate(route string) {
	r.Visit(route)
}

// Visit resolves and guards path, then displays the result, which is returned.
// Logged out visitors of a protected route get the login route; a session
// lacking a route's role gets the dashboard home.
func (r *Router) Visit(path string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	route := Resolve(path)
	switch {
	case IsProtected(route) && !r.state.LoggedIn:
		log.Debug().Str("route", route).Msg("Not logged in, redirecting to login")
		route = RouteLogin
	case !r.allowed(route):
		log.Debug().Str("route", route).Str("role", string(RequiredRole(route))).Msg("Missing role, redirecting to dashboard")
		route = RouteMain
	}
	r.show(route)
	return route
}

// Current returns the displayed route
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns every displayed route, oldest first, without consecutive repeats
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Allowed reports whether the last observed session may display route
func (r *Router) Allowed(route string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (!IsProtected(route) || r.state.LoggedIn) && r.allowed(route)
}

func (r *Router) allowed(route string) bool {
	role := RequiredRole(route)
	return role == users.RoleNone || r.state.User.HasRole(role)
}

// observe runs inside the session manager's notification; it must not call back into it
func (r *Router) observe(s session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = s
	if !IsProtected(r.current) {
		return
	}
	switch {
	case !s.LoggedIn:
		r.show(RouteLogin)
	case !r.allowed(r.current):
		r.show(RouteMain)
	}
}

func (r *Router) show(route string) {
	r.current = route
	if r.history[len(r.history)-1] != route {
		r.history = append(r.history, route)
	}
}
