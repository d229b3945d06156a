package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/farma-console/authapi"
	"github.com/jrsteele09/farma-console/internal/errors"
	"github.com/jrsteele09/farma-console/session/storage"
	"github.com/jrsteele09/farma-console/users"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultLoginRoute is where Logout sends the navigation UI
	DefaultLoginRoute = "/login"

	defaultLogoutTimeout = 5 * time.Second
)

// Navigator performs the navigation side effect of Logout
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a plain function to a Navigator
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}

// Credentials are transient, they are never persisted.
type Credentials struct {
	Identifier string
	Secret     string
	RememberMe bool
}

// Manager owns the authenticated-session state. Construct one per process and
// pass it to every consumer.
type Manager struct {
	api       authapi.API
	store     storage.Store
	navigator Navigator
	state     *holder

	// remembered is set while the live session is backed by the persisted record
	remembered atomic.Bool

	background    sync.WaitGroup
	loginRoute    string
	logoutTimeout time.Duration
	nowTime       func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogoutTimeout bounds the background logout notification
func WithLogoutTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout > 0 {
			m.logoutTimeout = timeout
		}
	}
}

// WithLoginRoute overrides the route Logout navigates to
func WithLoginRoute(route string) ManagerOption {
	return func(m *Manager) {
		if route != "" {
			m.loginRoute = route
		}
	}
}

// New creates the session manager. A nil store means durable storage is unavailable.
func New(api authapi.API, store storage.Store, navigator Navigator, options ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, fmt.Errorf("[session.New] api is required")
	}
	if navigator == nil {
		return nil, fmt.Errorf("[session.New] navigator is required")
	}
	if store == nil {
		store = storage.Noop{}
	}

	m := &Manager{
		api:           api,
		store:         store,
		navigator:     navigator,
		state:         newHolder(),
		loginRoute:    DefaultLoginRoute,
		logoutTimeout: defaultLogoutTimeout,
		nowTime:       time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Initialize rehydrates the session from durable storage. It never fails:
// missing storage or a missing record leave the session logged out, and a
// corrupted record is cleared.
func (m *Manager) Initialize(ctx context.Context) {
	if !storage.Available(m.store) {
		log.Debug().Msg("Durable storage unavailable, skipping session rehydration")
		return
	}

	token, tokenErr := m.store.Get(ctx, storage.TokenKey)
	user, userErr := m.store.Get(ctx, storage.UserKey)
	for _, err := range []error{tokenErr, userErr} {
		switch {
		case err == nil, errors.Is(err, errors.ErrNotFound):
		case errors.Is(err, errors.ErrCorrupted):
			log.Warn().Err(err).Msg("Persisted session is corrupted, clearing it")
			m.clearStorage(ctx)
			return
		default:
			log.Warn().Err(err).Msg("Failed to read persisted session")
			return
		}
	}
	if token == "" || user == "" {
		return
	}

	parsed, err := storage.Record{Token: token, User: user}.ParseUser()
	if err != nil {
		log.Warn().Err(err).Msg("Persisted user is corrupted, clearing session")
		m.clearStorage(ctx)
		return
	}

	m.remembered.Store(true)
	m.state.Set(loggedIn(*parsed, token, expiryFromToken(token)))
	log.Debug().Str("user", parsed.Identifier).Msg("Session rehydrated")
}

// Login authenticates against the backend. On failure the session is left
// untouched and a classified *authapi.Error is returned.
func (m *Manager) Login(ctx context.Context, credentials Credentials) (*authapi.LoginResponse, error) {
	if credentials.Identifier == "" || credentials.Secret == "" {
		return nil, authapi.NewInvalidInputError("identifier and secret are required")
	}

	resp, err := m.api.Login(ctx, authapi.LoginRequest{
		Identifier: credentials.Identifier,
		Secret:     credentials.Secret,
		RememberMe: credentials.RememberMe,
	})
	if err != nil {
		return nil, err
	}

	m.setLoggedIn(resp)

	persist := credentials.RememberMe && storage.Available(m.store)
	m.remembered.Store(persist)
	if persist {
		m.persist(ctx, resp)
	}
	return resp, nil
}

// Register creates an employee account. It never touches the session.
func (m *Manager) Register(ctx context.Context, req authapi.RegisterRequest) (*authapi.RegisterResponse, error) {
	return m.api.Register(ctx, req)
}

// Logout notifies the backend in the background, clears the persisted record,
// resets the session and navigates to the login route. It doesn't wait for the
// notification, whose failure is ignored.
func (m *Manager) Logout(ctx context.Context) {
	token := m.Token(ctx)

	m.background.Add(1)
	go func() {
		defer m.background.Done()
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
		defer cancel()
		if err := m.api.Logout(notifyCtx, token); err != nil {
			log.Debug().Err(err).Msg("Logout notification failed")
		}
	}()

	m.clearStorage(context.WithoutCancel(ctx))
	m.remembered.Store(false)
	m.state.Set(State{})
	m.navigator.Navigate(m.loginRoute)
}

// RefreshToken exchanges the current token for a new one. A session backed by
// the persisted record has the new token written back so it survives a restart.
func (m *Manager) RefreshToken(ctx context.Context) (*authapi.LoginResponse, error) {
	resp, err := m.api.Refresh(ctx, m.Token(ctx))
	if err != nil {
		return nil, err
	}

	m.setLoggedIn(resp)
	if m.remembered.Load() && storage.Available(m.store) {
		m.persist(ctx, resp)
	}
	return resp, nil
}

// Close waits for outstanding background logout notifications
func (m *Manager) Close() {
	m.background.Wait()
}

func (m *Manager) IsAuthenticated() bool {
	return m.state.Get().LoggedIn
}

// CurrentUser returns a copy of the session user, nil when logged out
func (m *Manager) CurrentUser() *users.User {
	return m.state.Get().User
}

// Token returns the live session token. When there is none it falls back to
// the persisted token (a previous run's session that was never rehydrated).
func (m *Manager) Token(ctx context.Context) string {
	if token := m.state.Get().AccessToken; token != "" {
		return token
	}
	if !storage.Available(m.store) {
		return ""
	}
	token, err := m.store.Get(ctx, storage.TokenKey)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			log.Debug().Err(err).Msg("Failed to read persisted token")
		}
		return ""
	}
	return token
}

// HasRole reports whether the session user holds the role. Never fails:
// false when logged out or when the user has no role.
func (m *Manager) HasRole(role users.RoleType) bool {
	return m.state.Get().User.HasRole(role)
}

// State returns a snapshot of the session
func (m *Manager) State() State {
	return m.state.Get()
}

// Subscribe calls fn with the current session and then with every transition,
// synchronously and before the triggering operation returns. fn must not call
// back into the Manager or cancel itself.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	return m.state.Subscribe(fn)
}

// Updates returns a latest-value channel of session transitions, starting with
// the current session.
func (m *Manager) Updates() (<-chan State, func()) {
	return m.state.Channel()
}

func (m *Manager) setLoggedIn(resp *authapi.LoginResponse) {
	m.state.Set(loggedIn(resp.User, resp.Token, expiryFromResponse(m.nowTime(), resp.ExpiresIn)))
}

// persist writes the record. A storage failure doesn't undo the login, the
// session just won't survive a restart.
func (m *Manager) persist(ctx context.Context, resp *authapi.LoginResponse) {
	record, err := storage.NewRecord(resp.Token, resp.User)
	if err == nil {
		err = storage.Save(ctx, m.store, record)
	}
	if err != nil {
		log.Warn().Err(err).Msg("Failed to persist session")
	}
}

func (m *Manager) clearStorage(ctx context.Context) {
	if err := storage.Clear(ctx, m.store); err != nil {
		log.Warn().Err(err).Msg("Failed to clear persisted session")
	}
}
