package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/farma-console/authapi"
	"github.com/jrsteele09/farma-console/internal/errors"
	"github.com/jrsteele09/farma-console/session"
	"github.com/jrsteele09/farma-console/session/storage"
	"github.com/jrsteele09/farma-console/users"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	testNow  = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	testUser = users.User{ID: 1, Identifier: "jdoe", DisplayName: "John Doe", Role: users.RoleEmployee}
	testCred = session.Credentials{Identifier: "jdoe", Secret: "pw123", RememberMe: true}
)

// fakeAPI is a programmable authapi.API
type fakeAPI struct {
	mu sync.Mutex

	loginResp   *authapi.LoginResponse
	loginErr    error
	refreshResp *authapi.LoginResponse
	refreshErr  error
	registerErr error
	logoutErr   error

	// logoutRelease, when set, blocks Logout until it is closed
	logoutRelease chan struct{}
	logoutDone    chan string

	loginCalls   int
	refreshToken string
}

var _ authapi.API = (*fakeAPI)(nil)

func (f *fakeAPI) Login(_ context.Context, req authapi.LoginRequest) (*authapi.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	resp := *f.loginResp
	return &resp, nil
}

func (f *fakeAPI) Register(_ context.Context, req authapi.RegisterRequest) (*authapi.RegisterResponse, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &authapi.RegisterResponse{Message: "created", User: users.User{ID: 9, Identifier: req.Identifier, DisplayName: req.DisplayName}}, nil
}

func (f *fakeAPI) Logout(ctx context.Context, token string) error {
	if f.logoutRelease != nil {
		<-f.logoutRelease
	}
	if f.logoutDone != nil {
		f.logoutDone <- token
	}
	return f.logoutErr
}

func (f *fakeAPI) Refresh(_ context.Context, token string) (*authapi.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshToken = token
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	resp := *f.refreshResp
	return &resp, nil
}

// recordingNavigator remembers every navigation
type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

// testFixture holds all test dependencies
type testFixture struct {
	api       *fakeAPI
	store     *storage.InMemory
	navigator *recordingNavigator
	manager   *session.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		api: &fakeAPI{
			loginResp:   &authapi.LoginResponse{Token: "t1", User: testUser, ExpiresIn: 3600},
			refreshResp: &authapi.LoginResponse{Token: "t2", User: testUser, ExpiresIn: 60},
		},
		store:     storage.NewInMemory(),
		navigator: &recordingNavigator{},
	}
	f.manager = f.newManager(t, f.store)
	return f
}

// newManager builds a manager sharing the fixture's API and navigator (a simulated restart)
func (f *testFixture) newManager(t *testing.T, store storage.Store) *session.Manager {
	t.Helper()
	m, err := session.New(f.api, store, f.navigator, session.WithNowTime(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func (f *testFixture) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, err := f.store.Get(context.Background(), key)
	if errors.Is(err, errors.ErrNotFound) {
		return "", false
	}
	require.NoError(t, err)
	return v, true
}

func jwtWithExpiry(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := session.New(nil, storage.NewInMemory(), &recordingNavigator{})
	require.Error(t, err)

	_, err = session.New(&fakeAPI{}, storage.NewInMemory(), nil)
	require.Error(t, err)

	m, err := session.New(&fakeAPI{}, nil, &recordingNavigator{})
	require.NoError(t, err)
	require.Equal(t, "", m.Token(context.Background()))
}

func TestManager_InitialStateIsLoggedOut(t *testing.T) {
	f := setupTestFixture(t)

	require.Equal(t, session.State{}, f.manager.State())
	require.False(t, f.manager.IsAuthenticated())
	require.Nil(t, f.manager.CurrentUser())
}

func TestManager_LoginRememberMe(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)
	require.Equal(t, "t1", resp.Token)

	require.True(t, f.manager.IsAuthenticated())
	require.Equal(t, users.RoleEmployee, f.manager.CurrentUser().Role)
	require.Equal(t, "t1", f.manager.Token(context.Background()))
	require.Equal(t, testNow.Add(time.Hour), f.manager.State().ExpiresAt)

	token, ok := f.stored(t, storage.TokenKey)
	require.True(t, ok)
	require.Equal(t, "t1", token)
	user, ok := f.stored(t, storage.UserKey)
	require.True(t, ok)
	require.JSONEq(t, `{"id":1,"usuario":"jdoe","nombre":"John Doe","role":"employee"}`, user)
}

func TestManager_LoginWithoutRememberMeDoesNotPersist(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.manager.Login(context.Background(), session.Credentials{Identifier: "jdoe", Secret: "pw123"})
	require.NoError(t, err)
	require.True(t, f.manager.IsAuthenticated())
	require.Equal(t, 0, f.store.Len())
}

func TestManager_LoginRememberMeWithoutStorage(t *testing.T) {
	f := setupTestFixture(t)
	m := f.newManager(t, storage.Noop{})

	_, err := m.Login(context.Background(), testCred)
	require.NoError(t, err)
	require.True(t, m.IsAuthenticated())
	require.Equal(t, 0, f.store.Len())
}

func TestManager_LoginRequiresIdentifierAndSecret(t *testing.T) {
	f := setupTestFixture(t)

	for _, cred := range []session.Credentials{
		{Identifier: "", Secret: "pw"},
		{Identifier: "jdoe", Secret: ""},
	} {
		resp, err := f.manager.Login(context.Background(), cred)
		require.Nil(t, resp)
		require.ErrorIs(t, err, authapi.ErrInvalidInput)
	}
	require.Equal(t, 0, f.api.loginCalls)
	require.False(t, f.manager.IsAuthenticated())
}

func TestManager_FailedLoginLeavesSessionUnchanged(t *testing.T) {
	failures := []error{
		&authapi.Error{Kind: authapi.KindClient, Message: "dial tcp: connection refused"},
		&authapi.Error{Kind: authapi.KindInvalidInput, Status: 400, Message: "invalid input"},
		&authapi.Error{Kind: authapi.KindInvalidCredentials, Status: 401, Message: "invalid credentials"},
		&authapi.Error{Kind: authapi.KindForbidden, Status: 403, Message: "insufficient permissions"},
		&authapi.Error{Kind: authapi.KindNotFound, Status: 404, Message: "service not found"},
		&authapi.Error{Kind: authapi.KindInternal, Status: 500, Message: "internal server error"},
		&authapi.Error{Kind: authapi.KindUnclassified, Status: 502, Message: "error 502: Bad Gateway"},
	}

	for _, failure := range failures {
		t.Run(failure.Error(), func(t *testing.T) {
			f := setupTestFixture(t)

			// From logged out
			f.api.loginErr = failure
			before := f.manager.State()
			_, err := f.manager.Login(context.Background(), testCred)
			require.ErrorIs(t, err, failure)
			require.Equal(t, before, f.manager.State())
			require.Equal(t, 0, f.store.Len())

			// From logged in
			f.api.loginErr = nil
			_, err = f.manager.Login(context.Background(), testCred)
			require.NoError(t, err)
			before = f.manager.State()

			f.api.loginErr = failure
			_, err = f.manager.Login(context.Background(), session.Credentials{Identifier: "other", Secret: "x", RememberMe: true})
			require.Error(t, err)
			require.Equal(t, before, f.manager.State())
			token, _ := f.stored(t, storage.TokenKey)
			require.Equal(t, "t1", token)
		})
	}
}

func TestManager_Logout(t *testing.T) {
	f := setupTestFixture(t)
	f.api.logoutErr = &authapi.Error{Kind: authapi.KindInternal, Status: 500, Message: "internal server error"}
	f.api.logoutDone = make(chan string, 1)

	_, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)

	f.manager.Logout(context.Background())

	require.Equal(t, session.State{}, f.manager.State())
	require.Equal(t, 0, f.store.Len())
	require.Equal(t, []string{session.DefaultLoginRoute}, f.navigator.Routes())

	select {
	case token := <-f.api.logoutDone:
		require.Equal(t, "t1", token)
	case <-time.After(time.Second):
		t.Fatal("logout notification was never sent")
	}
}

func TestManager_LogoutNavigatesToConfiguredRoute(t *testing.T) {
	f := setupTestFixture(t)

	m, err := session.New(f.api, storage.NewInMemory(), f.navigator, session.WithLoginRoute("/signin"), session.WithLoginRoute(""))
	require.NoError(t, err)
	t.Cleanup(m.Close)

	m.Logout(context.Background())
	require.Equal(t, []string{"/signin"}, f.navigator.Routes(), "an empty route keeps the previous one")
}

func TestManager_LogoutDoesNotWaitForBackend(t *testing.T) {
	f := setupTestFixture(t)
	f.api.logoutRelease = make(chan struct{})

	_, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)

	returned := make(chan struct{})
	go func() {
		f.manager.Logout(context.Background())
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Logout blocked on the backend notification")
	}
	require.False(t, f.manager.IsAuthenticated())
	require.Equal(t, 0, f.store.Len())
	require.Equal(t, []string{session.DefaultLoginRoute}, f.navigator.Routes())

	close(f.api.logoutRelease)
	f.manager.Close()
}

func TestManager_LogoutWithCancelledContextStillClears(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.manager.Logout(ctx)

	require.False(t, f.manager.IsAuthenticated())
	require.Equal(t, 0, f.store.Len())
}

func TestManager_InitializeRoundTrip(t *testing.T) {
	f := setupTestFixture(t)
	exp := testNow.Add(2 * time.Hour)
	f.api.loginResp = &authapi.LoginResponse{Token: jwtWithExpiry(t, exp), User: testUser, ExpiresIn: 7200}

	_, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)
	before := f.manager.State()

	restarted := f.newManager(t, f.store)
	restarted.Initialize(context.Background())

	after := restarted.State()
	require.True(t, after.LoggedIn)
	require.Equal(t, before.AccessToken, after.AccessToken)
	require.Equal(t, *before.User, *after.User)
	require.Equal(t, exp.Unix(), after.ExpiresAt.Unix())
}

func TestManager_InitializeOpaqueTokenHasNoExpiry(t *testing.T) {
	f := setupTestFixture(t)
	record, err := storage.NewRecord("opaque", testUser)
	require.NoError(t, err)
	require.NoError(t, storage.Save(context.Background(), f.store, record))

	f.manager.Initialize(context.Background())
	require.True(t, f.manager.IsAuthenticated())
	require.True(t, f.manager.State().ExpiresAt.IsZero())
}

func TestManager_InitializeMalformedUserClearsStorage(t *testing.T) {
	for _, payload := range []string{"{not json", "null", "[]"} {
		t.Run(payload, func(t *testing.T) {
			f := setupTestFixture(t)
			ctx := context.Background()
			require.NoError(t, f.store.Set(ctx, storage.TokenKey, "t1"))
			require.NoError(t, f.store.Set(ctx, storage.UserKey, payload))

			f.manager.Initialize(ctx)

			require.Equal(t, session.State{}, f.manager.State())
			require.Equal(t, 0, f.store.Len())
		})
	}
}

func TestManager_InitializeIncompleteRecord(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, storage.TokenKey, "t1"))

	f.manager.Initialize(ctx)

	require.False(t, f.manager.IsAuthenticated())
	token, ok := f.stored(t, storage.TokenKey)
	require.True(t, ok, "an incomplete record is left alone")
	require.Equal(t, "t1", token)
}

func TestManager_InitializeWithoutStorage(t *testing.T) {
	f := setupTestFixture(t)
	m := f.newManager(t, storage.Noop{})

	m.Initialize(context.Background())
	require.Equal(t, session.State{}, m.State())
}

func TestManager_InitializeCorruptedFileStore(t *testing.T) {
	f := setupTestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()

	sealed, err := storage.NewFile(dir, storage.WithSecret("right"))
	require.NoError(t, err)
	record, err := storage.NewRecord("t1", testUser)
	require.NoError(t, err)
	require.NoError(t, storage.Save(ctx, sealed, record))

	wrongKey, err := storage.NewFile(dir, storage.WithSecret("wrong"))
	require.NoError(t, err)
	m := f.newManager(t, wrongKey)
	m.Initialize(ctx)

	require.False(t, m.IsAuthenticated())
	_, err = sealed.Get(ctx, storage.TokenKey)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestManager_GarbageSessionFileHeals(t *testing.T) {
	f := setupTestFixture(t)
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(dir, storage.FileName), []byte("{garbage"), 0o600))

	store, err := storage.NewFile(dir, storage.WithSecret("s3cret"))
	require.NoError(t, err)
	m := f.newManager(t, store)

	m.Initialize(ctx)
	require.False(t, m.IsAuthenticated())
	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.NotContains(t, string(raw), "garbage", "the unreadable document is cleared")

	_, err = m.Login(ctx, testCred)
	require.NoError(t, err)
	token, err := store.Get(ctx, storage.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "t1", token)

	m.Logout(ctx)
	_, err = store.Get(ctx, storage.TokenKey)
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestManager_HasRole(t *testing.T) {
	roles := []users.RoleType{users.RoleAdmin, users.RoleEmployee, users.RoleUser, users.RoleNone}
	f := setupTestFixture(t)

	for _, r := range roles {
		require.False(t, f.manager.HasRole(r), "logged out, role %q", r)
	}

	_, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)
	for _, r := range roles {
		require.Equal(t, r == users.RoleEmployee, f.manager.HasRole(r), "role %q", r)
	}

	f.api.loginResp = &authapi.LoginResponse{Token: "t3", User: users.User{ID: 3, Identifier: "norole"}}
	_, err = f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)
	for _, r := range roles {
		require.False(t, f.manager.HasRole(r), "absent role never matches %q", r)
	}
}

func TestManager_TokenPrefersLiveSession(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.Equal(t, "", f.manager.Token(ctx))

	require.NoError(t, f.store.Set(ctx, storage.TokenKey, "stored"))
	require.Equal(t, "stored", f.manager.Token(ctx), "falls back to storage when the session has no token")

	_, err := f.manager.Login(ctx, session.Credentials{Identifier: "jdoe", Secret: "pw123"})
	require.NoError(t, err)
	require.Equal(t, "t1", f.manager.Token(ctx))

	headless := f.newManager(t, storage.Noop{})
	require.Equal(t, "", headless.Token(ctx))
}

func TestManager_RefreshToken(t *testing.T) {
	t.Run("remembered session is re-persisted", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.manager.Login(context.Background(), testCred)
		require.NoError(t, err)

		resp, err := f.manager.RefreshToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "t2", resp.Token)
		require.Equal(t, "t1", f.api.refreshToken)
		require.Equal(t, "t2", f.manager.Token(context.Background()))
		require.Equal(t, testNow.Add(time.Minute), f.manager.State().ExpiresAt)

		token, _ := f.stored(t, storage.TokenKey)
		require.Equal(t, "t2", token)
	})

	t.Run("rehydrated session is re-persisted", func(t *testing.T) {
		f := setupTestFixture(t)
		record, err := storage.NewRecord("t1", testUser)
		require.NoError(t, err)
		require.NoError(t, storage.Save(context.Background(), f.store, record))
		f.manager.Initialize(context.Background())

		_, err = f.manager.RefreshToken(context.Background())
		require.NoError(t, err)
		token, _ := f.stored(t, storage.TokenKey)
		require.Equal(t, "t2", token)
	})

	t.Run("session not remembered stays out of storage", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.manager.Login(context.Background(), session.Credentials{Identifier: "jdoe", Secret: "pw123"})
		require.NoError(t, err)

		_, err = f.manager.RefreshToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "t2", f.manager.Token(context.Background()))
		require.Equal(t, 0, f.store.Len())
	})

	t.Run("failure leaves session unchanged", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.manager.Login(context.Background(), testCred)
		require.NoError(t, err)
		before := f.manager.State()

		f.api.refreshErr = &authapi.Error{Kind: authapi.KindInvalidCredentials, Status: 401, Message: "invalid credentials"}
		_, err = f.manager.RefreshToken(context.Background())
		require.ErrorIs(t, err, authapi.ErrInvalidCredentials)
		require.Equal(t, before, f.manager.State())
	})
}

func TestManager_RegisterDoesNotTouchSession(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.manager.Register(context.Background(), authapi.RegisterRequest{
		DisplayName: "Ana", Identifier: "ana", Secret: "pw", ConfirmSecret: "pw",
	})
	require.NoError(t, err)
	require.Equal(t, "ana", resp.User.Identifier)
	require.Equal(t, session.State{}, f.manager.State())
	require.Equal(t, 0, f.store.Len())

	f.api.registerErr = &authapi.Error{Kind: authapi.KindInvalidInput, Status: 400, Message: "usuario ya existe"}
	_, err = f.manager.Register(context.Background(), authapi.RegisterRequest{Identifier: "ana"})
	require.EqualError(t, err, "usuario ya existe")
}

func TestManager_Subscribe(t *testing.T) {
	f := setupTestFixture(t)

	var seen []session.State
	cancel := f.manager.Subscribe(func(s session.State) {
		seen = append(seen, s)
	})
	require.Len(t, seen, 1, "subscriber receives the current value immediately")
	require.False(t, seen[0].LoggedIn)

	_, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)
	require.Len(t, seen, 2, "transition is published before Login returns")
	require.True(t, seen[1].LoggedIn)

	// Late subscriber gets the latest value
	var late session.State
	cancelLate := f.manager.Subscribe(func(s session.State) { late = s })
	require.True(t, late.LoggedIn)
	cancelLate()

	f.manager.Logout(context.Background())
	require.Len(t, seen, 3)
	require.Equal(t, session.State{}, seen[2])

	cancel()
	_, err = f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)
	require.Len(t, seen, 3, "cancelled subscriber gets nothing more")
}

func TestManager_SubscriberCannotMutateSession(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)

	cancel := f.manager.Subscribe(func(s session.State) {
		s.User.Role = users.RoleAdmin
	})
	defer cancel()
	f.manager.CurrentUser().Role = users.RoleAdmin

	require.False(t, f.manager.HasRole(users.RoleAdmin))
}

func TestManager_Updates(t *testing.T) {
	f := setupTestFixture(t)

	updates, cancel := f.manager.Updates()
	first := <-updates
	require.False(t, first.LoggedIn)

	_, err := f.manager.Login(context.Background(), testCred)
	require.NoError(t, err)
	_, err = f.manager.RefreshToken(context.Background())
	require.NoError(t, err)

	latest := <-updates
	require.Equal(t, "t2", latest.AccessToken, "stale values are replaced by the newest one")

	cancel()
	_, open := <-updates
	require.False(t, open)
	cancel()
}

func TestManager_HTTPClientSendsSessionToken(t *testing.T) {
	f := setupTestFixture(t)

	var mu sync.Mutex
	var gotAuth string
	lastAuth := func() string {
		mu.Lock()
		defer mu.Unlock()
		return gotAuth
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := &http.Transport{DisableKeepAlives: true}
	defer transport.CloseIdleConnections()
	client := f.manager.HTTPClient(context.Background(), transport)

	_, err := client.Get(server.URL)
	require.Error(t, err, "no session, no token")

	_, err = f.manager.Login(context.Background(), session.Credentials{Identifier: "jdoe", Secret: "pw123"})
	require.NoError(t, err)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer t1", lastAuth())

	_, err = f.manager.RefreshToken(context.Background())
	require.NoError(t, err)
	resp, err = client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "Bearer t2", lastAuth(), "token source follows the live session")

	tok, err := f.manager.TokenSource(context.Background()).Token()
	require.NoError(t, err)
	require.Equal(t, testNow.Add(time.Minute), tok.Expiry)
}

// End-to-end against the real HTTP client and a stub backend
func TestManager_EndToEnd(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/empleados/login":
			_, _ = w.Write([]byte(`{"token":"t1","user":{"id":1,"usuario":"jdoe","nombre":"John Doe","role":"employee"},"expiresIn":3600}`))
		case "/api/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	transport := &http.Transport{DisableKeepAlives: true}
	defer transport.CloseIdleConnections()
	api, err := authapi.NewClient(backend.URL+"/api/v1", authapi.WithHTTPClient(&http.Client{Transport: transport}))
	require.NoError(t, err)

	store := storage.NewInMemory()
	navigator := &recordingNavigator{}
	m, err := session.New(api, store, navigator)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Login(context.Background(), session.Credentials{Identifier: "jdoe", Secret: "pw123", RememberMe: true})
	require.NoError(t, err)

	require.True(t, m.IsAuthenticated())
	require.Equal(t, users.RoleEmployee, m.CurrentUser().Role)
	token, err := store.Get(context.Background(), storage.TokenKey)
	require.NoError(t, err)
	require.Equal(t, "t1", token)
	user, err := store.Get(context.Background(), storage.UserKey)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"usuario":"jdoe","nombre":"John Doe","role":"employee"}`, user)

	_, err = m.RefreshToken(context.Background())
	require.ErrorIs(t, err, authapi.ErrNotFound)
	require.True(t, m.IsAuthenticated())

	m.Logout(context.Background())
	m.Close()
	require.False(t, m.IsAuthenticated())
	require.Equal(t, 0, store.Len())
}
