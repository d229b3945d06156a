package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/jrsteele09/farma-console/authapi"
	"github.com/jrsteele09/farma-console/console"
	"github.com/jrsteele09/farma-console/internal/config"
	ierrors "github.com/jrsteele09/farma-console/internal/errors"
	"github.com/jrsteele09/farma-console/internal/utils"
	"github.com/jrsteele09/farma-console/session"
	"github.com/jrsteele09/farma-console/session/storage"
	"github.com/jrsteele09/farma-console/users"
	"github.com/rs/zerolog/log"
)

const passwordEnvVar = "CONSOLE_PASSWORD"

var errNoCommand = errors.New("no command given")

// app holds one process worth of console collaborators
type app struct {
	out        io.Writer
	api        *authapi.Client
	router     *console.Router
	manager    *session.Manager
	closeStore func() error
}

type command struct {
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":    {"authenticate an employee", (*app).login},
	"logout":   {"end the session", (*app).logout},
	"whoami":   {"show the session user", (*app).whoami},
	"token":    {"print the access token", (*app).token},
	"refresh":  {"exchange the access token for a new one", (*app).refresh},
	"register": {"create an employee account", (*app).register},
	"clients":  {"list clients", (*app).clients},
	"routes":   {"show the navigation available to the session", (*app).routes},
}

func newApp(ctx context.Context, c config.Config, out io.Writer) (*app, error) {
	store, closeStore, err := storage.New(ctx, c)
	if err != nil {
		return nil, err
	}

	api, err := authapi.NewClient(c.GetAPIBaseURL(), authapi.WithTimeout(c.GetRequestTimeout()))
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	router := console.NewRouter()
	manager, err := session.New(api, store, router,
		session.WithLogoutTimeout(c.GetLogoutTimeout()),
		session.WithLoginRoute(console.RouteLogin),
	)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	router.Attach(manager)
	manager.Initialize(ctx)

	return &app{
		out:        out,
		api:        api,
		router:     router,
		manager:    manager,
		closeStore: closeStore,
	}, nil
}

// close waits for the logout notification before the store goes away
func (a *app) close() {
	a.router.Close()
	a.manager.Close()
	if err := a.closeStore(); err != nil {
		log.Err(err).Msg("Failed to close storage")
	}
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := commands[name]
	if !ok {
		usage(a.out)
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd.run(a, ctx, args)
}

func usage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out, "usage: console <command> [flags]")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, commands[name].summary)
	}
	_ = w.Flush()
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login", a.out)
	identifier := fs.String("user", "", "employee identifier")
	password := fs.String("password", os.Getenv(passwordEnvVar), "password (defaults to $"+passwordEnvVar+")")
	remember := fs.Bool("remember", true, "keep the session between runs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.manager.Login(ctx, session.Credentials{
		Identifier: *identifier,
		Secret:     *password,
		RememberMe: *remember,
	})
	if err != nil {
		return err
	}
	if utils.Value(resp.RefreshToken) != "" {
		log.Debug().Msg("Backend issued a refresh token")
	}

	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", resp.User.DisplayName, roleLabel(string(resp.User.Role)))
	fmt.Fprintf(a.out, "Showing %s\n", a.router.Visit(console.RouteDashboard))
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	a.manager.Logout(ctx)
	fmt.Fprintf(a.out, "Logged out, showing %s\n", a.router.Current())
	return nil
}

func (a *app) whoami(_ context.Context, _ []string) error {
	user := a.manager.CurrentUser()
	if user == nil {
		return ierrors.ErrNotLoggedIn
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%d\n", user.ID)
	fmt.Fprintf(w, "User\t%s\n", user.Identifier)
	fmt.Fprintf(w, "Name\t%s\n", user.DisplayName)
	fmt.Fprintf(w, "Role\t%s\n", roleLabel(string(user.Role)))
	if expiresAt := a.manager.State().ExpiresAt; !expiresAt.IsZero() {
		fmt.Fprintf(w, "Expires\t%s\n", expiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func (a *app) token(ctx context.Context, _ []string) error {
	token := a.manager.Token(ctx)
	if token == "" {
		return ierrors.ErrNotLoggedIn
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *app) refresh(ctx context.Context, _ []string) error {
	resp, err := a.manager.RefreshToken(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Token refreshed for %s\n", resp.User.DisplayName)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register", a.out)
	name := fs.String("name", "", "display name")
	identifier := fs.String("user", "", "employee identifier")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := authapi.RegisterRequest{
		DisplayName:   *name,
		Identifier:    *identifier,
		Secret:        *password,
		ConfirmSecret: *confirm,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	resp, err := a.manager.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (id %d)\n", resp.User.Identifier, resp.User.ID)
	return nil
}

func (a *app) clients(ctx context.Context, args []string) error {
	fs := newFlagSet("clients", a.out)
	query := fs.String("q", "", "filter by name")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", console.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if route := a.router.Visit(console.RouteGestionClientes); route != console.RouteGestionClientes {
		return ierrors.ErrNotLoggedIn
	}

	api := console.NewClientsAPI(a.api.BaseURL(), a.manager.HTTPClient(ctx, nil))
	all, err := api.List(ctx)
	if err != nil {
		return err
	}

	list := console.NewClientList(all)
	if err := list.SetPageSize(*size); err != nil {
		return err
	}
	list.Filter(*query)
	list.GoTo(*page)

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE")
	for _, c := range list.Visible() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Phone)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Page %d of %d\n", list.Page(), list.TotalPages())
	return nil
}

func (a *app) routes(_ context.Context, args []string) error {
	fs := newFlagSet("routes", a.out)
	visit := fs.String("visit", "", "resolve a path as the navigation UI would")
	role := fs.String("role", "", "preview the menu of a role instead of the session's")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *visit != "" {
		fmt.Fprintln(a.out, a.router.Visit(*visit))
		return nil
	}

	user := a.manager.CurrentUser()
	if *role != "" {
		parsed, err := users.ParseRole(*role)
		if err != nil {
			return fmt.Errorf("[routes] %v: %w", err, ierrors.ErrInvalidInput)
		}
		user = &users.User{Role: parsed}
	}

	items := console.Sidebar(user)
	if len(items) == 0 {
		return ierrors.ErrNotLoggedIn
	}
	printSidebar(a.out, items, "")
	return nil
}

func printSidebar(out io.Writer, items []console.SidebarItem, indent string) {
	for _, item := range items {
		if item.Route == "" {
			fmt.Fprintf(out, "%s%s\n", indent, item.Label)
		} else {
			fmt.Fprintf(out, "%s%s  %s\n", indent, item.Label, item.Route)
		}
		printSidebar(out, item.Children, indent+"  ")
	}
}

func roleLabel(role string) string {
	if role == "" {
		return "no role"
	}
	return role
}
