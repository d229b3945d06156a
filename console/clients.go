package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/farma-console/authapi"
	"github.com/jrsteele09/farma-console/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	// RouteClientes is the backend collection, relative to the API base URL
	RouteClientes = "/clientes"

	DefaultPageSize = 10
)

// Client is a pharmacy customer
type Client struct {
	ID    int    `json:"id"`
	Name  string `json:"nombre"`
	Phone string `json:"telefono"`
}

// ClientsAPI reads the customer collection with an authorized HTTP client
type ClientsAPI struct {
	baseURL    string
	httpClient *http.Client
}

// NewClientsAPI expects httpClient to attach the session bearer, see session.Manager.HTTPClient
func NewClientsAPI(baseURL string, httpClient *http.Client) *ClientsAPI {
	return &ClientsAPI{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// List fetches every client. Failures are classified like the auth endpoints,
// an undecodable body included; a missing session surfaces as a client error
// wrapping errors.ErrNotLoggedIn.
func (c *ClientsAPI) List(ctx context.Context) ([]Client, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+RouteClientes, nil)
	if err != nil {
		return nil, authapi.NewClientError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, authapi.NewClientError(err)
	}
	defer resp.Body.Close()

	if err := authapi.CheckResponse(resp); err != nil {
		return nil, err
	}

	var clients []Client
	if err := json.NewDecoder(resp.Body).Decode(&clients); err != nil {
		log.Debug().Err(err).Str("route", RouteClientes).Msg("Undecodable backend response")
		return nil, authapi.UnreadableResponse(resp)
	}
	return clients, nil
}

// ClientList is the filter and pagination state of the clients screen.
// Pages are numbered from 1 and there is always at least one.
type ClientList struct {
	all      []Client
	query    string
	pageSize int
	page     int
}

// NewClientList starts on page 1 with no filter
func NewClientList(clients []Client) *ClientList {
	return &ClientList{
		all:      clients,
		pageSize: DefaultPageSize,
		page:     1,
	}
}

// SetClients replaces the data, keeping the filter and going back to page 1
func (l *ClientList) SetClients(clients []Client) {
	l.all = clients
	l.page = 1
}

// Filter matches a case-insensitive substring of the client name and goes back to page 1
func (l *ClientList) Filter(query string) {
	l.query = query
	l.page = 1
}

// SetPageSize goes back to page 1. Sizes below one are rejected.
func (l *ClientList) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("[ClientList.SetPageSize] page size must be positive, got %d: %w", size, errors.ErrInvalidInput)
	}
	l.pageSize = size
	l.page = 1
	return nil
}

func (l *ClientList) Page() int {
	return l.page
}

func (l *ClientList) PageSize() int {
	return l.pageSize
}

// TotalPages is at least one, even with no matches
func (l *ClientList) TotalPages() int {
	n := len(l.filtered())
	if n == 0 {
		return 1
	}
	return (n + l.pageSize - 1) / l.pageSize
}

func (l *ClientList) Previous() {
	if l.page > 1 {
		l.page--
	}
}

func (l *ClientList) Next() {
	if l.page < l.TotalPages() {
		l.page++
	}
}

// GoTo clamps page into [1, TotalPages]
func (l *ClientList) GoTo(page int) {
	l.page = min(max(page, 1), l.TotalPages())
}

// Visible returns the clients of the current page
func (l *ClientList) Visible() []Client {
	matches := l.filtered()
	start := min((l.page-1)*l.pageSize, len(matches))
	end := min(start+l.pageSize, len(matches))
	return matches[start:end]
}

func (l *ClientList) filtered() []Client {
	query := strings.ToLower(l.query)
	if query == "" {
		return l.all
	}
	var matches []Client
	for _, c := range l.all {
		if strings.Contains(strings.ToLower(c.Name), query) {
			matches = append(matches, c)
		}
	}
	return matches
}
