// Package userlist drives the users table: filters, pagination, row actions
// and the delete confirmation.
package userlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/internal/query"
	"github.com/utafrali/ApartmentAdmin/internal/service"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
)

// StatusFilter narrows the table to one account status.
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterPending  StatusFilter = StatusFilter(domain.StatusPending)
	FilterApproved StatusFilter = StatusFilter(domain.StatusApproved)
	FilterRejected StatusFilter = StatusFilter(domain.StatusRejected)
)

const (
	DefaultPageSize = 10
	// LoadErrorMessage is shown when the list fails without a server message.
	LoadErrorMessage = "Error loading users"
)

// PageSizes are the selectable page sizes.
var PageSizes = []int{5, 10, 25, 50}

// Query string keys of the shareable view.
const (
	QueryStatus    = "status"
	QueryKeyword   = "q"
	QueryPage      = "page"
	QueryPerPage   = "perPage"
	QueryHighlight = "highlight"
)

// ErrNoPendingDelete is returned by ConfirmDelete without a prior RequestDelete.
var ErrNoPendingDelete = errors.New("no delete awaiting confirmation")

// ParseStatusFilter validates a filter value. An empty value means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPending, FilterApproved, FilterRejected:
		return f, nil
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown status filter %q", s))
	}
}

// Controller holds the view state of the users table. Its filter and
// pagination state alone decide what is fetched.
type Controller struct {
	users  *service.UserService
	logger *slog.Logger

	mu            sync.Mutex
	status        StatusFilter
	keyword       string
	pageIndex     int
	pageSize      int
	pendingDelete domain.FlexID
	highlight     domain.FlexID
	loading       int
}

// New creates a controller showing the first page of all users.
func New(users *service.UserService, logger *slog.Logger) *Controller {
	return &Controller{
		users:    users,
		logger:   logger,
		status:   FilterAll,
		pageSize: DefaultPageSize,
	}
}

func (c *Controller) Status() StatusFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetStatus changes the status filter and returns to the first page.
func (c *Controller) SetStatus(f StatusFilter) error {
	f, err := ParseStatusFilter(string(f))
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f != c.status {
		c.status = f
		c.pageIndex = 0
	}
	return nil
}

func (c *Controller) Keyword() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyword
}

// SetKeyword changes the search text and returns to the first page.
func (c *Controller) SetKeyword(keyword string) {
	keyword = strings.TrimSpace(keyword)
	c.mu.Lock()
	defer c.mu.Unlock()
	if keyword != c.keyword {
		c.keyword = keyword
		c.pageIndex = 0
	}
}

// PageIndex is zero-based.
func (c *Controller) PageIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageIndex
}

func (c *Controller) SetPageIndex(index int) error {
	if index < 0 {
		return apperrors.InvalidInput("page index must not be negative")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageIndex = index
	return nil
}

func (c *Controller) PageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageSize
}

// SetPageSize changes the page size. The page index always resets to 0.
func (c *Controller) SetPageSize(size int) error {
	if !slices.Contains(PageSizes, size) {
		return apperrors.InvalidInput(fmt.Sprintf("page size must be one of %v", PageSizes))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = size
	c.pageIndex = 0
	return nil
}

// Params is the fingerprint of the current view. The server page is
// one-based.
func (c *Controller) Params() domain.ListParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paramsLocked()
}

func (c *Controller) paramsLocked() domain.ListParams {
	p := domain.ListParams{
		Page:    c.pageIndex + 1,
		PerPage: c.pageSize,
		Keyword: c.keyword,
	}
	if c.status != FilterAll {
		p.Filters = []domain.Filter{{Name: "status", Operation: domain.OpEqual, Value: string(c.status)}}
	}
	return p
}

// ToQuery mirrors the view into a shareable query string. Defaults are
// omitted.
func (c *Controller) ToQuery() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := url.Values{}
	if c.status != FilterAll {
		q.Set(QueryStatus, string(c.status))
	}
	if c.keyword != "" {
		q.Set(QueryKeyword, c.keyword)
	}
	if c.pageIndex > 0 {
		q.Set(QueryPage, strconv.Itoa(c.pageIndex+1))
	}
	if c.pageSize != DefaultPageSize {
		q.Set(QueryPerPage, strconv.Itoa(c.pageSize))
	}
	if !c.highlight.IsZero() {
		q.Set(QueryHighlight, c.highlight.String())
	}
	return q
}

// FromQuery restores a view produced by ToQuery. Unknown or malformed
// values fall back to their defaults so an edited link still opens.
func (c *Controller) FromQuery(q url.Values) {
	status, err := ParseStatusFilter(q.Get(QueryStatus))
	if err != nil {
		status = FilterAll
	}
	size := DefaultPageSize
	if n, err := strconv.Atoi(q.Get(QueryPerPage)); err == nil && slices.Contains(PageSizes, n) {
		size = n
	}
	index := 0
	if n, err := strconv.Atoi(q.Get(QueryPage)); err == nil && n > 1 {
		index = n - 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	c.keyword = strings.TrimSpace(q.Get(QueryKeyword))
	c.pageSize = size
	c.pageIndex = index
	c.highlight = domain.FlexID(q.Get(QueryHighlight))
}

// Load fetches the current page through the users query cache.
func (c *Controller) Load(ctx context.Context, opts ...query.QueryOption) (*domain.Page[domain.User], query.State, error) {
	c.mu.Lock()
	params := c.paramsLocked()
	c.loading++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading--
		c.mu.Unlock()
	}()

	page, state, err := c.users.List(ctx, params, opts...)
	if err != nil {
		c.logger.WarnContext(ctx, "load users failed",
			slog.String("fingerprint", params.Fingerprint()),
			slog.String("error", err.Error()),
		)
	}
	return page, state, err
}

// Loading is true while the list loads or any row write is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	loading := c.loading > 0
	c.mu.Unlock()
	return loading || c.users.IsMutating()
}

// Approve marks a user approved.
func (c *Controller) Approve(ctx context.Context, id domain.FlexID) (*domain.User, error) {
	return c.users.SetStatus(ctx, id, domain.StatusApproved)
}

// Reject marks a user rejected.
func (c *Controller) Reject(ctx context.Context, id domain.FlexID) (*domain.User, error) {
	return c.users.SetStatus(ctx, id, domain.StatusRejected)
}

// Get loads one user for the detail view.
func (c *Controller) Get(ctx context.Context, id domain.FlexID) (*domain.User, error) {
	u, _, err := c.users.Get(ctx, id)
	return u, err
}

// RequestDelete opens the confirmation for id. Nothing is sent yet.
func (c *Controller) RequestDelete(id domain.FlexID) error {
	if id.IsZero() {
		return apperrors.InvalidInput("user id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = id
	return nil
}

// PendingDelete returns the user awaiting delete confirmation.
func (c *Controller) PendingDelete() (domain.FlexID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingDelete, !c.pendingDelete.IsZero()
}

// CancelDelete closes the confirmation without deleting.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = ""
}

// ConfirmDelete deletes the pending user. The confirmation stays open when
// the delete fails so it can be retried.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	id := c.pendingDelete
	c.mu.Unlock()
	if id.IsZero() {
		return ErrNoPendingDelete
	}

	if err := c.users.Delete(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	if c.pendingDelete == id {
		c.pendingDelete = ""
	}
	c.mu.Unlock()
	return nil
}

// Highlight marks a row, typically from a notification link.
func (c *Controller) Highlight(id domain.FlexID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.highlight = id
}

// Highlighted returns the highlighted row, if any.
func (c *Controller) Highlighted() (domain.FlexID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlight, !c.highlight.IsZero()
}

// ErrorMessage is the table's error text for err.
func ErrorMessage(err error) string {
	return apiclient.MessageOr(err, LoadErrorMessage)
}
