package fakeapi

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
	"github.com/utafrali/ApartmentAdmin/pkg/pagination"
)

type account struct {
	user         domain.User
	passwordHash []byte
	createdAt    time.Time
}

// wireNotification is a notification as the API sends it. Data holds the
// payload exactly as encoded, which for user references is a JSON string.
type wireNotification struct {
	ID        domain.FlexID   `json:"id"`
	Title     string          `json:"title"`
	Body      string          `json:"body"`
	Type      int             `json:"type"`
	Data      json.RawMessage `json:"data"`
	ReadAt    *time.Time      `json:"read_at"`
	CreatedAt time.Time       `json:"created_at"`

	owner domain.FlexID
}

type otpState struct {
	verified bool
	expires  time.Time
}

// store is the in-memory state of the fake backend.
type store struct {
	mu  sync.Mutex
	now func() time.Time

	nextUserID         int64
	nextNotificationID int64
	nextMediaID        int64

	accounts      map[domain.FlexID]*account
	notifications []*wireNotification
	media         []domain.Media
	otps          map[string]*otpState

	apartments   int
	reservations int
}

func newStore(now func() time.Time) *store {
	return &store{
		now:      now,
		accounts: make(map[domain.FlexID]*account),
		otps:     make(map[string]*otpState),
	}
}

func (s *store) phoneTakenLocked(phone string, except domain.FlexID) bool {
	for id, a := range s.accounts {
		if id != except && a.user.Phone == phone {
			return true
		}
	}
	return false
}

func (s *store) addUser(u domain.User, hash []byte) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phoneTakenLocked(u.Phone, "") {
		return domain.User{}, apperrors.ErrConflict
	}
	s.nextUserID++
	u.ID = domain.IDFromInt(s.nextUserID)
	if u.Status == "" {
		u.Status = domain.StatusPending
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	s.accounts[u.ID] = &account{user: u, passwordHash: hash, createdAt: s.now()}
	return u, nil
}

func (s *store) user(id domain.FlexID) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return domain.User{}, false
	}
	return a.user, true
}

func (s *store) accountByPhone(phone string) (account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.Phone == phone {
			return *a, true
		}
	}
	return account{}, false
}

// updateUser applies a partial update. The returned error is
// ErrNotFound or ErrConflict.
func (s *store) updateUser(id domain.FlexID, apply func(u *domain.User)) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.User{}, apperrors.ErrNotFound
	}
	next := a.user
	apply(&next)
	if next.Phone != a.user.Phone && s.phoneTakenLocked(next.Phone, id) {
		return domain.User{}, apperrors.ErrConflict
	}
	next.ID = id
	a.user = next
	return next, nil
}

func (s *store) deleteUser(id domain.FlexID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return false
	}
	delete(s.accounts, id)
	s.notifications = slices.DeleteFunc(s.notifications, func(n *wireNotification) bool {
		return n.owner == id
	})
	return true
}

func (s *store) setPassword(phone string, hash []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.Phone == phone {
			a.passwordHash = hash
			return true
		}
	}
	return false
}

// listUsers filters, orders and pages the accounts.
func (s *store) listUsers(params domain.ListParams, page pagination.Params) ([]domain.User, int) {
	s.mu.Lock()
	all := make([]*account, 0, len(s.accounts))
	for _, a := range s.accounts {
		all = append(all, a)
	}
	s.mu.Unlock()

	slices.SortFunc(all, func(a, b *account) int {
		na, _ := a.user.ID.Int64()
		nb, _ := b.user.ID.Int64()
		return cmp.Compare(na, nb)
	})

	matched := make([]domain.User, 0, len(all))
	for _, a := range all {
		if matchesUser(a.user, params) {
			matched = append(matched, a.user)
		}
	}

	for i := len(params.Orders) - 1; i >= 0; i-- {
		o := params.Orders[i]
		slices.SortStableFunc(matched, func(a, b domain.User) int {
			c := strings.Compare(userField(a, o.Name), userField(b, o.Name))
			if strings.EqualFold(o.Direction, "desc") {
				return -c
			}
			return c
		})
	}

	return pagination.Window(matched, page), len(matched)
}

func matchesUser(u domain.User, params domain.ListParams) bool {
	for _, f := range params.Filters {
		v := userField(u, f.Name)
		switch f.Operation {
		case domain.OpEqual:
			if v != f.Value {
				return false
			}
		case domain.OpNotEqual:
			if v == f.Value {
				return false
			}
		case domain.OpLike:
			if !containsFold(v, f.Value) {
				return false
			}
		}
	}
	if kw := strings.TrimSpace(params.Keyword); kw != "" {
		if !containsFold(u.FirstName, kw) && !containsFold(u.LastName, kw) &&
			!containsFold(u.Username, kw) && !containsFold(u.Phone, kw) {
			return false
		}
	}
	return true
}

func userField(u domain.User, name string) string {
	switch name {
	case "id":
		return u.ID.String()
	case "first_name":
		return u.FirstName
	case "last_name":
		return u.LastName
	case "username":
		return u.Username
	case "phone":
		return u.Phone
	case "role":
		return string(u.Role)
	case "status":
		return string(u.Status)
	case "date_of_birth":
		return u.DateOfBirth
	default:
		return ""
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (s *store) adminIDs() []domain.FlexID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []domain.FlexID
	for id, a := range s.accounts {
		if a.user.Role == domain.RoleAdmin {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *store) notify(owner domain.FlexID, title, body string, typ int, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextNotificationID++
	s.notifications = append(s.notifications, &wireNotification{
		ID:        domain.IDFromInt(s.nextNotificationID),
		Title:     title,
		Body:      body,
		Type:      typ,
		Data:      data,
		CreatedAt: s.now(),
		owner:     owner,
	})
}

// inbox returns owner's notifications, newest first.
func (s *store) inbox(owner domain.FlexID) []wireNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []wireNotification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if n := s.notifications[i]; n.owner == owner {
			out = append(out, *n)
		}
	}
	return out
}

func (s *store) unreadCount(owner domain.FlexID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.owner == owner && n.ReadAt == nil {
			count++
		}
	}
	return count
}

// markRead marks one notification, or all of owner's when id is empty.
func (s *store) markRead(owner, id domain.FlexID) (wireNotification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var found wireNotification
	ok := false
	for _, n := range s.notifications {
		if n.owner != owner || (!id.IsZero() && n.ID != id) {
			continue
		}
		if n.ReadAt == nil {
			n.ReadAt = &now
		}
		found, ok = *n, true
	}
	return found, ok || id.IsZero()
}

func (s *store) addMedia(m domain.Media) domain.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMediaID++
	m.ID = domain.IDFromInt(s.nextMediaID)
	s.media = append(s.media, m)
	return m
}

func (s *store) listMedia(page pagination.Params) ([]domain.Media, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := slices.Clone(s.media)
	return pagination.Window(all, page), len(all)
}

func (s *store) startOTP(phone string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[phone] = &otpState{expires: s.now().Add(ttl)}
}

// verifyOTP marks a pending code verified. It fails when no unexpired code
// was sent to phone.
func (s *store) verifyOTP(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.otps[phone]
	if !ok || s.now().After(st.expires) {
		return false
	}
	st.verified = true
	return true
}

// consumeOTP ends a verified recovery session.
func (s *store) consumeOTP(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.otps[phone]
	if !ok || !st.verified {
		return false
	}
	delete(s.otps, phone)
	return true
}

func (s *store) systemData() domain.SystemData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SystemData{
		UsersCount:        len(s.accounts),
		ApartmentsCount:   s.apartments,
		ReservationsCount: s.reservations,
	}
}
