package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/pkg/httpclient"
	"github.com/utafrali/ApartmentAdmin/pkg/logger"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
}

type apiStub struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (s *apiStub) last() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

type notes struct {
	mu   sync.Mutex
	msgs []string
}

func (n *notes) Success(_ context.Context, text string) { n.add("success:" + text) }
func (n *notes) Error(_ context.Context, text string)   { n.add("error:" + text) }
func (n *notes) add(s string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, s)
	n.mu.Unlock()
}

// setup serves routes keyed by "METHOD /path" and records every request.
func setup(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) (*apiclient.Client, *apiStub, *notes) {
	t.Helper()
	stub := &apiStub{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: strings.TrimPrefix(r.URL.Path, "/api/"), Query: r.URL.Query()}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		stub.mu.Lock()
		stub.requests = append(stub.requests, rec)
		stub.mu.Unlock()

		h, ok := routes[r.Method+" "+rec.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"route not found"}`)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	n := &notes{}
	c, err := apiclient.New(httpclient.New(httpclient.DefaultConfig()), apiclient.Options{
		BaseURL:  srv.URL + "/api/",
		Notifier: n,
		Logger:   logger.Discard(),
	})
	require.NoError(t, err)
	return c, stub, n
}

func reply(status int, body string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestUserRepository_ListSendsFingerprint(t *testing.T) {
	c, stub, _ := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET users": reply(http.StatusOK, `{"data":[{"id":1,"first_name":"Sara","status":"pending","role":"user"}],"page":2,"perPage":5,"total":6}`),
	})
	repo := NewUserRepository(c)

	page, err := repo.List(context.Background(), domain.ListParams{
		Filters: []domain.Filter{{Name: "status", Operation: domain.OpEqual, Value: "pending"}},
		Orders:  []domain.Order{{Name: "created_at", Direction: "desc"}},
		Page:    2,
		PerPage: 5,
		Keyword: "sara",
	})
	require.NoError(t, err)

	req := stub.last()
	assert.Equal(t, "status", req.Query["filters[0][name]"][0])
	assert.Equal(t, "eq", req.Query["filters[0][operation]"][0])
	assert.Equal(t, "pending", req.Query["filters[0][value]"][0])
	assert.Equal(t, "created_at", req.Query["orders[0][name]"][0])
	assert.Equal(t, "desc", req.Query["orders[0][direction]"][0])
	assert.Equal(t, "2", req.Query["page"][0])
	assert.Equal(t, "5", req.Query["perPage"][0])
	assert.Equal(t, "sara", req.Query["keyword"][0])

	require.Len(t, page.Data, 1)
	assert.Equal(t, domain.FlexID("1"), page.Data[0].ID)
	assert.Equal(t, domain.StatusPending, page.Data[0].Status)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, 2, page.Page)
}

func TestUserRepository_ListAcceptsBareArray(t *testing.T) {
	c, _, _ := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET users": reply(http.StatusOK, `[{"id":"a"},{"id":"b"}]`),
	})
	page, err := NewUserRepository(c).List(context.Background(), domain.ListParams{})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Total)
}

func TestUserRepository_UpdateSendsIDInBody(t *testing.T) {
	c, stub, n := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"PUT users/7": reply(http.StatusOK, `{"message":"User approved","data":{"id":7,"status":"approved"}}`),
	})
	status := domain.StatusApproved

	u, err := NewUserRepository(c).Update(context.Background(), "7", domain.UpdateUserInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, u.Status)

	req := stub.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, float64(7), req.Body["id"])
	assert.Equal(t, "approved", req.Body["status"])
	assert.NotContains(t, req.Body, "first_name")
	assert.Equal(t, []string{"success:User approved"}, n.msgs)
}

func TestUserRepository_CreateGetDelete(t *testing.T) {
	c, stub, _ := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST users":     reply(http.StatusCreated, `{"message":"created","data":{"id":9,"phone":"963912345678"}}`),
		"GET users/9":    reply(http.StatusOK, `{"data":{"id":9,"phone":"963912345678"}}`),
		"DELETE users/9": reply(http.StatusOK, `{"message":"deleted"}`),
	})
	repo := NewUserRepository(c)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.CreateUserInput{FirstName: "A", LastName: "B", Phone: "963912345678", Password: "1234", Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, domain.FlexID("9"), created.ID)
	assert.Equal(t, "963912345678", stub.last().Body["phone"])
	assert.NotContains(t, stub.last().Body, "personal_photo_id")

	got, err := repo.GetByID(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "963912345678", got.Phone)

	require.NoError(t, repo.Delete(ctx, "9"))
	assert.Equal(t, http.MethodDelete, stub.last().Method)
}

func TestAuthRepository_IsSilent(t *testing.T) {
	c, stub, n := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST auth/login":          reply(http.StatusOK, `{"token":"tok","user":{"id":1,"role":"admin"},"message":"Welcome"}`),
		"POST auth/send-otp":       reply(http.StatusOK, `{"message":"OTP sent"}`),
		"POST auth/verify-otp":     reply(http.StatusUnprocessableEntity, `{"message":"Invalid OTP"}`),
		"POST auth/reset-password": reply(http.StatusOK, `{"message":"Password changed"}`),
	})
	repo := NewAuthRepository(c)
	ctx := context.Background()

	res, err := repo.Login(ctx, domain.LoginInput{Phone: "+963912345678", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)
	assert.Equal(t, "Welcome", res.Message)

	msg, err := repo.SendOTP(ctx, domain.SendOTPInput{Phone: "96391234567"})
	require.NoError(t, err)
	assert.Equal(t, "OTP sent", msg)

	_, err = repo.VerifyOTP(ctx, domain.VerifyOTPInput{Phone: "96391234567", OTP: "000000"})
	require.Error(t, err)
	assert.Equal(t, "Invalid OTP", apiclient.ServerMessage(err))

	_, err = repo.ResetPassword(ctx, domain.ResetPasswordInput{Phone: "96391234567", Password: "secret1", PasswordConfirmation: "secret1"})
	require.NoError(t, err)
	body := stub.last().Body
	assert.Equal(t, "secret1", body["password_confirmation"])
	assert.Equal(t, "96391234567", body["phone"])

	assert.Empty(t, n.msgs)
}

func TestAuthRepository_LoginNestedUnderData(t *testing.T) {
	c, _, _ := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST auth/login": reply(http.StatusOK, `{"message":"ok","data":{"token":"tok","user":{"id":"3"}}}`),
	})
	res, err := NewAuthRepository(c).Login(context.Background(), domain.LoginInput{})
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "ok", res.Message)
	assert.Equal(t, domain.FlexID("3"), res.User.ID)
}

func TestAuthRepository_LoginWithoutToken(t *testing.T) {
	c, _, _ := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST auth/login": reply(http.StatusOK, `{"message":"ok"}`),
	})
	_, err := NewAuthRepository(c).Login(context.Background(), domain.LoginInput{})
	assert.Error(t, err)
}

func TestProfileRepository(t *testing.T) {
	c, stub, n := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET auth/me":              reply(http.StatusOK, `{"user":{"id":1,"first_name":"Admin","role":"admin"}}`),
		"POST auth/update-profile": reply(http.StatusOK, `{"message":"Profile updated","user":{"id":1,"first_name":"Root","role":"admin"}}`),
	})
	repo := NewProfileRepository(c)
	ctx := context.Background()

	me, err := repo.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Admin", me.FirstName)

	name := "Root"
	u, msg, err := repo.UpdateProfile(ctx, domain.ProfileUpdate{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Root", u.FirstName)
	assert.Equal(t, "Profile updated", msg)
	assert.Equal(t, "Root", stub.last().Body["first_name"])
	assert.Empty(t, n.msgs, "update-profile is silent")
}

func TestNotificationRepository_NormalizesPayload(t *testing.T) {
	c, stub, _ := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET notifications": reply(http.StatusOK, `{"data":[
			{"id":1,"title":"New user","type":2,"data":"{\"item_id\":42}","read_at":null,"created_at":"2024-05-01T10:00:00Z"},
			{"id":2,"title":"Other","type":1,"data":{"item_id":"x"},"read_at":"2024-05-02T10:00:00Z","created_at":"2024-05-01T10:00:00Z"},
			{"id":3,"title":"Broken","type":2,"data":"not json","created_at":"2024-05-01T10:00:00Z"}
		],"page":1,"perPage":10,"total":3}`),
	})

	page, err := NewNotificationRepository(c).List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 3)

	id, ok := page.Data[0].ReferencedUserID()
	require.True(t, ok)
	assert.Equal(t, domain.FlexID("42"), id)
	assert.False(t, page.Data[0].IsRead())

	_, ok = page.Data[1].ReferencedUserID()
	assert.False(t, ok, "only user-reference notifications link to users")
	assert.True(t, page.Data[1].IsRead())

	_, ok = page.Data[2].ReferencedUserID()
	assert.False(t, ok)

	assert.Equal(t, "1", stub.last().Query["page"][0])
	assert.Equal(t, "10", stub.last().Query["perPage"][0])
}

func TestNotificationRepository_ReadEndpoints(t *testing.T) {
	c, stub, n := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST notifications/read":   reply(http.StatusOK, `{"message":"All read"}`),
		"POST notifications/5/read": reply(http.StatusOK, `{"message":"Read"}`),
		"GET notifications/unread-count": reply(http.StatusOK, `{"data":{"count":4}}`),
	})
	repo := NewNotificationRepository(c)
	ctx := context.Background()

	require.NoError(t, repo.MarkAllRead(ctx))
	assert.Empty(t, n.msgs, "mark-all-read is silent")

	require.NoError(t, repo.MarkRead(ctx, "5"))
	assert.Equal(t, "notifications/5/read", stub.last().Path)

	count, err := repo.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestParseCount(t *testing.T) {
	tests := map[string]int{
		``:                          0,
		`7`:                         7,
		`{"count":3}`:               3,
		`{"unread_count":2}`:        2,
		`{"data":5}`:                5,
		`{"data":{"unread_count":1}}`: 1,
		`{"data":null}`:             0,
	}
	for raw, want := range tests {
		got, err := parseCount([]byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := parseCount([]byte(`"x"`))
	assert.Error(t, err)
}

func TestMediaRepository_Upload(t *testing.T) {
	var field string
	c, _, _ := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"POST media": func(w http.ResponseWriter, r *http.Request) {
			_, hdr, err := r.FormFile("file")
			if err == nil {
				field = hdr.Filename
			}
			reply(http.StatusCreated, `{"data":{"id":11,"url":"http://cdn/id.png"}}`)(w, r)
		},
	})

	m, err := NewMediaRepository(c).Upload(context.Background(), "id.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "id.png", field)
	assert.Equal(t, domain.FlexID("11"), m.ID)
	assert.Equal(t, "http://cdn/id.png", m.URL)
}

func TestSystemRepository_MissingCountersAreZero(t *testing.T) {
	c, _, _ := setup(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET system-data": reply(http.StatusOK, `{"users_count":12}`),
	})
	data, err := NewSystemRepository(c).Data(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SystemData{UsersCount: 12}, *data)
}
