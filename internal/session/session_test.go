package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
	"github.com/utafrali/ApartmentAdmin/pkg/logger"
)

func setupRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client, "", 0), mr
}

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	redisStorage, _ := setupRedisStorage(t)
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   NewFileStorage(filepath.Join(t.TempDir(), "nested", "session.json")),
		"redis":  redisStorage,
	}
}

func TestStore_CredentialsRoundTrip(t *testing.T) {
	for name, storage := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			user := domain.SessionUser{ID: domain.IDFromInt(1), Role: domain.RoleAdmin}

			s := NewStore(storage, logger.Discard())
			require.NoError(t, s.Init(ctx))
			require.NoError(t, s.SetCredentials(ctx, "abc", user))

			reloaded := NewStore(storage, logger.Discard())
			require.NoError(t, reloaded.Init(ctx))

			assert.Equal(t, "abc", reloaded.Token())
			got, ok := reloaded.UserInfo()
			require.True(t, ok)
			assert.Equal(t, user, got)
			assert.True(t, reloaded.IsAdmin())
		})
	}
}

func TestStore_ClearRemovesMemoryAndStorage(t *testing.T) {
	for name, storage := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewStore(storage, logger.Discard())
			require.NoError(t, s.SetCredentials(ctx, "abc", domain.SessionUser{ID: "1"}))
			require.NoError(t, storage.Set(ctx, KeyMode, ModeDark))

			require.NoError(t, s.Clear(ctx))
			assert.Empty(t, s.Token())
			assert.False(t, s.IsAuthenticated())
			_, ok := s.UserInfo()
			assert.False(t, ok)

			_, ok, err := storage.Get(ctx, KeyToken)
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = storage.Get(ctx, KeyUserInfo)
			require.NoError(t, err)
			assert.False(t, ok)

			mode, ok, err := storage.Get(ctx, KeyMode)
			require.NoError(t, err)
			assert.True(t, ok, "preferences survive logout")
			assert.Equal(t, ModeDark, mode)
		})
	}
}

// gatedStorage holds SetMany until release is closed.
type gatedStorage struct {
	*MemoryStorage
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) SetMany(ctx context.Context, entries map[string]string) error {
	close(g.entered)
	<-g.release
	return g.MemoryStorage.SetMany(ctx, entries)
}

func TestStore_ClearWaitsForPendingLogin(t *testing.T) {
	ctx := context.Background()
	storage := &gatedStorage{
		MemoryStorage: NewMemoryStorage(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	s := NewStore(storage, logger.Discard())

	loggedIn := make(chan error, 1)
	go func() {
		loggedIn <- s.SetCredentials(ctx, "abc", domain.SessionUser{ID: "1"})
	}()
	<-storage.entered

	cleared := make(chan error, 1)
	go func() { cleared <- s.Clear(ctx) }()

	select {
	case <-cleared:
		t.Fatal("logout finished while a login was still being written")
	case <-time.After(20 * time.Millisecond):
	}

	close(storage.release)
	require.NoError(t, <-loggedIn)
	require.NoError(t, <-cleared)

	assert.False(t, s.IsAuthenticated())
	_, ok, err := storage.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ConcurrentWritesKeepMemoryAndStorageInStep(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := NewStore(storage, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetCredentials(ctx, "abc", domain.SessionUser{ID: "1"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Clear(ctx)
		}()
	}
	wg.Wait()

	stored, _, err := storage.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, stored, s.Token())
}

func TestStore_SetUserInfoKeepsToken(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := NewStore(storage, logger.Discard())
	require.NoError(t, s.SetCredentials(ctx, "abc", domain.SessionUser{ID: "1", Name: "Old", Role: domain.RoleAdmin}))

	require.NoError(t, s.SetUserInfo(ctx, domain.SessionUser{ID: "1", Name: "New", Role: domain.RoleAdmin}))
	assert.Equal(t, "abc", s.Token())
	u, _ := s.UserInfo()
	assert.Equal(t, "New", u.Name)

	token, _, _ := storage.Get(ctx, KeyToken)
	assert.Equal(t, "abc", token)
}

func TestStore_InitWithoutSessionIsAnonymous(t *testing.T) {
	s := NewStore(NewFileStorage(filepath.Join(t.TempDir(), "missing.json")), logger.Discard())
	require.NoError(t, s.Init(context.Background()))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, domain.RoleUser, s.Role())
}

func TestStore_InitIgnoresCorruptUser(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.SetMany(ctx, map[string]string{KeyToken: "abc", KeyUserInfo: "{not json"}))

	s := NewStore(storage, logger.Discard())
	require.NoError(t, s.Init(ctx))
	assert.Equal(t, "abc", s.Token())
	_, ok := s.UserInfo()
	assert.False(t, ok)
}

func TestStore_Guards(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStorage(), logger.Discard())

	assert.ErrorIs(t, s.RequireAuthenticated(), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, s.RequireAdmin(), apperrors.ErrUnauthorized)
	assert.NoError(t, s.RequireGuest())

	require.NoError(t, s.SetCredentials(ctx, "t", domain.SessionUser{ID: "2"}))
	assert.NoError(t, s.RequireAuthenticated())
	assert.ErrorIs(t, s.RequireAdmin(), apperrors.ErrForbidden)
	assert.ErrorIs(t, s.RequireGuest(), ErrAlreadyAuthenticated)

	require.NoError(t, s.SetUserInfo(ctx, domain.SessionUser{ID: "2", Role: domain.RoleAdmin}))
	assert.NoError(t, s.RequireAdmin())
}

func TestStore_TokenExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStorage(), logger.Discard())

	_, ok := s.TokenExpiry()
	assert.False(t, ok)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	require.NoError(t, s.SetCredentials(ctx, token, domain.SessionUser{ID: "1"}))

	got, ok := s.TokenExpiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	require.NoError(t, s.SetCredentials(ctx, "opaque-token", domain.SessionUser{ID: "1"}))
	_, ok = s.TokenExpiry()
	assert.False(t, ok)
}

func TestFileStorage_PermissionsAndAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adminctl", "session.json")
	fs := NewFileStorage(path)
	require.NoError(t, fs.Set(context.Background(), KeyToken, "abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, _, err := NewFileStorage(path).Get(context.Background(), KeyToken)
	assert.Error(t, err)
}

func TestRedisStorage_PrefixAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rs := NewRedisStorage(client, "ops:", time.Hour)
	require.NoError(t, rs.Set(context.Background(), KeyToken, "abc"))

	v, err := mr.Get("ops:token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
	assert.Equal(t, time.Hour, mr.TTL("ops:token"))
	assert.NoError(t, rs.Ping(context.Background()))
}

func TestRedisStorage_ConnectionError(t *testing.T) {
	rs, mr := setupRedisStorage(t)
	mr.Close()

	_, _, err := rs.Get(context.Background(), KeyToken)
	require.Error(t, err)
	assert.False(t, errors.Is(err, goredis.Nil))
}

func TestPrefs(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	p := NewPrefs(storage, logger.Discard())
	require.NoError(t, p.Init(ctx))
	assert.Equal(t, ModeLight, p.Mode())
	assert.Equal(t, DefaultLanguage, p.Language())

	mode, err := p.ToggleMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeDark, mode)
	require.NoError(t, p.SetLanguage(ctx, "ar"))
	assert.Error(t, p.SetLanguage(ctx, ""))

	reloaded := NewPrefs(storage, logger.Discard())
	require.NoError(t, reloaded.Init(ctx))
	assert.Equal(t, ModeDark, reloaded.Mode())
	assert.Equal(t, "ar", reloaded.Language())

	mode, err = reloaded.ToggleMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModeLight, mode)
}
