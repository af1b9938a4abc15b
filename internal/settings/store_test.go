package settings

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-alexa/migrations"
)

// ─── Fakes ──────────────────────────────────────────────────────────

type fakeRedis struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error { return nil }

// ─── Helpers ────────────────────────────────────────────────────────

func openSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "settings.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteStore(db.DB)
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": openSQLiteStore(t),
		"redis":  newRedisStore(newFakeRedis(), ""),
	}
}

// ─── Store contract ─────────────────────────────────────────────────

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := store.GetUserSettings(ctx, "u1"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("GetUserSettings(unknown) error = %v, want ErrNotFound", err)
			}

			want := UserSettings{"grant_code": "abc", "grant_type": "OAuth2.AuthorizationCode"}
			if err := store.SaveUserSettings(ctx, "u1", want); err != nil {
				t.Fatalf("SaveUserSettings() error = %v", err)
			}
			got, err := store.GetUserSettings(ctx, "u1")
			if err != nil {
				t.Fatalf("GetUserSettings() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("GetUserSettings() = %v, want %v", got, want)
			}

			// Save replaces.
			if err := store.SaveUserSettings(ctx, "u1", UserSettings{"locale": "en-GB"}); err != nil {
				t.Fatalf("SaveUserSettings() error = %v", err)
			}
			got, _ = store.GetUserSettings(ctx, "u1")
			if !reflect.DeepEqual(got, UserSettings{"locale": "en-GB"}) {
				t.Errorf("after replace = %v", got)
			}

			if err := store.DeleteUserSettings(ctx, "u1"); err != nil {
				t.Fatalf("DeleteUserSettings() error = %v", err)
			}
			if _, err := store.GetUserSettings(ctx, "u1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("after delete error = %v, want ErrNotFound", err)
			}
			if err := store.DeleteUserSettings(ctx, "u1"); err != nil {
				t.Errorf("second delete error = %v", err)
			}
		})
	}
}

func TestStoreUpdateMerges(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := store.UpdateUserSettings(ctx, "u2", UserSettings{"a": "1", "b": "2"})
			if err != nil {
				t.Fatalf("UpdateUserSettings(create) error = %v", err)
			}
			if !reflect.DeepEqual(got, UserSettings{"a": "1", "b": "2"}) {
				t.Errorf("create = %v", got)
			}

			got, err = store.UpdateUserSettings(ctx, "u2", UserSettings{"b": nil, "c": "3"})
			if err != nil {
				t.Fatalf("UpdateUserSettings(merge) error = %v", err)
			}
			want := UserSettings{"a": "1", "c": "3"}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("merge = %v, want %v", got, want)
			}
			stored, _ := store.GetUserSettings(ctx, "u2")
			if !reflect.DeepEqual(stored, want) {
				t.Errorf("stored = %v, want %v", stored, want)
			}
		})
	}
}

func TestStoreEmptyUserID(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.SaveUserSettings(ctx, "", UserSettings{}); !errors.Is(err, ErrEmptyUserID) {
				t.Errorf("SaveUserSettings(\"\") error = %v", err)
			}
			if _, err := store.GetUserSettings(ctx, ""); !errors.Is(err, ErrEmptyUserID) {
				t.Errorf("GetUserSettings(\"\") error = %v", err)
			}
		})
	}
}

// ─── Redis specifics ────────────────────────────────────────────────

func TestRedisStoreKeyPrefix(t *testing.T) {
	fake := newFakeRedis()
	store := newRedisStore(fake, "test:")
	if err := store.SaveUserSettings(context.Background(), "u3", UserSettings{"x": "y"}); err != nil {
		t.Fatalf("SaveUserSettings() error = %v", err)
	}
	if got := fake.data["test:u3"]; got != `{"x":"y"}` {
		t.Errorf("stored value = %q", got)
	}
}

func TestRedisStoreGetError(t *testing.T) {
	fake := newFakeRedis()
	fake.getErr = errors.New("connection reset")
	store := newRedisStore(fake, "")

	_, err := store.GetUserSettings(context.Background(), "u4")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserSettings() error = %v, want transport error", err)
	}
}

func TestOpenRedisRequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Error("OpenRedis() with empty Addr should fail")
	}
}

func TestMerge(t *testing.T) {
	var base UserSettings
	got := base.Merge(UserSettings{"k": "v"})
	if !reflect.DeepEqual(got, UserSettings{"k": "v"}) {
		t.Errorf("Merge on nil = %v", got)
	}
}
