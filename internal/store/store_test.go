package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, debounce time.Duration) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, Options{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "test.db"),
		Debounce: debounce,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		_ = s.Close(closeCtx)
	})
	return s
}

// saveRecorder collects settled saves through the onSave hook.
type saveRecorder struct {
	mu    sync.Mutex
	saves []recordKey
	errs  []error
	ch    chan struct{}
}

func newSaveRecorder(s *Store) *saveRecorder {
	r := &saveRecorder{ch: make(chan struct{}, 64)}
	s.onSave = func(key recordKey, err error) {
		r.mu.Lock()
		r.saves = append(r.saves, key)
		r.errs = append(r.errs, err)
		r.mu.Unlock()
		r.ch <- struct{}{}
	}
	return r
}

func (r *saveRecorder) waitN(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.ch:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for save %d of %d", i+1, n)
		}
	}
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *saveRecorder) outcome(i int) (recordKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves[i], r.errs[i]
}

func TestNormalizeID(t *testing.T) {
	for _, tc := range []struct {
		in string
		ok bool
	}{
		{"123456789012345678", true},
		{"  123456789012345678  ", true},
		{"12345", true},
		{"1234", false},
		{"abc", false},
		{"", false},
		{"123456789012345678901234567890123", false},
		{"12345678x", false},
	} {
		_, ok := NormalizeID(tc.in)
		assert.Equal(t, tc.ok, ok, "id %q", tc.in)
	}
}

func TestUserRejectsInvalidID(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)

	assert.Nil(t, s.User("abc"))
	assert.Nil(t, s.Guild("not-an-id"))

	_, err := s.LoadUser(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestDefaultDocumentShape(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)

	user, err := s.LoadUser(context.Background(), "123456789012345678")
	require.NoError(t, err)
	doc := user.Snapshot()
	assert.Equal(t, "123456789012345678", doc.ID)
	assert.EqualValues(t, 0, doc.Money)
	assert.EqualValues(t, 1, doc.Level)
	assert.EqualValues(t, 0, doc.NextDailyAt)

	guild, err := s.LoadGuild(context.Background(), "876543210987654321")
	require.NoError(t, err)
	gdoc := guild.Snapshot()
	assert.Equal(t, "Welcome, {user}.", gdoc.Welcome.Message)
	assert.False(t, gdoc.Welcome.Enabled)
	assert.Equal(t, "normal", gdoc.Mode)

	bot, err := s.LoadBot(context.Background())
	require.NoError(t, err)
	bdoc := bot.Snapshot()
	assert.Equal(t, "public", bdoc.Mode)
	assert.False(t, bdoc.Maintenance)
}

func TestMutationPersistsAfterDebounce(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)
	rec := newSaveRecorder(s)

	user := s.User("123456789012345678")
	require.NotNil(t, user)
	user.SetMoney(500)

	rec.waitN(t, 1)

	var row UserData
	require.NoError(t, s.db.First(&row, "id = ?", "123456789012345678").Error)
	var doc UserDoc
	require.NoError(t, json.Unmarshal([]byte(row.Data), &doc))
	assert.EqualValues(t, 500, doc.Money)
}

func TestRapidMutationsCoalesceToOneSave(t *testing.T) {
	s := newTestStore(t, 50*time.Millisecond)
	rec := newSaveRecorder(s)

	user := s.User("123456789012345678")
	for i := 0; i < 10; i++ {
		user.AddMoney(10)
	}

	rec.waitN(t, 1)
	// Give a second save a window to appear if coalescing is broken.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 1, rec.count())

	var row UserData
	require.NoError(t, s.db.First(&row, "id = ?", "123456789012345678").Error)
	var doc UserDoc
	require.NoError(t, json.Unmarshal([]byte(row.Data), &doc))
	assert.EqualValues(t, 100, doc.Money)
}

func TestLocalMutationWinsOverStaleLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	first, err := Open(ctx, Options{Driver: "sqlite", Path: path, Debounce: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)
	u, err := first.LoadUser(ctx, "123456789012345678")
	require.NoError(t, err)
	u.SetMoney(100)
	require.NoError(t, first.Close(ctx))

	second, err := Open(ctx, Options{Driver: "sqlite", Path: path, Debounce: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)
	defer second.Close(ctx)

	// Mutate before the background load settles. The merge must not
	// clobber the dirty document with the stored value.
	user := second.User("123456789012345678")
	user.SetMoney(500)

	_, err = second.LoadUser(ctx, "123456789012345678")
	require.NoError(t, err)
	assert.EqualValues(t, 500, user.Money())
}

func TestLoadMergesStoredDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	first, err := Open(ctx, Options{Driver: "sqlite", Path: path, Debounce: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)
	u, err := first.LoadUser(ctx, "123456789012345678")
	require.NoError(t, err)
	u.SetMoney(1234)
	u.SetLevel(7)
	require.NoError(t, first.Close(ctx))

	second, err := Open(ctx, Options{Driver: "sqlite", Path: path, Debounce: 10 * time.Millisecond}, zerolog.Nop())
	require.NoError(t, err)
	defer second.Close(ctx)

	user, err := second.LoadUser(ctx, "123456789012345678")
	require.NoError(t, err)
	doc := user.Snapshot()
	assert.EqualValues(t, 1234, doc.Money)
	assert.EqualValues(t, 7, doc.Level)
}

func TestFlushAllForcesPendingSaves(t *testing.T) {
	// Long debounce so no timer fires on its own during the test.
	s := newTestStore(t, time.Hour)
	rec := newSaveRecorder(s)

	ids := []string{
		"100000000000000001",
		"100000000000000002",
		"100000000000000003",
		"100000000000000004",
		"100000000000000005",
	}
	for _, id := range ids {
		u := s.User(id)
		u.AddMoney(1)
		u.AddExp(2)
	}

	s.FlushAll(context.Background())
	rec.waitN(t, len(ids))
	assert.Equal(t, len(ids), rec.count())

	for _, id := range ids {
		var row UserData
		require.NoError(t, s.db.First(&row, "id = ?", id).Error, "row for %s", id)
	}
}

func TestFailedSaveIsRetriedAtSameRevision(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)
	rec := newSaveRecorder(s)

	// First write attempt fails, everything after goes through.
	var remaining atomic.Int32
	remaining.Store(1)
	s.beforeSave = func(recordKey) error {
		if remaining.Add(-1) >= 0 {
			return errors.New("storage unavailable")
		}
		return nil
	}

	user := s.User("123456789012345678")
	user.SetMoney(500)
	key := recordKey{collectionUsers, "123456789012345678"}

	s.mu.Lock()
	revAfterMutation := s.revisions[key]
	s.mu.Unlock()

	// The failure settles first, then the re-armed retry lands on the
	// same key's save chain.
	rec.waitN(t, 2)
	firstKey, firstErr := rec.outcome(0)
	secondKey, secondErr := rec.outcome(1)
	assert.Equal(t, key, firstKey)
	assert.Error(t, firstErr)
	assert.Equal(t, key, secondKey)
	assert.NoError(t, secondErr)

	s.mu.Lock()
	_, dirty := s.dirty[key]
	revAfterRetry := s.revisions[key]
	s.mu.Unlock()
	assert.False(t, dirty, "retry success must clear the dirty flag")
	assert.Equal(t, revAfterMutation, revAfterRetry, "retry must not bump the revision")

	var row UserData
	require.NoError(t, s.db.First(&row, "id = ?", "123456789012345678").Error)
	var doc UserDoc
	require.NoError(t, json.Unmarshal([]byte(row.Data), &doc))
	assert.EqualValues(t, 500, doc.Money)
}

func TestConcurrentLoadsCoalesce(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)

	// While a load is in flight, every further request for the same key
	// must join it instead of starting another fetch. The load goroutine
	// cannot finish while we hold the store lock, so the in-flight entry
	// is stable here.
	s.mu.Lock()
	rec := s.ensureUserLocked("123456789012345678")
	first := s.startLoadLocked(rec.key)
	second := s.startLoadLocked(rec.key)
	s.mu.Unlock()

	assert.Equal(t, first, second)

	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("load never settled")
	}

	// Concurrent callers also get the same record back.
	var a, b *UserRecord
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		a, _ = s.LoadUser(context.Background(), "234567890123456789")
	}()
	go func() {
		defer wg.Done()
		b, _ = s.LoadUser(context.Background(), "234567890123456789")
	}()
	wg.Wait()
	require.NotNil(t, a)
	assert.Same(t, a, b)
}

func TestCloseRefusesNewWork(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Options{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "test.db"),
		Debounce: 10 * time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	_, err = s.LoadUser(ctx, "123456789012345678")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.LoadBot(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, s.Close(ctx))
}

func TestRecordIdentityIsStable(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)

	a := s.User("123456789012345678")
	b := s.User("123456789012345678")
	assert.Same(t, a, b)

	g1 := s.Guild("876543210987654321")
	g2 := s.Guild("876543210987654321")
	assert.Same(t, g1, g2)
}

func TestGuildConfigRoundTrip(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)
	rec := newSaveRecorder(s)

	guild := s.Guild("876543210987654321")
	guild.SetWelcome(WelcomeConfig{Enabled: true, ChannelID: "111111111111111111", Message: "Hi, {user}!"})
	guild.SetAutorole(AutoroleConfig{Roles: []string{"222222222222222222"}, Blacklist: []string{"333333333333333333"}})

	rec.waitN(t, 1)

	var row GuildData
	require.NoError(t, s.db.First(&row, "id = ?", "876543210987654321").Error)
	var doc GuildDoc
	require.NoError(t, json.Unmarshal([]byte(row.Data), &doc))
	assert.True(t, doc.Welcome.Enabled)
	assert.Equal(t, "Hi, {user}!", doc.Welcome.Message)
	assert.Equal(t, []string{"222222222222222222"}, doc.Autorole.Roles)
	assert.Equal(t, []string{"333333333333333333"}, doc.Autorole.Blacklist)
}

func TestAutoroleSnapshotIsACopy(t *testing.T) {
	s := newTestStore(t, 20*time.Millisecond)

	guild := s.Guild("876543210987654321")
	guild.SetAutorole(AutoroleConfig{Roles: []string{"1111111111111111"}})

	cfg := guild.Autorole()
	cfg.Roles[0] = "mutated"
	assert.Equal(t, []string{"1111111111111111"}, guild.Autorole().Roles)
}
