// Package store is the persistent record store: a lazily-loaded, mutation-
// observed, debounced-write cache of per-entity JSON documents backed by a
// relational table.
//
// Every record is materialized with a default shape the first time it is
// addressed and hydrated asynchronously from storage. Local mutations mark
// the key dirty and (re)arm a per-key debounce timer; a late-arriving load
// never overwrites fields a dirty key already changed. Saves for one key
// are strictly serialized.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	collectionUsers  = "users"
	collectionGuilds = "guilds"
	collectionBot    = "bot"

	// DefaultDebounce is the write-coalescing window when none is configured.
	DefaultDebounce = 300 * time.Millisecond
)

var (
	// ErrInvalidID is returned by explicit loads for malformed record IDs.
	ErrInvalidID = errors.New("invalid record id")
	// ErrClosed is returned once the store has begun shutting down.
	ErrClosed = errors.New("record store is closed")
)

var validID = regexp.MustCompile(`^\d{5,30}$`)

// NormalizeID trims an ID and reports whether it matches the strict
// identifier pattern (digits only, bounded length).
func NormalizeID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	return id, validID.MatchString(id)
}

type recordKey struct {
	collection string
	id         string
}

func (k recordKey) String() string { return k.collection + ":" + k.id }

// Options configures the backing database connection.
type Options struct {
	Driver   string // "sqlite" or "postgres"
	DSN      string // postgres connection string
	Path     string // sqlite file path
	Debounce time.Duration
}

// Store owns the record caches, the dirty/revision bookkeeping, and the
// per-key debounce timers and save chains.
type Store struct {
	db       *gorm.DB
	log      zerolog.Logger
	debounce time.Duration
	now      func() time.Time

	mu        sync.Mutex
	users     map[string]*UserRecord
	guilds    map[string]*GuildRecord
	bot       *BotRecord
	dirty     map[recordKey]struct{}
	revisions map[recordKey]uint64
	timers    map[recordKey]*time.Timer
	loads     map[recordKey]chan struct{}
	saveTails map[recordKey]chan struct{}
	wg        sync.WaitGroup
	closed    bool

	// onSave observes every settled save; beforeSave, when set, can fail a
	// save before it reaches the database. Test seams.
	onSave     func(key recordKey, err error)
	beforeSave func(key recordKey) error
}

// New wraps an already-opened gorm handle. Callers own migration.
func New(db *gorm.DB, debounce time.Duration, log zerolog.Logger) *Store {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Store{
		db:        db,
		log:       log,
		debounce:  debounce,
		now:       time.Now,
		users:     make(map[string]*UserRecord),
		guilds:    make(map[string]*GuildRecord),
		dirty:     make(map[recordKey]struct{}),
		revisions: make(map[recordKey]uint64),
		timers:    make(map[recordKey]*time.Timer),
		loads:     make(map[recordKey]chan struct{}),
		saveTails: make(map[recordKey]chan struct{}),
	}
}

// Open connects to the configured database, migrates the record tables,
// and hydrates the singleton bot record.
func Open(ctx context.Context, opts Options, log zerolog.Logger) (*Store, error) {
	var dial gorm.Dialector
	switch opts.Driver {
	case "postgres":
		dial = postgres.Open(opts.DSN)
	default:
		if dir := filepath.Dir(opts.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dial = sqlite.Open(opts.Path)
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.Driver != "postgres" {
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
		db.Exec("PRAGMA busy_timeout=5000;")
	}

	if err := db.AutoMigrate(&UserData{}, &GuildData{}, &BotData{}); err != nil {
		return nil, fmt.Errorf("migrate record tables: %w", err)
	}

	s := New(db, opts.Debounce, log)
	if _, err := s.LoadBot(ctx); err != nil {
		return nil, fmt.Errorf("load bot record: %w", err)
	}
	return s, nil
}

// --- Read path ---

// User returns the record for a user ID, materializing a default-shaped
// record and starting a background load on first access. Invalid IDs
// return nil.
func (s *Store) User(id string) *UserRecord {
	id, ok := NormalizeID(id)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureUserLocked(id)
}

// Guild returns the record for a guild ID; same semantics as User.
func (s *Store) Guild(id string) *GuildRecord {
	id, ok := NormalizeID(id)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureGuildLocked(id)
}

// Bot returns the singleton bot record, materializing it on first access.
func (s *Store) Bot() *BotRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureBotLocked()
}

func (s *Store) ensureUserLocked(id string) *UserRecord {
	if rec, ok := s.users[id]; ok {
		return rec
	}
	rec := &UserRecord{store: s, key: recordKey{collectionUsers, id}, doc: defaultUserDoc(id)}
	s.users[id] = rec
	if !s.closed {
		s.startLoadLocked(rec.key)
	}
	return rec
}

func (s *Store) ensureGuildLocked(id string) *GuildRecord {
	if rec, ok := s.guilds[id]; ok {
		return rec
	}
	rec := &GuildRecord{store: s, key: recordKey{collectionGuilds, id}, doc: defaultGuildDoc(id)}
	s.guilds[id] = rec
	if !s.closed {
		s.startLoadLocked(rec.key)
	}
	return rec
}

func (s *Store) ensureBotLocked() *BotRecord {
	if s.bot == nil {
		s.bot = &BotRecord{store: s, key: recordKey{collectionBot, BotKey}, doc: defaultBotDoc()}
		if !s.closed {
			s.startLoadLocked(s.bot.key)
		}
	}
	return s.bot
}

// --- Explicit loads ---

// LoadUser returns the user record after the in-flight or newly-started
// storage load settles. Invalid IDs raise ErrInvalidID.
func (s *Store) LoadUser(ctx context.Context, id string) (*UserRecord, error) {
	id, ok := NormalizeID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	rec := s.ensureUserLocked(id)
	ch := s.startLoadLocked(rec.key)
	s.mu.Unlock()

	select {
	case <-ch:
		return rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LoadGuild returns the guild record after its storage load settles.
func (s *Store) LoadGuild(ctx context.Context, id string) (*GuildRecord, error) {
	id, ok := NormalizeID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	rec := s.ensureGuildLocked(id)
	ch := s.startLoadLocked(rec.key)
	s.mu.Unlock()

	select {
	case <-ch:
		return rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LoadBot returns the singleton bot record after its storage load settles.
func (s *Store) LoadBot(ctx context.Context) (*BotRecord, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	rec := s.ensureBotLocked()
	ch := s.startLoadLocked(rec.key)
	s.mu.Unlock()

	select {
	case <-ch:
		return rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startLoadLocked starts a background load for key, coalescing with any
// load already in flight. Returns the channel closed when the load settles.
func (s *Store) startLoadLocked(key recordKey) chan struct{} {
	if ch, ok := s.loads[key]; ok {
		return ch
	}
	ch := make(chan struct{})
	s.loads[key] = ch
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loadRecord(key)
		s.mu.Lock()
		delete(s.loads, key)
		s.mu.Unlock()
		close(ch)
	}()
	return ch
}

// loadRecord fetches the stored document and merges it into the cached
// record, unless the key went dirty in the meantime. Storage failures are
// logged and the record keeps its cached/default value.
func (s *Store) loadRecord(key recordKey) {
	var (
		data  string
		found bool
		err   error
	)
	switch key.collection {
	case collectionUsers:
		var row UserData
		err = s.db.First(&row, "id = ?", key.id).Error
		data, found = row.Data, err == nil
	case collectionGuilds:
		var row GuildData
		err = s.db.First(&row, "id = ?", key.id).Error
		data, found = row.Data, err == nil
	case collectionBot:
		var row BotData
		err = s.db.First(&row, "key = ?", key.id).Error
		data, found = row.Data, err == nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Error().Err(err).Str("record", key.String()).Msg("Database load failed")
		return
	}
	if !found || data == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dirty := s.dirty[key]; dirty {
		// Unsaved local mutations win over a late-arriving read.
		return
	}
	var mergeErr error
	switch key.collection {
	case collectionUsers:
		if rec, ok := s.users[key.id]; ok {
			mergeErr = json.Unmarshal([]byte(data), rec.doc)
		}
	case collectionGuilds:
		if rec, ok := s.guilds[key.id]; ok {
			mergeErr = json.Unmarshal([]byte(data), rec.doc)
		}
	case collectionBot:
		if s.bot != nil {
			mergeErr = json.Unmarshal([]byte(data), s.bot.doc)
		}
	}
	if mergeErr != nil {
		s.log.Error().Err(mergeErr).Str("record", key.String()).Msg("Stored document is malformed, keeping cached value")
	}
}

// --- Write scheduling ---

// mutate applies fn to the record's document under the store lock and
// schedules a debounced save. After close the in-memory change still
// applies but nothing is scheduled.
func (s *Store) mutate(key recordKey, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.scheduleLocked(key, true)
}

// scheduleLocked marks the key dirty and (re)arms its debounce timer.
// bump advances the revision; retries re-arm at the current revision.
func (s *Store) scheduleLocked(key recordKey, bump bool) {
	if s.closed {
		return
	}
	if bump {
		s.revisions[key]++
	}
	rev := s.revisions[key]
	s.dirty[key] = struct{}{}

	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		if s.timers[key] != t {
			// Superseded by a re-arm or a flush.
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.enqueueSaveLocked(key, rev)
		s.mu.Unlock()
	})
	s.timers[key] = t
}

// enqueueSaveLocked chains a save for key at the given revision behind any
// save already in flight, so writes to one key never run concurrently.
func (s *Store) enqueueSaveLocked(key recordKey, rev uint64) {
	prev := s.saveTails[key]
	done := make(chan struct{})
	s.saveTails[key] = done

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}

		err := s.saveRecord(key, rev)
		if err != nil {
			s.log.Error().Err(err).Str("record", key.String()).Msg("Database save failed")
			s.mu.Lock()
			s.scheduleLocked(key, false)
			s.mu.Unlock()
		}
		if s.onSave != nil {
			s.onSave(key, err)
		}

		s.mu.Lock()
		if s.saveTails[key] == done {
			delete(s.saveTails, key)
		}
		s.mu.Unlock()
	}()
}

// saveRecord upserts the record's current document. The dirty flag is
// cleared only when the key's revision has not advanced past the one this
// save was scheduled at.
func (s *Store) saveRecord(key recordKey, rev uint64) error {
	if s.beforeSave != nil {
		if err := s.beforeSave(key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	var doc any
	switch key.collection {
	case collectionUsers:
		if rec, ok := s.users[key.id]; ok {
			snapshot := *rec.doc
			doc = &snapshot
		} else {
			doc = defaultUserDoc(key.id)
		}
	case collectionGuilds:
		if rec, ok := s.guilds[key.id]; ok {
			snapshot := copyGuildDoc(rec.doc)
			doc = &snapshot
		} else {
			doc = defaultGuildDoc(key.id)
		}
	case collectionBot:
		if s.bot != nil {
			snapshot := *s.bot.doc
			doc = &snapshot
		} else {
			doc = defaultBotDoc()
		}
	}
	s.mu.Unlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	now := s.now().UTC()
	switch key.collection {
	case collectionUsers:
		err = s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"data": string(data), "updated_at": now}),
		}).Create(&UserData{ID: key.id, Data: string(data), CreatedAt: now, UpdatedAt: now}).Error
	case collectionGuilds:
		err = s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"data": string(data), "updated_at": now}),
		}).Create(&GuildData{ID: key.id, Data: string(data), CreatedAt: now, UpdatedAt: now}).Error
	case collectionBot:
		err = s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"data": string(data), "updated_at": now}),
		}).Create(&BotData{Key: key.id, Data: string(data), UpdatedAt: now}).Error
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.revisions[key] == rev {
		delete(s.dirty, key)
	}
	s.mu.Unlock()
	return nil
}

// --- Shutdown ---

// FlushAll cancels every pending debounce timer and force-saves each such
// key at its current revision, then waits for all in-flight loads and
// saves to settle. Individual failures are logged, not returned. A record
// mutated after FlushAll begins is not guaranteed to be captured.
func (s *Store) FlushAll(ctx context.Context) {
	s.mu.Lock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
		s.enqueueSaveLocked(key, s.revisions[key])
	}
	waits := make([]chan struct{}, 0, len(s.saveTails)+len(s.loads))
	for _, ch := range s.saveTails {
		waits = append(waits, ch)
	}
	for _, ch := range s.loads {
		waits = append(waits, ch)
	}
	s.mu.Unlock()

	for _, ch := range waits {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

// Close flushes pending writes, waits for in-flight work, and releases
// the database handle. The store refuses further scheduling afterwards.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.FlushAll(ctx)

	settled := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(settled)
	}()
	select {
	case <-settled:
	case <-ctx.Done():
		s.log.Warn().Msg("Shutdown deadline reached with storage work still in flight")
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
