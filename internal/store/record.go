package store

// Observable record wrappers. Every mutator routes through Store.mutate so
// any field change, including nested sub-configs, schedules a debounced
// save for its key. Getters return copies; callers never hold a reference
// into the cached document.

// UserRecord is the observable view of one user document.
type UserRecord struct {
	store *Store
	key   recordKey
	doc   *UserDoc
}

// Snapshot returns a copy of the current document.
func (r *UserRecord) Snapshot() UserDoc {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return *r.doc
}

// ID returns the record's user ID.
func (r *UserRecord) ID() string { return r.key.id }

func (r *UserRecord) Money() int64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.Money
}

func (r *UserRecord) SetMoney(v int64) {
	r.store.mutate(r.key, func() { r.doc.Money = v })
}

// AddMoney adjusts the balance by delta and returns the new balance.
func (r *UserRecord) AddMoney(delta int64) int64 {
	var out int64
	r.store.mutate(r.key, func() {
		r.doc.Money += delta
		out = r.doc.Money
	})
	return out
}

func (r *UserRecord) Exp() int64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.Exp
}

// AddExp adjusts experience by delta and returns the new total.
func (r *UserRecord) AddExp(delta int64) int64 {
	var out int64
	r.store.mutate(r.key, func() {
		r.doc.Exp += delta
		out = r.doc.Exp
	})
	return out
}

func (r *UserRecord) Level() int64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.Level
}

func (r *UserRecord) SetLevel(v int64) {
	r.store.mutate(r.key, func() { r.doc.Level = v })
}

func (r *UserRecord) NextDailyAt() int64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.NextDailyAt
}

func (r *UserRecord) SetNextDailyAt(unixMilli int64) {
	r.store.mutate(r.key, func() { r.doc.NextDailyAt = unixMilli })
}

// GuildRecord is the observable view of one guild document.
type GuildRecord struct {
	store *Store
	key   recordKey
	doc   *GuildDoc
}

// Snapshot returns a deep copy of the current document.
func (r *GuildRecord) Snapshot() GuildDoc {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return copyGuildDoc(r.doc)
}

// ID returns the record's guild ID.
func (r *GuildRecord) ID() string { return r.key.id }

func (r *GuildRecord) Welcome() WelcomeConfig {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.Welcome
}

func (r *GuildRecord) SetWelcome(cfg WelcomeConfig) {
	r.store.mutate(r.key, func() { r.doc.Welcome = cfg })
}

func (r *GuildRecord) Greeter() GreeterConfig {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.Greeter
}

func (r *GuildRecord) SetGreeter(cfg GreeterConfig) {
	r.store.mutate(r.key, func() { r.doc.Greeter = cfg })
}

func (r *GuildRecord) Autorole() AutoroleConfig {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return AutoroleConfig{
		Roles:     append([]string(nil), r.doc.Autorole.Roles...),
		Blacklist: append([]string(nil), r.doc.Autorole.Blacklist...),
	}
}

func (r *GuildRecord) SetAutorole(cfg AutoroleConfig) {
	roles := append([]string(nil), cfg.Roles...)
	blacklist := append([]string(nil), cfg.Blacklist...)
	r.store.mutate(r.key, func() {
		r.doc.Autorole.Roles = roles
		r.doc.Autorole.Blacklist = blacklist
	})
}

func (r *GuildRecord) Mode() string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.Mode
}

func (r *GuildRecord) SetMode(mode string) {
	r.store.mutate(r.key, func() { r.doc.Mode = mode })
}

// BotRecord is the observable view of the singleton bot document.
type BotRecord struct {
	store *Store
	key   recordKey
	doc   *BotDoc
}

// Snapshot returns a copy of the current document.
func (r *BotRecord) Snapshot() BotDoc {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return *r.doc
}

func (r *BotRecord) Mode() string {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.Mode
}

func (r *BotRecord) SetMode(mode string) {
	r.store.mutate(r.key, func() { r.doc.Mode = mode })
}

func (r *BotRecord) Maintenance() bool {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.doc.Maintenance
}

func (r *BotRecord) SetMaintenance(on bool) {
	r.store.mutate(r.key, func() { r.doc.Maintenance = on })
}

func copyGuildDoc(doc *GuildDoc) GuildDoc {
	out := *doc
	out.Autorole.Roles = append([]string(nil), doc.Autorole.Roles...)
	out.Autorole.Blacklist = append([]string(nil), doc.Autorole.Blacklist...)
	return out
}
