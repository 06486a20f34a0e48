// Package practicelog keeps the list of days on which a practice was
// completed. The list is stored as a JSON array of date keys in a key-value
// store and changes are announced to in-process subscribers.
//
// Storage is a best-effort local cache: unreadable data reads as an empty log
// and failed writes are logged and dropped. Two processes writing the same
// store overwrite each other (last write wins); there is no merge.
package practicelog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/repository"
	"github.com/ksebe/streakd/internal/streak"
)

const (
	// StorageKey is where the completion list lives in the store.
	StorageKey = "ksebe_practice_completions"

	// MaxEntries bounds the persisted list to roughly two years of days. This
	// is a storage footprint limit, not a product rule: older days are dropped
	// on write and longest-streak history beyond it is lost.
	MaxEntries = 730
)

// Listener receives the log contents after a change, with the context of the
// call that made it.
type Listener func(ctx context.Context, days []datekey.Key)

type subscription struct {
	id int
	fn Listener
}

// Log is a practice completion log bound to one store.
type Log struct {
	store repository.KVStore
	key   string
	log   *logger.Logger

	writeMu sync.Mutex

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

// Option configures a Log.
type Option func(*Log)

// WithStorageKey overrides StorageKey.
func WithStorageKey(key string) Option {
	return func(l *Log) {
		l.key = key
	}
}

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(log *logger.Logger) Option {
	return func(l *Log) {
		l.log = log
	}
}

// New returns a Log persisted in store.
func New(store repository.KVStore, opts ...Option) *Log {
	l := &Log{
		store: store,
		key:   StorageKey,
		log:   logger.Default().WithPrefix("practicelog"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Read returns the persisted days. It never fails: a missing value, a store
// error, malformed JSON or a non-array value all read as an empty log.
// Malformed entries inside the array are dropped.
func (l *Log) Read(ctx context.Context) []datekey.Key {
	raw, ok, err := l.store.Get(ctx, l.key)
	if err != nil {
		l.log.Warn("read %s failed, treating as empty: %v", l.key, err)
		return []datekey.Key{}
	}
	if !ok || raw == "" {
		return []datekey.Key{}
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		l.log.Warn("stored %s is not valid JSON, treating as empty: %v", l.key, err)
		return []datekey.Key{}
	}
	items, isArray := parsed.([]any)
	if !isArray {
		l.log.Warn("stored %s is not an array, treating as empty", l.key)
		return []datekey.Key{}
	}

	strs := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			strs = append(strs, s)
		}
	}
	days, dropped := datekey.Lenient(strs)
	if skipped := dropped + len(items) - len(strs); skipped > 0 {
		l.log.Warn("dropped %d malformed entries from %s", skipped, l.key)
	}
	return days
}

// Write persists the most recent MaxEntries days of the normalized list. A
// store failure is logged and the write is lost; it is never retried here.
func (l *Log) Write(ctx context.Context, days []datekey.Key) {
	normalized := datekey.UniqueSorted(days)
	if len(normalized) > MaxEntries {
		normalized = normalized[len(normalized)-MaxEntries:]
	}
	b, err := json.Marshal(normalized)
	if err != nil {
		l.log.Error("encode %s: %v", l.key, err)
		return
	}
	if err := l.store.Set(ctx, l.key, string(b)); err != nil {
		l.log.Warn("write %s failed, keeping in-memory state only: %v", l.key, err)
	}
}

// AddCompletion returns days with day added, deduplicated and sorted. It does
// not persist anything.
func AddCompletion(days []datekey.Key, day datekey.Key) []datekey.Key {
	return streak.Append(days, day)
}

// Subscribe registers fn for change notifications and returns a function that
// removes it. Subscriptions live only as long as the process; a new listener
// should call Read for its initial state.
func (l *Log) Subscribe(fn Listener) (unsubscribe func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.subMu.Lock()
			defer l.subMu.Unlock()
			for i, s := range l.subs {
				if s.id == id {
					l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Notify calls every listener, in subscription order, with snapshot. A nil
// snapshot is replaced by a fresh Read.
func (l *Log) Notify(ctx context.Context, snapshot []datekey.Key) {
	if snapshot == nil {
		snapshot = l.Read(ctx)
	}
	l.subMu.Lock()
	subs := make([]subscription, len(l.subs))
	copy(subs, l.subs)
	l.subMu.Unlock()

	for _, s := range subs {
		s.fn(ctx, snapshot)
	}
}

// LogDay records day: it reads the log, adds day, persists the result and only
// then notifies listeners with the new snapshot. Concurrent calls are
// serialized. Listeners must not call LogDay or Merge themselves.
func (l *Log) LogDay(ctx context.Context, day datekey.Key) []datekey.Key {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	next := AddCompletion(l.Read(ctx), day)
	l.Write(ctx, next)
	l.Notify(ctx, next)
	return next
}

// LogToday records the calendar day of now, read in now's location.
func (l *Log) LogToday(ctx context.Context, now time.Time) []datekey.Key {
	return l.LogDay(ctx, datekey.FromTime(now))
}

// Merge adds every day of other to the log, persists and notifies. It is used
// when days come back from the remote mirror.
func (l *Log) Merge(ctx context.Context, other []datekey.Key) []datekey.Key {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	current := l.Read(ctx)
	merged := make([]datekey.Key, 0, len(current)+len(other))
	merged = append(merged, current...)
	merged = append(merged, other...)
	merged = datekey.UniqueSorted(merged)
	l.Write(ctx, merged)
	l.Notify(ctx, merged)
	return merged
}
