package services

import (
	"context"
	"regexp"
	"sync"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/errors"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/practicelog"
	"github.com/ksebe/streakd/internal/reminder"
	"github.com/ksebe/streakd/internal/repository"
)

var userIDRe = regexp.MustCompile(`^[A-Za-z0-9_.@-]{1,128}$`)

// ValidateUserID rejects ids that cannot be used as a storage namespace.
func ValidateUserID(userID string) error {
	if userID == "" {
		return errors.NewValidationError("user_id", "cannot be empty")
	}
	if !userIDRe.MatchString(userID) {
		return errors.NewValidationError("user_id", "must be 1-128 characters of letters, digits, '_', '.', '@' or '-'")
	}
	return nil
}

// ChangeFunc is told which days a user's log gained in one change.
type ChangeFunc func(ctx context.Context, userID string, added []datekey.Key)

// UserData is everything kept per user on the shared store.
type UserData struct {
	UserID string
	Store  repository.KVStore
	Log    *practicelog.Log
	Flags  *reminder.Flags

	mu   sync.Mutex
	seen map[datekey.Key]struct{}
}

// Registry hands out one practice log per user, all backed by the same
// store under per-user namespaces. A log is created on first use and lives
// until Close.
type Registry struct {
	store        repository.KVStore
	reminderHour int
	log          *logger.Logger

	mu       sync.Mutex
	users    map[string]*UserData
	watchers []ChangeFunc
	unsubs   []func()
}

// NewRegistry creates a Registry on store.
func NewRegistry(store repository.KVStore, reminderHour int) *Registry {
	return &Registry{
		store:        store,
		reminderHour: reminderHour,
		log:          logger.Default().WithPrefix("registry"),
		users:        make(map[string]*UserData),
	}
}

// Watch registers fn for days added to any user's log. Register watchers
// before the first For call; users created earlier are not re-subscribed.
func (r *Registry) Watch(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers = append(r.watchers, fn)
}

// For returns the data of userID, creating it on first use.
func (r *Registry) For(ctx context.Context, userID string) (*UserData, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		return u, nil
	}

	userLog := r.log.WithField("user_id", userID)
	store := repository.Namespaced(r.store, repository.UserNamespace(userID))
	u := &UserData{
		UserID: userID,
		Store:  store,
		Log:    practicelog.New(store, practicelog.WithLogger(userLog.WithPrefix("practicelog"))),
		Flags:  reminder.NewFlags(store, r.reminderHour, userLog),
		seen:   make(map[datekey.Key]struct{}),
	}
	for _, d := range u.Log.Read(ctx) {
		u.seen[d] = struct{}{}
	}

	watchers := make([]ChangeFunc, len(r.watchers))
	copy(watchers, r.watchers)
	if len(watchers) > 0 {
		r.unsubs = append(r.unsubs, u.Log.Subscribe(func(ctx context.Context, days []datekey.Key) {
			added := u.diff(days)
			if len(added) == 0 {
				return
			}
			for _, fn := range watchers {
				fn(ctx, userID, added)
			}
		}))
	}

	r.users[userID] = u
	userLog.Debug("user log opened")
	return u, nil
}

// diff returns the days of snapshot not seen before and remembers them.
func (u *UserData) diff(snapshot []datekey.Key) []datekey.Key {
	u.mu.Lock()
	defer u.mu.Unlock()
	var added []datekey.Key
	for _, d := range snapshot {
		if _, ok := u.seen[d]; ok {
			continue
		}
		u.seen[d] = struct{}{}
		added = append(added, d)
	}
	return added
}

// MarkSeen records days as already known so a later change containing them
// is not reported to watchers. It is used before merging days that came from
// the remote mirror.
func (u *UserData) MarkSeen(days []datekey.Key) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, d := range days {
		u.seen[d] = struct{}{}
	}
}

// Len returns the number of open users.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// Close drops every subscription made by the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}
