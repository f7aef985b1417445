// Package lock provides per-user locking for multi-step XP flows. The
// database keeps individual statements atomic; these locks serialize
// read-modify-write sequences (cooldown checks, penalty maths) that span
// more than one statement for the same user.
package lock

import "sync"

// UserLock hands out one mutex per user ID.
type UserLock struct {
	locks sync.Map // map[int64]*sync.Mutex
	pool  sync.Pool
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{
		pool: sync.Pool{
			New: func() any {
				return &sync.Mutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for the given user ID.
func (ul *UserLock) getLock(userID int64) *sync.Mutex {
	if v, ok := ul.locks.Load(userID); ok {
		return v.(*sync.Mutex)
	}

	candidate := ul.pool.Get().(*sync.Mutex)
	actual, loaded := ul.locks.LoadOrStore(userID, candidate)
	if loaded {
		// Another goroutine won the race; recycle ours.
		ul.pool.Put(candidate)
	}
	return actual.(*sync.Mutex)
}

// Lock acquires the lock for a user.
func (ul *UserLock) Lock(userID int64) {
	ul.getLock(userID).Lock()
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID int64) {
	if v, ok := ul.locks.Load(userID); ok {
		v.(*sync.Mutex).Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (ul *UserLock) TryLock(userID int64) bool {
	return ul.getLock(userID).TryLock()
}

// WithLock executes fn while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}
