package domain

import "time"

const (
	// MaxLoginFailures is the number of consecutive failed password checks
	// that trips the lock.
	MaxLoginFailures = 5

	// LockDuration is how long a tripped lock holds.
	LockDuration = 30 * time.Minute
)

// LoginLocked reports whether the account is currently locked. An expired
// lock is normalized in place: the counter resets to zero and the lock
// timestamp clears. State is only normalized when checked, so an account
// becomes usable again on the next attempt after expiry rather than at the
// exact expiry instant.
func (u *User) LoginLocked(now time.Time) bool {
	if u.LockedUntil.IsZero() {
		return false
	}
	if now.Before(u.LockedUntil) {
		return true
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = time.Time{}
	return false
}

// RecordLoginFailure increments the failure counter and trips the lock once
// the threshold is reached. While locked it is a no-op: an existing lock is
// never extended.
func (u *User) RecordLoginFailure(now time.Time) {
	if u.LoginLocked(now) {
		return
	}
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= MaxLoginFailures {
		u.LockedUntil = now.Add(LockDuration)
	}
}

// RecordLoginSuccess clears the lockout state and stamps the login time.
func (u *User) RecordLoginSuccess(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = time.Time{}
	u.LastLoginAt = now
}
