package model

import "time"

// User is a registry entry keyed by email.
// PassHash holds a bcrypt hash of the optional passphrase and is never serialised.
type User struct {
	Email     string    `json:"email"`
	PassHash  []byte    `json:"-"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasPassphrase reports whether the user registered with a passphrase.
func (u *User) HasPassphrase() bool {
	return len(u.PassHash) > 0
}
