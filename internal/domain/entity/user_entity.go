package entity

import (
	"time"
)

// User is the aggregate root for the identity domain.
// Password always holds a bcrypt hash, never the plaintext.
type User struct {
	ID        int64
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
