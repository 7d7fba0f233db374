package users

import "time"

// User is an identity record. Username is unique and immutable; the hash
// is a salted bcrypt digest of the registration password.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
