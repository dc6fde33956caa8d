package models

import "time"

// User is an account record kept by the user store. PasswordHash is a bcrypt
// hash; the plaintext never leaves the registration handler.
type User struct {
	Name         string    `json:"nombre"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}
