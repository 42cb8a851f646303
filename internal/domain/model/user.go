package model

import "time"

// User is an authenticated dispatcher account.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
