package domain

import "time"

type User struct {
	ID           string
	Username     string
	Email        string // lowercased, unique
	PasswordHash string
	Staff        bool // staff bypass the invitation quota
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
