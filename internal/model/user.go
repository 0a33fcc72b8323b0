package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account kinds. Farmers list products,
// buyers purchase them.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleFarmer, RoleBuyer:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
