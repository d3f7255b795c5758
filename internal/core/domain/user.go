package domain

import "time"

// User models a registered account. Tasks are not embedded: the tasks of a
// user are always resolved by querying on Task.Owner.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Age          *int      `json:"age,omitempty"`
	Photo        []byte    `json:"-"`
	Tokens       []string  `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasToken reports whether token is one of the user's active sessions.
func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

// UserUpdate carries the profile fields to change. Nil pointers are left
// untouched; ClearAge unsets the age regardless of Age.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Age          *int
	ClearAge     bool
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil && u.Age == nil && !u.ClearAge
}
