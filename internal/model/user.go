package model

import "time"

// AccountType is the role a user holds in the back-office.
type AccountType string

const (
	AccountAdmin       AccountType = "Admin"
	AccountCenterOwner AccountType = "CenterOwner"
	AccountStandard    AccountType = "Standard"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountAdmin, AccountCenterOwner, AccountStandard:
		return true
	}
	return false
}

type User struct {
	ID          int64       `json:"id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	AccountType AccountType `json:"account_type"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Actor is an authenticated identity with the center it owns, if any.
type Actor struct {
	UserID      int64       `json:"user_id"`
	AccountType AccountType `json:"account_type"`
	CenterID    *int64      `json:"center_id,omitempty"`
}
