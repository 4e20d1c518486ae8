package models

import (
	"time"
)

// CardStatus represents the state of a corporate card
type CardStatus string

const (
	CardStatusActive CardStatus = "ACTIVE"
	CardStatusFrozen CardStatus = "FROZEN"
)

// IsValid reports whether the status is one of the known card states
func (s CardStatus) IsValid() bool {
	return s == CardStatusActive || s == CardStatusFrozen
}

// Account represents a card holder and the state of their corporate card
type Account struct {
	ID         int64      `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	Email      string     `json:"email" db:"email"`
	CardStatus CardStatus `json:"card_status" db:"card_status"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new Account instance with an active card
func NewAccount(name, email string) *Account {
	now := time.Now().UTC()
	return &Account{
		Name:       name,
		Email:      email,
		CardStatus: CardStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsFrozen returns true if the card is frozen
func (a *Account) IsFrozen() bool {
	return a.CardStatus == CardStatusFrozen
}

// Freeze transitions the card to FROZEN.
// Returns false when the card was already frozen.
func (a *Account) Freeze() bool {
	if a.IsFrozen() {
		return false
	}
	a.CardStatus = CardStatusFrozen
	a.UpdatedAt = time.Now().UTC()
	return true
}

// Unfreeze restores the card to ACTIVE
func (a *Account) Unfreeze() {
	a.CardStatus = CardStatusActive
	a.UpdatedAt = time.Now().UTC()
}
