package models

import "time"

// User is a person known to the identity provider, keyed by ClerkID.
type User struct {
	ID        string    `json:"_id"`
	ClerkID   string    `json:"clerkId"`
	Email     *string   `json:"email"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserInput carries the fields accepted by a user upsert.
type UserInput struct {
	ClerkID   string
	Email     string
	FirstName string
	LastName  string
}

// NewUser builds the record written by an upsert. Empty optional fields are
// stored as null so that a later upsert without them clears the old values.
func NewUser(input UserInput) *User {
	return &User{
		ClerkID:   input.ClerkID,
		Email:     Nullable(input.Email),
		FirstName: Nullable(input.FirstName),
		LastName:  Nullable(input.LastName),
	}
}

// Nullable returns nil for the empty string.
func Nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
