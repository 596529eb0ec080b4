package org

import "time"

type Organisation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is an operator account for the compliance console, not a governed
// record. Governed user profiles live in the records package.
type User struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisationId"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}
