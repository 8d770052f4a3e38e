package models

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// Role governs read/write scope over complaint and note records.
type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleGovernment Role = "government"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleGovernment || r == RoleAdmin
}

// Privileged reports whether the role may read every complaint and change
// statuses.
func (r Role) Privileged() bool {
	return r == RoleGovernment || r == RoleAdmin
}

type User struct {
	ID          []byte `db:"id"`
	DisplayName string `db:"display_name"`
	Role        Role   `db:"role"`
	Credentials []webauthn.Credential
}

// NewUser creates a citizen account with a random opaque identifier. Accounts
// hold no personal data beyond the passkey credential.
func NewUser() (*User, error) {
	id := make([]byte, 64)
	if _, err := rand.Read(id); err != nil {
		return nil, err
	}
	user := User{
		ID:          id,
		DisplayName: fmt.Sprintf("Citizen registered at %s", time.Now().Format(time.RFC3339)),
		Role:        RoleCitizen,
		Credentials: []webauthn.Credential{},
	}
	return &user, nil
}

// WebAuthnID provides the user handle of the user account. Authentication and
// authorization decisions are made on the basis of this opaque id, never the
// display name.
func (u User) WebAuthnID() []byte {
	return u.ID
}

// WebAuthnName provides a human-palatable account name, for display only.
func (u User) WebAuthnName() string {
	return u.DisplayName
}

// WebAuthnDisplayName provides the display name shown during registration.
func (u User) WebAuthnDisplayName() string {
	return u.DisplayName
}

// WebAuthnCredentials provides the list of Credentials owned by the user.
func (u User) WebAuthnCredentials() []webauthn.Credential {
	return u.Credentials
}

// AddWebAuthnCredential adds a Credential to the user.
func (u *User) AddWebAuthnCredential(credential webauthn.Credential) {
	u.Credentials = append(u.Credentials, credential)
}

// WebAuthnIcon is a deprecated option.
// Deprecated: this has been removed from the specification recommendation. Suggest a blank string.
func (u User) WebAuthnIcon() string {
	return ""
}
