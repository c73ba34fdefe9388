// Package models defines the client-side authentication data model: the
// profile returned by registration and login, the intermediate step-1 login
// response, the session user and the registration input.
package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode"
)

// AuthProfile is the identity returned after registration or a completed
// login. Fields the client does not model are kept in Extras.
type AuthProfile struct {
	ID        string         `json:"id"`
	PatientID string         `json:"patientId"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Extras    map[string]any `json:"-"`
}

var profileKnownFields = []string{"id", "patientId", "firstName", "lastName"}

// UnmarshalJSON decodes the known fields and collects the rest into Extras.
func (p *AuthProfile) UnmarshalJSON(data []byte) error {
	type plain AuthProfile
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range profileKnownFields {
		delete(all, k)
	}
	if len(all) > 0 {
		v.Extras = all
	}

	*p = AuthProfile(v)
	return nil
}

// LoginStep1Response is the short-lived result of the first login step. The
// session token is single-use and is exchanged for an access token in step 2.
type LoginStep1Response struct {
	SessionToken string      `json:"sessionToken"`
	Status       string      `json:"status"`
	Profile      AuthProfile `json:"profile"`
}

// AuthStatus is the outcome of a password recovery request.
type AuthStatus string

const (
	AuthStatusRecoveryChallenge AuthStatus = "RECOVERY_CHALLENGE"
	AuthStatusSuccess           AuthStatus = "SUCCESS"
	AuthStatusPasswordReset     AuthStatus = "PASSWORD_RESET"
	AuthStatusRecovery          AuthStatus = "RECOVERY"
	AuthStatusLockedOut         AuthStatus = "LOCKED_OUT"
	AuthStatusUnknown           AuthStatus = "UNKNOWN"
)

// ParseAuthStatus maps a provider status string onto AuthStatus.
func ParseAuthStatus(s string) AuthStatus {
	switch st := AuthStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case AuthStatusRecoveryChallenge, AuthStatusSuccess, AuthStatusPasswordReset,
		AuthStatusRecovery, AuthStatusLockedOut:
		return st
	default:
		return AuthStatusUnknown
	}
}

// CreateAccountInput aggregates the registration form.
type CreateAccountInput struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	PhoneNumber string
	Email       string
	Password    string
	ZipCode     string
	GroupIDs    []string
}

// UnformattedPhone returns the phone number with every non-digit removed.
func (in CreateAccountInput) UnformattedPhone() string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, in.PhoneNumber)
}

// User is the authenticated session subject.
type User struct {
	Profile         AuthProfile
	AuthenticatedAt time.Time
}

// NewUser builds a User from a completed login's profile.
func NewUser(p AuthProfile) User {
	return User{Profile: p, AuthenticatedAt: time.Now().UTC()}
}

// DisplayName is "First Last", trimmed.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
}
