// Package identity resolves the calling actor's identity and role from the
// platform identity provider. The mailbox core treats this package as an
// opaque oracle: it answers "who is calling" and nothing else.
package identity

import (
	"github.com/google/uuid"
)

// Role is an actor role as asserted by the identity provider.
type Role string

const (
	// RoleAnonymous is an unauthenticated caller.
	RoleAnonymous Role = "anonymous"
	// RoleUser is an authenticated end user (guest booking stays).
	RoleUser Role = "user"
	// RoleOperator is a listing-scope operator (hotel owner or staff).
	RoleOperator Role = "operator"
	// RoleAdmin is a platform administrator.
	RoleAdmin Role = "admin"
)

// ParseRole maps a raw role string to a known Role, defaulting to user for
// unrecognized values so a malformed claim never grants elevated access.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleAnonymous, RoleUser, RoleOperator, RoleAdmin:
		return Role(raw)
	default:
		return RoleUser
	}
}

// Actor is the resolved identity of a caller. Role and MetadataRole are the
// two role assertions the identity provider duplicates across its claim and
// its user-metadata record; consumers that grant elevated access must require
// both to agree rather than trusting either alone.
type Actor struct {
	ID           uuid.UUID
	Role         Role
	MetadataRole Role
}

// Anonymous returns the actor representing an unauthenticated caller.
func Anonymous() Actor {
	return Actor{Role: RoleAnonymous, MetadataRole: RoleAnonymous}
}

// IsAnonymous reports whether the actor is unauthenticated.
func (a Actor) IsAnonymous() bool {
	return a.ID == uuid.Nil || a.Role == RoleAnonymous
}

// ClaimsAdmin reports whether both provider-side role sources assert the
// admin role. A mismatch means the claim is untrusted, not half-true.
func (a Actor) ClaimsAdmin() bool {
	return a.Role == RoleAdmin && a.MetadataRole == RoleAdmin
}
