package context

import (
	"context"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ActorIDKey is the context key for the authenticated actor's durable ID
	ActorIDKey ContextKey = "actor_id"
	// ActorRoleKey is the context key for the identity provider's role claim
	ActorRoleKey ContextKey = "actor_role"
	// ActorMetadataRoleKey is the context key for the duplicated role claim
	// carried in the provider's metadata block
	ActorMetadataRoleKey ContextKey = "actor_metadata_role"
)

// ExtractActorID extracts the actor ID from the request context
func ExtractActorID(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(ActorIDKey).(string)
	return actorID, ok
}

// ExtractActorRole extracts the claimed role from the request context
func ExtractActorRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(ActorRoleKey).(string)
	return role, ok
}

// ExtractActorMetadataRole extracts the metadata role claim from the request context
func ExtractActorMetadataRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(ActorMetadataRoleKey).(string)
	return role, ok
}
