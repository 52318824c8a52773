package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Resolver resolves the calling actor for a request. Implementations are
// external identity providers; the mailbox core only depends on this contract.
type Resolver interface {
	// CurrentActor resolves the actor for the given bearer credential.
	// An empty or unusable credential resolves to the anonymous actor,
	// never to an error: downstream authorization decides what anonymous
	// callers may see.
	CurrentActor(ctx context.Context, credential string) Actor
}

// TokenResolver resolves actors from signed access tokens.
type TokenResolver struct {
	tokens *TokenService
}

// NewTokenResolver creates a TokenResolver backed by the given token service.
func NewTokenResolver(tokens *TokenService) *TokenResolver {
	return &TokenResolver{tokens: tokens}
}

// CurrentActor implements Resolver.
func (r *TokenResolver) CurrentActor(ctx context.Context, credential string) Actor {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Anonymous()
	}

	claims, err := r.tokens.ValidateAccessToken(credential)
	if err != nil {
		return Anonymous()
	}

	id, err := uuid.Parse(claims.ActorID())
	if err != nil {
		return Anonymous()
	}

	return Actor{
		ID:           id,
		Role:         ParseRole(claims.Role),
		MetadataRole: ParseRole(claims.MetadataRole),
	}
}
