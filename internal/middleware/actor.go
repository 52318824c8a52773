package middleware

import (
	"context"
	"net/http"
	"strings"

	appctx "github.com/Mitul30M/exploreinn-sub002/internal/context"
	"github.com/Mitul30M/exploreinn-sub002/internal/identity"
)

// ActorMiddleware resolves the calling actor from the Authorization header
// and stores it in the request context. Requests without a usable credential
// proceed as the anonymous actor; rejecting them is the authorization gate's
// job, not the transport's.
type ActorMiddleware struct {
	resolver identity.Resolver
}

// NewActorMiddleware creates a new ActorMiddleware instance
func NewActorMiddleware(resolver identity.Resolver) *ActorMiddleware {
	return &ActorMiddleware{
		resolver: resolver,
	}
}

// Resolve is a middleware that resolves the actor for every request
func (m *ActorMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := bearerCredential(r.Header.Get("Authorization"))
		actor := m.resolver.CurrentActor(r.Context(), credential)

		if !actor.IsAnonymous() {
			ctx := context.WithValue(r.Context(), appctx.ActorIDKey, actor.ID.String())
			ctx = context.WithValue(ctx, appctx.ActorRoleKey, string(actor.Role))
			ctx = context.WithValue(ctx, appctx.ActorMetadataRoleKey, string(actor.MetadataRole))
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}

// bearerCredential extracts the token from a Bearer authorization header.
// Anything malformed yields an empty credential.
func bearerCredential(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
