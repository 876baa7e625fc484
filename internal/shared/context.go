package shared

import "context"

// Actor is the already-resolved caller of a request. Authentication happens
// upstream; handlers only consume what the gateway attached.
type Actor struct {
	UserID    int64
	CompanyID int64
	Name      string
}

type actorContextKey struct{}

// ContextWithActor stores the resolved actor in context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the resolved actor from context.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
