package shared

import "context"

type contextKey string

const actorKey contextKey = "actor"

// ContextWithActor stores the request actor in the context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor set by the transport layer, or "" when
// the request carried none. The engine treats the value as opaque.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok {
		return actor
	}
	return ""
}
