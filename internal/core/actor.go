package core

import (
	"context"
	"strings"
)

// DefaultActor is recorded on activity entries when no actor is attached.
const DefaultActor = "System"

type actorKey struct{}

// WithActor attaches the display name recorded as the user of activity entries.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorKey{}, name)
}

// ActorFrom returns the actor attached to ctx, or DefaultActor.
func ActorFrom(ctx context.Context) string {
	if ctx == nil {
		return DefaultActor
	}
	if name, ok := ctx.Value(actorKey{}).(string); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return DefaultActor
}
