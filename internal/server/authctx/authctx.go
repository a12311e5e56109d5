package authctx

import (
	"context"

	"github.com/JackobAssis/Joburguers/internal/domain"
)

type contextKey string

const actorContextKey contextKey = "currentActor"

// CurrentActor identifies the authenticated caller: the admin (keyed
// by phone) or a client (keyed by client ID).
type CurrentActor struct {
	Type domain.ActorType
	ID   string
}

func WithCurrentActor(ctx context.Context, actor CurrentActor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func FromContext(ctx context.Context) *CurrentActor {
	val, ok := ctx.Value(actorContextKey).(CurrentActor)
	if !ok {
		return nil
	}
	return &val
}
