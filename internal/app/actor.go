package app

import (
	"context"
	"strings"
)

// ActorType identifies which surface issued a mutation.
type ActorType string

// ActorType values recorded in the activity ledger.
const (
	ActorTypeUser   ActorType = "user"
	ActorTypeAgent  ActorType = "agent"
	ActorTypeSystem ActorType = "system"
)

// MutationActor carries normalized caller identity metadata for mutation attribution.
type MutationActor struct {
	ActorID   string
	ActorType ActorType
}

// WithMutationActor attaches normalized mutation-actor identity metadata to context.
func WithMutationActor(ctx context.Context, actor MutationActor) context.Context {
	actor = normalizeMutationActor(actor)
	return context.WithValue(ctx, mutationActorContextKey{}, actor)
}

// MutationActorFromContext returns normalized mutation-actor metadata when present.
func MutationActorFromContext(ctx context.Context) (MutationActor, bool) {
	if ctx == nil {
		return MutationActor{}, false
	}
	actor, ok := ctx.Value(mutationActorContextKey{}).(MutationActor)
	if !ok {
		return MutationActor{}, false
	}
	actor = normalizeMutationActor(actor)
	if actor.ActorID == "" {
		return MutationActor{}, false
	}
	return actor, true
}

// mutationActorContextKey stores context keys for mutation actor metadata.
type mutationActorContextKey struct{}

// normalizeMutationActor trims and canonicalizes mutation actor metadata.
func normalizeMutationActor(actor MutationActor) MutationActor {
	actor.ActorID = strings.TrimSpace(actor.ActorID)
	actor.ActorType = ActorType(strings.TrimSpace(strings.ToLower(string(actor.ActorType))))
	switch actor.ActorType {
	case ActorTypeUser, ActorTypeAgent, ActorTypeSystem:
	default:
		actor.ActorType = ActorTypeUser
	}
	return actor
}

// actorMetadata returns activity metadata for the actor attached to ctx.
func actorMetadata(ctx context.Context) map[string]string {
	actor, ok := MutationActorFromContext(ctx)
	if !ok {
		return map[string]string{"actor_type": string(ActorTypeSystem)}
	}
	return map[string]string{
		"actor_id":   actor.ActorID,
		"actor_type": string(actor.ActorType),
	}
}
