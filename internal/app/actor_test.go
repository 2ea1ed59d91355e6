package app

import (
	"context"
	"testing"
)

// TestMutationActorContextRoundTrip verifies normalization and retrieval from context.
func TestMutationActorContextRoundTrip(t *testing.T) {
	ctx := WithMutationActor(context.Background(), MutationActor{
		ActorID:   " planner ",
		ActorType: " AGENT ",
	})
	actor, ok := MutationActorFromContext(ctx)
	if !ok {
		t.Fatal("MutationActorFromContext() expected actor")
	}
	if actor.ActorID != "planner" {
		t.Fatalf("ActorID = %q, want planner", actor.ActorID)
	}
	if actor.ActorType != ActorTypeAgent {
		t.Fatalf("ActorType = %q, want agent", actor.ActorType)
	}
	meta := actorMetadata(ctx)
	if meta["actor_id"] != "planner" || meta["actor_type"] != "agent" {
		t.Fatalf("unexpected metadata %#v", meta)
	}
}

// TestMutationActorContextEmpty verifies absence and type defaulting.
func TestMutationActorContextEmpty(t *testing.T) {
	if _, ok := MutationActorFromContext(context.Background()); ok {
		t.Fatal("MutationActorFromContext() expected no actor for empty context")
	}
	empty := WithMutationActor(context.Background(), MutationActor{})
	if _, ok := MutationActorFromContext(empty); ok {
		t.Fatal("MutationActorFromContext() expected no actor for empty id")
	}
	if meta := actorMetadata(context.Background()); meta["actor_type"] != "system" {
		t.Fatalf("expected system actor metadata, got %#v", meta)
	}
	ctx := WithMutationActor(context.Background(), MutationActor{ActorID: "tui", ActorType: "robot"})
	actor, ok := MutationActorFromContext(ctx)
	if !ok || actor.ActorType != ActorTypeUser {
		t.Fatalf("expected unknown actor type to default to user, got %#v", actor)
	}
}
