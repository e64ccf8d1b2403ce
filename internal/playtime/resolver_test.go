package playtime_test

import (
	"reflect"
	"testing"

	"playtime/internal/database"
	"playtime/internal/model"
	"playtime/internal/playtime"
)

func edge(gameID, checksum string) database.ChecksumEdge {
	return database.ChecksumEdge{GameID: gameID, Checksum: checksum, Algorithm: model.SHA256}
}

func TestResolver(t *testing.T) {
	t.Run("ids sharing a checksum form one component", func(t *testing.T) {
		t.Parallel()
		r := playtime.NewResolver([]database.ChecksumEdge{
			edge("3908342731", "abc"),
			edge("3393530879", "abc"),
		})

		if got := r.Resolve("3908342731"); got != "3393530879" {
			t.Errorf("Resolve(3908342731) = %s, want 3393530879 (smallest member)", got)
		}
		if got := r.Resolve("3393530879"); got != "3393530879" {
			t.Errorf("Resolve(3393530879) = %s, want itself", got)
		}
	})

	t.Run("components merge transitively", func(t *testing.T) {
		t.Parallel()
		// a-b share one checksum, b-c another: all three are one component.
		r := playtime.NewResolver([]database.ChecksumEdge{
			edge("b", "k1"),
			edge("a", "k1"),
			edge("b", "k2"),
			edge("c", "k2"),
		})

		for _, id := range []string{"a", "b", "c"} {
			if got := r.Resolve(id); got != "a" {
				t.Errorf("Resolve(%s) = %s, want a", id, got)
			}
		}
		want := []string{"a", "b", "c"}
		if got := r.ComponentOf("c"); !reflect.DeepEqual(got, want) {
			t.Errorf("ComponentOf(c) = %v, want %v", got, want)
		}
	})

	t.Run("same checksum under different algorithms does not link", func(t *testing.T) {
		t.Parallel()
		r := playtime.NewResolver([]database.ChecksumEdge{
			{GameID: "a", Checksum: "abc", Algorithm: model.SHA256},
			{GameID: "b", Checksum: "abc", Algorithm: model.SHA512},
		})

		if got := r.Resolve("b"); got != "b" {
			t.Errorf("Resolve(b) = %s, want b (no shared (checksum, algorithm) pair)", got)
		}
	})

	t.Run("unknown id is its own singleton component", func(t *testing.T) {
		t.Parallel()
		r := playtime.NewResolver(nil)

		if got := r.Resolve("x"); got != "x" {
			t.Errorf("Resolve(x) = %s, want x", got)
		}
		if got := r.ComponentOf("x"); !reflect.DeepEqual(got, []string{"x"}) {
			t.Errorf("ComponentOf(x) = %v, want [x]", got)
		}
		if got := r.AliasesOf("x"); len(got) != 0 {
			t.Errorf("AliasesOf(x) = %v, want empty", got)
		}
	})

	t.Run("aliases exclude the queried id", func(t *testing.T) {
		t.Parallel()
		r := playtime.NewResolver([]database.ChecksumEdge{
			edge("a", "k"),
			edge("b", "k"),
			edge("c", "k"),
		})

		if got := r.AliasesOf("b"); !reflect.DeepEqual(got, []string{"a", "c"}) {
			t.Errorf("AliasesOf(b) = %v, want [a c]", got)
		}
	})
}
