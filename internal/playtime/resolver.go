package playtime

import (
	"sort"

	"playtime/internal/database"
)

// Resolver maps raw game ids to canonical component ids. Two ids belong to
// the same component when they are connected, directly or transitively,
// through checksum edges sharing an identical (checksum, algorithm) pair.
// The canonical id of a component is its lexicographically smallest member.
//
// A Resolver is a snapshot of the edge set it was built from. Edges can be
// bulk-inserted out of band, so aggregation code rebuilds the resolver from
// the current edge set inside the same unit of work as its reads instead of
// caching one across calls.
type Resolver struct {
	canonical map[string]string   // raw id -> canonical id
	members   map[string][]string // canonical id -> sorted component members
}

type edgeKey struct {
	checksum  string
	algorithm string
}

// NewResolver builds the component map from the full checksum edge set
// using union-find with path compression.
func NewResolver(edges []database.ChecksumEdge) *Resolver {
	parent := make(map[string]string)

	var find func(id string) string
	find = func(id string) string {
		p, ok := parent[id]
		if !ok {
			parent[id] = id
			return id
		}
		if p == id {
			return id
		}
		root := find(p)
		parent[id] = root
		return root
	}

	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	// Ids sharing a (checksum, algorithm) pair are aliases.
	firstByKey := make(map[edgeKey]string)
	for _, e := range edges {
		key := edgeKey{checksum: e.Checksum, algorithm: string(e.Algorithm)}
		if first, ok := firstByKey[key]; ok {
			union(first, e.GameID)
		} else {
			firstByKey[key] = e.GameID
			find(e.GameID)
		}
	}

	// Group members by root, then pick the smallest member as canonical.
	byRoot := make(map[string][]string)
	for id := range parent {
		byRoot[find(id)] = append(byRoot[find(id)], id)
	}

	r := &Resolver{
		canonical: make(map[string]string, len(parent)),
		members:   make(map[string][]string, len(byRoot)),
	}
	for _, group := range byRoot {
		sort.Strings(group)
		leader := group[0]
		r.members[leader] = group
		for _, id := range group {
			r.canonical[id] = leader
		}
	}
	return r
}

// Resolve returns the canonical id of the component containing id.
// Ids with no checksum edges form singleton components: Resolve returns the
// id itself.
func (r *Resolver) Resolve(id string) string {
	if leader, ok := r.canonical[id]; ok {
		return leader
	}
	return id
}

// AliasesOf returns the other members of id's component, sorted. The result
// is empty when the id is alone.
func (r *Resolver) AliasesOf(id string) []string {
	group, ok := r.members[r.Resolve(id)]
	if !ok {
		return nil
	}
	aliases := make([]string, 0, len(group)-1)
	for _, member := range group {
		if member != id {
			aliases = append(aliases, member)
		}
	}
	return aliases
}

// ComponentOf returns every member of id's component, sorted, including id
// itself even when it has no edges.
func (r *Resolver) ComponentOf(id string) []string {
	if group, ok := r.members[r.Resolve(id)]; ok {
		return group
	}
	return []string{id}
}
