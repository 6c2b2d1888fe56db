package tour

import "sort"

// Select chooses and orders the nodes for a guided tour.
//
// All node identities are ranked by descending degree, ties broken by
// ascending identity, which makes the ranking a deterministic total order.
// The first count identities form the eligible set. Eligible nodes are then
// visited by depth-first walks restricted to the eligible set, with neighbor
// order following the same ranking; whenever a walk exhausts, the next
// unvisited eligible node in ranked order starts a fresh walk, so the output
// covers the whole eligible set even when it is disconnected.
//
// The result has no duplicates, every identity belongs to the graph, and its
// length equals min(count, number of nodes). A non-positive count or an
// empty graph yields an empty sequence.
func Select(g *Graph, count int) []string {
	if count <= 0 {
		return nil
	}
	adj := BuildAdjacency(g)
	return SelectFrom(adj, count)
}

// SelectFrom runs the tour selection against an already-built adjacency map.
func SelectFrom(adj Adjacency, count int) []string {
	if count <= 0 || len(adj) == 0 {
		return nil
	}
	ranked := Rank(adj)
	if count > len(ranked) {
		count = len(ranked)
	}

	eligible := make(map[string]bool, count)
	position := make(map[string]int, count)
	for i, id := range ranked[:count] {
		eligible[id] = true
		position[id] = i
	}

	visited := make(map[string]bool, count)
	order := make([]string, 0, count)

	var walk func(id string)
	walk = func(id string) {
		visited[id] = true
		order = append(order, id)

		next := make([]string, 0, len(adj[id]))
		for neighbor := range adj[id] {
			if eligible[neighbor] && !visited[neighbor] {
				next = append(next, neighbor)
			}
		}
		sort.Slice(next, func(i, j int) bool {
			return position[next[i]] < position[next[j]]
		})
		for _, neighbor := range next {
			// A neighbor queued here may have been reached through a
			// deeper branch in the meantime.
			if !visited[neighbor] {
				walk(neighbor)
			}
		}
	}

	for _, id := range ranked[:count] {
		if !visited[id] {
			walk(id)
		}
	}
	return order
}

// Rank orders every identity in the adjacency map by descending degree,
// breaking ties by ascending identity.
func Rank(adj Adjacency) []string {
	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		di, dj := len(adj[ids[i]]), len(adj[ids[j]])
		if di != dj {
			return di > dj
		}
		return ids[i] < ids[j]
	})
	return ids
}
