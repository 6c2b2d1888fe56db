package tour

// Adjacency maps a node identity to the set of its neighbor identities.
// The relation is symmetric: an edge A–B registers A in neighbors(B) and B in
// neighbors(A). Self-loops are never recorded. An Adjacency is built once per
// tour request and treated as immutable afterwards.
type Adjacency map[string]map[string]struct{}

// ensure registers an identity with an (initially empty) neighbor set.
func (a Adjacency) ensure(id string) {
	if id == "" {
		return
	}
	if _, ok := a[id]; !ok {
		a[id] = make(map[string]struct{})
	}
}

// connect records an undirected edge between two identities. Empty endpoints
// and self-loops are dropped.
func (a Adjacency) connect(from, to string) {
	if from == "" || to == "" || from == to {
		return
	}
	a.ensure(from)
	a.ensure(to)
	a[from][to] = struct{}{}
	a[to][from] = struct{}{}
}

// Degree returns the neighbor-set size of an identity.
func (a Adjacency) Degree(id string) int {
	return len(a[id])
}

// BuildAdjacency normalizes every edge representation in the graph
// description into one undirected adjacency relation. Nodes without edges
// still appear with empty neighbor sets. The function is total: malformed or
// unresolvable entries are dropped rather than reported.
func BuildAdjacency(g *Graph) Adjacency {
	adj := make(Adjacency)
	if g == nil {
		return adj
	}
	for _, node := range g.Nodes {
		adj.ensure(NodeID(node))
	}
	for _, link := range g.Links {
		adj.connect(NodeID(link.Source), NodeID(link.Target))
	}
	for _, edge := range g.Edges {
		adj.connect(edge.From, edge.To)
	}
	for _, triple := range g.Triples {
		adj.connect(triple.Subject, triple.Object)
	}
	return adj
}
