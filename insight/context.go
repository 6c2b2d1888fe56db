package insight

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tourline/tourline/tour"
)

const (
	graphCapBytes    = 100 * 1024
	snippetCharLimit = 280
	sampleLimit      = 24
)

// knownCollections are the collection names of the upstream playlist graph,
// used to infer a type from ArangoDB-style document ids such as
// "artists/123". Edge collection names are included so edge ids resolve too.
var knownCollections = []string{
	"artists", "songs", "albums", "record_labels", "playlists", "genres",
	"locations", "moods", "instruments", "languages",
	"artists_songs", "artists_albums", "songs_albums", "albums_record_labels",
	"artists_genres", "artists_locations", "artists_record_labels",
	"artists_associated_acts", "songs_songwriters", "songs_producers",
	"songs_features", "songs_moods", "songs_instruments", "songs_languages",
	"songs_contributors",
}

// collectionsByLength caches knownCollections sorted longest first so that
// suffix matching prefers the most specific name.
var collectionsByLength = func() []string {
	sorted := make([]string, len(knownCollections))
	copy(sorted, knownCollections)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	return sorted
}()

func inferCollection(id string) string {
	if id == "" {
		return ""
	}
	base, _, _ := strings.Cut(id, "/")
	for _, name := range collectionsByLength {
		if base == name || strings.HasSuffix(base, "_"+name) {
			return name
		}
	}
	return ""
}

// nodeType resolves a node's type: an explicit type or group field wins,
// otherwise the type is inferred from the node id's collection prefix.
func nodeType(node any) string {
	if obj, ok := node.(map[string]any); ok {
		if explicit := stringField(obj, "type", "group"); explicit != "" {
			return strings.ToLower(explicit)
		}
	}
	return strings.ToLower(inferCollection(tour.NodeID(node)))
}

func isArtistType(nodeType string) bool {
	return nodeType == "artist" || nodeType == "artists"
}

// stringField returns the first non-empty string-ish field among keys.
func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func truncate(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= limit {
		return trimmed
	}
	cut := limit - 3
	if cut < 0 {
		cut = 0
	}
	return strings.TrimRight(trimmed[:cut], " \t") + "..."
}

// edge is the unified view of a connection: ArangoDB _from/_to edges and
// source/target links collapse into one shape for the builders.
type edge struct {
	Source string
	Target string
	Label  string
}

func (e edge) label() string {
	if e.Label != "" {
		return e.Label
	}
	return "related_to"
}

// flatEdges collapses a graph's links and edges into the unified view.
func flatEdges(g *tour.Graph) []edge {
	flat := make([]edge, 0, len(g.Links)+len(g.Edges))
	for _, l := range g.Links {
		flat = append(flat, edge{
			Source: tour.NodeID(l.Source),
			Target: tour.NodeID(l.Target),
			Label:  l.Label,
		})
	}
	for _, e := range g.Edges {
		flat = append(flat, edge{Source: e.From, Target: e.To, Label: e.Label})
	}
	return flat
}

// TypeCount pairs a node type with its occurrence count.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// LabelCount pairs an edge label with its occurrence count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Counts tallies the size of the graph the payload was built from.
type Counts struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Triples int `json:"triples,omitempty"`
}

// CompactNode is the minimal node representation used in capped payloads.
type CompactNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// CompactEdge is the minimal edge representation used in capped payloads.
type CompactEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// topCounts ranks a count map by count descending, key ascending, keeping
// at most limit entries. Ties break on key so output is deterministic.
func topCounts(counts map[string]int, limit int) []LabelCount {
	ranked := make([]LabelCount, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, LabelCount{Label: key, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Label < ranked[j].Label
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func asTypeCounts(ranked []LabelCount) []TypeCount {
	types := make([]TypeCount, len(ranked))
	for i, entry := range ranked {
		types[i] = TypeCount{Type: entry.Label, Count: entry.Count}
	}
	return types
}

func capStrings(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}

// ThemesContext summarizes the graph for the themes question.
type ThemesContext struct {
	PayloadMode        string      `json:"payload_mode"`
	Counts             Counts      `json:"counts"`
	TopNodeTypes       []TypeCount `json:"top_node_types"`
	SampleGenres       []string    `json:"sample_genres"`
	SampleMoods        []string    `json:"sample_moods"`
	SampleSongs        []string    `json:"sample_songs"`
	SampleArtists      []string    `json:"sample_artists"`
	AnnotationSnippets []Snippet   `json:"annotation_snippets"`
}

// Themes builds the themes question context: node type distribution,
// categorized name samples, and annotation snippets.
func Themes(g *tour.Graph) ThemesContext {
	edges := flatEdges(g)
	typeCounts := make(map[string]int)
	var genres, moods, songs, artists []string

	for _, node := range g.Nodes {
		t := nodeType(node)
		if t == "" {
			t = "unknown"
		}
		typeCounts[t]++

		name := tour.NodeName(node)
		switch {
		case strings.Contains(t, "genre"):
			genres = append(genres, name)
		case strings.Contains(t, "mood"):
			moods = append(moods, name)
		case strings.Contains(t, "song"):
			songs = append(songs, name)
		case strings.Contains(t, "artist"):
			artists = append(artists, name)
		}
	}

	return ThemesContext{
		PayloadMode:        "themes",
		Counts:             Counts{Nodes: len(g.Nodes), Edges: len(edges)},
		TopNodeTypes:       asTypeCounts(topCounts(typeCounts, 10)),
		SampleGenres:       capStrings(genres, sampleLimit),
		SampleMoods:        capStrings(moods, sampleLimit),
		SampleSongs:        capStrings(songs, sampleLimit),
		SampleArtists:      capStrings(artists, sampleLimit),
		AnnotationSnippets: StorySnippets(g.Nodes, sampleLimit),
	}
}

// ArtistPair names two artists and how many connections tie them together.
type ArtistPair struct {
	ArtistA string `json:"artist_a"`
	ArtistB string `json:"artist_b"`
	Count   int    `json:"count"`
}

// CollabsContext summarizes artist collaborations.
type CollabsContext struct {
	PayloadMode   string       `json:"payload_mode"`
	ArtistPairs   []ArtistPair `json:"artist_pairs"`
	TopEdgeLabels []LabelCount `json:"top_edge_labels"`
}

// Collabs mines collaboration pairs: direct artist-to-artist edges count
// immediately, and artists attached to a shared song or track through a
// performance-flavored edge are paired up afterwards.
func Collabs(g *tour.Graph) CollabsContext {
	artistIDs := make(map[string]bool)
	artistNames := make(map[string]string)
	for _, node := range g.Nodes {
		if !isArtistType(nodeType(node)) {
			continue
		}
		id := tour.NodeID(node)
		if id == "" {
			continue
		}
		artistIDs[id] = true
		artistNames[id] = tour.NodeName(node)
	}

	pairCounts := make(map[[2]string]int)
	labelCounts := make(map[string]int)
	songArtists := make(map[string]map[string]bool)

	for _, e := range flatEdges(g) {
		label := strings.ToLower(e.label())
		// Without typed nodes, fall back to ids that look like artist
		// documents.
		if len(artistIDs) == 0 {
			if inferCollection(e.Source) == "artists" {
				artistIDs[e.Source] = true
			}
			if inferCollection(e.Target) == "artists" {
				artistIDs[e.Target] = true
			}
		}
		if artistIDs[e.Source] && artistIDs[e.Target] && e.Source != e.Target {
			pair := [2]string{e.Source, e.Target}
			if pair[0] > pair[1] {
				pair[0], pair[1] = pair[1], pair[0]
			}
			pairCounts[pair]++
			labelCounts[label]++
			continue
		}
		if strings.Contains(label, "song") || strings.Contains(label, "track") ||
			strings.Contains(label, "perform") || strings.Contains(label, "artist") ||
			strings.Contains(label, "feat") {
			if artistIDs[e.Source] && e.Target != "" {
				if songArtists[e.Target] == nil {
					songArtists[e.Target] = make(map[string]bool)
				}
				songArtists[e.Target][e.Source] = true
			}
			if artistIDs[e.Target] && e.Source != "" {
				if songArtists[e.Source] == nil {
					songArtists[e.Source] = make(map[string]bool)
				}
				songArtists[e.Source][e.Target] = true
			}
		}
	}

	for _, artists := range songArtists {
		ids := make([]string, 0, len(artists))
		for id := range artists {
			ids = append(ids, id)
		}
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		for i, first := range ids {
			for _, second := range ids[i+1:] {
				pairCounts[[2]string{first, second}]++
			}
		}
	}

	pairs := make([]ArtistPair, 0, len(pairCounts))
	for pair, count := range pairCounts {
		a, b := pair[0], pair[1]
		if name := artistNames[a]; name != "" {
			a = name
		}
		if name := artistNames[b]; name != "" {
			b = name
		}
		pairs = append(pairs, ArtistPair{ArtistA: a, ArtistB: b, Count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].ArtistA != pairs[j].ArtistA {
			return pairs[i].ArtistA < pairs[j].ArtistA
		}
		return pairs[i].ArtistB < pairs[j].ArtistB
	})
	if len(pairs) > sampleLimit {
		pairs = pairs[:sampleLimit]
	}

	return CollabsContext{
		PayloadMode:   "collabs",
		ArtistPairs:   pairs,
		TopEdgeLabels: topCounts(labelCounts, 10),
	}
}

// Fact is one extracted fun fact.
type Fact struct {
	Fact  string `json:"fact"`
	Count int    `json:"count,omitempty"`
	Node  string `json:"node,omitempty"`
}

// FunFactsContext carries extracted facts plus a compacted graph sample.
type FunFactsContext struct {
	PayloadMode string        `json:"payload_mode"`
	Facts       []Fact        `json:"facts"`
	SampleNodes []CompactNode `json:"sample_nodes"`
	SampleEdges []CompactEdge `json:"sample_edges"`
}

// parseYear extracts a plausible release year from a scalar value. Dates
// like "1994-06-21" resolve to 1994; values outside 1000..2100 are ignored.
func parseYear(value any) (int, bool) {
	var text string
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		year := int(v)
		if year >= 1000 && year <= 2100 {
			return year, true
		}
		return 0, false
	case string:
		text = v
	default:
		return 0, false
	}
	for _, token := range strings.FieldsFunc(text, func(r rune) bool { return r == '-' || r == ' ' }) {
		year, err := strconv.Atoi(token)
		if err == nil && year >= 1000 && year <= 2100 {
			return year, true
		}
	}
	return 0, false
}

// FunFacts extracts notable facts: the most connected node, the rarest
// genre, and the oldest and newest release years found on any node.
func FunFacts(g *tour.Graph) FunFactsContext {
	edges := flatEdges(g)

	names := make(map[string]string, len(g.Nodes))
	for _, node := range g.Nodes {
		if id := tour.NodeID(node); id != "" {
			names[id] = tour.NodeName(node)
		}
	}

	degree := make(map[string]int)
	for _, e := range edges {
		if e.Source != "" {
			degree[e.Source]++
		}
		if e.Target != "" {
			degree[e.Target]++
		}
	}
	var mostConnected string
	var mostDegree int
	for id, d := range degree {
		if d > mostDegree || (d == mostDegree && id < mostConnected) {
			mostConnected, mostDegree = id, d
		}
	}

	genreCounts := make(map[string]int)
	for _, node := range g.Nodes {
		if strings.Contains(nodeType(node), "genre") {
			genreCounts[tour.NodeName(node)]++
		}
	}
	var rareGenre string
	rareCount := -1
	for genre, count := range genreCounts {
		if rareCount == -1 || count < rareCount || (count == rareCount && genre < rareGenre) {
			rareGenre, rareCount = genre, count
		}
	}

	type yearNode struct {
		year int
		name string
	}
	var oldest, newest *yearNode
	for _, node := range g.Nodes {
		obj, ok := node.(map[string]any)
		if !ok {
			continue
		}
		var year int
		found := false
		for _, key := range []string{"year", "release_year", "release_date"} {
			if y, ok := parseYear(obj[key]); ok {
				year, found = y, true
				break
			}
		}
		if !found {
			continue
		}
		entry := yearNode{year: year, name: tour.NodeName(node)}
		if oldest == nil || entry.year < oldest.year {
			v := entry
			oldest = &v
		}
		if newest == nil || entry.year > newest.year {
			v := entry
			newest = &v
		}
	}

	var facts []Fact
	if mostConnected != "" {
		name := mostConnected
		if n := names[mostConnected]; n != "" {
			name = n
		}
		facts = append(facts, Fact{Fact: "Most connected node: " + name, Count: mostDegree})
	}
	if rareCount >= 0 {
		facts = append(facts, Fact{Fact: "Rare genre appears: " + rareGenre, Count: rareCount})
	}
	if oldest != nil {
		facts = append(facts, Fact{Fact: "Oldest release year spotted: " + strconv.Itoa(oldest.year), Node: oldest.name})
	}
	if newest != nil {
		facts = append(facts, Fact{Fact: "Newest release year spotted: " + strconv.Itoa(newest.year), Node: newest.name})
	}

	sampleNodes := g.Nodes
	if len(sampleNodes) > sampleLimit {
		sampleNodes = sampleNodes[:sampleLimit]
	}
	sampleEdges := edges
	if len(sampleEdges) > sampleLimit {
		sampleEdges = sampleEdges[:sampleLimit]
	}

	return FunFactsContext{
		PayloadMode: "fun_facts",
		Facts:       facts,
		SampleNodes: compactNodes(sampleNodes),
		SampleEdges: compactEdges(sampleEdges),
	}
}

// TourNode is one stop card in the tour payload.
type TourNode struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Degree    int      `json:"degree"`
	Neighbors []string `json:"neighbors"`
}

// TourContext carries the stop cards the narrator walks through.
type TourContext struct {
	PayloadMode string     `json:"payload_mode"`
	Counts      Counts     `json:"counts"`
	TourNodes   []TourNode `json:"tour_nodes"`
}

// Tour builds stop cards for a guided tour. When tourOrder names nodes
// present in the graph it dictates the stops; otherwise the maxNodes
// highest-degree nodes are used. Each card lists up to four neighbors.
func Tour(g *tour.Graph, tourOrder []string, maxNodes int) TourContext {
	adj := tour.BuildAdjacency(g)

	lookup := make(map[string]any, len(g.Nodes))
	names := make(map[string]string, len(g.Nodes))
	for _, node := range g.Nodes {
		id := tour.NodeID(node)
		if id == "" {
			continue
		}
		lookup[id] = node
		names[id] = tour.NodeName(node)
	}

	selected := tour.Rank(adj)
	if len(selected) > maxNodes {
		selected = selected[:maxNodes]
	}
	if len(tourOrder) > 0 {
		ordered := make([]string, 0, len(tourOrder))
		for _, id := range tourOrder {
			if _, ok := adj[id]; ok {
				ordered = append(ordered, id)
			}
		}
		if len(ordered) > 0 {
			selected = ordered
		}
	}

	cards := make([]TourNode, 0, len(selected))
	for _, id := range selected {
		neighborIDs := make([]string, 0, len(adj[id]))
		for neighbor := range adj[id] {
			neighborIDs = append(neighborIDs, neighbor)
		}
		sort.Strings(neighborIDs)
		if len(neighborIDs) > 4 {
			neighborIDs = neighborIDs[:4]
		}
		neighbors := make([]string, len(neighborIDs))
		for i, neighbor := range neighborIDs {
			if name := names[neighbor]; name != "" {
				neighbors[i] = name
			} else {
				neighbors[i] = neighbor
			}
		}

		name := id
		if n := names[id]; n != "" {
			name = n
		}
		cards = append(cards, TourNode{
			ID:        id,
			Name:      name,
			Type:      nodeType(lookup[id]),
			Degree:    adj.Degree(id),
			Neighbors: neighbors,
		})
	}

	return TourContext{
		PayloadMode: "tour",
		Counts:      Counts{Nodes: len(g.Nodes), Edges: len(g.Links) + len(g.Edges)},
		TourNodes:   cards,
	}
}

// SummaryContext is the compact fallback payload for oversized graphs, and
// the base of the selection summary.
type SummaryContext struct {
	PayloadMode   string        `json:"payload_mode"`
	Counts        Counts        `json:"counts"`
	TopNodeTypes  []TypeCount   `json:"top_node_types"`
	TopEdgeLabels []LabelCount  `json:"top_edge_labels"`
	SampleNodes   []CompactNode `json:"sample_nodes"`
	SampleEdges   []CompactEdge `json:"sample_edges"`
	SampleTriples []tour.Triple `json:"sample_triples"`
}

func summarize(nodes []CompactNode, edges []CompactEdge, triples []tour.Triple) SummaryContext {
	typeCounts := make(map[string]int)
	for _, node := range nodes {
		t := node.Type
		if t == "" {
			t = "unknown"
		}
		typeCounts[t]++
	}
	labelCounts := make(map[string]int)
	for _, e := range edges {
		label := e.Label
		if label == "" {
			label = "related_to"
		}
		labelCounts[label]++
	}

	sampleNodes := nodes
	if len(sampleNodes) > 20 {
		sampleNodes = sampleNodes[:20]
	}
	sampleEdges := edges
	if len(sampleEdges) > 20 {
		sampleEdges = sampleEdges[:20]
	}
	sampleTriples := triples
	if len(sampleTriples) > 20 {
		sampleTriples = sampleTriples[:20]
	}

	return SummaryContext{
		PayloadMode:   "summary",
		Counts:        Counts{Nodes: len(nodes), Edges: len(edges), Triples: len(triples)},
		TopNodeTypes:  asTypeCounts(topCounts(typeCounts, 12)),
		TopEdgeLabels: topCounts(labelCounts, 12),
		SampleNodes:   sampleNodes,
		SampleEdges:   sampleEdges,
		SampleTriples: sampleTriples,
	}
}

// SelectionSummaryContext summarizes a user-selected subgraph.
type SelectionSummaryContext struct {
	SummaryContext
	SampleNodeNames  []string `json:"sample_node_names"`
	SampleEdgeLabels []string `json:"sample_edge_labels"`
}

// SelectionSummary builds the selection_summary question context.
func SelectionSummary(g *tour.Graph) SelectionSummaryContext {
	edges := flatEdges(g)
	summary := summarize(compactNodes(g.Nodes), compactEdges(edges), nil)
	summary.PayloadMode = "selection_summary"

	names := make([]string, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		names = append(names, tour.NodeName(node))
	}
	labels := make([]string, 0, len(edges))
	for _, e := range edges {
		labels = append(labels, e.label())
	}

	return SelectionSummaryContext{
		SummaryContext:   summary,
		SampleNodeNames:  capStrings(names, sampleLimit),
		SampleEdgeLabels: capStrings(labels, sampleLimit),
	}
}

func compactNodes(nodes []any) []CompactNode {
	compacted := make([]CompactNode, 0, len(nodes))
	for _, node := range nodes {
		id := tour.NodeID(node)
		compacted = append(compacted, CompactNode{
			ID:   id,
			Name: tour.NodeName(node),
			Type: nodeType(node),
		})
	}
	return compacted
}

func compactEdges(edges []edge) []CompactEdge {
	compacted := make([]CompactEdge, 0, len(edges))
	for _, e := range edges {
		compacted = append(compacted, CompactEdge{
			Source: e.Source,
			Target: e.Target,
			Label:  e.label(),
		})
	}
	return compacted
}
