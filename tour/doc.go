// Package tour models heterogeneous knowledge-graph descriptions and selects
// the ordered node sequence for a guided tour.
//
// A graph description may carry any combination of a node list, a link list
// (source/target), an edge list (_from/_to), and a subject/object triple
// list. All shapes are normalized at the boundary into one canonical
// undirected [Adjacency] relation; [Select] then ranks nodes by degree and
// walks the top-ranked "eligible set" depth-first so that visually adjacent
// nodes are toured consecutively.
//
// Key entry points: [ParseGraph] for tolerant JSON decoding, [BuildAdjacency]
// for normalization, and [Select] for producing a tour order.
package tour
