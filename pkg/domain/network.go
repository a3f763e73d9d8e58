package domain

// CenterShape marks the node the projection was computed for.
const CenterShape = "dot"

// Node is a person in a network projection.
type Node struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Shape string `json:"shape,omitempty"`
}

// Edge is a directed, labeled relationship in a network projection.
type Edge struct {
	From  int64  `json:"from"`
	To    int64  `json:"to"`
	Label string `json:"label"`
}

// Network is the subgraph made of a center person, its direct neighbours, and
// every relationship touching the center.
type Network struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Center returns the center node. Projections built by BuildNetwork always
// carry it first.
func (n Network) Center() (Node, bool) {
	if len(n.Nodes) == 0 {
		return Node{}, false
	}
	return n.Nodes[0], true
}

// BuildNetwork projects center's relationships into nodes and edges.
// outbound holds relationships where center is the source, inbound those
// where it is the target. Neighbours are deduplicated by id, last write wins,
// in first-seen order. Edges are never deduplicated.
func BuildNetwork(center Person, outbound, inbound []Link) Network {
	neighbours := make(map[int64]Node, len(outbound)+len(inbound))
	order := make([]int64, 0, len(outbound)+len(inbound))
	edges := make([]Edge, 0, len(outbound)+len(inbound))

	add := func(p PersonSummary) {
		if _, seen := neighbours[p.ID]; !seen {
			order = append(order, p.ID)
		}
		neighbours[p.ID] = Node{ID: p.ID, Label: p.Name, Group: GroupOrDefault(p.GroupTag)}
	}

	for _, l := range outbound {
		add(l.Counterpart)
		edges = append(edges, Edge{From: center.ID, To: l.Relationship.RelatedPersonID, Label: l.Relationship.RelationshipType})
	}
	for _, l := range inbound {
		add(l.Counterpart)
		edges = append(edges, Edge{From: l.Relationship.PersonID, To: center.ID, Label: l.Relationship.RelationshipType})
	}

	nodes := make([]Node, 0, len(order)+1)
	nodes = append(nodes, Node{ID: center.ID, Label: center.Name, Group: center.Group(), Shape: CenterShape})
	for _, id := range order {
		nodes = append(nodes, neighbours[id])
	}
	return Network{Nodes: nodes, Edges: edges}
}
