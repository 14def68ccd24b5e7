package combiner

import "listing_combiner/feed"

// Registry is the per-run reconciliation map: uniqueID to the latest raw listing.
// Iteration follows first insertion; a later Put replaces the value in place.
type Registry struct {
	index map[string]int
	nodes []*feed.Node
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Put stores n under id and reports whether an earlier value was replaced.
func (r *Registry) Put(id string, n *feed.Node) bool {
	if i, ok := r.index[id]; ok {
		r.nodes[i] = n
		return true
	}
	r.index[id] = len(r.nodes)
	r.nodes = append(r.nodes, n)
	return false
}

func (r *Registry) Len() int {
	return len(r.nodes)
}

// Values returns the listings in iteration order.
func (r *Registry) Values() []*feed.Node {
	out := make([]*feed.Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}
