package catchment

// reachNode is the catchment's internal, mutable representation of a reach.
// It never holds a pointer to another reachNode or to the owning Catchment;
// all cross-references are ReachID values resolved back through the
// Catchment's index. This is what lets Snapshot be a cheap, callback-free
// value type.
type reachNode struct {
	id            ReachID
	canonicalIdx  int
	downstreamIDs []ReachID
	upstreamIDs   []ReachID
	attrs         Attributes

	hasUpstreamLoading    bool
	skip                  bool
	massOutflowFileNeeded bool

	state State
}

// snapshot builds the value-type copy of n safe to hand to a worker.
func (n *reachNode) snapshot() Snapshot {
	downstream := make([]ReachID, len(n.downstreamIDs))
	copy(downstream, n.downstreamIDs)
	upstream := make([]ReachID, len(n.upstreamIDs))
	copy(upstream, n.upstreamIDs)

	return Snapshot{
		ID:                    n.id,
		DownstreamIDs:         downstream,
		UpstreamIDs:           upstream,
		Attributes:            n.attrs,
		HasUpstreamLoading:    n.hasUpstreamLoading,
		Skip:                  n.skip,
		MassOutflowFileNeeded: n.massOutflowFileNeeded,
	}
}
