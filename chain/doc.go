// Package chain defines the entity model of the Beer Game distribution chain.
//
// Orders, shipments and node/chain status snapshots are plain values shared by
// the live Digital Twin (package twin) and the policy simulator (package sim).
// The chain's shape is a Topology: a directed graph of node names whose
// upstream/downstream edges are resolved once at construction time, so that
// owners (the twin, a simulation run) hold all node state and neighbours are
// looked up by key.
package chain
