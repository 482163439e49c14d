// Package dag builds the directed acyclic graph that drives flow execution.
//
// A graph is constructed from a single flow: one node per step, plus one node
// per resource the flow's steps actually reference. Linking establishes both
// explicit dependencies (depends_on) and implicit ones discovered from
// expression traversals, and steps without an explicit dependency are chained
// to the previously declared step so flows run sequentially by default.
package dag
