package dag

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/nodeid"
)

// NodeType separates the two node families in a graph.
type NodeType int

const (
	// StepNode runs a unit of work.
	StepNode NodeType = iota
	// ResourceNode manages a stateful instance shared by steps.
	ResourceNode
)

// State tracks where a node is in its lifecycle. Workers read and write it
// concurrently, so all access goes through the atomic accessors.
type State int32

const (
	// Pending means the node still has unmet dependencies.
	Pending State = iota
	// Running means a worker has picked the node up.
	Running
	// Done means the node finished successfully.
	Done
	// Failed covers both execution failure and being skipped because a
	// dependency failed.
	Failed
)

// Node is one vertex of a flow's execution graph: a step to run or a
// resource to create.
type Node struct {
	// ID is the canonical string form of Addr, used as the map key
	// everywhere.
	ID   string
	Addr nodeid.Address
	// Name is the instance label from the flow file.
	Name string
	Type NodeType

	// Exactly one of StepConfig and ResourceConfig is set, matching Type.
	StepConfig     *config.Step
	ResourceConfig *config.Resource

	// Deps are this node's predecessors; Dependents its successors. Both
	// are fixed once Build returns.
	Deps       map[string]*Node
	Dependents map[string]*Node

	// Error and Output are written by the worker that executed the node
	// and read only after it finished.
	Error  error
	Output any

	// StartedAt and FinishedAt bracket the node's execution for run history.
	StartedAt  time.Time
	FinishedAt time.Time

	// depCount reaches zero when the node becomes ready to run.
	depCount atomic.Int32
	// descendantCount reaches zero when a resource's last dependent is
	// done and it can be torn down early.
	descendantCount atomic.Int32
	state           atomic.Int32
	// destroyOnce and skipOnce keep teardown and skip idempotent under
	// concurrent workers.
	destroyOnce sync.Once
	skipOnce    sync.Once
}

// newStepNode creates an unlinked node for a step declaration.
func newStepNode(addr nodeid.Address, cfg *config.Step) *Node {
	return &Node{
		ID:         addr.String(),
		Addr:       addr,
		Name:       cfg.Name,
		Type:       StepNode,
		StepConfig: cfg,
		Deps:       make(map[string]*Node),
		Dependents: make(map[string]*Node),
	}
}

// newResourceNode creates an unlinked node for a resource declaration.
func newResourceNode(addr nodeid.Address, cfg *config.Resource) *Node {
	return &Node{
		ID:             addr.String(),
		Addr:           addr,
		Name:           cfg.Name,
		Type:           ResourceNode,
		ResourceConfig: cfg,
		Deps:           make(map[string]*Node),
		Dependents:     make(map[string]*Node),
	}
}

// SetInitialCounters derives the scheduling counters from the linked topology.
func (n *Node) SetInitialCounters() {
	n.depCount.Store(int32(len(n.Deps)))
	if n.Type == ResourceNode {
		n.descendantCount.Store(int32(len(n.Dependents)))
	}
}

// DepCount reports how many dependencies are still unmet.
func (n *Node) DepCount() int32 {
	return n.depCount.Load()
}

// DecrementDepCount marks one dependency as met and reports how many remain.
func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// DecrementDescendantCount marks one dependent of a resource as finished and
// reports how many remain.
func (n *Node) DecrementDescendantCount() int32 {
	return n.descendantCount.Add(-1)
}

// SetState records the node's lifecycle state.
func (n *Node) SetState(s State) {
	n.state.Store(int32(s))
}

// GetState reads the node's lifecycle state.
func (n *Node) GetState() State {
	return State(n.state.Load())
}

// Destroy runs the cleanup function at most once, no matter how many paths
// reach teardown.
func (n *Node) Destroy(f func()) {
	n.destroyOnce.Do(f)
}

// Skip marks the node failed with err and releases its WaitGroup slot. It
// reports whether this call was the one that performed the skip; later calls
// are no-ops.
func (n *Node) Skip(err error, wg *sync.WaitGroup) bool {
	var first bool
	n.skipOnce.Do(func() {
		n.SetState(Failed)
		n.Error = err
		wg.Done()
		first = true
	})
	return first
}

// link records a dependency edge from n to dep, ignoring duplicates.
func (n *Node) link(dep *Node) {
	if _, exists := n.Deps[dep.ID]; exists {
		return
	}
	n.Deps[dep.ID] = dep
	dep.Dependents[n.ID] = n
}

// Graph is the complete, linked execution graph for one flow, keyed by
// canonical node ID.
type Graph struct {
	Nodes map[string]*Node
}
