// Package rbd implements reliability block diagrams: components, M-out-of-N
// voters and the directed graph that connects them between an entry and an
// exit sentinel. The system is up while a directed path of live blocks
// leads from Entry to Exit.
//
// A System is assembled incrementally with AddEdge/Connect, frozen into an
// immutable topology, and evaluated by Monte Carlo simulation.
package rbd

import (
	"reflect"
	"sync"

	"github.com/dd0wney/cluso-rbd/pkg/logging"
	"github.com/dd0wney/cluso-rbd/pkg/metrics"
)

// Node is anything that can appear in a diagram: a sentinel or a
// LifetimeSource.
type Node interface {
	Name() string
}

type sentinel string

func (s sentinel) Name() string { return string(s) }

// Sentinel nodes. Entry has no incoming edges and Exit no outgoing edges.
const (
	Entry sentinel = "E"
	Exit  sentinel = "S"
)

// Arena indices of the sentinels.
const (
	entryIndex = 0
	exitIndex  = 1
)

type arenaNode struct {
	name   string
	source LifetimeSource // nil for sentinels
}

// System is a reliability block diagram. It is safe for concurrent use;
// edits made while an evaluation runs apply to the next evaluation.
type System struct {
	name string

	mu      sync.RWMutex
	nodes   []arenaNode
	index   map[string]int
	out     [][]int
	in      [][]int
	edges   map[[2]int]struct{}
	ordered [][2]int // edges in declaration order
	frozen  *topology

	logger  logging.Logger
	metrics *metrics.Registry
}

// SystemOption configures a System.
type SystemOption func(*System)

// WithSystemName names the system in logs and metrics.
func WithSystemName(name string) SystemOption {
	return func(s *System) {
		s.name = name
	}
}

// WithLogger sets the logger used for assembly and evaluation.
func WithLogger(logger logging.Logger) SystemOption {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records freezes and evaluations in registry.
func WithMetrics(registry *metrics.Registry) SystemOption {
	return func(s *System) {
		s.metrics = registry
	}
}

// NewSystem creates an empty diagram holding only the two sentinels.
func NewSystem(opts ...SystemOption) *System {
	s := &System{
		name:   "system",
		nodes:  []arenaNode{{name: Entry.Name()}, {name: Exit.Name()}},
		index:  make(map[string]int),
		out:    make([][]int, 2),
		in:     make([][]int, 2),
		edges:  make(map[[2]int]struct{}),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the system name.
func (s *System) Name() string {
	return s.name
}

// AddEdge declares that to depends on from. Blocks are registered on first
// use. Duplicate edges are ignored.
func (s *System) AddEdge(from, to Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEdgeLocked(from, to)
}

// Connect adds an edge from from to every node in to: one node gives a
// series link, several give parallel branches.
func (s *System) Connect(from Node, to ...Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range to {
		if err := s.addEdgeLocked(from, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) addEdgeLocked(from, to Node) error {
	if to == Entry {
		return NewError("AddEdge").Entity("edge").Configuration().Context("entry cannot have incoming edges").Err()
	}
	if from == Exit {
		return NewError("AddEdge").Entity("edge").Configuration().Context("exit cannot have outgoing edges").Err()
	}
	fi, err := s.register(from)
	if err != nil {
		return err
	}
	ti, err := s.register(to)
	if err != nil {
		return err
	}

	key := [2]int{fi, ti}
	if _, dup := s.edges[key]; dup {
		return nil
	}
	s.edges[key] = struct{}{}
	s.ordered = append(s.ordered, key)
	s.out[fi] = append(s.out[fi], ti)
	s.in[ti] = append(s.in[ti], fi)
	s.frozen = nil
	return nil
}

// register returns the arena index of n, adding it when new.
func (s *System) register(n Node) (int, error) {
	switch v := n.(type) {
	case nil:
		return 0, NewError("AddEdge").Entity("block").Configuration().Context("node is nil").Err()
	case sentinel:
		if v == Entry {
			return entryIndex, nil
		}
		return exitIndex, nil
	}

	src, ok := n.(LifetimeSource)
	if !ok {
		return 0, NewError("AddEdge").Block(n.Name()).Configuration().Context("node %T is not a lifetime source", n).Err()
	}
	name := src.Name()
	if name == "" {
		return 0, NewError("AddEdge").Entity("block").Configuration().Context("block name is empty").Err()
	}
	if idx, exists := s.index[name]; exists {
		if !sameSource(s.nodes[idx].source, src) {
			return 0, NewError("AddEdge").Block(name).Configuration().Context("another block is already registered under this name").Err()
		}
		return idx, nil
	}

	idx := len(s.nodes)
	s.nodes = append(s.nodes, arenaNode{name: name, source: src})
	s.out = append(s.out, nil)
	s.in = append(s.in, nil)
	s.index[name] = idx
	s.frozen = nil
	return idx, nil
}

// Blocks returns the registered block names in registration order.
func (s *System) Blocks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.nodes)-2)
	for _, n := range s.nodes[2:] {
		names = append(names, n.name)
	}
	return names
}

// Source returns the lifetime source registered under name.
func (s *System) Source(name string) (LifetimeSource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.nodes[idx].source, true
}

// Edges returns the declared edges as (from, to) name pairs.
func (s *System) Edges() [][2]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][2]string, len(s.ordered))
	for i, e := range s.ordered {
		out[i] = [2]string{s.nodes[e[0]].name, s.nodes[e[1]].name}
	}
	return out
}

// sameSource reports whether b denotes the block already registered as a.
// Comparable sources are compared with ==; values holding slices or maps
// fall back to deep equality, so a value-typed source may be passed to
// several edges.
func sameSource(a, b LifetimeSource) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
