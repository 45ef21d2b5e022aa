package rbd

import (
	"math"
	"time"

	"github.com/dd0wney/cluso-rbd/pkg/logging"
)

// topology is the frozen, read-only form of a System. Arena indices are
// kept: 0 is Entry, 1 is Exit and block k lives at index k+2. Adjacency is
// stored in compressed sparse row form.
type topology struct {
	names   []string
	sources []LifetimeSource // indexed like names; nil for sentinels
	offsets []int            // out-edges of v are targets[offsets[v]:offsets[v+1]]
	targets []int
	edges   int
}

func (t *topology) nodeCount() int  { return len(t.names) }
func (t *topology) blockCount() int { return len(t.names) - 2 }

func (t *topology) successors(v int) []int {
	return t.targets[t.offsets[v]:t.offsets[v+1]]
}

// Freeze validates the diagram and compiles it for evaluation. It is called
// implicitly by the evaluator; calling it directly surfaces configuration
// errors early. Any later edit discards the compiled form.
func (s *System) Freeze() error {
	_, err := s.freeze()
	return err
}

func (s *System) freeze() (*topology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen != nil {
		return s.frozen, nil
	}

	start := time.Now()
	topo, err := s.compileLocked()
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordFreeze(s.name, status, len(s.nodes)-2, len(s.ordered), time.Since(start))
	}
	if err != nil {
		s.logger.Warn("topology rejected", logging.System(s.name), logging.Error(err))
		return nil, err
	}

	s.logger.Debug("topology frozen",
		logging.System(s.name),
		logging.Int("blocks", topo.blockCount()),
		logging.Int("edges", topo.edges))
	s.frozen = topo
	return topo, nil
}

func (s *System) compileLocked() (*topology, error) {
	if len(s.out[entryIndex]) == 0 {
		return nil, NewError("Freeze").Entity("sentinel").Configuration().Context("missing entry sentinel: no block is connected to E").Err()
	}
	if len(s.in[exitIndex]) == 0 {
		return nil, NewError("Freeze").Entity("sentinel").Configuration().Context("missing exit sentinel: no block is connected to S").Err()
	}
	if len(s.nodes) == 2 {
		return nil, NewError("Freeze").Entity("system").Configuration().Context("diagram has no blocks").Err()
	}

	fromEntry := reach(s.out, entryIndex)
	if !fromEntry[exitIndex] {
		return nil, NewError("Freeze").Entity("system").Configuration().Context("no path from entry to exit").Err()
	}
	toExit := reach(s.in, exitIndex)
	for v := 2; v < len(s.nodes); v++ {
		if !fromEntry[v] {
			return nil, NewError("Freeze").Block(s.nodes[v].name).Configuration().Context("not reachable from entry").Err()
		}
		if !toExit[v] {
			return nil, NewError("Freeze").Block(s.nodes[v].name).Configuration().Context("no path to exit").Err()
		}
	}

	topo := &topology{
		names:   make([]string, len(s.nodes)),
		sources: make([]LifetimeSource, len(s.nodes)),
		offsets: make([]int, len(s.nodes)+1),
		targets: make([]int, 0, len(s.ordered)),
		edges:   len(s.ordered),
	}
	for v, n := range s.nodes {
		topo.names[v] = n.name
		topo.sources[v] = n.source
		topo.offsets[v] = len(topo.targets)
		topo.targets = append(topo.targets, s.out[v]...)
	}
	topo.offsets[len(s.nodes)] = len(topo.targets)
	return topo, nil
}

// reach returns the set of nodes reachable from start over adj.
func reach(adj [][]int, start int) []bool {
	seen := make([]bool, len(adj))
	seen[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range adj[v] {
			if !seen[w] {
				seen[w] = true
				queue = append(queue, w)
			}
		}
	}
	return seen
}

// scratch holds the per-goroutine buffers of connectivity queries.
type scratch struct {
	failAt  []float64 // failure time per arena node; +Inf for sentinels
	mark    []uint32
	stamp   uint32
	queue   []int
	ordered []float64
}

func newScratch(t *topology) *scratch {
	sc := &scratch{
		failAt:  make([]float64, t.nodeCount()),
		mark:    make([]uint32, t.nodeCount()),
		queue:   make([]int, 0, t.nodeCount()),
		ordered: make([]float64, 0, t.blockCount()),
	}
	sc.failAt[entryIndex] = math.Inf(1)
	sc.failAt[exitIndex] = math.Inf(1)
	return sc
}

// connected reports whether Exit is reachable from Entry through nodes
// still alive at time at, i.e. whose failure time exceeds at.
func (t *topology) connected(sc *scratch, at float64) bool {
	sc.stamp++
	if sc.stamp == 0 {
		clear(sc.mark)
		sc.stamp = 1
	}
	sc.mark[entryIndex] = sc.stamp
	queue := append(sc.queue[:0], entryIndex)
	for head := 0; head < len(queue); head++ {
		for _, w := range t.successors(queue[head]) {
			if sc.mark[w] == sc.stamp || !(sc.failAt[w] > at) {
				continue
			}
			if w == exitIndex {
				sc.queue = queue
				return true
			}
			sc.mark[w] = sc.stamp
			queue = append(queue, w)
		}
	}
	sc.queue = queue
	return false
}
