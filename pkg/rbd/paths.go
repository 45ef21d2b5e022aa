package rbd

import "math"

// SuccessPaths returns every simple path from Entry to Exit as the list of
// block names along it. A direct Entry-to-Exit edge yields an empty path.
func (s *System) SuccessPaths() ([][]string, error) {
	topo, err := s.freeze()
	if err != nil {
		return nil, err
	}

	var paths [][]string
	onPath := make([]bool, topo.nodeCount())
	var trail []int

	var walk func(v int)
	walk = func(v int) {
		for _, w := range topo.successors(v) {
			if w == exitIndex {
				path := make([]string, len(trail))
				for i, b := range trail {
					path[i] = topo.names[b]
				}
				paths = append(paths, path)
				continue
			}
			if onPath[w] {
				continue
			}
			onPath[w] = true
			trail = append(trail, w)
			walk(w)
			trail = trail[:len(trail)-1]
			onPath[w] = false
		}
	}
	onPath[entryIndex] = true
	walk(entryIndex)
	return paths, nil
}

// MinimalCuts returns the minimal sets of at most order blocks whose joint
// failure disconnects Exit from Entry, smallest sets first. An order <= 0
// means no limit.
func (s *System) MinimalCuts(order int) ([][]string, error) {
	topo, err := s.freeze()
	if err != nil {
		return nil, err
	}
	blocks := topo.blockCount()
	if order <= 0 || order > blocks {
		order = blocks
	}

	sc := newScratch(topo)
	var cuts [][]int
	var result [][]string

	containsCut := func(set []int) bool {
		for _, cut := range cuts {
			if isSubset(cut, set) {
				return true
			}
		}
		return false
	}

	for size := 1; size <= order; size++ {
		combinations(blocks, size, func(set []int) {
			if containsCut(set) {
				return
			}
			for v := 2; v < topo.nodeCount(); v++ {
				sc.failAt[v] = math.Inf(1)
			}
			for _, b := range set {
				sc.failAt[b+2] = 0
			}
			if topo.connected(sc, 0) {
				return
			}
			cut := append([]int(nil), set...)
			cuts = append(cuts, cut)
			names := make([]string, len(cut))
			for i, b := range cut {
				names[i] = topo.names[b+2]
			}
			result = append(result, names)
		})
	}
	return result, nil
}

// combinations calls fn with every ascending k-subset of [0, n). The slice
// passed to fn is reused between calls.
func combinations(n, k int, fn func([]int)) {
	if k > n || k <= 0 {
		return
	}
	set := make([]int, k)
	for i := range set {
		set[i] = i
	}
	for {
		fn(set)
		i := k - 1
		for i >= 0 && set[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		set[i]++
		for j := i + 1; j < k; j++ {
			set[j] = set[j-1] + 1
		}
	}
}

// isSubset reports whether sorted a is contained in sorted b.
func isSubset(a, b []int) bool {
	j := 0
	for _, x := range a {
		for j < len(b) && b[j] < x {
			j++
		}
		if j == len(b) || b[j] != x {
			return false
		}
		j++
	}
	return true
}
