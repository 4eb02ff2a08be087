package controller

// graph is the dependency graph over the registration list. Node i is
// registered[i]; an edge i->j means i runs before j.
type graph struct {
	nodes []Controller
	index map[Controller]int
	succ  [][]int
}

// buildGraph normalizes every Before/After declaration into forward edges.
// Declarations are walked in registration order so the successor lists, and
// therefore the sort, are deterministic.
func buildGraph(nodes []Controller) (*graph, error) {
	g := &graph{
		nodes: nodes,
		index: make(map[Controller]int, len(nodes)),
		succ:  make([][]int, len(nodes)),
	}
	for i, c := range nodes {
		g.index[c] = i
	}
	for i, c := range nodes {
		b := c.base()
		for _, peer := range b.before {
			j, ok := g.index[peer]
			if !ok {
				return nil, &Error{Op: "build graph", Controller: c.Name(), Peer: peer.Name(), Err: ErrDanglingConstraint}
			}
			g.addEdge(i, j)
		}
		for _, peer := range b.after {
			j, ok := g.index[peer]
			if !ok {
				return nil, &Error{Op: "build graph", Controller: c.Name(), Peer: peer.Name(), Err: ErrDanglingConstraint}
			}
			g.addEdge(j, i)
		}
	}
	return g, nil
}

func (g *graph) addEdge(from, to int) {
	for _, s := range g.succ[from] {
		if s == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
}

func (g *graph) edges() int {
	n := 0
	for _, s := range g.succ {
		n += len(s)
	}
	return n
}

type dfsFrame struct {
	node int
	next int
}

// findCycle returns the node indices of one cycle, first node repeated at
// the end, or nil when the graph is acyclic.
func (g *graph) findCycle() []int {
	const (
		unvisited uint8 = iota
		onPath
		done
	)
	state := make([]uint8, len(g.nodes))
	stack := make([]dfsFrame, 0, len(g.nodes))

	for root := range g.nodes {
		if state[root] != unvisited {
			continue
		}
		state[root] = onPath
		stack = append(stack[:0], dfsFrame{node: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(g.succ[top.node]) {
				state[top.node] = done
				stack = stack[:len(stack)-1]
				continue
			}
			next := g.succ[top.node][top.next]
			top.next++

			switch state[next] {
			case onPath:
				var cycle []int
				for i := range stack {
					if stack[i].node == next {
						for _, f := range stack[i:] {
							cycle = append(cycle, f.node)
						}
						break
					}
				}
				return append(cycle, next)
			case unvisited:
				state[next] = onPath
				stack = append(stack, dfsFrame{node: next})
			}
		}
	}
	return nil
}

// sort returns a topological order of an acyclic graph. Roots are taken in
// reverse registration order and successors in reverse declaration order;
// reversing the finish sequence then keeps unconstrained controllers in
// registration order.
func (g *graph) sort() []Controller {
	n := len(g.nodes)
	visited := make([]bool, n)
	finished := make([]int, 0, n)
	stack := make([]dfsFrame, 0, n)

	for root := n - 1; root >= 0; root-- {
		if visited[root] {
			continue
		}
		visited[root] = true
		stack = append(stack[:0], dfsFrame{node: root, next: len(g.succ[root])})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == 0 {
				finished = append(finished, top.node)
				stack = stack[:len(stack)-1]
				continue
			}
			top.next--
			next := g.succ[top.node][top.next]
			if !visited[next] {
				visited[next] = true
				stack = append(stack, dfsFrame{node: next, next: len(g.succ[next])})
			}
		}
	}

	order := make([]Controller, n)
	for i, idx := range finished {
		order[n-1-i] = g.nodes[idx]
	}
	return order
}

func (g *graph) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, n := range idx {
		out[i] = g.nodes[n].Name()
	}
	return out
}
