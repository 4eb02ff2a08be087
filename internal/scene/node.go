package scene

// NodeID packs a 32-bit slot index in the low bits and a 32-bit generation
// in the high bits. Removing a node bumps the generation so stale IDs miss.
type NodeID uint64

func newNodeID(index, generation uint32) NodeID {
	return NodeID(uint64(generation)<<32 | uint64(index))
}

func (id NodeID) Index() uint32      { return uint32(id) }
func (id NodeID) Generation() uint32 { return uint32(id >> 32) }

// nodePool hands out node IDs with slot reuse.
type nodePool struct {
	generations []uint32
	free        []uint32
}

func (p *nodePool) create() NodeID {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return newNodeID(idx, p.generations[idx])
	}
	p.generations = append(p.generations, 0)
	return newNodeID(uint32(len(p.generations)-1), 0)
}

func (p *nodePool) alive(id NodeID) bool {
	idx := int(id.Index())
	return idx < len(p.generations) && p.generations[idx] == id.Generation()
}

func (p *nodePool) destroy(id NodeID) bool {
	if !p.alive(id) {
		return false
	}
	p.generations[id.Index()]++
	p.free = append(p.free, id.Index())
	return true
}
