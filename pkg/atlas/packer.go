package atlas

// skylineNode is a horizontal segment of the skyline: the area above Y is
// free for X <= x < X+Width.
type skylineNode struct {
	X, Y, Width int
}

// Packer places rectangles into a fixed Width×Height area with the
// bottom-left skyline heuristic. The skyline is a list of nodes ordered by X
// which together always span the full width.
//
// A Packer is not safe for concurrent use.
type Packer struct {
	Width, Height int
	nodes         []skylineNode
}

// NewPacker creates a packer for an empty w×h area.
func NewPacker(w, h int) *Packer {
	p := &Packer{nodes: make([]skylineNode, 0, 256)}
	p.Reset(w, h)
	return p
}

// Reset empties the packer and resizes its area to w×h.
func (p *Packer) Reset(w, h int) {
	p.Width, p.Height = w, h
	p.nodes = append(p.nodes[:0], skylineNode{X: 0, Y: 0, Width: w})
}

// NumNodes returns the number of skyline segments.
func (p *Packer) NumNodes() int {
	return len(p.nodes)
}

func (p *Packer) insertNode(i, x, y, w int) {
	p.nodes = append(p.nodes, skylineNode{})
	copy(p.nodes[i+1:], p.nodes[i:])
	p.nodes[i] = skylineNode{X: x, Y: y, Width: w}
}

func (p *Packer) removeNode(i int) {
	if len(p.nodes) == 0 {
		return
	}
	p.nodes = append(p.nodes[:i], p.nodes[i+1:]...)
}

// addSkylineLevel raises the skyline over a w×h rectangle placed at (x, y)
// on node i.
func (p *Packer) addSkylineLevel(i, x, y, w, h int) {
	p.insertNode(i, x, y+h, w)

	// cut back the nodes now shadowed by the new one
	for j := i + 1; j < len(p.nodes); j++ {
		prev := p.nodes[j-1]
		if p.nodes[j].X >= prev.X+prev.Width {
			break
		}
		shrink := prev.X + prev.Width - p.nodes[j].X
		p.nodes[j].X += shrink
		p.nodes[j].Width -= shrink
		if p.nodes[j].Width > 0 {
			break
		}
		p.removeNode(j)
		j--
	}

	// merge neighbours of equal height
	for j := 0; j < len(p.nodes)-1; j++ {
		if p.nodes[j].Y == p.nodes[j+1].Y {
			p.nodes[j].Width += p.nodes[j+1].Width
			p.removeNode(j + 1)
			j--
		}
	}
}

// rectFits returns the lowest y at which a w×h rectangle fits with its left
// edge on node i, or -1.
func (p *Packer) rectFits(i, w, h int) int {
	x, y := p.nodes[i].X, p.nodes[i].Y
	if x+w > p.Width {
		return -1
	}
	for spaceLeft := w; spaceLeft > 0; i++ {
		if i == len(p.nodes) {
			return -1
		}
		y = max(y, p.nodes[i].Y)
		if y+h > p.Height {
			return -1
		}
		spaceLeft -= p.nodes[i].Width
	}
	return y
}

// AddRect finds room for a w×h rectangle, preferring the placement with the
// lowest top edge and, among those, the narrowest skyline node. ok is false
// if the rectangle does not fit anywhere.
func (p *Packer) AddRect(w, h int) (x, y int, ok bool) {
	bestH, bestW := p.Height+1, p.Width
	bestI, bestX, bestY := -1, -1, -1
	for i := range p.nodes {
		y := p.rectFits(i, w, h)
		if y == -1 {
			continue
		}
		if y+h < bestH || y+h == bestH && p.nodes[i].Width < bestW {
			bestI = i
			bestW = p.nodes[i].Width
			bestH = y + h
			bestX = p.nodes[i].X
			bestY = y
		}
	}
	if bestI == -1 {
		return 0, 0, false
	}
	p.addSkylineLevel(bestI, bestX, bestY, w, h)
	return bestX, bestY, true
}
