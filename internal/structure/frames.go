package structure

import "github.com/go-gl/mathgl/mgl64"

// ConvertToFrames returns a copy of c in which every conformer of every
// molecule becomes its own single-conformer molecule. Molecule order is kept,
// and conformers of one molecule stay adjacent in conformer order. The input
// is not modified.
func ConvertToFrames(c *Complex) *Complex {
	out := &Complex{
		ID:        c.ID,
		Name:      c.Name,
		Placement: c.Placement,
		Molecules: make([]Molecule, 0, len(c.Molecules)),
	}
	for _, m := range c.Molecules {
		n := m.Conformers()
		for conf := 0; conf < n; conf++ {
			out.Molecules = append(out.Molecules, extractConformer(m, conf))
		}
	}
	return out
}

func extractConformer(m Molecule, conf int) Molecule {
	frame := Molecule{
		Name:           m.Name,
		ConformerCount: 1,
		Atoms:          make([]Atom, len(m.Atoms)),
	}
	for i, a := range m.Atoms {
		frame.Atoms[i] = Atom{
			Serial:    a.Serial,
			Symbol:    a.Symbol,
			Positions: []mgl64.Vec3{a.Position(conf)},
			Selected:  a.Selected,
		}
	}
	if m.Bonds != nil {
		frame.Bonds = append([]Bond(nil), m.Bonds...)
	}
	return frame
}

// SetAllSelected sets the selection flag of every atom in c.
func SetAllSelected(c *Complex, selected bool) {
	for mi := range c.Molecules {
		atoms := c.Molecules[mi].Atoms
		for ai := range atoms {
			atoms[ai].Selected = selected
		}
	}
}

// AlignTo re-expresses every atom position of c in ref's local space so the
// atoms keep their workspace location, then gives c the placement of ref.
func AlignTo(c *Complex, ref *Complex) {
	src, dst := c.Placement, ref.Placement
	for mi := range c.Molecules {
		atoms := c.Molecules[mi].Atoms
		for ai := range atoms {
			positions := atoms[ai].Positions
			for pi, p := range positions {
				positions[pi] = dst.FromWorkspace(src.ToWorkspace(p))
			}
		}
	}
	c.Placement = dst
}

// Toolkit exposes the package transforms as methods.
type Toolkit struct{}

// ConvertToFrames calls ConvertToFrames.
func (Toolkit) ConvertToFrames(c *Complex) *Complex { return ConvertToFrames(c) }

// SetAllSelected calls SetAllSelected.
func (Toolkit) SetAllSelected(c *Complex, selected bool) { SetAllSelected(c, selected) }

// AlignTo calls AlignTo.
func (Toolkit) AlignTo(c, ref *Complex) { AlignTo(c, ref) }
