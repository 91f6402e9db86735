// Package structure holds the workspace entry model exchanged with the host:
// complexes, molecules and atoms, plus the few transforms the merge needs.
package structure

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
)

// EntrySummary is the shallow view of a workspace entry returned by the
// host's entry list. It carries no molecular content.
type EntrySummary struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Selected bool   `json:"selected"`
}

// Complex is a full workspace entry.
type Complex struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name"`
	Placement Placement  `json:"placement"`
	Molecules []Molecule `json:"molecules"`
}

// NewComplex returns an empty complex with an identity placement.
func NewComplex(name string) *Complex {
	return &Complex{
		Name:      name,
		Placement: IdentityPlacement(),
	}
}

// AddMolecule appends m to the complex.
func (c *Complex) AddMolecule(m Molecule) {
	c.Molecules = append(c.Molecules, m)
}

// AtomCount returns the number of atoms across all molecules.
func (c *Complex) AtomCount() int {
	n := 0
	for _, m := range c.Molecules {
		n += len(m.Atoms)
	}
	return n
}

// Clone returns a deep copy of c.
func (c *Complex) Clone() *Complex {
	out := &Complex{
		ID:        c.ID,
		Name:      c.Name,
		Placement: c.Placement,
		Molecules: make([]Molecule, len(c.Molecules)),
	}
	for i, m := range c.Molecules {
		out.Molecules[i] = m.Clone()
	}
	return out
}

// Molecule is one model of a complex. Atom positions hold one coordinate per
// conformer.
type Molecule struct {
	Name           string `json:"name,omitempty"`
	ConformerCount int    `json:"conformerCount"`
	Atoms          []Atom `json:"atoms"`
	Bonds          []Bond `json:"bonds,omitempty"`
}

// Conformers returns the effective conformer count (at least 1).
func (m Molecule) Conformers() int {
	if m.ConformerCount < 1 {
		return 1
	}
	return m.ConformerCount
}

// Selected reports whether any atom of the molecule is selected.
func (m Molecule) Selected() bool {
	for _, a := range m.Atoms {
		if a.Selected {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of m.
func (m Molecule) Clone() Molecule {
	out := Molecule{
		Name:           m.Name,
		ConformerCount: m.ConformerCount,
		Atoms:          make([]Atom, len(m.Atoms)),
	}
	for i, a := range m.Atoms {
		out.Atoms[i] = a.Clone()
	}
	if m.Bonds != nil {
		out.Bonds = append([]Bond(nil), m.Bonds...)
	}
	return out
}

// Atom is a single atom. Positions are in the owning complex's local space,
// indexed by conformer.
type Atom struct {
	Serial    int          `json:"serial"`
	Symbol    string       `json:"symbol"`
	Positions []mgl64.Vec3 `json:"positions"`
	Selected  bool         `json:"selected,omitempty"`
}

// Position returns the coordinate for conformer i, falling back to the first
// coordinate when the atom carries a single position for all conformers.
func (a Atom) Position(i int) mgl64.Vec3 {
	switch {
	case len(a.Positions) == 0:
		return mgl64.Vec3{}
	case i < len(a.Positions):
		return a.Positions[i]
	default:
		return a.Positions[0]
	}
}

// Clone returns a deep copy of a.
func (a Atom) Clone() Atom {
	a.Positions = append([]mgl64.Vec3(nil), a.Positions...)
	return a
}

// Bond links two atoms by index within the molecule's atom slice.
type Bond struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Order int `json:"order,omitempty"`
}

// Placement is the position and orientation of a complex in the workspace.
type Placement struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// IdentityPlacement returns a placement at the origin with no rotation.
func IdentityPlacement() Placement {
	return Placement{Rotation: mgl64.QuatIdent()}
}

// rotation returns the normalized rotation, treating the zero quaternion as
// identity.
func (p Placement) rotation() mgl64.Quat {
	if p.Rotation.W == 0 && p.Rotation.V == (mgl64.Vec3{}) {
		return mgl64.QuatIdent()
	}
	return p.Rotation.Normalize()
}

// ToWorkspace maps a point from local space into workspace space.
func (p Placement) ToWorkspace(v mgl64.Vec3) mgl64.Vec3 {
	return p.rotation().Rotate(v).Add(p.Position)
}

// FromWorkspace maps a point from workspace space into local space.
func (p Placement) FromWorkspace(v mgl64.Vec3) mgl64.Vec3 {
	return p.rotation().Inverse().Rotate(v.Sub(p.Position))
}

// placementWire is the JSON form: position [x,y,z], rotation [x,y,z,w].
type placementWire struct {
	Position [3]float64  `json:"position"`
	Rotation *[4]float64 `json:"rotation,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p Placement) MarshalJSON() ([]byte, error) {
	r := p.rotation()
	return json.Marshal(placementWire{
		Position: p.Position,
		Rotation: &[4]float64{r.V[0], r.V[1], r.V[2], r.W},
	})
}

// UnmarshalJSON implements json.Unmarshaler. A missing rotation decodes as
// identity.
func (p *Placement) UnmarshalJSON(data []byte) error {
	var w placementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Position = w.Position
	p.Rotation = mgl64.QuatIdent()
	if w.Rotation != nil {
		p.Rotation = mgl64.Quat{W: w.Rotation[3], V: mgl64.Vec3{w.Rotation[0], w.Rotation[1], w.Rotation[2]}}
	}
	return nil
}
