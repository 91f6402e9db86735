package devhost

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dusk-indust/mergeframes/internal/structure"
)

// Seed is the JSON document used to preload a workspace.
type Seed struct {
	Entries []SeedEntry `json:"entries"`
}

// SeedEntry is a workspace entry plus its initial selection flag.
type SeedEntry struct {
	structure.Complex
	Selected bool `json:"selected"`
}

// DecodeSeed reads a Seed from r.
func DecodeSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("devhost: decode seed: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile reads a Seed from the JSON file at path.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("devhost: open seed: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}

// Apply adds every seed entry to s in document order and returns the
// assigned IDs.
func (seed *Seed) Apply(s *Store) []string {
	ids := make([]string, 0, len(seed.Entries))
	for i := range seed.Entries {
		e := &seed.Entries[i]
		ids = append(ids, s.Add(&e.Complex, e.Selected))
	}
	return ids
}
