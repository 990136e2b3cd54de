package kolam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/zeebo/xxh3"
)

// DefaultSeed is used when a caller supplies no seed at all.
const DefaultSeed = "default_seed"

// Seed is the textual form of a generation seed. Integer seeds are kept as
// their decimal text so "42" and 42 produce the same pattern.
type Seed string

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (s *Seed) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Seed(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("seed must be a string or a number: %w", err)
	}
	*s = Seed(n.String())
	return nil
}

// OrDefault returns s, or DefaultSeed when s is empty.
func (s Seed) OrDefault() Seed {
	if s == "" {
		return DefaultSeed
	}
	return s
}

// Source derives the int64 random source for the seed.
func (s Seed) Source() int64 {
	return int64(xxh3.HashString(string(s)))
}

// newRand returns the pseudo-random stream for a seed.
func newRand(seed Seed) *rand.Rand {
	return rand.New(rand.NewSource(seed.Source()))
}
