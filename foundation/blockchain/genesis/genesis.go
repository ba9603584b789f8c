// Package genesis maintains access to the genesis configuration.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DefaultDifficulty is the number of leading zero hex digits a block hash
// needs when nothing else is configured.
const DefaultDifficulty = 4

// maxDifficulty is the number of hex digits in a block hash.
const maxDifficulty = 64

// Genesis represents the genesis configuration.
type Genesis struct {
	Date       time.Time `json:"date"`       // Time stamped into the genesis block.
	Difficulty uint16    `json:"difficulty"` // How difficult it needs to be to solve the work problem.
}

// =============================================================================

// New constructs a genesis with the specified difficulty dated now.
func New(difficulty uint16) (Genesis, error) {
	gen := Genesis{
		Date:       time.Now().UTC(),
		Difficulty: difficulty,
	}

	if err := gen.validate(); err != nil {
		return Genesis{}, err
	}

	return gen, nil
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var gen Genesis
	if err := json.Unmarshal(content, &gen); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file: %w", err)
	}

	if gen.Date.IsZero() {
		gen.Date = time.Now().UTC()
	}

	if err := gen.validate(); err != nil {
		return Genesis{}, err
	}

	return gen, nil
}

func (g Genesis) validate() error {
	if g.Difficulty > maxDifficulty {
		return fmt.Errorf("difficulty %d is greater than %d", g.Difficulty, maxDifficulty)
	}
	return nil
}
