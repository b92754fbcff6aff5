package domain

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// ID strategies accepted by NewIDGenerator.
const (
	IDStrategyUUID       = "uuid"
	IDStrategySequential = "sequential"
)

// IDGenerator mints surrogate keys. Implementations must be safe for
// concurrent use and never return the same id twice within a run.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator mints random version 4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequentialGenerator mints "<prefix><n>" ids from an atomic counter, which
// makes runs over the same input reproducible.
type SequentialGenerator struct {
	prefix string
	next   atomic.Int64
}

// NewSequentialGenerator creates a generator whose first id is prefix+"1".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix}
}

func (g *SequentialGenerator) NewID() string {
	return g.prefix + strconv.FormatInt(g.next.Add(1), 10)
}

// NewIDGenerator returns the generator for a configured strategy name.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case IDStrategyUUID, "":
		return UUIDGenerator{}, nil
	case IDStrategySequential:
		return NewSequentialGenerator(""), nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
