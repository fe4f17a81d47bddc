package customer

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	DefaultAccountNumberMin = 10000
	DefaultAccountNumberMax = 99999
)

// AccountNumberRange is inclusive on both ends.
type AccountNumberRange struct {
	Min int
	Max int
}

func DefaultAccountNumberRange() AccountNumberRange {
	return AccountNumberRange{Min: DefaultAccountNumberMin, Max: DefaultAccountNumberMax}
}

func (r AccountNumberRange) Validate() error {
	if r.Min <= 0 || r.Max < r.Min {
		return fmt.Errorf("invalid account number range [%d, %d]", r.Min, r.Max)
	}
	return nil
}

func (r AccountNumberRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

func (r AccountNumberRange) Size() int {
	return r.Max - r.Min + 1
}

type AccountNumberGenerator interface {
	Next() int
	Range() AccountNumberRange
}

type RandomAccountNumbers struct {
	bounds AccountNumberRange
	mu     sync.Mutex
	rnd    *rand.Rand
}

var _ AccountNumberGenerator = (*RandomAccountNumbers)(nil)

// NewRandomAccountNumbers draws uniformly from bounds. A nil src seeds a PCG
// source from the clock.
func NewRandomAccountNumbers(bounds AccountNumberRange, src rand.Source) (*RandomAccountNumbers, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	return &RandomAccountNumbers{
		bounds: bounds,
		rnd:    rand.New(src),
	}, nil
}

func (g *RandomAccountNumbers) Next() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bounds.Min + g.rnd.IntN(g.bounds.Size())
}

func (g *RandomAccountNumbers) Range() AccountNumberRange {
	return g.bounds
}
