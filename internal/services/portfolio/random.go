package portfolio

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source yields uniform values in [0, 1). Every synthesized figure (placeholder
// daily changes, synthetic performance series) draws from an injected Source
// so tests can seed it.
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a goroutine-safe Source. A zero seed is replaced by the clock.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
