package economy

import (
	"math/rand/v2"
	"sync"
)

// Source yields the uniform draws the lucky roll consumes. Tests inject a
// deterministic implementation.
type Source interface {
	Float64() float64
}

// LockedSource wraps a math/rand/v2 generator so concurrent gift sends can
// share one source.
type LockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedSource returns a goroutine-safe source. A nil generator gets a
// freshly seeded PCG.
func NewLockedSource(r *rand.Rand) *LockedSource {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &LockedSource{r: r}
}

func (l *LockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
