package indexed

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// idGenerator выдает монотонные ULID; MonotonicEntropy не потокобезопасен
type idGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDGenerator() *idGenerator {
	source := rand.NewSource(time.Now().UnixNano())
	return &idGenerator{entropy: ulid.Monotonic(rand.New(source), 0)}
}

func (g *idGenerator) New(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(now), g.entropy).String())
}
