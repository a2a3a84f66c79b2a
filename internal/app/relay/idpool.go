package relay

// idPool hands out 16-bit ids starting at 1. After 0xFFFF it wraps back to 1,
// skipping ids still held by live sessions or games. 0 and 0xFFFF are never
// issued; 0xFFFF is the wire's self-reference sentinel.
//
// Callers must hold the registry lock; the pool itself is not synchronized.
type idPool struct {
	next uint16
}

func newIDPool() *idPool {
	return &idPool{next: 1}
}

// acquire returns the next free id, probing past ids the live set still holds.
// ok is false only when every id is taken, which admission limits prevent.
func (p *idPool) acquire(inUse func(uint16) bool) (id uint16, ok bool) {
	for probes := 0; probes < 0xFFFE; probes++ {
		candidate := p.next
		p.next++
		if p.next == 0xFFFF {
			p.next = 1
		}
		if !inUse(candidate) {
			return candidate, true
		}
	}
	return 0, false
}
