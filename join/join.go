// Package join provides the barrier a dispatcher waits on after handing
// units of work to other goroutines.
package join

// A Group waits for a collection of units of work to finish and keeps
// the first error any of them reported.
//
// Add must be called before the unit is handed to another goroutine.
// Wait returns only when the counter drops to zero, so a failing unit
// never lets the caller observe results of units that are still running.
type Group struct {
	cnt int
	err error
	// токен в канале - ждать нечего
	done chan struct{}
	// эксклюзивный доступ к cnt и err
	mu chan struct{}
}

// New creates an empty Group. Wait on it returns immediately.
func New() *Group {
	g := &Group{
		done: make(chan struct{}, 1),
		mu:   make(chan struct{}, 1),
	}
	g.mu <- struct{}{}
	g.done <- struct{}{}
	return g
}

// Add adds delta, which may be negative, to the counter.
// If the counter becomes zero, all goroutines blocked on Wait are released.
// If the counter goes negative, Add panics.
func (g *Group) Add(delta int) {
	if delta == 0 {
		return
	}

	<-g.mu
	old := g.cnt
	g.cnt += delta
	if g.cnt < 0 {
		g.mu <- struct{}{}
		panic("join: negative counter")
	}

	// Счетчик стал больше нуля - забираем токен
	if old == 0 && g.cnt > 0 {
		select {
		case <-g.done:
		default:
		}
	}
	if g.cnt == 0 {
		select {
		case g.done <- struct{}{}:
		default:
		}
	}
	g.mu <- struct{}{}
}

// Done marks one unit as finished. A non-nil err is kept if no unit
// reported an error before.
func (g *Group) Done(err error) {
	if err != nil {
		<-g.mu
		if g.err == nil {
			g.err = err
		}
		g.mu <- struct{}{}
	}
	g.Add(-1)
}

// Wait blocks until the counter is zero and returns the first error.
func (g *Group) Wait() error {
	<-g.done

	<-g.mu
	// Возвращаем токен, только если счетчик действительно ноль
	if g.cnt == 0 {
		select {
		case g.done <- struct{}{}:
		default:
		}
	}
	err := g.err
	g.mu <- struct{}{}

	return err
}
