// Package harness times strategy runs and reports them.
package harness

import (
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Measurement is the outcome of one timed run.
type Measurement struct {
	Name    string
	Elapsed time.Duration
	Result  int
	Err     error
}

// Timer measures a single invocation per call. There is no warm-up and no
// repetition: the first strategy timed also pays for any cold start.
type Timer struct {
	clock  clockwork.Clock
	out    io.Writer
	logger *zap.Logger
}

func NewTimer(clock clockwork.Clock, out io.Writer, logger *zap.Logger) *Timer {
	return &Timer{clock: clock, out: out, logger: logger}
}

// Time runs op once and writes a report line for it to the output.
func (t *Timer) Time(label string, op func() (int, error)) Measurement {
	start := t.clock.Now()
	result, err := op()
	m := Measurement{
		Name:    label,
		Elapsed: t.clock.Since(start),
		Result:  result,
		Err:     err,
	}

	if err != nil {
		t.logger.Error("strategy failed",
			zap.String("strategy", label),
			zap.Duration("elapsed", m.Elapsed),
			zap.Error(err),
		)
		fmt.Fprintf(t.out, "Total elapsed milliseconds for %s: %d.  Failed: %v\n",
			label, m.Elapsed.Milliseconds(), err)
		return m
	}

	t.logger.Info("strategy finished",
		zap.String("strategy", label),
		zap.Duration("elapsed", m.Elapsed),
		zap.Int("result", result),
	)
	fmt.Fprintf(t.out, "Total elapsed milliseconds for %s: %d.  Result: %d\n",
		label, m.Elapsed.Milliseconds(), result)
	return m
}
