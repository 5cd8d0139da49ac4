package lua

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/botlink/internal/groutine"
)

// finalDrainTimeout bounds how long a stopping drainer keeps writing pending output.
const finalDrainTimeout = 100 * time.Millisecond

// OutputDrainer copies captured output to writers while a script runs.
type OutputDrainer struct {
	cancelOnce sync.Once
	stop       chan struct{}
	wg         sync.WaitGroup

	logger *logrus.Logger
	out    map[string]io.Writer
}

// NewOutputDrainer starts draining outputChan to stdout and stderr. Nil writers discard.
func NewOutputDrainer(ctx context.Context, outputChan <-chan LuaOutputRecord, logger *logrus.Logger, stdout, stderr io.Writer) *OutputDrainer {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	d := &OutputDrainer{
		stop:   make(chan struct{}),
		logger: logger,
		out:    map[string]io.Writer{"stdout": stdout, "stderr": stderr},
	}

	d.wg.Add(1)
	groutine.Go(ctx, "lua-output-drainer", func(ctx context.Context) {
		defer d.wg.Done()
		defer logger.Debugf("%s: exiting", groutine.GetName(ctx))

		for {
			select {
			case record, ok := <-outputChan:
				if !ok {
					return
				}
				d.write(record)
			case <-d.stop:
				d.drain(outputChan, "stop")
				return
			case <-ctx.Done():
				d.drain(outputChan, "context-done")
				return
			}
		}
	})
	return d
}

func (d *OutputDrainer) write(record LuaOutputRecord) {
	w, ok := d.out[record.Source]
	if !ok {
		w = d.out["stdout"]
	}
	if _, err := io.WriteString(w, record.Content); err != nil {
		d.logger.WithFields(logrus.Fields{"source": record.Source, "error": err}).Warn("Output drainer: write failed")
	}
}

// drain writes what is pending until the channel is empty, closed or the timeout passes.
func (d *OutputDrainer) drain(outputChan <-chan LuaOutputRecord, reason string) {
	timeout := time.After(finalDrainTimeout)
	drained := 0
	defer func() {
		d.logger.WithFields(logrus.Fields{"reason": reason, "drained": drained}).Debug("Output drainer: final drain done")
	}()
	for {
		select {
		case record, ok := <-outputChan:
			if !ok {
				return
			}
			drained++
			d.write(record)
		case <-timeout:
			return
		default:
			return
		}
	}
}

// Cancel stops the drainer after writing pending output.
func (d *OutputDrainer) Cancel() {
	d.cancelOnce.Do(func() { close(d.stop) })
}

// Wait blocks until the drainer has exited.
func (d *OutputDrainer) Wait() {
	d.wg.Wait()
}
