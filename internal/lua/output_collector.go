package lua

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hedzr/go-ringbuf/v2/mpmc"
)

// Collector lifecycle states.
const (
	CollectorStateNotRunning uint32 = iota
	CollectorStateRunning
	CollectorStateStopping
)

// MaxBufferSize bounds the collector ring.
const MaxBufferSize uint32 = 1024 * 1024

// CollectorMetrics counts collector traffic.
type CollectorMetrics struct {
	RecordsProcessed   int64
	RecordsOverwritten int64
	ErrorsOccurred     int64
}

// LuaOutputCollector buffers script output in an overlapping ring for consumers that read
// after the fact, such as the buffered `run` mode and tests. When the ring is full the
// oldest record is overwritten.
type LuaOutputCollector struct {
	outputChan <-chan LuaOutputRecord
	buffer     mpmc.RichOverlappedRingBuffer[LuaOutputRecord]
	onError    func(error)

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}

	state       atomic.Uint32
	processed   atomic.Int64
	overwritten atomic.Int64
	errorsSeen  atomic.Int64
}

// NewLuaOutputCollector creates a collector over ch. onError receives buffer failures; nil
// logs nothing and keeps collecting.
func NewLuaOutputCollector(ch <-chan LuaOutputRecord, bufferSize uint32, onError func(error)) (*LuaOutputCollector, error) {
	switch {
	case ch == nil:
		return nil, errors.New("output channel cannot be nil")
	case bufferSize == 0:
		return nil, errors.New("buffer size must be > 0")
	case bufferSize > MaxBufferSize:
		return nil, fmt.Errorf("buffer size %d exceeds maximum %d", bufferSize, MaxBufferSize)
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &LuaOutputCollector{
		outputChan: ch,
		buffer:     mpmc.NewOverlappedRingBuffer[LuaOutputRecord](bufferSize),
		onError:    onError,
	}, nil
}

// Start begins collecting in the background.
func (c *LuaOutputCollector) Start() error {
	if !c.state.CompareAndSwap(CollectorStateNotRunning, CollectorStateRunning) {
		return fmt.Errorf("collector is not idle (state %d)", c.state.Load())
	}

	c.mu.Lock()
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	stop, done := c.stop, c.done
	c.mu.Unlock()

	go func() {
		defer func() {
			c.state.Store(CollectorStateNotRunning)
			close(done)
		}()
		for {
			select {
			case <-stop:
				c.drainPending()
				return
			case rec, ok := <-c.outputChan:
				if !ok {
					return
				}
				c.enqueue(rec)
			}
		}
	}()
	return nil
}

func (c *LuaOutputCollector) enqueue(rec LuaOutputRecord) {
	overwrites, err := c.buffer.EnqueueM(rec)
	if err != nil {
		c.errorsSeen.Add(1)
		c.onError(fmt.Errorf("output buffer enqueue: %w", err))
		return
	}
	c.overwritten.Add(int64(overwrites))
	c.processed.Add(1)
}

func (c *LuaOutputCollector) drainPending() {
	for {
		select {
		case rec, ok := <-c.outputChan:
			if !ok {
				return
			}
			c.enqueue(rec)
		default:
			return
		}
	}
}

// Stop collects what is already pending and stops. Stopping an idle collector is a no-op.
func (c *LuaOutputCollector) Stop() error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.mu.Unlock()

	if c.state.CompareAndSwap(CollectorStateRunning, CollectorStateStopping) {
		close(stop)
	}
	if done != nil {
		<-done
	}
	return nil
}

// GetState returns one of the CollectorState constants.
func (c *LuaOutputCollector) GetState() uint32 {
	return c.state.Load()
}

// GetMetrics returns a snapshot of the counters.
func (c *LuaOutputCollector) GetMetrics() CollectorMetrics {
	return CollectorMetrics{
		RecordsProcessed:   c.processed.Load(),
		RecordsOverwritten: c.overwritten.Load(),
		ErrorsOccurred:     c.errorsSeen.Load(),
	}
}

// ConsumerFunc receives each buffered record in order, then nil once the buffer is
// empty. Returning a non-nil result for a record stops early.
type ConsumerFunc[T any] func(record *LuaOutputRecord) (*T, error)

// ConsumeRecords drains the buffer through consumer.
func ConsumeRecords[T any](c *LuaOutputCollector, consumer ConsumerFunc[T]) (*T, error) {
	for !c.buffer.IsEmpty() {
		rec, err := c.buffer.Dequeue()
		if err != nil {
			return nil, fmt.Errorf("output buffer dequeue: %w", err)
		}
		result, err := consumer(&rec)
		if err != nil || result != nil {
			return result, err
		}
	}
	return consumer(nil)
}

// PlainText concatenates the content of every record, stdout and stderr alike.
func PlainText() ConsumerFunc[string] {
	var sb strings.Builder
	return func(record *LuaOutputRecord) (*string, error) {
		if record == nil {
			s := sb.String()
			return &s, nil
		}
		sb.WriteString(record.Content)
		return nil, nil
	}
}

// SplitStreams separates stdout and stderr content.
func SplitStreams() ConsumerFunc[[2]string] {
	var out, errOut strings.Builder
	return func(record *LuaOutputRecord) (*[2]string, error) {
		if record == nil {
			return &[2]string{out.String(), errOut.String()}, nil
		}
		if record.Source == "stderr" {
			errOut.WriteString(record.Content)
		} else {
			out.WriteString(record.Content)
		}
		return nil, nil
	}
}

// ConsumePlainText drains the buffer into one string.
func (c *LuaOutputCollector) ConsumePlainText() (string, error) {
	s, err := ConsumeRecords(c, PlainText())
	if err != nil || s == nil {
		return "", err
	}
	return *s, nil
}
