package lua

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type LuaOutputCollectorTestSuite struct {
	suite.Suite
}

func record(source, content string) LuaOutputRecord {
	return LuaOutputRecord{Content: content, Timestamp: time.Now(), Source: source}
}

func (suite *LuaOutputCollectorTestSuite) TestNewLuaOutputCollector() {
	// GOAL: Verify constructor validation
	//
	// TEST SCENARIO: nil channel, zero and oversized buffers → error; valid params → collector

	ch := make(chan LuaOutputRecord)

	_, err := NewLuaOutputCollector(nil, 10, nil)
	suite.Error(err, "nil channel MUST be rejected")
	_, err = NewLuaOutputCollector(ch, 0, nil)
	suite.Error(err, "zero buffer MUST be rejected")
	_, err = NewLuaOutputCollector(ch, MaxBufferSize+1, nil)
	suite.Error(err, "oversized buffer MUST be rejected")

	c, err := NewLuaOutputCollector(ch, 100, nil)
	suite.Require().NoError(err, "valid params MUST be accepted")
	suite.GreaterOrEqual(c.buffer.Cap(), uint32(100), "ring MUST hold at least the requested size")
	suite.Equal(CollectorStateNotRunning, c.GetState(), "new collector MUST be idle")
}

func (suite *LuaOutputCollectorTestSuite) TestLifecycle() {
	// GOAL: Verify start/stop transitions, restart and duplicate start
	//
	// TEST SCENARIO: Start → running → second Start fails → Stop → idle → Start again → Stop

	ch := make(chan LuaOutputRecord, 10)
	c, err := NewLuaOutputCollector(ch, 100, nil)
	suite.Require().NoError(err)

	suite.NoError(c.Stop(), "stopping an idle collector MUST be a no-op")

	suite.Require().NoError(c.Start(), "Start MUST succeed")
	suite.Equal(CollectorStateRunning, c.GetState(), "collector MUST be running")
	suite.Error(c.Start(), "second Start MUST fail")

	suite.NoError(c.Stop())
	suite.Equal(CollectorStateNotRunning, c.GetState(), "Stop MUST wait for the goroutine")

	suite.Require().NoError(c.Start(), "restart MUST succeed")
	suite.NoError(c.Stop())
}

func (suite *LuaOutputCollectorTestSuite) TestStopCollectsPending() {
	// GOAL: Verify records already queued on the channel survive Stop
	//
	// TEST SCENARIO: queue records → Start → Stop immediately → all records consumed in order

	ch := make(chan LuaOutputRecord, 10)
	c, err := NewLuaOutputCollector(ch, 100, nil)
	suite.Require().NoError(err)

	for i := 0; i < 5; i++ {
		ch <- record("stdout", fmt.Sprintf("line %d\n", i))
	}
	suite.Require().NoError(c.Start())
	suite.Require().NoError(c.Stop())

	got, err := c.ConsumePlainText()
	suite.NoError(err)
	suite.Equal("line 0\nline 1\nline 2\nline 3\nline 4\n", got, "every pending record MUST be collected in order")
	suite.Equal(int64(5), c.GetMetrics().RecordsProcessed, "metrics MUST count every record")
}

func (suite *LuaOutputCollectorTestSuite) TestChannelClose() {
	// GOAL: Verify the collector exits when the producer closes the channel

	ch := make(chan LuaOutputRecord, 10)
	c, err := NewLuaOutputCollector(ch, 100, nil)
	suite.Require().NoError(err)
	suite.Require().NoError(c.Start())

	ch <- record("stdout", "a")
	close(ch)

	suite.Eventually(func() bool { return c.GetState() == CollectorStateNotRunning },
		time.Second, time.Millisecond, "collector MUST stop on channel close")
	suite.NoError(c.Stop())

	got, err := c.ConsumePlainText()
	suite.NoError(err)
	suite.Equal("a", got)
}

func (suite *LuaOutputCollectorTestSuite) TestOverflowKeepsNewest() {
	// GOAL: Verify a full ring overwrites the oldest records
	//
	// TEST SCENARIO: 4-slot ring, 20 records → only the newest survive, overwrites are counted

	ch := make(chan LuaOutputRecord, 32)
	c, err := NewLuaOutputCollector(ch, 4, nil)
	suite.Require().NoError(err)

	for i := 0; i < 20; i++ {
		ch <- record("stdout", fmt.Sprintf("%d,", i))
	}
	suite.Require().NoError(c.Start())
	suite.Require().NoError(c.Stop())

	got, err := c.ConsumePlainText()
	suite.NoError(err)
	suite.Contains(got, "19,", "newest record MUST survive")
	suite.NotContains(got, "0,1,", "oldest records MUST be overwritten")
	suite.Positive(c.GetMetrics().RecordsOverwritten, "overwrites MUST be counted")
}

func (suite *LuaOutputCollectorTestSuite) TestConsumers() {
	// GOAL: Verify the consumer protocol and the stream splitter
	//
	// TEST SCENARIO: mixed stdout/stderr → SplitStreams separates them; a consumer stopping early gets its result

	ch := make(chan LuaOutputRecord, 10)
	c, err := NewLuaOutputCollector(ch, 100, nil)
	suite.Require().NoError(err)

	ch <- record("stdout", "out1\n")
	ch <- record("stderr", "err1\n")
	ch <- record("stdout", "out2\n")
	suite.Require().NoError(c.Start())
	suite.Require().NoError(c.Stop())

	first, err := ConsumeRecords(c, func(r *LuaOutputRecord) (*string, error) {
		if r == nil {
			return nil, nil
		}
		return &r.Content, nil
	})
	suite.Require().NoError(err)
	suite.Equal("out1\n", *first, "early stop MUST return the first result")

	streams, err := ConsumeRecords(c, SplitStreams())
	suite.Require().NoError(err)
	suite.Equal([2]string{"out2\n", "err1\n"}, *streams, "remaining records MUST be split by source")

	empty, err := c.ConsumePlainText()
	suite.NoError(err)
	suite.Empty(empty, "drained collector MUST yield nothing")
}

func (suite *LuaOutputCollectorTestSuite) TestConcurrentProducers() {
	// GOAL: Verify concurrent producers lose nothing while the ring has room

	ch := make(chan LuaOutputRecord, 8)
	c, err := NewLuaOutputCollector(ch, 1024, nil)
	suite.Require().NoError(err)
	suite.Require().NoError(c.Start())

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				ch <- record("stdout", "x")
			}
		}()
	}
	wg.Wait()
	suite.Require().NoError(c.Stop())

	got, err := c.ConsumePlainText()
	suite.NoError(err)
	suite.Len(got, 200, "every record MUST be collected")
}

func TestLuaOutputCollectorTestSuite(t *testing.T) {
	suite.Run(t, new(LuaOutputCollectorTestSuite))
}
