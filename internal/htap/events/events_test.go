package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_DrainPreservesOrder(t *testing.T) {
	q := NewQueue()
	q.Put(OlapEvent{QueryID: 1}, OlapEvent{QueryID: 2})
	q.Put(StreamIteration{StreamID: 3})
	q.Put()

	assert.Equal(t, []Event{OlapEvent{QueryID: 1}, OlapEvent{QueryID: 2}, StreamIteration{StreamID: 3}}, q.Drain())
	assert.Empty(t, q.Drain())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 1000
	q := NewQueue()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Put(TxSamples{WorkerID: p, Samples: []TxSample{{Type: NewOrder}}})
			}
		}(p)
	}

	received := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for finished := false; !finished; {
		select {
		case <-done:
			finished = true
		default:
		}
		received += len(q.Drain())
	}
	received += len(q.Drain())
	require.Equal(t, producers*perProducer, received)
}

func TestOlapStatus_Terminal(t *testing.T) {
	for _, s := range []OlapStatus{OK, Error, Timeout} {
		assert.True(t, s.Terminal(), s.String())
	}
	for _, s := range []OlapStatus{Waiting, Running, Ignored} {
		assert.False(t, s.Terminal(), s.String())
	}
}

func TestTxType_String(t *testing.T) {
	assert.Equal(t, "new_order", NewOrder.String())
	assert.Equal(t, "stock_level", StockLevel.String())
	assert.Equal(t, "unknown", TxType(9).String())
}
