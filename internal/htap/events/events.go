// Package events carries worker completions to the statistics engine.
package events

import (
	"sync"
	"time"
)

type TxType int

const (
	NewOrder TxType = iota
	Payment
	OrderStatus
	Delivery
	StockLevel
)

// NumTxTypes is the number of transaction kinds.
const NumTxTypes = 5

var txTypeNames = [NumTxTypes]string{"new_order", "payment", "order_status", "delivery", "stock_level"}

// TxTypes lists every transaction kind in display order.
var TxTypes = []TxType{NewOrder, Payment, OrderStatus, Delivery, StockLevel}

func (t TxType) String() string {
	if t < 0 || int(t) >= NumTxTypes {
		return "unknown"
	}
	return txTypeNames[t]
}

type TxStatus int

const (
	TxOK TxStatus = iota
	TxError
)

func (s TxStatus) String() string {
	if s == TxOK {
		return "ok"
	}
	return "error"
}

type TxSample struct {
	Type      TxType
	Status    TxStatus
	Runtime   time.Duration
	Timestamp time.Time
}

type OlapStatus int

const (
	Waiting OlapStatus = iota
	Running
	Ignored
	OK
	Error
	Timeout
)

var olapStatusNames = [...]string{"Waiting", "Running", "Ignored", "OK", "Error", "Timeout"}

func (s OlapStatus) String() string {
	if s < 0 || int(s) >= len(olapStatusNames) {
		return "Unknown"
	}
	return olapStatusNames[s]
}

// Terminal reports whether the status ends a query execution.
func (s OlapStatus) Terminal() bool {
	return s == OK || s == Error || s == Timeout
}

// Event is one of TxSamples, OlapEvent or StreamIteration.
type Event interface {
	isEvent()
}

// TxSamples is a batch of completed transactions from one worker.
type TxSamples struct {
	WorkerID int
	Samples  []TxSample
}

type OlapEvent struct {
	StreamID      int
	QueryID       int
	Iteration     int
	Status        OlapStatus
	Runtime       time.Duration
	PlannedRows   int64
	ProcessedRows int64
	Timestamp     time.Time
}

// StreamIteration marks a full pass over a stream's query list.
type StreamIteration struct {
	StreamID  int
	Iteration int
	Runtime   time.Duration
	Timestamp time.Time
}

func (TxSamples) isEvent()       {}
func (OlapEvent) isEvent()       {}
func (StreamIteration) isEvent() {}

// Queue is a multi-producer queue drained by a single consumer. Put never blocks on the consumer.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Put(events ...Event) {
	if len(events) == 0 {
		return
	}
	q.mu.Lock()
	q.events = append(q.events, events...)
	q.mu.Unlock()
}

// Drain removes and returns everything queued so far, in arrival order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	drained := q.events
	q.events = nil
	q.mu.Unlock()
	return drained
}
