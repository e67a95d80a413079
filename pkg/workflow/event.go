package workflow

import "fmt"

// EventType enumerates the two countable events a Protocol instance emits.
type EventType int

const (
	EventSendMsg EventType = iota
	EventRecvMsg
)

// EventRecorder accumulates send/recv counters for one workflow instance,
// surfaced to pkg/metrics via the Workflow.EventCounts aggregate.
type EventRecorder struct {
	sendMsg uint64
	recvMsg uint64
}

// Process records one occurrence of event.
func (r *EventRecorder) Process(event EventType) {
	switch event {
	case EventSendMsg:
		r.sendMsg++
	case EventRecvMsg:
		r.recvMsg++
	}
}

// Counts returns the cumulative send/recv counts.
func (r *EventRecorder) Counts() (sent, recv uint64) {
	return r.sendMsg, r.recvMsg
}

func (r *EventRecorder) String() string {
	return fmt.Sprintf("send_cnt: %d, recv_cnt: %d", r.sendMsg, r.recvMsg)
}
