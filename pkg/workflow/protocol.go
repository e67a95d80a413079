package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cuemby/russula/pkg/log"
)

// drainReadTimeout bounds a single attempt to read a buffered peer message
// within one engine tick. A timeout is reported as NetworkBlocked, the
// transient condition the original's non-blocking socket read produces;
// here it is produced by a short read deadline instead, since instances in
// a Workflow aggregate are polled sequentially within one tick rather than
// each getting its own concurrently scheduled task.
const drainReadTimeout = 50 * time.Millisecond

// writeTimeout bounds NotifyPeer sends so a stuck peer cannot block a tick
// indefinitely.
const writeTimeout = 5 * time.Second

// notifyDoneTimeout is the sleep between the three best-effort Done
// notifications.
const notifyDoneTimeout = 1 * time.Second

// Protocol is implemented once per role (ServerCoord, ServerWorker,
// ClientCoord, ClientWorker). Run is the only method with role-specific
// action logic: it dispatches on the current state, matching the
// original's per-role `run()` match arms.
type Protocol interface {
	// Name identifies this instance in logs, e.g. "server-w-0".
	Name() string

	// PairPeer establishes the instance's connection to addr: a Coordinator
	// dials out, a Worker binds and accepts its one inbound connection
	// (addr names the bind address in that case).
	PairPeer(ctx context.Context, addr string) (net.Conn, error)

	UpdatePeerState(msg Msg) error

	State() State
	SetState(State)

	ReadyState() State
	DoneState() State
	WorkerRunningState() State

	EventRecorder() *EventRecorder

	// Run executes the action for the current state against conn. It may
	// consume a message from the peer (e.g. inside an AwaitNext loop); if
	// so, it returns the last such message for UpdatePeerState.
	Run(ctx context.Context, conn net.Conn) (*Msg, error)
}

// NotifyPeer sends the protocol's current state to its peer.
func NotifyPeer(p Protocol, conn net.Conn) error {
	msg, err := NewMsg(p.State().Bytes())
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := SendMsg(conn, msg); err != nil {
		return err
	}
	p.EventRecorder().Process(EventSendMsg)
	return nil
}

// MatchesTransitionMsg reports whether msg is the peer state this protocol's
// current AwaitNext step is waiting for.
func MatchesTransitionMsg(s State, msg Msg) bool {
	step := s.TransitionStep()
	if step.Kind != StepAwaitNext {
		return false
	}
	return bytes.Equal(step.Expected, msg.Data)
}

// TransitionNext advances to NextState() and notifies the peer.
func TransitionNext(p Protocol, conn net.Conn) error {
	next := p.State().NextState()
	log.WithComponent("workflow").Debug().
		Str("name", p.Name()).
		Str("from", p.State().String()).
		Str("to", next.String()).
		Msg("transitioning to next state")
	p.SetState(next)
	return NotifyPeer(p, conn)
}

// TransitionSelfOrUserDriven advances a SelfDriven or UserDriven state.
func TransitionSelfOrUserDriven(p Protocol, conn net.Conn) error {
	step := p.State().TransitionStep()
	if step.Kind != StepSelfDriven && step.Kind != StepUserDriven {
		return fmt.Errorf("workflow: %s: transitionSelfOrUserDriven called on %v state", p.Name(), step.Kind)
	}
	return TransitionNext(p, conn)
}

// AwaitNextMsg drains currently-available peer messages, transitioning as
// soon as one matches the expected AwaitNext bytes. It returns after one
// NetworkBlocked (no more data buffered right now) or after a transition,
// matching one engine tick's worth of work.
func AwaitNextMsg(p Protocol, conn net.Conn) (*Msg, error) {
	step := p.State().TransitionStep()
	if step.Kind != StepAwaitNext {
		return nil, fmt.Errorf("workflow: %s: expected AwaitNext, found %v", p.Name(), step.Kind)
	}

	var last *Msg
	for {
		_ = conn.SetReadDeadline(time.Now().Add(drainReadTimeout))
		msg, err := RecvMsg(conn)
		if err != nil {
			var werr *Error
			if errors.As(err, &werr) && werr.Kind == NetworkBlocked {
				if nerr := NotifyPeer(p, conn); nerr != nil {
					return last, nerr
				}
				return last, nil
			}
			return last, err
		}

		p.EventRecorder().Process(EventRecvMsg)
		m := msg
		last = &m

		if MatchesTransitionMsg(p.State(), msg) {
			if err := TransitionNext(p, conn); err != nil {
				return last, err
			}
			break
		}
	}
	return last, nil
}

// RunCurrent runs the action for the current state and folds any consumed
// peer message into the protocol's peer-state view.
func RunCurrent(ctx context.Context, p Protocol, conn net.Conn) error {
	msg, err := p.Run(ctx, conn)
	if err != nil {
		return err
	}
	if msg != nil {
		return p.UpdatePeerState(*msg)
	}
	return nil
}

// IsDoneState reports whether p's current state is terminal (Finished).
func IsDoneState(p Protocol) bool {
	return p.State().TransitionStep().Kind == StepFinished
}

// ignorableDoneNotifyError reports whether err should be swallowed while
// best-effort-notifying a peer that this instance has reached Done — the
// peer may have already closed its side of the connection.
func ignorableDoneNotifyError(err error) bool {
	var werr *Error
	if !errors.As(err, &werr) {
		return false
	}
	switch werr.Kind {
	case NetworkConnectionRefused, NetworkBlocked, NetworkFail:
		return true
	default:
		return false
	}
}

// PollState runs the current state's action if not already at target, then
// — if this instance has reached its Done state — best-effort notifies the
// peer three times (ignoring network errors, since the peer may have
// already torn down its side), and finally reports whether target has been
// reached.
func PollState(ctx context.Context, p Protocol, conn net.Conn, target State) (bool, error) {
	if !Equal(p.State(), target) {
		if err := RunCurrent(ctx, p, conn); err != nil {
			return false, err
		}
	}

	if IsDoneState(p) {
		log.WithComponent("workflow").Info().Str("name", p.Name()).Str("events", p.EventRecorder().String()).Msg("reached Done")
		for i := 0; i < 3; i++ {
			if err := RunCurrent(ctx, p, conn); err != nil && !ignorableDoneNotifyError(err) {
				return false, err
			}
			select {
			case <-time.After(notifyDoneTimeout):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
	}

	return Equal(p.State(), target), nil
}
