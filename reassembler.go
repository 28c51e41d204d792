package gridwire

import (
	"github.com/Zereker/gridwire/protocol"
)

// reassembler joins fragments back into the messages they were cut from.
//
// The pending map is owned by the read loop of one connection and is never
// touched from another goroutine, so it takes no lock. Duplicate begins and
// continuations for unknown fragment ids are dropped without an error.
type reassembler struct {
	pending map[int64]*protocol.Message
	logger  Logger
	metrics Metrics
}

func newReassembler(logger Logger, metrics Metrics) *reassembler {
	return &reassembler{
		pending: make(map[int64]*protocol.Message),
		logger:  logger,
		metrics: metrics,
	}
}

// Add takes one wire message from the frame decoder and calls dispatch
// once it, or the message it completes, is whole.
func (r *reassembler) Add(msg *protocol.Message, dispatch func(*protocol.Message)) {
	head := msg.FirstFrame()
	flags := head.Flags
	if flags.Has(protocol.Unfragmented) {
		if len(head.Content) < protocol.ResponseInitialFrameSize {
			r.drop("initial frame too short", 0)
			return
		}
		dispatch(msg)
		return
	}

	if len(head.Content) < protocol.FragmentHeaderFrameSize {
		r.drop("fragment header too short", 0)
		return
	}
	id := msg.FragmentID()
	first, last := head.Next(), msg.LastFrame()
	if first == nil {
		r.drop("fragment without data frames", id)
		return
	}

	switch {
	case flags.Has(protocol.BeginFragment):
		if _, ok := r.pending[id]; ok {
			r.drop("duplicate begin fragment", id)
			return
		}
		// The first data frame becomes the initial frame of the whole message.
		if len(first.Content) < protocol.ResponseInitialFrameSize {
			r.drop("initial frame too short", id)
			return
		}
		whole, err := protocol.NewMessageFromChain(first, last, true)
		if err != nil {
			r.drop(err.Error(), id)
			return
		}
		r.pending[id] = whole

	case flags.Has(protocol.EndFragment):
		whole, ok := r.pending[id]
		if !ok {
			r.drop("end fragment for unknown id", id)
			return
		}
		delete(r.pending, id)
		if err := whole.AppendFragment(first, last, true); err != nil {
			r.drop(err.Error(), id)
			return
		}
		dispatch(whole)

	default:
		whole, ok := r.pending[id]
		if !ok {
			r.drop("fragment for unknown id", id)
			return
		}
		if err := whole.AppendFragment(first, last, true); err != nil {
			r.drop(err.Error(), id)
		}
	}
}

// Pending returns the number of partially received messages.
func (r *reassembler) Pending() int {
	return len(r.pending)
}

func (r *reassembler) drop(reason string, id int64) {
	r.logger.Debug("fragment dropped", "reason", reason, "fragment_id", id)
	r.metrics.IncrementFragmentsDropped()
}
