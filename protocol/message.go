// Package protocol implements the framing core of the grid client protocol.
//
// A Message is a singly-linked chain of Frames. Each frame is sent as a
// 4-byte total length and a 2-byte flag set followed by its content. The
// first frame of a message carries the message type, correlation id and
// partition id at fixed offsets. The last frame always carries Final.
//
// Codecs append frames to a Message under construction and consume them
// again through a FrameIterator, in exactly the same order.
package protocol

import (
	"io"
	"iter"

	"github.com/pkg/errors"
)

// Message is a request, response or event built from a chain of frames.
// A Message is not safe for concurrent mutation.
type Message struct {
	first *Frame
	last  *Frame

	// Retryable marks a request that may be sent again after a connection
	// failure.
	Retryable bool
	// OperationName is used for diagnostics only.
	OperationName string
}

// NewMessage returns a message without frames.
func NewMessage() *Message {
	return &Message{}
}

// NewMessageWithFrame returns a message whose only frame is seed.
func NewMessageWithFrame(seed *Frame) *Message {
	m := &Message{}
	m.Append(seed)
	return m
}

// NewMessageFromChain returns a message over the existing chain first..last
// without copying it. Reachability of last is checked as in AppendFragment.
func NewMessageFromChain(first, last *Frame, trustable bool) (*Message, error) {
	if first == nil || last == nil {
		return nil, errors.Wrap(ErrBrokenChain, "nil chain end")
	}
	if !trustable && tailOf(first) != last {
		return nil, ErrBrokenChain
	}
	last.Flags = last.Flags.With(Final)
	return &Message{first: first, last: last}, nil
}

// FirstFrame returns the head of the chain, or nil.
func (m *Message) FirstFrame() *Frame { return m.first }

// LastFrame returns the tail of the chain, or nil.
func (m *Message) LastFrame() *Frame { return m.last }

// Append links f at the tail. Any chain that followed f is detached. After
// Append, f is the only frame of the message that carries Final.
func (m *Message) Append(f *Frame) *Message {
	f.next = nil
	if m.first == nil {
		m.first = f
	} else {
		m.last.Flags = m.last.Flags.Without(Final)
		m.last.next = f
	}
	f.Flags = f.Flags.With(Final)
	m.last = f
	return m
}

// AppendFragment links the chain first..last at the tail in one step.
//
// With trustable set the caller guarantees that last is reachable from first
// and already carries Final. Otherwise the chain is walked and ErrBrokenChain
// is returned, without touching m, if last is not its tail.
func (m *Message) AppendFragment(first, last *Frame, trustable bool) error {
	if m.first == nil {
		return ErrEmptyMessage
	}
	if first == nil || last == nil {
		return errors.Wrap(ErrBrokenChain, "nil fragment end")
	}
	if !trustable {
		if tailOf(first) != last {
			return ErrBrokenChain
		}
		last.Flags = last.Flags.With(Final)
	}

	m.last.Flags = m.last.Flags.Without(Final)
	m.last.next = first
	m.last = last
	return nil
}

func tailOf(f *Frame) *Frame {
	for f.next != nil {
		f = f.next
	}
	return f
}

func (m *Message) mustFirst() *Frame {
	if m.first == nil {
		panic(ErrNoFirstFrame)
	}
	return m.first
}

// MessageType returns the message type. Type 0 denotes an exception.
func (m *Message) MessageType() int32 { return ReadMessageType(m.mustFirst()) }

// SetMessageType stores the message type.
func (m *Message) SetMessageType(v int32) { WriteMessageType(m.mustFirst(), v) }

// CorrelationID returns the id that pairs a response with its request.
func (m *Message) CorrelationID() int64 { return ReadCorrelationID(m.mustFirst()) }

// SetCorrelationID stores the correlation id.
func (m *Message) SetCorrelationID(v int64) { WriteCorrelationID(m.mustFirst(), v) }

// PartitionID returns the target partition, -1 for any.
func (m *Message) PartitionID() int32 { return ReadPartitionID(m.mustFirst()) }

// SetPartitionID stores the target partition.
func (m *Message) SetPartitionID(v int32) { WritePartitionID(m.mustFirst(), v) }

// FragmentID returns the fragment id of a fragment message.
func (m *Message) FragmentID() int64 { return ReadFragmentID(m.mustFirst()) }

// SetFragmentID stores the fragment id of a fragment message.
func (m *Message) SetFragmentID(v int64) { WriteFragmentID(m.mustFirst(), v) }

// Flags returns the flags of the first frame.
func (m *Message) Flags() Flags { return m.mustFirst().Flags }

// AddFlags sets bits on the first frame.
func (m *Message) AddFlags(mask Flags) {
	f := m.mustFirst()
	f.Flags = f.Flags.With(mask)
}

func (m *Message) IsEvent() bool        { return m.Flags().Has(Event) }
func (m *Message) IsBackupAware() bool  { return m.Flags().Has(BackupAware) }
func (m *Message) IsBackupEvent() bool  { return m.Flags().Has(BackupEvent) }
func (m *Message) IsUnfragmented() bool { return m.Flags().Has(Unfragmented) }
func (m *Message) IsException() bool    { return m.MessageType() == 0 }

// Length is the number of bytes the message occupies on the wire.
func (m *Message) Length() int {
	n := 0
	for f := m.first; f != nil; f = f.next {
		n += f.Length()
	}
	return n
}

// FrameCount returns the number of frames in the chain.
func (m *Message) FrameCount() int {
	n := 0
	for f := m.first; f != nil; f = f.next {
		n++
	}
	return n
}

// Frames returns a fresh cursor positioned before the first frame.
func (m *Message) Frames() *FrameIterator {
	return &FrameIterator{msg: m}
}

// All yields the frames in chain order.
func (m *Message) All() iter.Seq[*Frame] {
	return func(yield func(*Frame) bool) {
		for f := m.first; f != nil; f = f.next {
			if !yield(f) {
				return
			}
		}
	}
}

// Copy returns a message with its own first frame and shallow clones of the
// other frames.
func (m *Message) Copy() *Message {
	c := &Message{Retryable: m.Retryable, OperationName: m.OperationName}
	for f := m.first; f != nil; f = f.next {
		if f == m.first {
			c.Append(f.DeepClone())
			continue
		}
		c.Append(f.ShallowClone())
	}
	return c
}

// CopyWithNewCorrelationID returns a copy of m whose correlation id is id.
// m itself is not modified.
func (m *Message) CopyWithNewCorrelationID(id int64) *Message {
	m.mustFirst()
	c := m.Copy()
	c.SetCorrelationID(id)
	return c
}

// WriteTo writes every frame as a length and flags header followed by its
// content. It stops at the first failed write; frames after it are not sent.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	var (
		total int64
		hdr   [SizeOfFrameLengthAndFlags]byte
	)
	for f := m.first; f != nil; f = f.next {
		f.WriteLengthAndFlags(hdr[:])
		n, err := w.Write(hdr[:])
		total += int64(n)
		if err != nil {
			return total, errors.Wrap(err, "write frame header")
		}
		if len(f.Content) == 0 {
			continue
		}
		n, err = w.Write(f.Content)
		total += int64(n)
		if err != nil {
			return total, errors.Wrap(err, "write frame content")
		}
	}
	return total, nil
}
