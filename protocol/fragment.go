package protocol

import (
	"iter"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Sequence hands out fragment ids.
type Sequence interface {
	Next() int64
}

// AtomicSequence is a monotonically increasing Sequence safe for concurrent
// use. The zero value starts at 1.
type AtomicSequence struct {
	n atomic.Int64
}

// NewAtomicSequence returns a sequence whose first id is start+1.
func NewAtomicSequence(start int64) *AtomicSequence {
	s := &AtomicSequence{}
	s.n.Store(start)
	return s
}

func (s *AtomicSequence) Next() int64 {
	return s.n.Add(1)
}

// DefaultSequence is the process-wide fragment id source shared by every
// connection.
var DefaultSequence Sequence = &AtomicSequence{}

// errEmptyFragment signals a bug in the splitting loop, never bad input.
var errEmptyFragment = errors.New("protocol: fragment flushed without data frames")

// Fragmenter splits oversized messages into fragment messages.
type Fragmenter struct {
	seq Sequence
}

// NewFragmenter returns a Fragmenter drawing ids from seq, or from
// DefaultSequence when seq is nil.
func NewFragmenter(seq Sequence) *Fragmenter {
	if seq == nil {
		seq = DefaultSequence
	}
	return &Fragmenter{seq: seq}
}

// Fragment splits m with the default sequence.
func Fragment(m *Message, maxSize int) iter.Seq[*Message] {
	return NewFragmenter(nil).Fragment(m, maxSize)
}

// Fragment returns a lazy, single-pass sequence of messages carrying m.
//
// When m is shorter than maxSize, or maxSize is not positive, the sequence
// yields m itself. Otherwise every fragment holds a header frame with one
// fragment id followed by shallow clones of consecutive frames of m, at most
// maxSize bytes per fragment unless a single frame is larger. The first fragment carries
// BeginFragment and the last EndFragment. A message that would produce a
// single fragment is yielded unchanged.
func (fr *Fragmenter) Fragment(m *Message, maxSize int) iter.Seq[*Message] {
	return func(yield func(*Message) bool) {
		if maxSize <= 0 || m.Length() < maxSize {
			yield(m)
			return
		}

		id := fr.seq.Next()
		var (
			current *Message
			pending *Message
			size    int
			count   int
		)

		// flush holds back one fragment so the last one can be marked
		// before it is yielded.
		flush := func() bool {
			if current == nil || current.first.next == nil {
				panic(errEmptyFragment)
			}
			if count == 0 {
				current.AddFlags(BeginFragment)
			}
			count++
			prev := pending
			pending, current, size = current, nil, 0
			if prev != nil {
				return yield(prev)
			}
			return true
		}

		for f := m.first; f != nil; f = f.next {
			length := f.Length()
			if current != nil && size+length > maxSize {
				if !flush() {
					return
				}
			}
			if current == nil {
				current = newFragment(id)
				size = current.first.Length()
			}
			current.Append(f.ShallowClone())
			size += length
			if size > maxSize {
				if !flush() {
					return
				}
			}
		}

		if current != nil {
			if !flush() {
				return
			}
		}
		if count <= 1 {
			// A single frame too large to split travels unfragmented.
			yield(m)
			return
		}
		pending.AddFlags(EndFragment)
		yield(pending)
	}
}

func newFragment(id int64) *Message {
	header := NewFrame(make([]byte, FragmentHeaderFrameSize), DefaultFlags)
	WriteFragmentID(header, id)
	return NewMessageWithFrame(header)
}
