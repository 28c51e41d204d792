package protocol

// FrameIterator is a forward-only cursor over the frames of a message.
//
// It starts before the first frame. MoveNext and Current follow the usual
// enumerator contract; Take, Peek and the struct helpers start the cursor
// on first use. Decoders share one iterator and depend on its position, so
// it is passed by pointer through the whole decode call chain.
type FrameIterator struct {
	msg     *Message
	current *Frame
	started bool
}

// NewFrameIterator returns a cursor over the frames of m.
func NewFrameIterator(m *Message) *FrameIterator {
	return m.Frames()
}

// MoveNext advances to the next frame and reports whether there is one.
func (it *FrameIterator) MoveNext() bool {
	if !it.started {
		it.started = true
		it.current = it.msg.first
	} else if it.current != nil {
		it.current = it.current.next
	}
	return it.current != nil
}

// Current returns the frame under the cursor, nil before the first MoveNext
// or past the end.
func (it *FrameIterator) Current() *Frame {
	return it.current
}

// Reset rewinds the cursor to its unstarted state.
func (it *FrameIterator) Reset() {
	it.started = false
	it.current = nil
}

// Peek returns the next unconsumed frame without consuming it.
func (it *FrameIterator) Peek() *Frame {
	if !it.started {
		it.MoveNext()
	}
	return it.current
}

// HasNext reports whether an unconsumed frame remains.
func (it *FrameIterator) HasNext() bool {
	return it.Peek() != nil
}

// Take returns the next unconsumed frame and advances past it. It returns
// nil at the end of the chain.
func (it *FrameIterator) Take() *Frame {
	f := it.Peek()
	if f != nil {
		it.MoveNext()
	}
	return f
}

// TakeFrame is Take for decoders: running out of frames is ErrUnexpectedEnd.
func (it *FrameIterator) TakeFrame() (*Frame, error) {
	f := it.Take()
	if f == nil {
		return nil, ErrUnexpectedEnd
	}
	return f, nil
}

// SkipNull consumes the next frame if it is a null marker and reports
// whether it did.
func (it *FrameIterator) SkipNull() bool {
	f := it.Peek()
	if f == nil || !f.IsNull() {
		return false
	}
	it.MoveNext()
	return true
}

// AtStructEnd reports whether the next unconsumed frame closes a structure.
func (it *FrameIterator) AtStructEnd() bool {
	f := it.Peek()
	return f != nil && f.IsEndStruct()
}

// SkipToStructEnd consumes frames up to and including the EndStruct that
// balances an already consumed BeginStruct. Nested structures are skipped
// whole.
func (it *FrameIterator) SkipToStructEnd() error {
	depth := 1
	for depth > 0 {
		f := it.Take()
		if f == nil {
			return ErrUnexpectedEnd
		}
		if f.IsEndStruct() {
			depth--
		} else if f.IsBeginStruct() {
			depth++
		}
	}
	return nil
}
