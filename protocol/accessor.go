package protocol

// Sizes of fixed-width values in frame content.
const (
	ByteSizeInBytes    = 1
	BooleanSizeInBytes = 1
	ShortSizeInBytes   = 2
	IntSizeInBytes     = 4
	LongSizeInBytes    = 8
	FloatSizeInBytes   = 4
	DoubleSizeInBytes  = 8
	UUIDSizeInBytes    = BooleanSizeInBytes + 2*LongSizeInBytes
)

// Offsets of message-level fields in the first frame of a message.
const (
	TypeFieldOffset               = 0
	CorrelationIDFieldOffset      = TypeFieldOffset + IntSizeInBytes
	PartitionIDFieldOffset        = CorrelationIDFieldOffset + LongSizeInBytes
	ResponseBackupAcksFieldOffset = CorrelationIDFieldOffset + LongSizeInBytes
	FragmentIDFieldOffset         = 0

	RequestInitialFrameSize  = PartitionIDFieldOffset + IntSizeInBytes
	ResponseInitialFrameSize = ResponseBackupAcksFieldOffset + ByteSizeInBytes
	EventInitialFrameSize    = PartitionIDFieldOffset + IntSizeInBytes
	FragmentHeaderFrameSize  = FragmentIDFieldOffset + LongSizeInBytes
)

func mustFrame(f *Frame) *Frame {
	if f == nil {
		panic(ErrNilFrame)
	}
	return f
}

// ReadMessageType reads the message type of a first frame.
func ReadMessageType(f *Frame) int32 {
	return int32(ByteOrder.Uint32(mustFrame(f).Content[TypeFieldOffset:]))
}

// WriteMessageType stores the message type in a first frame.
func WriteMessageType(f *Frame, v int32) {
	ByteOrder.PutUint32(mustFrame(f).Content[TypeFieldOffset:], uint32(v))
}

// ReadCorrelationID reads the correlation id of a first frame.
func ReadCorrelationID(f *Frame) int64 {
	return int64(ByteOrder.Uint64(mustFrame(f).Content[CorrelationIDFieldOffset:]))
}

// WriteCorrelationID stores the correlation id in a first frame.
func WriteCorrelationID(f *Frame, v int64) {
	ByteOrder.PutUint64(mustFrame(f).Content[CorrelationIDFieldOffset:], uint64(v))
}

// ReadPartitionID reads the partition id of a request or event first frame.
func ReadPartitionID(f *Frame) int32 {
	return int32(ByteOrder.Uint32(mustFrame(f).Content[PartitionIDFieldOffset:]))
}

// WritePartitionID stores the partition id in a request or event first frame.
func WritePartitionID(f *Frame, v int32) {
	ByteOrder.PutUint32(mustFrame(f).Content[PartitionIDFieldOffset:], uint32(v))
}

// ReadFragmentID reads the fragment id of a fragment header frame.
func ReadFragmentID(f *Frame) int64 {
	return int64(ByteOrder.Uint64(mustFrame(f).Content[FragmentIDFieldOffset:]))
}

// WriteFragmentID stores the fragment id in a fragment header frame.
func WriteFragmentID(f *Frame, v int64) {
	ByteOrder.PutUint64(mustFrame(f).Content[FragmentIDFieldOffset:], uint64(v))
}

// ReadBackupAcks reads the number of backup acknowledgements a response
// first frame announces.
func ReadBackupAcks(f *Frame) byte {
	return mustFrame(f).Content[ResponseBackupAcksFieldOffset]
}
