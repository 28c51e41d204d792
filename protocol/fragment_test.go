package protocol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSequence int64

func (s fixedSequence) Next() int64 { return int64(s) }

func messageOf(contentSizes ...int) *Message {
	m := NewMessage()
	for i, n := range contentSizes {
		content := make([]byte, n)
		for j := range content {
			content[j] = byte(i*31 + j)
		}
		flags := DefaultFlags
		if i == 0 {
			flags = Unfragmented
		}
		m.Append(NewFrame(content, flags))
	}
	return m
}

func collect(fr *Fragmenter, m *Message, maxSize int) []*Message {
	var out []*Message
	for f := range fr.Fragment(m, maxSize) {
		out = append(out, f)
	}
	return out
}

func dataFrames(fragment *Message) []*Frame {
	var out []*Frame
	for f := fragment.FirstFrame().Next(); f != nil; f = f.Next() {
		out = append(out, f)
	}
	return out
}

func TestFragment_SmallMessageIsNotCopied(t *testing.T) {
	m := messageOf(10, 20)
	out := collect(NewFragmenter(fixedSequence(1)), m, m.Length()+1)
	require.Len(t, out, 1)
	assert.Same(t, m, out[0])
}

func TestFragment_DisabledWithoutPositiveMaxSize(t *testing.T) {
	m := messageOf(10, 20)
	out := collect(NewFragmenter(fixedSequence(1)), m, 0)
	require.Len(t, out, 1)
	assert.Same(t, m, out[0])
}

func TestFragment_SplitsThousandBytes(t *testing.T) {
	sizes := make([]int, 10)
	for i := range sizes {
		sizes[i] = 94
	}
	m := messageOf(sizes...)
	require.Equal(t, 1000, m.Length())

	out := collect(NewFragmenter(fixedSequence(42)), m, 300)
	require.Len(t, out, 5)

	var payload []byte
	for i, fragment := range out {
		assert.LessOrEqual(t, fragment.Length(), 300)
		assert.Equal(t, int64(42), fragment.FragmentID())
		assertSingleFinal(t, fragment)

		flags := fragment.Flags()
		assert.Equal(t, i == 0, flags.Has(BeginFragment), "fragment %d begin flag", i)
		assert.Equal(t, i == len(out)-1, flags.Has(EndFragment), "fragment %d end flag", i)

		for _, f := range dataFrames(fragment) {
			payload = append(payload, f.Content...)
		}
	}

	var want []byte
	for f := range m.All() {
		want = append(want, f.Content...)
	}
	assert.Equal(t, want, payload)
}

func TestFragment_SharesContentWithoutMutatingSource(t *testing.T) {
	m := messageOf(100, 100, 100)
	before := make([]Flags, 0, 3)
	for f := range m.All() {
		before = append(before, f.Flags)
	}

	out := collect(NewFragmenter(fixedSequence(3)), m, 150)
	require.Len(t, out, 3)

	src := frames(m)
	for i, fragment := range out {
		data := dataFrames(fragment)
		require.Len(t, data, 1)
		assert.NotSame(t, src[i], data[0])
		assert.Same(t, &src[i].Content[0], &data[0].Content[0])
		assert.True(t, data[0].IsFinal())
	}

	for i, f := range frames(m) {
		assert.Equal(t, before[i], f.Flags)
	}
}

func TestFragment_OversizedFrameGetsOwnFragment(t *testing.T) {
	m := messageOf(50, 500, 50)
	out := collect(NewFragmenter(fixedSequence(9)), m, 200)
	require.Len(t, out, 3)

	assert.Len(t, dataFrames(out[0]), 1)
	assert.Len(t, dataFrames(out[1]), 1)
	assert.Len(t, dataFrames(out[1])[0].Content, 500)
	assert.Len(t, dataFrames(out[2]), 1)
}

func TestFragment_SingleOversizedFrameTravelsWhole(t *testing.T) {
	m := messageOf(500)
	out := collect(NewFragmenter(fixedSequence(9)), m, 100)
	require.Len(t, out, 1)
	assert.Same(t, m, out[0])
}

func TestFragment_TinyMaxSizeYieldsOneFramePerFragment(t *testing.T) {
	m := messageOf(3, 0, 5, 1)
	out := collect(NewFragmenter(fixedSequence(5)), m, 1)
	require.Len(t, out, 4)
	for _, fragment := range out {
		assert.Len(t, dataFrames(fragment), 1)
	}
}

func TestFragment_StopsWhenConsumerStops(t *testing.T) {
	m := messageOf(100, 100, 100, 100)
	n := 0
	for range NewFragmenter(fixedSequence(1)).Fragment(m, 150) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestFragment_UsesOneIDPerMessage(t *testing.T) {
	seq := NewAtomicSequence(100)
	fr := NewFragmenter(seq)

	first := collect(fr, messageOf(100, 100), 120)
	second := collect(fr, messageOf(100, 100), 120)

	for _, f := range first {
		assert.Equal(t, int64(101), f.FragmentID())
	}
	for _, f := range second {
		assert.Equal(t, int64(102), f.FragmentID())
	}
}

func TestAtomicSequence_ConcurrentNextIsUnique(t *testing.T) {
	seq := &AtomicSequence{}
	const workers, perWorker = 8, 1000

	var (
		mu   sync.Mutex
		seen = make(map[int64]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, seq.Next())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}
