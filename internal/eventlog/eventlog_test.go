package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendAndDrain(t *testing.T) {
	w, r := NewWriter()
	w.Append(KindAction, func(e *Entry) { e.Action = "rebuild" })
	drained := r.Drain()
	assert.Len(t, drained, 1)
	assert.Equal(t, "rebuild", drained[0].Action)
}

func TestSequenceMonotonicity(t *testing.T) {
	w, r := NewWriter()
	for i := 0; i < 100; i++ {
		w.Append(KindAction, nil)
	}
	drained := r.Drain()
	assert.Len(t, drained, 100)
	for i, e := range drained {
		assert.Equal(t, uint64(i), e.Seq)
	}
}

func TestHistoryRetained(t *testing.T) {
	w, _ := NewWriter()
	w.Append(KindAction, func(e *Entry) { e.Action = "a" })
	w.Append(KindAction, func(e *Entry) { e.Action = "b" })
	assert.Len(t, w.History(), 2)
}

func TestHistoryTrimming(t *testing.T) {
	w, r := NewWriterWithCapacity(5)
	for i := 0; i < 10; i++ {
		w.Append(KindAction, nil)
	}

	drained := r.Drain()
	assert.Len(t, drained, 10)
	for i, e := range drained {
		assert.Equal(t, uint64(i), e.Seq)
	}

	history := w.History()
	assert.Len(t, history, 5)
	for i, e := range history {
		assert.Equal(t, uint64(5+i), e.Seq)
	}
}

func TestArcSharing(t *testing.T) {
	w, r := NewWriter()
	appended := w.Append(KindAction, func(e *Entry) { e.Action = "x" })
	drained := r.Drain()
	assert.Same(t, appended, drained[0])
	assert.Same(t, appended, w.History()[0])
}

func TestDrainEmptyReturnsEmpty(t *testing.T) {
	_, r := NewWriter()
	assert.Empty(t, r.Drain())
}

func TestNextSeqAdvances(t *testing.T) {
	w, _ := NewWriter()
	assert.Equal(t, uint64(0), w.NextSeq())
	w.Append(KindAction, nil)
	assert.Equal(t, uint64(1), w.NextSeq())
}
