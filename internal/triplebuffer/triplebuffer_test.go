package triplebuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicWriteRead(t *testing.T) {
	b := New[int]()
	b.Write(42)
	assert.Equal(t, 42, b.Read())
}

func TestMultipleWrites(t *testing.T) {
	b := New[int]()
	b.Write(1)
	b.Write(2)
	b.Write(3)
	assert.Equal(t, 3, b.Read())
}

func TestNoFreshData(t *testing.T) {
	b := New[int]()
	b.Write(42)
	_ = b.Read()
	assert.False(t, b.HasFresh())
	assert.Equal(t, 42, b.Read())
}

func TestReadWith(t *testing.T) {
	b := New[[]int]()
	b.Write([]int{1, 2, 3})
	sum := 0
	b.ReadWith(func(v *[]int) {
		for _, x := range *v {
			sum += x
		}
	})
	assert.Equal(t, 6, sum)
}

func TestNewWithInitialValue(t *testing.T) {
	b := NewWith(7)
	assert.Equal(t, 7, b.Read())
}
