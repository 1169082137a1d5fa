package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing(t *testing.T) {
	t.Run("Success_FIFO", func(t *testing.T) {
		r := NewRing[int](3, nil)
		assert.False(t, r.Push(1))
		assert.False(t, r.Push(2))

		v, ok := r.TryPop()
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("Success_DropsOldest", func(t *testing.T) {
		r := NewRing[int](2, nil)
		assert.False(t, r.Push(1))
		assert.False(t, r.Push(2))
		assert.True(t, r.Push(3))

		first, _ := r.TryPop()
		second, _ := r.TryPop()
		_, ok := r.TryPop()

		assert.Equal(t, 2, first)
		assert.Equal(t, 3, second)
		assert.False(t, ok)
		assert.Equal(t, 2, r.Cap())
	})

	t.Run("Success_SharedNotify", func(t *testing.T) {
		notify := make(chan struct{}, 1)
		a := NewRing[string](4, notify)
		b := NewRing[string](4, notify)

		a.Push("a1")
		b.Push("b1")
		assert.Len(t, notify, 1)

		<-notify
		_, ok := a.TryPop()
		assert.True(t, ok)

		v, ok := b.TryPop()
		assert.True(t, ok)
		assert.Equal(t, "b1", v)
	})

	t.Run("Success_SignalsWhileNonEmpty", func(t *testing.T) {
		notify := make(chan struct{}, 1)
		r := NewRing[int](4, notify)
		r.Push(1)
		r.Push(2)
		<-notify

		r.TryPop()
		assert.Len(t, notify, 1)
	})
}
