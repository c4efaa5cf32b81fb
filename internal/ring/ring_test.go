package ring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ErikNatanael/knaster-sub000/internal/ring"
)

func TestCapacityRounding(t *testing.T) {
	tests := []struct {
		capacity int
		expected int
	}{
		{capacity: 0, expected: 1},
		{capacity: 1, expected: 1},
		{capacity: 3, expected: 4},
		{capacity: 4, expected: 4},
		{capacity: 100, expected: 128},
	}

	for _, test := range tests {
		q := ring.New[int](test.capacity)
		assert.Equal(t, test.expected, q.Cap())
	}
}

func TestFullEmpty(t *testing.T) {
	q := ring.New[int](4)

	_, ok := q.TryPop()
	assert.False(t, ok)

	for i := 0; i < 4; i++ {
		assert.True(t, q.TryPush(i))
	}
	assert.False(t, q.TryPush(4))
	assert.Equal(t, 4, q.Len())

	v, ok := q.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 0, v)
	assert.True(t, q.TryPush(4))
	assert.False(t, q.TryPush(5))
}

func TestWraparoundOrder(t *testing.T) {
	q := ring.New[int](4)
	next := 0
	popped := 0
	for round := 0; round < 10; round++ {
		for q.TryPush(next) {
			next++
		}
		for {
			v, ok := q.TryPop()
			if !ok {
				break
			}
			assert.Equal(t, popped, v)
			popped++
		}
	}
	assert.Equal(t, next, popped)
}

func TestConcurrentHandoff(t *testing.T) {
	const total = 100000
	q := ring.New[uint64](8)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var expected uint64
		for expected < total {
			v, ok := q.TryPop()
			if !ok {
				continue
			}
			if v != expected {
				t.Errorf("popped %d, expected %d", v, expected)
				return
			}
			expected++
		}
	}()

	for i := uint64(0); i < total; {
		if q.TryPush(i) {
			i++
		}
	}
	<-done
}

func TestPopReleasesReference(t *testing.T) {
	q := ring.New[*int](1)
	v := new(int)
	assert.True(t, q.TryPush(v))
	got, ok := q.TryPop()
	assert.True(t, ok)
	assert.Equal(t, v, got)

	// the freed slot must not pin the old element
	assert.True(t, q.TryPush(nil))
	got, ok = q.TryPop()
	assert.True(t, ok)
	assert.Nil(t, got)
}
