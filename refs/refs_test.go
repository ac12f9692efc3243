package refs

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAddRemove(t *testing.T) {
	s := NewSet()

	s.Add("a")
	s.Add("b")
	s.Add("a") // duplicate add is a no-op

	assert.True(t, s.Has("a"))
	assert.True(t, s.Has("b"))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, s.IDs())

	s.Remove("a")
	assert.False(t, s.Has("a"))
	assert.Equal(t, 1, s.Len())

	s.Remove("missing") // no-op
	assert.Equal(t, 1, s.Len())
}

func TestSetConcurrent(t *testing.T) {
	s := NewSet()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("inst-%d", n)
			s.Add(id)
			s.Has(id)
			if n%2 == 0 {
				s.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, s.Len())
}
