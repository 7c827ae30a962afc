package notice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueDrain(t *testing.T) {
	var q Queue
	q.Push(Notice{Title: "one", Status: StatusInfo})
	q.Push(Notice{Title: "two", Status: StatusError})
	assert.Equal(t, 2, q.Len())

	got := q.Drain()
	assert.Equal(t, []Notice{
		{Title: "one", Status: StatusInfo},
		{Title: "two", Status: StatusError},
	}, got)
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}
