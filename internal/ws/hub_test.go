package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"greencycle/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_KeepsOrder(t *testing.T) {
	h := NewHub()
	h.Publish(NewEvent("sale_update", "sale_completed", model.SystemActor, nil, ""))
	h.Publish(NewEvent("sale_update", "sale_cancelled", model.SystemActor, nil, ""))

	var first, second Event
	require.NoError(t, json.Unmarshal(<-h.Broadcast, &first))
	require.NoError(t, json.Unmarshal(<-h.Broadcast, &second))
	assert.Equal(t, "sale_completed", first.Action)
	assert.Equal(t, "sale_cancelled", second.Action)
}

func TestPublish_FullQueueDoesNotBlock(t *testing.T) {
	h := NewHub()
	for i := 0; i < broadcastQueueSize+10; i++ {
		h.Publish(Event{Type: "test", Action: fmt.Sprintf("event-%d", i)})
	}
	assert.Len(t, h.Broadcast, broadcastQueueSize)

	var oldest Event
	require.NoError(t, json.Unmarshal(<-h.Broadcast, &oldest))
	assert.Equal(t, "event-0", oldest.Action)
}
