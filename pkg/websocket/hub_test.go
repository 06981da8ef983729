package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"unicarpool/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestHubDeliversToUserRoomOnly(t *testing.T) {
	hub := startHub(t)
	alice := NewClient(hub, nil, primitive.NewObjectID())
	bob := NewClient(hub, nil, primitive.NewObjectID())
	require.True(t, hub.Register(alice))
	require.True(t, hub.Register(bob))

	assert.Equal(t, "welcome", receive(t, alice).Type)
	assert.Equal(t, "welcome", receive(t, bob).Type)

	n := hub.SendToUser(alice.UserID, Message{Type: "ride.started"})
	assert.Equal(t, 1, n)
	assert.Equal(t, "ride.started", receive(t, alice).Type)
	assert.Empty(t, bob.send)
}

func TestHubUnregisterClosesClient(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, nil, primitive.NewObjectID())
	require.True(t, hub.Register(client))
	receive(t, client)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok)
	assert.False(t, hub.IsOnline(client.UserID))
	assert.Equal(t, 0, hub.SendToUser(client.UserID, Message{Type: "ride.cancelled"}))
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := startHub(t)
	client := NewClient(hub, nil, primitive.NewObjectID())
	require.True(t, hub.Register(client))

	// The welcome message occupies one slot.
	for i := 0; i < sendBufferSize; i++ {
		hub.SendToUser(client.UserID, Message{Type: "ride.created"})
	}

	assert.False(t, hub.IsOnline(client.UserID))
}

func TestStoppedHubDoesNotBlockClients(t *testing.T) {
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := NewClient(hub, nil, primitive.NewObjectID())
	require.True(t, hub.Register(client))
	receive(t, client)

	cancel()
	<-stopped

	_, ok := <-client.send
	assert.False(t, ok)

	unregistered := make(chan struct{})
	go func() {
		hub.Unregister(client)
		close(unregistered)
	}()
	select {
	case <-unregistered:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after shutdown")
	}

	assert.False(t, hub.Register(NewClient(hub, nil, primitive.NewObjectID())))
}
