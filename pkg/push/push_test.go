package push

import (
	"testing"

	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAPNSNotification(t *testing.T) {
	provider := &APNSProvider{topic: "ca.dal.unicarpool"}

	n := provider.buildNotification(&NotificationRequest{
		Token:       "device",
		Title:       "Request accepted",
		Body:        "See you at Coburg Rd",
		Data:        map[string]string{"ride_id": "abc"},
		Priority:    "high",
		CollapseKey: "ride-abc",
	})

	assert.Equal(t, "device", n.DeviceToken)
	assert.Equal(t, "ca.dal.unicarpool", n.Topic)
	assert.Equal(t, apns2.PriorityHigh, n.Priority)
	assert.Equal(t, "ride-abc", n.CollapseID)

	payload, ok := n.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "abc", payload["ride_id"])
	aps := payload["aps"].(map[string]interface{})
	assert.Equal(t, "Request accepted", aps["alert"].(map[string]interface{})["title"])
}

func TestInvalidAPNSReasons(t *testing.T) {
	assert.True(t, isInvalidAPNSReason(apns2.ReasonUnregistered))
	assert.True(t, isInvalidAPNSReason(apns2.ReasonBadDeviceToken))
	assert.False(t, isInvalidAPNSReason(apns2.ReasonTooManyRequests))
}

func TestBuildFCMMessage(t *testing.T) {
	msg := buildFCMMessage(&NotificationRequest{
		Token: "device",
		Title: "Ride started",
		Data:  map[string]string{"type": "ride.started"},
		TTL:   60,
	})

	assert.Equal(t, "device", msg.Token)
	assert.Equal(t, "Ride started", msg.Notification.Title)
	assert.Equal(t, "normal", msg.Android.Priority)
	require.NotNil(t, msg.Android.TTL)
	assert.Equal(t, float64(60), msg.Android.TTL.Seconds())
}
