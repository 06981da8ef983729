package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/memory"
	"unicarpool/pkg/logger"
	"unicarpool/pkg/push"
	"unicarpool/pkg/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeRealtime struct {
	mu   sync.Mutex
	sent map[primitive.ObjectID][]websocket.Message
}

func (f *fakeRealtime) SendToUser(userID primitive.ObjectID, message websocket.Message) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[primitive.ObjectID][]websocket.Message)
	}
	f.sent[userID] = append(f.sent[userID], message)
	return 1
}

type fakeBroker struct {
	keys []string
	err  error
}

func (f *fakeBroker) Publish(_ context.Context, routingKey string, _ interface{}) error {
	f.keys = append(f.keys, routingKey)
	return f.err
}

type fakePush struct {
	requests []*push.NotificationRequest
	invalid  map[string]bool
}

func (f *fakePush) SendNotification(_ context.Context, request *push.NotificationRequest) (*push.NotificationResponse, error) {
	f.requests = append(f.requests, request)
	if f.invalid[request.Token] {
		return &push.NotificationResponse{Token: request.Token, InvalidToken: true}, push.ErrInvalidToken
	}
	return &push.NotificationResponse{Token: request.Token, Success: true}, nil
}

func (f *fakePush) SendBulkNotifications(ctx context.Context, requests []*push.NotificationRequest) ([]*push.NotificationResponse, error) {
	responses := make([]*push.NotificationResponse, 0, len(requests))
	for _, r := range requests {
		resp, _ := f.SendNotification(ctx, r)
		responses = append(responses, resp)
	}
	return responses, nil
}

func TestPublishFansOutAndDropsInvalidTokens(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	rider := &models.User{BannerID: "B00000001", SchoolEmail: "r@dal.ca", Roles: []models.Role{models.RoleRider}, ActiveRole: models.RoleRider}
	require.NoError(t, users.Create(ctx, rider))
	require.NoError(t, users.AddDeviceToken(ctx, rider.ID, models.DeviceToken{Token: "good", Platform: models.PlatformAndroid}))
	require.NoError(t, users.AddDeviceToken(ctx, rider.ID, models.DeviceToken{Token: "stale", Platform: models.PlatformAndroid}))
	require.NoError(t, users.AddDeviceToken(ctx, rider.ID, models.DeviceToken{Token: "apple", Platform: models.PlatformIOS}))

	realtime := &fakeRealtime{}
	broker := &fakeBroker{err: errors.New("broker down")}
	android := &fakePush{invalid: map[string]bool{"stale": true}}

	svc := NewNotificationService(users, realtime, broker, map[models.DevicePlatform]push.PushProvider{
		models.PlatformAndroid: android,
		models.PlatformIOS:     nil,
	}, logger.NewNop())

	event := &models.Event{
		Type:       models.EventRequestAccepted,
		RideID:     primitive.NewObjectID(),
		RequestID:  primitive.NewObjectID(),
		Recipients: []primitive.ObjectID{rider.ID},
		Title:      "Request accepted",
		Body:       "See you at the meeting point",
		OccurredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	svc.Publish(ctx, event)

	assert.NotEmpty(t, event.ID)
	require.NoError(t, svc.Close())

	require.Len(t, realtime.sent[rider.ID], 1)
	assert.Equal(t, string(models.EventRequestAccepted), realtime.sent[rider.ID][0].Type)
	assert.Equal(t, []string{"ride_request.accepted"}, broker.keys)

	require.Len(t, android.requests, 2)
	assert.Equal(t, event.RideID.Hex(), android.requests[0].Data["ride_id"])

	stored, err := users.GetByID(ctx, rider.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, stored.TokensFor(models.PlatformAndroid))
	assert.Equal(t, []string{"apple"}, stored.TokensFor(models.PlatformIOS))
}

func TestPublishSkipsPushForQuietEvents(t *testing.T) {
	android := &fakePush{}
	realtime := &fakeRealtime{}
	svc := NewNotificationService(memory.NewUserRepository(), realtime, nil, map[models.DevicePlatform]push.PushProvider{
		models.PlatformAndroid: android,
	}, logger.NewNop())

	driverID := primitive.NewObjectID()
	svc.Publish(context.Background(), &models.Event{Type: models.EventRideCreated, Recipients: []primitive.ObjectID{driverID}})
	require.NoError(t, svc.Close())

	assert.Empty(t, android.requests)
	assert.Len(t, realtime.sent[driverID], 1)
}

type blockingBroker struct {
	release chan struct{}
	keys    chan string
}

func (b *blockingBroker) Publish(ctx context.Context, routingKey string, _ interface{}) error {
	select {
	case <-b.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	b.keys <- routingKey
	return nil
}

func TestPublishReturnsBeforeSlowBrokerFinishes(t *testing.T) {
	broker := &blockingBroker{release: make(chan struct{}), keys: make(chan string, 1)}
	realtime := &fakeRealtime{}
	svc := NewNotificationService(memory.NewUserRepository(), realtime, broker, nil, logger.NewNop())

	riderID := primitive.NewObjectID()
	ctx, cancel := context.WithCancel(context.Background())
	svc.Publish(ctx, &models.Event{Type: models.EventRideStarted, Recipients: []primitive.ObjectID{riderID}})
	cancel()

	assert.Len(t, realtime.sent[riderID], 1)
	assert.Empty(t, broker.keys)

	close(broker.release)
	require.NoError(t, svc.Close())
	assert.Equal(t, "ride.started", <-broker.keys)
}
