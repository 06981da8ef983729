package push

import (
	"context"
	"errors"
)

// ErrInvalidToken marks a device token the provider will never deliver to
// again. Callers should forget the token.
var ErrInvalidToken = errors.New("push: device token is no longer valid")

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
	SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error)
}

type NotificationRequest struct {
	Token       string            `json:"token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	Sound       string            `json:"sound,omitempty"`
	Priority    string            `json:"priority,omitempty"`
	TTL         int               `json:"ttl,omitempty"`
	CollapseKey string            `json:"collapse_key,omitempty"`
	ChannelID   string            `json:"channel_id,omitempty"`
}

type NotificationResponse struct {
	MessageID    string `json:"message_id"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	Token        string `json:"token,omitempty"`
	InvalidToken bool   `json:"invalid_token,omitempty"`
}
