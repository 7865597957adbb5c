package api

import "time"

type NotificationResponse struct {
	Seq     int64             `json:"seq"`
	Type    string            `json:"type"`
	Payload map[string]string `json:"payload"`
	At      time.Time         `json:"at"`
}

// NotificationsResponse is one poll of the caller's feed. Pass Last as
// "after" on the next poll.
type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Last          int64                  `json:"last"`
}
