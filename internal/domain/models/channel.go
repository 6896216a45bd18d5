package models

import "time"

type ChannelProfile struct {
	User
	SubscribersCount  int  `json:"subscribers_count"`
	SubscribedToCount int  `json:"channels_subscribed_to_count"`
	IsSubscribed      bool `json:"is_subscribed"`
}

type WatchHistoryEntry struct {
	VideoID   string    `json:"video_id"`
	WatchedAt time.Time `json:"watched_at"`
}
