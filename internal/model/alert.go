package model

import "time"

// AlertKind classifies a broadcast alert.
type AlertKind string

const (
	AlertNewFiling   AlertKind = "NEW_FILING"
	AlertNewPosition AlertKind = "NEW_POSITION"
	AlertExit        AlertKind = "EXIT"
)

// Alert is a notification payload sent to Telegram and websocket clients.
type Alert struct {
	ID        string    `json:"id"`
	Kind      AlertKind `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
