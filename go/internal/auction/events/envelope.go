package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of auction event
type EventType string

const (
	EventTypeAuctionStarted EventType = "AuctionStarted"
	EventTypeAuctionUpdated EventType = "AuctionUpdated"
	EventTypeAuctionSold    EventType = "AuctionSold"
	EventTypeAuctionUnsold  EventType = "AuctionUnsold"
	EventTypeStatsUpdated   EventType = "StatsUpdated"
	EventTypeBidRejected    EventType = "BidRejected"
	EventTypeActivity       EventType = "Activity"
)

// Envelope is the wire form of every auction event
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	AuctionID uuid.UUID       `json:"auction_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps a payload into an Envelope. Stats and activity events carry
// a nil auction id.
func New(auctionID uuid.UUID, typ EventType, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Envelope{
		ID:        uuid.New(),
		AuctionID: auctionID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}

// ParsePayload parses an envelope's data into the payload struct for its type.
func ParsePayload(e Envelope) (any, error) {
	var payload any
	switch e.Type {
	case EventTypeAuctionStarted:
		payload = &AuctionStartedPayload{}
	case EventTypeAuctionUpdated:
		payload = &AuctionUpdatedPayload{}
	case EventTypeAuctionSold:
		payload = &AuctionSoldPayload{}
	case EventTypeAuctionUnsold:
		payload = &AuctionUnsoldPayload{}
	case EventTypeStatsUpdated:
		payload = &StatsUpdatedPayload{}
	case EventTypeBidRejected:
		payload = &BidRejectedPayload{}
	case EventTypeActivity:
		payload = &ActivityPayload{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Data, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
