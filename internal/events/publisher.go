package events

import (
	"encoding/json"
	"fmt"
	"time"

	"teamhub/internal/logger"
)

// Broker is the message transport events are published on.
type Broker interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Publisher wraps domain payloads in an Event and hands them to a Broker.
// A nil *Publisher drops every event.
type Publisher struct {
	broker   Broker
	exchange string
	log      *logger.Logger
}

// NewPublisher creates a Publisher that sends to exchange.
func NewPublisher(broker Broker, exchange string, log *logger.Logger) *Publisher {
	return &Publisher{broker: broker, exchange: exchange, log: log}
}

// Publish sends one event. Delivery is best effort: failures are logged
// and never fail the request that produced the event.
func (p *Publisher) Publish(eventType string, data interface{}) {
	if p == nil || p.broker == nil {
		return
	}
	body, err := Encode(eventType, data)
	if err != nil {
		p.log.Error("failed to encode event", "type", eventType, "error", err)
		return
	}
	if err := p.broker.Publish(p.exchange, eventType, body); err != nil {
		p.log.Warn("failed to publish event", "type", eventType, "error", err)
		return
	}
	p.log.Debug("published event", "type", eventType)
}

// Encode marshals data into the JSON event envelope.
func Encode(eventType string, data interface{}) ([]byte, error) {
	body, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

// Decode parses an event envelope, leaving Data as generic JSON.
func Decode(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}
