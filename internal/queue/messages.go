package queue

import (
	"encoding/json"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rabbitmq/amqp091-go"
)

// RebuildGraphMsg asks the worker to rebuild the knowledge graph from the
// stored storyboards. The correlation ID ties worker log lines back to the
// API request that triggered the rebuild.
type RebuildGraphMsg struct {
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id"`
}

// PublishRebuild enqueues one rebuild job and returns its correlation ID.
func PublishRebuild(ch *amqp091.Channel, message string) (string, error) {
	correlationID, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(RebuildGraphMsg{
		Message:       message,
		CorrelationID: correlationID,
	})
	if err != nil {
		return "", err
	}

	if err := PublishFIFO(ch, RebuildQueue, data); err != nil {
		return "", err
	}
	return correlationID, nil
}
