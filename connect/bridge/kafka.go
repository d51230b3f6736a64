// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package bridge

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/relabs-tech/wolkenio/connect"
	"github.com/relabs-tech/wolkenio/core/logger"
)

// KafkaForwarder republishes coordinator events to a Kafka topic. Messages
// are keyed by device id, so all events of one device land in the same
// partition in order.
type KafkaForwarder struct {
	writer *kafka.Writer
}

// NewKafkaForwarder creates a forwarder writing to the given brokers and
// topic.
func NewKafkaForwarder(brokers []string, topic string) *KafkaForwarder {
	return &KafkaForwarder{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Attach registers the forwarder for all event kinds of the coordinator.
func (f *KafkaForwarder) Attach(c *connect.Coordinator) {
	for _, kind := range allKinds {
		c.AddListener(kind, f.forward)
	}
}

// Close flushes and closes the underlying writer.
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

func (f *KafkaForwarder) forward(event connect.Event) {
	body, err := marshalEnvelope(event)
	if err != nil {
		logger.Default().WithError(err).Errorln("cannot marshal event envelope")
		return
	}
	err = f.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.DeviceID),
		Value: body,
	})
	if err != nil {
		logger.Default().WithError(err).
			WithField("device_id", event.DeviceID).
			Errorln("cannot forward event to kafka")
	}
}
