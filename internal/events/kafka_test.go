package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafka(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("kafka container skipped in short mode")
	}
	ctx := context.Background()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	if err != nil {
		t.Skipf("kafka container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer cc.Close()

	if err := cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}); err != nil {
		t.Logf("create topic: %v", err)
	}
}

func TestKafkaPublisher_WritesJSON(t *testing.T) {
	broker := setupKafka(t)
	createTopic(t, broker, TopicOrder)

	pub := NewKafkaPublisher([]string{broker})
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	orderID := uuid.New()
	require.NoError(t, pub.Publish(ctx, TopicOrder, orderID.String(), OrderEvent{
		Type:    OrderCreated,
		OrderID: orderID,
		Status:  "PENDING",
	}))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    TopicOrder,
		GroupID:  "storefront-test",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, orderID.String(), string(msg.Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, OrderCreated, got["type"])
	assert.Equal(t, orderID.String(), got["order_id"])
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), TopicCart, "k", CartEvent{Type: CartCleared}))
	require.NoError(t, r.Publish(context.Background(), TopicOrder, "k", OrderEvent{Type: OrderCreated}))

	assert.Len(t, r.Messages(), 2)
	require.Len(t, r.Topic(TopicCart), 1)
	assert.Equal(t, CartCleared, r.Topic(TopicCart)[0].Event.(CartEvent).Type)

	r.Err = assert.AnError
	assert.ErrorIs(t, r.Publish(context.Background(), TopicCart, "k", nil), assert.AnError)
}
