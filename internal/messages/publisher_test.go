package messages

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaPublisherWritesJSONWithKey(t *testing.T) {
	writer := &captureWriter{}
	pub := &KafkaPublisher{writer: writer, topic: "iskomart.notifications"}

	require.NoError(t, pub.Publish(context.Background(), "receiver-1", map[string]string{"type": EventMessageCreated}))
	require.Len(t, writer.msgs, 1)
	assert.Equal(t, "receiver-1", string(writer.msgs[0].Key))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &decoded))
	assert.Equal(t, EventMessageCreated, decoded["type"])
}

func TestKafkaPublisherReturnsWriteError(t *testing.T) {
	writer := &captureWriter{err: errors.New("no brokers")}
	pub := &KafkaPublisher{writer: writer, topic: "t"}
	assert.Error(t, pub.Publish(context.Background(), "k", struct{}{}))
}

func TestHeaderCarrierRoundTrip(t *testing.T) {
	msg := &kafka.Message{}
	carrier := headerCarrier{msg: msg}
	carrier.Set("traceparent", "a")
	carrier.Set("traceparent", "b")
	carrier.Set("baggage", "k=v")

	assert.Equal(t, "b", carrier.Get("traceparent"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, carrier.Keys())
	assert.Empty(t, carrier.Get("missing"))

	var _ propagation.TextMapCarrier = carrier
}
