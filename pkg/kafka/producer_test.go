package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(w *recordingWriter) *Producer {
	return &Producer{writer: w, logger: ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{}, ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}))
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), TopicSnapshotUpdated, "member-1", map[string]string{
		"traceparent": "00-abc-def-01",
		"tracestate":  "",
	}, []byte(`{"ok":true}`))
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, TopicSnapshotUpdated, msg.Topic)
	assert.Equal(t, "member-1", string(msg.Key))
	assert.JSONEq(t, `{"ok":true}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "traceparent", msg.Headers[0].Key)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	p := newTestProducer(&recordingWriter{err: errors.New("leader not available")})

	err := p.Publish(context.Background(), TopicConflictsDetected, "k", nil, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicConflictsDetected)
}

func TestCompressionCodec(t *testing.T) {
	assert.Equal(t, kafka.Snappy, compressionCodec("snappy"))
	assert.Equal(t, kafka.Zstd, compressionCodec("zstd"))
	assert.Equal(t, kafka.Compression(0), compressionCodec("none"))
}
