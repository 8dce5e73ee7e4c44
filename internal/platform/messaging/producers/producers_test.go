package producers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter is a mock implementation of KafkaWriter
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

type mockTopicAdmin struct {
	mock.Mock
}

func (m *mockTopicAdmin) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	args := m.Called(topics)
	partitions, _ := args.Get(0).([]kafka.Partition)
	return partitions, args.Error(1)
}

func (m *mockTopicAdmin) CreateTopics(topics ...kafka.TopicConfig) error {
	args := m.Called(topics)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEventProducer_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("WritesKeyValueAndHeaders", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &EventProducer{logger: discardLogger(), writer: mockWriter, topic: "events"}

		value := []byte(`{"event_type":"TRANSACTION_CREATED"}`)
		header := kafka.Header{Key: "event-type", Value: []byte("TRANSACTION_CREATED")}

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			return len(msgs) == 1 &&
				string(msgs[0].Key) == "tx-1" &&
				string(msgs[0].Value) == string(value) &&
				len(msgs[0].Headers) == 1 &&
				msgs[0].Headers[0].Key == "event-type"
		})).Return(nil).Once()

		require.NoError(t, producer.Publish(ctx, "tx-1", value, header))
		mockWriter.AssertExpectations(t)
	})

	t.Run("WrapsWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &EventProducer{logger: discardLogger(), writer: mockWriter, topic: "events"}
		writeErr := errors.New("broker unavailable")

		mockWriter.On("WriteMessages", ctx, mock.Anything).Return(writeErr).Once()

		err := producer.Publish(ctx, "tx-1", []byte(`{}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, writeErr)
		mockWriter.AssertExpectations(t)
	})

	t.Run("Close", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &EventProducer{logger: discardLogger(), writer: mockWriter, topic: "events"}
		mockWriter.On("Close").Return(errors.New("close failed")).Once()

		err := producer.Close()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "events")
	})
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, SplitBrokers(""))
}

func TestEnsureTopic(t *testing.T) {
	prev := topicReadRetryDelay
	topicReadRetryDelay = time.Millisecond
	t.Cleanup(func() { topicReadRetryDelay = prev })

	t.Run("ExistingTopicIsNotCreated", func(t *testing.T) {
		admin := new(mockTopicAdmin)
		admin.On("ReadPartitions", []string{"events"}).
			Return([]kafka.Partition{{Topic: "events", ID: 0}}, nil).Once()

		require.NoError(t, ensureTopic(admin, "events", 3, 1, discardLogger()))
		admin.AssertExpectations(t)
		admin.AssertNotCalled(t, "CreateTopics", mock.Anything)
	})

	t.Run("MissingTopicIsCreatedAfterRetries", func(t *testing.T) {
		admin := new(mockTopicAdmin)
		admin.On("ReadPartitions", []string{"events"}).
			Return(nil, errors.New("unknown topic")).Times(topicReadAttempts)
		admin.On("CreateTopics", []kafka.TopicConfig{{
			Topic:             "events",
			NumPartitions:     1,
			ReplicationFactor: 1,
		}}).Return(nil).Once()

		require.NoError(t, ensureTopic(admin, "events", 0, 0, discardLogger()))
		admin.AssertExpectations(t)
	})

	t.Run("CreateFailure", func(t *testing.T) {
		admin := new(mockTopicAdmin)
		admin.On("ReadPartitions", mock.Anything).Return([]kafka.Partition{}, nil)
		admin.On("CreateTopics", mock.Anything).Return(errors.New("not authorized")).Once()

		err := ensureTopic(admin, "events", 3, 1, discardLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "events")
	})
}
