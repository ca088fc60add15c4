//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/solar-sizing-service/internal/adapter/kafka"
	"github.com/couchcryptid/solar-sizing-service/internal/config"
	"github.com/couchcryptid/solar-sizing-service/internal/domain"
	"github.com/couchcryptid/solar-sizing-service/internal/observability"
	"github.com/couchcryptid/solar-sizing-service/internal/pipeline"
	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSourceTopic = "test-sizing-requests"
	testSinkTopic   = "test-sizing-results"
	kafkaImage      = "confluentinc/confluent-local:7.5.0"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the duration of the test.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("solar-sizing-test"))
	testcontainers.CleanupContainer(t, kc)
	require.NoError(t, err, "start kafka container")

	brokers, err := kc.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaEnabled:       true,
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}
}

func newTransformer(t *testing.T, metrics *observability.Metrics) *pipeline.SizingTransformer {
	t.Helper()
	reg, err := thermal.DefaultRegistry()
	require.NoError(t, err)
	engine := thermal.NewEngine(reg, discardLogger())
	return pipeline.NewTransformer(engine, nil, metrics, discardLogger())
}

// sizedMessage holds a deserialized report read from the sink topic.
type sizedMessage struct {
	Report  domain.SizingReport
	Key     string
	Headers map[string]string
}

func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sizedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.SizingReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return sizedMessage{Report: report, Key: string(msg.Key), Headers: headers}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func produce(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

// TestKafkaReaderWriter round-trips one request through the adapters without
// the pipeline loop.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	payload := []byte(`{"latitude":-23.55,"occupants":4,"usage":"standard","water_heating":true}`)
	produce(ctx, t, broker, kafkago.Message{
		Key:     []byte("casa-sp"),
		Value:   payload,
		Headers: []kafkago.Header{{Key: "locale", Value: []byte("pt-BR")}},
	})

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	batch, err := reader.ExtractBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("casa-sp"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, "pt-BR", raw.Headers["locale"])
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	out, err := newTransformer(t, observability.NewMetricsForTesting()).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	sm := readReport(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "casa-sp", sm.Key)
	assert.Equal(t, "pt-BR", sm.Headers["locale"])
	assert.Equal(t, "sudeste", sm.Headers["climate_zone"])
	_, err = time.Parse(time.RFC3339, sm.Headers["computed_at"])
	assert.NoError(t, err, "computed_at should be valid RFC3339")

	assert.Equal(t, "casa-sp", sm.Report.ID)
	assert.Equal(t, 160.0, sm.Report.Result.Water.DailyVolume)
	assert.GreaterOrEqual(t, sm.Report.Result.PanelCount, 1)
}

// TestPipelineEndToEnd runs the full Reader → Transformer → Writer loop and
// checks every request gets exactly one report, and that an invalid request
// is skipped without stalling the pipeline.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	requests := map[string]string{
		"sp":      `{"locale":"pt-BR","latitude":-23.55,"occupants":4,"water_heating":true}`,
		"poa":     `{"locale":"pt","latitude":-30.03,"occupants":3,"floor_area":110,"water_heating":true,"space_heating":true}`,
		"milano":  `{"locale":"it-IT","latitude":45.46,"floor_area":140,"energy_class":"E","space_heating":true}`,
		"palermo": `{"locale":"it","latitude":38.12,"occupants":6,"usage":"high","water_heating":true}`,
	}
	wantZone := map[string]string{"sp": "sudeste", "poa": "sul", "milano": "nord", "palermo": "sud"}

	msgs := []kafkago.Message{
		{Key: []byte("poison"), Value: []byte("not-json{{{")},
		{Key: []byte("negative"), Value: []byte(`{"occupants":-2,"water_heating":true}`)},
	}
	for key, body := range requests {
		msgs = append(msgs, kafkago.Message{Key: []byte(key), Value: []byte(body)})
	}
	produce(ctx, t, broker, msgs...)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(t, metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make(map[string]sizedMessage, len(requests))
	for len(received) < len(requests) {
		sm := readReport(ctx, t, consumer)
		received[sm.Key] = sm
	}

	// Nothing else arrives: the invalid requests were skipped.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no report for invalid requests")

	assert.NoError(t, p.CheckReadiness(context.Background()))
	pipelineCancel()
	require.NoError(t, <-errCh)

	for key, zone := range wantZone {
		sm, ok := received[key]
		require.True(t, ok, "missing report for %s", key)
		assert.Equal(t, zone, sm.Report.Result.ClimateZone, key)
		assert.Equal(t, zone, sm.Headers["climate_zone"], key)
		assert.Empty(t, sm.Report.Result.Warnings, key)
	}
	assert.Equal(t, "it-IT", received["palermo"].Report.Result.Locale)
	assert.NotEmpty(t, received["milano"].Report.Result.Rooms)
}
