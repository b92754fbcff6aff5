//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/aviation-accident-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/aviation-accident-etl/internal/adapter/kafka"
	parquetstore "github.com/couchcryptid/aviation-accident-etl/internal/adapter/parquet"
	"github.com/couchcryptid/aviation-accident-etl/internal/config"
	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
	"github.com/couchcryptid/aviation-accident-etl/internal/observability"
	"github.com/couchcryptid/aviation-accident-etl/internal/pipeline"
)

const testRunTopic = "test-runs"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("aviation-etl-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
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

func writeRawFile(t *testing.T, dir, name string, rows [][]string) {
	t.Helper()
	data, err := json.Marshal(rows)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func rawRow(date, airline, route string) []string {
	return []string{
		date, "1200", "Croydon, England", airline, "?", route, "de Havilland DH.34", "G-EBBS", "?",
		"8   (passengers:6  crew:2)", "8   (passengers:6  crew:2)", "0", "Crashed after takeoff.",
	}
}

// TestPipelineNotifiesKafka runs the whole pipeline on files in a temp dir and
// reads the run notification back from a real broker.
func TestPipelineNotifiesKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRunTopic)

	root := t.TempDir()
	inputDir := filepath.Join(root, "raw")
	outputDir := filepath.Join(root, "processed")
	require.NoError(t, os.Mkdir(inputDir, 0o750))

	writeRawFile(t, inputDir, "data_1922.json", [][]string{
		rawRow("April 7, 1922", "Daimler Airway", "Croydon - Paris"),
		rawRow("September 14, 1922", "?", "?"),
	})
	writeRawFile(t, inputDir, "data_1923.json", [][]string{
		rawRow("May 14, 1923", "Air Union", "Paris - Croydon"),
	})

	cfg := &config.Config{
		KafkaBrokers: []string{broker},
		KafkaTopic:   testRunTopic,
	}
	notifier := kafka.NewNotifier(cfg, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	src := jsonfile.NewSource(inputDir, "*.json", domain.DefaultRawColumns)
	rows := domain.NewTransformer(domain.UUIDGenerator{}, domain.TransformOptions{})
	store := parquetstore.NewStore(outputDir, nil)
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(src, pipeline.NewTransformer(rows, nil, discardLogger()), store, discardLogger(), metrics, pipeline.Options{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Workers:   2,
		Notifier:  notifier,
	})

	manifest, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, manifest.Tables[domain.TableFact])

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testRunTopic,
		GroupID:     fmt.Sprintf("test-runs-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read run notification")

	assert.Equal(t, manifest.RunID, string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "3", headers["facts"])
	_, err = time.Parse(time.RFC3339, headers["finished_at"])
	assert.NoError(t, err, "finished_at should be valid RFC3339")

	var got domain.Manifest
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, manifest.RunID, got.RunID)
	assert.Equal(t, []string{"data_1922.json", "data_1923.json"}, got.Files)
	assert.Equal(t, 3, got.RecordsRead)
	assert.Equal(t, manifest.Tables, got.Tables)

	// The written tables are consistent with the published counts.
	tables, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, domain.CheckIntegrity(tables))
	assert.Equal(t, got.Tables, tables.Counts())
}
