//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/county-data-etl/internal/adapter/census"
	"github.com/couchcryptid/county-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/county-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/county-data-etl/internal/config"
	"github.com/couchcryptid/county-data-etl/internal/domain"
	"github.com/couchcryptid/county-data-etl/internal/observability"
	"github.com/couchcryptid/county-data-etl/internal/pipeline"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	kafkaImage    = "confluentinc/confluent-local:7.5.0"
	testSinkTopic = "test-county-sink"
)

var testdata = filepath.Join("..", "pipeline", "testdata")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container for the test and returns its
// broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("county-etl-test"))
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
	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// censusStub serves the SAIPE fixture the way the census API would.
func censusStub(t *testing.T) *httptest.Server {
	t.Helper()
	body, err := os.ReadFile(filepath.Join(testdata, "saipe_2020.json"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testdataSource() *csvfile.Reader {
	return csvfile.NewReader(map[string]csvfile.Source{
		pipeline.SourceHousing:    {Path: filepath.Join(testdata, "zhvi_county.csv")},
		pipeline.SourceCrosswalk:  {Path: filepath.Join(testdata, "crosswalk.csv"), Encoding: csvfile.Latin1},
		pipeline.SourcePopulation: {Path: filepath.Join(testdata, "county_population.csv"), Encoding: csvfile.Latin1},
		pipeline.SourceRace:       {Path: filepath.Join(testdata, "race_by_county.csv")},
		pipeline.SourceMobility:   {Path: filepath.Join(testdata, "google_mobility_county.csv")},
	}, discardLogger())
}

// publishedRecord is one county message read back from the sink topic.
type publishedRecord struct {
	Key     string
	Headers map[string]string
	Record  domain.MergedCountyRecord
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedRecord {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rec domain.MergedCountyRecord
	require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal sink message")
	return publishedRecord{Key: string(msg.Key), Headers: headers, Record: rec}
}

// TestPipelineEndToEnd runs one batch over the fixtures with the census stub,
// the CSV sink and the Kafka sink, then reads the published counties back.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	metrics := observability.NewMetricsForTesting()
	logger := discardLogger()

	stub := censusStub(t)
	fetcher := census.NewClient(stub.URL, "", 10*time.Second, metrics, logger)

	out := t.TempDir()
	csvSink := csvfile.NewWriter(csvfile.Paths{
		Housing:  filepath.Join(out, "housing.csv"),
		Race:     filepath.Join(out, "race.csv"),
		Mobility: filepath.Join(out, "mobility.csv"),
	}, logger)
	kafkaSink := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = kafkaSink.Close() })

	p := pipeline.New(2020, fetcher, testdataSource(), []pipeline.Loader{csvSink, kafkaSink}, logger, metrics)
	res, err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Housing, 3)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]publishedRecord, 0, len(res.Housing))
	for len(received) < len(res.Housing) {
		received = append(received, readPublished(ctx, t, consumer))
	}
	sort.Slice(received, func(i, j int) bool { return received[i].Key < received[j].Key })

	wantFlags := map[string]string{"01001": "true", "01003": "true", "01005": "false"}
	for _, pr := range received {
		assert.Equal(t, string(pr.Record.Key), pr.Key, "message keyed by FIPS")
		assert.Equal(t, wantFlags[pr.Key], pr.Headers["house_pov_ind"], pr.Key)
		assert.Equal(t, res.RunID, pr.Headers["run_id"])
		_, err := time.Parse(time.RFC3339, pr.Headers["processed_at"])
		assert.NoError(t, err, "processed_at should be valid RFC3339")
	}
	assert.Equal(t, "01001", received[0].Key)
	assert.Equal(t, "01005", received[2].Key)

	_, err = os.Stat(filepath.Join(out, "housing.csv"))
	assert.NoError(t, err, "csv sink ran before kafka")

	summary, ok := p.LastRun()
	require.True(t, ok)
	assert.Empty(t, summary.Error)
}
