package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/livp123/firesense/internal/config"
	"github.com/livp123/firesense/internal/metrics"
	"github.com/livp123/firesense/internal/report"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *report.Report {
	return &report.Report{
		ID:          "4f7c0d5e-0000-4000-8000-000000000001",
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Label:       "Extreme Fire Conditions",
		Readings:    report.Readings{Temperature: 80, Humidity: 15, CO2: 1200, Hydrogen: 0.3, Pressure: 990},
		Probability: 0.92,
		Confidence:  0.92,
		Decision:    "FIRE",
		Fire:        true,
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeStore struct {
	values map[string][]byte
	ttls   map[string]time.Duration
	lists  map[string][][]byte
	err    error
	closed bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		values: map[string][]byte{},
		ttls:   map[string]time.Duration{},
		lists:  map[string][][]byte{},
	}
}

func (s *fakeStore) SetLatest(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *fakeStore) PushHistory(_ context.Context, key string, value []byte, size int) error {
	l := append([][]byte{value}, s.lists[key]...)
	if len(l) > size {
		l = l[:size]
	}
	s.lists[key] = l
	return nil
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

type failingSink struct{ calls int }

func (f *failingSink) Name() string { return "failing_probe" }
func (f *failingSink) Publish(context.Context, *report.Report) error {
	f.calls++
	return errors.New("unreachable")
}
func (f *failingSink) Close() error { return errors.New("close failed") }

// TestConsole tests both console formats
// TestConsole 测试两种控制台格式
func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, "")
	require.NoError(t, c.Publish(context.Background(), sampleReport()))
	assert.Contains(t, buf.String(), "TEST SCENARIO: Extreme Fire Conditions")
	assert.Contains(t, buf.String(), "FIRE DETECTED")

	buf.Reset()
	c = NewConsole(&buf, FormatJSON)
	require.NoError(t, c.Publish(context.Background(), sampleReport()))
	var back report.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "FIRE", back.Decision)
	assert.NoError(t, c.Close())
}

// TestKafka tests the message key, value and headers
// TestKafka 测试消息键、值和头
func TestKafka(t *testing.T) {
	w := &fakeWriter{}
	k := newKafkaWithWriter("firesense.reports", w)

	r := sampleReport()
	require.NoError(t, k.Publish(context.Background(), r))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "Extreme Fire Conditions", string(msg.Key))
	assert.Equal(t, r.Timestamp, msg.Time)
	assert.Equal(t, "report-id", msg.Headers[0].Key)
	assert.Equal(t, r.ID, string(msg.Headers[0].Value))

	var back report.Report
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, r.Probability, back.Probability)

	w.err = errors.New("broker down")
	err := k.Publish(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firesense.reports")

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

// TestRedis tests latest key, TTL and bounded history
// TestRedis 测试最新键、TTL 与有界历史
func TestRedis(t *testing.T) {
	store := newFakeStore()
	r := newRedisWithStore(store, config.RedisSinkConfig{TTL: "1h", HistorySize: 2})
	assert.Equal(t, "firesense:latest", r.LatestKey())
	assert.Equal(t, "firesense:history", r.HistoryKey())

	for _, label := range []string{"a", "b", "c"} {
		rep := sampleReport()
		rep.Label = label
		require.NoError(t, r.Publish(context.Background(), rep))
	}

	var latest report.Report
	require.NoError(t, json.Unmarshal(store.values["firesense:latest"], &latest))
	assert.Equal(t, "c", latest.Label)
	assert.Equal(t, time.Hour, store.ttls["firesense:latest"])

	history := store.lists["firesense:history"]
	require.Len(t, history, 2)
	var newest report.Report
	require.NoError(t, json.Unmarshal(history[0], &newest))
	assert.Equal(t, "c", newest.Label)

	require.NoError(t, r.Close())
	assert.True(t, store.closed)
}

func TestRedis_NoHistory(t *testing.T) {
	store := newFakeStore()
	r := newRedisWithStore(store, config.RedisSinkConfig{Prefix: "lab"})
	require.NoError(t, r.Publish(context.Background(), sampleReport()))
	assert.Contains(t, store.values, "lab:latest")
	assert.Empty(t, store.lists)
	assert.Equal(t, time.Duration(0), store.ttls["lab:latest"])

	store.err = errors.New("readonly")
	assert.Error(t, r.Publish(context.Background(), sampleReport()))
}

// TestFanout tests a failing sink does not stop the others
// TestFanout 测试失败的输出端不影响其他输出端
func TestFanout(t *testing.T) {
	bad := &failingSink{}
	w := &fakeWriter{}
	f := NewFanout(bad, newKafkaWithWriter("t", w))

	before := testutil.ToFloat64(metrics.SinkErrorsTotal.WithLabelValues("failing_probe"))
	failed := f.Publish(context.Background(), sampleReport())

	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, bad.calls)
	assert.Len(t, w.msgs, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SinkErrorsTotal.WithLabelValues("failing_probe")))
	assert.Len(t, f.Sinks(), 2)

	err := f.Close()
	assert.EqualError(t, err, "close failed")
	assert.True(t, w.closed)
}

func TestFromConfig_ConsoleOnly(t *testing.T) {
	f, err := FromConfig(context.Background(), config.SinksConfig{
		Console: config.ConsoleSinkConfig{Enabled: true, Format: "json"},
	})
	require.NoError(t, err)
	require.Len(t, f.Sinks(), 1)
	assert.Equal(t, "console", f.Sinks()[0].Name())
}
