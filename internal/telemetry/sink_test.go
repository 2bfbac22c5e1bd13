package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct {
	err  error
	done chan struct{}
}

func newToken(err error) *doneToken {
	t := &doneToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *doneToken) Wait() bool                     { <-t.done; return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{}          { return t.done }
func (t *doneToken) Error() error                   { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return newToken(p.err)
}

func TestMQTTSink_Topics(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub)
	rec := FromSnapshot(snapshot())
	rec.Timestamp = 1714550400

	if err := sink.Upsert(context.Background(), "1934", rec); err != nil {
		t.Fatal(err)
	}
	if err := sink.Append(context.Background(), "1934", rec); err != nil {
		t.Fatal(err)
	}

	if len(pub.msgs) != 2 {
		t.Fatalf("published %d messages", len(pub.msgs))
	}
	if pub.msgs[0].topic != "RealTimeData/1934" || !pub.msgs[0].retained {
		t.Errorf("live: %+v", pub.msgs[0])
	}
	if pub.msgs[1].topic != "RecordsData/1934/1714550400" || pub.msgs[1].retained {
		t.Errorf("record: %+v", pub.msgs[1])
	}

	var body map[string]any
	if err := json.Unmarshal(pub.msgs[0].payload, &body); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"temp0", "temp1", "moisture1", "moisture2", "water_level", "tds_val", "ph_val", "ultra_distance_cm", "ultra_level_percent"} {
		if _, ok := body[k]; !ok {
			t.Errorf("payload missing %q", k)
		}
	}
	if body["temp1"] != nil {
		t.Errorf("temp1 should be null, got %v", body["temp1"])
	}
}

func TestMQTTSink_PublishError(t *testing.T) {
	sink := NewMQTTSink(&fakePublisher{err: errors.New("not connected")})
	err := sink.Upsert(context.Background(), "1934", Record{})
	if err == nil || !strings.Contains(err.Error(), "RealTimeData/1934") {
		t.Fatalf("got %v", err)
	}
}

type execCall struct {
	query string
	args  []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, q string, args ...any) error {
	f.calls = append(f.calls, execCall{query: q, args: args})
	return f.err
}

func TestClickHouseSink(t *testing.T) {
	conn := &fakeExecer{}
	sink := NewClickHouseSink(conn)
	if err := sink.InitSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := FromSnapshot(snapshot())
	if err := sink.Upsert(context.Background(), "1934", rec); err != nil {
		t.Fatal(err)
	}
	if err := sink.Append(context.Background(), "1934", rec); err != nil {
		t.Fatal(err)
	}

	if len(conn.calls) != len(clickhouseSchema)+2 {
		t.Fatalf("exec calls: %d", len(conn.calls))
	}
	live := conn.calls[len(clickhouseSchema)]
	if !strings.Contains(live.query, "INSERT INTO vermi_live") || live.args[0] != "1934" {
		t.Errorf("live insert: %q %v", live.query, live.args)
	}
	if len(live.args) != 11 {
		t.Errorf("args: %d", len(live.args))
	}
	if !strings.Contains(conn.calls[len(conn.calls)-1].query, "INSERT INTO vermi_records") {
		t.Errorf("append went to %q", conn.calls[len(conn.calls)-1].query)
	}
}

type recordingSink struct {
	mu      sync.Mutex
	upserts int
	appends int
	err     error
	block   chan struct{}
}

func (s *recordingSink) Upsert(context.Context, string, Record) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	s.upserts++
	s.mu.Unlock()
	return s.err
}

func (s *recordingSink) Append(context.Context, string, Record) error {
	s.mu.Lock()
	s.appends++
	s.mu.Unlock()
	return s.err
}

func TestMultiSink_WritesAllAndJoinsErrors(t *testing.T) {
	bad := &recordingSink{err: errors.New("down")}
	good := &recordingSink{}
	m := MultiSink{bad, good}

	if err := m.Upsert(context.Background(), "1934", Record{}); err == nil {
		t.Error("expected joined error")
	}
	if err := m.Append(context.Background(), "1934", Record{}); err == nil {
		t.Error("expected joined error")
	}
	if good.upserts != 1 || good.appends != 1 {
		t.Errorf("healthy sink skipped: %+v", good)
	}
}

func TestDispatcher_DropsOverlappingWrites(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, "1934", time.Second, nil)

	if err := d.Dispatch(context.Background(), Batch{Live: Record{}, Append: true}); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if err := d.Dispatch(context.Background(), Batch{Live: Record{}}); !errors.Is(err, ErrBusy) {
		t.Fatalf("second dispatch: got %v, want ErrBusy", err)
	}
	if !d.Busy() {
		t.Error("dispatcher should report busy")
	}

	close(sink.block)
	d.Wait()

	if d.Busy() {
		t.Error("busy flag not cleared")
	}
	if sink.upserts != 1 || sink.appends != 1 {
		t.Errorf("writes: upserts=%d appends=%d", sink.upserts, sink.appends)
	}
	if err := d.Dispatch(context.Background(), Batch{}); err != nil {
		t.Errorf("dispatch after completion: %v", err)
	}
	d.Wait()
}

func TestDispatcher_FailureIsNotFatal(t *testing.T) {
	sink := &recordingSink{err: errors.New("timeout")}
	d := NewDispatcher(sink, "1934", time.Second, nil)
	if err := d.Dispatch(context.Background(), Batch{Append: true}); err != nil {
		t.Fatal(err)
	}
	d.Wait()
	if sink.upserts != 1 || sink.appends != 1 {
		t.Errorf("append should still run after an upsert failure: %+v", sink)
	}
}
