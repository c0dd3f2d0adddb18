package logger

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type recordingHub struct {
	mu       sync.Mutex
	messages []string
}

func (h *recordingHub) Broadcast(msgType string, payload any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgType)
	return nil
}

func TestRingBuffer_Overwrite(t *testing.T) {
	rb := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		rb.Push(i)
	}

	got := rb.GetAll()
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("GetAll() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetAll()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if rb.Len() != 3 {
		t.Errorf("Len() = %d, want 3", rb.Len())
	}
}

func TestLogBroadcaster_ParsesAndForwards(t *testing.T) {
	hub := &recordingHub{}
	b := NewLogBroadcaster(nil, 10)
	b.SetHub(hub)

	log := zerolog.New(b).With().Str("component", "gateway").Logger()
	log.Info().Str("route", "/tmdb_search").Msg("upstream request")

	entries := b.GetRecentLogs()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != "info" || e.Component != "gateway" || e.Message != "upstream request" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Fields["route"] != "/tmdb_search" {
		t.Errorf("route field = %v", e.Fields["route"])
	}
	if len(hub.messages) != 1 || hub.messages[0] != EventLogEntry {
		t.Errorf("hub messages = %v", hub.messages)
	}
}

func TestLogBroadcaster_IgnoresGarbage(t *testing.T) {
	b := NewLogBroadcaster(nil, 2)
	n, err := b.Write([]byte("not json"))
	if err != nil || n != len("not json") {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	if len(b.GetRecentLogs()) != 0 {
		t.Error("garbage should not be buffered")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
