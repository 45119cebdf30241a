package transporter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ProxymanApp/atlantis-go/internal/domain"
)

func msg(i int) *domain.Message {
	return &domain.Message{ID: fmt.Sprintf("m-%d", i), MessageType: domain.MessageTypeTraffic}
}

func drainAll(t *testing.T, q *sendQueue) []string {
	t.Helper()
	var got []string
	if err := q.DrainInto(func(m *domain.Message) error {
		got = append(got, m.ID)
		return nil
	}); err != nil {
		t.Fatalf("drain: %v", err)
	}
	return got
}

func TestQueueFIFOOverflowKeepsNewestWindow(t *testing.T) {
	q := newSendQueue(5)
	evictions := 0
	for i := 1; i <= 8; i++ {
		if q.Enqueue(msg(i)) {
			evictions++
		}
	}
	if evictions != 3 {
		t.Fatalf("evictions = %d, want 3", evictions)
	}
	got := drainAll(t, q)
	want := []string{"m-4", "m-5", "m-6", "m-7", "m-8"}
	if len(got) != len(want) {
		t.Fatalf("drained %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestQueueDrainStopsOnFailureAndKeepsItem(t *testing.T) {
	q := newSendQueue(10)
	for i := 1; i <= 4; i++ {
		q.Enqueue(msg(i))
	}
	boom := errors.New("broken pipe")
	var sent []string
	err := q.DrainInto(func(m *domain.Message) error {
		if m.ID == "m-3" {
			return boom
		}
		sent = append(sent, m.ID)
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected drain error, got %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("sent %v, want first two only", sent)
	}
	// failed item leads the next flush, nothing lost
	got := drainAll(t, q)
	if len(got) != 2 || got[0] != "m-3" || got[1] != "m-4" {
		t.Fatalf("remaining = %v, want [m-3 m-4]", got)
	}
}

func TestQueueClear(t *testing.T) {
	q := newSendQueue(10)
	for i := 0; i < 5; i++ {
		q.Enqueue(msg(i))
	}
	q.Clear()
	if q.Len() != 0 {
		t.Fatalf("len after clear = %d", q.Len())
	}
}
