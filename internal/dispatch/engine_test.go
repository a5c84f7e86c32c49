package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/namanbnsl/CrisisNet/internal/detect"
	"github.com/namanbnsl/CrisisNet/internal/social"
)

var testHazards = detect.NewLabelSet([]string{"fire", "flame", "smoke"})

// mockBroadcaster records broadcast calls. errs are consumed one per call;
// a nil entry (or exhausted slice) means success. block, when set, holds the
// call until released.
type mockBroadcaster struct {
	mu    sync.Mutex
	calls []*social.BroadcastRequest
	errs  []error
	block chan struct{}
}

func (b *mockBroadcaster) Broadcast(_ context.Context, req *social.BroadcastRequest) (*social.BroadcastResult, error) {
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, req)
	if len(b.errs) > 0 {
		err := b.errs[0]
		b.errs = b.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &social.BroadcastResult{ID: "post-1"}, nil
}

func (b *mockBroadcaster) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func newTestEngine(b Broadcaster, onSent func(context.Context, SentEvent)) *Engine {
	return NewEngine("sess-1", b, testHazards, 5, onSent, log.Nop(), nil)
}

func hazardBatch(img string) *detect.Batch {
	return &detect.Batch{
		Detections: []detect.Detection{{Label: "fire", Confidence: 0.9}},
		ImageB64:   img,
	}
}

func TestDetections_NoHazardIgnored(t *testing.T) {
	t.Parallel()

	b := &mockBroadcaster{}
	e := newTestEngine(b, nil)

	e.HandleDetections(context.Background(), &detect.Batch{
		Detections: []detect.Detection{{Label: "person", Confidence: 0.99}},
	})

	if got := e.State().Status; got != StatusIdle {
		t.Errorf("status = %q, want idle", got)
	}
	if b.callCount() != 0 {
		t.Error("no broadcast expected without a hazard")
	}
}

func TestDetections_HazardWithLocation_SendsOnce(t *testing.T) {
	t.Parallel()

	b := &mockBroadcaster{}
	var sent []SentEvent
	e := newTestEngine(b, func(_ context.Context, ev SentEvent) { sent = append(sent, ev) })

	e.HandleLocation(context.Background(), 1.0, 2.0)
	e.HandleDetections(context.Background(), hazardBatch("frame-a"))

	if got := e.State().Status; got != StatusSent {
		t.Fatalf("status = %q, want sent", got)
	}
	if b.callCount() != 1 {
		t.Fatalf("broadcasts = %d, want 1", b.callCount())
	}
	req := b.calls[0]
	if req.Lat == nil || *req.Lat != 1.0 || req.Lng == nil || *req.Lng != 2.0 {
		t.Errorf("broadcast coordinates = %+v, want (1.0, 2.0)", req)
	}
	if req.ImageB64 != "frame-a" {
		t.Errorf("image = %q, want frame-a", req.ImageB64)
	}
	if len(sent) != 1 || sent[0].SessionID != "sess-1" || sent[0].PostID != "post-1" {
		t.Errorf("onSent events = %+v, want one for sess-1/post-1", sent)
	}
}

func TestDetections_HazardBeforeLocation_QueuesThenSends(t *testing.T) {
	t.Parallel()

	b := &mockBroadcaster{}
	e := newTestEngine(b, nil)

	e.HandleDetections(context.Background(), hazardBatch("frame-a"))

	if got := e.State().Status; got != StatusQueued {
		t.Fatalf("status = %q, want queued_for_location", got)
	}
	if b.callCount() != 0 {
		t.Fatal("no broadcast may happen before the location resolves")
	}

	e.HandleLocation(context.Background(), 1.0, 2.0)

	if got := e.State().Status; got != StatusSent {
		t.Fatalf("status = %q, want sent", got)
	}
	if b.callCount() != 1 {
		t.Fatalf("broadcasts = %d, want exactly 1", b.callCount())
	}
	req := b.calls[0]
	if *req.Lat != 1.0 || *req.Lng != 2.0 || req.ImageB64 != "frame-a" {
		t.Errorf("deferred send payload = %+v, want (1.0, 2.0) with queued frame", req)
	}
}

func TestQueued_LatestFrameWins(t *testing.T) {
	t.Parallel()

	b := &mockBroadcaster{}
	e := newTestEngine(b, nil)

	e.HandleDetections(context.Background(), hazardBatch("frame-1"))
	e.HandleDetections(context.Background(), hazardBatch("frame-2"))
	e.HandleLocation(context.Background(), 1.0, 2.0)

	if b.callCount() != 1 {
		t.Fatalf("broadcasts = %d, want 1", b.callCount())
	}
	if got := b.calls[0].ImageB64; got != "frame-2" {
		t.Errorf("image = %q, want the latest queued frame", got)
	}
}

func TestSent_IsAbsorbing(t *testing.T) {
	t.Parallel()

	b := &mockBroadcaster{}
	e := newTestEngine(b, nil)

	e.HandleLocation(context.Background(), 1.0, 2.0)
	e.HandleDetections(context.Background(), hazardBatch(""))
	if b.callCount() != 1 {
		t.Fatalf("broadcasts = %d, want 1", b.callCount())
	}

	// Any further hazard or manual trigger must produce zero extra posts.
	e.HandleDetections(context.Background(), hazardBatch("late-frame"))
	e.HandleManual(context.Background())
	e.HandleLocation(context.Background(), 9.0, 9.0)

	if b.callCount() != 1 {
		t.Errorf("broadcasts = %d after extra triggers, want still 1", b.callCount())
	}
	if got := e.State().Status; got != StatusSent {
		t.Errorf("status = %q, want sent", got)
	}
}

func TestSendFailure_ResetsAndAllowsRetry(t *testing.T) {
	t.Parallel()

	b := &mockBroadcaster{errs: []error{errors.New("503 from service")}}
	e := newTestEngine(b, nil)

	e.HandleLocation(context.Background(), 1.0, 2.0)
	e.HandleDetections(context.Background(), hazardBatch(""))

	st := e.State()
	if st.Status != StatusIdle {
		t.Fatalf("status after failure = %q, want idle (auto-reset)", st.Status)
	}
	if st.Err == "" {
		t.Fatal("expected the failure text to stay visible")
	}

	// A following hazard with known location triggers exactly one new attempt.
	e.HandleDetections(context.Background(), hazardBatch(""))

	if b.callCount() != 2 {
		t.Fatalf("broadcasts = %d, want 2 (one failed, one retried)", b.callCount())
	}
	st = e.State()
	if st.Status != StatusSent {
		t.Errorf("status = %q, want sent", st.Status)
	}
	if st.Err != "" {
		t.Errorf("Err = %q, want cleared after success", st.Err)
	}
}

func TestSending_BlocksConcurrentAttempts(t *testing.T) {
	t.Parallel()

	b := &mockBroadcaster{block: make(chan struct{})}
	e := newTestEngine(b, nil)
	e.HandleLocation(context.Background(), 1.0, 2.0)

	done := make(chan struct{})
	go func() {
		e.HandleDetections(context.Background(), hazardBatch(""))
		close(done)
	}()

	// Wait for the in-flight send to become visible.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.State().Status == StatusSending {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := e.State().Status; got != StatusSending {
		t.Fatalf("status = %q, want sending", got)
	}

	// Manual and automatic triggers during sending are no-ops.
	e.HandleManual(context.Background())
	e.HandleDetections(context.Background(), hazardBatch(""))

	close(b.block)
	<-done

	if b.callCount() != 1 {
		t.Errorf("broadcasts = %d, want 1 (triggers during sending are dropped)", b.callCount())
	}
	if got := e.State().Status; got != StatusSent {
		t.Errorf("status = %q, want sent", got)
	}
}

func TestManual_QueuesWithoutLocation(t *testing.T) {
	t.Parallel()

	b := &mockBroadcaster{}
	e := newTestEngine(b, nil)

	e.HandleManual(context.Background())

	if got := e.State().Status; got != StatusQueued {
		t.Fatalf("status = %q, want queued_for_location", got)
	}
	if b.callCount() != 0 {
		t.Fatal("manual trigger without location must not broadcast")
	}

	e.HandleLocation(context.Background(), 4.0, 5.0)
	if b.callCount() != 1 {
		t.Fatalf("broadcasts = %d, want 1 after location resolves", b.callCount())
	}
}

func TestSessions_LazyCreationAndReuse(t *testing.T) {
	t.Parallel()

	var created int
	s := NewSessions(func(id string) *Engine {
		created++
		return newTestEngine(&mockBroadcaster{}, nil)
	})

	a := s.Get("sess-a")
	if s.Get("sess-a") != a {
		t.Error("expected the same engine for the same session id")
	}
	if s.Get("sess-b") == a {
		t.Error("expected distinct engines per session")
	}
	if created != 2 {
		t.Errorf("factory calls = %d, want 2", created)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}
