package store

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Jampi276/pymescore-ai/internal/rag/pipeline"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

type noopEmbedder struct{}

func (noopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}
func (noopEmbedder) Dimension() int { return 2 }

type noopLLM struct{}

func (noopLLM) Generate(ctx context.Context, prompt string) (string, error) { return "ok", nil }

type slowLLM struct{ delay time.Duration }

func (s slowLLM) Generate(ctx context.Context, prompt string) (string, error) {
	time.Sleep(s.delay)
	return "ok", nil
}

type noopVectorStore struct{}

func (noopVectorStore) GetOrCreateCollection(ctx context.Context, name string) error { return nil }
func (noopVectorStore) Add(ctx context.Context, collection string, docs []*schema.Document) error {
	return nil
}
func (noopVectorStore) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]*schema.RetrievedMatch, error) {
	return nil, nil
}
func (noopVectorStore) Clear(ctx context.Context, collection string) error { return nil }

func registryTestLogger() *logger.Logger {
	logger.Init(logrus.ErrorLevel)
	return logger.New("test", "")
}

// newLiveSession creates a session through the chat engine so its activity
// timestamp is set the same way production sessions get theirs.
func newLiveSession(t *testing.T) *pipeline.Session {
	t.Helper()
	log := registryTestLogger()
	retrieval := pipeline.NewRetrievalPipeline(noopEmbedder{}, noopVectorStore{}, 3, 0.7, log)
	engine := pipeline.NewChatEngine(retrieval, noopLLM{}, noopVectorStore{}, 4, time.Minute, log)
	session, err := engine.NewSession(context.Background(), "docs")
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return session
}

func TestSessionRegistryEvictsLRUOverCap(t *testing.T) {
	r := NewSessionRegistry(2, 0, registryTestLogger())

	r.Put("a", newLiveSession(t))
	r.Put("b", newLiveSession(t))
	r.Put("c", newLiveSession(t))

	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if _, ok := r.Get("a"); ok {
		t.Errorf("oldest session should have been evicted")
	}
	for _, id := range []string{"b", "c"} {
		if _, ok := r.Get(id); !ok {
			t.Errorf("session %q should still be registered", id)
		}
	}
}

func TestSessionRegistryGetRefreshesRecency(t *testing.T) {
	r := NewSessionRegistry(2, 0, registryTestLogger())

	r.Put("a", newLiveSession(t))
	r.Put("b", newLiveSession(t))
	r.Get("a") // a becomes most recently used
	r.Put("c", newLiveSession(t))

	if _, ok := r.Get("b"); ok {
		t.Errorf("b was least recently used and should have been evicted")
	}
	if _, ok := r.Get("a"); !ok {
		t.Errorf("a was refreshed and should survive")
	}
}

func TestSessionRegistrySweepsIdleSessions(t *testing.T) {
	r := NewSessionRegistry(10, time.Millisecond, registryTestLogger())

	r.Put("idle", newLiveSession(t))
	time.Sleep(10 * time.Millisecond)
	r.Put("fresh", newLiveSession(t))

	if _, ok := r.Get("idle"); ok {
		t.Errorf("idle session should have been swept on insert")
	}
	if _, ok := r.Get("fresh"); !ok {
		t.Errorf("fresh session should survive the sweep")
	}
}

// Registry sweeps read each session's activity timestamp. A session busy
// inside Send holds its own mutex across the generation call, and that must
// not stall unrelated Put traffic.
func TestSessionRegistryPutNotBlockedByInFlightSend(t *testing.T) {
	log := registryTestLogger()
	retrieval := pipeline.NewRetrievalPipeline(noopEmbedder{}, noopVectorStore{}, 3, 0.7, log)
	engine := pipeline.NewChatEngine(retrieval, slowLLM{delay: time.Second}, noopVectorStore{}, 4, time.Minute, log)

	busy, err := engine.NewSession(context.Background(), "docs")
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	r := NewSessionRegistry(10, time.Hour, registryTestLogger())
	r.Put(busy.ID, busy)

	done := make(chan struct{})
	go func() {
		engine.Send(context.Background(), busy, "hola")
		close(done)
	}()
	time.Sleep(50 * time.Millisecond) // let Send take the session mutex

	start := time.Now()
	r.Put("other", newLiveSession(t))
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Put blocked for %v behind an in-flight Send", elapsed)
	}
	<-done
}

func TestSessionRegistryPutReplacesAndDelete(t *testing.T) {
	r := NewSessionRegistry(4, 0, registryTestLogger())

	first := newLiveSession(t)
	second := newLiveSession(t)
	r.Put("x", first)
	r.Put("x", second)

	if r.Len() != 1 {
		t.Fatalf("Len = %d after replacing same ID, want 1", r.Len())
	}
	got, _ := r.Get("x")
	if got != second {
		t.Errorf("Put with existing ID should replace the session")
	}

	r.Delete("x")
	if _, ok := r.Get("x"); ok {
		t.Errorf("deleted session still present")
	}
	r.Delete("x") // absent delete is a no-op
}
