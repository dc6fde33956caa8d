package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

func testLogger() *logger.Logger {
	logger.Init(logrus.ErrorLevel)
	return logger.New("test", "")
}

// fakeEmbedder returns a fixed-dimension vector; texts containing failOn
// produce an error instead.
type fakeEmbedder struct {
	dim    int
	failOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, fmt.Errorf("embedding unavailable")
	}
	vec := make([]float32, f.dim)
	vec[0] = 1
	return vec, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

// fakeLLM replies with a canned string and records the last prompt.
type fakeLLM struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeVectorStore is an in-memory VectorStore whose query results are
// preconfigured per test.
type fakeVectorStore struct {
	mu          sync.Mutex
	collections map[string]bool
	added       map[string][]*schema.Document
	matches     []*schema.RetrievedMatch

	createErr error
	addErr    error
	queryErr  error
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		collections: make(map[string]bool),
		added:       make(map[string][]*schema.Document),
	}
}

func (f *fakeVectorStore) GetOrCreateCollection(ctx context.Context, name string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[name] = true
	return nil
}

func (f *fakeVectorStore) Add(ctx context.Context, collection string, docs []*schema.Document) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added[collection] = append(f.added[collection], docs...)
	return nil
}

func (f *fakeVectorStore) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]*schema.RetrievedMatch, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if topK > 0 && len(f.matches) > topK {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

func (f *fakeVectorStore) Clear(ctx context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.collections, collection)
	delete(f.added, collection)
	return nil
}
