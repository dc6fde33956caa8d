package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jampi276/pymescore-ai/internal/config"
	"github.com/Jampi276/pymescore-ai/internal/models"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/internal/scoring_service/store"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}
func (stubEmbedder) Dimension() int { return 2 }

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type recordingVectorStore struct {
	added map[string][]*schema.Document
}

func (r *recordingVectorStore) GetOrCreateCollection(ctx context.Context, name string) error {
	return nil
}
func (r *recordingVectorStore) Add(ctx context.Context, collection string, docs []*schema.Document) error {
	if r.added == nil {
		r.added = make(map[string][]*schema.Document)
	}
	r.added[collection] = append(r.added[collection], docs...)
	return nil
}
func (r *recordingVectorStore) Query(ctx context.Context, collection string, embedding []float32, topK int) ([]*schema.RetrievedMatch, error) {
	return nil, nil
}
func (r *recordingVectorStore) Clear(ctx context.Context, collection string) error { return nil }

func newTestService(t *testing.T, llm *stubLLM) (*Service, *recordingVectorStore) {
	t.Helper()
	logger.Init(logrus.ErrorLevel)
	vs := &recordingVectorStore{}
	svc := New(config.Default(), stubEmbedder{}, llm, vs, store.NewInMemoryUserStore(), []byte("test-secret"), logger.New("test", ""))
	return svc, vs
}

func TestAnalyzeUnreadableUploadStillScores(t *testing.T) {
	svc, vs := newTestService(t, &stubLLM{err: assert.AnError})

	// A plain text file is not a supported statement format; extraction
	// yields no content, and with generation also failing the caller still
	// gets the deterministic default report.
	path := filepath.Join(t.TempDir(), "notas.txt")
	require.NoError(t, os.WriteFile(path, []byte("no es un estado financiero"), 0o644))

	result, err := svc.Analyze(context.Background(), path, "notas.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultScoringResult(), result)
	assert.Empty(t, vs.added[svc.DefaultCollection()])
}

func TestAnalyzeIndexesSocialData(t *testing.T) {
	svc, vs := newTestService(t, &stubLLM{err: assert.AnError})

	path := filepath.Join(t.TempDir(), "perfil.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	social := map[string]interface{}{"url": "https://pyme.ec", "tipo_sitio": "corporativo"}
	_, err := svc.Analyze(context.Background(), path, "perfil.txt", social)
	require.NoError(t, err)

	docs := vs.added[svc.DefaultCollection()]
	require.NotEmpty(t, docs)
	assert.Equal(t, "datos_sociales", docs[0].Metadata[schema.MetadataKeyDocType])
	assert.Contains(t, docs[0].Text, "tipo_sitio: corporativo\nurl: https://pyme.ec")
}

func TestSerializeSocialDataIsDeterministic(t *testing.T) {
	social := map[string]interface{}{
		"url":        "https://pyme.ec",
		"seguidores": 1200,
		"tipo_sitio": "corporativo",
		"activo":     true,
	}

	want := "activo: true\nseguidores: 1200\ntipo_sitio: corporativo\nurl: https://pyme.ec\n"
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, serializeSocialData(social))
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t, &stubLLM{reply: "ok"})
	ctx := context.Background()

	require.NoError(t, svc.RegisterUser(ctx, "María", "maria@pyme.ec", "secreto123"))
	assert.Equal(t, ErrUserExists, svc.RegisterUser(ctx, "Otra", "maria@pyme.ec", "otra456wx"))
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestService(t, &stubLLM{reply: "ok"})
	ctx := context.Background()

	require.NoError(t, svc.RegisterUser(ctx, "María", "maria@pyme.ec", "secreto123"))

	token, err := svc.LoginUser(ctx, "maria@pyme.ec", "secreto123")
	require.NoError(t, err)

	email, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "maria@pyme.ec", email)

	_, err = svc.LoginUser(ctx, "maria@pyme.ec", "incorrecta")
	assert.Equal(t, ErrInvalidCredentials, err)
	_, err = svc.LoginUser(ctx, "nadie@pyme.ec", "secreto123")
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = svc.VerifyToken("no.es.jwt")
	assert.Error(t, err)
}

func TestGetOrCreateChatSessionReuses(t *testing.T) {
	svc, _ := newTestService(t, &stubLLM{reply: "respuesta"})
	ctx := context.Background()

	first, err := svc.GetOrCreateChatSession(ctx, "cliente-1")
	require.NoError(t, err)
	again, err := svc.GetOrCreateChatSession(ctx, "cliente-1")
	require.NoError(t, err)
	assert.Same(t, first, again)

	other, err := svc.GetOrCreateChatSession(ctx, "cliente-2")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}
