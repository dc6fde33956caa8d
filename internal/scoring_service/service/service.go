package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jampi276/pymescore-ai/internal/config"
	"github.com/Jampi276/pymescore-ai/internal/models"
	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/internal/rag/loaders"
	"github.com/Jampi276/pymescore-ai/internal/rag/pipeline"
	"github.com/Jampi276/pymescore-ai/internal/rag/schema"
	"github.com/Jampi276/pymescore-ai/internal/rag/splitters"
	"github.com/Jampi276/pymescore-ai/internal/scoring_service/store"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

// ErrInvalidCredentials is returned for unknown accounts and wrong passwords
// alike, so login failures do not reveal which one happened.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// ErrUserExists is returned when registering an email that already has an
// account.
var ErrUserExists = fmt.Errorf("user already exists")

// Service wires the RAG pipelines, document loaders, scraper and stores into
// the operations the HTTP layer exposes.
type Service struct {
	log *logger.Logger
	cfg *config.AppConfig

	vectorStore interfaces.VectorStore
	indexing    *pipeline.IndexingPipeline
	retrieval   *pipeline.RetrievalPipeline
	chat        *pipeline.ChatEngine
	scoring     *pipeline.ScoringPipeline

	pdfLoader  *loaders.PdfLoader
	xlsxLoader *loaders.XlsxLoader
	scraper    *loaders.WebScraper

	users    store.UserStore
	sessions *store.SessionRegistry

	jwtSecret []byte

	// indexMu serializes batched writes so concurrent uploads cannot
	// interleave partial batches into one collection.
	indexMu sync.Mutex
}

// New assembles a Service from its capability backends.
func New(
	cfg *config.AppConfig,
	embedder interfaces.EmbeddingModel,
	llm interfaces.LLM,
	vectorStore interfaces.VectorStore,
	users store.UserStore,
	jwtSecret []byte,
	log *logger.Logger,
) *Service {
	splitter := splitters.NewCharacterSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap, cfg.Chunking.Backoff)
	retrieval := pipeline.NewRetrievalPipeline(embedder, vectorStore, cfg.Retrieval.MaxResults, cfg.Retrieval.RelevanceThreshold, log)

	return &Service{
		log:         log,
		cfg:         cfg,
		vectorStore: vectorStore,
		indexing:    pipeline.NewIndexingPipeline(splitter, embedder, vectorStore, log),
		retrieval:   retrieval,
		chat:        pipeline.NewChatEngine(retrieval, llm, vectorStore, cfg.Chat.HistoryWindow, cfg.LLMTimeout(), log),
		scoring:     pipeline.NewScoringPipeline(llm, cfg.LLMTimeout(), log),
		pdfLoader:   loaders.NewPdfLoader(),
		xlsxLoader:  loaders.NewXlsxLoader(),
		scraper:     loaders.NewWebScraper(log),
		users:       users,
		sessions:    store.NewSessionRegistry(cfg.Chat.MaxSessions, time.Duration(cfg.Chat.SessionIdleTTL)*time.Second, log),
		jwtSecret:   jwtSecret,
	}
}

// DefaultCollection returns the configured logical collection name.
func (s *Service) DefaultCollection() string {
	return s.cfg.VectorStore.CollectionName
}

// CreateOrGetCollection makes sure the named collection exists.
func (s *Service) CreateOrGetCollection(ctx context.Context, name string) error {
	return s.vectorStore.GetOrCreateCollection(ctx, name)
}

// ClearCollection removes the named collection and everything in it.
func (s *Service) ClearCollection(ctx context.Context, name string) error {
	return s.vectorStore.Clear(ctx, name)
}

// IndexDocuments chunks and indexes the sources into the collection. Write
// batches are serialized across callers.
func (s *Service) IndexDocuments(ctx context.Context, collection string, sources []*schema.SourceDocument) (bool, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.indexing.Run(ctx, collection, sources)
}

// ExtractDocumentText turns an uploaded statement file into plain text. The
// format is sniffed from content, not the file name. Extraction never fails
// loudly: unsupported or unreadable files yield an empty string, which
// callers must treat as "no content".
func (s *Service) ExtractDocumentText(ctx context.Context, path string) string {
	kind, err := mimetype.DetectFile(path)
	if err != nil {
		s.log.Warn(fmt.Sprintf("could not sniff file type of %s: %v", path, err))
		return ""
	}

	var docs []*schema.Document
	switch {
	case kind.Is("application/pdf"):
		docs, err = s.pdfLoader.Load(ctx, path)
	case kind.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		docs, err = s.xlsxLoader.Load(ctx, path)
	default:
		s.log.Warn(fmt.Sprintf("unsupported document type %s for %s", kind.String(), filepath.Base(path)))
		return ""
	}
	if err != nil {
		s.log.Warn(fmt.Sprintf("text extraction failed for %s: %v", filepath.Base(path), err))
		return ""
	}
	return loaders.PlainText(docs)
}

// ScrapeSocial extracts reputation signals from a URL; it always returns a
// profile, simulated when the page is unreachable.
func (s *Service) ScrapeSocial(ctx context.Context, url string) *models.SocialSignals {
	return s.scraper.Scrape(ctx, url)
}

// GenerateScoring produces the structured risk report for the given inputs.
func (s *Service) GenerateScoring(ctx context.Context, financialText string, socialData map[string]interface{}) *models.ScoringResult {
	return s.scoring.GenerateScoring(ctx, financialText, socialData)
}

// Simulate projects an improved scoring for a what-if scenario.
func (s *Service) Simulate(ctx context.Context, scenario map[string]interface{}) *models.SimulationResult {
	return s.scoring.Simulate(ctx, scenario)
}

// Analyze runs the full analysis path for an uploaded statement: extract the
// text, index it (plus the social profile when given) into the default
// collection, then produce the scoring report.
func (s *Service) Analyze(ctx context.Context, filePath, fileName string, socialData map[string]interface{}) (*models.ScoringResult, error) {
	text := s.ExtractDocumentText(ctx, filePath)

	sources := []*schema.SourceDocument{
		{
			Content: text,
			Metadata: map[string]interface{}{
				schema.MetadataKeyDocType:  "estado_financiero",
				schema.MetadataKeyFileName: fileName,
			},
		},
	}
	if len(socialData) > 0 {
		url, _ := socialData["url"].(string)
		sources = append(sources, &schema.SourceDocument{
			Content: serializeSocialData(socialData),
			Metadata: map[string]interface{}{
				schema.MetadataKeyDocType: "datos_sociales",
				"url":                     url,
			},
		})
	}

	if _, err := s.IndexDocuments(ctx, s.DefaultCollection(), sources); err != nil {
		return nil, err
	}

	return s.GenerateScoring(ctx, text, socialData), nil
}

// CreateChatSession starts a session on the collection and registers it under
// the given external ID (a fresh one when empty).
func (s *Service) CreateChatSession(ctx context.Context, externalID, collection string) (*pipeline.Session, error) {
	if collection == "" {
		collection = s.DefaultCollection()
	}
	session, err := s.chat.NewSession(ctx, collection)
	if err != nil {
		return nil, err
	}
	if externalID == "" {
		externalID = session.ID
	}
	s.sessions.Put(externalID, session)
	return session, nil
}

// GetOrCreateChatSession returns the registered session for the ID, creating
// and registering a new one when absent.
func (s *Service) GetOrCreateChatSession(ctx context.Context, externalID string) (*pipeline.Session, error) {
	if session, ok := s.sessions.Get(externalID); ok {
		return session, nil
	}
	return s.CreateChatSession(ctx, externalID, "")
}

// SendChatMessage forwards one message to the session and returns the reply
// (or the fixed apology on failure).
func (s *Service) SendChatMessage(ctx context.Context, session *pipeline.Session, message string) string {
	return s.chat.Send(ctx, session, message)
}

// ChatHistory returns a copy of the session's full history.
func (s *Service) ChatHistory(session *pipeline.Session) []pipeline.Message {
	return s.chat.History(session)
}

// ClearChatHistory empties the session's history.
func (s *Service) ClearChatHistory(session *pipeline.Session) bool {
	return s.chat.ClearHistory(session)
}

// RegisterUser creates an account with a bcrypt-hashed password.
func (s *Service) RegisterUser(ctx context.Context, name, email, password string) error {
	if _, err := s.users.Get(ctx, email); err == nil {
		return ErrUserExists
	} else if err != store.ErrUserNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.Put(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	})
}

// LoginUser verifies the credentials and issues a signed token.
func (s *Service) LoginUser(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.Get(ctx, email)
	if err == store.ErrUserNotFound {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub": user.Email,
		"exp": time.Now().Add(time.Duration(s.cfg.Auth.TokenTTL) * time.Second).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a token, returning the subject email.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	email, _ := claims["sub"].(string)
	return email, nil
}

// serializeSocialData renders the social profile as indexed text, one field
// per line. Keys are sorted so the same profile always produces the same
// text and the same embedding.
func serializeSocialData(socialData map[string]interface{}) string {
	keys := make([]string, 0, len(socialData))
	for key := range socialData {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(fmt.Sprintf("%s: %v\n", key, socialData[key]))
	}
	return sb.String()
}
