package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Jampi276/pymescore-ai/internal/rag/interfaces"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

const (
	// RoleUser and RoleAssistant are the two message roles a session records.
	RoleUser      = "usuario"
	RoleAssistant = "asistente"

	// msgEmptyInput is returned for blank or whitespace-only input.
	msgEmptyInput = "Por favor, envía un mensaje válido."
	// msgChatFailure is the fixed user-facing apology for any internal
	// failure; raw error text never reaches the user.
	msgChatFailure = "Lo siento, ocurrió un error al procesar tu consulta. Por favor, intenta nuevamente."
)

// persona is the fixed system preamble of every chat prompt. Not configurable.
const persona = `Eres un asistente financiero especializado en evaluación de riesgos de PYMEs (Pequeñas y Medianas Empresas).

Tu rol es:
- Analizar datos financieros y no tradicionales de empresas
- Evaluar riesgos crediticios de forma objetiva
- Proporcionar insights sobre capacidad de pago
- Explicar scoring y factores de riesgo de manera clara
- Responder de forma profesional pero amigable
- Usar emojis ocasionales para hacer las respuestas más accesibles

Siempre basa tus respuestas en los datos proporcionados y mantén un enfoque analítico y objetivo.`

// Message is one chat exchange entry. Sequence numbers increase strictly
// within a session.
type Message struct {
	Role     string `json:"rol"`
	Content  string `json:"contenido"`
	Sequence int    `json:"secuencia"`
}

// Session is a stateful conversation bound to one collection. History is
// append-only and retained in full for the life of the session; only the
// recency window is re-injected into prompts. The mutex serializes Send so
// history always reflects one complete exchange at a time.
type Session struct {
	ID         string
	Collection string

	mu      sync.Mutex
	history []Message
	nextSeq int

	// lastActive holds unix nanoseconds. It is read by registry sweeps while
	// Send may be holding the session mutex across a generation call, so it
	// must not require the mutex.
	lastActive atomic.Int64
}

// LastActive reports when the session last processed a message.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// ChatEngine builds grounded prompts from retrieved context and conversation
// history, and invokes the generation capability.
type ChatEngine struct {
	retrieval *RetrievalPipeline
	llm       interfaces.LLM
	store     interfaces.VectorStore
	log       *logger.Logger

	historyWindow int
	llmTimeout    time.Duration
}

// NewChatEngine creates a ChatEngine.
func NewChatEngine(
	retrieval *RetrievalPipeline,
	llm interfaces.LLM,
	store interfaces.VectorStore,
	historyWindow int,
	llmTimeout time.Duration,
	log *logger.Logger,
) *ChatEngine {
	if historyWindow <= 0 {
		historyWindow = 4
	}
	return &ChatEngine{
		retrieval:     retrieval,
		llm:           llm,
		store:         store,
		log:           log,
		historyWindow: historyWindow,
		llmTimeout:    llmTimeout,
	}
}

// NewSession binds a new conversation to the named collection, creating the
// collection when absent. Collection creation failures are fatal.
func (e *ChatEngine) NewSession(ctx context.Context, collection string) (*Session, error) {
	if err := e.store.GetOrCreateCollection(ctx, collection); err != nil {
		return nil, err
	}
	session := &Session{
		ID:         uuid.New().String(),
		Collection: collection,
	}
	session.touch()
	e.log.Info(fmt.Sprintf("chat session %s created on collection '%s'", session.ID, collection))
	return session, nil
}

// Send processes one user message and returns the assistant reply. Blank
// input and internal failures both produce fixed user-facing strings; history
// is only mutated after a fully successful exchange.
func (e *ChatEngine) Send(ctx context.Context, session *Session, message string) string {
	if strings.TrimSpace(message) == "" {
		return msgEmptyInput
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch()

	contextBlock, err := e.retrieval.RelevantContext(ctx, session.Collection, message)
	if err != nil {
		e.log.Error(fmt.Sprintf("context retrieval failed for session %s: %v", session.ID, err))
		return msgChatFailure
	}

	prompt := e.buildPrompt(contextBlock, e.recentHistory(session), message)

	genCtx := ctx
	if e.llmTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, e.llmTimeout)
		defer cancel()
	}

	reply, err := e.llm.Generate(genCtx, prompt)
	if err != nil {
		e.log.Error(fmt.Sprintf("generation failed for session %s: %v", session.ID, err))
		return msgChatFailure
	}

	session.append(RoleUser, message)
	session.append(RoleAssistant, reply)
	return reply
}

// History returns a copy of the full session history.
func (e *ChatEngine) History(session *Session) []Message {
	session.mu.Lock()
	defer session.mu.Unlock()
	history := make([]Message, len(session.history))
	copy(history, session.history)
	return history
}

// ClearHistory empties the session history. It reports false only for a nil
// session.
func (e *ChatEngine) ClearHistory(session *Session) bool {
	if session == nil {
		return false
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.history = nil
	session.nextSeq = 0
	e.log.Info(fmt.Sprintf("history cleared for session %s", session.ID))
	return true
}

// append records a message. Callers hold the session mutex.
func (s *Session) append(role, content string) {
	s.history = append(s.history, Message{Role: role, Content: content, Sequence: s.nextSeq})
	s.nextSeq++
}

// recentHistory renders the last historyWindow messages oldest-first, or an
// explicit statement that there is none. Callers hold the session mutex.
func (e *ChatEngine) recentHistory(session *Session) string {
	if len(session.history) == 0 {
		return "No hay historial previo."
	}

	start := len(session.history) - e.historyWindow
	if start < 0 {
		start = 0
	}

	var sb strings.Builder
	for _, msg := range session.history[start:] {
		label := "Usuario"
		if msg.Role == RoleAssistant {
			label = "Asistente"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n\n", label, msg.Content))
	}
	return sb.String()
}

// buildPrompt assembles the grounded prompt: persona, retrieved context,
// recent history, grounding instructions and the user query.
func (e *ChatEngine) buildPrompt(contextBlock, historyBlock, query string) string {
	var sb strings.Builder

	sb.WriteString(persona)
	sb.WriteString("\n\nContexto de documentos financieros:\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n\nHistorial de conversación reciente:\n")
	sb.WriteString(historyBlock)
	sb.WriteString("\n\nConsulta del usuario: ")
	sb.WriteString(query)
	sb.WriteString(`

Instrucciones específicas:
1. Responde basándote principalmente en el contexto proporcionado
2. Si no tienes información suficiente, indícalo claramente
3. Para análisis financieros, menciona específicamente qué datos usas
4. Incluye recomendaciones prácticas cuando sea apropiado
5. Mantén un tono profesional pero accesible
6. Usa formato Markdown para mejorar la legibilidad

Respuesta:`)

	return sb.String()
}
