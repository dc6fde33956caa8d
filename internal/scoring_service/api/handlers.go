package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/Jampi276/pymescore-ai/internal/scoring_service/service"
	"github.com/Jampi276/pymescore-ai/internal/validate"
	"github.com/Jampi276/pymescore-ai/pkg/logger"
)

// Handler groups the HTTP endpoint handlers around the scoring service.
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// RegisterRequest is the JSON body for account registration.
type RegisterRequest struct {
	Name     string `json:"nombre" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates a new account.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RegisterUser(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		if err == service.ErrUserExists {
			c.JSON(http.StatusConflict, gin.H{"error": "El usuario ya existe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Usuario registrado exitosamente"})
}

// LoginRequest is the JSON body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns a signed token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "message": "Inicio de sesión exitoso"})
}

// ValidateRucRequest is the JSON body for RUC validation.
type ValidateRucRequest struct {
	Ruc string `json:"ruc" binding:"required"`
}

// ValidateRuc checks the structural validity of an Ecuadorian RUC.
func (h *Handler) ValidateRuc(c *gin.Context) {
	var req ValidateRucRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valido": validate.RUC(req.Ruc)})
}

// ScrapeSocialRequest is the JSON body for reputation scraping.
type ScrapeSocialRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ScrapeSocial extracts reputation signals from a public profile URL. The
// response is always 200: unreachable pages yield a simulated profile.
func (h *Handler) ScrapeSocial(c *gin.Context) {
	var req ScrapeSocialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	signals := h.service.ScrapeSocial(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, signals)
}

// Analyze receives a financial statement upload plus optional social data and
// returns the structured scoring report.
func (h *Handler) Analyze(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No se recibió ningún archivo"})
		return
	}

	var socialData map[string]interface{}
	if raw := c.PostForm("socialData"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &socialData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "socialData no es un JSON válido"})
			return
		}
	}

	tmpDir, err := os.MkdirTemp("", "pymescore-upload-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Analyze(c.Request.Context(), tmpPath, fileHeader.Filename, socialData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo completar el análisis"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ChatRequest is the JSON body for a chat turn.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message" binding:"required"`
}

// Chat forwards one message to the grounded assistant. A missing or unknown
// sessionId starts a fresh session whose ID is echoed back.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.GetOrCreateChatSession(c.Request.Context(), req.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo crear la sesión de chat"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.ID
	}

	reply := h.service.SendChatMessage(c.Request.Context(), session, req.Message)
	c.JSON(http.StatusOK, gin.H{"respuesta": reply, "sessionId": sessionID})
}

// ChatHistory returns the full history of a session.
func (h *Handler) ChatHistory(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := h.service.GetOrCreateChatSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo recuperar la sesión"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "historial": h.service.ChatHistory(session)})
}

// ClearChat empties a session's history.
func (h *Handler) ClearChat(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := h.service.GetOrCreateChatSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo recuperar la sesión"})
		return
	}

	h.service.ClearChatHistory(session)
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "message": "Historial eliminado"})
}

// Simulate projects an improved scoring for a what-if scenario. Always 200.
func (h *Handler) Simulate(c *gin.Context) {
	var scenario map[string]interface{}
	if err := c.ShouldBindJSON(&scenario); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.service.Simulate(c.Request.Context(), scenario)
	c.JSON(http.StatusOK, result)
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
