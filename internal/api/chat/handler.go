package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ragbot/ragbot/internal/domain"
	"github.com/ragbot/ragbot/internal/service"
)

// Handler handles query and conversation API requests
type Handler struct {
	chatService *service.ChatService
}

// NewHandler creates a new chat handler
func NewHandler(chatService *service.ChatService) *Handler {
	return &Handler{chatService: chatService}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/query", h.Query)
	r.POST("/web-search", h.WebSearch)
	r.GET("/conversations", h.ListConversations)
	r.GET("/conversations/:id", h.GetConversation)
}

// Query answers a question over the uploaded documents. The response may
// carry a web-search proposal for the client to confirm via /web-search.
func (h *Handler) Query(c *gin.Context) {
	var req domain.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatService.Query(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// WebSearch resolves a pending web-search proposal with the user's decision
func (h *Handler) WebSearch(c *gin.Context) {
	var req domain.WebSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.chatService.WebSearch(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListConversations returns summaries of all conversations
func (h *Handler) ListConversations(c *gin.Context) {
	summaries, err := h.chatService.ListConversations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// GetConversation returns the full turn history of one conversation
func (h *Handler) GetConversation(c *gin.Context) {
	id := c.Param("id")

	turns, err := h.chatService.History(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(turns) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": id,
		"messages":        turns,
	})
}
