package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"ChatterAI/middleware"
	"ChatterAI/models"
	svc "ChatterAI/pkg/services"
	"ChatterAI/pkg/store"

	"github.com/gin-gonic/gin"
)

type conversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type conversationSummaryResponse struct {
	conversationResponse
	LastMessage *string `json:"last_message"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func toConversationResponse(conv models.Conversation) conversationResponse {
	return conversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

func toMessageResponse(m models.Message) messageResponse {
	return messageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func currentUserID(c *gin.Context) string {
	v, _ := c.Get(middleware.ContextUserIDKey)
	uid, _ := v.(string)
	return uid
}

func ListConversations(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)

		summaries, err := st.ListConversations(c.Request.Context(), uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}

		result := make([]conversationSummaryResponse, 0, len(summaries))
		for _, s := range summaries {
			result = append(result, conversationSummaryResponse{
				conversationResponse: toConversationResponse(s.Conversation),
				LastMessage:          s.LastMessage,
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

func CreateConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)

		// title is optional; an absent body is fine too
		var body struct {
			Title string `json:"title"`
		}
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
			return
		}

		conv, err := st.CreateConversation(c.Request.Context(), uid, strings.TrimSpace(body.Title))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}
		c.JSON(http.StatusCreated, toConversationResponse(*conv))
	}
}

func GetConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)
		convID := c.Param("conversation_id")

		conv, msgs, err := st.GetConversation(c.Request.Context(), uid, convID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}

		messages := make([]messageResponse, 0, len(msgs))
		for _, m := range msgs {
			messages = append(messages, toMessageResponse(m))
		}
		c.JSON(http.StatusOK, gin.H{
			"conversation": toConversationResponse(*conv),
			"messages":     messages,
		})
	}
}

// CreateMessage runs one chat turn: persist the user message, generate a
// reply from the trailing history, persist and return the assistant message.
// Generation failure degrades to fallback text; the turn still completes.
func CreateMessage(st *store.Store, assistant *svc.AssistantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)

		var body struct {
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Message content is required"})
			return
		}

		convID := c.Param("conversation_id")
		cid, history, err := st.AppendUserMessage(c.Request.Context(), uid, &convID, body.Content)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}

		reply := assistant.Generate(c.Request.Context(), body.Content, history)

		msg, err := st.AppendAssistantMessage(c.Request.Context(), cid, reply)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			return
		}
		c.JSON(http.StatusCreated, toMessageResponse(*msg))
	}
}
