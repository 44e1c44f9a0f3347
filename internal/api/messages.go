package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hazemadel/edumsg/internal/messaging"
	"github.com/hazemadel/edumsg/internal/models"
)

// MessageHandler handles message-related routes.
type MessageHandler struct {
	Engine messaging.Engine
	// StudentContentLimit caps student-authored content at this
	// boundary; 0 disables the cap. The store imposes no length limit.
	StudentContentLimit int
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(engine messaging.Engine, studentContentLimit int) *MessageHandler {
	return &MessageHandler{Engine: engine, StudentContentLimit: studentContentLimit}
}

// checkContentLimit enforces the student content cap before anything
// reaches the engine.
func (h *MessageHandler) checkContentLimit(actor models.Actor, content string) bool {
	if h.StudentContentLimit <= 0 || actor.Role != models.RoleStudent {
		return true
	}
	return len([]rune(content)) <= h.StudentContentLimit
}

func (h *MessageHandler) contentLimitError(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    messaging.CodeValidation,
			"message": "content exceeds " + strconv.Itoa(h.StudentContentLimit) + " characters",
		},
	})
}

// SendMessage composes a message: direct or broadcast, one request.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": messaging.CodeValidation, "message": err.Error()},
		})
		return
	}

	if !h.checkContentLimit(actor, req.Content) {
		h.contentLimitError(c)
		return
	}

	result, err := h.Engine.Send(actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ReplyMessage attaches a reply to an existing message.
func (h *MessageHandler) ReplyMessage(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": messaging.CodeValidation, "message": "invalid message ID"},
		})
		return
	}

	var req models.ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": messaging.CodeValidation, "message": err.Error()},
		})
		return
	}

	if !h.checkContentLimit(actor, req.Content) {
		h.contentLimitError(c)
		return
	}

	msg, err := h.Engine.Reply(messageID, actor, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetMessages lists the authenticated actor's messages newest-first.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	opts := messaging.QueryOptions{
		UnreadOnly:     c.Query("unread") == "true",
		ExcludeReplies: c.Query("exclude_replies") == "true",
		Limit:          intQuery(c, "limit"),
	}

	views, err := h.Engine.Messages(actor, opts)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// SearchMessages matches the actor's messages by title/content.
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	views, err := h.Engine.Search(actor, c.Query("q"), intQuery(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": views, "query": c.Query("q")})
}

// GetThread returns a conversation: the original plus its replies.
func (h *MessageHandler) GetThread(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": messaging.CodeValidation, "message": "invalid message ID"},
		})
		return
	}

	thread, err := h.Engine.Thread(messageID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": thread})
}

// MarkMessageAsRead marks a message read for its recipient.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": messaging.CodeValidation, "message": "invalid message ID"},
		})
		return
	}

	if err := h.Engine.MarkRead(messageID, actor); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}

// UnreadCount returns the actor's live unread message count.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	count, err := h.Engine.UnreadCount(actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// Notifications returns the actor's notification feed.
func (h *MessageHandler) Notifications(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entries, err := h.Engine.Notifications(actor, intQuery(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": entries})
}

func intQuery(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
