package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shahiengineers/internal/api/middleware"
	"shahiengineers/internal/auth"
	"shahiengineers/internal/store"
)

// AdminHandler 提供管理端的汇总视图与用户提权。
type AdminHandler struct {
	users       store.UserStore
	submissions store.SubmissionStore
	logger      *slog.Logger
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(users store.UserStore, submissions store.SubmissionStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		users:       users,
		submissions: submissions,
		logger:      logger,
	}
}

// Dashboard 一次性返回留言与简历两份列表。
func (h *AdminHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	msgs, err := h.submissions.ListContacts(ctx)
	if err != nil {
		logger.Error("list contacts failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	subs, err := h.submissions.ListResumes(ctx)
	if err != nil {
		logger.Error("list resumes failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	contacts := make([]contactResponse, 0, len(msgs))
	for _, msg := range msgs {
		contacts = append(contacts, newContactResponse(msg))
	}

	c.JSON(http.StatusOK, gin.H{
		"contacts": contacts,
		"resumes":  newResumeList(subs),
	})
}

// PromoteUser 将指定邮箱的用户提升为管理员。
func (h *AdminHandler) PromoteUser(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if email == "" {
		BadRequest(c, "email is required")
		return
	}

	logger := middleware.LoggerFromContext(c).With(slog.String("email", email))

	user, err := h.users.SetRole(c.Request.Context(), email, auth.RoleAdmin)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "user not found")
			return
		}
		logger.Error("promote user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user promoted to admin", slog.Uint64("user_id", uint64(user.ID)))
	c.JSON(http.StatusOK, gin.H{
		"message": "user promoted",
		"email":   user.Email,
		"role":    user.Role,
	})
}
