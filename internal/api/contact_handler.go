package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shahiengineers/internal/api/middleware"
	"shahiengineers/internal/database"
	"shahiengineers/internal/storage"
	"shahiengineers/internal/store"
)

// ContactHandler 处理联系表单提交与管理端的留言管理。
type ContactHandler struct {
	submissions store.SubmissionStore
	storage     storage.ObjectStorage
	logger      *slog.Logger
}

// NewContactHandler 构造 ContactHandler。
func NewContactHandler(submissions store.SubmissionStore, objectStorage storage.ObjectStorage, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		submissions: submissions,
		storage:     objectStorage,
		logger:      logger,
	}
}

type contactRequest struct {
	Name            string `json:"name" binding:"required,min=1,max=128"`
	Email           string `json:"email" binding:"required,email"`
	Message         string `json:"message" binding:"required,min=1"`
	ResumeReference string `json:"resume_reference"`
}

type contactResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Message         string    `json:"message"`
	ResumeReference string    `json:"resume_reference,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SubmitContact 保存一条留言，可附带此前上传的简历引用。
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	resumeKey := strings.TrimSpace(req.ResumeReference)
	if resumeKey != "" {
		// 引用必须指向已存在的上传记录，防止外部猜测存储键。
		if _, err := h.submissions.FindResumeByObjectKey(ctx, resumeKey); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				BadRequest(c, "unknown resume reference")
				return
			}
			logger.Error("resolve resume reference failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	}

	msg, err := h.submissions.AddContact(ctx, database.ContactMessage{
		Name:            req.Name,
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Message:         req.Message,
		ResumeObjectKey: resumeKey,
	})
	if err != nil {
		logger.Error("create contact failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("contact submitted", slog.Uint64("contact_id", uint64(msg.ID)))
	c.JSON(http.StatusCreated, newContactResponse(msg))
}

// ListContacts 按创建时间倒序返回全部留言（管理员）。
func (h *ContactHandler) ListContacts(c *gin.Context) {
	msgs, err := h.submissions.ListContacts(c.Request.Context())
	if err != nil {
		middleware.LoggerFromContext(c).Error("list contacts failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	items := make([]contactResponse, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, newContactResponse(msg))
	}
	c.JSON(http.StatusOK, gin.H{"contacts": items})
}

// DeleteContact 删除留言；若留言关联了简历，则连同元数据与字节一并清理。
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid contact id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("contact_id", id))

	msg, err := h.submissions.GetContact(ctx, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "contact not found")
			return
		}
		logger.Error("load contact failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.submissions.DeleteContact(ctx, msg.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "contact not found")
			return
		}
		logger.Error("delete contact failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if msg.ResumeObjectKey != "" {
		if err := h.cascadeDeleteResume(c, msg.ResumeObjectKey); err != nil {
			logger.Error("cascade delete resume failed", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	}

	logger.Info("contact deleted")
	c.JSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

// cascadeDeleteResume 先删元数据再删字节：孤立对象可容忍并可重试，
// 指向已删字节的元数据则不可容忍。
func (h *ContactHandler) cascadeDeleteResume(c *gin.Context, objectKey string) error {
	ctx := c.Request.Context()

	sub, err := h.submissions.FindResumeByObjectKey(ctx, objectKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// 元数据已不在，只清理对象。
	case err != nil:
		return err
	default:
		if err := h.submissions.DeleteResume(ctx, sub.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	return h.storage.DeleteObject(ctx, objectKey)
}

func newContactResponse(msg database.ContactMessage) contactResponse {
	return contactResponse{
		ID:              msg.ID,
		Name:            msg.Name,
		Email:           msg.Email,
		Message:         msg.Message,
		ResumeReference: msg.ResumeObjectKey,
		CreatedAt:       msg.CreatedAt,
	}
}
