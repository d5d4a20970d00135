package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shahiengineers/internal/api/middleware"
	"shahiengineers/internal/database"
	"shahiengineers/internal/storage"
	"shahiengineers/internal/store"
)

// ResumeHandler 负责简历上传、管理端列举、下载与删除。
type ResumeHandler struct {
	submissions store.SubmissionStore
	storage     storage.ObjectStorage
	logger      *slog.Logger
	maxBytes    int64
	allowedExts []string
	clamdAddr   string
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(submissions store.SubmissionStore, objectStorage storage.ObjectStorage, logger *slog.Logger, maxBytes int64, allowedExts []string, clamdAddr string) *ResumeHandler {
	return &ResumeHandler{
		submissions: submissions,
		storage:     objectStorage,
		logger:      logger,
		maxBytes:    maxBytes,
		allowedExts: allowedExts,
		clamdAddr:   clamdAddr,
	}
}

type resumeListItem struct {
	ID               uint      `json:"id"`
	OwnerName        string    `json:"owner_name"`
	OwnerEmail       string    `json:"owner_email"`
	OriginalFilename string    `json:"original_filename"`
	Reference        string    `json:"reference"`
	CreatedAt        time.Time `json:"created_at"`
}

// UploadResume 接收 multipart 字段 resume，先持久化字节再落元数据。
func (h *ResumeHandler) UploadResume(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		Unauthorized(c)
		return
	}

	file, err := c.FormFile("resume")
	if err != nil {
		BadRequest(c, "no file uploaded")
		return
	}

	if h.maxBytes > 0 && file.Size > h.maxBytes {
		BadRequest(c, "file too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !h.extensionAllowed(ext) {
		UnsupportedType(c, "unsupported file type")
		return
	}

	logger := middleware.LoggerFromContext(c).With(
		slog.String("email", claims.Email),
		slog.String("filename", file.Filename),
	)

	if h.clamdAddr != "" {
		infected, err := h.scanUpload(file)
		if err != nil {
			logger.Error("scan file failed", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
		if infected {
			logger.Info("upload rejected: malicious file detected")
			BadRequest(c, "malicious file detected")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		logger.Error("open upload failed", slog.Any("error", err))
		Internal(c, "failed to read file")
		return
	}
	defer reader.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx := c.Request.Context()
	// 引用即对象键：随机 UUID 加原始扩展名，绝不含真实路径。
	objectKey := uuid.NewString() + ext

	// 字节先落地，元数据后写入，避免出现指向空对象的记录。
	if err := h.storage.UploadFile(ctx, objectKey, reader, file.Size, contentType); err != nil {
		logger.Error("upload file failed", slog.Any("error", err))
		Internal(c, "failed to store file")
		return
	}

	sub, err := h.submissions.AddResume(ctx, database.ResumeSubmission{
		OwnerName:        claims.Name,
		OwnerEmail:       claims.Email,
		OriginalFilename: file.Filename,
		ObjectKey:        objectKey,
	})
	if err != nil {
		// 元数据失败时尽力回收已写入的对象。
		if cleanupErr := h.storage.DeleteObject(ctx, objectKey); cleanupErr != nil {
			logger.Error("cleanup orphaned object failed", slog.Any("error", cleanupErr))
		}
		logger.Error("record resume failed", slog.Any("error", err))
		Internal(c, "failed to record upload")
		return
	}

	logger.Info("resume uploaded", slog.Uint64("submission_id", uint64(sub.ID)))
	c.JSON(http.StatusCreated, gin.H{
		"message":   "resume uploaded successfully",
		"reference": objectKey,
	})
}

// ListResumes 返回全部简历元数据（管理员）。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	subs, err := h.submissions.ListResumes(c.Request.Context())
	if err != nil {
		middleware.LoggerFromContext(c).Error("list resumes failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"resumes": newResumeList(subs)})
}

// DownloadResume 按存储引用把字节流式返回给管理员。
// 下载必须经过认证与角色门，不允许静态直出。
func (h *ResumeHandler) DownloadResume(c *gin.Context) {
	objectKey := strings.TrimSpace(c.Param("ref"))
	if objectKey == "" {
		BadRequest(c, "invalid reference")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.String("reference", objectKey))

	sub, err := h.submissions.FindResumeByObjectKey(ctx, objectKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "resume not found")
			return
		}
		logger.Error("resolve reference failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	reader, info, err := h.storage.GetObject(ctx, sub.ObjectKey)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			logger.Error("stored bytes missing for recorded submission")
			NotFound(c, "resume not found")
			return
		}
		logger.Error("get object failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	defer reader.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sub.OriginalFilename))
	c.DataFromReader(http.StatusOK, info.Size, contentType, reader, nil)
}

// DeleteResume 删除简历：元数据与字节一并清理（管理员）。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("submission_id", id))

	sub, err := h.submissions.GetResume(ctx, uint(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "resume not found")
			return
		}
		logger.Error("load resume failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.submissions.DeleteResume(ctx, uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(c, "resume not found")
			return
		}
		logger.Error("delete resume failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.storage.DeleteObject(ctx, sub.ObjectKey); err != nil {
		logger.Error("delete stored bytes failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("resume deleted")
	c.JSON(http.StatusOK, gin.H{"message": "resume deleted"})
}

func (h *ResumeHandler) extensionAllowed(ext string) bool {
	if len(h.allowedExts) == 0 {
		return true
	}
	for _, allowed := range h.allowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (h *ResumeHandler) scanUpload(file *multipart.FileHeader) (bool, error) {
	reader, err := file.Open()
	if err != nil {
		return false, fmt.Errorf("open upload: %w", err)
	}
	defer reader.Close()

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	if err != nil {
		return false, fmt.Errorf("scan stream: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return true, nil
		}
	}
	return false, nil
}

func newResumeList(subs []database.ResumeSubmission) []resumeListItem {
	items := make([]resumeListItem, 0, len(subs))
	for _, sub := range subs {
		items = append(items, resumeListItem{
			ID:               sub.ID,
			OwnerName:        sub.OwnerName,
			OwnerEmail:       sub.OwnerEmail,
			OriginalFilename: sub.OriginalFilename,
			Reference:        sub.ObjectKey,
			CreatedAt:        sub.CreatedAt,
		})
	}
	return items
}
