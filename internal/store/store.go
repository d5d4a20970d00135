package store

import (
	"context"
	"errors"

	"shahiengineers/internal/database"
)

// 存储层的统一错误，由处理器映射为 HTTP 状态码。
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// UserStore 定义账号记录的持久化能力。
type UserStore interface {
	// Create 插入新用户；邮箱（不区分大小写）已存在时返回 ErrConflict。
	Create(ctx context.Context, user database.User) (database.User, error)
	// FindByEmail 按邮箱（不区分大小写）查找用户；缺失时返回 ErrNotFound。
	FindByEmail(ctx context.Context, email string) (database.User, error)
	// SetRole 修改用户角色；用户缺失时返回 ErrNotFound。
	SetRole(ctx context.Context, email, role string) (database.User, error)
}

// SubmissionStore 定义留言与简历元数据的持久化能力。
// 简历字节本身存放在对象存储，这里只保存 ObjectKey 引用。
type SubmissionStore interface {
	AddContact(ctx context.Context, msg database.ContactMessage) (database.ContactMessage, error)
	ListContacts(ctx context.Context) ([]database.ContactMessage, error)
	GetContact(ctx context.Context, id uint) (database.ContactMessage, error)
	DeleteContact(ctx context.Context, id uint) error

	AddResume(ctx context.Context, sub database.ResumeSubmission) (database.ResumeSubmission, error)
	ListResumes(ctx context.Context) ([]database.ResumeSubmission, error)
	GetResume(ctx context.Context, id uint) (database.ResumeSubmission, error)
	FindResumeByObjectKey(ctx context.Context, objectKey string) (database.ResumeSubmission, error)
	DeleteResume(ctx context.Context, id uint) error
}
