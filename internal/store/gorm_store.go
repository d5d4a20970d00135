package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"shahiengineers/internal/database"
)

// GormUserStore 基于 GORM 的 UserStore 实现。
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore 构造 GormUserStore。
func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

// Create 插入新用户，邮箱冲突时返回 ErrConflict。
func (s *GormUserStore) Create(ctx context.Context, user database.User) (database.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var existing database.User
	err := s.db.WithContext(ctx).Where("email = ?", user.Email).First(&existing).Error
	switch {
	case err == nil:
		return database.User{}, ErrConflict
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return database.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// 唯一索引兜底并发下的重复插入。
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return database.User{}, ErrConflict
		}
		return database.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// FindByEmail 按邮箱查找用户。
func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (database.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user database.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.User{}, ErrNotFound
		}
		return database.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// SetRole 修改用户角色并返回更新后的记录。
func (s *GormUserStore) SetRole(ctx context.Context, email, role string) (database.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return database.User{}, err
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("role", role).Error; err != nil {
		return database.User{}, fmt.Errorf("update role: %w", err)
	}
	user.Role = role
	return user, nil
}

// GormSubmissionStore 基于 GORM 的 SubmissionStore 实现。
type GormSubmissionStore struct {
	db *gorm.DB
}

// NewGormSubmissionStore 构造 GormSubmissionStore。
func NewGormSubmissionStore(db *gorm.DB) *GormSubmissionStore {
	return &GormSubmissionStore{db: db}
}

// AddContact 保存一条留言。
func (s *GormSubmissionStore) AddContact(ctx context.Context, msg database.ContactMessage) (database.ContactMessage, error) {
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return database.ContactMessage{}, fmt.Errorf("create contact: %w", err)
	}
	return msg, nil
}

// ListContacts 按创建时间倒序返回全部留言。
func (s *GormSubmissionStore) ListContacts(ctx context.Context) ([]database.ContactMessage, error) {
	var msgs []database.ContactMessage
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return msgs, nil
}

// GetContact 按 ID 返回留言。
func (s *GormSubmissionStore) GetContact(ctx context.Context, id uint) (database.ContactMessage, error) {
	var msg database.ContactMessage
	if err := s.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.ContactMessage{}, ErrNotFound
		}
		return database.ContactMessage{}, fmt.Errorf("get contact: %w", err)
	}
	return msg, nil
}

// DeleteContact 删除留言，缺失时返回 ErrNotFound。
func (s *GormSubmissionStore) DeleteContact(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&database.ContactMessage{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete contact: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddResume 保存一条简历元数据。
func (s *GormSubmissionStore) AddResume(ctx context.Context, sub database.ResumeSubmission) (database.ResumeSubmission, error) {
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return database.ResumeSubmission{}, fmt.Errorf("create resume submission: %w", err)
	}
	return sub, nil
}

// ListResumes 按创建时间倒序返回全部简历元数据。
func (s *GormSubmissionStore) ListResumes(ctx context.Context) ([]database.ResumeSubmission, error) {
	var subs []database.ResumeSubmission
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list resume submissions: %w", err)
	}
	return subs, nil
}

// GetResume 按 ID 返回简历元数据。
func (s *GormSubmissionStore) GetResume(ctx context.Context, id uint) (database.ResumeSubmission, error) {
	var sub database.ResumeSubmission
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.ResumeSubmission{}, ErrNotFound
		}
		return database.ResumeSubmission{}, fmt.Errorf("get resume submission: %w", err)
	}
	return sub, nil
}

// FindResumeByObjectKey 按存储引用查找简历元数据。
func (s *GormSubmissionStore) FindResumeByObjectKey(ctx context.Context, objectKey string) (database.ResumeSubmission, error) {
	var sub database.ResumeSubmission
	if err := s.db.WithContext(ctx).Where("object_key = ?", objectKey).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.ResumeSubmission{}, ErrNotFound
		}
		return database.ResumeSubmission{}, fmt.Errorf("find resume submission: %w", err)
	}
	return sub, nil
}

// DeleteResume 删除简历元数据，缺失时返回 ErrNotFound。
func (s *GormSubmissionStore) DeleteResume(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&database.ResumeSubmission{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete resume submission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
