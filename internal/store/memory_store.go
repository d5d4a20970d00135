package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shahiengineers/internal/database"
)

// MemoryUserStore 是 UserStore 的进程内实现，供测试与无数据库环境使用。
// 并发写入由互斥锁串行化。
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID uint
	users  map[string]database.User // key: 小写邮箱
}

// NewMemoryUserStore 初始化空的内存用户库。
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		nextID: 1,
		users:  make(map[string]database.User),
	}
}

// Create 插入新用户，邮箱冲突时返回 ErrConflict。
func (m *MemoryUserStore) Create(_ context.Context, user database.User) (database.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := m.users[email]; exists {
		return database.User{}, ErrConflict
	}

	user.Email = email
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.nextID++
	m.users[email] = user
	return user, nil
}

// FindByEmail 按邮箱查找用户。
func (m *MemoryUserStore) FindByEmail(_ context.Context, email string) (database.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return database.User{}, ErrNotFound
	}
	return user, nil
}

// SetRole 修改用户角色。
func (m *MemoryUserStore) SetRole(_ context.Context, email, role string) (database.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	user, ok := m.users[key]
	if !ok {
		return database.User{}, ErrNotFound
	}

	user.Role = role
	user.UpdatedAt = time.Now()
	m.users[key] = user
	return user, nil
}

// MemorySubmissionStore 是 SubmissionStore 的进程内实现。
type MemorySubmissionStore struct {
	mu           sync.RWMutex
	nextContact  uint
	nextResume   uint
	contacts     map[uint]database.ContactMessage
	resumes      map[uint]database.ResumeSubmission
	resumeByKey  map[string]uint
	contactOrder []uint
	resumeOrder  []uint
}

// NewMemorySubmissionStore 初始化空的内存提交库。
func NewMemorySubmissionStore() *MemorySubmissionStore {
	return &MemorySubmissionStore{
		nextContact: 1,
		nextResume:  1,
		contacts:    make(map[uint]database.ContactMessage),
		resumes:     make(map[uint]database.ResumeSubmission),
		resumeByKey: make(map[string]uint),
	}
}

// AddContact 保存一条留言。
func (m *MemorySubmissionStore) AddContact(_ context.Context, msg database.ContactMessage) (database.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg.ID = m.nextContact
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	m.nextContact++
	m.contacts[msg.ID] = msg
	m.contactOrder = append(m.contactOrder, msg.ID)
	return msg, nil
}

// ListContacts 按创建时间倒序返回全部留言。
func (m *MemorySubmissionStore) ListContacts(_ context.Context) ([]database.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// 逆序遍历保证时间戳相同的记录仍按插入顺序倒排。
	msgs := make([]database.ContactMessage, 0, len(m.contactOrder))
	for i := len(m.contactOrder) - 1; i >= 0; i-- {
		if msg, ok := m.contacts[m.contactOrder[i]]; ok {
			msgs = append(msgs, msg)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
	return msgs, nil
}

// GetContact 按 ID 返回留言。
func (m *MemorySubmissionStore) GetContact(_ context.Context, id uint) (database.ContactMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.contacts[id]
	if !ok {
		return database.ContactMessage{}, ErrNotFound
	}
	return msg, nil
}

// DeleteContact 删除留言。
func (m *MemorySubmissionStore) DeleteContact(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

// AddResume 保存一条简历元数据。
func (m *MemorySubmissionStore) AddResume(_ context.Context, sub database.ResumeSubmission) (database.ResumeSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub.ID = m.nextResume
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	m.nextResume++
	m.resumes[sub.ID] = sub
	m.resumeByKey[sub.ObjectKey] = sub.ID
	m.resumeOrder = append(m.resumeOrder, sub.ID)
	return sub, nil
}

// ListResumes 按创建时间倒序返回全部简历元数据。
func (m *MemorySubmissionStore) ListResumes(_ context.Context) ([]database.ResumeSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := make([]database.ResumeSubmission, 0, len(m.resumeOrder))
	for i := len(m.resumeOrder) - 1; i >= 0; i-- {
		if sub, ok := m.resumes[m.resumeOrder[i]]; ok {
			subs = append(subs, sub)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	return subs, nil
}

// GetResume 按 ID 返回简历元数据。
func (m *MemorySubmissionStore) GetResume(_ context.Context, id uint) (database.ResumeSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.resumes[id]
	if !ok {
		return database.ResumeSubmission{}, ErrNotFound
	}
	return sub, nil
}

// FindResumeByObjectKey 按存储引用查找简历元数据。
func (m *MemorySubmissionStore) FindResumeByObjectKey(_ context.Context, objectKey string) (database.ResumeSubmission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.resumeByKey[objectKey]
	if !ok {
		return database.ResumeSubmission{}, ErrNotFound
	}
	sub, ok := m.resumes[id]
	if !ok {
		return database.ResumeSubmission{}, ErrNotFound
	}
	return sub, nil
}

// DeleteResume 删除简历元数据。
func (m *MemorySubmissionStore) DeleteResume(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.resumes[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.resumes, id)
	delete(m.resumeByKey, sub.ObjectKey)
	return nil
}

// 编译期校验两套实现都满足接口。
var (
	_ UserStore       = (*GormUserStore)(nil)
	_ UserStore       = (*MemoryUserStore)(nil)
	_ SubmissionStore = (*GormSubmissionStore)(nil)
	_ SubmissionStore = (*MemorySubmissionStore)(nil)
)
