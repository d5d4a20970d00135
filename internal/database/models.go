package database

import (
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
// Email 存储前统一小写，唯一索引保证不重复注册。
type User struct {
	gorm.Model
	Name         string `gorm:"size:128"`
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
	Role         string `gorm:"size:16;default:user"`
}

// ContactMessage 表示联系表单提交的留言，创建后不可修改。
// ResumeObjectKey 可选地关联一次简历上传；删除留言时级联清理对应的
// 元数据与字节。
type ContactMessage struct {
	gorm.Model
	Name            string `gorm:"size:128"`
	Email           string `gorm:"size:255"`
	Message         string `gorm:"type:text"`
	ResumeObjectKey string `gorm:"size:255"`
}

// ResumeSubmission 表示一次简历上传的元数据。
// ObjectKey 是对外不透明的存储引用，绝不暴露真实路径。
type ResumeSubmission struct {
	gorm.Model
	OwnerName        string `gorm:"size:128"`
	OwnerEmail       string `gorm:"size:255;index"`
	OriginalFilename string `gorm:"size:255"`
	ObjectKey        string `gorm:"uniqueIndex;size:255"`
}
