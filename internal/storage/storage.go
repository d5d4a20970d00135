package storage

import (
	"context"
	"io"
)

// ObjectInfo 描述已存储对象的关键信息。
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStorage 抽象简历字节的存取能力，便于测试注入替身。
type ObjectStorage interface {
	// UploadFile 写入对象字节；失败时不得留下元数据可引用的对象。
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	// GetObject 返回对象的读取器与信息；对象不存在时返回可被 IsNoSuchKey 识别的错误。
	GetObject(ctx context.Context, objectKey string) (io.ReadCloser, ObjectInfo, error)
	// DeleteObject 删除对象；对象不存在视为成功（幂等）。
	DeleteObject(ctx context.Context, objectKey string) error
}
