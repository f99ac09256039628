package draft

import (
	"errors"
	"fmt"
)

// ==================== 错误定义 ====================

var (
	// ErrInvalidMediaType 文件类型与上传位不匹配(图片位只收 image/*,视频位只收 video/*)
	ErrInvalidMediaType = errors.New("不支持的文件类型")

	// ErrMediaTooLarge 文件超出调用方配置的大小上限
	ErrMediaTooLarge = errors.New("文件超出大小限制")

	// ErrUploadFailed 单文件上传失败(每文件独立,不影响同批其他文件)
	ErrUploadFailed = errors.New("文件上传失败")

	// ErrItemNotFound 条目不存在(按 id 寻址失败)
	ErrItemNotFound = errors.New("条目不存在")

	// ErrUploaderNotConfigured 未配置媒体托管服务,媒体选择被整批拒绝
	ErrUploaderNotConfigured = errors.New("未配置媒体托管服务")
)

// ValidationError 校验错误
// 校验失败会阻断本次变更,草稿状态保持原样,不存在部分提交
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError 创建校验错误
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError 判断是否校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UploadFailure 单文件上传失败记录
// 预览仍然保留在列表中,由用户自行发现并重新选择文件,没有自动重试
type UploadFailure struct {
	ItemID   string `json:"item_id"`
	UploadID string `json:"upload_id"`
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}
