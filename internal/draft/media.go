package draft

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ==================== 媒体附件管线 ====================

// SelectFiles 为条目附加一批图片/视频
//
// 约定:
//   - maxSize 是调用方配置,不是管线常量(图片位/视频位/头像位各有各的上限);
//   - 批内任一文件非法则整批拒绝,不存在部分接受,界面不会出现不一致的中间态;
//   - 校验通过后先按文件顺序同步追加全部预览,再逐个启动上传 goroutine,
//     上传之间互不等待,完成顺序任意交错;
//   - 成功的上传把远端 URL 追加进 Images,顺序是完成顺序而非选择顺序,
//     该列表仅用于提交载荷,顺序无语义(已确认的放宽,不是待修的缺陷);
//   - 失败(error 或空 URL)只记一条失败通知,预览保留但处于未确认态。
func (s *Store) SelectFiles(ctx context.Context, itemID string, kind MediaKind, files []File, maxSize int64) ([]Preview, error) {
	// 没有上传器时在启动协程之前就拒绝,否则会在上传 goroutine 里解引用 nil
	if s.uploader == nil {
		return nil, ErrUploaderNotConfigured
	}

	s.mu.Lock()

	it := s.findItem(itemID)
	if it == nil {
		s.mu.Unlock()
		return nil, ErrItemNotFound
	}

	// 1. 整批校验,遇到第一个非法文件即拒绝全部
	for _, f := range files {
		if err := validateFile(f, kind, maxSize); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}

	// 2. 同步创建预览,严格按文件顺序,先于任何网络调用
	type launchItem struct {
		uploadID string
		file     File
	}
	launches := make([]launchItem, 0, len(files))
	previews := make([]Preview, 0, len(files))
	for _, f := range files {
		uploadID := uuid.NewString()
		p := Preview{
			Handle:   "preview://" + uploadID,
			Ordinal:  len(it.LocalPreviews),
			UploadID: uploadID,
		}
		it.LocalPreviews = append(it.LocalPreviews, p)
		s.pending[uploadID] = &pendingUpload{itemID: itemID, ordinal: p.Ordinal}
		launches = append(launches, launchItem{uploadID: uploadID, file: f})
		previews = append(previews, p)
	}
	s.uploads.Add(len(launches))
	s.touch()
	s.mu.Unlock()

	// 3. 并发上传,不串行化,完成结果经 resolveUpload 回到单写入口
	for _, l := range launches {
		go func(uploadID string, f File) {
			defer s.uploads.Done()
			url, err := s.uploader.Upload(ctx, f, kind)
			s.resolveUpload(uploadID, f.Name, url, err)
		}(l.uploadID, l.file)
	}

	return previews, nil
}

// validateFile MIME 前缀 + 大小上限
func validateFile(f File, kind MediaKind, maxSize int64) error {
	if !strings.HasPrefix(f.ContentType, string(kind)+"/") {
		return fmt.Errorf("%w: %s (%s)", ErrInvalidMediaType, f.Name, f.ContentType)
	}
	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: %s (%d 字节)", ErrMediaTooLarge, f.Name, size)
	}
	return nil
}

// resolveUpload 上传落定,单写入口
// 预览已被移除(abandoned)、条目已被删除或整单已被替换/重置时,
// 迟到的结果直接丢弃,不会产生无主的孤儿 URL
func (s *Store) resolveUpload(uploadID, filename, url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[uploadID]
	if !ok {
		return
	}
	delete(s.pending, uploadID)
	if p.abandoned {
		return
	}

	it := s.findItem(p.itemID)
	if it == nil {
		return
	}

	if err != nil || url == "" {
		reason := ErrUploadFailed.Error()
		if err != nil {
			reason = err.Error()
		}
		s.failures = append(s.failures, UploadFailure{
			ItemID:   p.itemID,
			UploadID: uploadID,
			Filename: filename,
			Reason:   reason,
		})
		return
	}

	// 完成顺序入列
	it.Images = append(it.Images, url)
	s.touch()
}

// RemoveAttachment 移除一条附件
// previewOnly 为真时移除本地预览并把对应的在途上传标记废弃
// (上传本身不中断,迟到的 URL 被 resolveUpload 丢弃);
// 否则从已确认列表中删掉一条远端 URL
func (s *Store) RemoveAttachment(itemID string, index int, previewOnly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.findItem(itemID)
	if it == nil {
		return ErrItemNotFound
	}

	if previewOnly {
		if index < 0 || index >= len(it.LocalPreviews) {
			return NewValidationError("index", "预览不存在")
		}
		p := it.LocalPreviews[index]
		if pu, ok := s.pending[p.UploadID]; ok {
			pu.abandoned = true
		}
		it.LocalPreviews = append(it.LocalPreviews[:index], it.LocalPreviews[index+1:]...)
	} else {
		if index < 0 || index >= len(it.Images) {
			return NewValidationError("index", "图片不存在")
		}
		it.Images = append(it.Images[:index], it.Images[index+1:]...)
	}
	s.touch()
	return nil
}
