package draft

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ==================== 上传协作方 ====================

// Uploader 媒体托管协作方
// 单文件、异步语义:返回空 URL 或 error 均视为该文件失败,按文件独立处理,
// 不会使同批其他上传中断
type Uploader interface {
	Upload(ctx context.Context, file File, kind MediaKind) (string, error)
}

// ==================== Store ====================

// Store 草稿的唯一可写持有者
// 所有变更都经过同一把锁串行化:媒体上传的 goroutine 是并发的"输入生产者",
// 最终写入仍然走单写入口,组件本身不保有 Store 不知道的可变状态
type Store struct {
	mu    sync.Mutex
	draft RequestDraft

	uploader Uploader
	pending  map[string]*pendingUpload // uploadID -> 在途上传
	failures []UploadFailure
	uploads  sync.WaitGroup

	updatedAt time.Time
}

// pendingUpload 在途上传的簿记
type pendingUpload struct {
	itemID    string
	ordinal   int  // 预览插入时的位置
	abandoned bool // 预览已被移除,迟到的 URL 应当丢弃
}

// NewStore 创建草稿
func NewStore(mode Mode, uploader Uploader) *Store {
	s := &Store{
		uploader: uploader,
		pending:  make(map[string]*pendingUpload),
	}
	s.draft = newRequestDraft(mode)
	s.updatedAt = time.Now()
	return s
}

func newRequestDraft(mode Mode) RequestDraft {
	d := RequestDraft{
		Mode:  mode,
		Items: []ItemDraft{},
		Step:  initialStep(mode),
	}
	if mode == ModeManual {
		cur := newItemDraft()
		d.Current = &cur
	}
	return d
}

// touch 记录最后活动时间(持锁调用)
func (s *Store) touch() {
	s.updatedAt = time.Now()
}

// findItem 按 id 定位条目,包含手动模式的暂存条目(持锁调用)
// 寻址只认 id,下标仅在变更瞬间于内部解析,避免并发增删后的陈旧下标
func (s *Store) findItem(id string) *ItemDraft {
	for i := range s.draft.Items {
		if s.draft.Items[i].ID == id {
			return &s.draft.Items[i]
		}
	}
	if s.draft.Current != nil && s.draft.Current.ID == id {
		return s.draft.Current
	}
	return nil
}

// ==================== 条目操作 ====================

// AddLinkedItem 追加一个链接条目
// 来源平台在创建时由链接 host 推导;永远追加,不替换既有条目
func (s *Store) AddLinkedItem(link string) ItemDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := newItemDraft()
	it.Link = link
	it.SourcePlatform = derivePlatform(link)
	s.draft.Items = append(s.draft.Items, it)
	s.touch()
	return it.clone()
}

// RemoveItem 按 id 删除条目,不存在时 no-op
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.draft.Items {
		if s.draft.Items[i].ID == id {
			s.draft.Items = append(s.draft.Items[:i], s.draft.Items[i+1:]...)
			s.touch()
			return
		}
	}
}

// UpdateItem 条目字段的部分更新
// Store 层有意保持宽松,字段级约束集中在编辑边界;唯一的例外是数量:
// 超出 1..10 的补丁被整体拒绝,不做钳位,状态保持不变
func (s *Store) UpdateItem(id string, patch ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.findItem(id)
	if it == nil {
		return ErrItemNotFound
	}
	return applyItemPatch(it, patch, func() { s.touch() })
}

// UpdateCurrent 更新手动模式的暂存条目
func (s *Store) UpdateCurrent(patch ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Current == nil {
		return NewValidationError("mode", "当前模式没有暂存条目")
	}
	return applyItemPatch(s.draft.Current, patch, func() { s.touch() })
}

func applyItemPatch(it *ItemDraft, patch ItemPatch, onApply func()) error {
	if patch.Quantity != nil && (*patch.Quantity < 1 || *patch.Quantity > MaxQuantity) {
		return NewValidationError("quantity", "数量必须在 1 到 10 之间")
	}
	if patch.Link != nil {
		it.Link = *patch.Link
		it.SourcePlatform = derivePlatform(*patch.Link)
	}
	if patch.Name != nil {
		it.Name = *patch.Name
	}
	if patch.Description != nil {
		it.Description = *patch.Description
	}
	if patch.Quantity != nil {
		it.Quantity = *patch.Quantity
	}
	onApply()
	return nil
}

// CommitCurrentDraft 把暂存条目提交进条目列表(仅手动模式)
// 名称为空白时返回校验错误且不做任何变更;成功后暂存区重置为空模板
func (s *Store) CommitCurrentDraft() (ItemDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Current == nil {
		return ItemDraft{}, NewValidationError("mode", "当前模式没有暂存条目")
	}
	if strings.TrimSpace(s.draft.Current.Name) == "" {
		return ItemDraft{}, NewValidationError("name", "商品名称不能为空")
	}

	committed := *s.draft.Current
	committed.ID = uuid.NewString()
	s.draft.Items = append(s.draft.Items, committed)

	cur := newItemDraft()
	s.draft.Current = &cur
	s.touch()
	return committed.clone(), nil
}

// ==================== 规格属性 ====================

// AddVariantRow 为条目追加属性行
func (s *Store) AddVariantRow(itemID string, selection AttributeName) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.findItem(itemID)
	if it == nil {
		return ErrItemNotFound
	}
	addVariantRow(it, selection)
	s.touch()
	return nil
}

// UpdateVariantRow 更新条目的属性行
func (s *Store) UpdateVariantRow(itemID string, index int, patch VariantPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.findItem(itemID)
	if it == nil {
		return ErrItemNotFound
	}
	if err := updateVariantRow(it, index, patch); err != nil {
		return err
	}
	s.touch()
	return nil
}

// RemoveVariantRow 删除条目的属性行
func (s *Store) RemoveVariantRow(itemID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.findItem(itemID)
	if it == nil {
		return ErrItemNotFound
	}
	if err := removeVariantRow(it, index); err != nil {
		return err
	}
	s.touch()
	return nil
}

// ==================== 元数据 ====================

// SetShopInfo 设置店铺联系信息(手动模式)
func (s *Store) SetShopInfo(info ShopInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.ShopInfo = info
	s.touch()
}

// SetShippingAddress 记录收货地址引用
// 只保存不透明 id,本地从不解析或校验该引用
func (s *Store) SetShippingAddress(addressID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.ShippingAddressID = addressID
	s.touch()
}

// ==================== 步骤 ====================

// Advance 前进一步;被门禁拒绝时返回 false 且状态不变
func (s *Store) Advance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := nextStep(s.draft.Mode, s.draft.Step, len(s.draft.Items))
	if !ok {
		return false
	}
	s.draft.Step = next
	s.touch()
	return true
}

// Back 后退一步
func (s *Store) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := prevStep(s.draft.Mode, s.draft.Step)
	if !ok {
		return false
	}
	s.draft.Step = prev
	s.touch()
	return true
}

// Step 当前步骤
func (s *Store) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Step
}

// ==================== 快照与生命周期 ====================

// Snapshot 深拷贝当前草稿,调用方可自由读取
func (s *Store) Snapshot() RequestDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := s.draft
	cp.Items = make([]ItemDraft, len(s.draft.Items))
	for i := range s.draft.Items {
		cp.Items[i] = s.draft.Items[i].clone()
	}
	if s.draft.Current != nil {
		cur := s.draft.Current.clone()
		cp.Current = &cur
	}
	return cp
}

// Reset 整体重置草稿
// 在途上传不会被打断,但完成后发现草稿已重置,结果直接丢弃
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pending {
		p.abandoned = true
	}
	s.draft = newRequestDraft(s.draft.Mode)
	s.failures = nil
	s.touch()
}

// Failures 累计的单文件上传失败记录(副本)
func (s *Store) Failures() []UploadFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UploadFailure{}, s.failures...)
}

// WaitUploads 等待所有在途上传落定(测试与优雅停机用)
func (s *Store) WaitUploads() {
	s.uploads.Wait()
}

// LastActivity 最后一次变更时间(闲置清理用)
func (s *Store) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
