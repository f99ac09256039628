package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"daigou_intake_v1/internal/draft"
)

// ==================== 草稿管理器 ====================

// DraftManager 活动草稿注册表
// 草稿 Store 是显式构建、显式持有的实例(不是进程级单例),
// 管理器只负责按 id 存取与闲置回收,便于测试各自实例化独立草稿
type DraftManager struct {
	mu       sync.RWMutex
	drafts   map[string]*draft.Store
	uploader draft.Uploader
}

// NewDraftManager 创建草稿管理器
func NewDraftManager(uploader draft.Uploader) *DraftManager {
	return &DraftManager{
		drafts:   make(map[string]*draft.Store),
		uploader: uploader,
	}
}

// Create 新建草稿,返回句柄 id
func (m *DraftManager) Create(mode draft.Mode) (string, *draft.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	st := draft.NewStore(mode, m.uploader)
	m.drafts[id] = st
	return id, st
}

// Get 取出草稿
func (m *DraftManager) Get(id string) (*draft.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.drafts[id]
	if !ok {
		return nil, fmt.Errorf("草稿不存在或已过期: %s", id)
	}
	return st, nil
}

// Discard 丢弃草稿
// 在途上传不会被打断,完成后写进一个无人引用的 Store,结果自然丢弃
func (m *DraftManager) Discard(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
}

// Count 当前活动草稿数
func (m *DraftManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}

// ExpireIdle 回收闲置超过 ttl 的草稿,返回回收数量
func (m *DraftManager) ExpireIdle(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	var expired int
	for id, st := range m.drafts {
		if st.LastActivity().Before(cutoff) {
			delete(m.drafts, id)
			expired++
		}
	}
	if expired > 0 {
		log.Printf("[DraftManager] 回收闲置草稿 %d 份", expired)
	}
	return expired
}
