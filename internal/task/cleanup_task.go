package task

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"daigou_intake_v1/internal/service"
)

// ==================== 草稿清理任务 ====================

// CleanupTask 定时回收闲置草稿
// 草稿只活在内存里,用户中途离开不会有任何信号,只能按闲置时间回收
type CleanupTask struct {
	manager *service.DraftManager
	cron    *cron.Cron
	ttl     time.Duration
}

// NewCleanupTask 创建清理任务
func NewCleanupTask(manager *service.DraftManager, ttl time.Duration) *CleanupTask {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &CleanupTask{
		manager: manager,
		cron:    cron.New(),
		ttl:     ttl,
	}
}

// Start 启动定时任务
func (t *CleanupTask) Start() {
	// 每10分钟扫一轮
	_, err := t.cron.AddFunc("*/10 * * * *", func() {
		expired := t.manager.ExpireIdle(t.ttl)
		if expired > 0 {
			log.Printf("[Cron] 本轮回收闲置草稿 %d 份,存活 %d 份", expired, t.manager.Count())
		}
	})
	if err != nil {
		log.Fatalf("无法启动草稿清理任务: %v", err)
	}

	t.cron.Start()
	log.Printf("草稿清理任务已启动 (闲置超过 %s 回收)", t.ttl)
}

// Stop 停止定时任务
func (t *CleanupTask) Stop() {
	t.cron.Stop()
	log.Println("[Cron] 草稿清理任务已停止")
}
