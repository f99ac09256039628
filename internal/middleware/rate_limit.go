package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 草稿操作限流器 ====================

// DraftRateLimiter 草稿高频操作限流器
// 浏览器插件可能连续触发批量导入,提交按钮也可能被连点,
// 按草稿 + 操作类型维度做冷却
type DraftRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &DraftRateLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *DraftRateLimiter {
	return globalLimiter
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行,允许时顺带更新最后执行时间
func (r *DraftRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)
	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *DraftRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== 操作类型 ====================

// OpType 受限操作类型
type OpType string

const (
	OpTypeImport OpType = "import"
	OpTypeSubmit OpType = "submit"
)

// draftOpKey 生成草稿级限流 Key
func draftOpKey(draftID string, op OpType) string {
	return fmt.Sprintf("draft:%s:%s", draftID, op)
}

// 默认冷却间隔
var defaultIntervals = map[OpType]time.Duration{
	OpTypeImport: 2 * time.Second,
	OpTypeSubmit: 5 * time.Second,
}

// ==================== Gin 中间件 ====================

// DraftRateLimit 草稿操作限流中间件
//
// 使用示例:
//
//	drafts.POST("/:draft_id/import",
//	    middleware.DraftRateLimit(middleware.OpTypeImport, 0),
//	    draftCtl.ImportBatch,
//	)
//
// interval 为 0 时使用该操作类型的默认间隔
func DraftRateLimit(op OpType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = defaultIntervals[op]
	}

	return func(c *gin.Context) {
		key := draftOpKey(c.Param("draft_id"), op)

		result := GetLimiter().Check(key, interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": fmt.Sprintf("操作过于频繁,请 %d 秒后重试", int(result.RetryAfter.Seconds())+1),
				"data": gin.H{
					"retry_after": int(result.RetryAfter.Seconds()) + 1,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
