package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewIntakeClient 创建发往订单接入服务的 Resty 客户端
// 它是全系统统一的对外请求入口
//
// 不做自动重试:提交接口不幂等,超时后下游可能已经受理,
// 盲目重发会生成重复订单,失败交给用户在确认页重新提交
func NewIntakeClient(debug bool) *resty.Client {
	return resty.New().
		SetDebug(debug).
		SetTimeout(15 * time.Second). // 提交载荷不大,15s 足够
		SetHeader("User-Agent", "Daigou-Intake/1.0").
		SetHeader("Content-Type", "application/json")
}
