package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 状态常量 ====================

const (
	// 代购请求状态
	RequestStatusSubmitted  = "submitted"  // 已提交到订单接入服务
	RequestStatusProcessing = "processing" // 订单服务处理中
	RequestStatusCompleted  = "completed"
	RequestStatusFailed     = "failed"
)

// ==================== 数据库模型 ====================

// PurchaseRequest 已提交的代购请求存档
// 草稿本身只活在内存里,提交成功后在这里落一条记录供历史查询
type PurchaseRequest struct {
	ID        int64          `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	UserID  int64  `gorm:"index;comment:用户ID"`
	DraftID string `gorm:"size:64;index;comment:来源草稿ID"`
	Mode    string `gorm:"size:16;comment:草稿模式 link/manual"`
	OrderNo string `gorm:"size:64;index;comment:订单接入服务返回的单号"`
	Status  string `gorm:"size:32;index;default:submitted;comment:请求状态"`

	// 店铺联系信息(仅手动模式,自由文本)
	ShopName    string `gorm:"size:255;comment:店铺名称"`
	ShopEmail   string `gorm:"size:255;comment:店铺邮箱"`
	ShopAddress string `gorm:"size:512;comment:店铺地址"`
	ShopWebsite string `gorm:"size:512;comment:店铺网址"`

	// 外部地址实体的弱引用,本地从不解析
	ShippingAddressID string `gorm:"size:64;comment:收货地址引用"`

	// 关联
	Items []RequestItem `gorm:"foreignKey:RequestID"`
}

func (*PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// RequestItem 代购请求中的一个商品条目
type RequestItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	RequestID int64 `gorm:"index;not null;comment:请求ID"`
	// 提交顺序即展示顺序
	Position int `gorm:"comment:条目顺序"`

	Name           string `gorm:"size:255;comment:商品名称"`
	Description    string `gorm:"type:text;comment:商品描述"`
	Quantity       int    `gorm:"default:1;comment:数量"`
	ProductURL     string `gorm:"size:2048;comment:商品链接"`
	SourcePlatform string `gorm:"size:128;index;comment:来源平台"`

	Images     datatypes.JSONSlice[string]       `gorm:"comment:已确认的图片URL"`
	Attributes datatypes.JSONSlice[AttributeRow] `gorm:"comment:规格属性行"`

	// 关联
	Request *PurchaseRequest `gorm:"foreignKey:RequestID"`
}

func (*RequestItem) TableName() string {
	return "request_items"
}

// AttributeRow 规格属性行(JSON 存储)
type AttributeRow struct {
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
	Value  string `json:"value"`
}
