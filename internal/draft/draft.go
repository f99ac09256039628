package draft

import (
	"net/url"

	"github.com/google/uuid"
)

// ==================== 基础类型 ====================

// Mode 草稿模式
type Mode string

const (
	// ModeLink 链接模式:用户逐条粘贴商品链接,每条链接即一个条目
	ModeLink Mode = "link"
	// ModeManual 手动模式:无链接商品,先填店铺联系信息,条目在暂存区编辑后逐条提交
	ModeManual Mode = "manual"
)

// MediaKind 媒体类型
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// File 用户选择的一个待上传文件
type File struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// Preview 本地预览占位
// 在任何网络调用之前同步生成,保证界面立即出现占位图;不参与最终提交
type Preview struct {
	Handle   string `json:"handle"`    // 预览句柄
	Ordinal  int    `json:"ordinal"`   // 插入时的位置
	UploadID string `json:"upload_id"` // 对应的上传批次内编号
}

// ShopInfo 店铺联系信息(仅手动模式)
// 纯自由文本,与其他实体没有关联约束
type ShopInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Website string `json:"website"`
}

// ==================== 条目 ====================

// 数量上限,见 UpdateItem 的校验
const MaxQuantity = 10

// ItemDraft 草稿中的一个商品条目
// ID 在本地生成,是外部寻址条目的唯一句柄;内部虽然用切片存储,
// 但删除不会影响其余条目的身份
type ItemDraft struct {
	ID             string             `json:"id"`
	Link           string             `json:"link"`
	SourcePlatform string             `json:"source_platform"` // 由链接 host 推导,只读
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Quantity       int                `json:"quantity"`
	Images         []string           `json:"images"`         // 已确认的远端 URL,提交时唯一采用的列表
	LocalPreviews  []Preview          `json:"local_previews"` // 临时预览,不提交
	Variants       []VariantAttribute `json:"variants"`
}

// newItemDraft 创建空条目
func newItemDraft() ItemDraft {
	return ItemDraft{
		ID:            uuid.NewString(),
		Quantity:      1,
		Images:        []string{},
		LocalPreviews: []Preview{},
		Variants:      []VariantAttribute{},
	}
}

// derivePlatform 从商品链接的 host 推导来源平台
// 无链接或解析失败时为空串
func derivePlatform(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}

// clone 深拷贝条目(快照用)
func (it *ItemDraft) clone() ItemDraft {
	cp := *it
	cp.Images = append([]string{}, it.Images...)
	cp.LocalPreviews = append([]Preview{}, it.LocalPreviews...)
	cp.Variants = append([]VariantAttribute{}, it.Variants...)
	return cp
}

// ==================== 聚合根 ====================

// RequestDraft 一份进行中的代购请求草稿
// Items 永不为 nil;空列表只在初始状态合法
type RequestDraft struct {
	Mode              Mode        `json:"mode"`
	Items             []ItemDraft `json:"items"`
	Current           *ItemDraft  `json:"current,omitempty"` // 手动模式的暂存条目
	ShopInfo          ShopInfo    `json:"shop_info"`
	ShippingAddressID string      `json:"shipping_address_id"` // 外部地址实体的弱引用,本地不解析
	Step              Step        `json:"step"`
}

// ItemPatch 条目字段的部分更新
type ItemPatch struct {
	Link        *string
	Name        *string
	Description *string
	Quantity    *int
}
