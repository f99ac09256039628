package dto

// ==================== 请求 DTO ====================

// CreateDraftRequest 新建草稿请求
type CreateDraftRequest struct {
	Mode string `json:"mode" binding:"omitempty,oneof=link manual"` // 默认 link
}

// AddItemRequest 追加链接条目请求
type AddItemRequest struct {
	Link string `json:"link" binding:"required,url"`
}

// UpdateItemRequest 条目字段部分更新请求
type UpdateItemRequest struct {
	Link        *string `json:"link,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
}

// AddVariantRequest 添加规格属性行请求
// selection 为预定义名,或 "other" 表示自定义类目(名称随后填写)
type AddVariantRequest struct {
	Selection string `json:"selection" binding:"required"`
}

// UpdateVariantRequest 更新规格属性行请求
type UpdateVariantRequest struct {
	Name   *string `json:"name,omitempty"`
	Custom *bool   `json:"custom,omitempty"`
	Value  *string `json:"value,omitempty"`
}

// ShopInfoRequest 店铺联系信息(手动模式)
type ShopInfoRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
	Website string `json:"website"`
}

// SetAddressRequest 设置收货地址引用
type SetAddressRequest struct {
	AddressID string `json:"address_id" binding:"required"`
}

// ImportStub 外部导入的商品桩
type ImportStub struct {
	URL       string `json:"url" binding:"required"`
	Name      string `json:"name"`
	MainImage string `json:"mainImage,omitempty"`
}

// ImportBatchRequest 外部批量导入请求
type ImportBatchRequest struct {
	Products []ImportStub `json:"products"`
}

// ListRequestsQuery 历史请求列表查询
type ListRequestsQuery struct {
	UserID   int64  `form:"user_id"`
	Status   string `form:"status"`
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
}

// ==================== 响应 DTO ====================

// CreateDraftResult 新建草稿结果
type CreateDraftResult struct {
	DraftID string `json:"draft_id"`
	Mode    string `json:"mode"`
	Step    string `json:"step"`
}

// PreviewVO 预览占位视图
type PreviewVO struct {
	Handle   string `json:"handle"`
	Ordinal  int    `json:"ordinal"`
	UploadID string `json:"upload_id"`
}

// VariantVO 规格属性行视图
type VariantVO struct {
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
	Value  string `json:"value"`
}

// ItemVO 条目视图
type ItemVO struct {
	ID             string      `json:"id"`
	Link           string      `json:"link"`
	SourcePlatform string      `json:"source_platform"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Quantity       int         `json:"quantity"`
	Images         []string    `json:"images"`
	LocalPreviews  []PreviewVO `json:"local_previews"`
	Variants       []VariantVO `json:"variants"`
}

// UploadFailureVO 上传失败通知视图
type UploadFailureVO struct {
	ItemID   string `json:"item_id"`
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// DraftVO 草稿详情视图
type DraftVO struct {
	DraftID           string            `json:"draft_id"`
	Mode              string            `json:"mode"`
	Step              string            `json:"step"`
	Items             []ItemVO          `json:"items"`
	Current           *ItemVO           `json:"current,omitempty"`
	ShopName          string            `json:"shop_name,omitempty"`
	ShopEmail         string            `json:"shop_email,omitempty"`
	ShopAddress       string            `json:"shop_address,omitempty"`
	ShopWebsite       string            `json:"shop_website,omitempty"`
	ShippingAddressID string            `json:"shipping_address_id,omitempty"`
	UploadFailures    []UploadFailureVO `json:"upload_failures,omitempty"`
}

// StepResult 步骤变更结果
type StepResult struct {
	Moved bool   `json:"moved"`
	Step  string `json:"step"`
}

// ImportResult 批量导入结果
type ImportResult struct {
	Imported int `json:"imported"`
}

// SubmitResult 提交结果
type SubmitResult struct {
	RequestID int64  `json:"request_id"`
	OrderNo   string `json:"order_no"`
	Status    string `json:"status"`
}

// RequestListItemVO 历史请求列表项
type RequestListItemVO struct {
	ID        int64  `json:"id"`
	OrderNo   string `json:"order_no"`
	Mode      string `json:"mode"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// RequestItemVO 历史请求条目视图
type RequestItemVO struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Quantity       int         `json:"quantity"`
	ProductURL     string      `json:"product_url"`
	SourcePlatform string      `json:"source_platform"`
	Images         []string    `json:"images"`
	Attributes     []VariantVO `json:"attributes"`
}

// RequestDetailVO 历史请求详情
type RequestDetailVO struct {
	ID                int64           `json:"id"`
	OrderNo           string          `json:"order_no"`
	Mode              string          `json:"mode"`
	Status            string          `json:"status"`
	ShopName          string          `json:"shop_name,omitempty"`
	ShippingAddressID string          `json:"shipping_address_id,omitempty"`
	Items             []RequestItemVO `json:"items"`
	CreatedAt         string          `json:"created_at"`
}

// PlatformInfo 支持的来源平台信息
type PlatformInfo struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	URLPatterns []string `json:"url_patterns"`
}

// ==================== 提交载荷(发往订单接入服务) ====================

// SubmissionAttribute 提交载荷中的规格属性
type SubmissionAttribute struct {
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
	Value  string `json:"value"`
}

// SubmissionItem 提交载荷中的条目
type SubmissionItem struct {
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	Quantity          int                   `json:"quantity"`
	ProductURL        string                `json:"productURL"`
	Images            []string              `json:"images"`
	VariantAttributes []SubmissionAttribute `json:"variantAttributes"`
}

// SubmissionShopInfo 提交载荷中的店铺信息
type SubmissionShopInfo struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Website string `json:"website,omitempty"`
}

// SubmissionPayload 发往订单接入服务的整体载荷
// 条目按草稿内顺序排列;店铺信息与地址引用是载荷的同级字段,不按条目携带
type SubmissionPayload struct {
	Items             []SubmissionItem    `json:"items"`
	ShopInfo          *SubmissionShopInfo `json:"shopInfo,omitempty"`
	ShippingAddressID string              `json:"shippingAddressId,omitempty"`
}
