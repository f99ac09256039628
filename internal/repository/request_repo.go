package repository

import (
	"context"

	"gorm.io/gorm"

	"daigou_intake_v1/internal/model"
)

// ==================== 仓储接口 ====================

// RequestRepository 代购请求存档仓储接口
type RequestRepository interface {
	Create(ctx context.Context, req *model.PurchaseRequest) error
	GetByID(ctx context.Context, id int64) (*model.PurchaseRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.PurchaseRequest, int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// RequestFilter 查询过滤条件
type RequestFilter struct {
	UserID   int64
	Status   string
	Platform string
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type requestRepo struct {
	db *gorm.DB
}

// NewRequestRepository 创建代购请求仓储
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) Create(ctx context.Context, req *model.PurchaseRequest) error {
	// 条目随请求一并写入(gorm 关联创建)
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestRepo) GetByID(ctx context.Context, id int64) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) List(ctx context.Context, filter RequestFilter) ([]model.PurchaseRequest, int64, error) {
	var reqs []model.PurchaseRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PurchaseRequest{})

	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Platform != "" {
		// 按条目的来源平台过滤:任一条目命中即返回整单
		query = query.Where(
			"EXISTS (SELECT 1 FROM request_items ri WHERE ri.request_id = purchase_requests.id AND ri.source_platform = ?)",
			filter.Platform)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	if err := query.Order("created_at DESC").Limit(filter.PageSize).Offset(offset).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

func (r *requestRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.PurchaseRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}
