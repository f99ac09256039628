package service

import (
	"context"
	"fmt"
	"log"

	"github.com/go-resty/resty/v2"
	"gorm.io/datatypes"

	"daigou_intake_v1/internal/api/dto"
	"daigou_intake_v1/internal/draft"
	"daigou_intake_v1/internal/model"
	"daigou_intake_v1/internal/repository"
)

// ==================== 提交服务 ====================

// SubmitService 负责把确认后的草稿递交给订单接入服务,并在本地落档
// 草稿侧职责到"构建出符合约定的载荷"为止,单号生成、支付、履约都在下游
type SubmitService struct {
	repo      repository.RequestRepository
	client    *resty.Client
	intakeURL string // 订单接入服务端点
}

// intakeResponse 订单接入服务的应答
type intakeResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		OrderNo string `json:"orderNo"`
		Status  string `json:"status"`
	} `json:"data"`
}

// NewSubmitService 创建提交服务
func NewSubmitService(repo repository.RequestRepository, client *resty.Client, intakeURL string) *SubmitService {
	return &SubmitService{
		repo:      repo,
		client:    client,
		intakeURL: intakeURL,
	}
}

// Submit 提交草稿
// 仅在确认步骤可提交;成功后草稿前进到 success 终态并返回存档记录
func (s *SubmitService) Submit(ctx context.Context, userID int64, draftID string, store *draft.Store) (*model.PurchaseRequest, error) {
	if store.Step() != draft.StepConfirmation {
		return nil, draft.NewValidationError("step", "只能在确认步骤提交")
	}

	// 等待在途上传落定,保证载荷里的图片列表是最终态
	store.WaitUploads()

	snap := store.Snapshot()
	if len(snap.Items) == 0 {
		return nil, draft.NewValidationError("items", "草稿中没有商品条目")
	}

	payload := buildSubmissionPayload(snap)

	var result intakeResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post(s.intakeURL)
	if err != nil {
		return nil, fmt.Errorf("提交订单接入服务失败: %v", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("订单接入服务返回异常状态: %d", resp.StatusCode())
	}
	if result.Code != 0 && result.Code != 200 {
		return nil, fmt.Errorf("订单接入服务拒绝: %s", result.Message)
	}

	record := buildRequestRecord(userID, draftID, snap, result.Data.OrderNo)
	if err := s.repo.Create(ctx, record); err != nil {
		// 下游已受理,存档失败只记日志,不回滚提交
		log.Printf("[SubmitService] 存档失败 draft=%s order=%s: %v", draftID, result.Data.OrderNo, err)
	}

	store.Advance()
	log.Printf("[SubmitService] 草稿提交成功 draft=%s order=%s items=%d", draftID, result.Data.OrderNo, len(snap.Items))
	return record, nil
}

// buildSubmissionPayload 把草稿快照转换为订单接入服务的载荷
// 条目按草稿内顺序排列;预览占位不参与提交,只带已确认的远端 URL
func buildSubmissionPayload(snap draft.RequestDraft) dto.SubmissionPayload {
	items := make([]dto.SubmissionItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		attrs := make([]dto.SubmissionAttribute, 0, len(it.Variants))
		for _, v := range it.Variants {
			attrs = append(attrs, dto.SubmissionAttribute{
				Name:   v.AttributeName.Name,
				Custom: v.AttributeName.Custom,
				Value:  v.FieldValue,
			})
		}
		items = append(items, dto.SubmissionItem{
			Name:              it.Name,
			Description:       it.Description,
			Quantity:          it.Quantity,
			ProductURL:        it.Link,
			Images:            append([]string{}, it.Images...),
			VariantAttributes: attrs,
		})
	}

	payload := dto.SubmissionPayload{
		Items:             items,
		ShippingAddressID: snap.ShippingAddressID,
	}
	if snap.Mode == draft.ModeManual {
		payload.ShopInfo = &dto.SubmissionShopInfo{
			Name:    snap.ShopInfo.Name,
			Email:   snap.ShopInfo.Email,
			Address: snap.ShopInfo.Address,
			Website: snap.ShopInfo.Website,
		}
	}
	return payload
}

// buildRequestRecord 生成本地存档记录
func buildRequestRecord(userID int64, draftID string, snap draft.RequestDraft, orderNo string) *model.PurchaseRequest {
	record := &model.PurchaseRequest{
		UserID:            userID,
		DraftID:           draftID,
		Mode:              string(snap.Mode),
		OrderNo:           orderNo,
		Status:            model.RequestStatusSubmitted,
		ShippingAddressID: snap.ShippingAddressID,
	}
	if snap.Mode == draft.ModeManual {
		record.ShopName = snap.ShopInfo.Name
		record.ShopEmail = snap.ShopInfo.Email
		record.ShopAddress = snap.ShopInfo.Address
		record.ShopWebsite = snap.ShopInfo.Website
	}

	for i, it := range snap.Items {
		attrs := make([]model.AttributeRow, 0, len(it.Variants))
		for _, v := range it.Variants {
			attrs = append(attrs, model.AttributeRow{
				Name:   v.AttributeName.Name,
				Custom: v.AttributeName.Custom,
				Value:  v.FieldValue,
			})
		}
		record.Items = append(record.Items, model.RequestItem{
			Position:       i,
			Name:           it.Name,
			Description:    it.Description,
			Quantity:       it.Quantity,
			ProductURL:     it.Link,
			SourcePlatform: it.SourcePlatform,
			Images:         datatypes.NewJSONSlice(append([]string{}, it.Images...)),
			Attributes:     datatypes.NewJSONSlice(attrs),
		})
	}
	return record
}
