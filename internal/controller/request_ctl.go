package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"daigou_intake_v1/internal/api/dto"
	"daigou_intake_v1/internal/model"
	"daigou_intake_v1/internal/repository"
)

// ==================== 控制器 ====================

// RequestController 已提交请求的历史查询
type RequestController struct {
	repo repository.RequestRepository
}

func NewRequestController(repo repository.RequestRepository) *RequestController {
	return &RequestController{repo: repo}
}

// ==================== API 方法 ====================

// ListRequests 历史请求列表
// @Summary 分页查询已提交的代购请求
// @Tags Request
// @Param status query string false "状态筛选"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/requests [get]
func (ctrl *RequestController) ListRequests(c *gin.Context) {
	var query dto.ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}
	if query.UserID == 0 {
		query.UserID = currentUserID(c)
	}

	reqs, total, err := ctrl.repo.List(c.Request.Context(), repository.RequestFilter{
		UserID:   query.UserID,
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "查询失败: " + err.Error(),
		})
		return
	}

	list := make([]dto.RequestListItemVO, 0, len(reqs))
	for _, r := range reqs {
		list = append(list, dto.RequestListItemVO{
			ID:        r.ID,
			OrderNo:   r.OrderNo,
			Mode:      r.Mode,
			Status:    r.Status,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     0,
		"message":  "success",
		"data":     list,
		"total":    total,
		"page":     query.Page,
		"pageSize": query.PageSize,
	})
}

// GetRequest 历史请求详情
// @Summary 查询单条代购请求详情(含条目)
// @Tags Request
// @Param id path int true "请求ID"
// @Success 200 {object} dto.RequestDetailVO
// @Router /api/requests/{id} [get]
func (ctrl *RequestController) GetRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的请求ID",
		})
		return
	}

	req, err := ctrl.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    404,
				"message": "请求不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "查询失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    buildRequestDetailVO(req),
	})
}

// ==================== 视图转换 ====================

func buildRequestDetailVO(req *model.PurchaseRequest) dto.RequestDetailVO {
	items := make([]dto.RequestItemVO, 0, len(req.Items))
	for _, it := range req.Items {
		attrs := make([]dto.VariantVO, 0, len(it.Attributes))
		for _, a := range it.Attributes {
			attrs = append(attrs, dto.VariantVO{Name: a.Name, Custom: a.Custom, Value: a.Value})
		}
		items = append(items, dto.RequestItemVO{
			Name:           it.Name,
			Description:    it.Description,
			Quantity:       it.Quantity,
			ProductURL:     it.ProductURL,
			SourcePlatform: it.SourcePlatform,
			Images:         it.Images,
			Attributes:     attrs,
		})
	}

	return dto.RequestDetailVO{
		ID:                req.ID,
		OrderNo:           req.OrderNo,
		Mode:              req.Mode,
		Status:            req.Status,
		ShopName:          req.ShopName,
		ShippingAddressID: req.ShippingAddressID,
		Items:             items,
		CreatedAt:         req.CreatedAt.Format(time.RFC3339),
	}
}
