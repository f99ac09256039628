package controller

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"daigou_intake_v1/internal/api/dto"
	"daigou_intake_v1/internal/draft"
	"daigou_intake_v1/internal/service"
)

// ==================== 控制器 ====================

// 媒体大小上限(按上传位区分,不是管线常量)
const (
	maxImageSize = 10 << 20  // 10MB
	maxVideoSize = 100 << 20 // 100MB
)

// DraftController 草稿控制器
// 草稿按 draft_id 寻址,条目按条目 id 寻址;下标只出现在属性行和附件上
type DraftController struct {
	manager   *service.DraftManager
	submitSvc *service.SubmitService
}

func NewDraftController(manager *service.DraftManager, submitSvc *service.SubmitService) *DraftController {
	return &DraftController{manager: manager, submitSvc: submitSvc}
}

// getStore 取出路径参数指向的草稿,不存在时写好响应并返回 nil
func (ctrl *DraftController) getStore(c *gin.Context) *draft.Store {
	st, err := ctrl.manager.Get(c.Param("draft_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": err.Error(),
		})
		return nil
	}
	return st
}

// writeDraftError 草稿层错误到 HTTP 状态码的映射
func writeDraftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, draft.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": err.Error()})
	case errors.Is(err, draft.ErrInvalidMediaType), errors.Is(err, draft.ErrMediaTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
	case draft.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
	}
}

// ==================== 草稿生命周期 ====================

// CreateDraft 新建草稿
// @Summary 新建代购请求草稿
// @Tags Draft
// @Accept json
// @Produce json
// @Param body body dto.CreateDraftRequest true "创建请求"
// @Success 201 {object} dto.CreateDraftResult
// @Router /api/drafts [post]
func (ctrl *DraftController) CreateDraft(c *gin.Context) {
	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	mode := draft.ModeLink
	if req.Mode == string(draft.ModeManual) {
		mode = draft.ModeManual
	}

	id, st := ctrl.manager.Create(mode)
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data": dto.CreateDraftResult{
			DraftID: id,
			Mode:    string(mode),
			Step:    string(st.Step()),
		},
	})
}

// GetDraft 获取草稿详情
// @Summary 获取草稿详情(含条目、预览与失败通知)
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Success 200 {object} dto.DraftVO
// @Router /api/drafts/{draft_id} [get]
func (ctrl *DraftController) GetDraft(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    buildDraftVO(c.Param("draft_id"), st),
	})
}

// DiscardDraft 丢弃草稿
// @Summary 丢弃草稿
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id} [delete]
func (ctrl *DraftController) DiscardDraft(c *gin.Context) {
	ctrl.manager.Discard(c.Param("draft_id"))
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "草稿已丢弃",
	})
}

// ResetDraft 重置草稿
// @Summary 整体重置草稿(保留模式,清空条目)
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/reset [post]
func (ctrl *DraftController) ResetDraft(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	st.Reset()
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "草稿已重置",
	})
}

// ==================== 条目 ====================

// AddItem 追加链接条目
// @Summary 追加一个商品链接条目
// @Tags Draft
// @Accept json
// @Param draft_id path string true "草稿ID"
// @Param body body dto.AddItemRequest true "商品链接"
// @Success 201 {object} dto.ItemVO
// @Router /api/drafts/{draft_id}/items [post]
func (ctrl *DraftController) AddItem(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	it := st.AddLinkedItem(req.Link)
	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    buildItemVO(it),
	})
}

// RemoveItem 删除条目
// @Summary 删除条目(不存在时幂等成功)
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Param item_id path string true "条目ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/items/{item_id} [delete]
func (ctrl *DraftController) RemoveItem(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	st.RemoveItem(c.Param("item_id"))
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "删除成功",
	})
}

// UpdateItem 条目字段部分更新
// @Summary 更新条目字段(名称/描述/数量/链接)
// @Tags Draft
// @Accept json
// @Param draft_id path string true "草稿ID"
// @Param item_id path string true "条目ID"
// @Param body body dto.UpdateItemRequest true "更新内容"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/items/{item_id} [patch]
func (ctrl *DraftController) UpdateItem(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	var req dto.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	patch := draft.ItemPatch{
		Link:        req.Link,
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
	}

	var err error
	if c.Param("item_id") == "current" {
		err = st.UpdateCurrent(patch)
	} else {
		err = st.UpdateItem(c.Param("item_id"), patch)
	}
	if err != nil {
		writeDraftError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "更新成功",
	})
}

// CommitCurrentItem 把暂存条目提交进列表(手动模式)
// @Summary 提交暂存条目
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Success 201 {object} dto.ItemVO
// @Router /api/drafts/{draft_id}/items/commit [post]
func (ctrl *DraftController) CommitCurrentItem(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	it, err := st.CommitCurrentDraft()
	if err != nil {
		writeDraftError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    0,
		"message": "success",
		"data":    buildItemVO(it),
	})
}

// ==================== 规格属性 ====================

// AddVariant 添加属性行
// @Summary 为条目添加一行规格属性
// @Tags Draft
// @Accept json
// @Param draft_id path string true "草稿ID"
// @Param item_id path string true "条目ID"
// @Param body body dto.AddVariantRequest true "类目选择"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/items/{item_id}/variants [post]
func (ctrl *DraftController) AddVariant(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	var req dto.AddVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	// "other" 表示自定义类目,名称随后经更新接口填写
	var name draft.AttributeName
	if req.Selection == "other" {
		name = draft.CustomName("")
	} else if draft.IsPredefinedAttribute(req.Selection) {
		name = draft.PredefinedName(req.Selection)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "未知的属性类目: " + req.Selection,
		})
		return
	}

	if err := st.AddVariantRow(c.Param("item_id"), name); err != nil {
		writeDraftError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
	})
}

// UpdateVariant 更新属性行
// @Summary 更新条目的某行规格属性
// @Tags Draft
// @Accept json
// @Param draft_id path string true "草稿ID"
// @Param item_id path string true "条目ID"
// @Param index path int true "行下标"
// @Param body body dto.UpdateVariantRequest true "更新内容"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/items/{item_id}/variants/{index} [patch]
func (ctrl *DraftController) UpdateVariant(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的行下标",
		})
		return
	}

	var req dto.UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	patch := draft.VariantPatch{FieldValue: req.Value}
	if req.Name != nil {
		custom := req.Custom != nil && *req.Custom
		n := draft.AttributeName{Custom: custom, Name: *req.Name}
		patch.AttributeName = &n
	}

	if err := st.UpdateVariantRow(c.Param("item_id"), index, patch); err != nil {
		writeDraftError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "更新成功",
	})
}

// RemoveVariant 删除属性行
// @Summary 删除条目的某行规格属性
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Param item_id path string true "条目ID"
// @Param index path int true "行下标"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/items/{item_id}/variants/{index} [delete]
func (ctrl *DraftController) RemoveVariant(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的行下标",
		})
		return
	}

	if err := st.RemoveVariantRow(c.Param("item_id"), index); err != nil {
		writeDraftError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "删除成功",
	})
}

// ==================== 媒体附件 ====================

// UploadMedia 为条目上传一批图片或视频
// 预览在响应里同步返回,远端 URL 之后经草稿详情查询到
// @Summary 上传条目媒体(整批校验,异步上传)
// @Tags Draft
// @Accept multipart/form-data
// @Param draft_id path string true "草稿ID"
// @Param item_id path string true "条目ID"
// @Param kind formData string false "媒体类型 image/video" default(image)
// @Param files formData file true "文件(可多个)"
// @Success 202 {array} dto.PreviewVO
// @Router /api/drafts/{draft_id}/items/{item_id}/media [post]
func (ctrl *DraftController) UploadMedia(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "没有选择文件",
		})
		return
	}

	kind := draft.MediaKindImage
	maxSize := int64(maxImageSize)
	if c.PostForm("kind") == string(draft.MediaKindVideo) {
		kind = draft.MediaKindVideo
		maxSize = maxVideoSize
	}

	files, err := readMultipartFiles(headers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "读取文件失败: " + err.Error(),
		})
		return
	}

	// 上传协程的存活期超过本次请求:响应写出后请求上下文即被取消,
	// 在途上传不能挂在它上面
	previews, err := st.SelectFiles(context.WithoutCancel(c.Request.Context()), c.Param("item_id"), kind, files, maxSize)
	if err != nil {
		writeDraftError(c, err)
		return
	}

	vos := make([]dto.PreviewVO, 0, len(previews))
	for _, p := range previews {
		vos = append(vos, dto.PreviewVO{Handle: p.Handle, Ordinal: p.Ordinal, UploadID: p.UploadID})
	}
	c.JSON(http.StatusAccepted, gin.H{
		"code":    0,
		"message": "上传已启动",
		"data":    vos,
	})
}

// readMultipartFiles 把 multipart 文件头整批读入内存
func readMultipartFiles(headers []*multipart.FileHeader) ([]draft.File, error) {
	files := make([]draft.File, 0, len(headers))
	for _, h := range headers {
		src, err := h.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, draft.File{
			Name:        h.Filename,
			Size:        h.Size,
			ContentType: h.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// RemoveAttachment 移除一条附件
// @Summary 移除条目的预览或已确认图片
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Param item_id path string true "条目ID"
// @Param index path int true "附件下标"
// @Param preview query bool false "为真时移除本地预览,否则移除已确认图片"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/items/{item_id}/media/{index} [delete]
func (ctrl *DraftController) RemoveAttachment(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的附件下标",
		})
		return
	}
	previewOnly := c.Query("preview") == "true"

	if err := st.RemoveAttachment(c.Param("item_id"), index, previewOnly); err != nil {
		writeDraftError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "删除成功",
	})
}

// ==================== 外部导入 ====================

// ImportBatch 外部批量导入
// @Summary 导入外部工具抓取的商品批次(空批次为 no-op)
// @Tags Draft
// @Accept json
// @Param draft_id path string true "草稿ID"
// @Param body body dto.ImportBatchRequest true "商品批次"
// @Success 200 {object} dto.ImportResult
// @Router /api/drafts/{draft_id}/import [post]
func (ctrl *DraftController) ImportBatch(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	var req dto.ImportBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	stubs := make([]draft.ProductStub, 0, len(req.Products))
	for _, p := range req.Products {
		stubs = append(stubs, draft.ProductStub{URL: p.URL, Name: p.Name, MainImage: p.MainImage})
	}

	imported := st.ImportBatch(stubs)
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.ImportResult{Imported: imported},
	})
}

// ==================== 元数据 ====================

// SetShopInfo 设置店铺联系信息
// @Summary 设置店铺联系信息(手动模式)
// @Tags Draft
// @Accept json
// @Param draft_id path string true "草稿ID"
// @Param body body dto.ShopInfoRequest true "店铺信息"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/shop-info [put]
func (ctrl *DraftController) SetShopInfo(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	var req dto.ShopInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	st.SetShopInfo(draft.ShopInfo{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
		Website: req.Website,
	})
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "保存成功",
	})
}

// SetShippingAddress 设置收货地址引用
// @Summary 记录收货地址引用(不透明 id,本地不解析)
// @Tags Draft
// @Accept json
// @Param draft_id path string true "草稿ID"
// @Param body body dto.SetAddressRequest true "地址引用"
// @Success 200 {object} map[string]interface{}
// @Router /api/drafts/{draft_id}/shipping-address [put]
func (ctrl *DraftController) SetShippingAddress(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	var req dto.SetAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	st.SetShippingAddress(req.AddressID)
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "保存成功",
	})
}

// ==================== 步骤 ====================

// AdvanceStep 前进一步
// @Summary 步骤前进(门禁不满足时 moved=false)
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Success 200 {object} dto.StepResult
// @Router /api/drafts/{draft_id}/step/advance [post]
func (ctrl *DraftController) AdvanceStep(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	moved := st.Advance()
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.StepResult{Moved: moved, Step: string(st.Step())},
	})
}

// BackStep 后退一步
// @Summary 步骤后退
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Success 200 {object} dto.StepResult
// @Router /api/drafts/{draft_id}/step/back [post]
func (ctrl *DraftController) BackStep(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	moved := st.Back()
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    dto.StepResult{Moved: moved, Step: string(st.Step())},
	})
}

// ==================== 提交 ====================

// SubmitDraft 提交草稿到订单接入服务
// @Summary 提交草稿(仅确认步骤可用)
// @Tags Draft
// @Param draft_id path string true "草稿ID"
// @Success 200 {object} dto.SubmitResult
// @Router /api/drafts/{draft_id}/submit [post]
func (ctrl *DraftController) SubmitDraft(c *gin.Context) {
	st := ctrl.getStore(c)
	if st == nil {
		return
	}

	userID := currentUserID(c)
	record, err := ctrl.submitSvc.Submit(c.Request.Context(), userID, c.Param("draft_id"), st)
	if err != nil {
		writeDraftError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "提交成功",
		"data": dto.SubmitResult{
			RequestID: record.ID,
			OrderNo:   record.OrderNo,
			Status:    record.Status,
		},
	})
}

// ==================== 平台目录 ====================

// GetSupportedPlatforms 获取支持的来源平台
// @Summary 获取支持的来源平台目录
// @Tags Draft
// @Success 200 {array} dto.PlatformInfo
// @Router /api/drafts/platforms [get]
func (ctrl *DraftController) GetSupportedPlatforms(c *gin.Context) {
	platforms := []dto.PlatformInfo{
		{Code: "taobao", Name: "淘宝/天猫", URLPatterns: []string{"item.taobao.com", "detail.tmall.com"}},
		{Code: "1688", Name: "1688", URLPatterns: []string{"detail.1688.com", "m.1688.com"}},
		{Code: "jd", Name: "京东", URLPatterns: []string{"item.jd.com"}},
		{Code: "pinduoduo", Name: "拼多多", URLPatterns: []string{"mobile.yangkeduo.com"}},
		{Code: "other", Name: "其他平台", URLPatterns: []string{}},
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    platforms,
	})
}

// ==================== 视图转换 ====================

// currentUserID 从 JWT 中间件注入的上下文取用户 ID,未登录场景回落到 1
func currentUserID(c *gin.Context) int64 {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 1
}

func buildItemVO(it draft.ItemDraft) dto.ItemVO {
	previews := make([]dto.PreviewVO, 0, len(it.LocalPreviews))
	for _, p := range it.LocalPreviews {
		previews = append(previews, dto.PreviewVO{Handle: p.Handle, Ordinal: p.Ordinal, UploadID: p.UploadID})
	}
	variants := make([]dto.VariantVO, 0, len(it.Variants))
	for _, v := range it.Variants {
		variants = append(variants, dto.VariantVO{
			Name:   v.AttributeName.Name,
			Custom: v.AttributeName.Custom,
			Value:  v.FieldValue,
		})
	}
	return dto.ItemVO{
		ID:             it.ID,
		Link:           it.Link,
		SourcePlatform: it.SourcePlatform,
		Name:           it.Name,
		Description:    it.Description,
		Quantity:       it.Quantity,
		Images:         it.Images,
		LocalPreviews:  previews,
		Variants:       variants,
	}
}

func buildDraftVO(draftID string, st *draft.Store) dto.DraftVO {
	snap := st.Snapshot()

	items := make([]dto.ItemVO, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, buildItemVO(it))
	}

	vo := dto.DraftVO{
		DraftID:           draftID,
		Mode:              string(snap.Mode),
		Step:              string(snap.Step),
		Items:             items,
		ShopName:          snap.ShopInfo.Name,
		ShopEmail:         snap.ShopInfo.Email,
		ShopAddress:       snap.ShopInfo.Address,
		ShopWebsite:       snap.ShopInfo.Website,
		ShippingAddressID: snap.ShippingAddressID,
	}
	if snap.Current != nil {
		cur := buildItemVO(*snap.Current)
		vo.Current = &cur
	}
	for _, f := range st.Failures() {
		vo.UploadFailures = append(vo.UploadFailures, dto.UploadFailureVO{
			ItemID:   f.ItemID,
			Filename: f.Filename,
			Reason:   f.Reason,
		})
	}
	return vo
}
