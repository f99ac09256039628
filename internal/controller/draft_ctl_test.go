package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"daigou_intake_v1/internal/draft"
	"daigou_intake_v1/internal/service"
)

// ==================== 测试辅助 ====================

// stubUploader 总是成功的上传器,URL 按文件名生成
type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, f draft.File, kind draft.MediaKind) (string, error) {
	return "https://cdn.example.com/" + string(kind) + "/" + f.Name, nil
}

// gatedUploader 在放行前阻塞,并把上传时刻的 ctx 状态透传为结果
type gatedUploader struct {
	release chan struct{}
}

func (u *gatedUploader) Upload(ctx context.Context, f draft.File, kind draft.MediaKind) (string, error) {
	<-u.release
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "https://cdn.example.com/" + string(kind) + "/" + f.Name, nil
}

func setupDraftRouter() (*gin.Engine, *service.DraftManager) {
	return setupDraftRouterWith(stubUploader{})
}

func setupDraftRouterWith(uploader draft.Uploader) (*gin.Engine, *service.DraftManager) {
	gin.SetMode(gin.TestMode)
	manager := service.NewDraftManager(uploader)
	ctrl := NewDraftController(manager, nil)

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	drafts := api.Group("/drafts")
	{
		drafts.POST("", ctrl.CreateDraft)
		drafts.GET("/platforms", ctrl.GetSupportedPlatforms)
		drafts.GET("/:draft_id", ctrl.GetDraft)
		drafts.DELETE("/:draft_id", ctrl.DiscardDraft)
		drafts.POST("/:draft_id/reset", ctrl.ResetDraft)
		drafts.POST("/:draft_id/items", ctrl.AddItem)
		drafts.POST("/:draft_id/items/commit", ctrl.CommitCurrentItem)
		drafts.PATCH("/:draft_id/items/:item_id", ctrl.UpdateItem)
		drafts.DELETE("/:draft_id/items/:item_id", ctrl.RemoveItem)
		drafts.POST("/:draft_id/items/:item_id/variants", ctrl.AddVariant)
		drafts.PATCH("/:draft_id/items/:item_id/variants/:index", ctrl.UpdateVariant)
		drafts.DELETE("/:draft_id/items/:item_id/variants/:index", ctrl.RemoveVariant)
		drafts.POST("/:draft_id/items/:item_id/media", ctrl.UploadMedia)
		drafts.DELETE("/:draft_id/items/:item_id/media/:index", ctrl.RemoveAttachment)
		drafts.POST("/:draft_id/import", ctrl.ImportBatch)
		drafts.PUT("/:draft_id/shop-info", ctrl.SetShopInfo)
		drafts.PUT("/:draft_id/shipping-address", ctrl.SetShippingAddress)
		drafts.POST("/:draft_id/step/advance", ctrl.AdvanceStep)
		drafts.POST("/:draft_id/step/back", ctrl.BackStep)
	}
	return r, manager
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("编码请求体失败: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func createDraft(t *testing.T, r *gin.Engine, mode string) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/drafts", map[string]string{"mode": mode})
	if w.Code != http.StatusCreated {
		t.Fatalf("创建草稿失败: %d %s", w.Code, w.Body.String())
	}
	data := resp["data"].(map[string]any)
	return data["draft_id"].(string)
}

// ==================== 单元测试 ====================

func TestDraftController_CreateAndGet(t *testing.T) {
	r, _ := setupDraftRouter()

	id := createDraft(t, r, "link")

	w, resp := doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data := resp["data"].(map[string]any)
	if data["mode"] != "link" || data["step"] != "link_input" {
		t.Errorf("mode/step 不符: %v / %v", data["mode"], data["step"])
	}
}

func TestDraftController_GetMissingDraft(t *testing.T) {
	r, _ := setupDraftRouter()

	w, _ := doJSON(t, r, http.MethodGet, "/api/drafts/no-such-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDraftController_ItemLifecycle(t *testing.T) {
	r, _ := setupDraftRouter()
	id := createDraft(t, r, "link")

	// 添加条目
	w, resp := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		map[string]string{"link": "https://item.taobao.com/item.htm?id=42"})
	if w.Code != http.StatusCreated {
		t.Fatalf("添加条目失败: %d %s", w.Code, w.Body.String())
	}
	item := resp["data"].(map[string]any)
	itemID := item["id"].(string)
	if item["source_platform"] != "item.taobao.com" {
		t.Errorf("platform = %v", item["source_platform"])
	}

	// 更新字段
	w, _ = doJSON(t, r, http.MethodPatch, "/api/drafts/"+id+"/items/"+itemID,
		map[string]any{"name": "保温杯", "quantity": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("更新条目失败: %d %s", w.Code, w.Body.String())
	}

	// 非法数量整体拒绝
	w, _ = doJSON(t, r, http.MethodPatch, "/api/drafts/"+id+"/items/"+itemID,
		map[string]any{"quantity": 11})
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法数量 status = %d, want 400", w.Code)
	}

	// 详情里反映更新
	_, resp = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	items := resp["data"].(map[string]any)["items"].([]any)
	got := items[0].(map[string]any)
	if got["name"] != "保温杯" || got["quantity"].(float64) != 3 {
		t.Errorf("条目未更新: %v", got)
	}

	// 删除条目,重复删除幂等
	for i := 0; i < 2; i++ {
		w, _ = doJSON(t, r, http.MethodDelete, "/api/drafts/"+id+"/items/"+itemID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("删除条目 status = %d", w.Code)
		}
	}

	// 更新不存在的条目
	w, _ = doJSON(t, r, http.MethodPatch, "/api/drafts/"+id+"/items/"+itemID,
		map[string]any{"name": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("不存在条目 status = %d, want 404", w.Code)
	}
}

func TestDraftController_ManualModeCommit(t *testing.T) {
	r, _ := setupDraftRouter()
	id := createDraft(t, r, "manual")

	// 空名称不能提交
	w, _ := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items/commit", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("空名称提交 status = %d, want 400", w.Code)
	}

	// 填名称后提交
	w, _ = doJSON(t, r, http.MethodPatch, "/api/drafts/"+id+"/items/current",
		map[string]any{"name": "手工皂"})
	if w.Code != http.StatusOK {
		t.Fatalf("更新暂存条目失败: %d %s", w.Code, w.Body.String())
	}
	w, resp := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items/commit", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("提交暂存条目失败: %d %s", w.Code, w.Body.String())
	}
	if resp["data"].(map[string]any)["name"] != "手工皂" {
		t.Error("提交结果名称不符")
	}

	// 店铺信息
	w, _ = doJSON(t, r, http.MethodPut, "/api/drafts/"+id+"/shop-info",
		map[string]string{"name": "小林杂货铺", "email": "shop@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("保存店铺信息失败: %d", w.Code)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	data := resp["data"].(map[string]any)
	if data["shop_name"] != "小林杂货铺" {
		t.Errorf("shop_name = %v", data["shop_name"])
	}
	if len(data["items"].([]any)) != 1 {
		t.Errorf("items = %d, want 1", len(data["items"].([]any)))
	}
}

func TestDraftController_Variants(t *testing.T) {
	r, _ := setupDraftRouter()
	id := createDraft(t, r, "link")

	_, resp := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		map[string]string{"link": "https://www.example.com/p/1"})
	itemID := resp["data"].(map[string]any)["id"].(string)
	base := "/api/drafts/" + id + "/items/" + itemID + "/variants"

	// 预定义类目
	w, _ := doJSON(t, r, http.MethodPost, base, map[string]string{"selection": "Color"})
	if w.Code != http.StatusOK {
		t.Fatalf("添加属性行失败: %d %s", w.Code, w.Body.String())
	}

	// 未知类目拒绝
	w, _ = doJSON(t, r, http.MethodPost, base, map[string]string{"selection": "Weight"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("未知类目 status = %d, want 400", w.Code)
	}

	// "other" 走自定义
	w, _ = doJSON(t, r, http.MethodPost, base, map[string]string{"selection": "other"})
	if w.Code != http.StatusOK {
		t.Fatalf("添加自定义行失败: %d", w.Code)
	}

	// 更新取值与自定义名
	value := "红色"
	w, _ = doJSON(t, r, http.MethodPatch, base+"/0", map[string]any{"value": value})
	if w.Code != http.StatusOK {
		t.Fatalf("更新属性行失败: %d", w.Code)
	}
	custom := true
	w, _ = doJSON(t, r, http.MethodPatch, base+"/1", map[string]any{"name": "刻字", "custom": custom, "value": "生日快乐"})
	if w.Code != http.StatusOK {
		t.Fatalf("更新自定义行失败: %d", w.Code)
	}

	// 越界
	w, _ = doJSON(t, r, http.MethodPatch, base+"/9", map[string]any{"value": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("越界更新 status = %d, want 400", w.Code)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	variants := resp["data"].(map[string]any)["items"].([]any)[0].(map[string]any)["variants"].([]any)
	if len(variants) != 2 {
		t.Fatalf("variants = %d, want 2", len(variants))
	}
	v0 := variants[0].(map[string]any)
	if v0["name"] != "Color" || v0["value"] != "红色" {
		t.Errorf("行0不符: %v", v0)
	}
	v1 := variants[1].(map[string]any)
	if v1["name"] != "刻字" || v1["custom"] != true {
		t.Errorf("行1不符: %v", v1)
	}

	// 删除行
	w, _ = doJSON(t, r, http.MethodDelete, base+"/0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("删除属性行失败: %d", w.Code)
	}
}

func TestDraftController_UploadMedia(t *testing.T) {
	r, manager := setupDraftRouter()
	id := createDraft(t, r, "link")

	_, resp := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		map[string]string{"link": "https://www.example.com/p/1"})
	itemID := resp["data"].(map[string]any)["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="files"; filename="a.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	_, _ = part.Write([]byte("fake-jpeg"))
	_ = mw.WriteField("kind", "image")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/drafts/"+id+"/items/"+itemID+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("上传 status = %d: %s", w.Code, w.Body.String())
	}
	var uploadResp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &uploadResp)
	previews := uploadResp["data"].([]any)
	if len(previews) != 1 {
		t.Fatalf("previews = %d, want 1", len(previews))
	}

	// 等上传落定后,详情里出现已确认的 URL
	st, err := manager.Get(id)
	if err != nil {
		t.Fatalf("取草稿失败: %v", err)
	}
	st.WaitUploads()

	_, resp = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	images := resp["data"].(map[string]any)["items"].([]any)[0].(map[string]any)["images"].([]any)
	if len(images) != 1 {
		t.Fatalf("images = %d, want 1", len(images))
	}
	if images[0] != "https://cdn.example.com/image/a.jpg" {
		t.Errorf("url = %v", images[0])
	}
}

func TestDraftController_UploadSurvivesRequestCompletion(t *testing.T) {
	uploader := &gatedUploader{release: make(chan struct{})}
	r, manager := setupDraftRouterWith(uploader)

	// 走真实 HTTP 服务,让请求上下文在响应写出后真正被取消
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/drafts", "application/json",
		bytes.NewBufferString(`{"mode":"link"}`))
	if err != nil {
		t.Fatalf("创建草稿失败: %v", err)
	}
	var created map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	id := created["data"].(map[string]any)["draft_id"].(string)

	resp, err = http.Post(srv.URL+"/api/drafts/"+id+"/items", "application/json",
		bytes.NewBufferString(`{"link":"https://www.example.com/p/1"}`))
	if err != nil {
		t.Fatalf("添加条目失败: %v", err)
	}
	var added map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&added)
	resp.Body.Close()
	itemID := added["data"].(map[string]any)["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="files"; filename="a.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	_, _ = part.Write([]byte("fake-jpeg"))
	_ = mw.Close()

	resp, err = http.Post(srv.URL+"/api/drafts/"+id+"/items/"+itemID+"/media",
		mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("上传 status = %d", resp.StatusCode)
	}

	// 响应已完整返回,此刻才放行上传;请求上下文的取消不得波及它
	close(uploader.release)

	st, err := manager.Get(id)
	if err != nil {
		t.Fatalf("取草稿失败: %v", err)
	}
	st.WaitUploads()

	snap := st.Snapshot()
	if len(snap.Items[0].Images) != 1 {
		t.Fatalf("images = %d, want 1 (响应返回后上传不应被取消)", len(snap.Items[0].Images))
	}
	if failures := st.Failures(); len(failures) != 0 {
		t.Errorf("不应有失败记录: %+v", failures)
	}
}

func TestDraftController_UploadWrongTypeRejected(t *testing.T) {
	r, _ := setupDraftRouter()
	id := createDraft(t, r, "link")

	_, resp := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		map[string]string{"link": "https://www.example.com/p/1"})
	itemID := resp["data"].(map[string]any)["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="files"; filename="doc.pdf"`},
		"Content-Type":        {"application/pdf"},
	})
	_, _ = part.Write([]byte("%PDF"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/drafts/"+id+"/items/"+itemID+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDraftController_ImportBatch(t *testing.T) {
	r, _ := setupDraftRouter()
	id := createDraft(t, r, "link")

	doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		map[string]string{"link": "https://www.example.com/p/keep-me"})

	// 空批次 no-op
	w, resp := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/import",
		map[string]any{"products": []any{}})
	if w.Code != http.StatusOK {
		t.Fatalf("导入 status = %d", w.Code)
	}
	if resp["data"].(map[string]any)["imported"].(float64) != 0 {
		t.Error("空批次 imported 应为 0")
	}
	_, resp = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	if len(resp["data"].(map[string]any)["items"].([]any)) != 1 {
		t.Error("空批次不应动现有条目")
	}

	// 非空批次整体替换
	w, resp = doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/import", map[string]any{
		"products": []map[string]string{
			{"url": "https://item.taobao.com/item.htm?id=1", "name": "保温杯", "mainImage": "https://img.example.com/1.jpg"},
			{"url": "https://item.taobao.com/item.htm?id=2", "name": "笔记本"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("导入 status = %d", w.Code)
	}
	if resp["data"].(map[string]any)["imported"].(float64) != 2 {
		t.Error("imported 应为 2")
	}
	_, resp = doJSON(t, r, http.MethodGet, "/api/drafts/"+id, nil)
	items := resp["data"].(map[string]any)["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].(map[string]any)["name"] != "保温杯" {
		t.Errorf("导入条目不符: %v", items[0])
	}
}

func TestDraftController_StepFlow(t *testing.T) {
	r, _ := setupDraftRouter()
	id := createDraft(t, r, "link")

	advance := func() (bool, string) {
		_, resp := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/step/advance", nil)
		data := resp["data"].(map[string]any)
		return data["moved"].(bool), data["step"].(string)
	}

	// link_input -> request_items
	if moved, step := advance(); !moved || step != "request_items" {
		t.Fatalf("advance = %v %s", moved, step)
	}
	// 空条目被门禁拦下
	if moved, step := advance(); moved || step != "request_items" {
		t.Fatalf("空条目不应放行: %v %s", moved, step)
	}

	doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/items",
		map[string]string{"link": "https://www.example.com/p/1"})
	if moved, step := advance(); !moved || step != "confirmation" {
		t.Fatalf("advance = %v %s", moved, step)
	}

	// 后退
	_, resp := doJSON(t, r, http.MethodPost, "/api/drafts/"+id+"/step/back", nil)
	data := resp["data"].(map[string]any)
	if !data["moved"].(bool) || data["step"] != "request_items" {
		t.Fatalf("back = %v", data)
	}
}

func TestDraftController_Platforms(t *testing.T) {
	r, _ := setupDraftRouter()

	w, resp := doJSON(t, r, http.MethodGet, "/api/drafts/platforms", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	platforms := resp["data"].([]any)
	if len(platforms) == 0 {
		t.Fatal("平台目录不应为空")
	}
}
