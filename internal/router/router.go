package router

import (
	"github.com/gin-gonic/gin"

	"daigou_intake_v1/internal/controller"
	"daigou_intake_v1/internal/middleware"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	draftCtl *controller.DraftController,
	requestCtl *controller.RequestController) {
	// API 路由组
	// 草稿接口走可选认证:未登录也能建草稿,登录后提交记到用户名下
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth())
	{
		// drafts 草稿构建
		drafts := api.Group("/drafts")
		{
			// POST /api/drafts
			drafts.POST("", draftCtl.CreateDraft)
			// GET /api/drafts/platforms
			drafts.GET("/platforms", draftCtl.GetSupportedPlatforms)

			drafts.GET("/:draft_id", draftCtl.GetDraft)
			drafts.DELETE("/:draft_id", draftCtl.DiscardDraft)
			drafts.POST("/:draft_id/reset", draftCtl.ResetDraft)

			// 条目
			drafts.POST("/:draft_id/items", draftCtl.AddItem)
			// 手动模式:暂存条目提交;item_id 为 "current" 时更新暂存区
			drafts.POST("/:draft_id/items/commit", draftCtl.CommitCurrentItem)
			drafts.PATCH("/:draft_id/items/:item_id", draftCtl.UpdateItem)
			drafts.DELETE("/:draft_id/items/:item_id", draftCtl.RemoveItem)

			// 规格属性
			drafts.POST("/:draft_id/items/:item_id/variants", draftCtl.AddVariant)
			drafts.PATCH("/:draft_id/items/:item_id/variants/:index", draftCtl.UpdateVariant)
			drafts.DELETE("/:draft_id/items/:item_id/variants/:index", draftCtl.RemoveVariant)

			// 媒体附件
			drafts.POST("/:draft_id/items/:item_id/media", draftCtl.UploadMedia)
			drafts.DELETE("/:draft_id/items/:item_id/media/:index", draftCtl.RemoveAttachment)

			// 外部批量导入(配套浏览器插件,可能连发)
			drafts.POST("/:draft_id/import",
				middleware.DraftRateLimit(middleware.OpTypeImport, 0),
				draftCtl.ImportBatch)

			// 元数据
			drafts.PUT("/:draft_id/shop-info", draftCtl.SetShopInfo)
			drafts.PUT("/:draft_id/shipping-address", draftCtl.SetShippingAddress)

			// 步骤
			drafts.POST("/:draft_id/step/advance", draftCtl.AdvanceStep)
			drafts.POST("/:draft_id/step/back", draftCtl.BackStep)

			// 提交(防连点)
			drafts.POST("/:draft_id/submit",
				middleware.DraftRateLimit(middleware.OpTypeSubmit, 0),
				draftCtl.SubmitDraft)
		}

		// requests 已提交请求的历史查询
		requests := api.Group("/requests")
		{
			// GET /api/requests
			requests.GET("", requestCtl.ListRequests)
			requests.GET("/:id", requestCtl.GetRequest)
		}
	}
}
