package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"daigou_intake_v1/internal/controller"
	"daigou_intake_v1/internal/middleware"
	"daigou_intake_v1/internal/model"
	"daigou_intake_v1/internal/repository"
	"daigou_intake_v1/internal/router"
	"daigou_intake_v1/internal/service"
	"daigou_intake_v1/internal/task"
	"daigou_intake_v1/pkg/database"
	"daigou_intake_v1/pkg/utils"
)

func main() {
	// 0. 加载环境变量(.env 不存在时静默跳过)
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件,使用系统环境变量")
	}

	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	deps.CleanupTask.Start()
	defer deps.CleanupTask.Stop()

	// 4. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, deps.DraftCtl, deps.RequestCtl)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	RequestRepo repository.RequestRepository

	Manager     *service.DraftManager
	StorageSvc  *service.StorageService
	SubmitSvc   *service.SubmitService
	CleanupTask *task.CleanupTask

	DraftCtl   *controller.DraftController
	RequestCtl *controller.RequestController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=postgres password=postgres dbname=daigou port=5432 sslmode=disable")
	return database.InitDB(dsn,
		&model.PurchaseRequest{}, &model.RequestItem{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	requestRepo := repository.NewRequestRepository(db)

	// -------- 存储服务 --------
	storageSvc := initStorageService()

	// -------- 核心服务 --------
	manager := service.NewDraftManager(storageSvc)
	submitSvc := service.NewSubmitService(
		requestRepo,
		utils.NewIntakeClient(getEnv("GIN_MODE", "") != "release"),
		getEnv("ORDER_INTAKE_URL", "http://localhost:9090/api/orders/intake"),
	)

	// -------- JWT --------
	if secret := getEnv("JWT_SECRET", ""); secret != "" {
		middleware.SetJWTConfig(&middleware.JWTConfig{
			SecretKey:      secret,
			AccessTokenTTL: 24 * time.Hour,
			Issuer:         "daigou-intake",
		})
	}

	// -------- 定时任务 --------
	ttl := 2 * time.Hour
	if v := getEnv("DRAFT_IDLE_TTL", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}
	cleanupTask := task.NewCleanupTask(manager, ttl)

	return &Dependencies{
		DB:          db,
		RequestRepo: requestRepo,
		Manager:     manager,
		StorageSvc:  storageSvc,
		SubmitSvc:   submitSvc,
		CleanupTask: cleanupTask,
		DraftCtl:    controller.NewDraftController(manager, submitSvc),
		RequestCtl:  controller.NewRequestController(requestRepo),
	}
}

// initStorageService 初始化存储服务
func initStorageService() *service.StorageService {
	storageSvc, err := service.NewStorageService(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "local"),
		Bucket:    getEnv("STORAGE_BUCKET", ""),
		Region:    getEnv("STORAGE_REGION", ""),
		AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
		CDNDomain: getEnv("STORAGE_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "daigou-media"),
	})
	if err != nil {
		// 没有可用的媒体托管就不该起服务,带病启动只会在首次上传时崩掉
		log.Fatalf("存储服务初始化失败: %v", err)
	}
	return storageSvc
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭,最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
