package router

import (
	"net/http"
	"time"

	"sisgeagro/api"
	"sisgeagro/config"
	_ "sisgeagro/docs"
	"sisgeagro/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg)))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		v1.POST("/auth/login", middleware.LoginRateLimit(cfg.Login), authHandler.Login)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			movementHandler := api.NewMovementHandler(cfg)
			importHandler := api.NewImportHandler(cfg)
			exportHandler := api.NewExportHandler()
			movements := authorized.Group("/movements")
			{
				movements.POST("", movementHandler.Create)
				movements.GET("", movementHandler.List)
				movements.POST("/search", movementHandler.Search)
				movements.POST("/delete", movementHandler.Delete)
				movements.POST("/import", importHandler.Import)
				movements.GET("/export/excel", exportHandler.ExportExcel)
				movements.GET("/:id", movementHandler.Get)
				movements.PUT("/:id", movementHandler.Update)
				movements.DELETE("/:id", movementHandler.DeleteByPath)
			}

			entityHandler := api.NewEntityHandler()
			authorized.POST("/entities", entityHandler.Create)
			authorized.GET("/entities", entityHandler.List)

			taxHandler := api.NewTaxHandler()
			authorized.POST("/taxes", taxHandler.Create)
			authorized.GET("/taxes", taxHandler.List)

			categoryHandler := api.NewCategoryHandler()
			authorized.GET("/categories", categoryHandler.List)
			authorized.POST("/subcategories", categoryHandler.CreateSubcategory)

			dashboardHandler := api.NewDashboardHandler()
			authorized.GET("/dashboard/summary", dashboardHandler.Summary)

			notificationHandler := api.NewNotificationHandler()
			authorized.GET("/notifications", notificationHandler.List)
		}
	}

	return r
}

// corsConfig 未配置来源时允许全部来源（不携带凭据）
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.Server.AllowOrigins
	c.AllowCredentials = true
	return c
}
