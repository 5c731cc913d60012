package http

import (
	"net/http"

	"catalog-admin/internal/products/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	healthStatusOK        = "ok"
	healthStatusUnhealthy = "unhealthy"
)

type HealthChecker interface {
	Health() error
}

type Routes struct {
	Products  *Handler
	Auth      *AuthHandler
	Health    HealthChecker
	UploadDir string
	// Guard, when set, runs in front of every /api/products route.
	Guard gin.HandlerFunc
}

func RegisterRoutes(router *gin.Engine, r Routes) {
	api := router.Group("/api")
	api.POST("/login", r.Auth.Login)

	catalog := api.Group("/products")
	if r.Guard != nil {
		catalog.Use(r.Guard)
	}
	catalog.GET("", r.Products.ListProducts)
	catalog.POST("", r.Products.CreateProduct)
	catalog.PUT("/:id", r.Products.UpdateProduct)
	catalog.DELETE("/:id", r.Products.DeleteProduct)

	router.Static(storage.PublicPrefix, r.UploadDir)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := r.Health.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": healthStatusUnhealthy})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": healthStatusOK})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
