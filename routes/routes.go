package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/stampflow/stampflow/controllers"
	"github.com/stampflow/stampflow/middleware"
)

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter() *gin.Engine {
	router := gin.Default()

	api := router.Group("/v1")
	{
		initPublicRoutes(api)
		initMerchantRoutes(api)
	}

	return router
}

// initPublicRoutes registers the endpoints hit by the scanner app and the
// public card landing page. No auth per product design; the card code is an
// unguessable UUID and the QR token is signed.
func initPublicRoutes(api *gin.RouterGroup) {
	api.POST("/scan", controllers.ProcessScan)
	api.GET("/cards/:code", controllers.GetCard)
	api.GET("/cards/:code/qr", controllers.GetCardQR)
	api.POST("/rewards/:cardInstanceId/redeem", controllers.RedeemReward)
}

// initMerchantRoutes registers the dashboard API, scoped to one merchant by
// API key.
func initMerchantRoutes(api *gin.RouterGroup) {
	merchant := api.Group("/merchant")
	merchant.Use(middleware.MerchantAuth())
	{
		merchant.POST("/definitions", controllers.CreateDefinition)
		merchant.PUT("/definitions/:id", controllers.UpdateDefinition)
		merchant.GET("/definitions", controllers.ListDefinitions)

		merchant.POST("/cards", controllers.IssueCard)
		merchant.GET("/cards", controllers.ListCards)
		merchant.POST("/cards/:id/pause", controllers.PauseCard)
		merchant.POST("/cards/:id/resume", controllers.ResumeCard)
		merchant.POST("/cards/:id/disable", controllers.DisableCard)

		merchant.POST("/customers", controllers.CreateCustomer)
		merchant.GET("/customers", controllers.ListCustomers)

		merchant.POST("/products", controllers.CreateProduct)
		merchant.GET("/products", controllers.ListProducts)

		merchant.GET("/scans", controllers.ListScans)
		merchant.GET("/scans/export/excel", controllers.DownloadScanReportExcel)
		merchant.GET("/scans/export/pdf", controllers.DownloadScanReportPDF)
	}
}
