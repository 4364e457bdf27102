package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// ProductRequest represents the request body for creating a product
type ProductRequest struct {
	Name  string           `json:"name" binding:"required"`
	Price *decimal.Decimal `json:"price"`
}

// CreateProduct adds a catalog product for the merchant. Products are what
// scanners attach to a scan when the definition requires product selection.
func CreateProduct(c *gin.Context) {
	utils.LogInfo("CreateProduct called")

	merchant := c.MustGet("merchant").(models.Merchant)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid product request format: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	price := decimal.Zero
	if req.Price != nil {
		if req.Price.IsNegative() {
			utils.ValidationError(c, "price must not be negative", nil)
			return
		}
		price = *req.Price
	}

	product := models.Product{
		MerchantID: merchant.ID,
		Name:       req.Name,
		Price:      price,
		Active:     true,
	}
	if err := config.DB.Create(&product).Error; err != nil {
		utils.LogError("Failed to create product for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to create product", err.Error())
		return
	}
	utils.LogInfo("Created product %d for merchant %d", product.ID, merchant.ID)

	utils.Created(c, "Product created", product)
}

// ListProducts returns the merchant's active products.
func ListProducts(c *gin.Context) {
	utils.LogInfo("ListProducts called")

	merchant := c.MustGet("merchant").(models.Merchant)
	pagination := utils.NewPagination(c)

	query := config.DB.Model(&models.Product{}).
		Where("merchant_id = ? AND active = ?", merchant.ID, true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.LogError("Failed to count products for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to count products", err.Error())
		return
	}

	var products []models.Product
	if err := query.Order("name ASC").Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&products).Error; err != nil {
		utils.LogError("Failed to list products for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to list products", err.Error())
		return
	}
	utils.LogInfo("Retrieved %d products for merchant %d", len(products), merchant.ID)

	utils.SuccessWithPagination(c, "Products retrieved", gin.H{
		"products": products,
	}, total, pagination.Page, pagination.Limit)
}
