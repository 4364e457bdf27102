package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// CustomerRequest represents the request body for creating a customer
type CustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateCustomer adds a customer record for the merchant.
func CreateCustomer(c *gin.Context) {
	utils.LogInfo("CreateCustomer called")

	merchant := c.MustGet("merchant").(models.Merchant)

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid customer request format: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	customer := models.Customer{
		MerchantID: merchant.ID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
	}
	if err := config.DB.Create(&customer).Error; err != nil {
		utils.LogError("Failed to create customer for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to create customer", err.Error())
		return
	}
	utils.LogInfo("Created customer %d for merchant %d", customer.ID, merchant.ID)

	utils.Created(c, "Customer created", customer)
}

// ListCustomers returns the merchant's customers, newest first.
func ListCustomers(c *gin.Context) {
	utils.LogInfo("ListCustomers called")

	merchant := c.MustGet("merchant").(models.Merchant)
	pagination := utils.NewPagination(c)

	query := config.DB.Model(&models.Customer{}).Where("merchant_id = ?", merchant.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.LogError("Failed to count customers for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to count customers", err.Error())
		return
	}

	var customers []models.Customer
	if err := query.Order("created_at DESC").Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&customers).Error; err != nil {
		utils.LogError("Failed to list customers for merchant %d: %v", merchant.ID, err)
		utils.InternalServerError(c, "Failed to list customers", err.Error())
		return
	}
	utils.LogInfo("Retrieved %d customers for merchant %d", len(customers), merchant.ID)

	utils.SuccessWithPagination(c, "Customers retrieved", gin.H{
		"customers": customers,
	}, total, pagination.Page, pagination.Limit)
}
