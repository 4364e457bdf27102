package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

// MerchantAuth scopes dashboard endpoints to one merchant via an API key of
// the form "sk_<merchantID>_<secret>". Only the bcrypt hash of the secret is
// stored. This is tenant scoping, not user authentication; the dashboard's
// login flow lives in a separate service.
func MerchantAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			utils.LogError("Missing X-API-Key header")
			c.JSON(401, gin.H{"error": "API key required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(apiKey, "_", 3)
		if len(parts) != 3 || parts[0] != "sk" {
			utils.LogError("Malformed API key")
			c.JSON(401, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		merchantID, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			utils.LogError("Malformed merchant ID in API key: %v", err)
			c.JSON(401, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		var merchant models.Merchant
		if err := config.DB.First(&merchant, uint(merchantID)).Error; err != nil {
			utils.LogError("Merchant %d not found: %v", merchantID, err)
			c.JSON(401, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		if !merchant.IsActive {
			utils.LogError("Inactive merchant %d attempted access", merchant.ID)
			c.JSON(403, gin.H{"error": "Account is disabled"})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(merchant.APIKeyHash), []byte(parts[2])); err != nil {
			utils.LogError("API key mismatch for merchant %d", merchant.ID)
			c.JSON(401, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		c.Set("merchant", merchant)
		utils.LogInfo("Merchant %d authenticated successfully", merchant.ID)
		c.Next()
	}
}
