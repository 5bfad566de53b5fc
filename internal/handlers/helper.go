package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/item-analysis-service/internal/utils"
	"github.com/SAP-F-2025/item-analysis-service/internal/validator"
	"github.com/gin-gonic/gin"
)

const tenantContextKey = "tenant_id"

type tenantHeader struct {
	TenantID string `json:"X-Tenant-ID" validate:"required,tenant_id"`
}

// RequireTenant rejects requests without a usable X-Tenant-ID header
func RequireTenant(v *validator.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := tenantHeader{TenantID: c.GetHeader(utils.TenantIDHeader)}
		if err := v.ValidateStruct(header); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
				Message: "Missing or invalid " + utils.TenantIDHeader + " header",
				Details: err,
			})
			return
		}
		c.Set(tenantContextKey, header.TenantID)
		c.Next()
	}
}

func TenantFromContext(c *gin.Context) string {
	return c.GetString(tenantContextKey)
}

// ExamURI holds path params of exam scoped routes
type ExamURI struct {
	ExamID uint `uri:"exam_id" validate:"required,min=1"`
}

// QuestionURI holds path params of question scoped routes
type QuestionURI struct {
	ExamID     uint `uri:"exam_id" validate:"required,min=1"`
	QuestionID uint `uri:"question_id" validate:"required,min=1"`
}

// bindURI parses and validates path params, writing a 400 response on failure
func bindURI(c *gin.Context, v *validator.Validator, dest interface{}) bool {
	if err := c.ShouldBindUri(dest); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid path parameter",
			Details: err.Error(),
		})
		return false
	}
	if err := v.ValidateStruct(dest); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid path parameter",
			Details: err,
		})
		return false
	}
	return true
}
