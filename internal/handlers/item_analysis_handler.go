package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/item-analysis-service/internal/services"
	"github.com/SAP-F-2025/item-analysis-service/internal/utils"
	"github.com/SAP-F-2025/item-analysis-service/internal/validator"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ItemAnalysisHandler struct {
	BaseHandler
	itemAnalysisService services.ItemAnalysisService
	validator           *validator.Validator
}

func NewItemAnalysisHandler(
	itemAnalysisService services.ItemAnalysisService,
	validator *validator.Validator,
	logger utils.Logger,
) *ItemAnalysisHandler {
	return &ItemAnalysisHandler{
		BaseHandler:         NewBaseHandler(logger),
		itemAnalysisService: itemAnalysisService,
		validator:           validator,
	}
}

// Analyze recomputes item statistics for an exam
// @Summary Run item analysis
// @Description Recomputes per-question statistics from all completed attempts and stores them
// @Tags item-analysis
// @Produce json
// @Param X-Tenant-ID header string true "Tenant ID"
// @Param exam_id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse{data=[]models.QuestionItemAnalysis}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{exam_id}/item-analysis [post]
func (h *ItemAnalysisHandler) Analyze(c *gin.Context) {
	var uri ExamURI
	if !bindURI(c, h.validator, &uri) {
		return
	}
	tenantID := TenantFromContext(c)

	h.LogRequest(c, "Running item analysis", "exam_id", uri.ExamID)

	rows, err := h.itemAnalysisService.Analyze(requestContext(c), tenantID, uri.ExamID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Item analysis completed", rows)
}

// GetAllAnalyses lists the stored analyses of an exam
// @Summary List item analyses
// @Description Returns every stored question analysis of the exam ordered by question order
// @Tags item-analysis
// @Produce json
// @Param X-Tenant-ID header string true "Tenant ID"
// @Param exam_id path uint true "Exam ID"
// @Success 200 {array} models.QuestionItemAnalysis
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{exam_id}/item-analysis [get]
func (h *ItemAnalysisHandler) GetAllAnalyses(c *gin.Context) {
	var uri ExamURI
	if !bindURI(c, h.validator, &uri) {
		return
	}

	rows, err := h.itemAnalysisService.GetAllAnalyses(requestContext(c), TenantFromContext(c), uri.ExamID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// GetAnalysis returns the stored analysis of one question
// @Summary Get question analysis
// @Tags item-analysis
// @Produce json
// @Param X-Tenant-ID header string true "Tenant ID"
// @Param exam_id path uint true "Exam ID"
// @Param question_id path uint true "Question ID"
// @Success 200 {object} models.QuestionItemAnalysis
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{exam_id}/item-analysis/{question_id} [get]
func (h *ItemAnalysisHandler) GetAnalysis(c *gin.Context) {
	var uri QuestionURI
	if !bindURI(c, h.validator, &uri) {
		return
	}

	row, err := h.itemAnalysisService.GetAnalysis(requestContext(c), TenantFromContext(c), uri.ExamID, uri.QuestionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

// ExportAnalyses downloads the stored analyses as a spreadsheet
// @Summary Export item analyses
// @Tags item-analysis
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param X-Tenant-ID header string true "Tenant ID"
// @Param exam_id path uint true "Exam ID"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exams/{exam_id}/item-analysis/export [get]
func (h *ItemAnalysisHandler) ExportAnalyses(c *gin.Context) {
	var uri ExamURI
	if !bindURI(c, h.validator, &uri) {
		return
	}

	data, err := h.itemAnalysisService.ExportAnalyses(requestContext(c), TenantFromContext(c), uri.ExamID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="exam-%d-item-analysis.xlsx"`, uri.ExamID))
	c.Data(http.StatusOK, xlsxContentType, data)
}
