package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"omrscan/internal/service"
)

// TemplateHandler handles answer-key template endpoints.
type TemplateHandler struct {
	templateService service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

type createTemplateRequest struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	TotalQuestions int             `json:"total_questions"`
	AnswerKey      json.RawMessage `json:"answer_key" binding:"required"`
}

// Create handles POST /api/v1/templates
// @Summary Create a template
// @Description Create a named answer-key template to grade sheets against
// @Tags templates
// @Accept json
// @Produce json
// @Param request body createTemplateRequest true "Template definition"
// @Success 201 {object} APIResponse{data=domain.Template} "Template created"
// @Failure 400 {object} APIResponse "Invalid request or answer key"
// @Router /templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name and answer_key are required")
		return
	}

	tpl, err := h.templateService.Create(c.Request.Context(), service.TemplateCreateInput{
		Name:           req.Name,
		Description:    req.Description,
		TotalQuestions: req.TotalQuestions,
		AnswerKey:      req.AnswerKey,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, tpl)
}

// List handles GET /api/v1/templates
// @Summary List templates
// @Description List templates with pagination
// @Tags templates
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.Template,meta=PagMeta} "List of templates"
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	offset, limit := paginationParams(c)

	templates, total, err := h.templateService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, templates, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/templates/:id
// @Summary Get template by ID
// @Tags templates
// @Produce json
// @Param id path string true "Template ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.Template} "Template"
// @Failure 404 {object} APIResponse "Template not found"
// @Router /templates/{id} [get]
func (h *TemplateHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid template ID")
		return
	}

	tpl, err := h.templateService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, tpl)
}

// Delete handles DELETE /api/v1/templates/:id
// @Summary Delete a template
// @Tags templates
// @Produce json
// @Param id path string true "Template ID (UUID)"
// @Success 200 {object} APIResponse "Template deleted"
// @Failure 404 {object} APIResponse "Template not found"
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid template ID")
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": id})
}

// paginationParams reads offset/limit query params with the API defaults.
func paginationParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
