package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"omrscan/internal/service"
)

// AnswerKeyHandler handles stored answer key endpoints.
type AnswerKeyHandler struct {
	keyService service.AnswerKeyService
}

// NewAnswerKeyHandler creates a new AnswerKeyHandler.
func NewAnswerKeyHandler(keyService service.AnswerKeyService) *AnswerKeyHandler {
	return &AnswerKeyHandler{keyService: keyService}
}

// CreateFromImage handles POST /api/v1/answer-keys
// @Summary Create an answer key from an image
// @Description Extract the correct answers from a photographed key sheet and store them
// @Tags answer-keys
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Answer key sheet image (JPG or PNG)"
// @Param name formData string true "Answer key name"
// @Param description formData string false "Optional description"
// @Success 201 {object} APIResponse{data=domain.AnswerKey} "Answer key created"
// @Failure 400 {object} APIResponse "Missing file or unreadable key"
// @Failure 503 {object} APIResponse "Vision model unavailable"
// @Router /answer-keys [post]
func (h *AnswerKeyHandler) CreateFromImage(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_NAME", "name field is required")
		return
	}

	image, _, ok := readUpload(c, "file")
	if !ok {
		return
	}

	key, err := h.keyService.CreateFromImage(c.Request.Context(), service.AnswerKeyCreateInput{
		Name:        name,
		Description: c.PostForm("description"),
		Image:       image,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, key)
}

// List handles GET /api/v1/answer-keys
// @Summary List answer keys
// @Tags answer-keys
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.AnswerKey,meta=PagMeta} "List of answer keys"
// @Router /answer-keys [get]
func (h *AnswerKeyHandler) List(c *gin.Context) {
	offset, limit := paginationParams(c)

	keys, total, err := h.keyService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, keys, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/answer-keys/:id
// @Summary Get answer key by ID
// @Tags answer-keys
// @Produce json
// @Param id path string true "Answer key ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.AnswerKey} "Answer key"
// @Failure 404 {object} APIResponse "Answer key not found"
// @Router /answer-keys/{id} [get]
func (h *AnswerKeyHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid answer key ID")
		return
	}

	key, err := h.keyService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, key)
}

// Delete handles DELETE /api/v1/answer-keys/:id
// @Summary Delete an answer key
// @Tags answer-keys
// @Produce json
// @Param id path string true "Answer key ID (UUID)"
// @Success 200 {object} APIResponse "Answer key deleted"
// @Failure 404 {object} APIResponse "Answer key not found"
// @Router /answer-keys/{id} [delete]
func (h *AnswerKeyHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid answer key ID")
		return
	}

	if err := h.keyService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": id})
}

// readUpload reads one multipart file field into memory. On failure it writes
// the error response and returns ok=false.
func readUpload(c *gin.Context, field string) (data []byte, contentType string, ok bool) {
	file, header, err := c.Request.FormFile(field)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", field+" field is required")
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err = io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return nil, "", false
	}
	return data, header.Header.Get("Content-Type"), true
}
