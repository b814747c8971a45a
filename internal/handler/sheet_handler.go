package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"omrscan/internal/csvexport"
	"omrscan/internal/imaging"
	"omrscan/internal/service"
)

// SheetHandler handles sheet processing and management endpoints.
type SheetHandler struct {
	sheetService service.SheetService
}

// NewSheetHandler creates a new SheetHandler.
func NewSheetHandler(sheetService service.SheetService) *SheetHandler {
	return &SheetHandler{sheetService: sheetService}
}

// ProcessFull handles POST /api/v1/sheets/upload
// @Summary Process a full answer sheet
// @Description Extract identity and responses from a full sheet photo and grade it against a template
// @Tags sheets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Sheet image (JPG or PNG)"
// @Param template_id formData string true "Template ID (UUID)"
// @Param student_name formData string false "Override the extracted student name"
// @Param roll_number formData string false "Override the extracted roll number"
// @Param exam_date formData string false "Override the extracted exam date"
// @Success 201 {object} APIResponse{data=domain.Sheet} "Scored sheet"
// @Failure 400 {object} APIResponse "Missing file or invalid template"
// @Failure 404 {object} APIResponse "Template not found"
// @Failure 503 {object} APIResponse "Vision model unavailable"
// @Router /sheets/upload [post]
func (h *SheetHandler) ProcessFull(c *gin.Context) {
	templateID, ok := formUUID(c, "template_id")
	if !ok {
		return
	}
	image, _, ok := readUpload(c, "file")
	if !ok {
		return
	}

	sheet, err := h.sheetService.ProcessFull(c.Request.Context(), service.ProcessFullInput{
		TemplateID: templateID,
		Image:      image,
		Identity:   identityFromForm(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, sheet)
}

// ProcessFullByAnswerKey handles POST /api/v1/sheets/upload-by-answer-key
// @Summary Process a full answer sheet against a stored answer key
// @Tags sheets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Sheet image (JPG or PNG)"
// @Param answer_key_id formData string true "Answer key ID (UUID)"
// @Param student_name formData string false "Override the extracted student name"
// @Param roll_number formData string false "Override the extracted roll number"
// @Param exam_date formData string false "Override the extracted exam date"
// @Success 201 {object} APIResponse{data=domain.Sheet} "Scored sheet"
// @Failure 404 {object} APIResponse "Answer key not found"
// @Router /sheets/upload-by-answer-key [post]
func (h *SheetHandler) ProcessFullByAnswerKey(c *gin.Context) {
	keyID, ok := formUUID(c, "answer_key_id")
	if !ok {
		return
	}
	image, _, ok := readUpload(c, "file")
	if !ok {
		return
	}

	sheet, err := h.sheetService.ProcessFullByAnswerKey(c.Request.Context(), service.ProcessFullByKeyInput{
		AnswerKeyID: keyID,
		Image:       image,
		Identity:    identityFromForm(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, sheet)
}

// ProcessRegion handles POST /api/v1/sheets/process-region
// @Summary Process a coordinate-defined region of a sheet
// @Description Crop the response grid out of a full sheet photo by relative coordinates and grade it
// @Tags sheets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Sheet image (JPG or PNG)"
// @Param answer_key_id formData string true "Answer key ID (UUID)"
// @Param x formData number true "Left edge of the region, relative [0,1]"
// @Param y formData number true "Top edge of the region, relative [0,1]"
// @Param width formData number true "Region width, relative (0,1]"
// @Param height formData number true "Region height, relative (0,1]"
// @Success 201 {object} APIResponse{data=domain.Sheet} "Scored sheet"
// @Failure 400 {object} APIResponse "Invalid crop coordinates"
// @Router /sheets/process-region [post]
func (h *SheetHandler) ProcessRegion(c *gin.Context) {
	keyID, ok := formUUID(c, "answer_key_id")
	if !ok {
		return
	}
	region, ok := cropRegionFromForm(c)
	if !ok {
		return
	}
	image, _, ok := readUpload(c, "file")
	if !ok {
		return
	}

	sheet, err := h.sheetService.ProcessRegion(c.Request.Context(), service.ProcessRegionInput{
		AnswerKeyID: keyID,
		Image:       image,
		Region:      region,
		Identity:    identityFromForm(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, sheet)
}

// ProcessCropped handles POST /api/v1/sheets/process-cropped
// @Summary Process a pre-cropped response grid
// @Description Grade a client-cropped image that contains only the response grid
// @Tags sheets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Cropped grid image (JPG or PNG)"
// @Param answer_key_id formData string true "Answer key ID (UUID)"
// @Success 201 {object} APIResponse{data=domain.Sheet} "Scored sheet"
// @Router /sheets/process-cropped [post]
func (h *SheetHandler) ProcessCropped(c *gin.Context) {
	keyID, ok := formUUID(c, "answer_key_id")
	if !ok {
		return
	}
	image, _, ok := readUpload(c, "file")
	if !ok {
		return
	}

	sheet, err := h.sheetService.ProcessCropped(c.Request.Context(), service.ProcessCroppedInput{
		AnswerKeyID: keyID,
		Image:       image,
		Identity:    identityFromForm(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, sheet)
}

// ProcessMultiCrop handles POST /api/v1/sheets/process-multi-crop
// @Summary Process five cropped regions of one sheet
// @Description Grade five client-cropped column images covering questions 1-10 through 41-50
// @Tags sheets
// @Accept multipart/form-data
// @Produce json
// @Param crops formData file true "Exactly 5 cropped column images in question order"
// @Param answer_key_id formData string true "Answer key ID (UUID)"
// @Success 201 {object} APIResponse{data=domain.Sheet} "Scored sheet"
// @Failure 400 {object} APIResponse "Wrong number of crops"
// @Router /sheets/process-multi-crop [post]
func (h *SheetHandler) ProcessMultiCrop(c *gin.Context) {
	keyID, ok := formUUID(c, "answer_key_id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		return
	}
	files := form.File["crops"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "crops field is required")
		return
	}

	crops := make([][]byte, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
			return
		}
		crops = append(crops, data)
	}

	sheet, err := h.sheetService.ProcessMultiCrop(c.Request.Context(), service.ProcessMultiCropInput{
		AnswerKeyID: keyID,
		Crops:       crops,
		Identity:    identityFromForm(c),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, sheet)
}

// ExtractIdentity handles POST /api/v1/sheets/extract-identity
// @Summary Extract student identity from a sheet region
// @Description Read the name block of a sheet; pass crop coordinates to cut it out server side
// @Tags sheets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Sheet or name-block image (JPG or PNG)"
// @Param x formData number false "Left edge of the name block, relative [0,1]"
// @Param y formData number false "Top edge of the name block, relative [0,1]"
// @Param width formData number false "Block width, relative (0,1]"
// @Param height formData number false "Block height, relative (0,1]"
// @Success 200 {object} APIResponse{data=service.IdentityResult} "Extracted identity"
// @Router /sheets/extract-identity [post]
func (h *SheetHandler) ExtractIdentity(c *gin.Context) {
	image, _, ok := readUpload(c, "file")
	if !ok {
		return
	}

	input := service.ExtractIdentityInput{Image: image}
	if c.PostForm("x") != "" || c.PostForm("y") != "" || c.PostForm("width") != "" || c.PostForm("height") != "" {
		region, ok := cropRegionFromForm(c)
		if !ok {
			return
		}
		input.Region = &region
	}

	result, err := h.sheetService.ExtractIdentity(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// List handles GET /api/v1/sheets
// @Summary List scored sheets
// @Tags sheets
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.Sheet,meta=PagMeta} "List of sheets"
// @Router /sheets [get]
func (h *SheetHandler) List(c *gin.Context) {
	offset, limit := paginationParams(c)

	sheets, total, err := h.sheetService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, sheets, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/sheets/:id
// @Summary Get sheet by ID
// @Tags sheets
// @Produce json
// @Param id path string true "Sheet ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.Sheet} "Sheet with presigned image URL"
// @Failure 404 {object} APIResponse "Sheet not found"
// @Router /sheets/{id} [get]
func (h *SheetHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid sheet ID")
		return
	}

	sheet, err := h.sheetService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, sheet)
}

// Delete handles DELETE /api/v1/sheets/:id
// @Summary Delete a sheet
// @Description Delete a scored sheet and its stored image
// @Tags sheets
// @Produce json
// @Param id path string true "Sheet ID (UUID)"
// @Success 200 {object} APIResponse "Sheet deleted"
// @Failure 404 {object} APIResponse "Sheet not found"
// @Router /sheets/{id} [delete]
func (h *SheetHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid sheet ID")
		return
	}

	if err := h.sheetService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": id})
}

// ExportCSV handles GET /api/v1/sheets/export
// @Summary Export scored sheets as CSV
// @Description Download a CSV of up to 1000 scored sheets, newest first
// @Tags sheets
// @Produce text/csv
// @Success 200 {string} string "CSV file"
// @Router /sheets/export [get]
func (h *SheetHandler) ExportCSV(c *gin.Context) {
	sheets, _, err := h.sheetService.List(c.Request.Context(), 0, 1000)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := "sheets-" + time.Now().UTC().Format("20060102-150405") + ".csv"
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Writer.WriteHeader(http.StatusOK)

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		return
	}
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteSheets(sheets); err != nil {
		return
	}
	w.Flush()
}

// formUUID parses a required UUID form field, writing the error response on
// failure.
func formUUID(c *gin.Context, field string) (uuid.UUID, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_FIELD", field+" field is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+field)
		return uuid.Nil, false
	}
	return id, true
}

// identityFromForm reads optional identity override fields. Absent fields stay
// nil so extracted values can fill them.
func identityFromForm(c *gin.Context) service.SheetIdentityInput {
	var identity service.SheetIdentityInput
	if v := c.PostForm("student_name"); v != "" {
		identity.StudentName = &v
	}
	if v := c.PostForm("roll_number"); v != "" {
		identity.RollNumber = &v
	}
	if v := c.PostForm("exam_date"); v != "" {
		identity.ExamDate = &v
	}
	return identity
}

// cropRegionFromForm parses the x/y/width/height form fields into a relative
// crop region, writing the error response on failure.
func cropRegionFromForm(c *gin.Context) (imaging.CropRegion, bool) {
	parse := func(field string) (float64, bool) {
		v, err := strconv.ParseFloat(c.PostForm(field), 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_COORDINATES",
				field+" must be a relative coordinate in [0,1]")
			return 0, false
		}
		return v, true
	}

	var region imaging.CropRegion
	var ok bool
	if region.X, ok = parse("x"); !ok {
		return region, false
	}
	if region.Y, ok = parse("y"); !ok {
		return region, false
	}
	if region.W, ok = parse("width"); !ok {
		return region, false
	}
	if region.H, ok = parse("height"); !ok {
		return region, false
	}
	if err := region.Validate(); err != nil {
		HandleError(c, err)
		return region, false
	}
	return region, true
}
