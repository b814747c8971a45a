package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"omrscan/internal/domain"
	"omrscan/internal/port"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound, "TEMPLATE_NOT_FOUND", "template not found"
	case errors.Is(err, domain.ErrAnswerKeyNotFound):
		return http.StatusNotFound, "ANSWER_KEY_NOT_FOUND", "answer key not found"
	case errors.Is(err, domain.ErrSheetNotFound):
		return http.StatusNotFound, "SHEET_NOT_FOUND", "sheet not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrEmptyUpload):
		return http.StatusBadRequest, "EMPTY_UPLOAD", "no file content was uploaded"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: jpg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrInvalidCropRegion):
		return http.StatusBadRequest, "INVALID_CROP_REGION", "crop coordinates must be relative values in [0,1] with nonzero area"
	case errors.Is(err, domain.ErrWrongCropCount):
		return http.StatusBadRequest, "WRONG_CROP_COUNT", "exactly 5 cropped regions are required"
	case errors.Is(err, domain.ErrInvalidAnswerKey):
		return http.StatusBadRequest, "INVALID_ANSWER_KEY", "answer key must be a JSON object of question numbers to options"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, "EXTRACTION_FAILED", "could not extract readable data from the image"
	case errors.Is(err, port.ErrVisionUnavailable):
		return http.StatusServiceUnavailable, "VISION_UNAVAILABLE", "the vision model is not available; try again later"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
