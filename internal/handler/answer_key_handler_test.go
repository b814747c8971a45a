package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"omrscan/internal/domain"
	"omrscan/internal/handler"
	"omrscan/internal/service"
	"omrscan/mocks"
)

func TestAnswerKeyHandler_CreateFromImage_Success(t *testing.T) {
	mockSvc := new(mocks.MockAnswerKeyService)
	h := handler.NewAnswerKeyHandler(mockSvc)

	expected := &domain.AnswerKey{
		ID:        uuid.New(),
		Name:      "midterm",
		AnswerKey: json.RawMessage(`{"1":"A"}`),
	}
	mockSvc.On("CreateFromImage", mock.Anything, mock.MatchedBy(func(in service.AnswerKeyCreateInput) bool {
		return in.Name == "midterm" && in.Description == "unit 5" && len(in.Image) > 0
	})).Return(expected, nil)

	body, contentType := multipartBody(t, "file", "key.png", []byte("key sheet bytes"), map[string]string{
		"name":        "midterm",
		"description": "unit 5",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/answer-keys", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.CreateFromImage(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockSvc.AssertExpectations(t)
}

func TestAnswerKeyHandler_CreateFromImage_MissingName(t *testing.T) {
	mockSvc := new(mocks.MockAnswerKeyService)
	h := handler.NewAnswerKeyHandler(mockSvc)

	body, contentType := multipartBody(t, "file", "key.png", []byte("img"), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/answer-keys", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.CreateFromImage(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_NAME")
	mockSvc.AssertNotCalled(t, "CreateFromImage")
}

func TestAnswerKeyHandler_CreateFromImage_MissingFile(t *testing.T) {
	mockSvc := new(mocks.MockAnswerKeyService)
	h := handler.NewAnswerKeyHandler(mockSvc)

	body, contentType := multipartBody(t, "", "", nil, map[string]string{"name": "midterm"})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/answer-keys", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.CreateFromImage(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_FILE")
	mockSvc.AssertNotCalled(t, "CreateFromImage")
}

func TestAnswerKeyHandler_CreateFromImage_OversizedUpload(t *testing.T) {
	mockSvc := new(mocks.MockAnswerKeyService)
	h := handler.NewAnswerKeyHandler(mockSvc)

	mockSvc.On("CreateFromImage", mock.Anything, mock.Anything).
		Return(nil, domain.ErrFileTooLarge)

	body, contentType := multipartBody(t, "file", "key.png", []byte("huge"), map[string]string{
		"name": "midterm",
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/answer-keys", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.CreateFromImage(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_TOO_LARGE")
}

func TestAnswerKeyHandler_GetByID_NotFound(t *testing.T) {
	mockSvc := new(mocks.MockAnswerKeyService)
	h := handler.NewAnswerKeyHandler(mockSvc)

	id := uuid.New()
	mockSvc.On("GetByID", mock.Anything, id).Return(nil, domain.ErrAnswerKeyNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/answer-keys/"+id.String(), http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetByID(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ANSWER_KEY_NOT_FOUND")
}
