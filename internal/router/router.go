package router

import (
	"github.com/gin-gonic/gin"

	"omrscan/internal/handler"
	"omrscan/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	healthH *handler.HealthHandler,
	templateH *handler.TemplateHandler,
	answerKeyH *handler.AnswerKeyHandler,
	sheetH *handler.SheetHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger("/healthz", "/readyz"))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Template routes
	templates := v1.Group("/templates")
	templates.POST("", templateH.Create)
	templates.GET("", templateH.List)
	templates.GET("/:id", templateH.GetByID)
	templates.DELETE("/:id", templateH.Delete)

	// Answer key routes
	keys := v1.Group("/answer-keys")
	keys.POST("", answerKeyH.CreateFromImage)
	keys.GET("", answerKeyH.List)
	keys.GET("/:id", answerKeyH.GetByID)
	keys.DELETE("/:id", answerKeyH.Delete)

	// Sheet routes
	sheets := v1.Group("/sheets")
	sheets.POST("/upload", sheetH.ProcessFull)
	sheets.POST("/upload-by-answer-key", sheetH.ProcessFullByAnswerKey)
	sheets.POST("/process-region", sheetH.ProcessRegion)
	sheets.POST("/process-cropped", sheetH.ProcessCropped)
	sheets.POST("/process-multi-crop", sheetH.ProcessMultiCrop)
	sheets.POST("/extract-identity", sheetH.ExtractIdentity)
	sheets.POST("/extract-identity-cropped", sheetH.ExtractIdentity)
	sheets.GET("", sheetH.List)
	sheets.GET("/export", sheetH.ExportCSV)
	sheets.GET("/:id", sheetH.GetByID)
	sheets.DELETE("/:id", sheetH.Delete)

	return r
}
