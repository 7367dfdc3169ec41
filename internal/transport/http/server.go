package http

import (
	"github.com/gin-gonic/gin"

	"ragchat/internal/bootstrap"
	"ragchat/internal/transport/http/handler"
	"ragchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	authHandler := handler.NewAuthHandler(app.AuthService)
	askHandler := handler.NewAskHandler(app.AskService)
	fileHandler := handler.NewFileHandler(app.ContentService)
	documentHandler := handler.NewDocumentHandler(app.ContentService)
	sectionHandler := handler.NewSectionHandler(app.SectionService, app.TranscriptService)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret, app.Blacklist)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", authRequired, authHandler.Logout)
	authGroup.GET("/me", authRequired, authHandler.Me)

	askGroup := v1.Group("")
	askGroup.Use(authRequired)
	askGroup.POST("/ask", askHandler.Ask)
	askGroup.POST("/ask/stream", askHandler.AskStream)

	fileGroup := v1.Group("/files")
	fileGroup.Use(authRequired)
	fileGroup.POST("", fileHandler.Create)
	fileGroup.POST("/upload", fileHandler.Upload)
	fileGroup.GET("", fileHandler.List)
	fileGroup.GET("/:id", fileHandler.Get)
	fileGroup.PATCH("/:id", fileHandler.Update)
	fileGroup.DELETE("/:id", fileHandler.Delete)

	documentGroup := v1.Group("/documents")
	documentGroup.Use(authRequired)
	documentGroup.POST("", documentHandler.Create)
	documentGroup.GET("", documentHandler.List)
	documentGroup.GET("/:id", documentHandler.Get)
	documentGroup.PATCH("/:id", documentHandler.Update)
	documentGroup.DELETE("/:id", documentHandler.Delete)

	sectionGroup := v1.Group("/sections")
	sectionGroup.Use(authRequired)
	sectionGroup.POST("", sectionHandler.Create)
	sectionGroup.GET("", sectionHandler.List)
	sectionGroup.GET("/:id", sectionHandler.Get)
	sectionGroup.GET("/:id/messages", sectionHandler.Transcript)
	sectionGroup.PATCH("/:id", sectionHandler.Update)
	sectionGroup.DELETE("/:id", sectionHandler.Delete)

	return router
}
