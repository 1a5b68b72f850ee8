package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plumeblog/plume/config"
	"github.com/plumeblog/plume/controllers"
	"github.com/plumeblog/plume/middleware"
	"github.com/plumeblog/plume/utils"
)

// SetupRouter wires middleware and the full API surface.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	gin.SetMode(cfg.GinMode)

	r := gin.New()

	accessLogger, err := utils.NewRollingFileLogger(cfg.GinLogPath, cfg.LogLevel,
		cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(accessLogger, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(accessLogger, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Static("/uploads", cfg.UploadDir)

	users := controllers.NewUserController(db)
	posts := controllers.NewPostController(db)
	categories := controllers.NewCategoryController(db)
	comments := controllers.NewCommentController(db)
	likes := controllers.NewLikeController(db)

	api := r.Group("/api")

	user := api.Group("/users")
	user.Use(middleware.RateLimit())
	{
		user.POST("/register", users.Register)
		user.POST("/login", users.Login)
		user.GET("/me", middleware.AuthRequired(db), users.Me)
	}

	post := api.Group("/posts")
	{
		post.GET("", middleware.AuthOptional(db), posts.ListPosts)
		post.GET("/popular", middleware.AuthOptional(db), posts.GetPopularPosts)
		post.GET("/slug/:slug", middleware.AuthOptional(db), posts.GetPostBySlug)
		post.GET("/user/my-posts", middleware.AuthRequired(db), posts.ListMyPosts)
		post.GET("/:id", middleware.AuthOptional(db), posts.GetPost)

		post.POST("", middleware.AuthRequired(db), posts.CreatePost)
		post.PUT("/:id", middleware.AuthRequired(db), posts.UpdatePost)
		post.DELETE("/:id", middleware.AuthRequired(db), posts.DeletePost)

		post.POST("/upload-image", middleware.AuthRequired(db), posts.UploadImage)
		post.POST("/upload-images", middleware.AuthRequired(db), posts.UploadImages)

		admin := post.Group("", middleware.AuthRequired(db), middleware.AdminRequired())
		{
			admin.GET("/admin/all", posts.ListAdminPosts)
			admin.GET("/admin/pending", posts.ListPendingPosts)
			admin.PATCH("/:id/toggle-status", posts.TogglePostStatus)
			admin.PATCH("/:id/approve", posts.ApprovePost)
		}
	}

	comment := api.Group("/comments")
	{
		comment.GET("/post/:postId", middleware.AuthOptional(db), comments.ListPostComments)
		comment.POST("", middleware.AuthRequired(db), comments.CreateComment)
		comment.PUT("/:commentId", middleware.AuthRequired(db), comments.UpdateComment)
		comment.DELETE("/:commentId", middleware.AuthRequired(db), comments.DeleteComment)
		comment.POST("/:commentId/like", middleware.AuthRequired(db), comments.ToggleCommentLike)
	}

	category := api.Group("/categories")
	{
		category.GET("/active", categories.ListActive)
		category.GET("", middleware.AuthRequired(db), categories.ListAll)

		adminCat := category.Group("", middleware.AuthRequired(db), middleware.AdminRequired())
		{
			adminCat.POST("", categories.Create)
			adminCat.PUT("/:id", categories.Update)
			adminCat.PATCH("/:id/toggle-status", categories.ToggleStatus)
			adminCat.DELETE("/:id", categories.Delete)
		}
	}

	like := api.Group("/likes")
	{
		like.POST("/post/:postId", middleware.AuthRequired(db), likes.TogglePostLike)
		like.GET("/post/:postId", likes.ListPostLikes)
		like.GET("/post/:postId/status", middleware.AuthRequired(db), likes.CheckPostLike)
	}

	return r
}
