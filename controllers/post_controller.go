package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plumeblog/plume/config"
	"github.com/plumeblog/plume/middleware"
	"github.com/plumeblog/plume/models"
	"github.com/plumeblog/plume/utils"
)

// PostController manages post CRUD, moderation, popularity, and image uploads.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

func viewerID(ctx *gin.Context) uint {
	if user := middleware.CurrentUser(ctx); user != nil {
		return user.ID
	}
	return 0
}

type postListResponse struct {
	Posts      []postView     `json:"posts"`
	Pagination postPagination `json:"pagination"`
}

type postWithMessage struct {
	Message string   `json:"message"`
	Post    postView `json:"post"`
}

// CreatePost validates and stores a new post. Pinning is admin-only and
// forces the "Important" category; unpinned posts need a category and at
// least one image. Posts by non-admins await moderation.
func (p *PostController) CreatePost(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req struct {
		Title    string   `json:"title"`
		Body     string   `json:"body"`
		Img      string   `json:"img"`
		Images   []string `json:"images"`
		Category uint     `json:"category"`
		IsPinned bool     `json:"isPinned"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Fail(ctx, http.StatusBadRequest, "Title is required")
		return
	}
	body := utils.Sanitize(req.Body)
	if strings.TrimSpace(body) == "" {
		utils.Fail(ctx, http.StatusBadRequest, "Content is required")
		return
	}

	// Pinning is silently dropped for non-admins rather than rejected.
	isPinned := req.IsPinned && user.IsAdmin()

	img := strings.TrimSpace(req.Img)
	if !isPinned && img == "" && len(req.Images) == 0 {
		utils.Fail(ctx, http.StatusBadRequest, "At least one image is required")
		return
	}

	post := models.Post{
		Title:    title,
		Body:     body,
		UserID:   user.ID,
		IsPinned: isPinned,
		IsActive: user.IsAdmin(),
	}
	if len(req.Images) > 0 {
		post.Images = req.Images
		post.Img = req.Images[0]
	} else if img != "" {
		post.Img = img
		post.Images = []string{img}
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if isPinned {
			cat, err := models.FindOrCreateImportantCategory(tx)
			if err != nil {
				return err
			}
			post.CategoryID = cat.ID
		} else {
			if req.Category == 0 {
				return errCategoryRequired
			}
			var cat models.Category
			if err := tx.First(&cat, req.Category).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return errCategoryNotFound
				}
				return err
			}
			post.CategoryID = cat.ID
		}
		if err := post.EnsureSlug(tx); err != nil {
			return err
		}
		return tx.Create(&post).Error
	})
	switch err {
	case nil:
	case errCategoryRequired:
		utils.Fail(ctx, http.StatusBadRequest, "Category is required")
		return
	case errCategoryNotFound:
		utils.Fail(ctx, http.StatusBadRequest, "Category not found")
		return
	default:
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to create post")
		return
	}

	utils.InvalidatePostCaches()

	message := "Post created successfully! It will be visible after admin approval."
	if user.IsAdmin() {
		message = "Post created and published successfully!"
	}
	view, err := p.loadPostView(post.ID, user.ID)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}
	ctx.JSON(http.StatusCreated, postWithMessage{Message: message, Post: view})
}

// ListPosts returns active posts, pinned first then newest, with optional
// category filter and title/body substring search. Anonymous, unfiltered
// pages are served from cache.
func (p *PostController) ListPosts(ctx *gin.Context) {
	w := parsePagination(ctx.Query("page"), ctx.Query("limit"), 5)
	category := strings.TrimSpace(ctx.Query("category"))
	search := strings.TrimSpace(ctx.Query("search"))
	viewer := viewerID(ctx)

	cacheKey := fmt.Sprintf("%scat=%s:page=%d:limit=%d", utils.CachePrefixPostList, category, w.Page, w.Limit)
	cacheable := viewer == 0 && search == ""
	if cacheable {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := p.db.Model(&models.Post{}).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category_id = ?", category)
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR body LIKE ?", pattern, pattern)
	}

	resp, err := p.listPosts(query, w, viewer, "is_pinned DESC, created_at DESC")
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	if cacheable {
		utils.CacheSetJSON(cacheKey, resp, time.Hour)
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListMyPosts returns every post by the authenticated user, regardless of
// moderation state.
func (p *PostController) ListMyPosts(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	w := parsePagination(ctx.Query("page"), ctx.Query("limit"), 6)

	query := p.db.Model(&models.Post{}).Where("user_id = ?", user.ID)
	resp, err := p.listPosts(query, w, user.ID, "created_at DESC")
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListAdminPosts returns all posts with a status filter: active, inactive,
// or all (default).
func (p *PostController) ListAdminPosts(ctx *gin.Context) {
	w := parsePagination(ctx.Query("page"), ctx.Query("limit"), 10)

	query := p.db.Model(&models.Post{})
	switch ctx.DefaultQuery("status", "all") {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	resp, err := p.listPosts(query, w, viewerID(ctx), "is_pinned DESC, created_at DESC")
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListPendingPosts returns posts awaiting approval, newest first.
func (p *PostController) ListPendingPosts(ctx *gin.Context) {
	w := parsePagination(ctx.Query("page"), ctx.Query("limit"), 6)

	query := p.db.Model(&models.Post{}).Where("is_active = ?", false)
	resp, err := p.listPosts(query, w, viewerID(ctx), "created_at DESC")
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list posts")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (p *PostController) listPosts(query *gorm.DB, w pageWindow, viewer uint, order string) (*postListResponse, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.Post
	if err := query.Session(&gorm.Session{}).
		Preload("User").Preload("Category").
		Order(order).
		Offset(w.Offset).Limit(w.Limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	views, err := buildPostViews(p.db, posts, viewer)
	if err != nil {
		return nil, err
	}
	return &postListResponse{Posts: views, Pagination: newPostPagination(w, total)}, nil
}

// GetPost returns one post by id. Pending posts are visible only to their
// owner and admins.
func (p *PostController) GetPost(ctx *gin.Context) {
	p.getPost(ctx, p.db.Where("id = ?", ctx.Param("id")))
}

// GetPostBySlug returns one post by its slug.
func (p *PostController) GetPostBySlug(ctx *gin.Context) {
	p.getPost(ctx, p.db.Where("slug = ?", ctx.Param("slug")))
}

func (p *PostController) getPost(ctx *gin.Context, query *gorm.DB) {
	var post models.Post
	if err := query.Preload("User").Preload("Category").First(&post).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}

	user := middleware.CurrentUser(ctx)
	if !post.IsActive && (user == nil || (user.ID != post.UserID && !user.IsAdmin())) {
		utils.Fail(ctx, http.StatusNotFound, "Post not found")
		return
	}

	stats, err := loadPostStats(p.db, []uint{post.ID}, viewerID(ctx))
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}
	ctx.JSON(http.StatusOK, newPostView(post, stats[post.ID]))
}

// UpdatePost applies partial changes. Only owner or admin may update; only an
// admin may pin. Re-pinning reassigns the "Important" category when one
// exists; category and image requirements relax while the post is pinned.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req struct {
		Title    string    `json:"title"`
		Body     string    `json:"body"`
		Img      *string   `json:"img"`
		Images   *[]string `json:"images"`
		Category uint      `json:"category"`
		IsPinned *bool     `json:"isPinned"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}

	if post.UserID != user.ID && !user.IsAdmin() {
		utils.Fail(ctx, http.StatusForbidden, "Not authorized to update this post")
		return
	}
	if req.IsPinned != nil && *req.IsPinned && !user.IsAdmin() {
		utils.Fail(ctx, http.StatusForbidden, "Only admins can pin posts")
		return
	}

	titleChanged := false
	if title := strings.TrimSpace(req.Title); title != "" && title != post.Title {
		post.Title = title
		titleChanged = true
	}
	if body := utils.Sanitize(req.Body); strings.TrimSpace(body) != "" {
		post.Body = body
	}

	if req.IsPinned != nil {
		post.IsPinned = *req.IsPinned
	}
	if req.Img != nil {
		if strings.TrimSpace(*req.Img) == "" && !post.IsPinned {
			utils.Fail(ctx, http.StatusBadRequest, "Image is required and cannot be empty")
			return
		}
		post.Img = *req.Img
	}
	if req.Images != nil {
		if len(*req.Images) == 0 && !post.IsPinned {
			utils.Fail(ctx, http.StatusBadRequest, "At least one image is required")
			return
		}
		post.Images = *req.Images
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if req.IsPinned != nil && *req.IsPinned {
			// Reassign only when an "Important" category already exists.
			var cat models.Category
			err := tx.Where("LOWER(title) = ?", strings.ToLower(models.ImportantCategoryTitle)).First(&cat).Error
			if err == nil {
				post.CategoryID = cat.ID
			} else if err != gorm.ErrRecordNotFound {
				return err
			}
		}
		if req.Category != 0 && !post.IsPinned {
			var cat models.Category
			if err := tx.First(&cat, req.Category).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return errCategoryNotFound
				}
				return err
			}
			post.CategoryID = cat.ID
		}
		if titleChanged {
			if err := post.EnsureSlug(tx); err != nil {
				return err
			}
		}
		return tx.Save(&post).Error
	})
	switch err {
	case nil:
	case errCategoryNotFound:
		utils.Fail(ctx, http.StatusBadRequest, "Category not found")
		return
	default:
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update post")
		return
	}

	utils.InvalidatePostCaches()

	view, err := p.loadPostView(post.ID, user.ID)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// DeletePost removes a post together with its comments and likes in one
// transaction, so a crash cannot orphan engagement rows.
func (p *PostController) DeletePost(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}

	if post.UserID != user.ID && !user.IsAdmin() {
		utils.Fail(ctx, http.StatusForbidden, "Not authorized to delete this post")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to delete post")
		return
	}

	utils.InvalidatePostCaches()
	ctx.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// popularRow carries the aggregation result for popular posts.
type popularRow struct {
	models.Post   `gorm:"embedded"`
	LikesCount    int64
	CommentsCount int64
}

// GetPopularPosts ranks active posts from a rolling window (day/week/month,
// default week) by like count, then recency. Counts come from one aggregation
// query with correlated subqueries instead of per-post lookups.
func (p *PostController) GetPopularPosts(ctx *gin.Context) {
	limit := parsePagination("1", ctx.Query("limit"), 5).Limit
	viewer := viewerID(ctx)

	var window time.Duration
	period := ctx.DefaultQuery("period", "week")
	switch period {
	case "day":
		window = 24 * time.Hour
	case "month":
		window = 30 * 24 * time.Hour
	default:
		period = "week"
		window = 7 * 24 * time.Hour
	}
	start := time.Now().Add(-window)

	cacheKey := fmt.Sprintf("%speriod=%s:limit=%d", utils.CachePrefixPopular, period, limit)
	if viewer == 0 {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	var rows []popularRow
	err := p.db.Model(&models.Post{}).
		Select("posts.*, " +
			"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, " +
			"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count").
		Where("posts.is_active = ? AND posts.created_at >= ?", true, start).
		Order("likes_count DESC, posts.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load popular posts")
		return
	}

	views, err := p.buildPopularViews(rows, viewer)
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load popular posts")
		return
	}
	if viewer == 0 {
		utils.CacheSetJSON(cacheKey, views, 10*time.Minute)
	}
	ctx.JSON(http.StatusOK, views)
}

// buildPopularViews attaches authors, categories, and the viewer's liked flag
// to scanned aggregation rows. Scan bypasses gorm preloading, so the related
// rows are batch-loaded by id.
func (p *PostController) buildPopularViews(rows []popularRow, viewer uint) ([]postView, error) {
	userIDs := make([]uint, 0, len(rows))
	catIDs := make([]uint, 0, len(rows))
	postIDs := make([]uint, 0, len(rows))
	for _, r := range rows {
		userIDs = append(userIDs, r.UserID)
		catIDs = append(catIDs, r.CategoryID)
		postIDs = append(postIDs, r.Post.ID)
	}

	users := map[uint]models.User{}
	if len(userIDs) > 0 {
		var list []models.User
		if err := p.db.Find(&list, userIDs).Error; err != nil {
			return nil, err
		}
		for _, u := range list {
			users[u.ID] = u
		}
	}
	cats := map[uint]models.Category{}
	if len(catIDs) > 0 {
		var list []models.Category
		if err := p.db.Find(&list, catIDs).Error; err != nil {
			return nil, err
		}
		for _, c := range list {
			cats[c.ID] = c
		}
	}
	liked := map[uint]bool{}
	if viewer != 0 && len(postIDs) > 0 {
		var ids []uint
		if err := p.db.Model(&models.Like{}).
			Where("user_id = ? AND post_id IN ?", viewer, postIDs).
			Pluck("post_id", &ids).Error; err != nil {
			return nil, err
		}
		for _, id := range ids {
			liked[id] = true
		}
	}

	views := make([]postView, len(rows))
	for i, r := range rows {
		post := r.Post
		post.User = users[post.UserID]
		if c, ok := cats[post.CategoryID]; ok {
			post.Category = &c
		}
		views[i] = newPostView(post, postStats{
			likes:    r.LikesCount,
			comments: r.CommentsCount,
			isLiked:  liked[post.ID],
		})
	}
	return views, nil
}

// TogglePostStatus flips a post between pending and active. The pending to
// active transition notifies the author; the reverse is silent.
func (p *PostController) TogglePostStatus(ctx *gin.Context) {
	var post models.Post
	if err := p.db.Preload("User").First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}

	wasInactive := !post.IsActive
	post.IsActive = !post.IsActive
	if err := p.db.Model(&post).Update("is_active", post.IsActive).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update post")
		return
	}

	if wasInactive && post.IsActive {
		logMailError("post approval", sendPostApprovedEmail(post.User.Email, post.User.FirstName, post.Title))
	}
	utils.InvalidatePostCaches()

	message := "Post deactivated successfully"
	if post.IsActive {
		message = "Post activated successfully"
	}
	view, err := p.loadPostView(post.ID, viewerID(ctx))
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}
	ctx.JSON(http.StatusOK, postWithMessage{Message: message, Post: view})
}

// ApprovePost is the one-way pending to active transition; approving an
// already-active post is a conflict.
func (p *PostController) ApprovePost(ctx *gin.Context) {
	var post models.Post
	if err := p.db.Preload("User").First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}

	if post.IsActive {
		utils.Fail(ctx, http.StatusBadRequest, "Post is already approved")
		return
	}

	post.IsActive = true
	if err := p.db.Model(&post).Update("is_active", true).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update post")
		return
	}

	logMailError("post approval", sendPostApprovedEmail(post.User.Email, post.User.FirstName, post.Title))
	utils.InvalidatePostCaches()

	view, err := p.loadPostView(post.ID, viewerID(ctx))
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}
	ctx.JSON(http.StatusOK, postWithMessage{Message: "Post approved successfully", Post: view})
}

func (p *PostController) loadPostView(postID, viewer uint) (postView, error) {
	var post models.Post
	if err := p.db.Preload("User").Preload("Category").First(&post, postID).Error; err != nil {
		return postView{}, err
	}
	stats, err := loadPostStats(p.db, []uint{post.ID}, viewer)
	if err != nil {
		return postView{}, err
	}
	return newPostView(post, stats[post.ID]), nil
}

// UploadImage stores a single image file and returns its public URL.
func (p *PostController) UploadImage(ctx *gin.Context) {
	url, ok := p.saveUpload(ctx, "image")
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Image uploaded successfully",
		"imageUrl": url,
	})
}

// UploadImages stores up to the configured number of image files.
func (p *PostController) UploadImages(ctx *gin.Context) {
	cfg := config.Get()
	form, err := ctx.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		utils.Fail(ctx, http.StatusBadRequest, "No image files provided")
		return
	}
	files := form.File["images"]
	if len(files) > cfg.UploadMaxFiles {
		utils.Fail(ctx, http.StatusBadRequest, fmt.Sprintf("At most %d images per upload", cfg.UploadMaxFiles))
		return
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, errMsg, status := storeImageFile(ctx, fh)
		if errMsg != "" {
			utils.Fail(ctx, status, errMsg)
			return
		}
		urls = append(urls, url)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":   "Images uploaded successfully",
		"imageUrls": urls,
	})
}

func (p *PostController) saveUpload(ctx *gin.Context, field string) (string, bool) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "No image file provided")
		return "", false
	}
	url, errMsg, status := storeImageFile(ctx, fh)
	if errMsg != "" {
		utils.Fail(ctx, status, errMsg)
		return "", false
	}
	return url, true
}
