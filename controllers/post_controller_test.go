package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/plumeblog/plume/models"
)

func TestCreatePostPendingForRegularUser(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	stubMail(t)
	user := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")

	code, resp := doJSON(t, r, http.MethodPost, "/api/posts", tokenFor(t, user), map[string]interface{}{
		"title":    "My First Post",
		"body":     "Hello world",
		"img":      "/uploads/a.jpg",
		"category": category.ID,
	})
	statusCheck(t, code, http.StatusCreated, resp)

	post, ok := resp["post"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing post: %v", resp)
	}
	if post["isActive"] != false {
		t.Fatal("post by regular user should await approval")
	}
	if post["slug"] != "my-first-post" {
		t.Fatalf("slug = %v", post["slug"])
	}
	if resp["message"] != "Post created successfully! It will be visible after admin approval." {
		t.Fatalf("message = %v", resp["message"])
	}
}

func TestCreatePostActiveForAdmin(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	stubMail(t)
	admin := createUser(t, db, "admin@example.com", "admin")
	category := createCategory(t, db, "Tech")

	code, resp := doJSON(t, r, http.MethodPost, "/api/posts", tokenFor(t, admin), map[string]interface{}{
		"title":    "Announcement",
		"body":     "Read me",
		"img":      "/uploads/a.jpg",
		"category": category.ID,
	})
	statusCheck(t, code, http.StatusCreated, resp)

	post := resp["post"].(map[string]interface{})
	if post["isActive"] != true {
		t.Fatal("admin posts should publish immediately")
	}
}

func TestCreatePostRequiresImage(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	user := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")

	code, resp := doJSON(t, r, http.MethodPost, "/api/posts", tokenFor(t, user), map[string]interface{}{
		"title":    "No Image",
		"body":     "text",
		"category": category.ID,
	})
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "At least one image is required" {
		t.Fatalf("error = %v", resp["error"])
	}
}

func TestCreatePinnedPostForcesImportantCategory(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	stubMail(t)
	admin := createUser(t, db, "admin@example.com", "admin")

	// No category, no image: both requirements relax for pinned posts.
	code, resp := doJSON(t, r, http.MethodPost, "/api/posts", tokenFor(t, admin), map[string]interface{}{
		"title":    "Pinned Notice",
		"body":     "Important stuff",
		"isPinned": true,
	})
	statusCheck(t, code, http.StatusCreated, resp)

	var post models.Post
	if err := db.Preload("Category").Where("title = ?", "Pinned Notice").First(&post).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if !post.IsPinned {
		t.Fatal("post should be pinned")
	}
	if post.Category == nil || post.Category.Title != models.ImportantCategoryTitle {
		t.Fatalf("category = %+v, want %q", post.Category, models.ImportantCategoryTitle)
	}
}

func TestCreatePostIgnoresPinFromRegularUser(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	stubMail(t)
	user := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")

	code, resp := doJSON(t, r, http.MethodPost, "/api/posts", tokenFor(t, user), map[string]interface{}{
		"title":    "Sneaky Pin",
		"body":     "text",
		"img":      "/uploads/a.jpg",
		"category": category.ID,
		"isPinned": true,
	})
	statusCheck(t, code, http.StatusCreated, resp)

	var post models.Post
	if err := db.Where("title = ?", "Sneaky Pin").First(&post).Error; err != nil {
		t.Fatalf("load post: %v", err)
	}
	if post.IsPinned {
		t.Fatal("pin flag from a regular user should be dropped")
	}
}

func TestListPostsHidesPending(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	user := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")
	createPost(t, db, user, category, "Visible", true)
	createPost(t, db, user, category, "Hidden", false)

	code, resp := doJSON(t, r, http.MethodGet, "/api/posts?search=e", "", nil)
	statusCheck(t, code, http.StatusOK, resp)

	posts := resp["posts"].([]interface{})
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	if posts[0].(map[string]interface{})["title"] != "Visible" {
		t.Fatalf("unexpected post: %v", posts[0])
	}
}

func TestListPostsPinnedFirst(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	user := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")
	createPost(t, db, user, category, "Older Plain", true)
	pinned := createPost(t, db, user, category, "Pinned One", true)
	db.Model(&pinned).Update("is_pinned", true)
	createPost(t, db, user, category, "Newer Plain", true)

	code, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/posts?search=P&category=%d", category.ID), "", nil)
	statusCheck(t, code, http.StatusOK, resp)

	posts := resp["posts"].([]interface{})
	if len(posts) != 3 {
		t.Fatalf("posts = %d, want 3", len(posts))
	}
	if posts[0].(map[string]interface{})["title"] != "Pinned One" {
		t.Fatalf("first post = %v, want the pinned one", posts[0].(map[string]interface{})["title"])
	}
}

func TestGetPendingPostVisibility(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	owner := createUser(t, db, "owner@example.com", "user")
	stranger := createUser(t, db, "stranger@example.com", "user")
	admin := createUser(t, db, "admin@example.com", "admin")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, owner, category, "Pending Draft", false)

	path := fmt.Sprintf("/api/posts/%d", post.ID)

	code, resp := doJSON(t, r, http.MethodGet, path, "", nil)
	statusCheck(t, code, http.StatusNotFound, resp)

	code, resp = doJSON(t, r, http.MethodGet, path, tokenFor(t, stranger), nil)
	statusCheck(t, code, http.StatusNotFound, resp)

	code, resp = doJSON(t, r, http.MethodGet, path, tokenFor(t, owner), nil)
	statusCheck(t, code, http.StatusOK, resp)

	code, resp = doJSON(t, r, http.MethodGet, path, tokenFor(t, admin), nil)
	statusCheck(t, code, http.StatusOK, resp)
}

func TestGetPostBySlug(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	user := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, user, category, "Slugged Post", true)

	code, resp := doJSON(t, r, http.MethodGet, "/api/posts/slug/"+post.Slug, "", nil)
	statusCheck(t, code, http.StatusOK, resp)
	if resp["title"] != "Slugged Post" {
		t.Fatalf("title = %v", resp["title"])
	}
}

func TestUpdatePostForbiddenForStranger(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	owner := createUser(t, db, "owner@example.com", "user")
	stranger := createUser(t, db, "stranger@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, owner, category, "Mine", true)

	code, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, stranger), map[string]interface{}{
		"title": "Hijacked",
	})
	statusCheck(t, code, http.StatusForbidden, resp)
	if resp["error"] != "Not authorized to update this post" {
		t.Fatalf("error = %v", resp["error"])
	}
}

func TestUpdatePostPinRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	owner := createUser(t, db, "owner@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, owner, category, "Mine", true)

	code, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, owner), map[string]interface{}{
		"isPinned": true,
	})
	statusCheck(t, code, http.StatusForbidden, resp)
	if resp["error"] != "Only admins can pin posts" {
		t.Fatalf("error = %v", resp["error"])
	}
}

func TestUpdatePostTitleRefreshesSlug(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	owner := createUser(t, db, "owner@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, owner, category, "Old Title", true)

	code, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, owner), map[string]interface{}{
		"title": "Brand New Title",
	})
	statusCheck(t, code, http.StatusOK, resp)
	if resp["slug"] != "brand-new-title" {
		t.Fatalf("slug = %v", resp["slug"])
	}
}

func TestApprovePost(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	mc := stubMail(t)
	owner := createUser(t, db, "owner@example.com", "user")
	admin := createUser(t, db, "admin@example.com", "admin")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, owner, category, "Needs Approval", false)

	path := fmt.Sprintf("/api/posts/%d/approve", post.ID)

	code, resp := doJSON(t, r, http.MethodPatch, path, tokenFor(t, admin), nil)
	statusCheck(t, code, http.StatusOK, resp)
	if resp["message"] != "Post approved successfully" {
		t.Fatalf("message = %v", resp["message"])
	}
	if mc.approvals != 1 {
		t.Fatalf("approval emails = %d, want 1", mc.approvals)
	}

	code, resp = doJSON(t, r, http.MethodPatch, path, tokenFor(t, admin), nil)
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "Post is already approved" {
		t.Fatalf("error = %v", resp["error"])
	}
	if mc.approvals != 1 {
		t.Fatalf("approval emails = %d after conflict, want 1", mc.approvals)
	}
}

func TestTogglePostStatusNotifiesOnActivationOnly(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	mc := stubMail(t)
	owner := createUser(t, db, "owner@example.com", "user")
	admin := createUser(t, db, "admin@example.com", "admin")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, owner, category, "Toggle Me", false)

	path := fmt.Sprintf("/api/posts/%d/toggle-status", post.ID)

	code, resp := doJSON(t, r, http.MethodPatch, path, tokenFor(t, admin), nil)
	statusCheck(t, code, http.StatusOK, resp)
	if mc.approvals != 1 {
		t.Fatalf("approval emails = %d, want 1", mc.approvals)
	}

	// Deactivating again must stay silent.
	code, resp = doJSON(t, r, http.MethodPatch, path, tokenFor(t, admin), nil)
	statusCheck(t, code, http.StatusOK, resp)
	if mc.approvals != 1 {
		t.Fatalf("approval emails = %d after deactivation, want 1", mc.approvals)
	}
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	user := createUser(t, db, "user@example.com", "user")

	code, resp := doJSON(t, r, http.MethodGet, "/api/posts/admin/all", tokenFor(t, user), nil)
	statusCheck(t, code, http.StatusForbidden, resp)
}

func TestDeletePostCascades(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	owner := createUser(t, db, "owner@example.com", "user")
	fan := createUser(t, db, "fan@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, owner, category, "Doomed", true)

	comment := models.Comment{Content: "hello", UserID: fan.ID, PostID: post.ID}
	if err := db.Create(&comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if err := db.Create(&models.Like{UserID: fan.ID, PostID: post.ID}).Error; err != nil {
		t.Fatalf("create like: %v", err)
	}

	code, resp := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, owner), nil)
	statusCheck(t, code, http.StatusOK, resp)

	var comments, likes int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments)
	db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likes)
	if comments != 0 || likes != 0 {
		t.Fatalf("orphans left: comments=%d likes=%d", comments, likes)
	}
}

func TestPopularPostsRankByLikes(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")

	quiet := createPost(t, db, author, category, "Quiet", true)
	loved := createPost(t, db, author, category, "Loved", true)
	createPost(t, db, author, category, "Pending Hit", false)

	for i := 0; i < 3; i++ {
		fan := createUser(t, db, fmt.Sprintf("fan%d@example.com", i), "user")
		if err := db.Create(&models.Like{UserID: fan.ID, PostID: loved.ID}).Error; err != nil {
			t.Fatalf("create like: %v", err)
		}
	}
	if err := db.Create(&models.Like{UserID: author.ID, PostID: quiet.ID}).Error; err != nil {
		t.Fatalf("create like: %v", err)
	}

	// Push one post outside the week window; it must drop out entirely.
	db.Model(&quiet).Update("created_at", time.Now().Add(-8*24*time.Hour))

	viewer := createUser(t, db, "viewer@example.com", "user")
	popular := doJSONArray(t, r, "/api/posts/popular?period=week", tokenFor(t, viewer))

	if len(popular) != 1 {
		t.Fatalf("popular posts = %d, want 1", len(popular))
	}
	first := popular[0].(map[string]interface{})
	if first["title"] != "Loved" {
		t.Fatalf("top post = %v", first["title"])
	}
	if first["likesCount"] != float64(3) {
		t.Fatalf("likesCount = %v", first["likesCount"])
	}
}

func TestMyPostsIncludesPending(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	owner := createUser(t, db, "owner@example.com", "user")
	category := createCategory(t, db, "Tech")
	createPost(t, db, owner, category, "Published", true)
	createPost(t, db, owner, category, "Draft", false)

	code, resp := doJSON(t, r, http.MethodGet, "/api/posts/user/my-posts", tokenFor(t, owner), nil)
	statusCheck(t, code, http.StatusOK, resp)

	posts := resp["posts"].([]interface{})
	if len(posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(posts))
	}
}
