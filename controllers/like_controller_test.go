package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/plumeblog/plume/models"
)

func TestTogglePostLike(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	fan := createUser(t, db, "fan@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Likeable", true)

	path := fmt.Sprintf("/api/likes/post/%d", post.ID)

	code, resp := doJSON(t, r, http.MethodPost, path, tokenFor(t, fan), nil)
	statusCheck(t, code, http.StatusOK, resp)
	if resp["isLiked"] != true || resp["likesCount"] != float64(1) {
		t.Fatalf("after like: %v", resp)
	}

	code, resp = doJSON(t, r, http.MethodPost, path, tokenFor(t, fan), nil)
	statusCheck(t, code, http.StatusOK, resp)
	if resp["isLiked"] != false || resp["likesCount"] != float64(0) {
		t.Fatalf("after unlike: %v", resp)
	}

	var count int64
	db.Model(&models.Like{}).Count(&count)
	if count != 0 {
		t.Fatalf("like rows = %d, want 0", count)
	}
}

func TestListPostLikes(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Popular", true)

	for i := 0; i < 3; i++ {
		fan := createUser(t, db, fmt.Sprintf("fan%d@example.com", i), "user")
		if err := db.Create(&models.Like{UserID: fan.ID, PostID: post.ID}).Error; err != nil {
			t.Fatalf("create like: %v", err)
		}
	}

	code, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/likes/post/%d", post.ID), "", nil)
	statusCheck(t, code, http.StatusOK, resp)

	users := resp["users"].([]interface{})
	if len(users) != 3 {
		t.Fatalf("likers = %d, want 3", len(users))
	}
	pagination := resp["pagination"].(map[string]interface{})
	if pagination["total"] != float64(3) {
		t.Fatalf("total = %v", pagination["total"])
	}
}

func TestCheckPostLike(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	fan := createUser(t, db, "fan@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Checked", true)

	path := fmt.Sprintf("/api/likes/post/%d/status", post.ID)

	code, resp := doJSON(t, r, http.MethodGet, path, tokenFor(t, fan), nil)
	statusCheck(t, code, http.StatusOK, resp)
	if resp["isLiked"] != false {
		t.Fatalf("isLiked = %v, want false", resp["isLiked"])
	}

	if err := db.Create(&models.Like{UserID: fan.ID, PostID: post.ID}).Error; err != nil {
		t.Fatalf("create like: %v", err)
	}

	code, resp = doJSON(t, r, http.MethodGet, path, tokenFor(t, fan), nil)
	statusCheck(t, code, http.StatusOK, resp)
	if resp["isLiked"] != true {
		t.Fatalf("isLiked = %v, want true", resp["isLiked"])
	}
}

func TestEngagementCountsOnPostView(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	fan := createUser(t, db, "fan@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Measured", true)

	db.Create(&models.Like{UserID: fan.ID, PostID: post.ID})
	db.Create(&models.Comment{Content: "nice", UserID: fan.ID, PostID: post.ID})

	code, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), tokenFor(t, fan), nil)
	statusCheck(t, code, http.StatusOK, resp)

	if resp["likesCount"] != float64(1) || resp["commentsCount"] != float64(1) {
		t.Fatalf("counts = %v / %v", resp["likesCount"], resp["commentsCount"])
	}
	if resp["isLiked"] != true || resp["hasCommented"] != true {
		t.Fatalf("viewer flags = %v / %v", resp["isLiked"], resp["hasCommented"])
	}
}
