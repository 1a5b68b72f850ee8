package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/plumeblog/plume/models"
)

func TestCreateCommentNotifiesPostAuthor(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	mc := stubMail(t)
	author := createUser(t, db, "author@example.com", "user")
	reader := createUser(t, db, "reader@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Discussed", true)

	code, resp := doJSON(t, r, http.MethodPost, "/api/comments", tokenFor(t, reader), map[string]interface{}{
		"postId":  post.ID,
		"content": "Great read!",
	})
	statusCheck(t, code, http.StatusCreated, resp)
	if mc.comments != 1 {
		t.Fatalf("comment emails = %d, want 1", mc.comments)
	}
}

func TestCreateCommentSelfCommentStaysSilent(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	mc := stubMail(t)
	author := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Discussed", true)

	code, resp := doJSON(t, r, http.MethodPost, "/api/comments", tokenFor(t, author), map[string]interface{}{
		"postId":  post.ID,
		"content": "Replying to my own post",
	})
	statusCheck(t, code, http.StatusCreated, resp)
	if mc.comments != 0 {
		t.Fatalf("comment emails = %d, want 0", mc.comments)
	}
}

func TestCreateReplyValidatesParent(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	stubMail(t)
	author := createUser(t, db, "author@example.com", "user")
	reader := createUser(t, db, "reader@example.com", "user")
	category := createCategory(t, db, "Tech")
	postA := createPost(t, db, author, category, "Post A", true)
	postB := createPost(t, db, author, category, "Post B", true)

	parent := models.Comment{Content: "parent", UserID: author.ID, PostID: postA.ID}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("create parent: %v", err)
	}

	// Parent on another post is rejected.
	code, resp := doJSON(t, r, http.MethodPost, "/api/comments", tokenFor(t, reader), map[string]interface{}{
		"postId":          postB.ID,
		"content":         "mismatched reply",
		"parentCommentId": parent.ID,
	})
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "Parent comment does not belong to this post" {
		t.Fatalf("error = %v", resp["error"])
	}

	// Unknown parent is rejected.
	code, resp = doJSON(t, r, http.MethodPost, "/api/comments", tokenFor(t, reader), map[string]interface{}{
		"postId":          postA.ID,
		"content":         "orphan reply",
		"parentCommentId": 9999,
	})
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "Parent comment not found" {
		t.Fatalf("error = %v", resp["error"])
	}

	// Matching parent works.
	code, resp = doJSON(t, r, http.MethodPost, "/api/comments", tokenFor(t, reader), map[string]interface{}{
		"postId":          postA.ID,
		"content":         "proper reply",
		"parentCommentId": parent.ID,
	})
	statusCheck(t, code, http.StatusCreated, resp)
}

func TestListPostCommentsNesting(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Threaded", true)

	first := models.Comment{Content: "first", UserID: author.ID, PostID: post.ID}
	db.Create(&first)
	second := models.Comment{Content: "second", UserID: author.ID, PostID: post.ID}
	db.Create(&second)
	replyA := models.Comment{Content: "reply a", UserID: author.ID, PostID: post.ID, ParentCommentID: &first.ID}
	db.Create(&replyA)
	replyB := models.Comment{Content: "reply b", UserID: author.ID, PostID: post.ID, ParentCommentID: &first.ID}
	db.Create(&replyB)

	code, resp := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/comments/post/%d", post.ID), "", nil)
	statusCheck(t, code, http.StatusOK, resp)

	comments := resp["comments"].([]interface{})
	if len(comments) != 2 {
		t.Fatalf("top-level comments = %d, want 2", len(comments))
	}

	// Replies nest under their parent, oldest first; reply rows never appear
	// at the top level.
	threaded := comments[1].(map[string]interface{})
	if threaded["content"] != "first" {
		// Newest-first order puts the second comment on top.
		t.Fatalf("second top-level comment = %v, want %q", threaded["content"], "first")
	}
	replies := threaded["replies"].([]interface{})
	if len(replies) != 2 {
		t.Fatalf("replies = %d, want 2", len(replies))
	}
	if replies[0].(map[string]interface{})["content"] != "reply a" {
		t.Fatalf("first reply = %v", replies[0])
	}
}

func TestUpdateCommentFlagsEdit(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	other := createUser(t, db, "other@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Edited", true)

	comment := models.Comment{Content: "tyop", UserID: author.ID, PostID: post.ID}
	db.Create(&comment)

	code, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/comments/%d", comment.ID), tokenFor(t, other), map[string]interface{}{
		"content": "hijack",
	})
	statusCheck(t, code, http.StatusForbidden, resp)

	code, resp = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/comments/%d", comment.ID), tokenFor(t, author), map[string]interface{}{
		"content": "typo",
	})
	statusCheck(t, code, http.StatusOK, resp)

	var reloaded models.Comment
	db.First(&reloaded, comment.ID)
	if reloaded.Content != "typo" || !reloaded.IsEdited || reloaded.EditedAt == nil {
		t.Fatalf("comment after edit = %+v", reloaded)
	}
}

func TestDeleteCommentCascadesReplies(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Threaded", true)

	parent := models.Comment{Content: "parent", UserID: author.ID, PostID: post.ID}
	db.Create(&parent)
	reply := models.Comment{Content: "reply", UserID: author.ID, PostID: post.ID, ParentCommentID: &parent.ID}
	db.Create(&reply)

	code, resp := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", parent.ID), tokenFor(t, author), nil)
	statusCheck(t, code, http.StatusOK, resp)

	var count int64
	db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	if count != 0 {
		t.Fatalf("comments left = %d, want 0", count)
	}
}

func TestToggleCommentLike(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	fan := createUser(t, db, "fan@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Liked", true)

	comment := models.Comment{Content: "likeable", UserID: author.ID, PostID: post.ID}
	db.Create(&comment)

	path := fmt.Sprintf("/api/comments/%d/like", comment.ID)

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
}

func TestCommentTooLong(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	author := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Tech")
	post := createPost(t, db, author, category, "Limits", true)

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}
	code, resp := doJSON(t, r, http.MethodPost, "/api/comments", tokenFor(t, author), map[string]interface{}{
		"postId":  post.ID,
		"content": string(long),
	})
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "Comment cannot exceed 500 characters" {
		t.Fatalf("error = %v", resp["error"])
	}
}
