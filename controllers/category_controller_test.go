package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/plumeblog/plume/models"
)

func TestCreateCategory(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	admin := createUser(t, db, "admin@example.com", "admin")

	code, resp := doJSON(t, r, http.MethodPost, "/api/categories", tokenFor(t, admin), map[string]interface{}{
		"title": "Science",
	})
	statusCheck(t, code, http.StatusCreated, resp)

	code, resp = doJSON(t, r, http.MethodPost, "/api/categories", tokenFor(t, admin), map[string]interface{}{
		"title": "science",
	})
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "Category already exists" {
		t.Fatalf("error = %v", resp["error"])
	}
}

func TestCreateCategoryRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	user := createUser(t, db, "user@example.com", "user")

	code, resp := doJSON(t, r, http.MethodPost, "/api/categories", tokenFor(t, user), map[string]interface{}{
		"title": "Science",
	})
	statusCheck(t, code, http.StatusForbidden, resp)
}

func TestListActiveCategories(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	createCategory(t, db, "Visible")
	inactive := createCategory(t, db, "Hidden")
	db.Model(&inactive).Update("is_active", false)

	categories := doJSONArray(t, r, "/api/categories/active", "")
	if len(categories) != 1 {
		t.Fatalf("categories = %d, want 1", len(categories))
	}
	if categories[0].(map[string]interface{})["title"] != "Visible" {
		t.Fatalf("unexpected category: %v", categories[0])
	}
}

func TestListAllCategories(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	user := createUser(t, db, "user@example.com", "user")
	createCategory(t, db, "Visible")
	inactive := createCategory(t, db, "Hidden")
	db.Model(&inactive).Update("is_active", false)

	categories := doJSONArray(t, r, "/api/categories", tokenFor(t, user))
	if len(categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(categories))
	}
}

func TestCategoryDeactivationBlockedWhileReferenced(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	admin := createUser(t, db, "admin@example.com", "admin")
	author := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Busy")
	createPost(t, db, author, category, "Uses Busy", true)

	code, resp := doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/categories/%d/toggle-status", category.ID), tokenFor(t, admin), nil)
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "Cannot deactivate category: 1 post(s) still use it" {
		t.Fatalf("error = %v", resp["error"])
	}

	var reloaded models.Category
	db.First(&reloaded, category.ID)
	if !reloaded.IsActive {
		t.Fatal("category must stay active")
	}
}

func TestCategoryDeleteBlockedWhileReferenced(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	admin := createUser(t, db, "admin@example.com", "admin")
	author := createUser(t, db, "author@example.com", "user")
	category := createCategory(t, db, "Busy")
	createPost(t, db, author, category, "Uses Busy", true)

	code, resp := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/categories/%d", category.ID), tokenFor(t, admin), nil)
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "Cannot delete category: 1 post(s) still use it" {
		t.Fatalf("error = %v", resp["error"])
	}
}

func TestCategoryDeleteUnused(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	admin := createUser(t, db, "admin@example.com", "admin")
	category := createCategory(t, db, "Empty")

	code, resp := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/categories/%d", category.ID), tokenFor(t, admin), nil)
	statusCheck(t, code, http.StatusOK, resp)

	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count != 0 {
		t.Fatalf("categories left = %d, want 0", count)
	}
}

func TestCategoryRenameToExistingTitle(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(db)
	admin := createUser(t, db, "admin@example.com", "admin")
	createCategory(t, db, "First")
	second := createCategory(t, db, "Second")

	code, resp := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/categories/%d", second.ID), tokenFor(t, admin), map[string]interface{}{
		"title": "FIRST",
	})
	statusCheck(t, code, http.StatusBadRequest, resp)
	if resp["error"] != "Category already exists" {
		t.Fatalf("error = %v", resp["error"])
	}
}
