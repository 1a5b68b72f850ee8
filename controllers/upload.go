package controllers

import (
	"errors"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plumeblog/plume/config"
)

var (
	errCategoryRequired = errors.New("category required")
	errCategoryNotFound = errors.New("category not found")
)

// storeImageFile writes one multipart image to the upload directory and
// returns its public URL. Non-image content types and oversized files are
// rejected. The empty errMsg means success.
func storeImageFile(ctx *gin.Context, fh *multipart.FileHeader) (url, errMsg string, status int) {
	cfg := config.Get()

	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return "", "Only image files are allowed", http.StatusBadRequest
	}
	maxBytes := int64(cfg.UploadMaxSizeMB) << 20
	if fh.Size > maxBytes {
		return "", fmt.Sprintf("Image must be smaller than %dMB", cfg.UploadMaxSizeMB), http.StatusBadRequest
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return "", "Failed to store image", http.StatusInternalServerError
	}
	name := uploadFileName(fh.Filename)
	if err := ctx.SaveUploadedFile(fh, filepath.Join(cfg.UploadDir, name)); err != nil {
		return "", "Failed to store image", http.StatusInternalServerError
	}
	return "/uploads/" + name, "", 0
}

func uploadFileName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("image-%d-%d%s", time.Now().UnixNano(), rand.Intn(1_000_000_000), ext)
}
