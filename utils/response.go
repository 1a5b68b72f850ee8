package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the uniform error body: a single human-readable message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Fail writes the error body with the given HTTP status.
// 400 validation/conflict, 401 missing auth, 403 authorization, 404 not
// found, 500 unexpected.
func Fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, ErrorResponse{Error: message})
}
