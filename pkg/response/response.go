package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/vietqa/accred-api/pkg/errors"
)

// Envelope is the common response contract: {success, message?, data?}.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination contains list metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *Pagination) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Success: true, Data: data, Pagination: pagination})
}

// OK responds with HTTP 200 and an optional message.
func OK(c *gin.Context, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Success: false, Message: appErr.Message})
}
