package utils

import (
	"github.com/gin-gonic/gin"
)

// Response est l'enveloppe de toutes les réponses JSON.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Errors     []string    `json:"errors,omitempty"`
}

func Success(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Response{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	})
}

func Error(c *gin.Context, status int, message string, errs ...string) {
	c.JSON(status, Response{
		StatusCode: status,
		Data:       nil,
		Message:    message,
		Success:    false,
		Errors:     errs,
	})
}

// Abort répond avec une erreur et arrête la chaîne de middlewares.
func Abort(c *gin.Context, status int, message string) {
	Error(c, status, message)
	c.Abort()
}
