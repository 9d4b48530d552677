package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON200(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func JSON400(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func JSON401(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": message})
}

func JSON404(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"error": message})
}

func JSON500(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
