package middleware

import (
	"github.com/YourPsychicArchitect/diligence-tracker/internal/common/errors"
	"github.com/YourPsychicArchitect/diligence-tracker/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler middleware catches panics and converts them to proper error responses
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("request panicked",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
				)
				appErr := errors.Internal("internal server error", "")
				c.AbortWithStatusJSON(appErr.Status, appErr)
			}
		}()
		c.Next()
	}
}

// JSONErrorResponse wraps errors in consistent JSON format
func JSONErrorResponse(c *gin.Context, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Internal("internal server error", err.Error())
	}

	c.JSON(appErr.Status, appErr)
}
