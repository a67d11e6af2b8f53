package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sweatcircle/sweatcircle/utils"
)

// RequestID assigns a uuid to each request (honoring one supplied by the
// caller) and echoes it in the response header so log lines can be correlated.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rid := ctx.GetHeader(utils.RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx.Writer.Header().Set(utils.RequestIDHeader, rid)
		ctx.Next()
	}
}
