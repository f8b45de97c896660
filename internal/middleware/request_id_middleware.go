package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/practice-api/internal/pkg/logger"
)

const (
	// RequestIDHeader - заголовок с идентификатором запроса
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey - ключ идентификатора в контексте Gin
	RequestIDKey = "requestID"
)

// RequestID берёт X-Request-ID клиента или генерирует новый UUID,
// кладёт его в контекст и возвращает в ответе
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog пишет строку лога на каждый запрос
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info("[HTTP] "+c.Request.Method+" "+c.FullPath(),
			"status", c.Writer.Status(),
			"request_id", c.GetString(RequestIDKey),
			"client", c.ClientIP(),
		)
	}
}
