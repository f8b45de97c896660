package i18n

import "github.com/gin-gonic/gin"

// Middleware выбирает язык ответа: ?lang=, затем Accept-Language, затем язык по умолчанию
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var langs []string
		if q := c.Query("lang"); q != "" {
			langs = append(langs, q)
		}
		if h := c.GetHeader("Accept-Language"); h != "" {
			langs = append(langs, h)
		}
		ctx := WithLocalizer(c.Request.Context(), NewLocalizer(langs...))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
