package helper

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// StudentHeader - заголовок, в котором клиент может передать идентификатор студента
const StudentHeader = "X-Student-ID"

// StudentKey возвращает ключ клиента для лимитов и логов. IP входит всегда:
// идентификатор студента присылает клиент, и сам по себе он ничего не ограничивает.
// Студент берётся из заголовка X-Student-ID, затем из query student_id.
func StudentKey(c *gin.Context) string {
	key := IPKey(c)
	if id := StudentID(c); id != "" {
		key += ":student:" + id
	}
	return key
}

// IPKey - ключ клиента только по адресу
func IPKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// StudentID возвращает переданный клиентом идентификатор студента или ""
func StudentID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(StudentHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("student_id"))
}
