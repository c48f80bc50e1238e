package helper

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// QueryLimit читает параметр limit из query: пустое или неверное значение дает def, больше max - max
func QueryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// ExportFilename формирует имя файла выгрузки без расширения
func ExportFilename(roomID uint, now time.Time) string {
	return fmt.Sprintf("room_%d_results_%s", roomID, now.Format("2006-01-02"))
}

// SanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func SanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
