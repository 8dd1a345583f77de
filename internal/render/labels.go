package render

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// AgeLabel — компактный возраст: 45s, 3m, 2h, 5d. Будущее время — 0s.
func AgeLabel(d time.Duration) string {
	s := int64(d / time.Second)

	switch {
	case s < 0:
		return "0s"
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s < 3600:
		return fmt.Sprintf("%dm", s/60)
	case s < 86400:
		return fmt.Sprintf("%dh", s/3600)
	default:
		return fmt.Sprintf("%dd", s/86400)
	}
}

// SizeLabel — размер в килобайтах с одним знаком: "12.3 KB".
func SizeLabel(size int64) string {
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}

// ExtBadge — расширение файла в верхнем регистре ("PDF"); пусто, если расширения нет.
func ExtBadge(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	return strings.ToUpper(ext)
}
