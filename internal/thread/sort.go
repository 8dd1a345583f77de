package thread

import (
	"slices"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

// Sort возвращает новый срез корневых комментариев в заданном порядке.
// Сортировка стабильная: равные по ключу элементы сохраняют исходный порядок.
// Ответы внутри корней не переупорядочиваются. Исходный срез не меняется.
func Sort(list []models.Comment, mode models.SortMode) []models.Comment {
	out := make([]models.Comment, len(list))
	copy(out, list)

	var cmp func(a, b models.Comment) int

	switch mode {
	case models.SortOldest:
		cmp = func(a, b models.Comment) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case models.SortPopular:
		cmp = func(a, b models.Comment) int { return b.Stars - a.Stars }
	default:
		cmp = func(a, b models.Comment) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}

	slices.SortStableFunc(out, cmp)

	return out
}

// CountAll — сумма (1 + число прямых ответов) по всем корневым комментариям.
func CountAll(list []models.Comment) int {
	total := 0
	for i := range list {
		total += 1 + len(list[i].Replies)
	}

	return total
}
