package loader

import (
	"context"
	"time"

	"github.com/pribylovaa/exivox-comments/internal/models"
)

// Seed — демонстрационная ветка: два корня с ответом, анонимный комментарий
// и комментарий с предупреждением модерации.
type Seed struct{}

func (Seed) Load(_ context.Context, subjectKey string) ([]models.Comment, error) {
	return SeedComments(subjectKey), nil
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}

	return t
}

// SeedComments возвращает свежую копию демонстрационных данных для ветки.
func SeedComments(subjectKey string) []models.Comment {
	c1 := models.Comment{
		ID:        "1",
		SubjectID: subjectKey,
		Author: models.Author{
			ID:          "1",
			Username:    "sarah_dev",
			DisplayName: "Sarah Developer",
			Avatar:      "https://images.unsplash.com/photo-1494790108755-2616b612b786?w=150",
			IsVerified:  true,
		},
		Content:          "Great explanation! This really helped me understand the concept better. Thanks for sharing! 🙏",
		Stars:            12,
		CreatedAt:        ts("2024-01-15T10:30:00Z"),
		ModerationStatus: models.ModerationApproved,
	}

	c1.Replies = []models.Comment{{
		ID:        "2",
		ParentID:  "1",
		SubjectID: subjectKey,
		Author: models.Author{
			ID:          "2",
			Username:    "mike_codes",
			DisplayName: "Mike Coder",
			Avatar:      "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150",
		},
		Content:          "Totally agree! The examples were super clear.",
		Stars:            3,
		IsStarred:        true,
		CreatedAt:        ts("2024-01-15T10:45:00Z"),
		ModerationStatus: models.ModerationApproved,
	}}

	c3 := models.Comment{
		ID:               "3",
		SubjectID:        subjectKey,
		Author:           models.AnonymousAuthor,
		IsAnonymous:      true,
		Content:          "I have a different perspective on this. While the approach works, there might be performance implications with larger datasets.",
		Stars:            8,
		CreatedAt:        ts("2024-01-15T11:00:00Z"),
		ModerationStatus: models.ModerationApproved,
	}

	c4 := models.Comment{
		ID:        "4",
		SubjectID: subjectKey,
		Author: models.Author{
			ID:          "4",
			Username:    "flagged_user",
			DisplayName: "Flagged User",
			Avatar:      "https://images.unsplash.com/photo-1535713875002-d1d0cf377fde?w=150",
		},
		Content:          "This comment contains inappropriate content that has been flagged by the community.",
		CreatedAt:        ts("2024-01-15T11:15:00Z"),
		IsFlagged:        true,
		ModerationStatus: models.ModerationWarning,
		ModerationReason: "Inappropriate language detected",
	}

	for _, c := range []*models.Comment{&c1, &c1.Replies[0], &c3, &c4} {
		c.UpdatedAt = c.CreatedAt
	}

	return []models.Comment{c1, c3, c4}
}
