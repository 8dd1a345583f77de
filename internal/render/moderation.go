package render

import "github.com/pribylovaa/exivox-comments/internal/models"

type bannerText struct {
	title   string
	message string
}

var bannerTexts = map[models.ModerationStatus]bannerText{
	models.ModerationWarning:  {"Content Warning", "This comment has been flagged for review"},
	models.ModerationPending:  {"Under Review", "This comment is being reviewed by moderators"},
	models.ModerationRejected: {"Content Removed", "This comment violates community guidelines"},
}

var defaultBanner = bannerText{"Flagged Content", "This comment has been reported"}

// ShowBanner — плашка нужна, если комментарий отмечен пользователями
// или модератор выставил warning.
func ShowBanner(c models.Comment) bool {
	return c.IsFlagged || c.ModerationStatus == models.ModerationWarning
}

func banner(c models.Comment, expanded bool) *Banner {
	if !ShowBanner(c) {
		return nil
	}

	status := c.ModerationStatus
	if status == "" {
		status = models.ModerationApproved
	}

	text, ok := bannerTexts[status]
	if !ok {
		text = defaultBanner
	}

	b := &Banner{
		Status:   string(status),
		Title:    text.title,
		Message:  text.message,
		Expanded: expanded,
	}

	if expanded {
		b.Reason = c.ModerationReason
		b.Reported = c.IsFlagged
	}

	return b
}
