package handlers

// Тела запросов. Ограничения тегов — грубый фильтр транспорта;
// правила формы (длина текста, типы и размеры файлов) проверяются отдельно
// и возвращаются списком нарушений.

type attachmentDTO struct {
	URL         string `json:"url" validate:"required,url"`
	Name        string `json:"name" validate:"required,max=255"`
	Size        int64  `json:"size" validate:"gte=0"`
	ContentType string `json:"content_type" validate:"required,max=255"`
}

type createCommentRequest struct {
	Content     string          `json:"content" validate:"max=10000"`
	IsAnonymous bool            `json:"is_anonymous"`
	ParentID    string          `json:"parent_id,omitempty" validate:"omitempty,max=64"`
	Attachments []attachmentDTO `json:"attachments,omitempty" validate:"max=32,dive"`
}

type reportRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type moderationRequest struct {
	Status string `json:"status" validate:"required,oneof=approved pending rejected warning"`
	Reason string `json:"reason" validate:"max=500"`
}

type presignRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=255"`
	Size        int64  `json:"size" validate:"required,gt=0"`
}

type confirmRequest struct {
	Key  string `json:"key" validate:"required,max=1024"`
	Name string `json:"name" validate:"max=255"`
}

type presignResponse struct {
	UploadURL       string            `json:"upload_url"`
	Key             string            `json:"key"`
	ExpiresIn       int64             `json:"expires_in"`
	RequiredHeaders map[string]string `json:"required_headers"`
}

type countResponse struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}
