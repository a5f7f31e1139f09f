package entity

// SubmitReviewRequest - запрос на отправку отзыва
type SubmitReviewRequest struct {
	AuthorName  string `json:"authorName" validate:"required,min=1"`
	Stars       int    `json:"stars" validate:"required,min=1,max=5"`
	Review      string `json:"review" validate:"required"`
	ProductName string `json:"productName" validate:"omitempty"`
}

// CreateToolRequest - запрос на создание инструмента
type CreateToolRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}

// SummaryRequest - запрос на получение/генерацию AI-сводки
type SummaryRequest struct {
	Product SummaryProduct `json:"product" validate:"required"`
	Reviews []Review       `json:"reviews" validate:"required,min=1"`
}

type SummaryProduct struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// ToolListItem - элемент списка GET /tools
type ToolListItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ReviewCount   int     `json:"reviewCount"`
	AverageRating float64 `json:"averageRating"`
}

// SubmitReviewResponse - успешный ответ пайплайна отправки
type SubmitReviewResponse struct {
	Review    Review `json:"review"`
	Published bool   `json:"published"`
}

// HeldReviewResponse - ответ 202 для отзыва, задержанного модерацией
type HeldReviewResponse struct {
	Message   string `json:"message"`
	ReviewID  string `json:"reviewId"`
	Published bool   `json:"published"`
}

// SummaryResponse - ответ POST /ai-summary
type SummaryResponse struct {
	Summary string   `json:"summary"`
	Themes  []string `json:"themes"`
}

// VerifyResponse - состояние edu-верификации профиля
type VerifyResponse struct {
	EduVerified bool   `json:"eduVerified"`
	Verified    bool   `json:"verified"`
	Role        string `json:"role,omitempty"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
