package entity

import (
	"time"
)

// Product - карточка AI-инструмента в каталоге
// Документ в коллекции products, _id = нормализованное имя инструмента
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"` // Оригинальное имя с пробелами и регистром
	ReviewCount int       `json:"reviewCount" bson:"review_count"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`

	// AI-сводка. Валидна только пока SummaryReviewCount совпадает
	// с актуальным числом безопасных отзывов
	Summary            string     `json:"summary,omitempty" bson:"summary,omitempty"`
	Theme1             string     `json:"theme1,omitempty" bson:"theme1,omitempty"`
	Theme2             string     `json:"theme2,omitempty" bson:"theme2,omitempty"`
	Theme3             string     `json:"theme3,omitempty" bson:"theme3,omitempty"`
	Theme4             string     `json:"theme4,omitempty" bson:"theme4,omitempty"`
	SummaryReviewCount int        `json:"summaryReviewCount" bson:"summary_review_count"`
	SummaryUpdatedAt   *time.Time `json:"summaryUpdatedAt,omitempty" bson:"summary_updated_at,omitempty"`
}

// Review - отзыв пользователя об инструменте
// ID формируется как {productId}_{unixMilli}_{randomSuffix}, документ неизменяемый
type Review struct {
	ID                   string          `json:"id" bson:"_id"`
	ProductID            string          `json:"productId" bson:"product_id"`
	ProductName          string          `json:"productName" bson:"product_name"`
	AuthorName           string          `json:"authorName" bson:"author_name"`
	UserID               string          `json:"userId,omitempty" bson:"user_id,omitempty"`
	Stars                int             `json:"stars" bson:"stars"` // Оценка от 1 до 5
	Review               string          `json:"review" bson:"review"`
	Date                 time.Time       `json:"date" bson:"date"`
	Safe                 *bool           `json:"safe,omitempty" bson:"safe,omitempty"` // nil трактуется как safe
	ModerationCategories map[string]bool `json:"moderationCategories,omitempty" bson:"moderation_categories,omitempty"`
}

// IsSafe: отзыв небезопасен только при явном safe=false
func (r *Review) IsSafe() bool {
	return r.Safe == nil || *r.Safe
}

// UserProfile - профиль пользователя с флагами edu-верификации
// Документ в коллекции users, _id = userId от identity-провайдера
type UserProfile struct {
	UserID      string    `json:"userId" bson:"_id"`
	EduVerified bool      `json:"eduVerified" bson:"edu_verified"`
	Verified    bool      `json:"verified" bson:"verified"` // Однажды true - никогда не сбрасывается автоматикой
	Role        string    `json:"role,omitempty" bson:"role,omitempty"`
	Email       string    `json:"email,omitempty" bson:"email,omitempty"`
	SchoolEmail string    `json:"schoolEmail,omitempty" bson:"school_email,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// RateLimitRecord - скользящее окно отправок пользователя
// Список чистится лениво при очередной проверке, не по таймеру
type RateLimitRecord struct {
	UserID      string      `json:"userId" bson:"_id"`
	Submissions []time.Time `json:"submissions" bson:"submissions"`
	Count       int         `json:"count" bson:"count"`
}

// ModerationResult - вердикт внешней модерации текста
type ModerationResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories"`
}

// SummaryResult - разобранный ответ LLM на запрос сводки
type SummaryResult struct {
	Summary string   `json:"summary"`
	Themes  []string `json:"themes"`
}

// ReviewEvent - событие для Kafka после прохождения пайплайна
type ReviewEvent struct {
	EventType   string    `json:"event_type"` // REVIEW_PUBLISHED или REVIEW_HELD
	ReviewID    string    `json:"review_id"`
	ProductID   string    `json:"product_id"`
	UserID      string    `json:"user_id"`
	Stars       int       `json:"stars"`
	Safe        bool      `json:"safe"`
	Timestamp   time.Time `json:"timestamp"`
	ProductName string    `json:"product_name"`
}

const (
	EventReviewPublished = "REVIEW_PUBLISHED"
	EventReviewHeld      = "REVIEW_HELD"
)

// EmptySummaryText - сводка-заглушка для товара без безопасных отзывов
const EmptySummaryText = "No reviews available for this product yet."
