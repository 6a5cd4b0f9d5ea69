package model

// Student это студент (данные из внешнего каталога пользователей)
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Number     string `json:"number"` // студенческий номер
	Email      string `json:"email"`
	TelegramID int64  `json:"telegram_id"`
	Campus     string `json:"campus"`
	Course     string `json:"course"`
}

// Counselor это консультант
type Counselor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	TelegramID int64  `json:"telegram_id"`
	Campus     string `json:"campus"`
}
