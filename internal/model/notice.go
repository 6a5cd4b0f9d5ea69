package model

// Notice это сообщение для отправки адресату
type Notice struct {
	To      string `json:"to"`      // email адресата
	ChatID  int64  `json:"chat_id"` // Telegram чат, 0 если не задан
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// LinkRequest это данные для создания ссылки на видеовстречу
type LinkRequest struct {
	RequestID      string
	Date           Date
	Time           ClockTime
	StudentContact string
	CounselorName  string
	Reason         string
}
