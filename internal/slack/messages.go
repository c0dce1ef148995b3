package slack

import "strings"

const (
	welcomeText = `Привет! Я бот для аналитики видео.

Задавайте вопросы на естественном языке, например:
- Сколько всего видео есть в системе?
- Сколько видео набрало больше 10 000 просмотров?
- Сколько видео вышло с 1 ноября 2025 по 5 ноября 2025 включительно?
- На сколько просмотров в сумме выросли все видео 28 ноября 2025?
- Сколько разных видео получали новые просмотры 27 ноября 2025?

Я отвечу одним числом — результатом запроса.`

	emptyQueryText = "Пожалуйста, введите текстовый запрос."
	textOnlyText   = "Извините, я могу работать только с текстовыми сообщениями."
	apologyText    = "Произошла ошибка при обработке запроса. Попробуйте сформулировать иначе."
)

// isStartCommand matches the greeting commands that return the welcome text.
func isStartCommand(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/start", "start", "help", "/help":
		return true
	}
	return false
}
