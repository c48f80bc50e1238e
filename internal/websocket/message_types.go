package websocket

// Типы сообщений канала уведомлений
const (
	// ROOMS_UPDATED сообщает, что список комнат изменился и его нужно перезапросить
	ROOMS_UPDATED = "rooms_updated"

	// PROGRESS_UPDATE сообщает наблюдателям комнаты о прогрессе сессии ученика
	PROGRESS_UPDATE = "progress_update"

	// PING отправляется клиентом для проверки соединения
	PING = "ping"

	// PONG - ответ сервера на PING
	PONG = "pong"

	// SERVER_ERROR сообщает клиенту об ошибке обработки его сообщения
	SERVER_ERROR = "server:error"
)
