package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "devit"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanPolicyUpdate: после успешной замены коллекции сюда публикуется имя реалма.
	RedisChanPolicyUpdate = RedisNamespace + ":client-policies:update"
	// RedisChanAlerts: широковещательная лента уведомлений консоли.
	RedisChanAlerts = RedisNamespace + ":client-policies:alerts"
)
