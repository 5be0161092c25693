package audit

import (
	"time"

	"github.com/google/uuid"
)

// Статусы событий журнала.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Event запись журнала действий над клиентскими политиками.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Realm     string    `json:"realm"`
	Action    string    `json:"action"` // "create" | "delete"
	Policy    string    `json:"policy"`
	Actor     string    `json:"actor"` // Кто делал (user_id из токена)
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
