package manager

import "fmt"

// EventKind - что произошло в результате операции
type EventKind string

const (
	EventNone                  EventKind = ""
	EventHighPriorityAdded     EventKind = "high_priority_added"
	EventHighPriorityUpdated   EventKind = "high_priority_updated"
	EventHighPriorityDeleted   EventKind = "high_priority_deleted"
	EventHighPriorityCompleted EventKind = "high_priority_completed"
	EventFinishedCleared       EventKind = "finished_cleared"
	EventExported              EventKind = "exported"
	EventImported              EventKind = "imported"
)

// Event возвращается мутирующими операциями вместо прямого вызова уведомлений.
// Нулевое значение означает, что уведомлять не о чем.
type Event struct {
	Kind   EventKind `json:"kind"`
	TaskID int       `json:"task_id,omitempty"`
	Title  string    `json:"title,omitempty"`
	Count  int       `json:"count,omitempty"`
}

func (e Event) ShouldNotify() bool {
	return e.Kind != EventNone
}

// Message - текст уведомления для пользователя
func (e Event) Message() string {
	switch e.Kind {
	case EventHighPriorityAdded:
		return fmt.Sprintf("Важная задача «%s» добавлена!", e.Title)
	case EventHighPriorityUpdated:
		return fmt.Sprintf("Важная задача «%s» обновлена!", e.Title)
	case EventHighPriorityDeleted:
		return fmt.Sprintf("Важная задача «%s» удалена!", e.Title)
	case EventHighPriorityCompleted:
		return fmt.Sprintf("Важная задача «%s» выполнена!", e.Title)
	case EventFinishedCleared:
		return fmt.Sprintf("Выполненные задачи удалены (%d)", e.Count)
	case EventExported:
		return fmt.Sprintf("Задачи экспортированы (%d)", e.Count)
	case EventImported:
		return fmt.Sprintf("Задачи загружены (%d)", e.Count)
	}
	return ""
}
