package manager

import (
	"sort"
	"strings"

	"tasklist/internal/models"
)

// SortKey - порядок сортировки списка
type SortKey string

const (
	SortByPriority SortKey = "priority"
	SortByDueDate  SortKey = "due-date"
	SortByTitle    SortKey = "title"
)

// Задачи без срока идут после всех задач со сроком
const farFutureDueDate = "9999-12-31"

// Query - параметры выборки задач
type Query struct {
	Categories   []string
	Search       string
	ShowFinished bool
	SortBy       SortKey
}

func (q Query) match(task models.Task) bool {
	if task.Completed != q.ShowFinished {
		return false
	}

	if len(q.Categories) > 0 {
		found := false
		for _, c := range q.Categories {
			if task.Category == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(task.Title), needle) &&
			!strings.Contains(strings.ToLower(task.Description), needle) &&
			!(task.HasDueDate() && strings.Contains(strings.ToLower(task.DueDate), needle)) {
			return false
		}
	}

	return true
}

func dueDateKey(t models.Task) string {
	if !t.HasDueDate() {
		return farFutureDueDate
	}
	return t.DueDate
}

// sortTasks сортирует срез на месте, равные элементы сохраняют исходный порядок
func sortTasks(tasks []models.Task, by SortKey) {
	var less func(a, b models.Task) bool
	switch by {
	case SortByPriority:
		less = func(a, b models.Task) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case SortByDueDate:
		less = func(a, b models.Task) bool { return dueDateKey(a) < dueDateKey(b) }
	default:
		less = func(a, b models.Task) bool { return a.Title < b.Title }
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return less(tasks[i], tasks[j])
	})
}
