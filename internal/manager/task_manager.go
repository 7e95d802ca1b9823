package manager

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tasklist/internal/export"
	"tasklist/internal/models"
)

var (
	taskOpCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoapp_task_operations_total",
			Help: "Total number of task operations by result",
		},
		[]string{"op", "status"},
	)

	taskOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_operation_duration_seconds",
			Help:    "Duration of task operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	taskTitleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoapp_task_title_length_bytes",
			Help:    "Length distribution of task titles",
			Buckets: []float64{10, 50, 100, 500},
		},
	)

	storedTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "todoapp_tasks_stored",
			Help: "Number of tasks in the collection",
		},
	)
)

const (
	statusSuccess  = "success"
	statusError    = "error"
	statusNotFound = "not_found"
)

// ErrDuplicateID - в загружаемом наборе повторяется ID
var ErrDuplicateID = errors.New("повторяющийся ID задачи")

// Repository - долговременное хранилище всей коллекции задач
type Repository interface {
	Load() ([]models.Task, error)
	Save(tasks []models.Task) error
}

type TaskManager struct {
	repo   Repository
	tasks  []models.Task
	lastID int
	mu     sync.Mutex
}

// NewTaskManager загружает задачи из хранилища. Следующий ID - максимальный существующий + 1.
func NewTaskManager(repo Repository) (*TaskManager, error) {
	tasks, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки задач: %w", err)
	}

	tm := &TaskManager{repo: repo, tasks: tasks}
	for _, t := range tasks {
		if t.ID > tm.lastID {
			tm.lastID = t.ID
		}
	}
	storedTasks.Set(float64(len(tasks)))
	return tm, nil
}

func observe(op string) func() {
	startTime := time.Now()
	return func() {
		taskOpDuration.WithLabelValues(op).Observe(time.Since(startTime).Seconds())
	}
}

func (tm *TaskManager) indexOf(id int) int {
	for i := range tm.tasks {
		if tm.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// save вызывается под tm.mu. При ошибке изменения в памяти сохраняются,
// повторить запись можно через SaveTasks.
func (tm *TaskManager) save() error {
	storedTasks.Set(float64(len(tm.tasks)))
	snapshot := make([]models.Task, len(tm.tasks))
	copy(snapshot, tm.tasks)
	if err := tm.repo.Save(snapshot); err != nil {
		return fmt.Errorf("ошибка сохранения задач: %w", err)
	}
	return nil
}

func (tm *TaskManager) AddTask(in models.TaskInput) (Event, error) {
	defer observe("add")()

	task, err := in.Normalize()
	if err != nil {
		taskOpCount.WithLabelValues("add", statusError).Inc()
		return Event{}, err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.lastID++
	task.ID = tm.lastID
	tm.tasks = append(tm.tasks, task)
	taskTitleLength.Observe(float64(len(task.Title)))

	if err := tm.save(); err != nil {
		taskOpCount.WithLabelValues("add", statusError).Inc()
		return Event{}, err
	}

	taskOpCount.WithLabelValues("add", statusSuccess).Inc()
	if task.Priority == models.PriorityHigh {
		return Event{Kind: EventHighPriorityAdded, TaskID: task.ID, Title: task.Title}, nil
	}
	return Event{}, nil
}

// UpdateTask перезаписывает все изменяемые поля. false - задачи с таким ID нет.
func (tm *TaskManager) UpdateTask(id int, in models.TaskInput) (Event, bool, error) {
	defer observe("update")()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	i := tm.indexOf(id)
	if i < 0 {
		taskOpCount.WithLabelValues("update", statusNotFound).Inc()
		return Event{}, false, nil
	}

	fields, err := in.Normalize()
	if err != nil {
		taskOpCount.WithLabelValues("update", statusError).Inc()
		return Event{}, false, err
	}

	task := &tm.tasks[i]
	task.Title = fields.Title
	task.Description = fields.Description
	task.Priority = fields.Priority
	task.Category = fields.Category
	task.DueDate = fields.DueDate

	if err := tm.save(); err != nil {
		taskOpCount.WithLabelValues("update", statusError).Inc()
		return Event{}, false, err
	}

	taskOpCount.WithLabelValues("update", statusSuccess).Inc()
	if task.Priority == models.PriorityHigh {
		return Event{Kind: EventHighPriorityUpdated, TaskID: task.ID, Title: task.Title}, true, nil
	}
	return Event{}, true, nil
}

func (tm *TaskManager) DeleteTask(id int) (Event, error) {
	defer observe("delete")()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	i := tm.indexOf(id)
	if i < 0 {
		taskOpCount.WithLabelValues("delete", statusNotFound).Inc()
		return Event{}, nil
	}

	deleted := tm.tasks[i]
	tm.tasks = append(tm.tasks[:i], tm.tasks[i+1:]...)

	if err := tm.save(); err != nil {
		taskOpCount.WithLabelValues("delete", statusError).Inc()
		return Event{}, err
	}

	taskOpCount.WithLabelValues("delete", statusSuccess).Inc()
	if deleted.Priority == models.PriorityHigh {
		return Event{Kind: EventHighPriorityDeleted, TaskID: deleted.ID, Title: deleted.Title}, nil
	}
	return Event{}, nil
}

// ToggleTaskCompletion уведомляет только о выполнении важной задачи,
// возврат в активные событий не порождает.
func (tm *TaskManager) ToggleTaskCompletion(id int) (Event, error) {
	defer observe("toggle")()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	i := tm.indexOf(id)
	if i < 0 {
		taskOpCount.WithLabelValues("toggle", statusNotFound).Inc()
		return Event{}, nil
	}

	task := &tm.tasks[i]
	task.ToggleComplete()

	if err := tm.save(); err != nil {
		taskOpCount.WithLabelValues("toggle", statusError).Inc()
		return Event{}, err
	}

	taskOpCount.WithLabelValues("toggle", statusSuccess).Inc()
	if task.Priority == models.PriorityHigh && task.Completed {
		return Event{Kind: EventHighPriorityCompleted, TaskID: task.ID, Title: task.Title}, nil
	}
	return Event{}, nil
}

// ClearFinishedTasks удаляет все выполненные задачи. Событие возвращается всегда.
func (tm *TaskManager) ClearFinishedTasks() (Event, error) {
	defer observe("clear")()

	tm.mu.Lock()
	defer tm.mu.Unlock()

	kept := make([]models.Task, 0, len(tm.tasks))
	for _, t := range tm.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(tm.tasks) - len(kept)
	tm.tasks = kept

	if err := tm.save(); err != nil {
		taskOpCount.WithLabelValues("clear", statusError).Inc()
		return Event{}, err
	}

	taskOpCount.WithLabelValues("clear", statusSuccess).Inc()
	return Event{Kind: EventFinishedCleared, Count: removed}, nil
}

// GetTasks возвращает отфильтрованную и отсортированную копию, коллекция не меняется
func (tm *TaskManager) GetTasks(q Query) []models.Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	result := make([]models.Task, 0, len(tm.tasks))
	for _, t := range tm.tasks {
		if q.match(t) {
			result = append(result, t)
		}
	}

	sortTasks(result, q.SortBy)
	return result
}

func (tm *TaskManager) GetTask(id int) (models.Task, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if i := tm.indexOf(id); i >= 0 {
		return tm.tasks[i], true
	}
	return models.Task{}, false
}

// GetAllTasks - вся коллекция в порядке хранения
func (tm *TaskManager) GetAllTasks() []models.Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tasks := make([]models.Task, len(tm.tasks))
	copy(tasks, tm.tasks)
	return tasks
}

// ExportTasks пишет всю коллекцию в w в выбранном формате
func (tm *TaskManager) ExportTasks(w io.Writer, format export.Format) (Event, error) {
	defer observe("export")()

	tasks := tm.GetAllTasks()
	if err := export.Write(w, tasks, format); err != nil {
		taskOpCount.WithLabelValues("export", statusError).Inc()
		return Event{}, fmt.Errorf("ошибка экспорта задач: %w", err)
	}

	taskOpCount.WithLabelValues("export", statusSuccess).Inc()
	return Event{Kind: EventExported, Count: len(tasks)}, nil
}

// ImportTasks заменяет коллекцию загруженными задачами, ID сохраняются
func (tm *TaskManager) ImportTasks(tasks []models.Task) (Event, error) {
	defer observe("import")()

	seen := make(map[int]bool, len(tasks))
	lastID := 0
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			taskOpCount.WithLabelValues("import", statusError).Inc()
			return Event{}, fmt.Errorf("задача %d: %w", t.ID, err)
		}
		if seen[t.ID] {
			taskOpCount.WithLabelValues("import", statusError).Inc()
			return Event{}, fmt.Errorf("задача %d: %w", t.ID, ErrDuplicateID)
		}
		seen[t.ID] = true
		if t.ID > lastID {
			lastID = t.ID
		}
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.tasks = make([]models.Task, len(tasks))
	copy(tm.tasks, tasks)
	if lastID > tm.lastID {
		tm.lastID = lastID
	}

	if err := tm.save(); err != nil {
		taskOpCount.WithLabelValues("import", statusError).Inc()
		return Event{}, err
	}

	taskOpCount.WithLabelValues("import", statusSuccess).Inc()
	return Event{Kind: EventImported, Count: len(tasks)}, nil
}

// SaveTasks записывает всю коллекцию, например после ошибки сохранения
func (tm *TaskManager) SaveTasks() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	return tm.save()
}
