package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"tasklist/internal/models"
)

// Ключи хранилища
const (
	TasksKey = "tasks"
	ThemeKey = "theme"
)

// KeyValue - простое хранилище строк по ключу
type KeyValue interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Close() error
}

// Open создает хранилище по имени драйвера.
// Для file dsn - каталог, для SQL-драйверов - строка подключения.
func Open(driver, dsn string) (KeyValue, error) {
	switch driver {
	case "memory":
		return NewMemoryStorage(), nil
	case "file":
		fs, err := NewFileStorage(dsn)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case DriverSQLite, DriverSQLite3, DriverPostgres, DriverMySQL:
		db, err := NewSQLStorage(driver, dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища %q", driver)
	}
}

// In-memory хранилище для тестов и временного запуска
type MemoryStorage struct {
	values map[string]string
	mu     sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

// TaskRepository хранит всю коллекцию одним JSON-массивом под ключом tasks
type TaskRepository struct {
	kv KeyValue
}

func NewTaskRepository(kv KeyValue) *TaskRepository {
	return &TaskRepository{kv: kv}
}

// Load возвращает пустую коллекцию, если ключа еще нет
func (r *TaskRepository) Load() ([]models.Task, error) {
	raw, ok, err := r.kv.Get(TasksKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []models.Task{}, nil
	}

	var tasks []models.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("поврежденные данные задач: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func (r *TaskRepository) Save(tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return r.kv.Set(TasksKey, string(data))
}

// ThemeStore хранит выбранную тему под отдельным ключом
type ThemeStore struct {
	kv KeyValue
}

func NewThemeStore(kv KeyValue) *ThemeStore {
	return &ThemeStore{kv: kv}
}

// Load возвращает светлую тему, если ничего не сохранено
func (s *ThemeStore) Load() (models.Theme, error) {
	raw, ok, err := s.kv.Get(ThemeKey)
	if err != nil {
		return "", err
	}
	if !ok {
		return models.ThemeLight, nil
	}
	theme, err := models.ParseTheme(raw)
	if err != nil {
		return models.ThemeLight, nil
	}
	return theme, nil
}

func (s *ThemeStore) Save(theme models.Theme) error {
	return s.kv.Set(ThemeKey, string(theme))
}

// Toggle переключает тему и сохраняет результат
func (s *ThemeStore) Toggle() (models.Theme, error) {
	current, err := s.Load()
	if err != nil {
		return "", err
	}
	next := current.Toggle()
	if err := s.Save(next); err != nil {
		return "", err
	}
	return next, nil
}
