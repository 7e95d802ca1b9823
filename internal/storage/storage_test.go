package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"tasklist/internal/models"
)

func backends(t *testing.T) map[string]KeyValue {
	t.Helper()

	dir := t.TempDir()
	file, err := NewFileStorage(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	db, err := NewSQLStorage(DriverSQLite, filepath.Join(dir, "todoapp.db"))
	if err != nil {
		t.Fatalf("NewSQLStorage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]KeyValue{
		"memory": NewMemoryStorage(),
		"file":   file,
		"sqlite": db,
	}
}

func TestKeyValue(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get("missing"); err != nil || ok {
				t.Fatalf("Get отсутствующего ключа: ok=%v err=%v", ok, err)
			}

			if err := kv.Set("tasks", "[1]"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := kv.Set("tasks", "[2]"); err != nil {
				t.Fatalf("повторный Set: %v", err)
			}

			v, ok, err := kv.Get("tasks")
			if err != nil || !ok || v != "[2]" {
				t.Errorf("Get = %q, %v, %v", v, ok, err)
			}
		})
	}
}

func TestTaskRepository(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Title: "Купить молоко", Priority: models.PriorityLow, Category: "Personal"},
		{ID: 5, Title: "Отчет", Description: "квартальный", Priority: models.PriorityHigh, Category: "Work", DueDate: "2024-05-01", Completed: true},
	}

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := NewTaskRepository(kv)

			empty, err := repo.Load()
			if err != nil {
				t.Fatalf("Load пустого хранилища: %v", err)
			}
			if empty == nil || len(empty) != 0 {
				t.Errorf("Ожидалась пустая коллекция, получено %v", empty)
			}

			if err := repo.Save(tasks); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := repo.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, tasks) {
				t.Errorf("Load = %+v, ожидалось %+v", got, tasks)
			}
		})
	}
}

func TestTaskRepositoryCorrupted(t *testing.T) {
	kv := NewMemoryStorage()
	kv.Set(TasksKey, "{not json")
	if _, err := NewTaskRepository(kv).Load(); err == nil {
		t.Error("Ожидалась ошибка для поврежденных данных")
	}
}

func TestThemeStore(t *testing.T) {
	kv := NewMemoryStorage()
	themes := NewThemeStore(kv)

	theme, err := themes.Load()
	if err != nil || theme != models.ThemeLight {
		t.Fatalf("Тема по умолчанию = %q, %v", theme, err)
	}

	theme, err = themes.Toggle()
	if err != nil || theme != models.ThemeDark {
		t.Fatalf("Toggle = %q, %v", theme, err)
	}
	if raw, _, _ := kv.Get(ThemeKey); raw != "dark" {
		t.Errorf("Сохранено %q, ожидалось dark", raw)
	}

	// Тема не затрагивает задачи
	if _, ok, _ := kv.Get(TasksKey); ok {
		t.Error("Ключ tasks не должен появляться")
	}
}

func TestFileStorageRejectsBadKey(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Set("../escape", "x"); err == nil {
		t.Error("Ожидалась ошибка для ключа с путем")
	}
}

func TestFileStorageLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Set(TasksKey, "[]"); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "tasks.json" {
		t.Errorf("Неожиданные файлы в каталоге: %v", entries)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open("redis", ""); err == nil {
		t.Error("Ожидалась ошибка для неизвестного драйвера")
	}
	if _, err := Open(DriverPostgres, ""); err == nil {
		t.Error("Ожидалась ошибка без строки подключения")
	}

	kv, err := Open("memory", "")
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	if _, ok := kv.(*MemoryStorage); !ok {
		t.Errorf("Ожидалось MemoryStorage, получено %T", kv)
	}
}
