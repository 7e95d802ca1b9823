package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tasklist/internal/config"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Storage = config.Storage{Driver: "file", Dir: t.TempDir()}

	var out bytes.Buffer
	a, err := newApp(cfg, &out)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { a.kv.Close() })
	return a, &out
}

func TestAddListComplete(t *testing.T) {
	a, out := newTestApp(t)

	if err := a.handleAddCommand([]string{"--title", "Отчет", "--priority", "high", "--category", "Work", "--due", "2024-05-01"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Added task with ID 1") || !strings.Contains(out.String(), "🔔") {
		t.Errorf("Вывод add: %q", out.String())
	}

	out.Reset()
	if err := a.handleListCommand([]string{"--category", "Work"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1: Отчет [Pending] (high, Work) due 2024-05-01") {
		t.Errorf("Вывод list: %q", out.String())
	}

	out.Reset()
	if err := a.handleCompleteCommand([]string{"--id", "1"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "marked as completed") {
		t.Errorf("Вывод complete: %q", out.String())
	}

	out.Reset()
	a.handleListCommand(nil)
	if !strings.Contains(out.String(), "No tasks found") {
		t.Errorf("Активных задач быть не должно: %q", out.String())
	}
}

func TestAddEmptyTitleFails(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.handleAddCommand([]string{"--title", "  "}); err == nil {
		t.Error("Ожидалась ошибка для пустого названия")
	}
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	a, _ := newTestApp(t)
	a.handleAddCommand([]string{"--title", "a", "--desc", "описание", "--category", "Work"})

	if err := a.handleUpdateCommand([]string{"--id", "1", "--title", "b"}); err != nil {
		t.Fatal(err)
	}
	task, _ := a.tm.GetTask(1)
	if task.Title != "b" || task.Description != "описание" || task.Category != "Work" {
		t.Errorf("После обновления %+v", task)
	}
}

func TestExportAndLoad(t *testing.T) {
	a, _ := newTestApp(t)
	a.handleAddCommand([]string{"--title", "a"})
	a.handleAddCommand([]string{"--title", "b", "--priority", "low"})

	file := filepath.Join(t.TempDir(), "tasks.csv")
	if err := a.handleExportCommand([]string{"--format", "csv", "--out", file}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatal(err)
	}

	other, out := newTestApp(t)
	if err := other.handleLoadCommand([]string{"--file", file}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Loaded 2 tasks") {
		t.Errorf("Вывод load: %q", out.String())
	}
	if len(other.tm.GetAllTasks()) != 2 {
		t.Error("Ожидалось 2 задачи после загрузки")
	}
}

func TestThemeCommand(t *testing.T) {
	a, out := newTestApp(t)

	a.handleThemeCommand(nil)
	if strings.TrimSpace(out.String()) != "light" {
		t.Errorf("Тема по умолчанию: %q", out.String())
	}

	out.Reset()
	if err := a.handleThemeCommand([]string{"toggle"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "dark") {
		t.Errorf("После переключения: %q", out.String())
	}

	if err := a.handleThemeCommand([]string{"blue"}); err == nil {
		t.Error("Ожидалась ошибка для неизвестной темы")
	}
}
