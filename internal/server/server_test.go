package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tasklist/internal/export"
	"tasklist/internal/manager"
	"tasklist/internal/models"
	"tasklist/internal/storage"
)

type recorder struct {
	messages []string
}

func (r *recorder) Notify(_ context.Context, message string) error {
	r.messages = append(r.messages, message)
	return nil
}

func newTestServer(t *testing.T) (http.Handler, *manager.TaskManager, *recorder) {
	t.Helper()
	kv := storage.NewMemoryStorage()
	tm, err := manager.NewTaskManager(storage.NewTaskRepository(kv))
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	return New(tm, storage.NewThemeStore(kv), rec).Router(), tm, rec
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAddTaskHandler(t *testing.T) {
	h, tm, rec := newTestServer(t)

	w := do(t, h, http.MethodPost, "/tasks", `{"title":"Отчет","priority":"high","category":"Work"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Код %d: %s", w.Code, w.Body.String())
	}

	var resp eventResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Event == nil || resp.Event.Kind != manager.EventHighPriorityAdded {
		t.Errorf("Неверный ответ: %+v", resp)
	}
	if len(rec.messages) != 1 {
		t.Errorf("Ожидалось одно уведомление, получено %v", rec.messages)
	}
	if len(tm.GetAllTasks()) != 1 {
		t.Error("Задача не добавлена")
	}
}

func TestAddTaskValidation(t *testing.T) {
	h, _, _ := newTestServer(t)

	if w := do(t, h, http.MethodPost, "/tasks", `{"title":"  "}`); w.Code != http.StatusBadRequest {
		t.Errorf("Пустое название: код %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/tasks", `{"title":"x","priority":"urgent"}`); w.Code != http.StatusBadRequest {
		t.Errorf("Неверный приоритет: код %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/tasks", `{`); w.Code != http.StatusBadRequest {
		t.Errorf("Неверный JSON: код %d", w.Code)
	}
}

func TestListTasksHandler(t *testing.T) {
	h, tm, _ := newTestServer(t)
	tm.AddTask(models.TaskInput{Title: "B", Priority: "low", Category: "Work"})
	tm.AddTask(models.TaskInput{Title: "A", Priority: "high", Category: "Work"})
	tm.AddTask(models.TaskInput{Title: "C", Priority: "medium", Category: "Personal"})
	tm.ToggleTaskCompletion(3)

	w := do(t, h, http.MethodGet, "/tasks?category=Work&sort=priority", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Код %d", w.Code)
	}
	var tasks []models.Task
	json.NewDecoder(w.Body).Decode(&tasks)
	if len(tasks) != 2 || tasks[0].Title != "A" || tasks[1].Title != "B" {
		t.Errorf("Получено %+v", tasks)
	}

	w = do(t, h, http.MethodGet, "/tasks?finished=true", "")
	tasks = nil
	json.NewDecoder(w.Body).Decode(&tasks)
	if len(tasks) != 1 || tasks[0].ID != 3 {
		t.Errorf("Выполненные: %+v", tasks)
	}

	if w := do(t, h, http.MethodGet, "/tasks?finished=maybe", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Неверный finished: код %d", w.Code)
	}
}

func TestTaskByIDHandlers(t *testing.T) {
	h, tm, rec := newTestServer(t)
	tm.AddTask(models.TaskInput{Title: "a", Priority: "high"})

	if w := do(t, h, http.MethodGet, "/tasks/1", ""); w.Code != http.StatusOK {
		t.Errorf("GET: код %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/tasks/9", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET неизвестного: код %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/tasks/abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("GET abc: код %d", w.Code)
	}
	if w := do(t, h, http.MethodPut, "/tasks/9", `{"title":"x"}`); w.Code != http.StatusNotFound {
		t.Errorf("PUT неизвестного: код %d", w.Code)
	}
	if w := do(t, h, http.MethodPut, "/tasks/1", `{"title":"b","priority":"low"}`); w.Code != http.StatusNoContent {
		t.Errorf("PUT: код %d", w.Code)
	}

	// Мутации неизвестных ID - no-op
	if w := do(t, h, http.MethodPost, "/tasks/9/toggle", ""); w.Code != http.StatusNoContent {
		t.Errorf("toggle неизвестного: код %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/tasks/9", ""); w.Code != http.StatusNoContent {
		t.Errorf("DELETE неизвестного: код %d", w.Code)
	}

	if w := do(t, h, http.MethodPost, "/tasks/1/toggle", ""); w.Code != http.StatusNoContent {
		t.Errorf("toggle: код %d", w.Code)
	}
	if task, _ := tm.GetTask(1); !task.Completed {
		t.Error("Задача должна быть выполнена")
	}

	w := do(t, h, http.MethodPost, "/tasks/clear-finished", "")
	if w.Code != http.StatusOK {
		t.Errorf("clear: код %d", w.Code)
	}
	if len(tm.GetAllTasks()) != 0 {
		t.Error("Выполненная задача должна быть удалена")
	}
	// Уведомления: добавление важной задачи не через HTTP, только очистка
	if len(rec.messages) != 1 {
		t.Errorf("Уведомления: %v", rec.messages)
	}
}

func TestExportHandler(t *testing.T) {
	h, tm, rec := newTestServer(t)
	tm.AddTask(models.TaskInput{Title: "a", Priority: "low"})

	w := do(t, h, http.MethodGet, "/export?format=json", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Код %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "tasks.json") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	tasks, err := export.ReadJSON(w.Body)
	if err != nil || len(tasks) != 1 {
		t.Errorf("Экспорт: %+v %v", tasks, err)
	}
	if len(rec.messages) != 1 {
		t.Errorf("Ожидалось уведомление об экспорте: %v", rec.messages)
	}

	if w := do(t, h, http.MethodGet, "/export?format=xml", ""); w.Code != http.StatusBadRequest {
		t.Errorf("xml: код %d", w.Code)
	}
}

func TestThemeHandlers(t *testing.T) {
	h, _, _ := newTestServer(t)

	w := do(t, h, http.MethodGet, "/theme", "")
	if !strings.Contains(w.Body.String(), `"light"`) {
		t.Errorf("Тема по умолчанию: %s", w.Body.String())
	}

	if w := do(t, h, http.MethodPut, "/theme", `{"theme":"dark"}`); w.Code != http.StatusOK {
		t.Errorf("PUT theme: код %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/theme", ""); !strings.Contains(w.Body.String(), `"dark"`) {
		t.Errorf("Тема после сохранения: %s", w.Body.String())
	}
	if w := do(t, h, http.MethodPut, "/theme", `{"theme":"blue"}`); w.Code != http.StatusBadRequest {
		t.Errorf("Неверная тема: код %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, tm, _ := newTestServer(t)
	tm.AddTask(models.TaskInput{Title: "a"})

	w := do(t, h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "todoapp_task_operations_total") {
		t.Errorf("Метрики недоступны: %d", w.Code)
	}
}
