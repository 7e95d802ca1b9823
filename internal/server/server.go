package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tasklist/internal/export"
	"tasklist/internal/logger"
	"tasklist/internal/manager"
	"tasklist/internal/models"
	"tasklist/internal/notify"
	"tasklist/internal/storage"
)

type Server struct {
	tm       *manager.TaskManager
	themes   *storage.ThemeStore
	notifier notify.Notifier
}

func New(tm *manager.TaskManager, themes *storage.ThemeStore, n notify.Notifier) *Server {
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &Server{tm: tm, themes: themes, notifier: n}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.listTasks)
		r.Post("/", s.addTask)
		r.Post("/clear-finished", s.clearFinished)
		r.Get("/{id}", s.getTask)
		r.Put("/{id}", s.updateTask)
		r.Delete("/{id}", s.deleteTask)
		r.Post("/{id}/toggle", s.toggleTask)
	})
	r.Get("/export", s.exportTasks)
	r.Get("/theme", s.getTheme)
	r.Put("/theme", s.setTheme)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Ответ на мутирующие запросы
type eventResponse struct {
	Event        *manager.Event `json:"event,omitempty"`
	Notification string         `json:"notification,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, map[string]string{"error": msg})
}

// respondWithEvent уведомляет и возвращает событие. Пустое событие - 204.
func (s *Server) respondWithEvent(w http.ResponseWriter, r *http.Request, code int, ev manager.Event) {
	if err := notify.Dispatch(r.Context(), s.notifier, ev); err != nil {
		logger.Error(r.Context(), err, "Ошибка отправки уведомления")
	}
	if !ev.ShouldNotify() {
		if code == http.StatusNoContent || code == http.StatusOK {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		respondWithJSON(w, code, eventResponse{})
		return
	}
	respondWithJSON(w, code, eventResponse{Event: &ev, Notification: ev.Message()})
}

func (s *Server) handleMutationError(w http.ResponseWriter, r *http.Request, err error) {
	if isValidationError(err) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Error(r.Context(), err, "Ошибка операции с задачами")
	respondWithError(w, http.StatusInternalServerError, "ошибка сохранения задач")
}

func isValidationError(err error) bool {
	return errors.Is(err, models.ErrEmptyTitle) ||
		errors.Is(err, models.ErrInvalidPriority) ||
		errors.Is(err, models.ErrInvalidDueDate)
}

func parseID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, fmt.Errorf("неверный ID задачи")
	}
	return id, nil
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := manager.Query{
		Categories: values["category"],
		Search:     values.Get("q"),
		SortBy:     manager.SortKey(values.Get("sort")),
	}
	if f := values.Get("finished"); f != "" {
		finished, err := strconv.ParseBool(f)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "параметр finished должен быть true или false")
			return
		}
		q.ShowFinished = finished
	}

	respondWithJSON(w, http.StatusOK, s.tm.GetTasks(q))
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, ok := s.tm.GetTask(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("задача с ID %d не найдена", id))
		return
	}
	respondWithJSON(w, http.StatusOK, task)
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "неверный JSON")
		return
	}
	defer r.Body.Close()

	ev, err := s.tm.AddTask(req)
	if err != nil {
		s.handleMutationError(w, r, err)
		return
	}
	s.respondWithEvent(w, r, http.StatusCreated, ev)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "неверный JSON")
		return
	}
	defer r.Body.Close()

	ev, ok, err := s.tm.UpdateTask(id, req)
	if err != nil {
		s.handleMutationError(w, r, err)
		return
	}
	if !ok {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("задача с ID %d не найдена", id))
		return
	}
	s.respondWithEvent(w, r, http.StatusOK, ev)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := s.tm.DeleteTask(id)
	if err != nil {
		s.handleMutationError(w, r, err)
		return
	}
	s.respondWithEvent(w, r, http.StatusOK, ev)
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := s.tm.ToggleTaskCompletion(id)
	if err != nil {
		s.handleMutationError(w, r, err)
		return
	}
	s.respondWithEvent(w, r, http.StatusOK, ev)
}

func (s *Server) clearFinished(w http.ResponseWriter, r *http.Request) {
	ev, err := s.tm.ClearFinishedTasks()
	if err != nil {
		s.handleMutationError(w, r, err)
		return
	}
	s.respondWithEvent(w, r, http.StatusOK, ev)
}

func (s *Server) exportTasks(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	ev, err := s.tm.ExportTasks(w, format)
	if err != nil {
		// Заголовки уже могли уйти клиенту
		logger.Error(r.Context(), err, "Ошибка экспорта")
		return
	}
	if err := notify.Dispatch(r.Context(), s.notifier, ev); err != nil {
		logger.Error(r.Context(), err, "Ошибка отправки уведомления")
	}
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.themes.Load()
	if err != nil {
		logger.Error(r.Context(), err, "Ошибка чтения темы")
		respondWithError(w, http.StatusInternalServerError, "ошибка чтения темы")
		return
	}
	respondWithJSON(w, http.StatusOK, themeRequest{Theme: string(theme)})
}

func (s *Server) setTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "неверный JSON")
		return
	}
	defer r.Body.Close()

	theme, err := models.ParseTheme(req.Theme)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.themes.Save(theme); err != nil {
		logger.Error(r.Context(), err, "Ошибка сохранения темы")
		respondWithError(w, http.StatusInternalServerError, "ошибка сохранения темы")
		return
	}
	respondWithJSON(w, http.StatusOK, themeRequest{Theme: string(theme)})
}
