package models

import (
	"errors"
	"strings"
	"time"
)

// Priority - приоритет задачи
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DueDateLayout - формат даты выполнения (ISO, без времени)
const DueDateLayout = "2006-01-02"

var (
	ErrEmptyTitle      = errors.New("название задачи не может быть пустым")
	ErrInvalidPriority = errors.New("неизвестный приоритет задачи")
	ErrInvalidDueDate  = errors.New("дата выполнения должна быть в формате ГГГГ-ММ-ДД")
	ErrInvalidID       = errors.New("ID задачи должен быть положительным")
)

// ParsePriority приводит строку к Priority. Пустая строка - medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", ErrInvalidPriority
	}
}

// Rank используется при сортировке: high < medium < low
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Task - одна задача списка. Порядок полей совпадает с порядком в JSON.
type Task struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	DueDate     string   `json:"dueDate,omitempty"`
	Completed   bool     `json:"completed"`
}

func (t *Task) ToggleComplete() {
	t.Completed = !t.Completed
}

// HasDueDate - задан ли срок
func (t Task) HasDueDate() bool {
	return t.DueDate != ""
}

// TaskInput - данные формы создания/редактирования задачи
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate,omitempty"`
}

// Normalize проверяет ввод и возвращает значения полей задачи.
// Название сохраняется как есть, пустым считается название из одних пробелов.
func (in TaskInput) Normalize() (Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Task{}, ErrEmptyTitle
	}

	priority, err := ParsePriority(in.Priority)
	if err != nil {
		return Task{}, err
	}

	dueDate := strings.TrimSpace(in.DueDate)
	if err := ValidateDueDate(dueDate); err != nil {
		return Task{}, err
	}

	return Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Category:    strings.TrimSpace(in.Category),
		DueDate:     dueDate,
	}, nil
}

// ValidateDueDate допускает пустую строку (срок не задан)
func ValidateDueDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DueDateLayout, s); err != nil {
		return ErrInvalidDueDate
	}
	return nil
}

// Validate проверяет уже существующую запись (например, при импорте)
func (t Task) Validate() error {
	if t.ID <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return ValidateDueDate(t.DueDate)
}
