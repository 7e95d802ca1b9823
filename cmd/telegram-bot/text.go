package main

import (
	"fmt"
	"strings"

	"tasklist/internal/models"
)

const defaultCategory = "Personal"

const helpText = `🤖 *Помощь по командам*

*/add [задача]* - Добавить новую задачу
*/list* - Показать активные задачи (*/list done* - выполненные)
*/done [номер]* - Отметить задачу выполненной (или вернуть в активные)
*/delete [номер]* - Удалить задачу
*/clear* - Удалить все выполненные задачи
*/help* - Показать эту справку

*Разметка задачи:*
#Категория, !high / !medium / !low, срок 2024-05-01

*Примеры:*
/add Купить молоко #Personal !low
/add Подготовить отчет #Work !high 2024-05-01
/done 1`

// parseTaskText разбирает текст вида "Отчет #Work !high 2024-05-01"
func parseTaskText(text string) models.TaskInput {
	in := models.TaskInput{Category: defaultCategory}

	var words []string
	for _, word := range strings.Fields(text) {
		switch {
		case strings.HasPrefix(word, "#") && len(word) > 1:
			in.Category = strings.TrimPrefix(word, "#")
		case strings.HasPrefix(word, "!") && len(word) > 1:
			in.Priority = strings.TrimPrefix(word, "!")
		case models.ValidateDueDate(word) == nil && in.DueDate == "":
			in.DueDate = word
		default:
			words = append(words, word)
		}
	}

	in.Title = strings.Join(words, " ")
	return in
}

func formatTasks(tasks []models.Task) string {
	var response strings.Builder
	response.WriteString("📋 *Ваши задачи:*\n\n")

	for _, task := range tasks {
		status := "🟢"
		if task.Completed {
			status = "✅"
		}

		// Эмодзи приоритета
		priorityEmoji := "⚪"
		switch task.Priority {
		case models.PriorityLow:
			priorityEmoji = "🔵"
		case models.PriorityMedium:
			priorityEmoji = "🟡"
		case models.PriorityHigh:
			priorityEmoji = "🔴"
		}

		response.WriteString(fmt.Sprintf("%s%s #%d: %s [%s]", status, priorityEmoji, task.ID, task.Title, task.Category))
		if task.HasDueDate() {
			response.WriteString(" 📅 " + task.DueDate)
		}
		response.WriteString("\n\n")
	}

	return response.String()
}
