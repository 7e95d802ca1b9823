package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"tasklist/internal/config"
	"tasklist/internal/logger"
	"tasklist/internal/manager"
	"tasklist/internal/notify"
	"tasklist/internal/storage"
)

type Bot struct {
	api         *tgbotapi.BotAPI
	taskManager *manager.TaskManager
	// Чат для уведомлений, 0 - отвечать в чат отправителя
	notifyChatID int64
}

func NewBot(token string, tm *manager.TaskManager, notifyChatID int64) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	logger.Info(context.Background(), "Бот авторизован", "username", bot.Self.UserName)

	return &Bot{
		api:          bot,
		taskManager:  tm,
		notifyChatID: notifyChatID,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("ошибка получения updates: %w", err)
	}

	logger.Info(ctx, "Бот запущен и слушает сообщения...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}
	return nil
}

func (b *Bot) notifier(chatID int64) notify.Notifier {
	if b.notifyChatID != 0 {
		chatID = b.notifyChatID
	}
	return notify.TelegramNotifier{Bot: b.api, ChatID: chatID}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	ctx := context.Background()

	logger.Debug(ctx, "Получено сообщение",
		"user", msg.From.UserName,
		"text", msg.Text,
	)

	var (
		reply string
		ev    manager.Event
		err   error
	)
	if msg.IsCommand() {
		reply, ev, err = b.handleCommand(msg.Command(), msg.CommandArguments())
	} else if strings.TrimSpace(msg.Text) != "" {
		// Обычный текст - новая задача
		reply, ev, err = b.addTask(msg.Text)
	}

	if err != nil {
		logger.Error(ctx, err, "Ошибка обработки команды", "chat", msg.Chat.ID)
		reply = "❌ Ошибка: " + err.Error()
	}
	if reply != "" {
		b.sendMessage(msg.Chat.ID, reply)
	}
	if err := notify.Dispatch(ctx, b.notifier(msg.Chat.ID), ev); err != nil {
		logger.Error(ctx, err, "Ошибка отправки уведомления")
	}
}

func (b *Bot) handleCommand(command, args string) (string, manager.Event, error) {
	switch command {
	case "start", "help":
		return helpText, manager.Event{}, nil
	case "add":
		if strings.TrimSpace(args) == "" {
			return "Укажите задачу после команды: /add Купить молоко", manager.Event{}, nil
		}
		return b.addTask(args)
	case "list":
		return b.listTasks(args), manager.Event{}, nil
	case "done":
		return b.withID(args, "/done 1", b.completeTask)
	case "delete":
		return b.withID(args, "/delete 1", b.deleteTask)
	case "clear":
		ev, err := b.taskManager.ClearFinishedTasks()
		if err != nil {
			return "", manager.Event{}, err
		}
		return fmt.Sprintf("🧹 Удалено выполненных задач: %d", ev.Count), ev, nil
	default:
		return "Неизвестная команда. Используйте /help для списка команд.", manager.Event{}, nil
	}
}

func (b *Bot) withID(args, example string, fn func(int) (string, manager.Event, error)) (string, manager.Event, error) {
	if strings.TrimSpace(args) == "" {
		return "Укажите номер задачи: " + example, manager.Event{}, nil
	}
	taskID, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return "Номер задачи должен быть числом", manager.Event{}, nil
	}
	return fn(taskID)
}

func (b *Bot) addTask(text string) (string, manager.Event, error) {
	in := parseTaskText(text)
	ev, err := b.taskManager.AddTask(in)
	if err != nil {
		return "", manager.Event{}, err
	}

	response := fmt.Sprintf("✅ *Задача добавлена!*\n\nЗадача: %s\nКатегория: %s", in.Title, in.Category)
	if in.DueDate != "" {
		response += "\nСрок: " + in.DueDate
	}
	return response, ev, nil
}

func (b *Bot) listTasks(args string) string {
	q := manager.Query{SortBy: manager.SortByPriority}
	if strings.TrimSpace(args) == "done" {
		q.ShowFinished = true
	}
	tasks := b.taskManager.GetTasks(q)
	if len(tasks) == 0 {
		return "📭 Список задач пуст"
	}
	return formatTasks(tasks)
}

func (b *Bot) completeTask(id int) (string, manager.Event, error) {
	if _, ok := b.taskManager.GetTask(id); !ok {
		return fmt.Sprintf("Задача #%d не найдена", id), manager.Event{}, nil
	}
	ev, err := b.taskManager.ToggleTaskCompletion(id)
	if err != nil {
		return "", manager.Event{}, err
	}
	task, _ := b.taskManager.GetTask(id)
	if task.Completed {
		return fmt.Sprintf("✅ Задача #%d отмечена выполненной!", id), ev, nil
	}
	return fmt.Sprintf("↩️ Задача #%d снова активна", id), ev, nil
}

func (b *Bot) deleteTask(id int) (string, manager.Event, error) {
	if _, ok := b.taskManager.GetTask(id); !ok {
		return fmt.Sprintf("Задача #%d не найдена", id), manager.Event{}, nil
	}
	ev, err := b.taskManager.DeleteTask(id)
	if err != nil {
		return "", manager.Event{}, err
	}
	return fmt.Sprintf("🗑️ Задача #%d удалена!", id), ev, nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := b.api.Send(msg); err != nil {
		logger.Error(context.Background(), err, "Ошибка отправки сообщения", "chat", chatID)
	}
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load("")
	if err != nil {
		logger.Error(ctx, err, "Ошибка загрузки конфигурации")
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	logger.Info(ctx, "Запуск Telegram-бота...")

	if cfg.TelegramToken == "" {
		logger.Error(ctx, nil, "Не задан токен бота (TODO_TELEGRAM_TOKEN)")
		os.Exit(1)
	}

	if cfg.Storage.Driver == storage.DriverSQLite || cfg.Storage.Driver == storage.DriverSQLite3 {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DSN), 0755); err != nil {
			logger.Error(ctx, err, "Ошибка создания директории data")
			os.Exit(1)
		}
	}

	kv, err := storage.Open(cfg.Storage.Driver, cfg.Storage.StorageTarget())
	if err != nil {
		logger.Error(ctx, err, "Ошибка инициализации хранилища")
		os.Exit(1)
	}
	defer kv.Close()

	taskManager, err := manager.NewTaskManager(storage.NewTaskRepository(kv))
	if err != nil {
		logger.Error(ctx, err, "Ошибка загрузки задач")
		return
	}

	bot, err := NewBot(cfg.TelegramToken, taskManager, cfg.TelegramChatID)
	if err != nil {
		logger.Error(ctx, err, "Ошибка создания бота")
		return
	}

	logger.Info(ctx, "Бот успешно инициализирован")
	if err := bot.Start(ctx); err != nil {
		logger.Error(ctx, err, "Бот остановлен")
	}
}
