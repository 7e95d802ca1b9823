package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"

	"tasklist/internal/logger"
	"tasklist/internal/manager"
)

// Notifier показывает пользователю короткое уведомление
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Dispatch отправляет уведомления для всех событий, о которых нужно сообщить
func Dispatch(ctx context.Context, n Notifier, events ...manager.Event) error {
	var errs []error
	for _, ev := range events {
		if !ev.ShouldNotify() {
			continue
		}
		if err := n.Notify(ctx, ev.Message()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier пишет уведомления в лог
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, message string) error {
	logger.Info(ctx, "Уведомление", "message", message)
	return nil
}

// WriterNotifier выводит уведомления, например в stdout CLI
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Notify(_ context.Context, message string) error {
	_, err := fmt.Fprintf(n.W, "🔔 %s\n", message)
	return err
}

// Sender - часть tgbotapi.BotAPI, нужная для отправки
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier отправляет уведомления в чат Telegram
type TelegramNotifier struct {
	Bot    Sender
	ChatID int64
}

func (n TelegramNotifier) Notify(ctx context.Context, message string) error {
	msg := tgbotapi.NewMessage(n.ChatID, message)
	if _, err := n.Bot.Send(msg); err != nil {
		logger.Error(ctx, err, "Ошибка отправки уведомления", "chat", n.ChatID)
		return err
	}
	return nil
}
