package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tasklist/internal/logger"
	"tasklist/internal/storage"
)

// Копирует задачи и тему из одного хранилища в другое,
// например из каталога JSON-файлов в SQLite или PostgreSQL.
func main() {
	fromDriver := flag.String("from-driver", "file", "Source driver (memory|file|sqlite|sqlite3|postgres|mysql)")
	from := flag.String("from", "./data", "Source directory or DSN")
	toDriver := flag.String("to-driver", storage.DriverSQLite, "Target driver")
	to := flag.String("to", "./data/todoapp.db", "Target directory or DSN")
	flag.Parse()

	ctx := context.Background()
	if err := run(ctx, *fromDriver, *from, *toDriver, *to); err != nil {
		logger.Error(ctx, err, "❌ Ошибка копирования")
		os.Exit(1)
	}
	logger.Info(ctx, "🎉 Копирование завершено успешно!")
}

func run(ctx context.Context, fromDriver, from, toDriver, to string) error {
	src, err := storage.Open(fromDriver, from)
	if err != nil {
		return fmt.Errorf("источник: %w", err)
	}
	defer src.Close()

	dst, err := storage.Open(toDriver, to)
	if err != nil {
		return fmt.Errorf("назначение: %w", err)
	}
	defer dst.Close()

	return copyStorage(ctx, src, dst)
}

func copyStorage(ctx context.Context, src, dst storage.KeyValue) error {
	// Через репозиторий, чтобы не перенести поврежденные данные
	tasks, err := storage.NewTaskRepository(src).Load()
	if err != nil {
		return err
	}
	if err := storage.NewTaskRepository(dst).Save(tasks); err != nil {
		return err
	}
	logger.Info(ctx, "✅ Задачи скопированы", "count", len(tasks))

	theme, err := storage.NewThemeStore(src).Load()
	if err != nil {
		return err
	}
	if err := storage.NewThemeStore(dst).Save(theme); err != nil {
		return err
	}
	logger.Info(ctx, "✅ Тема скопирована", "theme", theme)
	return nil
}
