package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tasklist/internal/config"
	"tasklist/internal/export"
	"tasklist/internal/logger"
	"tasklist/internal/manager"
	"tasklist/internal/models"
	"tasklist/internal/notify"
	"tasklist/internal/server"
	"tasklist/internal/storage"
)

type app struct {
	cfg      *config.Config
	kv       storage.KeyValue
	tm       *manager.TaskManager
	themes   *storage.ThemeStore
	notifier notify.Notifier
	out      io.Writer
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "-h" || command == "--help" {
		printHelp()
		return
	}
	if command == "config" {
		exitOnError(handleConfigCommand(os.Args[2:]))
		return
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	a, err := newApp(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tasks: %v\n", err)
		os.Exit(1)
	}
	defer a.kv.Close()

	args := os.Args[2:]
	switch command {
	case "add":
		err = a.handleAddCommand(args)
	case "update":
		err = a.handleUpdateCommand(args)
	case "list":
		err = a.handleListCommand(args)
	case "complete":
		err = a.handleCompleteCommand(args)
	case "delete":
		err = a.handleDeleteCommand(args)
	case "clear":
		err = a.handleClearCommand()
	case "export":
		err = a.handleExportCommand(args)
	case "load":
		err = a.handleLoadCommand(args)
	case "theme":
		err = a.handleThemeCommand(args)
	case "serve":
		err = a.handleServeCommand(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}
	exitOnError(err)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	if cfg.Storage.Driver == storage.DriverSQLite || cfg.Storage.Driver == storage.DriverSQLite3 {
		// Создаем директорию для файла БД
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.DSN), 0755); err != nil {
			return nil, err
		}
	}

	kv, err := storage.Open(cfg.Storage.Driver, cfg.Storage.StorageTarget())
	if err != nil {
		return nil, err
	}

	tm, err := manager.NewTaskManager(storage.NewTaskRepository(kv))
	if err != nil {
		kv.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		kv:       kv,
		tm:       tm,
		themes:   storage.NewThemeStore(kv),
		notifier: notify.WriterNotifier{W: out},
		out:      out,
	}, nil
}

func (a *app) notify(ev manager.Event) {
	if err := notify.Dispatch(context.Background(), a.notifier, ev); err != nil {
		logger.Error(context.Background(), err, "Ошибка уведомления")
	}
}

// taskFlags - общие флаги add и update
func taskFlags(fs *flag.FlagSet) *models.TaskInput {
	in := &models.TaskInput{}
	fs.StringVar(&in.Title, "title", "", "Task title")
	fs.StringVar(&in.Description, "desc", "", "Task description")
	fs.StringVar(&in.Priority, "priority", "medium", "Priority (high|medium|low)")
	fs.StringVar(&in.Category, "category", "Personal", "Category (Personal, Work, Urgent, ...)")
	fs.StringVar(&in.DueDate, "due", "", "Due date YYYY-MM-DD")
	return in
}

func (a *app) handleAddCommand(args []string) error {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	in := taskFlags(addCmd)
	addCmd.Parse(args)

	ev, err := a.tm.AddTask(*in)
	if err != nil {
		return fmt.Errorf("adding task: %w", err)
	}

	tasks := a.tm.GetAllTasks()
	fmt.Fprintf(a.out, "Added task with ID %d\n", tasks[len(tasks)-1].ID)
	a.notify(ev)
	return nil
}

func (a *app) handleUpdateCommand(args []string) error {
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	id := updateCmd.Int("id", 0, "Task ID to update")
	in := taskFlags(updateCmd)
	updateCmd.Parse(args)

	if *id == 0 {
		return errors.New("--id is required")
	}

	// Незаданные флаги берем из текущей задачи
	current, ok := a.tm.GetTask(*id)
	if !ok {
		fmt.Fprintf(a.out, "Task %d not found\n", *id)
		return nil
	}
	set := map[string]bool{}
	updateCmd.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["title"] {
		in.Title = current.Title
	}
	if !set["desc"] {
		in.Description = current.Description
	}
	if !set["priority"] {
		in.Priority = string(current.Priority)
	}
	if !set["category"] {
		in.Category = current.Category
	}
	if !set["due"] {
		in.DueDate = current.DueDate
	}

	ev, _, err := a.tm.UpdateTask(*id, *in)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	fmt.Fprintf(a.out, "Task %d updated\n", *id)
	a.notify(ev)
	return nil
}

func (a *app) handleListCommand(args []string) error {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	finished := listCmd.Bool("finished", false, "Show finished tasks instead of active")
	categories := listCmd.String("category", "", "Comma-separated list of categories")
	search := listCmd.String("search", "", "Search in title, description and due date")
	sortBy := listCmd.String("sort", "priority", "Sort by (priority|due-date|title)")
	listCmd.Parse(args)

	q := manager.Query{
		Search:       *search,
		ShowFinished: *finished,
		SortBy:       manager.SortKey(*sortBy),
	}
	if *categories != "" {
		for _, c := range strings.Split(*categories, ",") {
			q.Categories = append(q.Categories, strings.TrimSpace(c))
		}
	}

	tasks := a.tm.GetTasks(q)
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return nil
	}

	for _, task := range tasks {
		status := "Pending"
		if task.Completed {
			status = "Completed"
		}
		line := fmt.Sprintf("%d: %s [%s] (%s, %s)", task.ID, task.Title, status, task.Priority, task.Category)
		if task.HasDueDate() {
			line += " due " + task.DueDate
		}
		fmt.Fprintln(a.out, line)
		if task.Description != "" {
			fmt.Fprintf(a.out, "    %s\n", task.Description)
		}
	}
	return nil
}

func (a *app) handleCompleteCommand(args []string) error {
	completeCmd := flag.NewFlagSet("complete", flag.ExitOnError)
	id := completeCmd.Int("id", 0, "Task ID to toggle")
	completeCmd.Parse(args)

	if *id == 0 {
		return errors.New("--id is required")
	}

	ev, err := a.tm.ToggleTaskCompletion(*id)
	if err != nil {
		return fmt.Errorf("toggling task: %w", err)
	}

	task, ok := a.tm.GetTask(*id)
	if !ok {
		fmt.Fprintf(a.out, "Task %d not found\n", *id)
		return nil
	}
	if task.Completed {
		fmt.Fprintf(a.out, "Task %d marked as completed\n", *id)
	} else {
		fmt.Fprintf(a.out, "Task %d marked as active\n", *id)
	}
	a.notify(ev)
	return nil
}

func (a *app) handleDeleteCommand(args []string) error {
	deleteCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	id := deleteCmd.Int("id", 0, "Task ID to delete")
	deleteCmd.Parse(args)

	if *id == 0 {
		return errors.New("--id is required")
	}

	ev, err := a.tm.DeleteTask(*id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	fmt.Fprintf(a.out, "Task %d deleted\n", *id)
	a.notify(ev)
	return nil
}

func (a *app) handleClearCommand() error {
	ev, err := a.tm.ClearFinishedTasks()
	if err != nil {
		return fmt.Errorf("clearing finished tasks: %w", err)
	}
	a.notify(ev)
	return nil
}

func (a *app) handleExportCommand(args []string) error {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	formatName := exportCmd.String("format", "json", "Export format (json|csv|pdf)")
	outFile := exportCmd.String("out", "", "Output file path (default tasks.<format>)")
	exportCmd.Parse(args)

	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	if *outFile == "" {
		*outFile = format.FileName()
	}

	f, err := os.Create(*outFile)
	if err != nil {
		return err
	}
	defer f.Close()

	ev, err := a.tm.ExportTasks(f, format)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Tasks exported to %s in %s format\n", *outFile, format)
	a.notify(ev)
	return nil
}

func (a *app) handleLoadCommand(args []string) error {
	loadCmd := flag.NewFlagSet("load", flag.ExitOnError)
	file := loadCmd.String("file", "", "File to load tasks from (.json or .csv)")
	loadCmd.Parse(args)

	if *file == "" {
		return errors.New("--file is required")
	}

	format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(*file), "."))
	if err != nil {
		return errors.New("unsupported file format, use .json or .csv")
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	tasks, err := export.Read(f, format)
	if err != nil {
		return err
	}

	ev, err := a.tm.ImportTasks(tasks)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	fmt.Fprintf(a.out, "Loaded %d tasks from %s\n", len(tasks), *file)
	a.notify(ev)
	return nil
}

func (a *app) handleThemeCommand(args []string) error {
	if len(args) == 0 {
		theme, err := a.themes.Load()
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, theme)
		return nil
	}

	var (
		theme models.Theme
		err   error
	)
	if args[0] == "toggle" {
		theme, err = a.themes.Toggle()
	} else {
		theme, err = models.ParseTheme(args[0])
		if err == nil {
			err = a.themes.Save(theme)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Theme set to %s\n", theme)
	return nil
}

func (a *app) handleServeCommand(args []string) error {
	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := serveCmd.String("addr", a.cfg.HTTPAddr, "HTTP listen address")
	serveCmd.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.New(a.tm, a.themes, notify.LogNotifier{}).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "HTTP сервер запущен", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info(context.Background(), "HTTP сервер остановлен")
	return nil
}

func handleConfigCommand(args []string) error {
	configCmd := flag.NewFlagSet("config", flag.ExitOnError)
	path := configCmd.String("path", "", "Config file path (default ~/.config/todo-app/config.json)")
	configCmd.Parse(args)

	if *path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		*path = p
	}

	if err := config.Save(*path, config.Default()); err != nil {
		return err
	}
	fmt.Printf("Default config written to %s\n", *path)
	return nil
}

func printHelp() {
	fmt.Println(`Usage: todo-app <command> [flags]

Commands:
  add      --title="..." [--desc=...] [--priority=high|medium|low] [--category=...] [--due=YYYY-MM-DD]
  update   --id=ID [same flags as add]            Update task (unset flags keep current values)
  list     [--finished] [--category=a,b] [--search=...] [--sort=priority|due-date|title]
  complete --id=ID                                Toggle task completion
  delete   --id=ID                                Delete task
  clear                                           Delete all finished tasks
  export   [--format=json|csv|pdf] [--out=FILE]   Export all tasks
  load     --file=FILE                            Replace tasks with a .json or .csv export
  theme    [light|dark|toggle]                    Show or set the theme
  serve    [--addr=:8080]                         Run the HTTP API
  config   [--path=FILE]                          Write default config

Storage:
  Configured in ~/.config/todo-app/config.json, .env or TODO_* environment variables.
  By default tasks are kept in SQLite at ./data/todoapp.db.`)
}
