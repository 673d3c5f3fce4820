package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/notify"
	taskmem "taskManager/internal/repository/task/inmemory"
	taskpg "taskManager/internal/repository/task/postgres"
	usermem "taskManager/internal/repository/user/inmemory"
	userpg "taskManager/internal/repository/user/postgres"
	"taskManager/internal/service"
	"taskManager/internal/worker"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	service   *service.TaskService
	worker    *worker.SweepWorker
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	// хранилища
	var taskRepo service.TaskRepository
	var userRepo service.UserRepository

	switch a.config.Repository.Type {
	case "postgres":
		pg, err := taskpg.New(ctx, a.config.Database.URL)
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("применение миграций: %w", err)
		}
		a.shutdowns = append(a.shutdowns, pg.Close)

		taskRepo = pg
		userRepo = userpg.New(pg.Pool())
	default:
		taskRepo = taskmem.NewTaskStorage()
		userRepo = usermem.NewUserStorage()
	}

	if err := userRepo.Seed(ctx); err != nil {
		return fmt.Errorf("добавление стартовых пользователей: %w", err)
	}

	// шлюз уведомлений
	var sender notify.Sender = notify.Noop{}
	if a.config.Email.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("загрузка конфигурации AWS: %w", err)
		}
		sender, err = notify.NewSESSender(awsCfg)
		if err != nil {
			return fmt.Errorf("создание SES-отправителя: %w", err)
		}
	}

	svc := service.NewTaskService(taskRepo, userRepo, sender)
	a.service = &svc
	a.worker = worker.NewSweepWorker(taskRepo, a.service,
		&a.config.Sweeper.Interval, &a.config.Sweeper.BatchSize)

	a.router = a.buildRouter()
	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router,
	}

	return nil
}

func (a *App) buildRouter() *chi.Mux {
	taskHandler := handlers.NewTaskHandler(a.service)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{a.config.CORS.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.GetTasks)  // GET /tasks
		r.Post("/", taskHandler.PostTask) // POST /tasks

		r.Route("/{title}", func(r chi.Router) {
			r.Put("/", taskHandler.UpdateTask)        // PUT /tasks/{title}
			r.Patch("/", taskHandler.PatchTaskStatus) // PATCH /tasks/{title}
			r.Delete("/", taskHandler.DeleteTask)     // DELETE /tasks/{title}
		})
	})

	r.Get("/health", taskHandler.HealthCheck)
	return r
}

// Run запускает фоновую сверку и HTTP-сервер; блокируется до отмены ctx
func (a *App) Run(ctx context.Context) error {
	go a.worker.Start(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Ошибка остановки сервера", err)
		}
	}()

	logger.Info("Server started")
	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("запуск сервера: %w", err)
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	return nil
}
