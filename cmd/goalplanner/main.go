package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"goal-planner/internal/bot"
	"goal-planner/internal/config"
	"goal-planner/internal/generator"
	"goal-planner/internal/planner"
	"goal-planner/internal/repository"
	"goal-planner/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	contentGen, err := newContentGenerator(cfg)
	if err != nil {
		log.Fatalf("generator: %v", err)
	}

	composer := planner.NewComposer(contentGen, cfg.GeneratorTimeout)

	goalSvc := service.NewGoalService(goalRepo)
	plannerSvc := service.NewPlannerService(goalRepo, taskRepo, composer, cfg.PlannerMode)
	reportSvc := service.NewReportService(goalRepo, taskRepo)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, goalSvc, plannerSvc, reportSvc)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := cron.New(cron.WithLocation(time.Local))
	if cfg.ReportInterval > 0 {
		spec := fmt.Sprintf("@every %ds", int(cfg.ReportInterval.Seconds()))
		if _, err := scheduler.AddFunc(spec, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
		scheduler.Start()
		defer func() {
			<-scheduler.Stop().Done()
		}()
	}

	log.Printf("[info] goal planner started (mode=%s, generator=%v)", cfg.PlannerMode, cfg.GeneratorConfigured())
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}

// newContentGenerator picks the capability variant: a real client when an API
// key is configured, the disabled stand-in otherwise.
func newContentGenerator(cfg config.Config) (generator.ContentGenerator, error) {
	if !cfg.GeneratorConfigured() {
		log.Println("[info] no ANTHROPIC_API_KEY, task content will come from templates")
		return generator.Disabled{}, nil
	}
	return generator.NewAnthropicClient(cfg.AnthropicAPIKey, generator.WithTimeout(cfg.GeneratorTimeout))
}
