package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"goal-planner/internal/model"
	"goal-planner/internal/repository"
	"goal-planner/internal/timeutil"
)

// ReportService builds human-readable summaries for daily notifications.
type ReportService struct {
	goalRepo *repository.GoalRepository
	taskRepo *repository.TaskRepository
}

func NewReportService(goalRepo *repository.GoalRepository, taskRepo *repository.TaskRepository) *ReportService {
	return &ReportService{goalRepo: goalRepo, taskRepo: taskRepo}
}

// DailySummary renders the user's goals with today's task batches.
func (s *ReportService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	goals, err := s.goalRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("🎯 <b>Ежедневный отчёт по целям</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	if len(goals) == 0 {
		builder.WriteString("Пока нет ни одной цели. Набери /newgoal, чтобы создать первую.")
		return builder.String(), nil
	}

	today := timeutil.StartOfDay(now)
	for _, goal := range goals {
		tasks, err := s.taskRepo.ListByGoalOnDate(ctx, goal.ID, today)
		if err != nil {
			return "", err
		}
		builder.WriteString(formatGoal(goal, tasks, now))
		builder.WriteByte('\n')
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatGoal(goal model.Goal, tasks []model.Task, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🎯 <b>%s</b> — %d%%\n", html.EscapeString(strings.TrimSpace(goal.Title)), goal.Progress))

	daysLeft := timeutil.DaysBetween(now, goal.Deadline)
	switch {
	case daysLeft < 0:
		sb.WriteString(fmt.Sprintf("   ⚠️ дедлайн %s — <b>просрочен</b>\n", goal.Deadline.Format("2006-01-02")))
	case daysLeft <= 7:
		sb.WriteString(fmt.Sprintf("   ⏳ до дедлайна осталось %d дн.\n", daysLeft))
	default:
		sb.WriteString(fmt.Sprintf("   📆 дедлайн %s · осталось %d дн.\n", goal.Deadline.Format("2006-01-02"), daysLeft))
	}

	if len(tasks) == 0 {
		sb.WriteString("   — задачи на сегодня ещё не сгенерированы (/today)\n")
		return sb.String()
	}

	done := 0
	for _, task := range tasks {
		sb.WriteString(fmt.Sprintf("   %s %s%s\n", statusIcon(task.Status),
			html.EscapeString(strings.TrimSpace(task.Title)), difficultyMark(task.Difficulty)))
		if task.Completed() {
			done++
		}
	}
	sb.WriteString(fmt.Sprintf("   Выполнено: %d из %d\n", done, len(tasks)))

	return sb.String()
}

func statusIcon(status model.TaskStatus) string {
	switch status {
	case model.StatusCompleted:
		return "✅"
	case model.StatusSkipped:
		return "⏭️"
	default:
		return "🟢"
	}
}

func difficultyMark(difficulty int) string {
	if difficulty <= 0 {
		return ""
	}
	return " " + strings.Repeat("▪️", difficulty)
}
