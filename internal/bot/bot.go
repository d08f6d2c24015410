package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"goal-planner/internal/model"
	"goal-planner/internal/repository"
	"goal-planner/internal/service"
	"goal-planner/internal/timeutil"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageGoalTitle
	stageGoalDescription
	stageGoalDeadline
)

const (
	cbDonePrefix = "done:"
	cbSkipPrefix = "skip:"
)

const (
	btnSkipStep        = "⏭️ Пропустить"
	btnCancelDialog    = "⏪ Отменить ввод"
	menuLabelNewGoal   = "🎯 Новая цель"
	menuLabelGoals     = "📋 Мои цели"
	menuLabelToday     = "☀️ Задачи на сегодня"
	menuLabelReport    = "📊 Отчёт"
	deadlineDateLayout = "2006-01-02"
)

type conversationState struct {
	stage conversationStage
	input service.GoalInput
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	goalSvc       *service.GoalService
	plannerSvc    *service.PlannerService
	reportSvc     *service.ReportService
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, goalSvc *service.GoalService, plannerSvc *service.PlannerService, reportSvc *service.ReportService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		goalSvc:       goalSvc,
		plannerSvc:    plannerSvc,
		reportSvc:     reportSvc,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && strings.TrimSpace(msg.Text) == btnCancelDialog {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Создание цели отменено.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newgoal, чтобы создать цель, или /help для списка команд.")
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewGoal:
		return true, b.startNewGoalConversation(ctx, msg)
	case menuLabelGoals:
		return true, b.handleGoals(ctx, msg)
	case menuLabelToday:
		return true, b.handleToday(ctx, msg, "")
	case menuLabelReport:
		return true, b.handleReport(ctx, msg)
	}
	return false, nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "newgoal":
		return b.startNewGoalConversation(ctx, msg)
	case "goals":
		return b.handleGoals(ctx, msg)
	case "today":
		return b.handleToday(ctx, msg, msg.CommandArguments())
	case "done":
		return b.handleStatusCommand(ctx, msg, model.StatusCompleted)
	case "skip":
		return b.handleStatusCommand(ctx, msg, model.StatusSkipped)
	case "progress":
		return b.handleProgress(ctx, msg)
	case "delgoal":
		return b.handleDeleteGoal(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Текущий диалог отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Неизвестная команда. Набери /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.resolveUser(ctx, msg.From)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"Привет, %s! 👋\n\n"+
			"Я помогаю двигаться к долгосрочным целям маленькими шагами: "+
			"каждый день подбираю задачи по силам, опираясь на то, как шли последние дни.\n\n"+
			"🎯 /newgoal — создать цель\n"+
			"☀️ /today — получить задачи на сегодня\n"+
			"ℹ️ /help — все команды",
		html.EscapeString(user.FirstName),
	)

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = mainMenuKeyboard()
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Команды</b>\n\n" +
		"🎯 /newgoal — создать цель (диалог)\n" +
		"📋 /goals — список целей\n" +
		"☀️ /today [номер цели] — задачи на сегодня\n" +
		"✅ /done &lt;id задачи&gt; — отметить выполненной\n" +
		"⏭️ /skip &lt;id задачи&gt; — пропустить задачу\n" +
		"📈 /progress &lt;номер цели&gt; &lt;0-100&gt; — обновить прогресс\n" +
		"🗑 /delgoal &lt;номер цели&gt; — удалить цель\n" +
		"📊 /report — отчёт по всем целям\n" +
		"⏪ /cancel — отменить текущий диалог\n\n" +
		"Если задачи на день выданы слишком сложными — просто пропусти часть: " +
		"завтра план станет мягче."
	return b.sendHTML(msg.Chat.ID, text)
}

// --- goal creation conversation ---

func (b *Bot) startNewGoalConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.resolveUser(ctx, msg.From); err != nil {
		return err
	}

	b.mu.Lock()
	b.conversations[msg.From.ID] = &conversationState{stage: stageGoalTitle}
	b.mu.Unlock()

	reply := tgbotapi.NewMessage(msg.Chat.ID, "🎯 Как назовём цель?")
	reply.ReplyMarkup = cancelKeyboard(false)
	_, err := b.api.Send(reply)
	return err
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageGoalTitle:
		if text == "" {
			return b.sendText(msg.Chat.ID, "Название не может быть пустым. Попробуй ещё раз.")
		}
		state.input.Title = text
		state.stage = stageGoalDescription
		reply := tgbotapi.NewMessage(msg.Chat.ID, "📝 Добавь описание (или нажми «Пропустить»).")
		reply.ReplyMarkup = cancelKeyboard(true)
		_, err := b.api.Send(reply)
		return err

	case stageGoalDescription:
		if text != btnSkipStep {
			state.input.Description = text
		}
		state.stage = stageGoalDeadline
		reply := tgbotapi.NewMessage(msg.Chat.ID, "📆 Укажи дедлайн в формате ГГГГ-ММ-ДД, например 2026-06-01.")
		reply.ReplyMarkup = cancelKeyboard(false)
		_, err := b.api.Send(reply)
		return err

	case stageGoalDeadline:
		deadline, err := time.ParseInLocation(deadlineDateLayout, text, time.UTC)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Не понял дату. Нужен формат ГГГГ-ММ-ДД, например 2026-06-01.")
		}
		state.input.Deadline = deadline

		user, err := b.resolveUser(ctx, msg.From)
		if err != nil {
			return err
		}
		goal, err := b.goalSvc.CreateGoal(ctx, user, state.input)
		b.clearConversation(msg.From.ID)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Не получилось сохранить цель: "+err.Error())
		}

		reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
			"✅ Цель «%s» создана (№%d), дедлайн %s.\n\nНабери /today %d, чтобы получить первые задачи.",
			goal.Title, goal.ID, goal.Deadline.Format(deadlineDateLayout), goal.ID,
		))
		reply.ReplyMarkup = mainMenuKeyboard()
		_, err = b.api.Send(reply)
		return err
	}

	return nil
}

// --- goal listing and management ---

func (b *Bot) handleGoals(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.resolveUser(ctx, msg.From)
	if err != nil {
		return err
	}

	goals, err := b.goalSvc.ListGoals(ctx, user)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		return b.sendText(msg.Chat.ID, "Целей пока нет. Набери /newgoal, чтобы создать первую.")
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Твои цели</b>\n\n")
	now := time.Now()
	for _, goal := range goals {
		daysLeft := timeutil.DaysBetween(now, goal.Deadline)
		sb.WriteString(fmt.Sprintf("№%d <b>%s</b>\n", goal.ID, html.EscapeString(goal.Title)))
		sb.WriteString(fmt.Sprintf("   %s %d%%", progressBar(goal.Progress), goal.Progress))
		if daysLeft < 0 {
			sb.WriteString(" · ⚠️ дедлайн просрочен\n\n")
		} else {
			sb.WriteString(fmt.Sprintf(" · осталось %d дн.\n\n", daysLeft))
		}
	}
	sb.WriteString("☀️ /today &lt;номер&gt; — задачи на сегодня по цели")
	return b.sendHTML(msg.Chat.ID, sb.String())
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message, args string) error {
	user, err := b.resolveUser(ctx, msg.From)
	if err != nil {
		return err
	}

	goalID, err := b.resolveGoalArg(ctx, user, args)
	if err != nil {
		return b.sendText(msg.Chat.ID, err.Error())
	}

	tasks, err := b.plannerSvc.GenerateDailyTasks(ctx, user, goalID, time.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.sendText(msg.Chat.ID, "Цель с таким номером не найдена. Список целей: /goals.")
	}
	if err != nil {
		log.Printf("[warn] generate tasks for goal %d: %v", goalID, err)
		return b.sendText(msg.Chat.ID, "Не получилось подготовить задачи, попробуй ещё раз чуть позже.")
	}

	var sb strings.Builder
	sb.WriteString("☀️ <b>Задачи на сегодня</b>\n\n")
	for _, task := range tasks {
		sb.WriteString(fmt.Sprintf("%s <b>#%d</b> %s %s\n", statusIcon(task.Status), task.ID,
			html.EscapeString(task.Title), strings.Repeat("▪️", task.Difficulty)))
		if task.Description != "" {
			sb.WriteString(fmt.Sprintf("   📝 %s\n", html.EscapeString(task.Description)))
		}
	}
	sb.WriteString("\nОтмечай кнопками ниже или командами /done и /skip.")

	reply := tgbotapi.NewMessage(msg.Chat.ID, sb.String())
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = taskKeyboard(tasks)
	_, err = b.api.Send(reply)
	return err
}

// resolveGoalArg parses an explicit goal number or falls back to the user's
// only goal.
func (b *Bot) resolveGoalArg(ctx context.Context, user *model.User, args string) (uint, error) {
	args = strings.TrimSpace(args)
	if args != "" {
		id, err := strconv.ParseUint(strings.Fields(args)[0], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("Номер цели должен быть числом, например: /today 1")
		}
		return uint(id), nil
	}

	goals, err := b.goalSvc.ListGoals(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("Не получилось загрузить цели, попробуй позже.")
	}
	switch len(goals) {
	case 0:
		return 0, fmt.Errorf("Целей пока нет. Набери /newgoal, чтобы создать первую.")
	case 1:
		return goals[0].ID, nil
	default:
		return 0, fmt.Errorf("У тебя несколько целей — укажи номер: /today <номер>. Список: /goals.")
	}
}

func (b *Bot) handleStatusCommand(ctx context.Context, msg *tgbotapi.Message, status model.TaskStatus) error {
	user, err := b.resolveUser(ctx, msg.From)
	if err != nil {
		return err
	}

	args := strings.TrimSpace(msg.CommandArguments())
	id, err := strconv.ParseUint(args, 10, 32)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи номер задачи, например: /done 12")
	}

	task, err := b.plannerSvc.SetStatus(ctx, user, uint(id), status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.sendText(msg.Chat.ID, "Задача с таким номером не найдена.")
	}
	if err != nil {
		return err
	}

	if status == model.StatusCompleted {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ «%s» выполнена. Так держать!", task.Title))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("⏭️ «%s» пропущена. Завтра план это учтёт.", task.Title))
}

func (b *Bot) handleProgress(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.resolveUser(ctx, msg.From)
	if err != nil {
		return err
	}

	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Формат: /progress <номер цели> <0-100>")
	}
	goalID, err1 := strconv.ParseUint(fields[0], 10, 32)
	progress, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return b.sendText(msg.Chat.ID, "Формат: /progress <номер цели> <0-100>")
	}

	goal, err := b.goalSvc.SetProgress(ctx, user, uint(goalID), progress)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b.sendText(msg.Chat.ID, "Цель с таким номером не найдена. Список целей: /goals.")
	}
	if err != nil {
		return err
	}

	return b.sendText(msg.Chat.ID, fmt.Sprintf("📈 Прогресс по «%s»: %d%%", goal.Title, goal.Progress))
}

func (b *Bot) handleDeleteGoal(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.resolveUser(ctx, msg.From)
	if err != nil {
		return err
	}

	id, err := strconv.ParseUint(strings.TrimSpace(msg.CommandArguments()), 10, 32)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Укажи номер цели, например: /delgoal 1")
	}

	if err := b.goalSvc.DeleteGoal(ctx, user, uint(id)); errors.Is(err, gorm.ErrRecordNotFound) {
		return b.sendText(msg.Chat.ID, "Цель с таким номером не найдена.")
	} else if err != nil {
		return err
	}

	return b.sendText(msg.Chat.ID, "🗑 Цель и её задачи удалены.")
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.resolveUser(ctx, msg.From)
	if err != nil {
		return err
	}

	summary, err := b.reportSvc.DailySummary(ctx, *user, time.Now())
	if err != nil {
		return err
	}
	return b.sendHTML(msg.Chat.ID, summary)
}

// SendDailyReports pushes the summary to every registered user. Called from
// the interval scheduler.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	now := time.Now()
	for _, user := range users {
		summary, err := b.reportSvc.DailySummary(ctx, user, now)
		if err != nil {
			log.Printf("[warn] summary for user %d: %v", user.ID, err)
			continue
		}
		if err := b.sendHTML(user.TelegramID, summary); err != nil {
			log.Printf("[warn] send report to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

// --- callbacks ---

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil {
		return nil
	}

	user, err := b.resolveUser(ctx, cb.From)
	if err != nil {
		return err
	}

	var status model.TaskStatus
	var raw string
	switch {
	case strings.HasPrefix(cb.Data, cbDonePrefix):
		status = model.StatusCompleted
		raw = strings.TrimPrefix(cb.Data, cbDonePrefix)
	case strings.HasPrefix(cb.Data, cbSkipPrefix):
		status = model.StatusSkipped
		raw = strings.TrimPrefix(cb.Data, cbSkipPrefix)
	default:
		return nil
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}

	task, err := b.plannerSvc.SetStatus(ctx, user, uint(id), status)
	if err != nil {
		if _, sendErr := b.api.Request(tgbotapi.NewCallback(cb.ID, "Задача не найдена")); sendErr != nil {
			return sendErr
		}
		return nil
	}

	note := "✅ Выполнено"
	if status == model.StatusSkipped {
		note = "⏭️ Пропущено"
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, note)); err != nil {
		return err
	}
	if cb.Message != nil {
		return b.sendText(cb.Message.Chat.ID, fmt.Sprintf("%s «%s»", note, task.Title))
	}
	return nil
}

// --- helpers ---

func (b *Bot) resolveUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	if from == nil {
		return nil, fmt.Errorf("message without sender")
	}
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) sendHTML(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewGoal),
			tgbotapi.NewKeyboardButton(menuLabelGoals),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelReport),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func cancelKeyboard(withSkip bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{}
	if withSkip {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkipStep)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func taskKeyboard(tasks []model.Task) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d", task.ID), cbDonePrefix+strconv.FormatUint(uint64(task.ID), 10)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("⏭️ #%d", task.ID), cbSkipPrefix+strconv.FormatUint(uint64(task.ID), 10)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
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

func progressBar(progress int) string {
	filled := progress / 10
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
}
