package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"cssl-judging/internal/logging"
	"cssl-judging/internal/pkg"
	"cssl-judging/internal/repository"
	"cssl-judging/internal/scoring"
	"cssl-judging/internal/service"
)

const (
	StateStart    = "start"
	StateEmail    = "email"
	StatePassword = "password"
	StateMenu     = "menu"
)

const (
	callbackCompetitions = "competitions"
	callbackLeaderboard  = "lb:"
	callbackMyScores     = "my:"
)

type UserSession struct {
	State   string
	Email   string
	JudgeID uuid.UUID
}

// sender is the part of tgbotapi.BotAPI the bot uses to talk back.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramBot lets judges check their assignments, leaderboards and their
// own scores from a chat linked to their account.
type TelegramBot struct {
	api      *tgbotapi.BotAPI
	out      sender
	judges   *service.JudgeService
	scoring  *service.ScoringService
	reports  *service.ReportService
	mu       sync.Mutex
	sessions map[int64]*UserSession
}

func NewTelegramBot(token string, judges *service.JudgeService, scores *service.ScoringService, reports *service.ReportService) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b := newBot(api, judges, scores, reports)
	b.api = api
	return b, nil
}

func newBot(out sender, judges *service.JudgeService, scores *service.ScoringService, reports *service.ReportService) *TelegramBot {
	return &TelegramBot{
		out:      out,
		judges:   judges,
		scoring:  scores,
		reports:  reports,
		sessions: make(map[int64]*UserSession),
	}
}

// Start polls for updates until ctx is cancelled.
func (b *TelegramBot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logging.Log.Infof("BOT: authorized as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *TelegramBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *TelegramBot) getSession(chatID int64) *UserSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	session, exists := b.sessions[chatID]
	if !exists {
		session = &UserSession{State: StateStart}
		b.sessions[chatID] = session
	}
	return session
}

func (b *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	session := b.getSession(chatID)
	text := strings.TrimSpace(message.Text)

	switch text {
	case "/start":
		b.start(ctx, chatID, session)
		return
	case "/logout":
		*session = UserSession{State: StateStart}
		b.sendMessage(chatID, "Logged out. Send /start to log in again.")
		return
	}

	switch session.State {
	case StateStart:
		b.sendMessage(chatID, "Send /start to log in.")

	case StateEmail:
		session.Email = text
		b.sendMessage(chatID, "Enter your password:")
		session.State = StatePassword

	case StatePassword:
		judge, err := b.judges.LinkTelegram(ctx, session.Email, text, chatID)
		if err != nil {
			if errors.Is(err, service.ErrTelegramLinked) {
				b.sendMessage(chatID, "This Telegram account is already linked to another judge.")
				session.State = StateStart
				return
			}
			if errors.Is(err, service.ErrPasswordResetRequired) {
				b.sendMessage(chatID, "Change your temporary password first, then send /start.")
				session.State = StateStart
				return
			}
			b.sendMessage(chatID, "Invalid email or password. Enter your email:")
			session.State = StateEmail
			return
		}
		session.JudgeID = judge.ID
		session.State = StateMenu
		b.sendMessage(chatID, fmt.Sprintf("Welcome, %s!", judge.Name))
		b.sendMainMenu(chatID)

	case StateMenu:
		if text == "/menu" {
			b.sendMainMenu(chatID)
			return
		}
		b.sendMessage(chatID, "Unknown command. Use the menu buttons or send /menu")
	}
}

// start resumes a session for chats already linked to a judge.
func (b *TelegramBot) start(ctx context.Context, chatID int64, session *UserSession) {
	judge, err := b.judges.JudgeByTelegram(ctx, chatID)
	if err == nil {
		session.JudgeID = judge.ID
		session.State = StateMenu
		b.sendMessage(chatID, fmt.Sprintf("Welcome back, %s!", judge.Name))
		b.sendMainMenu(chatID)
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logging.Log.Errorf("BOT: lookup chat %d: %v", chatID, err)
	}
	session.State = StateEmail
	b.sendMessage(chatID, "👋 Judge bot. Enter the email of your judge account:")
}

func (b *TelegramBot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	session := b.getSession(chatID)

	if _, err := b.out.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logging.Log.Warnf("BOT: callback ack: %v", err)
	}

	if session.State != StateMenu {
		b.sendMessage(chatID, "Send /start to log in.")
		return
	}

	data := callback.Data
	switch {
	case data == callbackCompetitions:
		b.handleCompetitions(ctx, chatID, session)
	case strings.HasPrefix(data, callbackLeaderboard):
		b.handleLeaderboard(ctx, chatID, session, strings.TrimPrefix(data, callbackLeaderboard))
	case strings.HasPrefix(data, callbackMyScores):
		b.handleMyScores(ctx, chatID, session, strings.TrimPrefix(data, callbackMyScores))
	}
}

func (b *TelegramBot) sendMainMenu(chatID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("My competitions", callbackCompetitions),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "Main menu:")
	msg.ReplyMarkup = keyboard
	b.send(msg)
}

func (b *TelegramBot) handleCompetitions(ctx context.Context, chatID int64, session *UserSession) {
	competitions, err := b.judges.Competitions(ctx, session.JudgeID)
	if err != nil {
		logging.Log.Errorf("BOT: competitions for %s: %v", session.JudgeID, err)
		b.sendMessage(chatID, "Could not load your competitions, try again later.")
		return
	}
	if len(competitions) == 0 {
		b.sendMessage(chatID, "You are not assigned to any competition yet.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(competitions))
	var sb strings.Builder
	sb.WriteString("Your competitions:\n")
	for _, comp := range competitions {
		fmt.Fprintf(&sb, "\n• %s (%s)", comp.Name, comp.Status)
		id := comp.ID.String()
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 "+comp.Name, callbackLeaderboard+id),
			tgbotapi.NewInlineKeyboardButtonData("📝 My scores", callbackMyScores+id),
		))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *TelegramBot) identity(session *UserSession) pkg.Identity {
	return pkg.Identity{Subject: session.JudgeID.String(), Role: pkg.RoleJudge}
}

func (b *TelegramBot) handleLeaderboard(ctx context.Context, chatID int64, session *UserSession, competitionID string) {
	compID, err := uuid.Parse(competitionID)
	if err != nil {
		return
	}
	// The sheet call doubles as the assignment check.
	if _, _, err := b.scoring.CompetitionSheet(ctx, b.identity(session), compID); err != nil {
		b.replyError(chatID, err)
		return
	}

	board, err := b.reports.Leaderboard(ctx, competitionID, "", scoring.Descending)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.sendMessage(chatID, FormatLeaderboard(board))
}

func (b *TelegramBot) handleMyScores(ctx context.Context, chatID int64, session *UserSession, competitionID string) {
	compID, err := uuid.Parse(competitionID)
	if err != nil {
		return
	}
	contestants, criteria, err := b.scoring.CompetitionSheet(ctx, b.identity(session), compID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	scores, err := b.scoring.MyScores(ctx, b.identity(session), compID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.sendMessage(chatID, FormatMyScores(contestants, criteria, scores))
}

func (b *TelegramBot) replyError(chatID int64, err error) {
	switch {
	case errors.Is(err, service.ErrNotAssigned):
		b.sendMessage(chatID, "You are not assigned to this competition.")
	case errors.Is(err, scoring.ErrDataUnavailable):
		b.sendMessage(chatID, "Scores are temporarily unavailable, try again later.")
	default:
		logging.Log.Errorf("BOT: %v", err)
		b.sendMessage(chatID, "Something went wrong, try again later.")
	}
}

// FormatLeaderboard renders standings as plain text.
func FormatLeaderboard(board []scoring.LeaderboardEntry) string {
	if len(board) == 0 {
		return "No contestants yet."
	}
	var sb strings.Builder
	sb.WriteString("🏆 Leaderboard\n")
	for _, e := range board {
		fmt.Fprintf(&sb, "\n%d. %s (%s) %.2f / %.2f (%.1f%%), judges: %d",
			e.Rank, e.Name, e.RegistrationNumber, e.Average, e.MaxPossible, e.Percentage, e.JudgeCount)
	}
	return sb.String()
}

// FormatMyScores renders a judge's sheet grouped by contestant, in contestant
// then criterion order.
func FormatMyScores(contestants []scoring.Contestant, criteria []scoring.Criterion, scores []scoring.Score) string {
	if len(scores) == 0 {
		return "You have not scored anyone in this competition yet."
	}
	byCell := make(map[[2]string]scoring.Score, len(scores))
	for _, s := range scores {
		byCell[[2]string{s.ContestantID, s.CriteriaID}] = s
	}

	var sb strings.Builder
	sb.WriteString("📝 Your scores\n")
	for _, contestant := range contestants {
		var parts []string
		draft := false
		for _, criterion := range criteria {
			s, ok := byCell[[2]string{contestant.ID, criterion.ID}]
			if !ok {
				continue
			}
			draft = draft || s.IsDraft
			parts = append(parts, fmt.Sprintf("%s %g/%g", criterion.Name, s.Score, criterion.MaxPoints))
		}
		if len(parts) == 0 {
			continue
		}
		mark := ""
		if draft {
			mark = " (draft)"
		}
		fmt.Fprintf(&sb, "\n%s%s: %s", contestant.Name, mark, strings.Join(parts, ", "))
	}
	return sb.String()
}

func (b *TelegramBot) send(c tgbotapi.Chattable) {
	if _, err := b.out.Send(c); err != nil {
		logging.Log.Errorf("BOT: error sending message: %v", err)
	}
}

func (b *TelegramBot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}
