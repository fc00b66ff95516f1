package judge

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cssl-judging/internal/models"
	"cssl-judging/internal/scoring"
	"cssl-judging/internal/service"
)

const chatID int64 = 4242

type fakeSender struct {
	texts    []string
	keyboard []tgbotapi.InlineKeyboardMarkup
	acks     int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
		if kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			f.keyboard = append(f.keyboard, kb)
		}
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.acks++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func text(s string) *tgbotapi.Message {
	return &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: s}
}

func press(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{ID: "cb", Data: data, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}}}
}

func newTestBot(t *testing.T) (*TelegramBot, *fakeSender, testEnv) {
	env := setupRouter(t)
	out := &fakeSender{}
	return newBot(out, env.judges, env.scoring, env.reports), out, env
}

func TestBotLinksJudgeAndShowsMenu(t *testing.T) {
	bot, out, env := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, text("hello"))
	assert.Contains(t, out.last(), "/start")

	bot.handleMessage(ctx, text("/start"))
	assert.Equal(t, StateEmail, bot.getSession(chatID).State)

	bot.handleMessage(ctx, text("grace@example.com"))
	bot.handleMessage(ctx, text("wrong"))
	assert.Contains(t, out.last(), "Invalid email or password")
	assert.Equal(t, StateEmail, bot.getSession(chatID).State)

	bot.handleMessage(ctx, text("grace@example.com"))
	bot.handleMessage(ctx, text("judge-pass"))
	assert.Equal(t, StateMenu, bot.getSession(chatID).State)
	assert.Equal(t, "Main menu:", out.last())

	judge, err := env.repo.GetJudgeByID(ctx, env.judge.ID)
	require.NoError(t, err)
	require.NotNil(t, judge.TelegramID)
	assert.Equal(t, chatID, *judge.TelegramID)

	// A fresh bot recognises the linked chat straight away.
	again := newBot(out, env.judges, env.scoring, env.reports)
	again.handleMessage(ctx, text("/start"))
	assert.Equal(t, StateMenu, again.getSession(chatID).State)
	assert.Contains(t, out.texts[len(out.texts)-2], "Welcome back, Grace")
}

func TestBotRefusesTemporaryPassword(t *testing.T) {
	bot, out, env := newTestBot(t)
	ctx := context.Background()
	env.judge.ResetRequired = true
	require.NoError(t, env.repo.UpdateJudge(ctx, &env.judge))

	bot.handleMessage(ctx, text("/start"))
	bot.handleMessage(ctx, text("grace@example.com"))
	bot.handleMessage(ctx, text("judge-pass"))

	assert.Contains(t, out.last(), "Change your temporary password first")
	assert.Equal(t, StateStart, bot.getSession(chatID).State)
	judge, err := env.repo.GetJudgeByID(ctx, env.judge.ID)
	require.NoError(t, err)
	assert.Nil(t, judge.TelegramID)
}

func TestBotCallbacks(t *testing.T) {
	bot, out, env := newTestBot(t)
	ctx := context.Background()

	bot.handleCallback(ctx, press(callbackCompetitions))
	assert.Contains(t, out.last(), "/start")

	bot.handleMessage(ctx, text("/start"))
	bot.handleMessage(ctx, text("grace@example.com"))
	bot.handleMessage(ctx, text("judge-pass"))

	_, err := env.scoring.SubmitScores(ctx, bot.identity(bot.getSession(chatID)), env.contestant.ID, []service.ScoreEntry{
		{CriteriaID: env.criteria[0].ID.String(), Score: 40},
		{CriteriaID: env.criteria[1].ID.String(), Score: 30},
	}, false)
	require.NoError(t, err)

	bot.handleCallback(ctx, press(callbackCompetitions))
	assert.Contains(t, out.last(), "Robotics (active)")
	kb := out.keyboard[len(out.keyboard)-1]
	require.Len(t, kb.InlineKeyboard, 1)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, callbackLeaderboard+env.competition.ID.String(), *kb.InlineKeyboard[0][0].CallbackData)

	bot.handleCallback(ctx, press(callbackLeaderboard+env.competition.ID.String()))
	assert.Contains(t, out.last(), "1. Ada (R-1) 70.00 / 100.00 (70.0%), judges: 1")

	bot.handleCallback(ctx, press(callbackMyScores+env.competition.ID.String()))
	assert.Contains(t, out.last(), "Ada: Technique 40/50, Presentation 30/50")

	other := models.Competition{Name: "Chess", Status: scoring.CompetitionActive}
	require.NoError(t, env.repo.CreateCompetition(ctx, &other))
	bot.handleCallback(ctx, press(callbackLeaderboard+other.ID.String()))
	assert.Equal(t, "You are not assigned to this competition.", out.last())

	assert.Equal(t, 5, out.acks)

	bot.handleMessage(ctx, text("/logout"))
	assert.Equal(t, StateStart, bot.getSession(chatID).State)
}

func TestFormatMyScoresMarksDrafts(t *testing.T) {
	contestants := []scoring.Contestant{{ID: "c1", Name: "Ada"}, {ID: "c2", Name: "Grace"}}
	criteria := []scoring.Criterion{{ID: "k1", Name: "Style", MaxPoints: 10}}
	scores := []scoring.Score{{ContestantID: "c2", CriteriaID: "k1", Score: 7.5, IsDraft: true}}

	got := FormatMyScores(contestants, criteria, scores)
	assert.Contains(t, got, "Grace (draft): Style 7.5/10")
	assert.NotContains(t, got, "Ada")

	assert.Contains(t, FormatMyScores(contestants, criteria, nil), "not scored")
	assert.Equal(t, "No contestants yet.", FormatLeaderboard(nil))
}
