package handler

import (
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v3"

	"telegram-wager-bot/internal/game"
	"telegram-wager-bot/internal/game/coinflip"
	"telegram-wager-bot/internal/game/dice"
	"telegram-wager-bot/internal/repository"
	"telegram-wager-bot/internal/service"
	"telegram-wager-bot/internal/session"
)

const testChat int64 = -1001

// fakeContext implements the parts of tele.Context the handlers use.
// Any other method panics through the nil embedded interface.
type fakeContext struct {
	tele.Context
	msg     *tele.Message
	replies []string
}

func (c *fakeContext) Message() *tele.Message { return c.msg }
func (c *fakeContext) Chat() *tele.Chat       { return c.msg.Chat }
func (c *fakeContext) Sender() *tele.User     { return c.msg.Sender }
func (c *fakeContext) Text() string           { return c.msg.Text }

func (c *fakeContext) Args() []string {
	fields := strings.Fields(c.msg.Text)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		return fields[1:]
	}
	return fields
}

func (c *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, fmt.Sprint(what))
	return nil
}

func (c *fakeContext) lastReply() string {
	if len(c.replies) == 0 {
		return ""
	}
	return c.replies[len(c.replies)-1]
}

func textFrom(userID int64, text string) *fakeContext {
	return &fakeContext{msg: &tele.Message{
		Text:   text,
		Chat:   &tele.Chat{ID: testChat, Type: tele.ChatSuperGroup},
		Sender: &tele.User{ID: userID, Username: fmt.Sprintf("user%d", userID)},
	}}
}

func diceFrom(userID int64, emoji string, value int) *fakeContext {
	c := textFrom(userID, "")
	c.msg.Dice = &tele.Dice{Type: tele.DiceType(emoji), Value: value}
	return c
}

type testHandlers struct {
	game     *GameHandler
	account  *AccountHandler
	ranking  *RankingHandler
	accounts *repository.MemoryAccountStore
}

func newTestHandlers(t *testing.T) *testHandlers {
	t.Helper()

	accounts := repository.NewMemoryAccountStore()
	sessions := session.NewMemoryStore(0)
	flipper := coinflip.FlipperFunc(func() coinflip.Side { return coinflip.Heads })

	registry := game.NewRegistry()
	if err := registry.Register(dice.New()); err != nil {
		t.Fatal(err)
	}
	if err := registry.Register(coinflip.New()); err != nil {
		t.Fatal(err)
	}

	gameService := service.NewGameService(accounts, sessions, flipper, service.GameOptions{MaxBet: 500})

	return &testHandlers{
		game:     NewGameHandler(gameService),
		account:  NewAccountHandler(service.NewAccountService(accounts), registry),
		ranking:  NewRankingHandler(service.NewRankingService(accounts)),
		accounts: accounts,
	}
}
