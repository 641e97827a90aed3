package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-wager-bot/internal/game/coinflip"
	"telegram-wager-bot/internal/game/dice"
	"telegram-wager-bot/internal/metrics"
	"telegram-wager-bot/internal/model"
	"telegram-wager-bot/internal/pkg/lock"
	"telegram-wager-bot/internal/repository"
	"telegram-wager-bot/internal/session"
)

// DefaultLockTimeout bounds how long a command waits for another command of
// the same player to finish.
const DefaultLockTimeout = 5 * time.Second

// GameOptions configures a GameService.
type GameOptions struct {
	// MaxBet caps a single dice wager. 0 means only the balance limits it.
	MaxBet      int64
	LockTimeout time.Duration
}

// Outcome is a random event sent by Telegram, e.g. the 🎲 animation value.
type Outcome struct {
	Emoji string
	Value int
}

// RoundState is the state a command left the player's session in.
type RoundState struct {
	Session *session.Session
	Account *model.Account
}

// RollResult is a settled dice roll.
type RollResult struct {
	Dice    dice.Result
	Account *model.Account
}

// FlipResult is a settled coin flip.
type FlipResult struct {
	Flip    coinflip.Result
	Account *model.Account
}

// GameService drives the wager session state machine and settles games.
// Every operation runs under a per-(chat, user) lock, so commands of one
// player are serialised while different players never contend.
type GameService struct {
	accounts repository.AccountStore
	sessions session.Store
	flipper  coinflip.Flipper
	locks    *lock.KeyLock[model.AccountKey]
	maxBet   int64
	timeout  time.Duration
}

// NewGameService creates a new GameService instance.
func NewGameService(
	accounts repository.AccountStore,
	sessions session.Store,
	flipper coinflip.Flipper,
	opts GameOptions,
) *GameService {
	if flipper == nil {
		flipper = coinflip.RandomFlipper{}
	}
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	return &GameService{
		accounts: accounts,
		sessions: sessions,
		flipper:  flipper,
		locks:    lock.New[model.AccountKey](),
		maxBet:   opts.MaxBet,
		timeout:  timeout,
	}
}

// MaxBet returns the configured wager cap, 0 when uncapped.
func (s *GameService) MaxBet() int64 {
	return s.maxBet
}

// Begin starts a dice round. With an amount the wager is validated and the
// session moves straight to awaiting the outcome; without one it waits for
// the amount. A live session is never replaced: ErrSessionActive is returned
// together with the current state.
func (s *GameService) Begin(ctx context.Context, p Player, amount string) (*RoundState, error) {
	key := p.Key()
	var result *RoundState

	err := s.locks.WithLockContext(ctx, key, s.timeout, func() error {
		account, _, err := s.accounts.GetOrCreate(ctx, key, p.Username)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}

		current, err := s.sessions.Get(ctx, key)
		switch {
		case err == nil:
			result = &RoundState{Session: current, Account: account}
			return ErrSessionActive
		case !errors.Is(err, session.ErrSessionNotFound):
			return fmt.Errorf("failed to load session: %w", err)
		}

		sess := session.New(key)
		result = &RoundState{Session: sess, Account: account}

		if strings.TrimSpace(amount) == "" {
			if account.Balance <= 0 {
				return fmt.Errorf("%w: balance is empty", ErrInvalidWager)
			}
			if err := sess.Transition(session.StateAwaitingWager, 0); err != nil {
				return err
			}
		} else {
			wager, err := s.validateWager(amount, account.Balance)
			if err != nil {
				return err
			}
			if err := sess.Transition(session.StateAwaitingOutcome, wager); err != nil {
				return err
			}
		}

		if err := s.sessions.Save(ctx, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})

	return result, err
}

// SupplyWager handles the amount of a two-step roll. Only a session awaiting
// a wager accepts it; an invalid amount leaves the session waiting.
func (s *GameService) SupplyWager(ctx context.Context, p Player, text string) (*RoundState, error) {
	key := p.Key()
	var result *RoundState

	err := s.locks.WithLockContext(ctx, key, s.timeout, func() error {
		sess, err := s.sessions.Get(ctx, key)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return ErrNoActiveSession
			}
			return fmt.Errorf("failed to load session: %w", err)
		}
		if sess.State != session.StateAwaitingWager {
			return ErrNoActiveSession
		}

		account, _, err := s.accounts.GetOrCreate(ctx, key, p.Username)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		result = &RoundState{Session: sess, Account: account}

		wager, err := s.validateWager(text, account.Balance)
		if err != nil {
			return err
		}
		if err := sess.Transition(session.StateAwaitingOutcome, wager); err != nil {
			return err
		}
		if err := s.sessions.Save(ctx, sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})

	return result, err
}

// AcceptOutcome settles the pending wager with a dice value. The session is
// consumed before the ledger is touched, so an outcome is applied at most
// once. If the ledger update fails the wager is void and the player is idle.
func (s *GameService) AcceptOutcome(ctx context.Context, p Player, ev Outcome) (*RollResult, error) {
	key := p.Key()
	var result *RollResult

	err := s.locks.WithLockContext(ctx, key, s.timeout, func() error {
		sess, err := s.sessions.Get(ctx, key)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return ErrNoActiveSession
			}
			return fmt.Errorf("failed to load session: %w", err)
		}

		switch {
		case sess.State == session.StateAwaitingWager:
			return ErrWagerRequired
		case sess.State != session.StateAwaitingOutcome:
			return ErrNoActiveSession
		case ev.Emoji != dice.Emoji || !dice.ValidValue(ev.Value):
			return fmt.Errorf("%w: %q with value %d", ErrWrongEventType, ev.Emoji, ev.Value)
		}

		sess, err = s.sessions.Take(ctx, key)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return ErrNoActiveSession
			}
			return fmt.Errorf("failed to consume session: %w", err)
		}
		wager := sess.PendingWager
		if err := sess.Transition(session.StateIdle, 0); err != nil {
			return err
		}

		res, err := dice.Settle(wager, ev.Value)
		if err != nil {
			return fmt.Errorf("failed to settle roll: %w", err)
		}

		account, err := s.accounts.ApplyDelta(ctx, key, model.Settlement{
			Game:         model.GameDice,
			Wager:        wager,
			BalanceDelta: res.Delta,
			Won:          res.Won,
		})
		if err != nil {
			log.Error().Err(err).
				Int64("chat_id", key.ChatID).
				Int64("user_id", key.UserID).
				Int64("wager", wager).
				Msg("Roll settlement failed, wager void")
			return fmt.Errorf("failed to apply roll: %w", err)
		}

		metrics.RecordSettlement(model.GameDice, res.Won, res.Delta)
		log.Info().
			Int64("chat_id", key.ChatID).
			Int64("user_id", key.UserID).
			Str("game", model.GameDice).
			Int("value", ev.Value).
			Int64("wager", wager).
			Int64("delta", res.Delta).
			Int64("balance", account.Balance).
			Msg("Roll settled")

		result = &RollResult{Dice: res, Account: account}
		return nil
	})

	return result, err
}

// Cancel drops any live session of the player. It reports whether there was
// one. The ledger is never touched.
func (s *GameService) Cancel(ctx context.Context, p Player) (bool, error) {
	key := p.Key()
	cancelled := false

	err := s.locks.WithLockContext(ctx, key, s.timeout, func() error {
		sess, err := s.sessions.Take(ctx, key)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return nil
			}
			return fmt.Errorf("failed to cancel session: %w", err)
		}
		if err := sess.Transition(session.StateIdle, 0); err != nil {
			return err
		}
		cancelled = true
		return nil
	})

	return cancelled, err
}

// Flip plays one coin flip. It is a single event outside the session machine:
// a correct guess earns one point, the balance is never involved.
func (s *GameService) Flip(ctx context.Context, p Player, guessText string) (*FlipResult, error) {
	guess, err := coinflip.ParseGuess(guessText)
	if err != nil {
		return nil, err
	}

	key := p.Key()
	var result *FlipResult

	err = s.locks.WithLockContext(ctx, key, s.timeout, func() error {
		if _, _, err := s.accounts.GetOrCreate(ctx, key, p.Username); err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}

		res := coinflip.Settle(guess, s.flipper.Flip())
		account, err := s.accounts.ApplyDelta(ctx, key, model.Settlement{
			Game:        model.GameCoinflip,
			PointsDelta: res.Points,
			Won:         res.Won,
		})
		if err != nil {
			return fmt.Errorf("failed to apply flip: %w", err)
		}

		metrics.RecordSettlement(model.GameCoinflip, res.Won, 0)
		log.Info().
			Int64("chat_id", key.ChatID).
			Int64("user_id", key.UserID).
			Str("game", model.GameCoinflip).
			Str("guess", string(res.Guess)).
			Str("side", string(res.Side)).
			Int64("points", account.Points).
			Msg("Flip settled")

		result = &FlipResult{Flip: res, Account: account}
		return nil
	})

	return result, err
}

// State returns the player's current session, or an idle one.
func (s *GameService) State(ctx context.Context, p Player) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, p.Key())
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return session.New(p.Key()), nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// validateWager parses an amount and checks it against the balance and cap.
func (s *GameService) validateWager(text string, balance int64) (int64, error) {
	wager, err := ParseWager(text)
	if err != nil {
		return 0, err
	}
	if wager > balance {
		return 0, fmt.Errorf("%w: %d exceeds balance %d", ErrInvalidWager, wager, balance)
	}
	if s.maxBet > 0 && wager > s.maxBet {
		return 0, fmt.Errorf("%w: %d exceeds max bet %d", ErrInvalidWager, wager, s.maxBet)
	}
	return wager, nil
}

// ParseWager parses a positive integer amount.
func ParseWager(text string) (int64, error) {
	wager, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidWager, strings.TrimSpace(text))
	}
	if wager <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrInvalidWager)
	}
	return wager, nil
}
