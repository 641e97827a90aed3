package handler

import (
	"fmt"
	"strings"

	"telegram-wager-bot/internal/game/coinflip"
	"telegram-wager-bot/internal/game/dice"
	"telegram-wager-bot/internal/model"
)

// Reply texts shared by several handlers.
const (
	msgInternalError = "❌ Something went wrong. Please try again later."
	msgBusy          = "⏳ Still processing your previous command, try again in a moment."
	msgSendDice      = "Please send the 🎲 emoji to roll the dice."
	msgNoSession     = "You have no roll in progress. Start one with /roll <amount>."
	msgFlipUsage     = "Please guess either \"heads\" or \"tails\", e.g. /flip heads"
	msgCancelled     = "Roll cancelled."
	msgNothingToStop = "Nothing to cancel."
	msgCommands      = "/stats - your statistics\n/history - your last games\n/leaderboard [flip] - top players\n/cancel - cancel a pending roll"
)

// DisplayName returns the stored name or a stable placeholder.
func DisplayName(username string, userID int64) string {
	if username == "" {
		return fmt.Sprintf("User%d", userID)
	}
	return username
}

// FormatWelcome greets a player on /start.
func FormatWelcome(name string, account *model.Account, created bool, help string) string {
	var sb strings.Builder
	if created {
		fmt.Fprintf(&sb, "🎉 Welcome %s! Your account in this chat starts with %d coins.\n\n", name, account.Balance)
	} else {
		fmt.Fprintf(&sb, "👋 Welcome back %s! Your balance is %d.\n\n", name, account.Balance)
	}
	sb.WriteString("Games:\n")
	sb.WriteString(help)
	sb.WriteString(msgCommands)
	return sb.String()
}

// FormatWagerPrompt asks for the amount of a two-step roll.
func FormatWagerPrompt(balance, maxBet int64) string {
	msg := fmt.Sprintf("Your current balance is %d. How much would you like to wager?", balance)
	if maxBet > 0 {
		msg += fmt.Sprintf(" (max %d)", maxBet)
	}
	return msg
}

// FormatWagerAccepted confirms a held wager.
func FormatWagerAccepted(wager int64) string {
	return fmt.Sprintf("You've wagered %d. Please send the 🎲 emoji to roll the dice!", wager)
}

// FormatInvalidWager explains why an amount was refused.
func FormatInvalidWager(balance, maxBet int64) string {
	msg := fmt.Sprintf("Please enter a valid wager amount within your balance (%d).", balance)
	if maxBet > 0 {
		msg += fmt.Sprintf(" The maximum wager is %d.", maxBet)
	}
	return msg
}

// FormatSessionActive tells the player a round is already running.
func FormatSessionActive(pendingWager int64) string {
	if pendingWager > 0 {
		return fmt.Sprintf("You already wagered %d. Send 🎲 to roll or /cancel.", pendingWager)
	}
	return "You already started a roll. Send your wager amount or /cancel."
}

// FormatRollResult renders a settled roll.
func FormatRollResult(res dice.Result, balance int64) string {
	var msg string
	if res.Won {
		msg = fmt.Sprintf("🎉 You rolled a %d and won! You receive %d.", res.Value, res.Payout)
	} else {
		msg = fmt.Sprintf("😔 You rolled a %d and lost your wager of %d.", res.Value, res.Wager)
	}
	return msg + fmt.Sprintf("\nYour new balance is %d.", balance)
}

// FormatFlipResult renders a settled coin flip.
func FormatFlipResult(res coinflip.Result, points int64) string {
	side := titleSide(res.Side)
	if res.Won {
		return fmt.Sprintf("Flipping a coin... It's %s! You guessed correctly! 🎉\nYou earned 1 point. Your total in this chat: %d points.", side, points)
	}
	return fmt.Sprintf("Flipping a coin... It's %s! You guessed wrong. Better luck next time! 🍀\nYour total in this chat: %d points.", side, points)
}

// FormatStats renders /stats.
func FormatStats(name string, a *model.Account) string {
	if a.TotalGames == 0 {
		return fmt.Sprintf("You haven't played any games in this chat yet! Your balance is %d.", a.Balance)
	}

	return fmt.Sprintf("📊 Stats for %s in this chat:\n\n"+
		"Current Balance: %d\n"+
		"Points: %d\n"+
		"Total Games: %d\n"+
		"Wins: %d\n"+
		"Losses: %d\n"+
		"Win Percentage: %.2f%%\n"+
		"Total Won: %d\n"+
		"Total Lost: %d",
		name, a.Balance, a.Points, a.TotalGames, a.Wins, a.Losses(), a.WinRate(), a.TotalWon, a.TotalLost)
}

// FormatLeaderboard renders up to five ranked accounts.
func FormatLeaderboard(accounts []*model.Account, by model.RankBy) string {
	var sb strings.Builder
	sb.WriteString("🏆 Leaderboard for this chat 🏆\n\n")
	if len(accounts) == 0 {
		sb.WriteString("No players yet.")
		return sb.String()
	}

	for i, a := range accounts {
		name := DisplayName(a.Username, a.UserID)
		if by == model.RankByPoints {
			fmt.Fprintf(&sb, "%d. %s: %d points\n", i+1, name, a.Points)
		} else {
			fmt.Fprintf(&sb, "%d. %s: %d coins\n", i+1, name, a.Balance)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatHistory renders the newest ledger entries.
func FormatHistory(entries []*model.LedgerEntry) string {
	if len(entries) == 0 {
		return "No games recorded yet."
	}

	var sb strings.Builder
	sb.WriteString("📜 Your last games:\n")
	for _, e := range entries {
		ts := e.CreatedAt.UTC().Format("01-02 15:04")
		switch e.Game {
		case model.GameCoinflip:
			result := "lost"
			if e.Won {
				result = "won"
			}
			fmt.Fprintf(&sb, "%s 🪙 flip %s, %+d points\n", ts, result, e.PointsDelta)
		default:
			fmt.Fprintf(&sb, "%s 🎲 wager %d, %+d, balance %d\n", ts, e.Wager, e.Delta, e.BalanceAfter)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func titleSide(s coinflip.Side) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
