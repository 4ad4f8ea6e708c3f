package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/addisplay/bingo-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrUnknownUser       = errors.New("user not registered")
)

// Ledger moves money. Every movement carries a caller-chosen reference
// that is unique per logical operation; replaying a reference returns
// the balance recorded the first time instead of moving money again,
// so a retried stake debit or prize credit cannot double-apply.
type Ledger interface {
	Balance(tid int64) (float64, error)
	Debit(tid int64, amount float64, typ models.TransactionType, ref string) (float64, error)
	Credit(tid int64, amount float64, typ models.TransactionType, ref string) (float64, error)
}

// UserStore resolves stable identities.
type UserStore interface {
	ByTelegramID(tid int64) (*models.User, error)
}

// History is the round-outcome store. Record failures are logged by
// the caller and never block the round.
type History interface {
	Record(result *models.RoundResult) error
	ResultsOf(tid int64, limit int) ([]models.RoundResult, error)
	Leaderboard(since time.Time, limit int) ([]LeaderboardEntry, error)
}

// RoundStore persists round rows for history and recovery.
type RoundStore interface {
	NextRoundNumber(stake int) int
	Create(round *models.Round) error
	Save(round *models.Round) error
}

type LeaderboardEntry struct {
	TelegramID int64   `json:"telegram_id"`
	Name       string  `json:"name"`
	Wins       int     `json:"wins"`
	TotalPrize float64 `json:"total_prize"`
}

// -------------------- gorm implementations --------------------

type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger { return &GormLedger{db: db} }

func (g *GormLedger) Balance(tid int64) (float64, error) {
	var user models.User
	if err := g.db.Where("telegram_id = ?", tid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUnknownUser
		}
		return 0, err
	}
	return user.Balance, nil
}

func (g *GormLedger) Debit(tid int64, amount float64, typ models.TransactionType, ref string) (float64, error) {
	return g.move(tid, -amount, typ, ref)
}

func (g *GormLedger) Credit(tid int64, amount float64, typ models.TransactionType, ref string) (float64, error) {
	return g.move(tid, amount, typ, ref)
}

func (g *GormLedger) move(tid int64, delta float64, typ models.TransactionType, ref string) (float64, error) {
	var balance float64
	err := g.db.Transaction(func(tx *gorm.DB) error {
		// Idempotency: a reference seen before answers with the
		// balance it produced then.
		var prev models.Transaction
		err := tx.Where("reference = ?", ref).First(&prev).Error
		if err == nil {
			balance = prev.BalanceAfter
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("telegram_id = ?", tid).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownUser
			}
			return err
		}
		if delta < 0 && user.Balance < -delta {
			return ErrInsufficientFunds
		}

		user.Balance += delta
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		balance = user.Balance

		amount := delta
		if amount < 0 {
			amount = -amount
		}
		return tx.Create(&models.Transaction{
			TelegramID:   tid,
			Type:         typ,
			Amount:       amount,
			BalanceAfter: user.Balance,
			Reference:    ref,
		}).Error
	})
	return balance, err
}

type GormUsers struct {
	db *gorm.DB
}

func NewGormUsers(db *gorm.DB) *GormUsers { return &GormUsers{db: db} }

func (g *GormUsers) ByTelegramID(tid int64) (*models.User, error) {
	var user models.User
	if err := g.db.Where("telegram_id = ?", tid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return &user, nil
}

type GormHistory struct {
	db *gorm.DB
}

func NewGormHistory(db *gorm.DB) *GormHistory { return &GormHistory{db: db} }

func (g *GormHistory) Record(result *models.RoundResult) error {
	return g.db.Create(result).Error
}

func (g *GormHistory) ResultsOf(tid int64, limit int) ([]models.RoundResult, error) {
	var results []models.RoundResult
	err := g.db.Where("telegram_id = ?", tid).
		Order("created_at DESC").Limit(limit).Find(&results).Error
	return results, err
}

func (g *GormHistory) Leaderboard(since time.Time, limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	err := g.db.Table("round_results").
		Select("round_results.telegram_id, users.name, COUNT(*) AS wins, SUM(round_results.prize) AS total_prize").
		Joins("LEFT JOIN users ON users.telegram_id = round_results.telegram_id").
		Where("round_results.status = ? AND round_results.created_at >= ?", models.ResultWon, since).
		Group("round_results.telegram_id, users.name").
		Order("total_prize DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

type GormRounds struct {
	db *gorm.DB
}

func NewGormRounds(db *gorm.DB) *GormRounds { return &GormRounds{db: db} }

func (g *GormRounds) NextRoundNumber(stake int) int {
	var last models.Round
	if err := g.db.Where("stake = ?", stake).
		Order("round_number DESC").First(&last).Error; err != nil {
		return 1
	}
	return last.RoundNumber + 1
}

func (g *GormRounds) Create(round *models.Round) error {
	return g.db.Create(round).Error
}

func (g *GormRounds) Save(round *models.Round) error {
	return g.db.Save(round).Error
}

// stakeRef and winRef key ledger movements to (round, identity) so a
// retry after a crash or timeout lands on the same reference.
func stakeRef(stake, roundNumber int, tid int64) string {
	return fmt.Sprintf("s%d-r%d-u%d-stake", stake, roundNumber, tid)
}

func winRef(stake, roundNumber int, tid int64) string {
	return fmt.Sprintf("s%d-r%d-u%d-win", stake, roundNumber, tid)
}
