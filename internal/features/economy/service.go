// Package economy — service.go содержит бизнес-логику экономики:
// валидация сумм, начисления, списания и история транзакций.
package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habits-bot/internal/common"
	"serotonyl.ru/habits-bot/internal/i18n"
)

// historyLimit — сколько последних транзакций показывает /history.
const historyLimit = 10

// Store — операции с балансами, нужные сервису.
type Store interface {
	CreateBalance(ctx context.Context, userID int64) error
	GetBalance(ctx context.Context, userID int64) (int64, error)
	AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error
	DeductBalance(ctx context.Context, userID int64, amount int64, txType, description string) error
	GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
}

// Service управляет звёздами пользователей.
type Service struct {
	repo Store
	loc  *time.Location
}

// NewService создаёт новый сервис экономики.
// loc — часовой пояс, в котором показываются даты транзакций.
func NewService(repo Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc}
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// AddBalance начисляет звёзды пользователю.
// Используется для бонусов за привычки и выдачи админом.
func (s *Service) AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.AddBalance(ctx, userID, amount, txType, description); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"type":    txType,
	}).Debug("Звёзды начислены")
	return nil
}

// DeductBalance списывает звёзды. При нехватке — common.ErrInsufficientStars.
func (s *Service) DeductBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repo.DeductBalance(ctx, userID, amount, txType, description)
}

// GetTransactionHistory возвращает отформатированную историю транзакций на языке tr.
// Последние 10 транзакций. Если больше 5 — остаток оборачивается в спойлер.
func (s *Service) GetTransactionHistory(ctx context.Context, userID int64, tr i18n.Translator) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, userID, historyLimit)
	if err != nil {
		return "", err
	}
	if len(transactions) == 0 {
		return tr.T(i18n.KeyHistoryEmpty), nil
	}

	lang := string(tr.Lang())
	lines := make([]string, 0, len(transactions))
	for i, tx := range transactions {
		amount := tx.Signed(userID)
		sign := ""
		if amount >= 0 {
			sign = "+"
		}
		lines = append(lines, fmt.Sprintf("%d. %s | %s%s | %s",
			i+1,
			common.FormatDateTime(tx.CreatedAt, s.loc),
			sign,
			common.FormatStars(amount, lang),
			tx.Description,
		))
	}

	var sb strings.Builder
	sb.WriteString(tr.Tf(i18n.KeyHistoryTitle, len(transactions)))
	sb.WriteString("\n\n")
	if len(lines) > 5 {
		sb.WriteString(strings.Join(lines[:5], "\n"))
		sb.WriteString("\n\n||")
		sb.WriteString(strings.Join(lines[5:], "\n"))
		sb.WriteString("||")
	} else {
		sb.WriteString(strings.Join(lines, "\n"))
	}
	return sb.String(), nil
}

// CreateBalance создаёт начальный баланс для нового участника (0 звёзд).
func (s *Service) CreateBalance(ctx context.Context, userID int64) error {
	return s.repo.CreateBalance(ctx, userID)
}
