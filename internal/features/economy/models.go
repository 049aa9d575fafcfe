// Package economy управляет балансом звёзд пользователей.
// Звёзды начисляются за выполнение привычек и тратятся в магазине наград.
// models.go описывает структуры для балансов и транзакций.
package economy

import "time"

// Balance представляет баланс пользователя.
// Каждый пользователь имеет ровно одну запись в таблице balances.
type Balance struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`      // Telegram user ID
	Balance     int64     `db:"balance"`      // Текущий баланс (начинается с 0)
	TotalEarned int64     `db:"total_earned"` // Сколько всего заработано
	TotalSpent  int64     `db:"total_spent"`  // Сколько всего потрачено
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction представляет одну операцию со звёздами.
// Все движения звёзд (бонусы, покупки, выдача админом) записываются сюда.
type Transaction struct {
	ID              int64     `db:"id"`
	FromUserID      *int64    `db:"from_user_id"` // Списание (nil для начислений)
	ToUserID        *int64    `db:"to_user_id"`   // Начисление (nil для списаний)
	Amount          int64     `db:"amount"`       // Сумма (всегда положительная)
	TransactionType string    `db:"transaction_type"`
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Типы транзакций
const (
	TxTypeHabitBonus   = "habit_bonus"   // Бонус за выполнение привычки
	TxTypeShopPurchase = "shop_purchase" // Покупка в магазине наград
	TxTypeAdminGive    = "admin_give"    // Выдача админом
	TxTypeAdminTake    = "admin_take"    // Изъятие админом
)

// Signed возвращает сумму со знаком с точки зрения userID:
// минус для списаний, плюс для начислений.
func (t *Transaction) Signed(userID int64) int64 {
	if t.FromUserID != nil && *t.FromUserID == userID {
		return -t.Amount
	}
	return t.Amount
}
