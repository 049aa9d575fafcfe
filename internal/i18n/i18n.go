// Package i18n содержит таблицы переводов интерфейса бота.
// Строки ищутся по ключу в таблице языка пользователя, затем в таблице
// языка по умолчанию (русский), и только потом возвращается сам ключ.
package i18n

import (
	"fmt"
	"strings"
)

// Lang — тег языка (ru, en).
type Lang string

const (
	LangRu Lang = "ru"
	LangEn Lang = "en"

	// Fallback — язык, в котором заведены все ключи.
	Fallback = LangRu
)

// Key — ключ строки интерфейса.
type Key string

// Ключи магазина наград.
const (
	KeyYourStars       Key = "yourStars"
	KeyAvailableCount  Key = "availableCount"
	KeyTabShop         Key = "tabShop"
	KeyTabInventory    Key = "tabInventory"
	KeyOncePerMonth    Key = "oncePerMonth"
	KeyCustomTheme     Key = "customTheme"
	KeyBuy             Key = "buy"
	KeyShopEmpty       Key = "shopEmpty"
	KeyStatusUsed      Key = "statusUsed"
	KeyStatusAvailable Key = "statusAvailable"
	KeyUse             Key = "use"
	KeyNoRewards       Key = "noRewards"
	KeyEarnStarsHint   Key = "earnStarsHint"
	KeyLoading         Key = "loading"

	KeyPurchaseOK     Key = "purchaseOk"
	KeyPurchaseFailed Key = "purchaseFailed"
	KeyUseOK          Key = "useOk"
	KeyUseFailed      Key = "useFailed"
	KeyNotEnoughStars Key = "notEnoughStars"
	KeyFreezeLimit    Key = "freezeLimit"
	KeyRewardNotFound Key = "rewardNotFound"
	KeyRewardUsed     Key = "rewardUsed"
	KeyShopDisabled   Key = "shopDisabled"
)

// Ключи напоминаний о привычках.
const (
	KeyHabitsReminder    Key = "habitsReminder"
	KeyHabitsToComplete  Key = "habitsToComplete"
	KeyStreakCelebration Key = "streakCelebration"
	KeyLongestStreak     Key = "longestStreak"
	KeyDays              Key = "days"
)

// Ключи команд привычек, баланса и общих ответов.
const (
	KeyHelp             Key = "help"
	KeyHabitsEmpty      Key = "habitsEmpty"
	KeyHabitsTitle      Key = "habitsTitle"
	KeyHabitAdded       Key = "habitAdded"
	KeyHabitDeleted     Key = "habitDeleted"
	KeyHabitDone        Key = "habitDone"
	KeyHabitAlreadyDone Key = "habitAlreadyDone"
	KeyHabitNotFound    Key = "habitNotFound"
	KeyHabitUsage       Key = "habitUsage"
	KeyHabitLimit       Key = "habitLimit"
	KeyBalance          Key = "balance"
	KeyHistoryEmpty     Key = "historyEmpty"
	KeyHistoryTitle     Key = "historyTitle"
	KeyLanguageSet      Key = "languageSet"
	KeyLanguageUsage    Key = "languageUsage"
	KeyInternalError    Key = "internalError"
	KeyWeekdays         Key = "weekdays"
	KeyEveryDay         Key = "everyDay"
)

var tables = map[Lang]map[Key]string{
	LangRu: {
		KeyYourStars:       "Ваши звёзды",
		KeyAvailableCount:  "доступно",
		KeyTabShop:         "Магазин",
		KeyTabInventory:    "Мои награды",
		KeyOncePerMonth:    "1 раз в месяц",
		KeyCustomTheme:     "Тема оформления",
		KeyBuy:             "Купить",
		KeyShopEmpty:       "Магазин пока пуст",
		KeyStatusUsed:      "Использовано",
		KeyStatusAvailable: "Доступно",
		KeyUse:             "Использовать",
		KeyNoRewards:       "У вас пока нет наград",
		KeyEarnStarsHint:   "Заработайте звёзды и купите награды!",
		KeyLoading:         "Загрузка…",

		KeyPurchaseOK:     "✅ Награда куплена",
		KeyPurchaseFailed: "❌ Не удалось купить награду",
		KeyUseOK:          "✅ Награда использована",
		KeyUseFailed:      "❌ Не удалось использовать награду",
		KeyNotEnoughStars: "⭐ Недостаточно звёзд",
		KeyFreezeLimit:    "❄️ Заморозку можно купить только 1 раз в месяц",
		KeyRewardNotFound: "❌ Награда не найдена",
		KeyRewardUsed:     "Награда уже использована",
		KeyShopDisabled:   "🛍 Магазин временно закрыт",

		KeyHabitsReminder:    "Привычки на сегодня",
		KeyHabitsToComplete:  "привычек ждут выполнения",
		KeyStreakCelebration: "Отличная серия!",
		KeyLongestStreak:     "Лучшая серия",
		KeyDays:              "дней",

		KeyHelp: "Команды:\n" +
			"/habits — мои привычки\n" +
			"/addhabit <название> [дни: 1,3,5] — новая привычка\n" +
			"/done <номер> — отметить выполнение\n" +
			"/delhabit <номер> — удалить привычку\n" +
			"/shop — магазин наград\n" +
			"/stars — баланс, /history — история\n" +
			"/lang ru|en — язык",
		KeyHabitsEmpty:      "📋 У вас пока нет привычек. Добавьте: /addhabit Зарядка",
		KeyHabitsTitle:      "📋 Ваши привычки:",
		KeyHabitAdded:       "✅ Привычка «%s» добавлена",
		KeyHabitDeleted:     "🗑 Привычка «%s» удалена",
		KeyHabitDone:        "✅ «%s» выполнена! Серия: %d, +%d ⭐",
		KeyHabitAlreadyDone: "👌 «%s» уже отмечена сегодня",
		KeyHabitNotFound:    "❌ Привычка не найдена",
		KeyHabitUsage:       "❌ Формат: /addhabit <название> [дни: 0-6 через запятую, 0 = вс]",
		KeyHabitLimit:       "❌ Слишком много привычек",
		KeyBalance:          "⭐ Баланс: %s",
		KeyHistoryEmpty:     "📋 У вас пока нет транзакций",
		KeyHistoryTitle:     "📋 Последние %d транзакций:",
		KeyLanguageSet:      "🌐 Язык: русский",
		KeyLanguageUsage:    "❌ Формат: /lang ru|en",
		KeyInternalError:    "❌ Что-то пошло не так, попробуйте позже",
		KeyWeekdays:         "вс,пн,вт,ср,чт,пт,сб",
		KeyEveryDay:         "каждый день",
	},
	LangEn: {
		KeyYourStars:       "Your stars",
		KeyAvailableCount:  "available",
		KeyTabShop:         "Shop",
		KeyTabInventory:    "My Rewards",
		KeyOncePerMonth:    "Once per month",
		KeyCustomTheme:     "Custom Theme",
		KeyBuy:             "Buy",
		KeyShopEmpty:       "Shop is empty",
		KeyStatusUsed:      "Used",
		KeyStatusAvailable: "Available",
		KeyUse:             "Use",
		KeyNoRewards:       "No rewards yet",
		KeyEarnStarsHint:   "Earn stars and buy rewards!",
		KeyLoading:         "Loading…",

		KeyPurchaseOK:     "✅ Reward purchased",
		KeyPurchaseFailed: "❌ Could not purchase the reward",
		KeyUseOK:          "✅ Reward used",
		KeyUseFailed:      "❌ Could not use the reward",
		KeyNotEnoughStars: "⭐ Not enough stars",
		KeyFreezeLimit:    "❄️ A freeze can be bought once per month",
		KeyRewardNotFound: "❌ Reward not found",
		KeyRewardUsed:     "Reward already used",
		KeyShopDisabled:   "🛍 The shop is closed for now",

		KeyHabitsReminder:    "Habits for today",
		KeyHabitsToComplete:  "habits to complete",
		KeyStreakCelebration: "Great streak!",
		KeyLongestStreak:     "Longest streak",
		KeyDays:              "days",

		KeyHelp: "Commands:\n" +
			"/habits — my habits\n" +
			"/addhabit <name> [days: 1,3,5] — new habit\n" +
			"/done <number> — mark as done\n" +
			"/delhabit <number> — delete a habit\n" +
			"/shop — rewards shop\n" +
			"/stars — balance, /history — history\n" +
			"/lang ru|en — language",
		KeyHabitsEmpty:      "📋 No habits yet. Add one: /addhabit Workout",
		KeyHabitsTitle:      "📋 Your habits:",
		KeyHabitAdded:       "✅ Habit “%s” added",
		KeyHabitDeleted:     "🗑 Habit “%s” deleted",
		KeyHabitDone:        "✅ “%s” done! Streak: %d, +%d ⭐",
		KeyHabitAlreadyDone: "👌 “%s” is already done today",
		KeyHabitNotFound:    "❌ Habit not found",
		KeyHabitUsage:       "❌ Usage: /addhabit <name> [days: 0-6 comma separated, 0 = Sun]",
		KeyHabitLimit:       "❌ Too many habits",
		KeyBalance:          "⭐ Balance: %s",
		KeyHistoryEmpty:     "📋 No transactions yet",
		KeyHistoryTitle:     "📋 Last %d transactions:",
		KeyLanguageSet:      "🌐 Language: English",
		KeyLanguageUsage:    "❌ Usage: /lang ru|en",
		KeyInternalError:    "❌ Something went wrong, try again later",
		KeyWeekdays:         "Sun,Mon,Tue,Wed,Thu,Fri,Sat",
		KeyEveryDay:         "every day",
	},
}

// Parse нормализует тег языка: "en-US" → en, "RU" → ru.
// Неизвестные и пустые теги дают Fallback.
func Parse(tag string) Lang {
	tag = baseTag(tag)
	if _, ok := tables[Lang(tag)]; ok {
		return Lang(tag)
	}
	return Fallback
}

// Supported сообщает, есть ли таблица для тега (без фолбэка).
func Supported(tag string) bool {
	_, ok := tables[Lang(baseTag(tag))]
	return ok
}

// baseTag отрезает регион: "en-US" и "en_GB" дают "en".
func baseTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// Translator выбирает строки для одного языка.
type Translator struct {
	lang Lang
}

// New создаёт переводчик для тега языка.
func New(tag string) Translator {
	return Translator{lang: Parse(tag)}
}

// Lang возвращает язык переводчика.
func (t Translator) Lang() Lang {
	if t.lang == "" {
		return Fallback
	}
	return t.lang
}

// Lookup ищет строку в таблице языка, затем в таблице Fallback.
func (t Translator) Lookup(key Key) (string, bool) {
	if s, ok := tables[t.Lang()][key]; ok {
		return s, true
	}
	s, ok := tables[Fallback][key]
	return s, ok
}

// T возвращает строку по ключу, а если её нигде нет — сам ключ.
func (t Translator) T(key Key) string {
	if s, ok := t.Lookup(key); ok {
		return s
	}
	return string(key)
}

// Tf — T с подстановкой аргументов через fmt.Sprintf.
func (t Translator) Tf(key Key, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}
