// Package common — pluralize.go содержит форматирование сумм и коротких дат
// для русского и английского интерфейса.
package common

import (
	"fmt"
	"time"
)

// FormatStarsAmount создаёт строку вида "+100 звёзд" или "-50 звёзд".
// Знак «+» или «-» добавляется автоматически.
//
// Примеры:
//
//	FormatStarsAmount(100)  → "+100 звёзд"
//	FormatStarsAmount(-50)  → "-50 звёзд"
//	FormatStarsAmount(1)    → "+1 звезда"
func FormatStarsAmount(amount int64) string {
	if amount >= 0 {
		return fmt.Sprintf("+%d %s", amount, PluralizeStars(amount))
	}
	return fmt.Sprintf("%d %s", amount, PluralizeStars(amount))
}

// ruShortMonths — сокращённые названия месяцев в родительном падеже.
var ruShortMonths = [12]string{
	"янв.", "фев.", "мар.", "апр.", "мая", "июн.",
	"июл.", "авг.", "сен.", "окт.", "ноя.", "дек.",
}

// FormatShortDate форматирует дату в стиле "dd MMM yyyy" для языка lang.
//
//	FormatShortDate(t, "ru") → "05 мар. 2025"
//	FormatShortDate(t, "en") → "05 Mar 2025"
//
// Неизвестные языки форматируются по-русски.
func FormatShortDate(t time.Time, lang string) string {
	if lang == "en" {
		return t.Format("02 Jan 2006")
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), ruShortMonths[t.Month()-1], t.Year())
}

// FormatStars форматирует количество звёзд для языка lang.
//
//	FormatStars(5, "ru") → "5 звёзд"
//	FormatStars(1, "en") → "1 star"
func FormatStars(n int64, lang string) string {
	if lang == "en" {
		if n == 1 || n == -1 {
			return fmt.Sprintf("%d star", n)
		}
		return fmt.Sprintf("%d stars", n)
	}
	return FormatBalance(n)
}
