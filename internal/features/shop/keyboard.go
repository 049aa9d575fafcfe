package shop

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CallbackPrefix — префикс callback data кнопок магазина.
// Полный вид: shop:<verb>:<arg>, не длиннее 64 байт.
const CallbackPrefix = "shop:"

const (
	verbTab    = "tab"
	verbBuy    = "buy"
	verbUse    = "use"
	verbLocked = "locked"
)

func callbackData(verb, arg string) string {
	return CallbackPrefix + verb + ":" + arg
}

// parseCallback разбирает shop:<verb>:<arg>.
func parseCallback(data string) (verb, arg string, ok bool) {
	rest, ok := strings.CutPrefix(data, CallbackPrefix)
	if !ok {
		return "", "", false
	}
	verb, arg, ok = strings.Cut(rest, ":")
	if !ok || verb == "" || arg == "" {
		return "", "", false
	}
	return verb, arg, true
}

const placeholderLine = "▒▒▒▒▒▒▒▒▒▒▒▒"

// MessageText превращает экран в текст сообщения Telegram.
func MessageText(v View) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "⭐ %d — %s", v.Balance.Stars, v.Balance.Label)
	if v.Balance.Badge != "" {
		fmt.Fprintf(&sb, " · 🎁 %s", v.Balance.Badge)
	}
	sb.WriteString("\n\n")

	if v.Active == TabInventory {
		writeInventory(&sb, v.Inventory)
	} else {
		writeCatalog(&sb, v.Catalog)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeCatalog(sb *strings.Builder, c CatalogView) {
	if c.Placeholders > 0 {
		for i := 0; i < c.Placeholders; i++ {
			sb.WriteString(placeholderLine + "\n")
		}
		return
	}
	if c.Empty != nil {
		sb.WriteString("🛍 " + c.Empty.Message + "\n")
		return
	}
	for _, item := range c.Items {
		fmt.Fprintf(sb, "%s %s — %d ⭐\n", item.Icon.Emoji(), item.Name, item.Price)
		if item.Description != "" {
			sb.WriteString(item.Description + "\n")
		}
		if item.Qualifier != "" {
			sb.WriteString("· " + item.Qualifier + "\n")
		}
		sb.WriteString("\n")
	}
}

func writeInventory(sb *strings.Builder, inv InventoryView) {
	if inv.Empty != nil {
		sb.WriteString("🎁 " + inv.Empty.Message + "\n")
		if inv.Empty.Hint != "" {
			sb.WriteString(inv.Empty.Hint + "\n")
		}
		return
	}
	for _, item := range inv.Items {
		mark := "🟢"
		if item.Used {
			mark = "✔️"
		}
		var parts []string
		if head := strings.TrimSpace(item.Icon.Emoji() + " " + item.Name); head != "" {
			parts = append(parts, head)
		}
		parts = append(parts, mark+" "+item.Status, item.Date)
		sb.WriteString(strings.Join(parts, " · ") + "\n")
	}
}

// Keyboard строит инлайн-клавиатуру: вкладки и кнопки действий активной вкладки.
func Keyboard(v View) tgbotapi.InlineKeyboardMarkup {
	tabs := make([]tgbotapi.InlineKeyboardButton, 0, len(v.Tabs))
	for _, t := range v.Tabs {
		label := t.Label
		if t.Badge > 0 {
			label = fmt.Sprintf("%s (%d)", label, t.Badge)
		}
		if t.Active {
			label = "• " + label
		}
		tabs = append(tabs, tgbotapi.NewInlineKeyboardButtonData(label, callbackData(verbTab, string(t.ID))))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{tabs}

	if v.Active == TabInventory {
		for _, item := range v.Inventory.Items {
			if item.Action == nil {
				continue
			}
			label := item.Action.Label
			if item.Name != "" {
				label += ": " + item.Name
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, callbackData(verbUse, item.PurchaseID.String())),
			))
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	for _, item := range v.Catalog.Items {
		var btn tgbotapi.InlineKeyboardButton
		if item.Action.Enabled {
			label := fmt.Sprintf("%s: %s · %d ⭐", item.Action.Label, item.Name, item.Price)
			btn = tgbotapi.NewInlineKeyboardButtonData(label, callbackData(verbBuy, item.RewardID.String()))
		} else {
			label := fmt.Sprintf("🔒 %s · %d ⭐", item.Name, item.Price)
			btn = tgbotapi.NewInlineKeyboardButtonData(label, callbackData(verbLocked, item.RewardID.String()))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(btn))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
