package bot

import (
	"slices"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fissure_watcher/internal/model"
)

const (
	cmdSettings = "settings"
	cbTier      = "tier"
	cbStorm     = "storm"
)

func newSettingsMessage(chatID int64, s model.Settings) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, FormatSettings(s))

	var tierRow []tgbotapi.InlineKeyboardButton
	for _, t := range model.AllTiers() {
		label := t.String()
		if slices.Contains(s.Filters.Tiers, t) {
			label = "✓ " + label
		}
		tierRow = append(tierRow, tgbotapi.NewInlineKeyboardButtonData(label, cbTier+":"+t.String()))
	}

	var stormRow []tgbotapi.InlineKeyboardButton
	for _, e := range model.AllExclusivityFilters() {
		label := "Storm " + strings.ToLower(e.String())
		if s.Filters.VoidStorm == e {
			label = "✓ " + label
		}
		stormRow = append(stormRow, tgbotapi.NewInlineKeyboardButtonData(label, cbStorm+":"+e.String()))
	}

	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tierRow, stormRow)
	return msg
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	if !b.cfg.IsUserAllowed(cb.From.ID) {
		b.reply(chatID, "Access denied.")
		return
	}

	action, value, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}

	b.log.Info("callback",
		"action", action,
		"value", value,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	var err error
	switch action {
	case cbTier:
		var tier model.Tier
		if tier, err = model.ParseTier(value); err == nil {
			_, err = b.update(func(s *model.Settings) {
				s.Filters.Tiers = toggle(s.Filters.Tiers, tier)
			})
		}
	case cbStorm:
		var mode model.ExclusivityFilter
		if mode, err = model.ParseExclusivityFilter(value); err == nil {
			_, err = b.update(func(s *model.Settings) {
				s.Filters.VoidStorm = mode
			})
		}
	default:
		return
	}

	if err != nil {
		b.reply(chatID, "Settings not changed: "+err.Error())
		return
	}
	b.handleSettings(chatID)
}
