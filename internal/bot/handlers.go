package bot

import (
	"fmt"
	"time"

	"fissure_watcher/internal/filter"
	"fissure_watcher/internal/model"
)

const maxListed = 25

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Fissure Watcher!

You will be notified about new void fissures that match your filters, and again shortly before each of them expires.

Quick start:
1. /settings — show the current filters
2. /tier add Axi — watch another relic tier
3. /list — show the matching fissures

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Fissures:
/list — matching fissures
/list all — every known fissure

Filters:
/settings — show settings
/tier add|remove <tier...> — e.g. /tier add Lith Axi
/mission add|remove <mission...> — separate names with commas, e.g. /mission add Mobile Defense, Spy
/faction add|remove <faction...>
/storm exclude|include|exclusive — void storm handling

Timing:
/refresh <seconds> — poll interval
/lead <seconds> — reminder time before expiry`)
}

func (b *Bot) handleSettings(chatID int64) {
	s := b.settings.Snapshot()
	msg := newSettingsMessage(chatID, s)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send settings", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleList(chatID int64, args string) {
	fissures := b.board.View().Fissures
	if args != "all" {
		fissures = filter.Apply(fissures, b.settings.Snapshot().Filters)
	}
	b.reply(chatID, FormatFissureList(fissures, time.Now(), maxListed))
}

func (b *Bot) handleTier(chatID int64, args string) {
	op, values, err := ParseEditArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /tier add|remove <tier...>")
		return
	}
	tiers, err := parseAll(values, model.ParseTier)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	s, err := b.update(func(s *model.Settings) {
		s.Filters.Tiers = applyEdit(s.Filters.Tiers, op, tiers)
	})
	b.replyUpdated(chatID, s, err)
}

func (b *Bot) handleMission(chatID int64, args string) {
	op, values, err := ParseEditArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /mission add|remove <mission, ...>")
		return
	}
	missions, err := parseAll(values, model.ParseMissionType)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	s, err := b.update(func(s *model.Settings) {
		s.Filters.Missions = applyEdit(s.Filters.Missions, op, missions)
	})
	b.replyUpdated(chatID, s, err)
}

func (b *Bot) handleFaction(chatID int64, args string) {
	op, values, err := ParseEditArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /faction add|remove <faction...>")
		return
	}
	factions, err := parseAll(values, model.ParseFaction)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}
	s, err := b.update(func(s *model.Settings) {
		s.Filters.Factions = applyEdit(s.Filters.Factions, op, factions)
	})
	b.replyUpdated(chatID, s, err)
}

func (b *Bot) handleStorm(chatID int64, args string) {
	mode, err := model.ParseExclusivityFilter(args)
	if err != nil {
		b.reply(chatID, "Usage: /storm exclude|include|exclusive")
		return
	}
	s, err := b.update(func(s *model.Settings) {
		s.Filters.VoidStorm = mode
	})
	b.replyUpdated(chatID, s, err)
}

func (b *Bot) handleRefresh(chatID int64, args string) {
	d, err := ParseSeconds(args, 1)
	if err != nil {
		b.reply(chatID, "Usage: /refresh <seconds>\n"+err.Error())
		return
	}
	s, err := b.update(func(s *model.Settings) {
		s.RefreshRate = d
	})
	b.replyUpdated(chatID, s, err)
}

func (b *Bot) handleLead(chatID int64, args string) {
	d, err := ParseSeconds(args, 0)
	if err != nil {
		b.reply(chatID, "Usage: /lead <seconds>\n"+err.Error())
		return
	}
	s, err := b.update(func(s *model.Settings) {
		s.ExpiryLead = d
	})
	b.replyUpdated(chatID, s, err)
}

func (b *Bot) replyUpdated(chatID int64, s model.Settings, err error) {
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Settings not changed: %v", err))
		return
	}
	b.reply(chatID, "Settings updated.\n\n"+FormatSettings(s))
}
