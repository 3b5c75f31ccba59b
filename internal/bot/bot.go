package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fissure_watcher/internal/config"
	"fissure_watcher/internal/model"
	"fissure_watcher/internal/state"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// SettingsStore is the shared, editable watcher settings.
type SettingsStore interface {
	Snapshot() model.Settings
	Update(fn func(*model.Settings)) (model.Settings, error)
}

// Viewer provides the latest fissures seen by the watcher.
type Viewer interface {
	View() state.View
}

// Bot delivers notifications to Telegram chats and lets allowed users edit
// the watcher settings with chat commands.
type Bot struct {
	api      telegramAPI
	settings SettingsStore
	board    Viewer
	cfg      *config.Config
	save     func(model.Settings) error
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token.
func New(token string, settings SettingsStore, board Viewer, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		settings: settings,
		board:    board,
		cfg:      cfg,
		log:      log,
	}, nil
}

// SetSaver sets the function persisting settings after every edit.
func (b *Bot) SetSaver(save func(model.Settings) error) {
	b.save = save
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(update.CallbackQuery)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(update.Message)
		}
	}
}

// Notify sends the notification to every configured chat. It implements
// notify.Notifier.
func (b *Bot) Notify(_ context.Context, summary, body string) error {
	text := FormatNotification(summary, body)
	var errs []error
	for _, chatID := range b.cfg.TelegramChatIDs {
		if err := b.send(chatID, text); err != nil {
			errs = append(errs, fmt.Errorf("telegram chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	if err := b.send(chatID, text); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case cmdSettings:
		b.handleSettings(chatID)
	case "list":
		b.handleList(chatID, args)
	case "tier":
		b.handleTier(chatID, args)
	case "mission":
		b.handleMission(chatID, args)
	case "faction":
		b.handleFaction(chatID, args)
	case "storm":
		b.handleStorm(chatID, args)
	case "refresh":
		b.handleRefresh(chatID, args)
	case "lead":
		b.handleLead(chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// update applies fn to the shared settings and persists the result.
func (b *Bot) update(fn func(*model.Settings)) (model.Settings, error) {
	s, err := b.settings.Update(fn)
	if err != nil {
		return s, err
	}
	if b.save != nil {
		if err := b.save(s); err != nil {
			b.log.Error("save settings", "error", err)
		}
	}
	b.log.Info("settings updated", "refresh_rate", s.RefreshRate, "expiry_lead", s.ExpiryLead)
	return s, nil
}
