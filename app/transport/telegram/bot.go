package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"yubot/app/client/engine"
	"yubot/app/config"
	"yubot/app/service/dispatch"
	"yubot/app/service/session"
	"yubot/app/service/turn"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
)

const pollTimeout = 30

// Bot is the long-lived polling transport. Updates are routed through
// per-user mailboxes so replies reach a user in the order their turns were
// processed while distinct users proceed in parallel.
type Bot struct {
	cfg         *config.Config
	store       *session.Store
	turnSvc     *turn.Service
	engine      engine.Engine
	dispatchSvc *dispatch.Service

	api *tgbotapi.BotAPI
}

func New(di *do.Injector) (*Bot, error) {
	cfg := do.MustInvoke[*config.Config](di)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Bot{
		cfg:         cfg,
		store:       do.MustInvoke[*session.Store](di),
		turnSvc:     do.MustInvoke[*turn.Service](di),
		engine:      do.MustInvoke[*engine.Client](di),
		dispatchSvc: do.MustInvoke[*dispatch.Service](di),
		api:         api,
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := b.api.GetUpdatesChan(u)

	slog.Info("Telegram transport polling", "bot", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			msg := update.Message
			if msg == nil || msg.From == nil {
				continue
			}

			userID := strconv.FormatInt(msg.From.ID, 10)

			b.dispatchSvc.Add(userID, func() {
				b.handleMessage(ctx, userID, msg)
			})
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, userID string, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		if msg.Command() == "start" {
			b.handleStart(ctx, userID, msg)
		}

		return
	}

	if msg.Text == "" {
		return
	}

	result, err := b.turnSvc.ProcessTurn(ctx, turn.Request{
		SessionID:   userID,
		Text:        msg.Text,
		Timestamp:   msg.Time(),
		BotIdentity: b.api.Self.UserName,
	})

	switch {
	case errors.Is(err, turn.ErrSessionClosed):
		// No model reply after finalization, only the closing notice again.
		b.send(msg.Chat.ID, result.Reply)
		return
	case errors.Is(err, engine.ErrUnavailable):
		slog.Warn("Engine unavailable, skipping reply", "user_id", userID, "error", err)
		return
	case err != nil:
		slog.Error("Failed to process turn", "user_id", userID, "error", err)
		return
	}

	b.send(msg.Chat.ID, result.Reply)

	if result.Finalized {
		b.send(msg.Chat.ID, b.cfg.Dialogue.FinishMarkerPrefix+result.ExportID)
		b.send(msg.Chat.ID, b.cfg.Dialogue.ClosingNotice)
	}
}

// handleStart restarts the dialogue even for a known user and sends the
// scripted opener immediately.
func (b *Bot) handleStart(ctx context.Context, userID string, msg *tgbotapi.Message) {
	b.store.Reset(userID, b.cfg.Dialogue.Opener)

	if err := b.engine.Register(ctx, userID); err != nil {
		slog.Error("Failed to register session with engine", "user_id", userID, "error", err)
	}

	slog.Info("Started session", "user_id", userID)

	b.send(msg.Chat.ID, b.cfg.Dialogue.Opener)
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}
