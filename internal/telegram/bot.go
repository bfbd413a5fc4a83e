// Package telegram adapts Telegram updates onto flow events and renders the
// engine's prompts back as messages and inline keyboards.
package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fitcoach/intake-bot/internal/config"
	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/flow"
	"github.com/fitcoach/intake-bot/internal/repository"
	"github.com/fitcoach/intake-bot/internal/service"
)

const (
	callbackStartIntake = "menu:intake"
	callbackEnterPromo  = "menu:promo"
	callbackCooperation = "menu:cooperation"
)

const welcomeText = "Welcome! Fill in a short intake form and our coach will " +
	"build a training plan for you. You can apply a promo code before or " +
	"after completing the form."

type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    *config.Config
	engine *flow.Engine
	users  repository.UserRepository
	attrib repository.AttributionRepository
	links  *service.LinkService
}

func NewBot(cfg *config.Config, users repository.UserRepository, attrib repository.AttributionRepository, links *service.LinkService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:    api,
		cfg:    cfg,
		users:  users,
		attrib: attrib,
		links:  links,
	}, nil
}

// SetEngine wires the flow engine in. The engine is built after the bot
// because completed submissions are delivered back through it.
func (b *Bot) SetEngine(engine *flow.Engine) {
	b.engine = engine
}

// Username returns the bot's account name, for building share links.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run long-polls for updates until the context ends. Each update is handled
// on its own goroutine; per-user ordering is the flow engine's job.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	log.Printf("INFO [telegram.Run] bot started: @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.handleStart(ctx, msg)
		return
	case msg.IsCommand() && msg.Command() == "cancel":
		b.dispatch(ctx, flow.Event{Kind: flow.EventCancel, UserID: userID}, msg.Chat.ID)
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "What would you like to do?"), mainMenuKeyboard())
		return
	case msg.IsCommand():
		return
	}

	b.dispatch(ctx, flow.Event{Kind: flow.EventAnswer, UserID: userID, Text: msg.Text}, msg.Chat.ID)
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	payload := ParseStartPayload(msg.CommandArguments())

	user := &domain.User{
		ID:          userID,
		Username:    msg.From.UserName,
		FirstName:   msg.From.FirstName,
		UTMSource:   payload.UTMSource,
		UTMMedium:   payload.UTMMedium,
		UTMCampaign: payload.UTMCampaign,
	}
	created, err := b.users.GetOrCreate(ctx, user)
	if err != nil {
		log.Printf("ERROR [telegram.handleStart] userID=%d: %v", userID, err)
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Something went wrong. Please try again later."), nil)
		return
	}
	if created && payload.HasUTM() {
		event := &domain.AttributionEvent{
			UserID:      userID,
			UTMSource:   payload.UTMSource,
			UTMMedium:   payload.UTMMedium,
			UTMCampaign: payload.UTMCampaign,
		}
		if err := b.attrib.RecordEvent(ctx, event); err != nil {
			log.Printf("ERROR [telegram.handleStart] userID=%d: record attribution: %v", userID, err)
		}
	}

	if payload.LinkSlug != "" {
		if _, err := b.links.RecordClick(ctx, payload.LinkSlug, userID); err != nil {
			log.Printf("WARN [telegram.handleStart] userID=%d slug=%s: %v", userID, payload.LinkSlug, err)
		}
	}

	b.send(tgbotapi.NewMessage(msg.Chat.ID, welcomeText), mainMenuKeyboard())
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Ack the button press so the client stops the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Printf("WARN [telegram.handleCallback] ack: %v", err)
	}

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	switch cq.Data {
	case callbackStartIntake:
		b.dispatch(ctx, flow.Event{Kind: flow.EventStartIntake, UserID: userID}, chatID)
	case callbackEnterPromo:
		b.dispatch(ctx, flow.Event{Kind: flow.EventEnterPromo, UserID: userID}, chatID)
	case callbackCooperation:
		b.send(tgbotapi.NewMessage(chatID, b.cooperationText()), nil)
	case flow.OptionGenderMale, flow.OptionGenderFemale:
		b.dispatch(ctx, flow.Event{Kind: flow.EventSelectOption, UserID: userID, OptionID: cq.Data}, chatID)
	case flow.OptionSkip:
		b.dispatch(ctx, flow.Event{Kind: flow.EventSkip, UserID: userID}, chatID)
	}
}

func (b *Bot) dispatch(ctx context.Context, ev flow.Event, chatID int64) {
	prompts, err := b.engine.Handle(ctx, ev)
	if err != nil {
		log.Printf("ERROR [telegram.dispatch] userID=%d kind=%d: %v", ev.UserID, ev.Kind, err)
		b.send(tgbotapi.NewMessage(chatID, "Something went wrong. Please try again."), nil)
		return
	}
	for _, prompt := range prompts {
		b.send(tgbotapi.NewMessage(chatID, prompt.Text), optionsKeyboard(prompt.Options))
	}
}

// Notify implements notify.Notifier for operator delivery.
func (b *Bot) Notify(_ context.Context, operatorID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(operatorID, text))
	return err
}

func (b *Bot) send(msg tgbotapi.MessageConfig, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("ERROR [telegram.send] chatID=%d: %v", msg.ChatID, err)
	}
}

func (b *Bot) cooperationText() string {
	text := "For cooperation, contact us:"
	if b.cfg.ContactPhone != "" {
		text += "\n\nPhone: " + b.cfg.ContactPhone
	}
	if b.cfg.ContactWebsite != "" {
		text += "\nWebsite: " + b.cfg.ContactWebsite
	}
	return text
}

func mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Start training", callbackStartIntake),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cooperation", callbackCooperation),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Promo code", callbackEnterPromo),
		),
	)
	return &kb
}

func optionsKeyboard(options []flow.Option) *tgbotapi.InlineKeyboardMarkup {
	if len(options) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.ID),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}
