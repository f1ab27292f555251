package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zemo-bot/internal/stories/payment"
	"zemo-bot/internal/stories/subs"
	"zemo-bot/internal/telegram/states"
)

type Router struct {
	subscriptions subscriptionService
	payments      paymentService
	profiles      profileService
	broadcaster   broadcaster
	states        dialogStates
	stats         statsCommand
	paymentsCmd   paymentsCommand
	sender        *Sender
	tr            translator
	supportChatID int64
	logger        *slog.Logger

	// async запускает долгие задачи (рассылки) вне обработки апдейта
	async func(func())
}

func NewRouter(
	subscriptions subscriptionService,
	payments paymentService,
	profiles profileService,
	broadcaster broadcaster,
	dialogs dialogStates,
	stats statsCommand,
	paymentsCmd paymentsCommand,
	sender *Sender,
	tr translator,
	supportChatID int64,
	logger *slog.Logger,
) *Router {
	return &Router{
		subscriptions: subscriptions,
		payments:      payments,
		profiles:      profiles,
		broadcaster:   broadcaster,
		states:        dialogs,
		stats:         stats,
		paymentsCmd:   paymentsCmd,
		sender:        sender,
		tr:            tr,
		supportChatID: supportChatID,
		logger:        logger.With("component", "router"),
		async:         func(f func()) { go f() },
	}
}

func (r *Router) Route(ctx context.Context, update *tgbotapi.Update) error {
	switch {
	case update.MyChatMember != nil:
		return r.handleMembership(ctx, update.MyChatMember)
	case update.PreCheckoutQuery != nil:
		return r.sender.AnswerPreCheckout(ctx, update.PreCheckoutQuery.ID)
	case update.Message == nil:
		return nil
	}

	msg := update.Message
	if msg.From == nil {
		return nil
	}

	// Служебный чат поддержки: только команды рассылки и ответы пользователям
	if msg.Chat.ID == r.supportChatID {
		return r.handleSupportChat(ctx, msg)
	}
	if !msg.Chat.IsPrivate() {
		return nil
	}

	if msg.SuccessfulPayment != nil {
		return r.handlePayment(ctx, msg)
	}

	if msg.IsCommand() {
		return r.handleCommand(ctx, msg)
	}

	return r.handleButton(ctx, msg)
}

// handleMembership greets a user who opened a private chat with the bot.
func (r *Router) handleMembership(ctx context.Context, m *tgbotapi.ChatMemberUpdated) error {
	if !m.Chat.IsPrivate() || m.NewChatMember.Status != "member" {
		return nil
	}
	return r.welcome(ctx, m.Chat.ID, m.From.LanguageCode)
}

func (r *Router) welcome(ctx context.Context, chatID int64, locale string) error {
	reply, err := r.subscriptions.OnContact(ctx, chatID, locale)
	if err != nil {
		r.sendError(ctx, chatID, locale)
		return err
	}
	return r.sender.SendReply(ctx, chatID, reply)
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	r.states.Clear(msg.Chat.ID)

	switch msg.Command() {
	case "start":
		return r.welcome(ctx, msg.Chat.ID, msg.From.LanguageCode)
	case "support":
		text := strings.TrimSpace(msg.CommandArguments())
		if text == "" {
			return r.promptSupport(ctx, msg.Chat.ID, msg.From.LanguageCode)
		}
		return r.forwardToSupport(ctx, msg, text)
	default:
		return nil
	}
}

func (r *Router) handleButton(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	locale := msg.From.LanguageCode
	text := strings.TrimSpace(msg.Text)

	// любая кнопка сбрасывает ожидание вопроса
	awaiting := r.states.Take(chatID) == states.StateAwaitingSupport

	var (
		reply *subs.Reply
		err   error
	)

	switch {
	case r.tr.Matches("buttons.start", text):
		reply, err = r.subscriptions.OnStart(ctx, chatID, locale)
	case r.tr.Matches("buttons.stop", text):
		reply, err = r.subscriptions.OnStop(ctx, chatID)
	case r.tr.Matches("buttons.free", text):
		reply, err = r.subscriptions.OnTrialRequest(ctx, chatID)
	case r.tr.Matches("buttons.settings", text):
		return r.showSettings(ctx, chatID, locale)
	case r.tr.Matches("buttons.support", text):
		return r.promptSupport(ctx, chatID, locale)
	case awaiting:
		return r.forwardToSupport(ctx, msg, text)
	default:
		return nil
	}

	if err != nil {
		if errors.Is(err, subs.ErrMalformedPayload) {
			r.logger.Warn("Rejected malformed event", "chat_id", chatID, "error", err)
			return nil
		}
		r.sendError(ctx, chatID, locale)
		return err
	}

	return r.sender.SendReply(ctx, chatID, reply)
}

func (r *Router) handlePayment(ctx context.Context, msg *tgbotapi.Message) error {
	sp := msg.SuccessfulPayment
	reply, err := r.payments.ProcessSuccessful(ctx, payment.Payment{
		ChatID:           msg.Chat.ID,
		ChargeID:         sp.TelegramPaymentChargeID,
		ProviderChargeID: sp.ProviderPaymentChargeID,
		Amount:           sp.TotalAmount,
		Currency:         sp.Currency,
		Payload:          sp.InvoicePayload,
	})

	switch {
	case errors.Is(err, subs.ErrInvalidPaymentReference):
		r.logger.Warn("Payment reference belongs to another chat, ignored",
			"chat_id", msg.Chat.ID, "payload", sp.InvoicePayload)
		return nil
	case errors.Is(err, subs.ErrMalformedPayload):
		r.logger.Warn("Malformed payment payload, ignored",
			"chat_id", msg.Chat.ID, "payload", sp.InvoicePayload, "error", err)
		return nil
	case errors.Is(err, payment.ErrDuplicate):
		return nil
	case err != nil:
		r.sendError(ctx, msg.Chat.ID, msg.From.LanguageCode)
		return err
	}

	return r.sender.SendReply(ctx, msg.Chat.ID, reply)
}

func (r *Router) showSettings(ctx context.Context, chatID int64, locale string) error {
	lang := r.language(ctx, chatID, locale)

	p, err := r.profiles.Get(ctx, chatID)
	if err != nil {
		r.sendError(ctx, chatID, locale)
		return err
	}
	if p == nil {
		return r.sender.SendText(ctx, chatID, lang, "settings.empty", nil)
	}
	return r.sender.SendText(ctx, chatID, lang, "settings.current", p.Params())
}

func (r *Router) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) error {
	lang := subs.ResolveLanguage(subs.Record{}, msg.From.LanguageCode)
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		return r.sender.SendText(ctx, msg.Chat.ID, lang, "broadcast.empty", nil)
	}

	job, err := r.broadcaster.Prepare(ctx, text)
	if err != nil {
		r.sendError(ctx, msg.Chat.ID, msg.From.LanguageCode)
		return err
	}

	err = r.sender.SendText(ctx, msg.Chat.ID, lang, "broadcast.started", map[string]string{
		"job_id": job.ID,
		"total":  strconv.Itoa(len(job.Recipients)),
	})
	if err != nil {
		r.logger.Warn("Failed to confirm broadcast start", "job_id", job.ID, "error", err)
	}

	// рассылка переживает обработку апдейта, но не отменяется вместе с ним
	runCtx := context.WithoutCancel(ctx)
	r.async(func() {
		res, err := r.broadcaster.Run(runCtx, job)
		if err != nil {
			r.logger.Error("Broadcast interrupted", "job_id", job.ID, "error", err)
		}
		err = r.sender.SendText(runCtx, r.supportChatID, lang, "broadcast.done", map[string]string{
			"job_id": res.JobID,
			"sent":   strconv.Itoa(res.Sent),
			"failed": strconv.Itoa(res.Failed),
		})
		if err != nil {
			r.logger.Warn("Failed to report broadcast result", "job_id", job.ID, "error", err)
		}
	})

	return nil
}

// language resolves the reply language of a chat without creating a record.
func (r *Router) language(ctx context.Context, chatID int64, locale string) subs.Language {
	rec, _, err := r.subscriptions.Status(ctx, chatID)
	if err != nil {
		r.logger.Debug("Falling back to locale language", "chat_id", chatID, "error", err)
		return subs.ResolveLanguage(subs.Record{}, locale)
	}
	return subs.ResolveLanguage(*rec, locale)
}

func (r *Router) sendError(ctx context.Context, chatID int64, locale string) {
	lang := subs.ResolveLanguage(subs.Record{}, locale)
	if err := r.sender.SendText(ctx, chatID, lang, "errors.processing", nil); err != nil {
		r.logger.Warn("Failed to send error message", "chat_id", chatID, "error", err)
	}
}

// Commands is the private chat command menu.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Главное меню"},
		{Command: "support", Description: "Написать в поддержку"},
	}
}
