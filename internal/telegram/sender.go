package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zemo-bot/internal/delivery"
	tgclient "zemo-bot/internal/infra/telegram"
	"zemo-bot/internal/stories/subs"
)

const invoiceStartParameter = "toggle-bot-status"

// Sender renders replies and pushes every outbound call through the executor.
type Sender struct {
	bot    botClient
	exec   executor
	tr     translator
	logger *slog.Logger
}

func NewSender(bot botClient, exec executor, tr translator, logger *slog.Logger) *Sender {
	return &Sender{
		bot:    bot,
		exec:   exec,
		tr:     tr,
		logger: logger.With("component", "sender"),
	}
}

// Keyboard is the reply keyboard shown under subscription messages. The
// start/stop label follows the bot status.
func (s *Sender) Keyboard(lang subs.Language, running bool) tgbotapi.ReplyKeyboardMarkup {
	toggle := "buttons.start"
	if running {
		toggle = "buttons.stop"
	}

	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(s.tr.Get(string(lang), "buttons.settings", nil)),
			tgbotapi.NewKeyboardButton(s.tr.Get(string(lang), toggle, nil)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(s.tr.Get(string(lang), "buttons.free", nil)),
			tgbotapi.NewKeyboardButton(s.tr.Get(string(lang), "buttons.support", nil)),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// SendReply sends every text of the reply with the keyboard, then the invoice if any.
func (s *Sender) SendReply(ctx context.Context, chatID int64, reply *subs.Reply) error {
	var errs []error
	kb := s.Keyboard(reply.Language, reply.Running)

	for _, key := range reply.TextKeys {
		text := s.tr.Get(string(reply.Language), key, reply.Params)
		if err := s.send(ctx, chatID, text, kb); err != nil {
			errs = append(errs, err)
		}
	}

	if reply.Invoice != nil {
		if err := s.sendInvoice(ctx, reply.Language, reply.Invoice); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SendText renders key in lang and sends it without a keyboard.
func (s *Sender) SendText(ctx context.Context, chatID int64, lang subs.Language, key string, params map[string]string) error {
	return s.send(ctx, chatID, s.tr.Get(string(lang), key, params), nil)
}

// SendRaw sends text as is.
func (s *Sender) SendRaw(ctx context.Context, chatID int64, text string) error {
	return s.send(ctx, chatID, text, nil)
}

// AnswerPreCheckout confirms a pre-checkout query. It is not addressed to a
// chat, so it bypasses the admission gate.
func (s *Sender) AnswerPreCheckout(ctx context.Context, queryID string) error {
	return s.exec.Execute(ctx, delivery.Unscoped("pre_checkout:"+queryID), func(context.Context) error {
		return s.bot.AnswerPreCheckout(queryID, true, "")
	})
}

func (s *Sender) send(ctx context.Context, chatID int64, text string, markup interface{}) error {
	err := s.exec.Execute(ctx, delivery.To(chatID, text), func(context.Context) error {
		return s.bot.SendMessage(chatID, text, markup)
	})
	if err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

func (s *Sender) sendInvoice(ctx context.Context, lang subs.Language, req *subs.InvoiceRequest) error {
	inv := tgclient.Invoice{
		ChatID:         req.ChatID,
		Title:          s.tr.Get(string(lang), "invoice.title", nil),
		Description:    s.tr.Get(string(lang), "invoice.description", nil),
		Payload:        req.Payload,
		Currency:       req.Currency,
		Label:          s.tr.Get(string(lang), "invoice.label", nil),
		Amount:         req.Amount,
		StartParameter: invoiceStartParameter,
	}

	err := s.exec.Execute(ctx, delivery.To(req.ChatID, inv.Title), func(context.Context) error {
		return s.bot.SendInvoice(inv)
	})
	if err != nil {
		return fmt.Errorf("send invoice to %d: %w", req.ChatID, err)
	}
	return nil
}
