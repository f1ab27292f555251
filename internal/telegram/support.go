package telegram

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"zemo-bot/internal/stories/subs"
	"zemo-bot/internal/telegram/states"
)

// Пересылка в поддержку всегда на русском: по этой строке находим адресата ответа
var supportRecipientRe = regexp.MustCompile(`ID пользователя: (\d+)`)

// promptSupport asks for the question and waits for the next message.
func (r *Router) promptSupport(ctx context.Context, chatID int64, locale string) error {
	r.states.SetState(chatID, states.StateAwaitingSupport)
	return r.sender.SendText(ctx, chatID, r.language(ctx, chatID, locale), "support.prompt", nil)
}

// forwardToSupport relays a user question to the support chat.
func (r *Router) forwardToSupport(ctx context.Context, msg *tgbotapi.Message, text string) error {
	chatID := msg.Chat.ID
	lang := r.language(ctx, chatID, msg.From.LanguageCode)

	if text == "" {
		// стикер или фото без подписи: ждём текст дальше
		r.states.SetState(chatID, states.StateAwaitingSupport)
		return r.sender.SendText(ctx, chatID, lang, "support.empty", nil)
	}

	forward := r.tr.Get(string(subs.LanguageRU), "support.forward", map[string]string{
		"name":     msg.From.FirstName,
		"username": lo.Ternary(msg.From.UserName != "", msg.From.UserName, "нет"),
		"user_id":  strconv.FormatInt(msg.From.ID, 10),
		"message":  text,
	})
	if err := r.sender.SendRaw(ctx, r.supportChatID, forward); err != nil {
		r.sendError(ctx, chatID, msg.From.LanguageCode)
		return err
	}

	return r.sender.SendText(ctx, chatID, lang, "support.sent", nil)
}

func (r *Router) handleSupportChat(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		switch msg.Command() {
		case "broadcast":
			return r.handleBroadcast(ctx, msg)
		case "stats":
			return r.stats.Execute(ctx, msg.Chat.ID)
		case "payments":
			return r.paymentsCmd.Execute(ctx, msg.Chat.ID, msg.CommandArguments())
		default:
			return nil
		}
	}
	if msg.ReplyToMessage == nil {
		return nil
	}

	userID, ok := supportRecipient(msg.ReplyToMessage.Text)
	if !ok {
		r.logger.Debug("Reply is not addressed to a user, ignored", "message_id", msg.MessageID)
		return nil
	}

	adminLang := subs.ResolveLanguage(subs.Record{}, msg.From.LanguageCode)
	reply := strings.TrimSpace(msg.Text)
	if reply == "" {
		return r.sender.SendText(ctx, msg.Chat.ID, adminLang, "support.empty_reply", nil)
	}

	userLang := r.language(ctx, userID, "")
	if err := r.sender.SendText(ctx, userID, userLang, "support.reply", map[string]string{"reply": reply}); err != nil {
		r.logger.Error("Failed to relay support reply", "user_id", userID, "error", err)
		return r.sender.SendText(ctx, msg.Chat.ID, adminLang, "support.reply_error", map[string]string{"error": err.Error()})
	}

	r.logger.Info("Support reply relayed", "user_id", userID)
	return r.sender.SendText(ctx, msg.Chat.ID, adminLang, "support.reply_sent", nil)
}

// supportRecipient extracts the user id from a forwarded support message.
func supportRecipient(text string) (int64, bool) {
	m := supportRecipientRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
