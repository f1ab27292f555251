package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"zemo-bot/internal/stories/profiles"
	"zemo-bot/internal/stories/subs"
)

const maxSettingsBody = 64 << 10

// SettingsHandler accepts the filter settings posted by the web app and
// confirms them to the user in chat.
type SettingsHandler struct {
	profiles profileService
	status   subscriptionStatus
	notifier notifier
	token    string
	logger   *slog.Logger

	// async отправляет подтверждение после ответа web app
	async func(func())
}

func NewSettingsHandler(p profileService, status subscriptionStatus, n notifier, token string, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		profiles: p,
		status:   status,
		notifier: n,
		token:    token,
		logger:   logger.With("handler", "webapp_settings"),
		async:    func(f func()) { go f() },
	}
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	chatID, err := strconv.ParseInt(r.URL.Query().Get("chat_id"), 10, 64)
	if err != nil || chatID == 0 {
		writeError(w, http.StatusBadRequest, "chat_id is required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}

	ctx := r.Context()
	lang := h.language(ctx, chatID)

	p, err := h.profiles.Save(ctx, chatID, body)
	if errors.Is(err, profiles.ErrInvalidSettings) {
		h.logger.Warn("Invalid settings payload", "chat_id", chatID, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		h.notify(ctx, chatID, lang, "settings.invalid_data", nil)
		return
	}
	if err != nil {
		h.logger.Error("Failed to save settings", "chat_id", chatID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		h.notify(ctx, chatID, lang, "errors.processing", nil)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(true)
	e.FieldStart("chat_id")
	e.Int64(chatID)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, e.Bytes())

	h.notify(ctx, chatID, lang, "settings.saved", p.Params())
}

// authorized fails closed: without a configured token nothing is accepted.
func (h *SettingsHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Api-Token")), []byte(h.token)) == 1
}

func (h *SettingsHandler) language(ctx context.Context, chatID int64) subs.Language {
	rec, _, err := h.status.Status(ctx, chatID)
	if err != nil {
		return subs.ResolveLanguage(subs.Record{}, "")
	}
	return subs.ResolveLanguage(*rec, "")
}

// notify не влияет на ответ: он уже записан, отправка идёт через гейт и ретраи
func (h *SettingsHandler) notify(ctx context.Context, chatID int64, lang subs.Language, key string, params map[string]string) {
	sendCtx := context.WithoutCancel(ctx)
	h.async(func() {
		if err := h.notifier.SendText(sendCtx, chatID, lang, key, params); err != nil {
			h.logger.Warn("Failed to notify user", "chat_id", chatID, "key", key, "error", err)
		}
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(false)
	e.FieldStart("error")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
