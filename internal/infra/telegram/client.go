package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	defaultHTTPTimeout = 10 * time.Second
	defaultPollTimeout = 60
)

type config struct {
	HTTPTimeout time.Duration
	PollTimeout int
	Endpoint    string
}

type Option func(*config)

// WithHTTPTimeout bounds every Bot API call. An expired call surfaces as a
// net.Error with Timeout() == true, which the delivery executor retries.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.HTTPTimeout = timeout
	}
}

func WithPollTimeout(seconds int) Option {
	return func(c *config) {
		c.PollTimeout = seconds
	}
}

func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.Endpoint = endpoint
	}
}

type Client struct {
	api *tgbotapi.BotAPI
	// poller holds getUpdates requests open, so it gets its own HTTP timeout
	poller      *tgbotapi.BotAPI
	logger      *slog.Logger
	pollTimeout int
	updates     <-chan tgbotapi.Update
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewClient(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	cfg := &config{
		HTTPTimeout: defaultHTTPTimeout,
		PollTimeout: defaultPollTimeout,
		Endpoint:    tgbotapi.APIEndpoint,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, cfg.Endpoint, &http.Client{Timeout: cfg.HTTPTimeout})
	if err != nil {
		return nil, fmt.Errorf("создание telegram бота: %w", err)
	}

	pollClient := &http.Client{Timeout: cfg.HTTPTimeout + time.Duration(cfg.PollTimeout)*time.Second}
	poller, err := tgbotapi.NewBotAPIWithClient(token, cfg.Endpoint, pollClient)
	if err != nil {
		return nil, fmt.Errorf("создание telegram поллера: %w", err)
	}

	return &Client{
		api:         bot,
		poller:      poller,
		logger:      logger,
		pollTimeout: cfg.PollTimeout,
	}, nil
}

// Start начинает получение обновлений (long polling)
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	u.AllowedUpdates = []string{"message", "my_chat_member", "pre_checkout_query"}

	c.updates = c.poller.GetUpdatesChan(u)

	c.logger.Info("Telegram бот запущен", "username", c.api.Self.UserName)
	return nil
}

// Stop останавливает получение обновлений
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.poller.StopReceivingUpdates()
	c.logger.Info("Telegram бот остановлен")
}

// GetUpdates возвращает канал с обновлениями
func (c *Client) GetUpdates() <-chan tgbotapi.Update {
	return c.updates
}

// SendMessage отправляет текст с опциональной клавиатурой.
func (c *Client) SendMessage(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("отправка сообщения: %w", err)
	}
	return nil
}

type Invoice struct {
	ChatID         int64
	Title          string
	Description    string
	Payload        string
	Currency       string
	Label          string
	Amount         int
	StartParameter string
}

// SendInvoice выставляет счёт. Для Telegram Stars provider token пустой.
func (c *Client) SendInvoice(inv Invoice) error {
	cfg := tgbotapi.NewInvoice(
		inv.ChatID,
		inv.Title,
		inv.Description,
		inv.Payload,
		"",
		inv.StartParameter,
		inv.Currency,
		[]tgbotapi.LabeledPrice{{Label: inv.Label, Amount: inv.Amount}},
	)
	// nil is serialized as null and rejected by the Bot API
	cfg.SuggestedTipAmounts = []int{}

	if _, err := c.api.Send(cfg); err != nil {
		return fmt.Errorf("отправка счёта: %w", err)
	}
	return nil
}

// AnswerPreCheckout подтверждает или отклоняет pre-checkout запрос.
func (c *Client) AnswerPreCheckout(queryID string, ok bool, errorMessage string) error {
	cfg := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: queryID,
		OK:                 ok,
		ErrorMessage:       errorMessage,
	}

	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("ответ на pre-checkout: %w", err)
	}
	return nil
}

// SetCommands устанавливает меню команд бота
func (c *Client) SetCommands(commands ...tgbotapi.BotCommand) error {
	if _, err := c.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		return fmt.Errorf("установка команд: %w", err)
	}
	return nil
}
