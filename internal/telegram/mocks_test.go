package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"zemo-bot/internal/broadcast"
	"zemo-bot/internal/delivery"
	tgclient "zemo-bot/internal/infra/telegram"
	"zemo-bot/internal/localization"
	"zemo-bot/internal/stories/payment"
	"zemo-bot/internal/stories/profiles"
	"zemo-bot/internal/stories/subs"
	"zemo-bot/internal/telegram/states"
)

type sentMessage struct {
	ChatID int64
	Text   string
	Markup interface{}
}

type botMock struct {
	mu         sync.Mutex
	messages   []sentMessage
	invoices   []tgclient.Invoice
	preChecked []string
	failFor    map[int64]error
}

func (m *botMock) SendMessage(chatID int64, text string, markup interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[chatID]; err != nil {
		return err
	}
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (m *botMock) SendInvoice(inv tgclient.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *botMock) AnswerPreCheckout(queryID string, ok bool, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.preChecked = append(m.preChecked, queryID)
	}
	return nil
}

func (m *botMock) textsFor(chatID int64) []string {
	var texts []string
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

type executorMock struct {
	targets []delivery.Target
}

func (e *executorMock) Execute(ctx context.Context, target delivery.Target, call func(ctx context.Context) error) error {
	e.targets = append(e.targets, target)
	return call(ctx)
}

type subsMock struct {
	calls  []string
	reply  *subs.Reply
	err    error
	record *subs.Record
}

func (m *subsMock) result(call string) (*subs.Reply, error) {
	m.calls = append(m.calls, call)
	return m.reply, m.err
}

func (m *subsMock) OnContact(_ context.Context, _ int64, locale string) (*subs.Reply, error) {
	return m.result("contact:" + locale)
}

func (m *subsMock) OnStart(_ context.Context, _ int64, locale string) (*subs.Reply, error) {
	return m.result("start:" + locale)
}

func (m *subsMock) OnStop(context.Context, int64) (*subs.Reply, error) {
	return m.result("stop")
}

func (m *subsMock) OnTrialRequest(context.Context, int64) (*subs.Reply, error) {
	return m.result("trial")
}

func (m *subsMock) Status(_ context.Context, chatID int64) (*subs.Record, subs.State, error) {
	if m.record != nil {
		return m.record, subs.StateStopped, nil
	}
	return &subs.Record{ChatID: chatID}, subs.StateNoEntitlement, nil
}

type paymentMock struct {
	got   []payment.Payment
	reply *subs.Reply
	err   error
}

func (m *paymentMock) ProcessSuccessful(_ context.Context, p payment.Payment) (*subs.Reply, error) {
	m.got = append(m.got, p)
	return m.reply, m.err
}

type profilesMock struct {
	profile *profiles.Profile
}

func (m *profilesMock) Get(context.Context, int64) (*profiles.Profile, error) {
	return m.profile, nil
}

type broadcasterMock struct {
	job *broadcast.Job
	res broadcast.Result
	ran bool
}

func (m *broadcasterMock) Prepare(_ context.Context, text string) (*broadcast.Job, error) {
	if text == "" {
		return nil, broadcast.ErrEmptyText
	}
	m.job.Text = text
	return m.job, nil
}

func (m *broadcasterMock) Run(context.Context, *broadcast.Job) (broadcast.Result, error) {
	m.ran = true
	return m.res, nil
}

type statsMock struct {
	chats []int64
}

func (m *statsMock) Execute(_ context.Context, chatID int64) error {
	m.chats = append(m.chats, chatID)
	return nil
}

type paymentsCmdMock struct {
	args []string
}

func (m *paymentsCmdMock) Execute(_ context.Context, _ int64, args string) error {
	m.args = append(m.args, args)
	return nil
}

type routerFixture struct {
	router      *Router
	states      *states.Manager
	stats       *statsMock
	paymentsCmd *paymentsCmdMock
	bot         *botMock
	exec        *executorMock
	subs        *subsMock
	payments    *paymentMock
	profiles    *profilesMock
	broadcaster *broadcasterMock
	tr          *localization.Service
}

const testSupportChat = int64(-100500)

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	tr, err := localization.NewService()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &routerFixture{
		bot:         &botMock{failFor: map[int64]error{}},
		exec:        &executorMock{},
		subs:        &subsMock{},
		payments:    &paymentMock{},
		profiles:    &profilesMock{},
		broadcaster: &broadcasterMock{job: &broadcast.Job{ID: "job-1", Recipients: []int64{1, 2, 3}}},
		states:      states.NewManager(time.Minute),
		stats:       &statsMock{},
		paymentsCmd: &paymentsCmdMock{},
		tr:          tr,
	}

	sender := NewSender(f.bot, f.exec, tr, logger)
	f.router = NewRouter(f.subs, f.payments, f.profiles, f.broadcaster, f.states, f.stats, f.paymentsCmd,
		sender, tr, testSupportChat, logger)
	f.router.async = func(fn func()) { fn() }
	return f
}

func privateMessage(chatID int64, text string) *tgbotapi.Update {
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: chatID, FirstName: "Nino", LanguageCode: "en-US"},
		Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:      text,
	}}
}

func withCommand(u *tgbotapi.Update) *tgbotapi.Update {
	length := len(u.Message.Text)
	for i, c := range u.Message.Text {
		if c == ' ' {
			length = i
			break
		}
	}
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	return u
}

var errBlocked = errors.New("Forbidden: bot was blocked by the user")
