package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	API              APIHTTPConfig           `env:",prefix=API_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Redis            RedisConfig             `env:",prefix=REDIS_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
	Delivery         DeliveryConfig          `env:",prefix=DELIVERY_"`
	Subscription     SubscriptionConfig      `env:",prefix=SUBSCRIPTION_"`
	Broadcast        BroadcastConfig         `env:",prefix=BROADCAST_"`
	Workers          WorkersConfig           `env:",prefix=WORKERS_"`
}

type TelegramConfig struct {
	BotToken      string        `env:"BOT_TOKEN,required"`
	Timeout       time.Duration `env:"TIMEOUT,default=10s"`
	PollTimeout   int           `env:"POLL_TIMEOUT,default=60"`
	SupportChatID int64         `env:"SUPPORT_CHAT_ID,default=-1002977168139"`
}

// DeliveryConfig bounds outbound calls to the chat platform.
type DeliveryConfig struct {
	PerRecipientLimit int           `env:"PER_RECIPIENT_LIMIT,default=1"`
	GlobalLimit       int           `env:"GLOBAL_LIMIT,default=30"`
	Window            time.Duration `env:"WINDOW,default=1s"`
	PollInterval      time.Duration `env:"POLL_INTERVAL,default=100ms"`
	MaxAttempts       int           `env:"MAX_ATTEMPTS,default=3"`
	InitialDelay      time.Duration `env:"INITIAL_DELAY,default=1s"`
}

type SubscriptionConfig struct {
	TrialDuration   time.Duration `env:"TRIAL_DURATION,default=48h"`
	PaidPeriod      time.Duration `env:"PAID_PERIOD,default=168h"`
	InactivityTTL   time.Duration `env:"INACTIVITY_TTL,default=864h"`
	InvoiceAmount   int           `env:"INVOICE_AMOUNT,default=10000"`
	InvoiceCurrency string        `env:"INVOICE_CURRENCY,default=XTR"`
	RecordPrefix    string        `env:"RECORD_PREFIX,default=user:"`
	TrialPrefix     string        `env:"TRIAL_PREFIX,default=trial_used:"`
	IndexKey        string        `env:"INDEX_KEY,default=subscribed_users"`
}

type BroadcastConfig struct {
	Workers    int `env:"WORKERS,default=4"`
	RatePerSec int `env:"RATE_PER_SEC,default=25"`
}

type WorkersConfig struct {
	IndexSweepSchedule string `env:"INDEX_SWEEP_SCHEDULE,default=*/10 * * * *"`
	NotifyExpired      bool   `env:"NOTIFY_EXPIRED,default=true"`
}

type RedisConfig struct {
	URL          string        `env:"URL,required"`
	PoolSize     int           `env:"POOL_SIZE,default=20"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT,default=5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=3s"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type APIHTTPConfig struct {
	// Token is checked against the X-Api-Token header.
	Token        string        `env:"TOKEN,required"`
	Host         string        `env:"HOST,default=0.0.0.0"`
	Port         uint16        `env:"PORT,default=3001"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a APIHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/zemo.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
