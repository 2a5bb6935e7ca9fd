package config

import "time"

// Default returns a configuration usable without any file.
func Default() *Config {
	c := &Config{Environment: "development"}

	c.Server.Port = 8000
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.AllowOrigins = []string{"*"}
	c.Server.RateLimit.Limit = 60
	c.Server.RateLimit.Window = time.Minute

	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.Output = "stdout"

	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"

	c.Strategy.Symbol = "FTSEMIB.MI"
	c.Strategy.IndexSymbol = "SPY"
	c.Strategy.VolSymbol = "^VIX"
	c.Strategy.Period = "1y"
	c.Strategy.Limit = 1200
	c.Strategy.CostBps = 2
	c.Strategy.AllowedWeekdays = []int{0, 1, 2, 3}
	c.Strategy.VolumeWindow = 20

	c.MarketData.BaseURL = "https://query1.finance.yahoo.com"
	c.MarketData.Timeout = 15 * time.Second
	c.MarketData.UserAgent = "Mozilla/5.0 (compatible; QuantSuperior/1.0)"
	c.MarketData.CacheTTL = 5 * time.Minute

	c.Schedule.Hour = 17
	c.Schedule.Minute = 30
	c.Schedule.Timezone = "Europe/Rome"

	c.Notify.Transport = TransportDirect
	c.Notify.SMTP.Host = "smtp.gmail.com"
	c.Notify.SMTP.Port = 587

	c.Cache.MemoryMaxSize = 256
	c.Cache.Redis.Addr = "localhost:6379"
	c.Cache.Redis.Prefix = "qs"

	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "quant"
	c.ClickHouse.User = "default"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 10 * time.Second
	c.ClickHouse.WriteTimeout = 10 * time.Second

	c.Kafka.SignalTopic = "quant.signals"
	c.Kafka.LogTopic = "quant.logs"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "snappy"
	c.Kafka.Producer.MaxAttempts = 5
	c.Kafka.Producer.BatchTimeout = 10 * time.Millisecond
	c.Kafka.Producer.WriteTimeout = 10 * time.Second
	c.Kafka.Consumer.GroupID = "quant-alerts"
	c.Kafka.Consumer.Workers = 1
	c.Kafka.Consumer.RetryMax = 3
	c.Kafka.Consumer.BackoffMin = 200 * time.Millisecond
	c.Kafka.Consumer.BackoffMax = 5 * time.Second

	c.Queue.Name = "signals"
	c.Queue.Workers = 1
	c.Queue.MaxRetries = 3
	c.Queue.PollInterval = time.Second
	return c
}
