package configuration

type Configuration struct {
	HttpAddr          string `usage:"HTTP address"`
	HttpsEnabled      bool   `usage:"serve HTTPS"`
	HttpsSelfsigned   bool   `usage:"use a self-signed certificate for HTTPS"`
	Dir               string `usage:"data directory"`
	DefaultCapacity   int    `usage:"capacity for tables created on first insert"`
	MaxCapacity       int    `usage:"maximum capacity per table"`
	ApiKey            string `usage:"API key, empty disables authentication"`
	ApiSecret         string `usage:"API secret"`
	EnableCompression bool   `usage:"gzip responses when the client accepts it"`
	RateLimit         int    `usage:"requests per second, 0 means unlimited"`
	RateBurst         int    `usage:"rate limiter burst"`
	LogLevel          string `usage:"log level: debug, info, warn or error"`
	Version           bool   `usage:"show version and exit"`
	ShowBanner        bool   `usage:"show big banner"`
	ShowConfig        bool   `usage:"print config"`
}

func Default() *Configuration {
	return &Configuration{
		HttpAddr:          "127.0.0.1:8080",
		HttpsEnabled:      false,
		HttpsSelfsigned:   false,
		Dir:               "data",
		DefaultCapacity:   1024,
		MaxCapacity:       1 << 24,
		EnableCompression: true,
		RateLimit:         0,
		RateBurst:         100,
		LogLevel:          "info",
		Version:           false,
		ShowBanner:        true,
		ShowConfig:        false,
	}
}
