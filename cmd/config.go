package main

type Config struct {
	DatabasePath string `env:"DATABASE_PATH,required=true" validate:"required"`
	DatabaseName string `env:"DATABASE_NAME,default=orthant"`
	Environment  string `env:"APP_ENV,default=development" validate:"oneof=development production"`
	Host         string `env:"HOST,default=localhost"`
	Port         int    `env:"PORT,default=8080" validate:"gte=1,lte=65535"`
	ChatMode     string `env:"CHAT_MODE,default=broadcast" validate:"oneof=echo broadcast"`
	LogLevel     string `env:"LOG_LEVEL,default=INFO"`
}

func (c Config) Production() bool {
	return c.Environment == "production"
}
