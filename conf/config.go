package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Поддерживаемые драйверы хранилища.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

var (
	configValidator = newConfigValidator()
	numberRegex     = regexp.MustCompile(`^\d+$`)
)

type Config struct {
	HTTPServConf HttpServConf `json:"httpServer" yaml:"httpServer" validate:"required"`
	Storage      StorageConf  `json:"storage" yaml:"storage"`
	DBConf       DbConf       `json:"dataBase" yaml:"dataBase" validate:"-"`
	Log          LogConf      `json:"log" yaml:"log"`
}

type HttpServConf struct {
	Host string `json:"host" yaml:"host" env:"HTTP_HOST" validate:"required"`
	Port string `json:"port" yaml:"port" env:"HTTP_PORT" validate:"required,is-number"`
}

// GetAddress возвращает строку host:port для запуска HTTP-сервера.
func (s *HttpServConf) GetAddress() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// StorageConf выбирает, где живёт журнал изменений. По умолчанию только память.
type StorageConf struct {
	Driver string `json:"driver" yaml:"driver" env:"STORAGE_DRIVER" validate:"omitempty,oneof=memory postgres"`
}

// UsePostgres сообщает, включён ли журнал в PostgreSQL.
func (s StorageConf) UsePostgres() bool {
	return s.Driver == DriverPostgres
}

type DbConf struct {
	Host     string `json:"host" yaml:"host" env:"DB_HOST" validate:"required"`
	Port     string `json:"port" yaml:"port" env:"DB_PORT" validate:"required,is-number"`
	User     string `json:"user" yaml:"user" env:"DB_USER" validate:"required"`
	Password string `json:"password" yaml:"password" env:"DB_PASSWORD" validate:"required"`
	Name     string `json:"name" yaml:"name" env:"DB_NAME" validate:"required"`
}

// DSN собирает строку подключения к PostgreSQL.
func (c *DbConf) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type LogConf struct {
	Level string `json:"level" yaml:"level" env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
}

// SlogLevel переводит уровень из конфигурации в slog.Level. Пустое значение означает info.
func (l LogConf) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MustLoad читает конфигурацию и паникует при любой ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Load читает файл конфигурации (JSON или YAML по расширению), подхватывает .env,
// применяет значения из окружения и валидирует структуру.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	// .env не обязателен, уже заданные переменные окружения он не перетирает
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("could not apply env overrides: %w", err)
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMemory
	}

	if err := configValidator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.UsePostgres() {
		if err := configValidator.Struct(cfg.DBConf); err != nil {
			return nil, fmt.Errorf("invalid dataBase config: %w", err)
		}
	}

	return &cfg, nil
}

// newConfigValidator настраивает валидатор и регистрирует пользовательские проверки.
func newConfigValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("is-number", func(fl validator.FieldLevel) bool {
		return numberRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic("failed to register is-number validation: " + err.Error())
	}
	return v
}
