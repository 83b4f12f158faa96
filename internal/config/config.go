package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// AppName é o nome do aplicativo
	AppName = "Wishlist"

	// AppVersion é a versão atual
	AppVersion = "1.0.0"

	// AppBundleID identifica o app no keychain e no sistema
	AppBundleID = "com.wishlist.app"

	// DBFileName é o nome do arquivo SQLite
	DBFileName = "wishlist_data.db"

	// TokenFileName guarda os tokens quando o keychain não está disponível
	TokenFileName = "tokens.json"
)

// Backends suportados pelo token store
const (
	TokenBackendKeyring = "keyring"
	TokenBackendFile    = "file"
	TokenBackendMemory  = "memory"
)

// Settings reúne a configuração lida do ambiente.
type Settings struct {
	APIBaseURL         string        `env:"WISHLIST_API_URL" env-default:"http://localhost:8000/api/v1"`
	RequestTimeout     time.Duration `env:"WISHLIST_REQUEST_TIMEOUT" env-default:"30s"`
	DevMode            bool          `env:"WISHLIST_DEV" env-default:"false"`
	LogLevel           string        `env:"WISHLIST_LOG_LEVEL" env-default:"info"`
	CallbackAddr       string        `env:"WISHLIST_CALLBACK_ADDR" env-default:"127.0.0.1:9877"`
	CallbackErrorDelay time.Duration `env:"WISHLIST_CALLBACK_ERROR_DELAY" env-default:"2s"`
	TokenBackend       string        `env:"WISHLIST_TOKEN_BACKEND" env-default:"keyring"`
	DBPath             string        `env:"WISHLIST_DB_PATH"`
	ParserCacheTTL     time.Duration `env:"WISHLIST_PARSER_CACHE_TTL" env-default:"10m"`
}

// Load lê Settings das variáveis de ambiente
func Load() (*Settings, error) {
	var cfg Settings
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checa combinações que o cleanenv não cobre
func (s *Settings) Validate() error {
	if s.APIBaseURL == "" {
		return fmt.Errorf("WISHLIST_API_URL must not be empty")
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("WISHLIST_REQUEST_TIMEOUT must be positive, got %s", s.RequestTimeout)
	}
	switch s.TokenBackend {
	case TokenBackendKeyring, TokenBackendFile, TokenBackendMemory:
	default:
		return fmt.Errorf("unknown token backend %q", s.TokenBackend)
	}
	return nil
}

// DataDir retorna o diretório raiz de dados do app
func DataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+AppBundleID)
}

// DBPath retorna o caminho do arquivo SQLite
func DBPath() string {
	return filepath.Join(DataDir(), DBFileName)
}

// TokenFilePath retorna o caminho do arquivo de tokens (backend "file")
func TokenFilePath() string {
	return filepath.Join(DataDir(), TokenFileName)
}

// LogDir retorna o diretório de logs
func LogDir() string {
	return filepath.Join(DataDir(), "logs")
}

// EnsureDataDirs cria os diretórios necessários se não existirem
func EnsureDataDirs() error {
	for _, dir := range []string{DataDir(), LogDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
