package logger

import (
	"fmt"
	"strings"

	wailslogger "github.com/wailsapp/wails/v2/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New cria o logger raiz do app. Em modo dev usa o encoder de console.
func New(level string, dev bool) (*zap.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// OrNop evita checagens de nil nos services.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func parseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// WailsAdapter expõe o zap através da interface de logger do Wails.
type WailsAdapter struct {
	log *zap.Logger
}

var _ wailslogger.Logger = (*WailsAdapter)(nil)

func NewWailsAdapter(log *zap.Logger) *WailsAdapter {
	return &WailsAdapter{log: OrNop(log).Named("wails")}
}

func (w *WailsAdapter) Print(message string)   { w.log.Info(message) }
func (w *WailsAdapter) Trace(message string)   { w.log.Debug(message) }
func (w *WailsAdapter) Debug(message string)   { w.log.Debug(message) }
func (w *WailsAdapter) Info(message string)    { w.log.Info(message) }
func (w *WailsAdapter) Warning(message string) { w.log.Warn(message) }
func (w *WailsAdapter) Error(message string)   { w.log.Error(message) }
func (w *WailsAdapter) Fatal(message string)   { w.log.Fatal(message) }
