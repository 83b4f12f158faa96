package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wishlist/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// maxAuthEvents limita o histórico guardado localmente
const maxAuthEvents = 200

// Service encapsula o acesso ao SQLite via GORM
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewService abre (ou cria) o banco local. override vem de WISHLIST_DB_PATH.
func NewService(override string, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("db")

	dbPath, db, err := openWritableDatabase(override)
	if err != nil {
		return nil, err
	}

	svc := &Service{db: db, log: log}
	if err := svc.migrate(); err != nil {
		return nil, err
	}

	// Definir permissão 0600 no arquivo do banco
	if err := os.Chmod(dbPath, 0600); err != nil {
		log.Warn("failed to restrict database permissions", zap.String("path", dbPath), zap.Error(err))
	}

	log.Info("database initialized", zap.String("path", dbPath))
	return svc, nil
}

// NewMemoryService cria um banco em memória (testes e backend "memory")
func NewMemoryService(log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory sqlite: %w", err)
	}
	// uma conexão só: cada conexão nova veria um banco vazio
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	svc := &Service{db: db, log: log.Named("db")}
	if err := svc.migrate(); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) migrate() error {
	if err := s.db.AutoMigrate(&SessionSnapshot{}, &AuthEvent{}); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	return nil
}

func openWritableDatabase(override string) (string, *gorm.DB, error) {
	candidates := make([]string, 0, 4)
	if override = strings.TrimSpace(override); override != "" {
		candidates = append(candidates, override)
	}
	candidates = append(candidates, config.DBPath())

	if cwd, err := os.Getwd(); err == nil && strings.TrimSpace(cwd) != "" {
		candidates = append(candidates, filepath.Join(cwd, ".wishlist", config.DBFileName))
	}
	candidates = append(candidates, filepath.Join(os.TempDir(), config.AppName, config.DBFileName))

	var lastErr error
	for _, candidate := range candidates {
		path := strings.TrimSpace(candidate)
		if path == "" {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			lastErr = err
			continue
		}

		if !isLikelyWritable(path) {
			lastErr = fmt.Errorf("path not writable: %s", path)
			continue
		}

		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			lastErr = err
			continue
		}

		sqlDB, err := db.DB()
		if err != nil {
			lastErr = err
			continue
		}

		sqlDB.Exec("PRAGMA journal_mode=WAL")
		sqlDB.Exec("PRAGMA busy_timeout=5000")
		sqlDB.Exec("PRAGMA synchronous=NORMAL")

		// Probe de escrita para evitar abrir DB readonly em ambientes sandbox.
		probeErr := db.Exec("CREATE TABLE IF NOT EXISTS _wishlist_write_probe (id INTEGER PRIMARY KEY AUTOINCREMENT)").Error
		if probeErr == nil {
			probeErr = db.Exec("INSERT INTO _wishlist_write_probe DEFAULT VALUES").Error
		}
		if probeErr == nil {
			_ = db.Exec("DELETE FROM _wishlist_write_probe").Error
		}

		if probeErr != nil {
			lastErr = probeErr
			_ = sqlDB.Close()
			continue
		}

		return path, db, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no database path candidates available")
	}

	return "", nil, fmt.Errorf("failed to open writable database: %w", lastErr)
}

func isLikelyWritable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// Close fecha a conexão com o banco
func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === SessionSnapshot ===

// LoadSessionSnapshot retorna o snapshot salvo; nil quando não existe.
func (s *Service) LoadSessionSnapshot() (*SessionSnapshot, error) {
	var snap SessionSnapshot
	err := s.db.First(&snap, sessionSnapshotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}
	return &snap, nil
}

// SaveSessionSnapshot grava (upsert) o snapshot único
func (s *Service) SaveSessionSnapshot(snap *SessionSnapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}
	snap.ID = sessionSnapshotID
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_json", "is_authenticated", "updated_at"}),
	}).Create(snap).Error
	if err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	return nil
}

// ClearSessionSnapshot remove o snapshot (exclusão de conta)
func (s *Service) ClearSessionSnapshot() error {
	return s.db.Delete(&SessionSnapshot{}, sessionSnapshotID).Error
}

// === AuthEvent ===

// RecordAuthEvent grava um evento e poda o histórico antigo
func (s *Service) RecordAuthEvent(userID int64, action, details string) error {
	if strings.TrimSpace(action) == "" {
		return fmt.Errorf("action is required")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		event := &AuthEvent{UserID: userID, Action: action, Details: details}
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		return tx.Where("id NOT IN (?)",
			tx.Model(&AuthEvent{}).Select("id").Order("id DESC").Limit(maxAuthEvents),
		).Delete(&AuthEvent{}).Error
	})
}

// ListAuthEvents retorna os eventos mais recentes primeiro
func (s *Service) ListAuthEvents(limit int) ([]AuthEvent, error) {
	if limit <= 0 || limit > maxAuthEvents {
		limit = maxAuthEvents
	}
	var events []AuthEvent
	if err := s.db.Order("id DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
