package database

import "time"

// sessionSnapshotID é a linha única da tabela session_snapshots
const sessionSnapshotID = 1

// SessionSnapshot é a parte persistida da sessão: {user, isAuthenticated}.
// Tokens nunca passam por aqui; ficam no token store.
type SessionSnapshot struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserJSON        string    `gorm:"type:text" json:"userJson,omitempty"`
	IsAuthenticated bool      `gorm:"default:false" json:"isAuthenticated"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AuthEvent registra eventos de sessão (login, logout, expiração)
type AuthEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"index" json:"userId"`
	Action    string    `gorm:"index;not null" json:"action"` // "login" | "register" | "oauth" | "logout" | "expired"
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// Ações de AuthEvent
const (
	ActionLogin    = "login"
	ActionRegister = "register"
	ActionOAuth    = "oauth"
	ActionLogout   = "logout"
	ActionExpired  = "expired"
)
