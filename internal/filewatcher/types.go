package filewatcher

import "time"

// Tipos de FileEvent
const (
	EventChanged = "changed"
	EventRemoved = "removed"
)

// FileEvent representa uma mudança num arquivo monitorado
type FileEvent struct {
	Type      string            `json:"type"`      // "changed" | "removed"
	Path      string            `json:"path"`      // Caminho do arquivo alterado
	Timestamp time.Time         `json:"timestamp"` // Quando o evento ocorreu
	Details   map[string]string `json:"details"`   // digest do conteúdo quando existe
}

// IFileWatcher define a interface do serviço de monitoramento de arquivos
type IFileWatcher interface {
	// Watch inicia o monitoramento de um arquivo
	Watch(path string) error

	// Unwatch para o monitoramento de um arquivo
	Unwatch(path string) error

	// OnChange registra um handler para receber eventos
	OnChange(handler func(event FileEvent))

	// Close encerra todos os watchers
	Close() error
}
