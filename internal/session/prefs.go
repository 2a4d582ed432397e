package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// UI modes.
const (
	ModeLight = "light"
	ModeDark  = "dark"
)

// DefaultLanguage is used until the operator picks one.
const DefaultLanguage = "en"

// Prefs are the persisted UI preferences.
type Prefs struct {
	storage Storage
	logger  *slog.Logger

	mu       sync.RWMutex
	mode     string
	language string
}

// NewPrefs creates preferences with defaults. Call Init to load them.
func NewPrefs(storage Storage, logger *slog.Logger) *Prefs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prefs{storage: storage, logger: logger, mode: ModeLight, language: DefaultLanguage}
}

// Init loads persisted preferences, keeping defaults for missing ones.
func (p *Prefs) Init(ctx context.Context) error {
	mode, ok, err := p.storage.Get(ctx, KeyMode)
	if err != nil {
		return fmt.Errorf("load mode: %w", err)
	}
	lang, langOK, err := p.storage.Get(ctx, KeyLanguage)
	if err != nil {
		return fmt.Errorf("load language: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ok && (mode == ModeLight || mode == ModeDark) {
		p.mode = mode
	}
	if langOK && lang != "" {
		p.language = lang
	}
	return nil
}

// Mode returns light or dark.
func (p *Prefs) Mode() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mode
}

// ToggleMode flips between light and dark and persists the result.
func (p *Prefs) ToggleMode(ctx context.Context) (string, error) {
	p.mu.Lock()
	next := ModeDark
	if p.mode == ModeDark {
		next = ModeLight
	}
	p.mode = next
	p.mu.Unlock()

	if err := p.storage.Set(ctx, KeyMode, next); err != nil {
		return next, fmt.Errorf("persist mode: %w", err)
	}
	return next, nil
}

// Language returns the UI language sent as Accept-Language.
func (p *Prefs) Language() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.language
}

// SetLanguage changes and persists the language.
func (p *Prefs) SetLanguage(ctx context.Context, lang string) error {
	if lang == "" {
		return fmt.Errorf("language must not be empty")
	}
	p.mu.Lock()
	p.language = lang
	p.mu.Unlock()

	if err := p.storage.Set(ctx, KeyLanguage, lang); err != nil {
		return fmt.Errorf("persist language: %w", err)
	}
	p.logger.Debug("language changed", slog.String("language", lang))
	return nil
}
