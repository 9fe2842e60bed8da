// Package settings persists the reader's display preferences and language
// choice as JSON blobs under the user config directory. Loading is total:
// missing or corrupt data falls back to defaults instead of failing.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inkpot/folio/internal/locale"
)

const (
	settingsFile = "settings.json"
	languageFile = "language"

	// CurrentSchemaVersion guards against silent corruption across field
	// renames; blobs with a newer version than we understand reload as defaults.
	CurrentSchemaVersion = 1

	MinFontSize = 12
	MaxFontSize = 32
)

// Settings holds every user-adjustable display preference.
type Settings struct {
	SchemaVersion         int     `json:"schemaVersion"`
	FontSize              int     `json:"fontSize"`
	LineHeight            float64 `json:"lineHeight"`
	FontFamily            string  `json:"fontFamily"`
	ReadingWidth          string  `json:"readingWidth"`
	Theme                 string  `json:"theme"`
	Alignment             string  `json:"alignment"`
	DecorativeBorders     bool    `json:"decorativeBorders"`
	BorderStyle           string  `json:"borderStyle"`
	CustomBackground      string  `json:"customBackground,omitempty"`
	BackgroundOpacity     int     `json:"backgroundOpacity"`
	FrostedGlass          bool    `json:"frostedGlass"`
	FrostedGlassIntensity int     `json:"frostedGlassIntensity"`
}

// Defaults returns the out-of-the-box settings.
func Defaults() Settings {
	return Settings{
		SchemaVersion:         CurrentSchemaVersion,
		FontSize:              18,
		LineHeight:            1.8,
		FontFamily:            "sans-serif",
		ReadingWidth:          "medium",
		Theme:                 "light",
		Alignment:             "justify",
		DecorativeBorders:     false,
		BorderStyle:           "style1",
		BackgroundOpacity:     100,
		FrostedGlass:          false,
		FrostedGlassIntensity: 10,
	}
}

var validThemes = map[string]bool{"light": true, "sepia": true, "dark": true, "night": true}
var validWidths = map[string]bool{"narrow": true, "medium": true, "wide": true, "full": true}
var validFamilies = map[string]bool{"serif": true, "sans-serif": true, "monospace": true}
var validAlignments = map[string]bool{"left": true, "justify": true, "center": true}

// Clamp forces every field back into its valid domain, substituting the
// default for unrecognized enum values.
func (s Settings) Clamp() Settings {
	defaults := Defaults()
	if s.FontSize < MinFontSize {
		s.FontSize = MinFontSize
	}
	if s.FontSize > MaxFontSize {
		s.FontSize = MaxFontSize
	}
	if s.LineHeight <= 0 {
		s.LineHeight = defaults.LineHeight
	}
	if !validFamilies[s.FontFamily] {
		s.FontFamily = defaults.FontFamily
	}
	if !validWidths[s.ReadingWidth] {
		s.ReadingWidth = defaults.ReadingWidth
	}
	if !validThemes[s.Theme] {
		s.Theme = defaults.Theme
	}
	if !validAlignments[s.Alignment] {
		s.Alignment = defaults.Alignment
	}
	if s.BorderStyle == "" {
		s.BorderStyle = defaults.BorderStyle
	}
	if s.BackgroundOpacity < 0 {
		s.BackgroundOpacity = 0
	}
	if s.BackgroundOpacity > 100 {
		s.BackgroundOpacity = 100
	}
	if s.FrostedGlassIntensity < 0 {
		s.FrostedGlassIntensity = 0
	}
	s.SchemaVersion = CurrentSchemaVersion
	return s
}

// Observer is notified after every persisted settings change.
type Observer func(Settings)

// Store owns the settings directory and the write-through persistence cycle.
type Store struct {
	dir       string
	current   Settings
	language  locale.Lang
	observers []Observer
}

// DefaultDir resolves the per-user settings directory.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(os.TempDir(), "folio-config")
	}
	return filepath.Join(base, "folio")
}

// Open loads persisted state from dir, falling back to defaults for anything
// missing or malformed. It never fails.
func Open(dir string) *Store {
	store := &Store{dir: dir, current: Defaults(), language: locale.English}
	store.current = loadSettings(filepath.Join(dir, settingsFile))
	if data, err := os.ReadFile(filepath.Join(dir, languageFile)); err == nil {
		store.language = locale.Parse(string(data))
	}
	return store
}

func loadSettings(path string) Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults()
	}
	// Unmarshalling into a defaults-initialized struct gives per-field
	// fallback for fields absent from the blob.
	loaded := Defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return Defaults()
	}
	if loaded.SchemaVersion > CurrentSchemaVersion {
		return Defaults()
	}
	return loaded.Clamp()
}

// Current returns the active settings snapshot.
func (s *Store) Current() Settings {
	return s.current
}

// Language returns the active display language.
func (s *Store) Language() locale.Lang {
	return s.language
}

// Subscribe registers an observer invoked after every Update.
func (s *Store) Subscribe(fn Observer) {
	s.observers = append(s.observers, fn)
}

// Update applies fn to a copy of the current settings, clamps the result,
// persists it write-through, and notifies observers. The returned error is a
// persistence warning only: the in-memory update always takes effect.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	next := s.current
	fn(&next)
	next = next.Clamp()
	s.current = next
	err := s.persistSettings()
	for _, observer := range s.observers {
		observer(next)
	}
	return next, err
}

// Reset restores and persists the defaults.
func (s *Store) Reset() (Settings, error) {
	return s.Update(func(settings *Settings) {
		*settings = Defaults()
	})
}

// SetLanguage persists the display language under its own key.
func (s *Store) SetLanguage(lang locale.Lang) error {
	s.language = lang
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("settings dir unavailable: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, languageFile), []byte(lang), 0o644); err != nil {
		return fmt.Errorf("failed to persist language: %w", err)
	}
	return nil
}

func (s *Store) persistSettings() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("settings dir unavailable: %w", err)
	}
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, settingsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// Reload re-reads persisted state from disk, returning true when the settings
// changed. Used when another instance rewrote the blob (last-write-wins).
func (s *Store) Reload() bool {
	loaded := loadSettings(filepath.Join(s.dir, settingsFile))
	if loaded == s.current {
		return false
	}
	s.current = loaded
	for _, observer := range s.observers {
		observer(loaded)
	}
	return true
}

// SettingsPath reports the blob location, mainly for the change watcher.
func (s *Store) SettingsPath() string {
	return filepath.Join(s.dir, settingsFile)
}

// ErrNotWatchable reports that the settings directory cannot be watched.
var ErrNotWatchable = errors.New("settings directory cannot be watched")
