package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkpot/folio/internal/locale"
)

func TestOpenWithoutPersistedStateUsesDefaults(t *testing.T) {
	t.Parallel()

	store := Open(filepath.Join(t.TempDir(), "missing"))
	got := store.Current()
	if got != Defaults() {
		t.Fatalf("fresh store = %+v, want defaults", got)
	}
	if store.Language() != locale.English {
		t.Fatalf("fresh language = %q, want en", store.Language())
	}
}

func TestUpdatePersistsAndRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := Open(dir)
	if _, err := store.Update(func(s *Settings) {
		s.FontSize = 22
		s.Theme = "sepia"
		s.DecorativeBorders = true
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	reopened := Open(dir)
	got := reopened.Current()
	if got.FontSize != 22 || got.Theme != "sepia" || !got.DecorativeBorders {
		t.Fatalf("round trip lost changes: %+v", got)
	}
}

func TestUpdateClampsOutOfRangeValues(t *testing.T) {
	t.Parallel()

	store := Open(t.TempDir())
	got, err := store.Update(func(s *Settings) {
		s.FontSize = 99
		s.Theme = "neon"
		s.BackgroundOpacity = -5
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FontSize != MaxFontSize {
		t.Fatalf("font size = %d, want clamped to %d", got.FontSize, MaxFontSize)
	}
	if got.Theme != "light" {
		t.Fatalf("unknown theme = %q, want default light", got.Theme)
	}
	if got.BackgroundOpacity != 0 {
		t.Fatalf("opacity = %d, want 0", got.BackgroundOpacity)
	}
}

func TestMalformedBlobFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, settingsFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	store := Open(dir)
	if store.Current() != Defaults() {
		t.Fatalf("malformed blob should load defaults, got %+v", store.Current())
	}
}

func TestPartialBlobKeepsDefaultsForMissingFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blob := `{"schemaVersion":1,"fontSize":24}`
	if err := os.WriteFile(filepath.Join(dir, settingsFile), []byte(blob), 0o644); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	store := Open(dir)
	got := store.Current()
	if got.FontSize != 24 {
		t.Fatalf("persisted field lost: %+v", got)
	}
	if got.LineHeight != Defaults().LineHeight || got.Theme != Defaults().Theme {
		t.Fatalf("missing fields should keep defaults: %+v", got)
	}
}

func TestNewerSchemaVersionLoadsDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blob := `{"schemaVersion":99,"fontSize":24}`
	if err := os.WriteFile(filepath.Join(dir, settingsFile), []byte(blob), 0o644); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	store := Open(dir)
	if store.Current() != Defaults() {
		t.Fatalf("future schema should load defaults, got %+v", store.Current())
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := Open(dir)
	if _, err := store.Update(func(s *Settings) { s.FontSize = 30 }); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := store.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if store.Current() != Defaults() {
		t.Fatalf("reset left %+v", store.Current())
	}
	if Open(dir).Current() != Defaults() {
		t.Fatalf("reset not persisted")
	}
}

func TestLanguagePersistsSeparately(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := Open(dir)
	if err := store.SetLanguage(locale.Chinese); err != nil {
		t.Fatalf("set language: %v", err)
	}
	if Open(dir).Language() != locale.Chinese {
		t.Fatalf("language not persisted")
	}
	// Language lives outside the settings blob.
	if _, err := os.Stat(filepath.Join(dir, settingsFile)); !os.IsNotExist(err) {
		t.Fatalf("setting the language should not create the settings blob")
	}
}

func TestReloadPicksUpExternalRewrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := Open(dir)
	if store.Reload() {
		t.Fatalf("reload without changes reported true")
	}

	external := Defaults()
	external.FontSize = 26
	data, err := json.Marshal(external)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, settingsFile), data, 0o644); err != nil {
		t.Fatalf("write blob: %v", err)
	}

	if !store.Reload() {
		t.Fatalf("reload after external rewrite reported false")
	}
	if store.Current().FontSize != 26 {
		t.Fatalf("reload did not adopt external value: %+v", store.Current())
	}
}

func TestObserversNotifiedOnUpdate(t *testing.T) {
	t.Parallel()

	store := Open(t.TempDir())
	var seen []int
	store.Subscribe(func(s Settings) { seen = append(seen, s.FontSize) })
	if _, err := store.Update(func(s *Settings) { s.FontSize = 20 }); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(seen) != 1 || seen[0] != 20 {
		t.Fatalf("observer calls = %v", seen)
	}
}
