package tui

import "time"

type stage int

const (
	stageWelcome stage = iota
	stageLoading
	stageReading
)

// panel selects which overlay owns the keyboard while reading. panelContent
// is the bare reading surface.
type panel int

const (
	panelContent panel = iota
	panelTOC
	panelSettings
	panelAssistant
	panelChat
	panelSeek
	panelHelp
)

const heroTagline = "A quiet place to read."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	noticeLifetime            = 5 * time.Second
)

// notice is a transient status line. Each carries a serial so a stale
// expiry tick cannot dismiss a newer notice.
type notice struct {
	serial int
	text   string
	isErr  bool
}

type noticeExpiredMsg struct {
	serial int
}

// settingsFields enumerates the rows of the settings panel in display order.
var settingsFields = []string{
	"fontSize",
	"lineHeight",
	"fontFamily",
	"readingWidth",
	"theme",
	"alignment",
	"decorativeBorders",
	"borderStyle",
	"backgroundOpacity",
	"frostedGlass",
	"frostedGlassIntensity",
	"language",
}
