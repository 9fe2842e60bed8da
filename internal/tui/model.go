package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/inkpot/folio/internal/assistant"
	"github.com/inkpot/folio/internal/book"
	"github.com/inkpot/folio/internal/locale"
	"github.com/inkpot/folio/internal/nav"
	"github.com/inkpot/folio/internal/session"
	"github.com/inkpot/folio/internal/settings"
	"github.com/inkpot/folio/internal/toc"
)

// Config wires runtime collaborators into the TUI program.
type Config struct {
	// Backend is the reading-assistant client; nil disables assistant
	// features but never the reader itself.
	Backend assistant.Client
	Store   *settings.Store
	// SettingsEvents delivers a signal whenever another instance rewrites the
	// settings blob. Optional.
	SettingsEvents <-chan struct{}
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	pathInput := textinput.New()
	pathInput.Focus()
	pathInput.CharLimit = 250
	pathInput.Width = 70

	seekInput := textinput.New()
	seekInput.CharLimit = 3
	seekInput.Width = 10

	chatInput := textinput.New()
	chatInput.CharLimit = 500
	chatInput.Width = 70

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:       config,
		bus:          newJobBus(),
		sess:         session.New(),
		ingester:     &book.Ingester{Backend: config.Backend},
		stage:        stageWelcome,
		panel:        panelContent,
		pathInput:    pathInput,
		seekInput:    seekInput,
		chatInput:    chatInput,
		spinner:      spin,
		viewport:     vp,
		runningJobs:  map[jobKind]bool{},
		contentDirty: true,
	}
}

type model struct {
	config   Config
	bus      *jobBus
	sess     *session.Session
	ingester *book.Ingester

	stage stage
	panel panel

	pathInput textinput.Model
	seekInput textinput.Model
	chatInput textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model

	width  int
	height int

	notice       notice
	noticeSerial int

	runningJobs map[jobKind]bool

	tocEntries []toc.Entry
	tocCursor  int

	settingsCursor int

	// flatOffsets maps raw content line index to rendered line index for
	// flat-text documents; rebuilt on every content refresh.
	flatOffsets   []int
	flatLineCount int
	contentDirty  bool
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.config.SettingsEvents != nil {
		cmds = append(cmds, waitForSettingsChange(m.config.SettingsEvents))
	}
	return tea.Batch(cmds...)
}

// t resolves a message key in the active display language.
func (m *model) t(key string) string {
	return locale.T(m.config.Store.Language(), key)
}

func (m *model) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeSerial++
	m.notice = notice{serial: m.noticeSerial, text: text, isErr: isErr}
	return expireNoticeCmd(m.noticeSerial)
}

func (m *model) anyJobRunning() bool {
	return len(m.runningJobs) > 0
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == stageLoading || m.anyJobRunning() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.stage == stageReading && m.panel == panelContent {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			m.syncFlatFromViewport()
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		newWidth := msg.Width - viewportHorizontalPadding
		if newWidth < minViewportWidth {
			newWidth = minViewportWidth
		}
		m.viewport.Width = newWidth
		height := msg.Height - 7
		if height < 5 {
			height = 5
		}
		m.viewport.Height = height
		m.markContentDirty()
		return m, nil
	case jobSignalMsg:
		m.runningJobs[msg.Snapshot.Kind] = true
		return m, nil
	case jobResultEnvelope:
		delete(m.runningJobs, msg.Snapshot.Kind)
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case noticeExpiredMsg:
		if m.notice.serial == msg.serial {
			m.notice = notice{}
		}
		return m, nil
	case settingsReloadedMsg:
		var cmds []tea.Cmd
		if m.config.Store.Reload() {
			m.markContentDirty()
			cmds = append(cmds, m.setNotice(m.t(locale.MsgSettingsReloaded), false))
		}
		if m.config.SettingsEvents != nil {
			cmds = append(cmds, waitForSettingsChange(m.config.SettingsEvents))
		}
		return m, tea.Batch(cmds...)
	case ingestResultMsg:
		return m.handleIngestResult(msg)
	case summaryResultMsg:
		m.sess.Finish(session.FeatureBookSummary)
		if msg.err != nil {
			return m, m.setNotice(m.t(locale.MsgGenerationFailed), true)
		}
		m.sess.StoreResult(session.FeatureBookSummary, msg.summary)
		return m, m.setNotice(m.t(locale.MsgSummaryReady), false)
	case chapterSummariesMsg:
		m.sess.Finish(session.FeatureChapterSummaries)
		if msg.err != nil {
			return m, m.setNotice(m.t(locale.MsgGenerationFailed), true)
		}
		m.sess.StoreResult(session.FeatureChapterSummaries, msg.items)
		return m, m.setNotice(m.t(locale.MsgChaptersReady), false)
	case analysisResultMsg:
		m.sess.Finish(session.FeatureContentAnalysis)
		if msg.err != nil {
			return m, m.setNotice(m.t(locale.MsgGenerationFailed), true)
		}
		m.sess.StoreResult(session.FeatureContentAnalysis, msg.analysis)
		return m, m.setNotice(m.t(locale.MsgAnalysisReady), false)
	case chatResultMsg:
		m.sess.Finish(session.FeatureChat)
		if msg.err != nil {
			return m, m.setNotice(m.t(locale.MsgGenerationFailed), true)
		}
		m.sess.AppendMessage(assistant.RoleAssistant, msg.reply)
		return m, nil
	}
	return m, nil
}

func (m *model) handleIngestResult(msg ingestResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.stage = stageWelcome
		m.pathInput.Focus()
		return m, m.setNotice(m.ingestErrorText(msg.err), true)
	}
	m.sess.ReplaceDocument(msg.doc)
	m.stage = stageReading
	m.panel = panelContent
	m.tocCursor = 0
	m.settingsCursor = 0
	m.chatInput.SetValue("")
	m.markContentDirty()
	m.refreshContentIfDirty()
	m.rebuildTOC()
	title := msg.doc.Title()
	return m, m.setNotice(fmt.Sprintf(m.t(locale.MsgBookLoaded), title), false)
}

// ingestErrorText maps the ingestion error taxonomy onto localized messages.
func (m *model) ingestErrorText(err error) string {
	var ingest *book.IngestError
	format := ""
	if errors.As(err, &ingest) {
		format = ingest.Format
	}
	switch {
	case errors.Is(err, book.ErrPlannedFormat):
		return fmt.Sprintf(m.t(locale.MsgPlannedFormat), format)
	case errors.Is(err, book.ErrUnsupportedFormat):
		return m.t(locale.MsgUnsupportedFormat)
	case errors.Is(err, book.ErrProtected):
		return m.t(locale.MsgProtectedFile)
	case errors.Is(err, book.ErrBackendUnavailable):
		return m.t(locale.MsgBackendUnavailable)
	default:
		return m.t(locale.MsgCorruptFile)
	}
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageWelcome:
		return m.handleWelcomeKey(key)
	case stageLoading:
		return m, nil
	case stageReading:
		return m.handleReadingKey(key)
	default:
		return m, nil
	}
}

func (m *model) handleWelcomeKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyEsc {
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(key)
	if key.Type == tea.KeyEnter {
		path := strings.TrimSpace(m.pathInput.Value())
		if path == "" {
			return m, cmd
		}
		m.stage = stageLoading
		return m, tea.Batch(cmd, m.spinner.Tick,
			m.bus.Start(jobKindIngest, ingestBookJob(m.ingester, path)))
	}
	return m, cmd
}

func (m *model) handleReadingKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.panel {
	case panelTOC:
		return m.handleTOCKey(key)
	case panelSettings:
		return m.handleSettingsKey(key)
	case panelAssistant:
		return m.handleAssistantKey(key)
	case panelChat:
		return m.handleChatKey(key)
	case panelSeek:
		return m.handleSeekKey(key)
	case panelHelp:
		m.panel = panelContent
		return m, nil
	}
	return m.handleContentKey(key)
}

func (m *model) handleContentKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	navigator := m.sess.Navigator()
	switch key.String() {
	case "q", "esc":
		return m, tea.Quit
	case "right", "l", "pgdown", " ":
		navigator.Next()
		m.markContentDirty()
	case "left", "h", "pgup":
		navigator.Previous()
		m.markContentDirty()
	case "up", "k":
		if flat := m.flatNav(); flat != nil {
			flat.JumpTo(flat.Position() - 1)
			m.markContentDirty()
		} else {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(key)
			return m, cmd
		}
	case "down", "j":
		if flat := m.flatNav(); flat != nil {
			flat.JumpTo(flat.Position() + 1)
			m.markContentDirty()
		} else {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(key)
			return m, cmd
		}
	case "g":
		navigator.Seek(0)
		m.markContentDirty()
	case "G":
		navigator.Seek(100)
		m.markContentDirty()
	case "%":
		m.panel = panelSeek
		m.seekInput.Placeholder = m.t(locale.MsgSeekPrompt)
		m.seekInput.SetValue("")
		m.seekInput.Focus()
	case "t":
		m.rebuildTOC()
		m.tocCursor = 0
		m.panel = panelTOC
	case "s":
		m.panel = panelSettings
	case "a":
		m.panel = panelAssistant
	case "c":
		m.panel = panelChat
		m.chatInput.Placeholder = m.t(locale.MsgChatPlaceholder)
		m.chatInput.Focus()
	case "L":
		next := m.config.Store.Language().Toggle()
		if err := m.config.Store.SetLanguage(next); err != nil {
			return m, m.setNotice(fmt.Sprintf(m.t(locale.MsgSettingsSaveFailed), err), true)
		}
	case "o":
		m.stage = stageWelcome
		m.pathInput.SetValue("")
		m.pathInput.Focus()
	case "?":
		m.panel = panelHelp
	}
	return m, nil
}

func (m *model) handleTOCKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "t", "q":
		m.panel = panelContent
	case "up", "k":
		if m.tocCursor > 0 {
			m.tocCursor--
		}
	case "down", "j":
		if m.tocCursor < len(m.tocEntries)-1 {
			m.tocCursor++
		}
	case "enter":
		if m.tocCursor < len(m.tocEntries) {
			entry := m.tocEntries[m.tocCursor]
			if entry.Activate != nil {
				entry.Activate()
				m.panel = panelContent
				m.markContentDirty()
			}
		}
	}
	return m, nil
}

func (m *model) handleSettingsKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "s", "q":
		m.panel = panelContent
	case "up", "k":
		if m.settingsCursor > 0 {
			m.settingsCursor--
		}
	case "down", "j":
		if m.settingsCursor < len(settingsFields)-1 {
			m.settingsCursor++
		}
	case "left", "h":
		return m, m.adjustSetting(-1)
	case "right", "l", "enter", " ":
		return m, m.adjustSetting(1)
	case "d":
		if _, err := m.config.Store.Reset(); err != nil {
			return m, m.setNotice(fmt.Sprintf(m.t(locale.MsgSettingsSaveFailed), err), true)
		}
		m.markContentDirty()
		return m, m.setNotice(m.t(locale.MsgSettingsReset), false)
	}
	return m, nil
}

// enum cycles for the settings panel; each row steps through its domain.
var (
	widthCycle     = []string{"narrow", "medium", "wide", "full"}
	themeCycle     = []string{"light", "sepia", "dark", "night"}
	familyCycle    = []string{"serif", "sans-serif", "monospace"}
	alignmentCycle = []string{"left", "justify", "center"}
	borderCycle    = []string{"style1", "style2", "style3", "style4"}
)

func cycleValue(values []string, current string, delta int) string {
	idx := 0
	for i, v := range values {
		if v == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(values)) % len(values)
	return values[idx]
}

func (m *model) adjustSetting(delta int) tea.Cmd {
	field := settingsFields[m.settingsCursor]
	if field == "language" {
		next := m.config.Store.Language().Toggle()
		if err := m.config.Store.SetLanguage(next); err != nil {
			return m.setNotice(fmt.Sprintf(m.t(locale.MsgSettingsSaveFailed), err), true)
		}
		return nil
	}
	_, err := m.config.Store.Update(func(s *settings.Settings) {
		switch field {
		case "fontSize":
			s.FontSize += delta
		case "lineHeight":
			s.LineHeight += 0.1 * float64(delta)
		case "fontFamily":
			s.FontFamily = cycleValue(familyCycle, s.FontFamily, delta)
		case "readingWidth":
			s.ReadingWidth = cycleValue(widthCycle, s.ReadingWidth, delta)
		case "theme":
			s.Theme = cycleValue(themeCycle, s.Theme, delta)
		case "alignment":
			s.Alignment = cycleValue(alignmentCycle, s.Alignment, delta)
		case "decorativeBorders":
			s.DecorativeBorders = !s.DecorativeBorders
		case "borderStyle":
			s.BorderStyle = cycleValue(borderCycle, s.BorderStyle, delta)
		case "backgroundOpacity":
			s.BackgroundOpacity += 5 * delta
		case "frostedGlass":
			s.FrostedGlass = !s.FrostedGlass
		case "frostedGlassIntensity":
			s.FrostedGlassIntensity += delta
		}
	})
	m.markContentDirty()
	if err != nil {
		return m.setNotice(fmt.Sprintf(m.t(locale.MsgSettingsSaveFailed), err), true)
	}
	return nil
}

func (m *model) handleAssistantKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc", "a", "q":
		m.panel = panelContent
		return m, nil
	case "1":
		return m, m.startBookSummary(false)
	case "2":
		return m, m.startChapterSummaries(false)
	case "3":
		return m, m.startContentAnalysis(false)
	case "r":
		// Regenerate whichever result is already cached, freshest first.
		if _, ok := m.sess.Cached(session.FeatureContentAnalysis); ok {
			return m, m.startContentAnalysis(true)
		}
		if _, ok := m.sess.Cached(session.FeatureChapterSummaries); ok {
			return m, m.startChapterSummaries(true)
		}
		return m, m.startBookSummary(true)
	}
	return m, nil
}

func (m *model) handleChatKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.panel = panelContent
		m.chatInput.Blur()
		return m, nil
	case tea.KeyCtrlL:
		m.sess.ClearTranscript()
		return m, m.setNotice(m.t(locale.MsgChatCleared), false)
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(key)
	if key.Type == tea.KeyEnter {
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" {
			return m, cmd
		}
		send := m.startChat(text)
		return m, tea.Batch(cmd, send)
	}
	return m, cmd
}

func (m *model) handleSeekKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyEsc {
		m.panel = panelContent
		m.seekInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.seekInput, cmd = m.seekInput.Update(key)
	if key.Type == tea.KeyEnter {
		value := strings.TrimSpace(m.seekInput.Value())
		m.panel = panelContent
		m.seekInput.Blur()
		percent, err := strconv.Atoi(value)
		if err != nil {
			return m, cmd
		}
		m.sess.Navigator().Seek(percent)
		m.markContentDirty()
	}
	return m, cmd
}

// Assistant feature launches. Each enforces the per-feature in-flight guard
// and serves cached results without a round-trip unless forced.

func (m *model) startBookSummary(force bool) tea.Cmd {
	if m.config.Backend == nil {
		return m.setNotice(m.t(locale.MsgBackendUnavailable), true)
	}
	if force {
		m.sess.Invalidate(session.FeatureBookSummary)
	} else if _, ok := m.sess.Cached(session.FeatureBookSummary); ok {
		return nil
	}
	if cmd, ok := m.claim(session.FeatureBookSummary); !ok {
		return cmd
	}
	doc := m.sess.Document()
	runner := bookSummaryJob(m.config.Backend, doc.Title(), doc.Author(), doc.FullText(), string(m.config.Store.Language()))
	return tea.Batch(
		m.setNotice(m.t(locale.MsgGenerating), false),
		m.spinner.Tick,
		m.bus.Start(jobKindSummary, runner),
	)
}

func (m *model) startChapterSummaries(force bool) tea.Cmd {
	if m.config.Backend == nil {
		return m.setNotice(m.t(locale.MsgBackendUnavailable), true)
	}
	chapters, ok := m.sess.Document().(*book.Chapters)
	if !ok {
		return m.setNotice(m.t(locale.MsgNoChapters), true)
	}
	if force {
		m.sess.Invalidate(session.FeatureChapterSummaries)
	} else if _, cached := m.sess.Cached(session.FeatureChapterSummaries); cached {
		return nil
	}
	if cmd, claimed := m.claim(session.FeatureChapterSummaries); !claimed {
		return cmd
	}
	payload := make([]assistant.Chapter, 0, len(chapters.List))
	for _, chapter := range chapters.List {
		payload = append(payload, assistant.Chapter{Title: chapter.Title, Content: chapter.Text})
	}
	runner := chapterSummariesJob(m.config.Backend, chapters.BookTitle, payload, string(m.config.Store.Language()))
	return tea.Batch(
		m.setNotice(m.t(locale.MsgGenerating), false),
		m.spinner.Tick,
		m.bus.Start(jobKindChapters, runner),
	)
}

const analysisContentLimit = 12000

func (m *model) startContentAnalysis(force bool) tea.Cmd {
	if m.config.Backend == nil {
		return m.setNotice(m.t(locale.MsgBackendUnavailable), true)
	}
	if force {
		m.sess.Invalidate(session.FeatureContentAnalysis)
	} else if _, ok := m.sess.Cached(session.FeatureContentAnalysis); ok {
		return nil
	}
	if cmd, ok := m.claim(session.FeatureContentAnalysis); !ok {
		return cmd
	}
	doc := m.sess.Document()
	content := m.currentUnitText()
	if runes := []rune(content); len(runes) > analysisContentLimit {
		content = string(runes[:analysisContentLimit])
	}
	runner := contentAnalysisJob(m.config.Backend, doc.Title(), content, "themes", string(m.config.Store.Language()))
	return tea.Batch(
		m.setNotice(m.t(locale.MsgGenerating), false),
		m.spinner.Tick,
		m.bus.Start(jobKindAnalysis, runner),
	)
}

func (m *model) startChat(text string) tea.Cmd {
	if m.config.Backend == nil {
		return m.setNotice(m.t(locale.MsgBackendUnavailable), true)
	}
	if cmd, ok := m.claim(session.FeatureChat); !ok {
		return cmd
	}
	m.chatInput.SetValue("")
	m.sess.AppendMessage(assistant.RoleUser, text)
	doc := m.sess.Document()
	bookCtx := assistant.BookContext{
		Title:          doc.Title(),
		Author:         doc.Author(),
		CurrentChapter: m.sess.CurrentChapterTitle(),
		Language:       string(m.config.Store.Language()),
	}
	runner := chatJob(m.config.Backend, m.sess.Transcript(), bookCtx, string(m.config.Store.Language()))
	return tea.Batch(
		m.setNotice(m.t(locale.MsgThinking), false),
		m.spinner.Tick,
		m.bus.Start(jobKindChat, runner),
	)
}

// claim takes the in-flight slot for feature. On rejection it returns the
// notice command to show and false.
func (m *model) claim(feature session.Feature) (tea.Cmd, bool) {
	switch err := m.sess.Begin(feature); {
	case errors.Is(err, session.ErrNoDocument):
		return m.setNotice(m.t(locale.MsgNoDocument), true), false
	case errors.Is(err, session.ErrBusy):
		return m.setNotice(m.t(locale.MsgGenerationPending), true), false
	default:
		return nil, true
	}
}

// currentUnitText extracts the text of the unit under the cursor for content
// analysis.
func (m *model) currentUnitText() string {
	navigator := m.sess.Navigator()
	switch doc := m.sess.Document().(type) {
	case *book.Chapters:
		idx := navigator.Position()
		if idx >= 0 && idx < len(doc.List) {
			return doc.List[idx].Text
		}
	case *book.Paged:
		text, err := doc.PageText(navigator.Position())
		if err == nil {
			return text
		}
	case *book.FlatText:
		return doc.Content
	}
	return ""
}

// flatNav returns the navigator as a FlatNav when the active document is flat
// text, nil otherwise.
func (m *model) flatNav() *nav.FlatNav {
	flat, _ := m.sess.Navigator().(*nav.FlatNav)
	return flat
}

func (m *model) rebuildTOC() {
	doc := m.sess.Document()
	if doc == nil {
		m.tocEntries = nil
		return
	}
	navigator := m.sess.Navigator()
	if flat := m.flatNav(); flat != nil {
		m.refreshContentIfDirty()
		navigator = &flatLineNav{FlatNav: flat, offsets: m.flatOffsets}
	}
	m.tocEntries = toc.Build(doc, navigator)
}

// flatLineNav adapts TOC activation targets from raw content line indexes to
// rendered line offsets, which is what the flat navigator scrolls by.
type flatLineNav struct {
	*nav.FlatNav
	offsets []int
}

func (n *flatLineNav) JumpTo(raw int) {
	if raw >= 0 && raw < len(n.offsets) {
		n.FlatNav.JumpTo(n.offsets[raw])
		return
	}
	n.FlatNav.JumpTo(raw)
}

func (m *model) markContentDirty() {
	m.contentDirty = true
}

// syncFlatFromViewport pushes mouse-wheel scrolling back into the flat
// navigator so progress stays truthful.
func (m *model) syncFlatFromViewport() {
	if flat := m.flatNav(); flat != nil {
		flat.JumpTo(m.viewport.YOffset)
	}
}
