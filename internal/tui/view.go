package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/inkpot/folio/internal/assistant"
	"github.com/inkpot/folio/internal/book"
	"github.com/inkpot/folio/internal/locale"
	"github.com/inkpot/folio/internal/session"
)

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	taglineStyle       = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("147"))
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	currentLineStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	inertEntryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	userLabelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantLabel     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
)

// themeStyles maps the persisted theme name onto a content foreground.
var themeStyles = map[string]lipgloss.Style{
	"light": lipgloss.NewStyle(),
	"sepia": lipgloss.NewStyle().Foreground(lipgloss.Color("137")),
	"dark":  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	"night": lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
}

var borderStyles = map[string]lipgloss.Border{
	"style1": lipgloss.NormalBorder(),
	"style2": lipgloss.RoundedBorder(),
	"style3": lipgloss.DoubleBorder(),
	"style4": lipgloss.ThickBorder(),
}

func (m *model) View() string {
	switch m.stage {
	case stageWelcome:
		return m.viewWelcome()
	case stageLoading:
		return m.viewLoading()
	case stageReading:
		return m.viewReading()
	default:
		return ""
	}
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("folio"),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) viewWelcome() string {
	form := strings.Builder{}
	form.WriteString(sectionHeaderStyle.Render(m.t(locale.MsgWelcome)))
	form.WriteRune('\n')
	m.pathInput.Placeholder = m.t(locale.MsgOpenPrompt)
	form.WriteString(m.pathInput.View())
	return joinNonEmpty([]string{m.heroView(), form.String(), m.noticeView()})
}

func (m *model) viewLoading() string {
	body := fmt.Sprintf("%s %s", m.spinner.View(), m.t(locale.MsgLoading))
	return joinNonEmpty([]string{m.heroView(), body, m.noticeView()})
}

func (m *model) viewReading() string {
	m.refreshContentIfDirty()
	parts := []string{m.readingHeader()}
	switch m.panel {
	case panelTOC:
		parts = append(parts, m.tocView())
	case panelSettings:
		parts = append(parts, m.settingsView())
	case panelAssistant:
		parts = append(parts, m.assistantView())
	case panelChat:
		parts = append(parts, m.chatView())
	case panelSeek:
		parts = append(parts, m.seekView())
	case panelHelp:
		parts = append(parts, m.helpView())
	default:
		parts = append(parts, m.contentView())
	}
	parts = append(parts, m.statusBar(), m.noticeView())
	return joinNonEmpty(parts)
}

func (m *model) readingHeader() string {
	doc := m.sess.Document()
	author := doc.Author()
	if author == "" {
		author = m.t(locale.MsgUnknownAuthor)
	}
	return titleStyle.Render(doc.Title()) + helperStyle.Render("  ·  "+author)
}

func (m *model) contentView() string {
	body := m.viewport.View()
	prefs := m.config.Store.Current()
	if prefs.DecorativeBorders {
		border, ok := borderStyles[prefs.BorderStyle]
		if !ok {
			border = lipgloss.NormalBorder()
		}
		body = lipgloss.NewStyle().Border(border).Padding(0, 1).Render(body)
	}
	return body
}

func (m *model) statusBar() string {
	navigator := m.sess.Navigator()
	stats := []string{m.positionLabel(), fmt.Sprintf("%d%%", navigator.Progress())}
	if m.anyJobRunning() {
		stats = append(stats, fmt.Sprintf("%s %s", m.spinner.View(), m.runningJobLabel()))
	}
	stats = append(stats, string(m.config.Store.Language()))
	return statusBarStyle.Render(strings.Join(stats, "  ·  "))
}

func (m *model) runningJobLabel() string {
	for kind := range m.runningJobs {
		return string(kind)
	}
	return ""
}

func (m *model) positionLabel() string {
	navigator := m.sess.Navigator()
	switch m.sess.Document().(type) {
	case *book.Chapters:
		return fmt.Sprintf("%d/%d", navigator.Position()+1, navigator.Units())
	case *book.Paged:
		return fmt.Sprintf("%d/%d", navigator.Position(), navigator.Units())
	default:
		return fmt.Sprintf("%d/%d", navigator.Position(), navigator.Units())
	}
}

func (m *model) noticeView() string {
	if m.notice.text == "" {
		return ""
	}
	if m.notice.isErr {
		return errorStyle.Render(m.notice.text)
	}
	return helperStyle.Render(m.notice.text)
}

func (m *model) tocView() string {
	b := strings.Builder{}
	b.WriteString(sectionHeaderStyle.Render("Contents"))
	b.WriteRune('\n')
	if len(m.tocEntries) == 0 {
		b.WriteString(helperStyle.Render(m.t(locale.MsgNoTOC)))
		return b.String()
	}
	start, end := windowBounds(m.tocCursor, len(m.tocEntries), m.viewport.Height)
	for i := start; i < end; i++ {
		entry := m.tocEntries[i]
		line := strings.Repeat("  ", entry.Level) + entry.Title
		switch {
		case i == m.tocCursor:
			line = currentLineStyle.Render("▸ " + line)
		case entry.Activate == nil:
			line = inertEntryStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteRune('\n')
	}
	return b.String()
}

// windowBounds keeps the cursor visible inside a fixed-height list.
func windowBounds(cursor, total, height int) (int, int) {
	if height < 3 {
		height = 3
	}
	if total <= height {
		return 0, total
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > total {
		end = total
		start = end - height
	}
	return start, end
}

func (m *model) settingsView() string {
	prefs := m.config.Store.Current()
	values := map[string]string{
		"fontSize":              fmt.Sprintf("%d", prefs.FontSize),
		"lineHeight":            fmt.Sprintf("%.1f", prefs.LineHeight),
		"fontFamily":            prefs.FontFamily,
		"readingWidth":          prefs.ReadingWidth,
		"theme":                 prefs.Theme,
		"alignment":             prefs.Alignment,
		"decorativeBorders":     onOff(prefs.DecorativeBorders),
		"borderStyle":           prefs.BorderStyle,
		"backgroundOpacity":     fmt.Sprintf("%d%%", prefs.BackgroundOpacity),
		"frostedGlass":          onOff(prefs.FrostedGlass),
		"frostedGlassIntensity": fmt.Sprintf("%d", prefs.FrostedGlassIntensity),
		"language":              string(m.config.Store.Language()),
	}
	b := strings.Builder{}
	b.WriteString(sectionHeaderStyle.Render("Settings"))
	b.WriteRune('\n')
	for i, field := range settingsFields {
		line := fmt.Sprintf("%-22s %s", field, values[field])
		if i == m.settingsCursor {
			line = currentLineStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteRune('\n')
	}
	b.WriteString(helperStyle.Render("←/→ adjust · d defaults · Esc close"))
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m *model) assistantView() string {
	wrap := m.wrapWidth()
	b := strings.Builder{}
	b.WriteString(sectionHeaderStyle.Render("Reading Assistant"))
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("1 book summary · 2 chapter summaries · 3 content analysis · r regenerate · Esc close"))
	b.WriteRune('\n')
	b.WriteRune('\n')

	pending := m.sess.InFlight(session.FeatureBookSummary) ||
		m.sess.InFlight(session.FeatureChapterSummaries) ||
		m.sess.InFlight(session.FeatureContentAnalysis)
	if pending {
		b.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(), m.t(locale.MsgGenerating)))
	}

	if value, ok := m.sess.Cached(session.FeatureBookSummary); ok {
		if summary, ok := value.(string); ok {
			b.WriteString(sectionHeaderStyle.Render("Summary"))
			b.WriteRune('\n')
			b.WriteString(wordwrap.String(summary, wrap))
			b.WriteString("\n\n")
		}
	}
	if value, ok := m.sess.Cached(session.FeatureChapterSummaries); ok {
		if items, ok := value.([]assistant.ChapterSummary); ok {
			b.WriteString(sectionHeaderStyle.Render("Chapters"))
			b.WriteRune('\n')
			for _, item := range items {
				b.WriteString(currentLineStyle.Render(item.Title))
				b.WriteRune('\n')
				b.WriteString(wordwrap.String(item.Summary, wrap))
				b.WriteString("\n\n")
			}
		}
	}
	if value, ok := m.sess.Cached(session.FeatureContentAnalysis); ok {
		if analysis, ok := value.(string); ok {
			b.WriteString(sectionHeaderStyle.Render("Analysis"))
			b.WriteRune('\n')
			b.WriteString(wordwrap.String(analysis, wrap))
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m *model) chatView() string {
	wrap := m.wrapWidth()
	b := strings.Builder{}
	b.WriteString(sectionHeaderStyle.Render("Chat"))
	b.WriteRune('\n')
	transcript := m.sess.Transcript()
	if len(transcript) == 0 {
		b.WriteString(helperStyle.Render(m.t(locale.MsgChatEmpty)))
		b.WriteRune('\n')
	}
	for _, message := range transcript {
		label := userLabelStyle.Render("You")
		if message.Role == assistant.RoleAssistant {
			label = assistantLabel.Render("Assistant")
		}
		b.WriteString(label)
		b.WriteRune('\n')
		b.WriteString(wordwrap.String(message.Content, wrap))
		b.WriteString("\n\n")
	}
	if m.sess.InFlight(session.FeatureChat) {
		b.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(), m.t(locale.MsgThinking)))
	}
	b.WriteString(m.chatInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Enter send · Ctrl+L clear · Esc close"))
	return b.String()
}

func (m *model) seekView() string {
	b := strings.Builder{}
	b.WriteString(sectionHeaderStyle.Render(m.t(locale.MsgSeekPrompt)))
	b.WriteRune('\n')
	b.WriteString(m.seekInput.View())
	return b.String()
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("Keys"),
		helperStyle.Render("←/→ or h/l  previous / next"),
		helperStyle.Render("↑/↓ or k/j  scroll"),
		helperStyle.Render("g/G         start / end"),
		helperStyle.Render("%           jump to percent"),
		helperStyle.Render("t           table of contents"),
		helperStyle.Render("s           settings"),
		helperStyle.Render("a           reading assistant"),
		helperStyle.Render("c           chat"),
		helperStyle.Render("L           toggle language"),
		helperStyle.Render("o           open another book"),
		helperStyle.Render("q           quit"),
	}
	return strings.Join(lines, "\n")
}

// wrapWidth derives the text column from the reading-width preference, capped
// by the viewport.
func (m *model) wrapWidth() int {
	widths := map[string]int{"narrow": 56, "medium": 72, "wide": 92}
	width, ok := widths[m.config.Store.Current().ReadingWidth]
	if !ok {
		width = m.viewport.Width
	}
	if width > m.viewport.Width {
		width = m.viewport.Width
	}
	if width < 20 {
		width = 20
	}
	return width
}

// lineSpacing converts the line-height preference into blank lines between
// rendered rows. Terminal cells cannot scale, so anything at or above double
// spacing gets one blank row.
func (m *model) lineSpacing() int {
	if m.config.Store.Current().LineHeight >= 2.0 {
		return 1
	}
	return 0
}

func (m *model) contentStyle() lipgloss.Style {
	prefs := m.config.Store.Current()
	style, ok := themeStyles[prefs.Theme]
	if !ok {
		style = lipgloss.NewStyle()
	}
	if prefs.Alignment == "center" {
		style = style.Width(m.wrapWidth()).Align(lipgloss.Center)
	}
	return style
}

// refreshContentIfDirty rebuilds the viewport content from the current unit
// and display preferences.
func (m *model) refreshContentIfDirty() {
	if !m.contentDirty {
		return
	}
	m.contentDirty = false
	doc := m.sess.Document()
	if doc == nil {
		m.viewport.SetContent("")
		return
	}
	switch d := doc.(type) {
	case *book.Chapters:
		m.renderChapter(d)
	case *book.Paged:
		m.renderPage(d)
	case *book.FlatText:
		m.renderFlat(d)
	}
}

func (m *model) renderChapter(doc *book.Chapters) {
	idx := m.sess.Navigator().Position()
	if idx < 0 || idx >= len(doc.List) {
		m.viewport.SetContent("")
		return
	}
	chapter := doc.List[idx]
	body := m.renderLines(chapter.Text)
	content := sectionHeaderStyle.Render(chapter.Title) + "\n\n" + body
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

func (m *model) renderPage(doc *book.Paged) {
	page := m.sess.Navigator().Position()
	text, err := doc.PageText(page)
	if err != nil {
		m.viewport.SetContent(helperStyle.Render(m.t(locale.MsgCorruptFile)))
		m.viewport.GotoTop()
		return
	}
	m.viewport.SetContent(m.renderLines(text))
	m.viewport.GotoTop()
}

// renderFlat wraps the whole document and records the rendered offset of each
// raw content line for TOC activation, then re-feeds the scroll extent to the
// navigator.
func (m *model) renderFlat(doc *book.FlatText) {
	wrap := m.wrapWidth()
	spacing := m.lineSpacing()
	style := m.contentStyle()

	rawLines := strings.Split(doc.Content, "\n")
	offsets := make([]int, len(rawLines))
	var rendered []string
	for i, raw := range rawLines {
		offsets[i] = len(rendered)
		wrapped := strings.Split(wordwrap.String(raw, wrap), "\n")
		for _, line := range wrapped {
			rendered = append(rendered, style.Render(line))
		}
		for s := 0; s < spacing; s++ {
			rendered = append(rendered, "")
		}
	}
	m.flatOffsets = offsets
	m.flatLineCount = len(rendered)
	m.viewport.SetContent(strings.Join(rendered, "\n"))

	if flat := m.flatNav(); flat != nil {
		flat.SetExtent(len(rendered), m.viewport.Height)
		m.viewport.SetYOffset(flat.Position())
	}
}

// renderLines styles a block of unit text for display.
func (m *model) renderLines(text string) string {
	wrap := m.wrapWidth()
	spacing := m.lineSpacing()
	style := m.contentStyle()
	var rendered []string
	for _, raw := range strings.Split(text, "\n") {
		for _, line := range strings.Split(wordwrap.String(raw, wrap), "\n") {
			rendered = append(rendered, style.Render(line))
		}
		for s := 0; s < spacing; s++ {
			rendered = append(rendered, "")
		}
	}
	return strings.Join(rendered, "\n")
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}
