package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

type applyMsg struct {
	fn func(*Root)
}

type clockMsg time.Time
type animateMsg time.Time

const flashTTL = 4 * time.Second

type panelKeyMap struct {
	Save      key.Binding
	Backup    key.Binding
	Snapshots key.Binding
	Stat      key.Binding
	Exp       key.Binding
	Quit      key.Binding
}

func (k panelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Backup, k.Snapshots, k.Stat, k.Exp, k.Quit}
}

func (k panelKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Save, k.Backup, k.Snapshots}, {k.Stat, k.Exp, k.Quit}}
}

// Root is the terminal front end. It owns no layout or progression
// logic; it maps terminal events to Controller calls and paints
// whatever state the controller pushed last.
type Root struct {
	theme        Theme
	ascii        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	panel     PanelState
	stats     StatsState
	level     LevelState
	snapshots []SnapshotRow
	levelErr  string

	statusFlash string
	flashedAt   time.Time

	snapshotsOpen bool
	snapIndex     int
	statIndex     int

	editingBox   string
	editOriginal string
	editBuf      []rune

	mouseDown bool

	help   help.Model
	keymap panelKeyMap
	expBar progress.Model
	logger *clog.Logger

	overlayPos float64
	overlayVel float64
	spring     harmonica.Spring

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	StyleVariant string
	MotionLevel  string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "panelforge-ui", Level: clog.WarnLevel})

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	expBar := progress.New(
		progress.WithWidth(24),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6"), lipgloss.Color("#F2D16B")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		expBar.SetSpringOptions(1000.0, 1.0)
	}

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		help:         h,
		expBar:       expBar,
		logger:       logger,
		spring:       spring,
	}
	r.keymap = panelKeyMap{
		Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "배치 저장")),
		Backup:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "백업")),
		Snapshots: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "스냅샷")),
		Stat:      key.NewBinding(key.WithKeys("+", "-"), key.WithHelp("+/-", "포인트")),
		Exp:       key.NewBinding(key.WithKeys("e", "d"), key.WithHelp("e/d", "경험치")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "종료")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), animateTickCmd())
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		if r.layout != LayoutTooSmall {
			pw, ph := panelCells(r.cols, r.rows, r.layout)
			r.dispatchController(func(c Controller) {
				c.OnLayout(float64(pw)*CellPxW, float64(ph)*CellPxH)
			})
		}
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case clockMsg:
		if r.statusFlash != "" && time.Since(r.flashedAt) > flashTTL {
			r.statusFlash = ""
		}
		return r, clockTickCmd()
	case animateMsg:
		target := 0.0
		if r.snapshotsOpen {
			target = 1.0
		}
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.overlayPos = target
		r.overlayVel = 0
		return r, nil
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.MouseMotionMsg:
		return r.handleMouseMotion(msg)
	case tea.MouseReleaseMsg:
		return r.handleMouseRelease(msg)
	case tea.MouseWheelMsg:
		return r.handleMouseWheel(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			if r.statusFlash == "" {
				r.statusFlash = "화면 복구됨"
			}
			msg := "렌더링 오류에서 복구했습니다. 로그를 확인하세요."
			view = tea.NewView(r.theme.Warn.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}
	r.layout = DetermineLayoutMode(r.cols, r.rows)

	var base string
	if r.layout == LayoutTooSmall {
		base = r.renderTooSmall()
	} else {
		base = r.renderMain()
	}

	if overlay, startRow, startCol, ok := r.renderOverlay(); ok {
		base = composeOverlayAt(base, overlay, r.cols, r.rows, startRow, startCol)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetPanel(s PanelState) {
	r.apply(func(m *Root) {
		m.panel = s
		if s.EditBox == "" {
			m.editingBox = ""
			m.editBuf = nil
			return
		}
		if s.EditBox != m.editingBox {
			m.editingBox = s.EditBox
			title := ""
			for _, b := range s.Boxes {
				if b.ID == s.EditBox {
					title = b.Title
					break
				}
			}
			m.editOriginal = title
			m.editBuf = []rune(title)
		}
	})
}

func (r *Root) SetStats(s StatsState) {
	r.apply(func(m *Root) {
		m.stats = s
		if m.statIndex >= len(s.Rows) {
			m.statIndex = max(0, len(s.Rows)-1)
		}
	})
}

func (r *Root) SetLevel(s LevelState) {
	r.apply(func(m *Root) {
		m.level = s
	})
}

func (r *Root) SetSnapshots(rows []SnapshotRow) {
	r.apply(func(m *Root) {
		m.snapshots = append([]SnapshotRow(nil), rows...)
		if m.snapIndex >= len(m.snapshots) {
			m.snapIndex = max(0, len(m.snapshots)-1)
		}
	})
}

func (r *Root) SetLevelError(msg string) {
	r.apply(func(m *Root) {
		m.levelErr = msg
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
		m.flashedAt = time.Now()
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

// canvasCell maps a terminal mouse position onto the panel canvas. The
// header occupies row 0 and the status line the last row.
func (r *Root) canvasCell(x, y int) (int, int, bool) {
	pw, ph := panelCells(r.cols, r.rows, r.layout)
	cy := y - 1
	if x < 0 || x >= pw || cy < 0 || cy >= ph {
		return 0, 0, false
	}
	return x, cy, true
}

// clampCanvasCell keeps an in-flight drag tracking even when the
// pointer leaves the canvas.
func (r *Root) clampCanvasCell(x, y int) (int, int) {
	pw, ph := panelCells(r.cols, r.rows, r.layout)
	cy := y - 1
	if x < 0 {
		x = 0
	}
	if x > pw-1 {
		x = pw - 1
	}
	if cy < 0 {
		cy = 0
	}
	if cy > ph-1 {
		cy = ph - 1
	}
	return x, cy
}

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", m.X, m.Y, m.Button))

	if m.Button != tea.MouseLeft || r.layout == LayoutTooSmall {
		return r, nil
	}
	if r.snapshotsOpen {
		return r.handleOverlayMouseClick(m.X, m.Y)
	}
	x, y, ok := r.canvasCell(m.X, m.Y)
	if !ok {
		return r, nil
	}
	r.mouseDown = true
	p := cellToPx(x, y)
	r.dispatchController(func(c Controller) { c.OnPointerDown(p) })
	return r, nil
}

func (r *Root) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if !r.mouseDown || r.snapshotsOpen {
		return r, nil
	}
	m := msg.Mouse()
	x, y := r.clampCanvasCell(m.X, m.Y)
	p := cellToPx(x, y)
	r.dispatchController(func(c Controller) { c.OnPointerMove(p) })
	return r, nil
}

func (r *Root) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if !r.mouseDown {
		return r, nil
	}
	r.mouseDown = false
	m := msg.Mouse()
	x, y := r.clampCanvasCell(m.X, m.Y)
	p := cellToPx(x, y)
	r.dispatchController(func(c Controller) { c.OnPointerUp(p) })
	return r, nil
}

func (r *Root) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if !r.snapshotsOpen || len(r.snapshots) == 0 {
		return r, nil
	}
	m := msg.Mouse()
	delta := 0
	if m.Button == tea.MouseWheelUp {
		delta = -1
	} else if m.Button == tea.MouseWheelDown {
		delta = 1
	}
	if delta == 0 {
		return r, nil
	}
	r.snapIndex += delta
	if r.snapIndex < 0 {
		r.snapIndex = 0
	}
	if r.snapIndex > len(r.snapshots)-1 {
		r.snapIndex = len(r.snapshots) - 1
	}
	return r, nil
}

func (r *Root) handleOverlayMouseClick(x, y int) (tea.Model, tea.Cmd) {
	spec, ok := r.overlaySpec()
	if !ok {
		return r, nil
	}
	if x < spec.startCol+1 || x >= spec.startCol+spec.width-1 || y < spec.startRow+1 || y >= spec.startRow+spec.height-1 {
		r.setSnapshotsOpen(false)
		return r, r.animateIfNeeded()
	}
	row := y - (spec.startRow + 1)
	if row >= 0 && row < len(r.snapshots) {
		r.snapIndex = row
		r.restoreSelected()
	}
	return r, nil
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if r.editingBox != "" {
		return r.handleEditKey(msg)
	}
	if r.snapshotsOpen {
		return r.handleOverlayKey(msg)
	}

	switch msg.Code {
	case 's':
		r.dispatchController(func(c Controller) { c.OnSaveSnapshot() })
	case 'b':
		r.dispatchController(func(c Controller) { c.OnBackupNow() })
	case 'o':
		r.setSnapshotsOpen(true)
		return r, r.animateIfNeeded()
	case tea.KeyLeft:
		r.statIndex = wrapIndex(r.statIndex-1, len(r.stats.Rows))
	case tea.KeyRight, tea.KeyTab:
		r.statIndex = wrapIndex(r.statIndex+1, len(r.stats.Rows))
	case '+', '=':
		if k, ok := r.selectedStatKey(); ok {
			r.dispatchController(func(c Controller) { c.OnStatIncrement(k) })
		}
	case '-', '_':
		if k, ok := r.selectedStatKey(); ok {
			r.dispatchController(func(c Controller) { c.OnStatDecrement(k) })
		}
	case 'e':
		r.dispatchController(func(c Controller) { c.OnAddResource(10) })
	case 'd':
		r.dispatchController(func(c Controller) { c.OnAddResource(-10) })
	case tea.KeyUp:
		next := r.level.LevelIndex + 1
		r.dispatchController(func(c Controller) { c.OnSelectLevel(next) })
	case tea.KeyDown:
		prev := max(0, r.level.LevelIndex-1)
		r.dispatchController(func(c Controller) { c.OnSelectLevel(prev) })
	case 'q':
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
	return r, nil
}

func (r *Root) handleEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	box := r.editingBox
	switch msg.Code {
	case tea.KeyEnter:
		title := string(r.editBuf)
		r.dispatchController(func(c Controller) { c.OnCommitTitle(box, title) })
		return r, nil
	case tea.KeyEsc:
		title := r.editOriginal
		r.dispatchController(func(c Controller) { c.OnCommitTitle(box, title) })
		return r, nil
	case tea.KeyBackspace:
		if len(r.editBuf) > 0 {
			r.editBuf = r.editBuf[:len(r.editBuf)-1]
		}
		return r, nil
	}
	if msg.Text != "" {
		r.editBuf = append(r.editBuf, []rune(msg.Text)...)
	}
	return r, nil
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEsc, 'q', 'o':
		r.setSnapshotsOpen(false)
		return r, r.animateIfNeeded()
	case tea.KeyUp:
		r.snapIndex = wrapIndex(r.snapIndex-1, len(r.snapshots))
	case tea.KeyDown, tea.KeyTab:
		r.snapIndex = wrapIndex(r.snapIndex+1, len(r.snapshots))
	case tea.KeyEnter:
		r.restoreSelected()
	case 's':
		r.dispatchController(func(c Controller) { c.OnSaveSnapshot() })
	case 'b':
		r.dispatchController(func(c Controller) { c.OnBackupNow() })
	}
	return r, nil
}

func (r *Root) setSnapshotsOpen(open bool) {
	r.snapshotsOpen = open
	if open {
		r.snapIndex = 0
	}
	if r.motionLevel == "off" {
		if open {
			r.overlayPos = 1
		} else {
			r.overlayPos = 0
		}
		r.overlayVel = 0
	}
}

func (r *Root) restoreSelected() {
	if len(r.snapshots) == 0 {
		return
	}
	row := r.snapshots[wrapIndex(r.snapIndex, len(r.snapshots))]
	r.setSnapshotsOpen(false)
	r.dispatchController(func(c Controller) { c.OnRestoreSnapshot(row.Kind, row.ID) })
}

func (r *Root) selectedStatKey() (string, bool) {
	if len(r.stats.Rows) == 0 {
		return "", false
	}
	return r.stats.Rows[wrapIndex(r.statIndex, len(r.stats.Rows))].Key, true
}

func (r *Root) renderTooSmall() string {
	msg := []string{
		"화면이 너무 작습니다",
		fmt.Sprintf("현재: %dx%d", r.cols, r.rows),
		fmt.Sprintf("최소: %dx%d", minCols, minRows),
		"터미널 크기를 키워 주세요.",
	}
	panel := r.drawPanel("크기 조정 필요", msg, min(44, r.cols), min(10, r.rows))
	return lipgloss.Place(r.cols, r.rows, lipgloss.Center, lipgloss.Center, panel)
}

func (r *Root) renderMain() string {
	header := r.headerText()
	status := r.statusText()
	pw, ph := panelCells(r.cols, r.rows, r.layout)

	body := r.renderPanelCanvas(pw, ph)
	if r.layout == LayoutWide {
		sidebar := r.drawPanel("능력치", r.sidebarLines(), sidebarWidth, ph)
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, sidebar)
	}
	return header + "\n" + body + "\n" + status
}

func (r *Root) renderPanelCanvas(pw, ph int) string {
	c := newCanvas(pw, ph)
	m := r.panel.Metrics

	corner := '·'
	if r.ascii {
		corner = '.'
	}
	if m.Cell > 0 {
		unit := m.Cell + m.Gap
		for gy := 0; gy <= m.Rows; gy++ {
			for gx := 0; gx <= m.Cols; gx++ {
				px := m.OriginX + float64(gx)*unit
				py := m.OriginY + float64(gy)*unit
				if gx > 0 {
					px -= m.Gap
				}
				if gy > 0 {
					py -= m.Gap
				}
				c.set(int(px/CellPxW), int(py/CellPxH), corner, &r.theme.GridCorner)
			}
		}
	}

	boxSet := roundedSet
	if r.ascii {
		boxSet = asciiSet
	}
	for _, b := range r.panel.Boxes {
		x0, y0, x1, y1 := pxRectToCells(b.Rect)
		st := &r.theme.BoxBorder
		if b.Dragging {
			st = &r.theme.Accent
		}
		c.fill(x0+1, y0+1, x1-1, y1-1, ' ', &r.theme.BoxBody)
		c.border(x0, y0, x1, y1, boxSet, st)
		title := b.Title
		if r.editingBox == b.ID {
			cursor := "▏"
			if r.ascii {
				cursor = "|"
			}
			title = string(r.editBuf) + cursor
		}
		if x1-x0 > 4 {
			c.text(x0+2, y0, trimForWidth(title, x1-x0-3), &r.theme.BoxTitle)
		}
		tag := "[" + b.SlotType + "]"
		if x1-x0 > ansi.StringWidth(tag)+3 {
			c.text(x1-ansi.StringWidth(tag)-1, y1, tag, &r.theme.Muted)
		}
	}

	for _, it := range r.panel.Items {
		x0, y0, x1, y1 := pxRectToCells(it.Rect)
		st := &r.theme.Item
		if it.Dragging {
			st = &r.theme.ItemDragging
		}
		c.fill(x0, y0, x1, y1, ' ', st)
		label := trimForWidth(it.Label, x1-x0+1)
		lx := x0 + (x1-x0+1-ansi.StringWidth(label))/2
		c.text(lx, y0+(y1-y0)/2, label, st)
	}

	if g := r.panel.Ghost; g.Active {
		x0, y0, x1, y1 := pxRectToCells(g.Rect)
		st := &r.theme.GhostOK
		if !g.Valid {
			st = &r.theme.GhostBad
		}
		set := dashedSet
		if r.ascii {
			set = asciiSet
		}
		c.border(x0, y0, x1, y1, set, st)
	}

	return c.render()
}

func (r *Root) renderOverlay() (overlay string, startRow, startCol int, ok bool) {
	progress := r.overlayPos
	if r.snapshotsOpen {
		progress = maxFloat(progress, 0.1)
	}
	if progress < 0.05 {
		return "", 0, 0, false
	}
	spec, ok := r.overlaySpec()
	if !ok {
		return "", 0, 0, false
	}
	panel := r.drawPanel(spec.title, spec.lines, spec.width, spec.height)
	// Slide in from the bottom edge toward the centered resting row.
	row := r.rows - int(float64(r.rows-spec.startRow)*progress)
	return panel, row, spec.startCol, true
}

type overlaySpec struct {
	title    string
	lines    []string
	width    int
	height   int
	startRow int
	startCol int
}

func (r *Root) overlaySpec() (overlaySpec, bool) {
	if !r.snapshotsOpen && r.overlayPos < 0.05 {
		return overlaySpec{}, false
	}
	var lines []string
	for i, row := range r.snapshots {
		prefix := "  "
		if i == r.snapIndex {
			prefix = "> "
		}
		lines = append(lines, prefix+row.Label)
	}
	if len(lines) == 0 {
		lines = []string{"저장된 스냅샷이 없습니다."}
	}
	lines = append(lines, "", "Enter: 복원  s: 저장  b: 백업  Esc: 닫기")

	w := min(max(48, r.cols/2), max(48, r.cols-8))
	h := min(len(lines)+2, max(8, r.rows-4))
	return overlaySpec{
		title:    "스냅샷",
		lines:    lines,
		width:    w,
		height:   h,
		startRow: (r.rows - h) / 2,
		startCol: (r.cols - w) / 2,
	}, true
}

func (r *Root) headerText() string {
	width := max(1, r.cols-1)
	exp := fmt.Sprintf("%.0f / %.0f", r.level.ExpInto, r.level.ReqForNext)
	if r.level.MaxLevel {
		exp = "MAX"
	}
	parts := []string{
		"PanelForge",
		fmt.Sprintf("Lv %d", r.level.Level),
		"경험치 " + exp,
		fmt.Sprintf("누적 %.0f", r.level.Total),
	}
	txt := trimForWidth(strings.Join(parts, " | "), width)
	return r.theme.Header.Width(max(1, r.cols)).Render(txt)
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if keys == "" {
		keys = "s 저장  b 백업  o 스냅샷  +/- 포인트  e/d 경험치  q 종료"
	}
	if r.levelErr != "" {
		keys = r.theme.Warn.Render(r.levelErr) + " | " + keys
	}
	if r.statusFlash != "" {
		keys += " | " + r.theme.Accent.Render(r.statusFlash)
	}
	keys = trimForWidth(keys, max(1, r.cols-1))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) sidebarLines() []string {
	lines := make([]string, 0, len(r.stats.Rows)+12)
	for i, row := range r.stats.Rows {
		prefix := "  "
		if i == r.statIndex {
			prefix = "> "
		}
		lines = append(lines, fmt.Sprintf("%s%s  %d", prefix, row.Key, row.Points))
	}
	lines = append(lines, "", fmt.Sprintf("남은 포인트 %d / %d", r.stats.Remaining, r.stats.Total))
	lines = append(lines, "", fmt.Sprintf("레벨 %d", r.level.Level))
	if r.level.MaxLevel {
		lines = append(lines, "경험치 MAX")
	} else {
		lines = append(lines, fmt.Sprintf("경험치 %.0f / %.0f", r.level.ExpInto, r.level.ReqForNext))
	}
	lines = append(lines, r.expBarLine(), fmt.Sprintf("누적 %.0f", r.level.Total))
	if r.levelErr != "" {
		lines = append(lines, "", trimForWidth(r.levelErr, sidebarWidth-4))
	}
	lines = append(lines, "", "o 스냅샷  s 저장  b 백업", "+/- 포인트  e/d 경험치")
	return lines
}

func (r *Root) expBarLine() string {
	pct := 0.0
	if r.level.MaxLevel {
		pct = 1.0
	} else if r.level.ReqForNext > 0 {
		pct = r.level.ExpInto / r.level.ReqForNext
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	m := r.expBar
	m.SetWidth(max(8, sidebarWidth-6))
	return m.ViewAs(pct)
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.BoxBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padRune(line, innerW)
		out = append(out, r.theme.BoxBorder.Render(v)+r.theme.BoxBody.Render(line)+r.theme.BoxBorder.Render(v))
	}
	out = append(out, r.theme.BoxBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := 0.0
	if r.snapshotsOpen {
		target = 1.0
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.overlayPos < 0.999 || abs(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || abs(r.overlayVel) > 0.001
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	if len(overlayLines) == 0 {
		return strings.Join(baseLines[:rows], "\n")
	}
	ow := 1
	for _, line := range overlayLines {
		lw := len([]rune(line))
		if lw > ow {
			ow = lw
		}
	}
	if ow > cols {
		ow = cols
	}
	if startRow < 0 {
		startRow = 0
	}
	if startCol < 0 {
		startCol = 0
	}

	for i, line := range overlayLines {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		dst := []rune(baseLines[row])
		src := []rune(line)
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "cozy_clean", "retro_terminal", "modern_arcade":
		return strings.TrimSpace(v)
	default:
		return "modern_arcade"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "화면 복구됨"
	}

	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui panic recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
