package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/fscan/internal/model"
	"github.com/sadopc/fscan/internal/ops"
	"github.com/sadopc/fscan/internal/scan"
	"github.com/sadopc/fscan/internal/ui/components"
	"github.com/sadopc/fscan/internal/ui/style"
	"github.com/sadopc/fscan/internal/util"
)

// ViewMode represents the current view.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewCategories
)

// AppState represents the application state.
type AppState int

const (
	StateBrowsing AppState = iota
	StateConfirmDelete
	StateHelp
	StateExporting
)

const flushInterval = 60 * time.Millisecond

// scanStartedMsg reports the outcome of starting a joint run.
type scanStartedMsg struct {
	gen uint64
	err error
}

// DeleteDoneMsg is sent when deletion completes.
type DeleteDoneMsg struct {
	Removed []string
	Err     error
}

// ExportDoneMsg is sent when export completes.
type ExportDoneMsg struct {
	Path string
	Err  error
}

type tickMsg time.Time

// App is the root Bubble Tea model. It runs its scanners as one joint scan
// and shows matches as they stream in.
type App struct {
	ExportPath string
	Version    string

	ctx      context.Context
	scanners []*scan.Scanner
	group    *scan.Group
	roots    []string

	state    AppState
	viewMode ViewMode
	width    int
	height   int
	layout   style.Layout

	// generation tags the current joint run; notifications from older
	// runs are ignored.
	generation uint64
	scanning   bool
	ticking    bool
	progress   scan.Progress
	missing    []string
	runIDs     []string
	outcome    string

	pendingMu  sync.Mutex
	pendingGen uint64
	pending    []model.Entry

	matches    []model.Entry
	visible    []model.Entry
	maxSize    int64
	sortConfig model.SortConfig
	showHidden bool

	cursor int
	offset int

	marked       map[string]bool
	confirmItems []components.ConfirmItem

	theme style.Theme
	keys  KeyMap

	statusMsg string
	fatalErr  error
}

// NewApp creates the interactive view. The group and every scanner should
// dispatch through a Dispatcher attached to the program running the App.
// Cancelling ctx stops the scan.
func NewApp(ctx context.Context, group *scan.Group, scanners ...*scan.Scanner) *App {
	roots := make([]string, len(scanners))
	for i, s := range scanners {
		roots[i] = s.Root()
	}
	return &App{
		ctx:        ctx,
		scanners:   scanners,
		group:      group,
		roots:      roots,
		state:      StateBrowsing,
		viewMode:   ViewList,
		sortConfig: model.DefaultSort(),
		showHidden: true,
		marked:     make(map[string]bool),
		theme:      style.DefaultTheme(),
		keys:       DefaultKeyMap(),
	}
}

// SetShowHidden sets whether hidden matches are listed initially.
func (a *App) SetShowHidden(show bool) { a.showHidden = show }

// FatalError returns the error that ended the program, if any.
func (a *App) FatalError() error { return a.fatalErr }

func (a *App) Init() tea.Cmd {
	return a.startScan()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout = style.NewLayout(msg.Width, msg.Height)
		return a, nil

	case callbackMsg:
		msg()
		if a.fatalErr != nil {
			return a, tea.Quit
		}
		return a, nil

	case scanStartedMsg:
		if msg.err == nil || msg.gen != a.generation {
			return a, nil
		}
		if errors.Is(msg.err, scan.ErrGroupActive) {
			// An older restart won the race; cancel it and start over.
			return a, a.startScan()
		}
		a.scanning = false
		a.statusMsg = fmt.Sprintf("Scan failed: %v", msg.err)
		return a, nil

	case tickMsg:
		if !a.scanning {
			a.ticking = false
			return a, nil
		}
		a.flush()
		a.progress = a.sumProgress()
		return a, a.tickCmd()

	case DeleteDoneMsg:
		a.state = StateBrowsing
		a.dropRemoved(msg.Removed)
		a.clearMarks()
		switch {
		case msg.Err != nil:
			a.statusMsg = fmt.Sprintf("Deleted %d, failed: %v", len(msg.Removed), firstLine(msg.Err))
		case len(msg.Removed) > 0:
			a.statusMsg = fmt.Sprintf("Deleted %d item(s)", len(msg.Removed))
		}
		return a, tea.ClearScreen

	case ExportDoneMsg:
		a.state = StateBrowsing
		if msg.Err != nil {
			a.statusMsg = fmt.Sprintf("Export failed: %v", msg.Err)
		} else {
			a.statusMsg = fmt.Sprintf("Exported to %s", msg.Path)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

// startScan resets the match set and starts a new joint run. The group is
// cancelled and restarted from a command, because starting delivers
// OnBegin through the dispatcher, which waits on this event loop.
func (a *App) startScan() tea.Cmd {
	a.generation++
	gen := a.generation

	a.scanning = true
	a.missing = nil
	a.runIDs = nil
	a.outcome = ""
	a.matches = nil
	a.cursor = 0
	a.offset = 0
	a.clearMarks()
	a.refreshVisible()

	a.pendingMu.Lock()
	a.pendingGen = gen
	a.pending = nil
	a.pendingMu.Unlock()

	jobs := make([]scan.Job, len(a.scanners))
	for i, s := range a.scanners {
		jobs[i] = scan.Job{Scanner: s, Listener: a.listener(gen)}
	}
	ctx, group := a.ctx, a.group
	onAllComplete := func() { a.allComplete(gen) }

	cmds := []tea.Cmd{func() tea.Msg {
		group.Cancel()
		if err := group.Wait(ctx); err != nil {
			return scanStartedMsg{gen: gen, err: err}
		}
		return scanStartedMsg{gen: gen, err: group.Scan(ctx, onAllComplete, jobs...)}
	}}
	if !a.ticking {
		a.ticking = true
		cmds = append(cmds, a.tickCmd())
	}
	return tea.Batch(cmds...)
}

// stopScan cancels the joint run, keeping the matches found so far.
func (a *App) stopScan() {
	if !a.scanning {
		return
	}
	a.group.Cancel()
	a.flush()
	a.progress = a.sumProgress()

	a.generation++
	a.pendingMu.Lock()
	a.pendingGen = a.generation
	a.pendingMu.Unlock()

	a.scanning = false
	a.outcome = "stopped"
	a.statusMsg = "Scan stopped"
}

func (a *App) listener(gen uint64) scan.Listener {
	return scan.Funcs{
		Match:    func(e model.Entry) { a.collect(gen, e) },
		Complete: func(s scan.Summary) { a.memberComplete(gen, s) },
	}
}

// collect buffers a match from a worker goroutine until the next flush.
func (a *App) collect(gen uint64, e model.Entry) {
	a.pendingMu.Lock()
	if a.pendingGen == gen {
		a.pending = append(a.pending, e)
	}
	a.pendingMu.Unlock()
}

func (a *App) flush() {
	a.pendingMu.Lock()
	batch := a.pending
	a.pending = nil
	a.pendingMu.Unlock()

	if len(batch) == 0 {
		return
	}
	a.matches = append(a.matches, batch...)
	a.refreshVisible()
}

func (a *App) memberComplete(gen uint64, s scan.Summary) {
	if gen != a.generation {
		return
	}
	if s.RootMissing {
		a.missing = append(a.missing, s.Root)
		return
	}
	a.runIDs = append(a.runIDs, s.RunID)
}

func (a *App) allComplete(gen uint64) {
	if gen != a.generation {
		return
	}
	a.flush()
	a.scanning = false
	a.progress = a.sumProgress()

	if len(a.missing) > 0 && len(a.missing) == len(a.scanners) {
		a.fatalErr = fmt.Errorf("%w: %s", scan.ErrRootNotFound, strings.Join(a.missing, ", "))
		return
	}
	a.outcome = "done in " + util.FormatElapsed(a.progress.Duration)
	if len(a.missing) > 0 {
		a.statusMsg = "Not found: " + strings.Join(a.missing, ", ")
	}
}

// sumProgress combines the latest progress of every scanner.
func (a *App) sumProgress() scan.Progress {
	var total scan.Progress
	for _, s := range a.scanners {
		p := s.Progress()
		total.Entries += p.Entries
		total.Dirs += p.Dirs
		total.Matches += p.Matches
		total.Errors += p.Errors
		total.Pending += p.Pending
		total.Running = total.Running || p.Running
		if p.Duration > total.Duration {
			total.Duration = p.Duration
		}
	}
	return total
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		a.group.Cancel()
		return a, tea.Quit
	}

	switch a.state {
	case StateHelp:
		if key.Matches(msg, a.keys.Help) || msg.String() == "esc" {
			a.state = StateBrowsing
			return a, tea.ClearScreen
		}
		return a, nil

	case StateConfirmDelete:
		if key.Matches(msg, a.keys.ConfirmYes) {
			return a, a.executeDelete()
		}
		if key.Matches(msg, a.keys.ConfirmNo) {
			a.state = StateBrowsing
			return a, tea.ClearScreen
		}
		return a, nil

	case StateBrowsing:
		return a.handleBrowsingKey(msg)
	}

	return a, nil
}

func (a *App) handleBrowsingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.statusMsg = ""
	page := a.layout.ContentHeight()

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.group.Cancel()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.state = StateHelp
		return a, tea.ClearScreen

	case key.Matches(msg, a.keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, a.keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, a.keys.PageUp):
		a.moveCursor(-page)
	case key.Matches(msg, a.keys.PageDown):
		a.moveCursor(page)
	case key.Matches(msg, a.keys.Top):
		a.moveCursor(-len(a.visible))
	case key.Matches(msg, a.keys.Bottom):
		a.moveCursor(len(a.visible))

	case key.Matches(msg, a.keys.ViewList):
		a.viewMode = ViewList
		return a, tea.ClearScreen
	case key.Matches(msg, a.keys.ViewCategories):
		a.viewMode = ViewCategories
		return a, tea.ClearScreen

	case key.Matches(msg, a.keys.SortPath):
		a.toggleSort(model.SortByPath)
	case key.Matches(msg, a.keys.SortName):
		a.toggleSort(model.SortByName)
	case key.Matches(msg, a.keys.SortSize):
		a.toggleSort(model.SortBySize)
	case key.Matches(msg, a.keys.SortMtime):
		a.toggleSort(model.SortByMtime)

	case key.Matches(msg, a.keys.ToggleHidden):
		a.showHidden = !a.showHidden
		a.clearMarks()
		a.refreshVisible()

	case key.Matches(msg, a.keys.Mark):
		if a.viewMode == ViewList {
			a.toggleMark()
		}

	case key.Matches(msg, a.keys.Delete):
		if a.viewMode == ViewList && a.prepareDelete() {
			return a, tea.ClearScreen
		}

	case key.Matches(msg, a.keys.Export):
		return a, a.exportCmd()

	case key.Matches(msg, a.keys.Stop):
		a.stopScan()

	case key.Matches(msg, a.keys.Rescan):
		return a, tea.Batch(tea.ClearScreen, a.startScan())
	}

	return a, nil
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	switch a.state {
	case StateHelp:
		return components.RenderHelp(a.theme, a.width, a.height)
	case StateConfirmDelete:
		return components.RenderConfirmDialog(a.theme, a.confirmItems, a.width, a.height)
	}

	if a.scanning && len(a.matches) == 0 {
		return components.RenderScanProgress(a.theme, a.progress, a.width, a.height)
	}
	return a.renderBrowsing()
}

func (a *App) renderBrowsing() string {
	var totalSize int64
	for _, e := range a.visible {
		totalSize += e.Size
	}
	header := components.RenderHeader(a.theme, a.roots, int64(len(a.visible)), totalSize, a.width)
	tabBar := components.RenderTabBar(a.theme, int(a.viewMode), a.sortConfig, a.width)

	var content string
	switch a.viewMode {
	case ViewList:
		ml := &components.MatchList{
			Theme:   a.theme,
			Layout:  a.layout,
			Items:   a.visible,
			Cursor:  a.cursor,
			Offset:  a.offset,
			Marked:  a.marked,
			MaxSize: a.maxSize,
			Roots:   a.roots,
		}
		ml.EnsureVisible()
		a.offset = ml.Offset
		content = ml.RenderColumnTitles() + "\n" + ml.Render()

	case ViewCategories:
		stats := components.AggregateCategories(a.visible)
		content = components.RenderCategories(a.theme, stats, a.layout.ContentWidth(), a.layout.ContentHeight()+1)
	}

	statusBar := components.RenderStatusBar(a.theme, components.StatusInfo{
		Visible:     len(a.visible),
		MarkedCount: len(a.marked),
		MarkedSize:  a.markedSize(),
		ShowHidden:  a.showHidden,
		Scanning:    a.scanning,
		Progress:    a.progress,
		Outcome:     a.outcome,
		Errors:      a.progress.Errors,
		Message:     a.statusMsg,
	}, a.width)

	return header + "\n" + tabBar + "\n" + content + "\n" + statusBar
}

func (a *App) moveCursor(delta int) {
	a.cursor += delta
	if a.cursor >= len(a.visible) {
		a.cursor = len(a.visible) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) toggleSort(field model.SortField) {
	if a.sortConfig.Field == field {
		if a.sortConfig.Order == model.SortDesc {
			a.sortConfig.Order = model.SortAsc
		} else {
			a.sortConfig.Order = model.SortDesc
		}
	} else {
		a.sortConfig.Field = field
		a.sortConfig.Order = model.SortAsc
		if field == model.SortBySize || field == model.SortByMtime {
			a.sortConfig.Order = model.SortDesc
		}
	}
	a.refreshVisible()
}

func (a *App) toggleMark() {
	if a.cursor >= len(a.visible) {
		return
	}
	p := a.visible[a.cursor].Path
	if a.marked[p] {
		delete(a.marked, p)
	} else {
		a.marked[p] = true
	}
	a.moveCursor(1)
}

func (a *App) clearMarks() {
	a.marked = make(map[string]bool)
}

// refreshVisible rebuilds the sorted, hidden-filtered list and keeps the
// cursor on the entry it was on.
func (a *App) refreshVisible() {
	var current string
	if a.cursor < len(a.visible) {
		current = a.visible[a.cursor].Path
	}

	visible := make([]model.Entry, 0, len(a.matches))
	a.maxSize = 0
	for _, e := range a.matches {
		if !a.showHidden && e.Hidden {
			continue
		}
		visible = append(visible, e)
		if !e.Dir && e.Size > a.maxSize {
			a.maxSize = e.Size
		}
	}
	model.SortEntries(visible, a.sortConfig)
	a.visible = visible

	if current != "" {
		for i, e := range visible {
			if e.Path == current {
				a.cursor = i
				break
			}
		}
	}
	a.moveCursor(0)
}

func (a *App) markedSize() int64 {
	var total int64
	for _, e := range a.visible {
		if a.marked[e.Path] {
			total += e.Size
		}
	}
	return total
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(flushInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// prepareDelete collects the marked entries, or the one under the cursor,
// and opens the confirmation dialog.
func (a *App) prepareDelete() bool {
	if a.scanning {
		a.statusMsg = "Stop the scan (x) before deleting"
		return false
	}

	var items []components.ConfirmItem
	for i, e := range a.visible {
		if a.marked[e.Path] || (len(a.marked) == 0 && i == a.cursor) {
			items = append(items, components.ConfirmItem{Path: e.Path, Size: e.Size, IsDir: e.Dir})
		}
	}
	if len(items) == 0 {
		return false
	}

	a.confirmItems = items
	a.state = StateConfirmDelete
	return true
}

func (a *App) executeDelete() tea.Cmd {
	byScanner := make(map[*scan.Scanner][]string)
	for _, item := range a.confirmItems {
		if s := a.ownerOf(item.Path); s != nil {
			byScanner[s] = append(byScanner[s], item.Path)
		}
	}

	return func() tea.Msg {
		var (
			removed []string
			errs    []string
		)
		for s, paths := range byScanner {
			if _, err := ops.DeleteAll(s.FS(), s.Root(), paths); err != nil {
				errs = append(errs, err.Error())
			}
			for _, p := range paths {
				if _, err := s.FS().Lstat(p); errors.Is(err, fs.ErrNotExist) {
					removed = append(removed, p)
				}
			}
		}
		msg := DeleteDoneMsg{Removed: removed}
		if len(errs) > 0 {
			msg.Err = fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return msg
	}
}

// ownerOf returns the scanner whose root holds p, preferring the deepest
// root when roots nest.
func (a *App) ownerOf(p string) *scan.Scanner {
	var (
		owner *scan.Scanner
		best  int
	)
	for _, s := range a.scanners {
		root := s.Root()
		if underPath(p, root) && len(root) > best {
			owner, best = s, len(root)
		}
	}
	return owner
}

// dropRemoved forgets removed entries and everything below them.
func (a *App) dropRemoved(removed []string) {
	if len(removed) == 0 {
		return
	}
	kept := a.matches[:0]
	for _, e := range a.matches {
		gone := false
		for _, r := range removed {
			if e.Path == r || underPath(e.Path, r) {
				gone = true
				break
			}
		}
		if !gone {
			kept = append(kept, e)
		}
	}
	a.matches = kept
	a.refreshVisible()
}

// underPath reports whether p lies strictly below dir.
func underPath(p, dir string) bool {
	if dir == "" || len(p) <= len(dir) || !strings.HasPrefix(p, dir) {
		return false
	}
	if isSep(dir[len(dir)-1]) {
		return true
	}
	return isSep(p[len(dir)])
}

func isSep(c byte) bool { return c == '/' || c == '\\' }

func firstLine(err error) string {
	s := err.Error()
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (a *App) exportCmd() tea.Cmd {
	if len(a.matches) == 0 {
		a.statusMsg = "Nothing to export"
		return nil
	}

	exportPath := a.ExportPath
	if exportPath == "" {
		exportPath = "fscan-export.json"
	}

	entries := make([]model.Entry, len(a.matches))
	copy(entries, a.matches)
	model.SortEntries(entries, model.DefaultSort())
	snap := ops.Snapshot{
		Root:      ops.JoinRoots(a.roots),
		RunID:     strings.Join(a.runIDs, ","),
		Version:   a.Version,
		Timestamp: time.Now(),
		Entries:   entries,
	}

	a.state = StateExporting
	return func() tea.Msg {
		return ExportDoneMsg{Path: exportPath, Err: ops.ExportJSON(snap, exportPath)}
	}
}
