//go:build !gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/metcalfc/txtr/internal/bookmark"
	"github.com/metcalfc/txtr/internal/config"
	"github.com/metcalfc/txtr/internal/document"
	"github.com/metcalfc/txtr/internal/library"
	"github.com/metcalfc/txtr/internal/logger"
	"github.com/metcalfc/txtr/internal/prefs"
	"github.com/metcalfc/txtr/internal/session"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFAA00"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)

type mode int

const (
	modeRead mode = iota
	modeTOC
	modeBookmarks
	modeLibrary
	modePrompt
)

type promptKind int

const (
	promptOpen promptKind = iota
	promptBookmark
	promptAddToLibrary
	promptRename
)

// list items

type chapterItem struct{ chapter document.Chapter }

func (i chapterItem) FilterValue() string { return i.chapter.Title }
func (i chapterItem) Title() string       { return i.chapter.Title }
func (i chapterItem) Description() string { return fmt.Sprintf("第%d行", i.chapter.StartLine+1) }

type bookmarkItem struct{ bm bookmark.Bookmark }

func (i bookmarkItem) FilterValue() string { return i.bm.Name }
func (i bookmarkItem) Title() string       { return i.bm.Name }
func (i bookmarkItem) Description() string {
	return fmt.Sprintf("第%d行 · %s", i.bm.LineNumber+1, i.bm.CreatedAt.Format("2006-01-02 15:04"))
}

type bookItem struct{ book library.Book }

func (i bookItem) FilterValue() string { return i.book.Name }
func (i bookItem) Title() string       { return i.book.Name }
func (i bookItem) Description() string {
	return i.book.FilePath + " · " + i.book.AddedAt.Format("2006-01-02")
}

// loadedMsg reports the end of an asynchronous load.
type loadedMsg struct {
	source string
	doc    *document.Document
	err    error
}

type model struct {
	sess    *session.Session
	timeout time.Duration

	mode   mode
	prompt promptKind
	input  textinput.Model
	view   viewport.Model
	lists  map[mode]*list.Model

	// rows[i] is the first wrapped row of line i.
	rows     []int
	renaming string

	status  string
	failed  bool
	loading bool
	showTOC bool
	initCmd tea.Cmd
	width   int
	height  int
}

func newModel(sess *session.Session, timeout time.Duration) model {
	ti := textinput.New()
	ti.CharLimit = 1024

	lists := make(map[mode]*list.Model)
	for md, title := range map[mode]string{
		modeTOC:       document.RootLabel,
		modeBookmarks: "书签",
		modeLibrary:   "书库",
	} {
		l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
		l.Title = title
		l.SetShowHelp(false)
		lists[md] = &l
	}

	return model{
		sess:    sess,
		timeout: timeout,
		input:   ti,
		view:    viewport.New(80, 22),
		lists:   lists,
		width:   80,
		height:  24,
	}
}

func loadCmd(sess *session.Session, source string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		doc, err := sess.LoadDocument(ctx, source)
		return loadedMsg{source: source, doc: doc, err: err}
	}
}

func (m model) Init() tea.Cmd {
	return m.initCmd
}

func (m model) startLoad(source string) (model, tea.Cmd) {
	source = strings.TrimSpace(source)
	if source == "" {
		return m, nil
	}
	if m.loading {
		m.setStatus("正在加载另一个文件", true)
		return m, nil
	}
	m.loading = true
	m.setStatus("正在加载 "+source+" ...", false)
	return m, loadCmd(m.sess, source, m.timeout)
}

func (m *model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

func (m *model) resize() {
	m.view.Width = m.width
	m.view.Height = max(1, m.height-2)
	for _, l := range m.lists {
		l.SetSize(m.width, max(1, m.height-2))
	}
	m.layout()
}

// layout wraps the document to the viewport width and records where each
// line starts.
func (m *model) layout() {
	doc := m.sess.Document()
	if doc == nil {
		m.rows = nil
		m.view.SetContent("")
		return
	}
	top := m.currentLine()
	content, rows := wrapLines(doc.Lines, m.view.Width)
	m.rows = rows
	m.view.SetContent(content)
	m.jumpTo(top)
}

func wrapLines(lines []string, width int) (string, []int) {
	rows := make([]int, len(lines))
	var sb strings.Builder
	row := 0
	for i, line := range lines {
		rows[i] = row
		wrapped := line
		if width > 0 {
			wrapped = runewidth.Wrap(line, width)
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(wrapped)
		row += strings.Count(wrapped, "\n") + 1
	}
	return sb.String(), rows
}

// lineAtRow returns the source line shown on wrapped row r.
func lineAtRow(rows []int, r int) int {
	i := sort.Search(len(rows), func(i int) bool { return rows[i] > r })
	return max(0, i-1)
}

func (m model) currentLine() int {
	return lineAtRow(m.rows, m.view.YOffset)
}

func (m *model) jumpTo(line int) {
	if len(m.rows) == 0 {
		return
	}
	// Round trip through offsets so navigation clamps like the core does.
	line = m.sess.CurrentLine(m.sess.JumpToLine(line))
	m.view.SetYOffset(m.rows[min(line, len(m.rows)-1)])
}

func (m *model) refreshLists() {
	if doc := m.sess.Document(); doc != nil {
		items := make([]list.Item, len(doc.Chapters))
		for i, c := range doc.Chapters {
			items[i] = chapterItem{c}
		}
		m.lists[modeTOC].SetItems(items)
	}

	bms := m.sess.Bookmarks()
	items := make([]list.Item, len(bms))
	for i, b := range bms {
		items[i] = bookmarkItem{b}
	}
	m.lists[modeBookmarks].SetItems(items)

	books := m.sess.Library().List()
	items = make([]list.Item, len(books))
	for i, b := range books {
		items[i] = bookItem{b}
	}
	m.lists[modeLibrary].SetItems(items)
}

func (m model) openPrompt(kind promptKind, placeholder, value string) (model, tea.Cmd) {
	m.mode = modePrompt
	m.prompt = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setStatus(loadError(msg.source, msg.err), true)
			return m, nil
		}
		m.mode = modeRead
		m.rows = nil
		m.layout()
		m.view.GotoTop()
		if line, ok := m.sess.Resume(); ok {
			m.jumpTo(line)
		}
		m.refreshLists()
		m.setStatus(fmt.Sprintf("已打开 %s (%d 行, %d 章)", msg.source, msg.doc.LineCount(), len(msg.doc.Chapters)), false)
		if m.showTOC && len(msg.doc.Chapters) > 0 {
			m.mode = modeTOC
		}
		m.showTOC = false
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode != modePrompt {
			m.setStatus("", false)
		}
		switch m.mode {
		case modePrompt:
			return m.updatePrompt(msg)
		case modeTOC, modeBookmarks, modeLibrary:
			return m.updateList(msg)
		default:
			return m.updateRead(msg)
		}
	}

	return m, nil
}

func (m model) updateRead(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q":
		return m, tea.Quit

	case "o":
		return m.openPrompt(promptOpen, "文件路径或 URL", "")

	case "t":
		if m.sess.Document() == nil {
			return m, nil
		}
		m.refreshLists()
		if i := m.sess.Document().ChapterAt(m.currentLine()); i >= 0 {
			m.lists[modeTOC].Select(i)
		}
		m.mode = modeTOC
		return m, nil

	case "m":
		m.refreshLists()
		m.mode = modeBookmarks
		return m, nil

	case "l":
		m.refreshLists()
		m.mode = modeLibrary
		return m, nil

	case "b":
		if m.sess.Document() == nil {
			m.setStatus("请先打开文件", true)
			return m, nil
		}
		return m.openPrompt(promptBookmark, "书签名称", "")

	case "a":
		doc := m.sess.Document()
		if doc == nil || document.IsURLKey(doc.Key) {
			m.setStatus("请先打开本地文件", true)
			return m, nil
		}
		return m.openPrompt(promptAddToLibrary, "书库名称", "")

	case "n", "p":
		doc := m.sess.Document()
		if doc == nil || len(doc.Chapters) == 0 {
			return m, nil
		}
		i := doc.ChapterAt(m.currentLine())
		if msg.String() == "n" {
			i = min(i+1, len(doc.Chapters)-1)
		} else {
			i = max(i-1, 0)
		}
		m.jumpTo(doc.Chapters[i].StartLine)
		return m, nil

	case "g", "home":
		m.view.GotoTop()
		return m, nil

	case "G", "end":
		m.view.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.lists[m.mode]
	if l.FilterState() == list.Filtering {
		var cmd tea.Cmd
		*l, cmd = l.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "q":
		m.mode = modeRead
		return m, nil

	case "enter":
		switch item := l.SelectedItem().(type) {
		case chapterItem:
			m.jumpTo(item.chapter.StartLine)
			m.mode = modeRead
		case bookmarkItem:
			m.jumpTo(item.bm.LineNumber)
			m.mode = modeRead
		case bookItem:
			req, err := m.sess.Library().Open(item.book)
			if err != nil {
				m.setStatus(libraryError(item.book, err), true)
				return m, nil
			}
			m.mode = modeRead
			return m.startLoad(req.Path)
		}
		return m, nil

	case "d":
		switch item := l.SelectedItem().(type) {
		case bookmarkItem:
			m.sess.DeleteBookmark(item.bm)
			m.setStatus("已删除书签 "+item.bm.Name, false)
		case bookItem:
			if err := m.sess.Library().Remove(item.book.Name); err != nil {
				m.setStatus(err.Error(), true)
			} else {
				m.setStatus("已从书库删除《"+item.book.Name+"》", false)
			}
		}
		m.refreshLists()
		return m, nil

	case "r":
		if item, ok := l.SelectedItem().(bookItem); ok {
			m.renaming = item.book.Name
			return m.openPrompt(promptRename, "新名称", item.book.Name)
		}
		return m, nil

	case "s":
		if m.mode == modeLibrary {
			path, err := m.sess.Library().Backup()
			if err != nil {
				m.setStatus("书库备份失败: "+err.Error(), true)
			} else {
				m.setStatus("书库备份完成: "+path, false)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return m, cmd
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.mode = modeRead
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.mode = modeRead
		if value == "" {
			return m, nil
		}
		return m.submitPrompt(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submitPrompt(value string) (tea.Model, tea.Cmd) {
	switch m.prompt {
	case promptOpen:
		return m.startLoad(value)

	case promptBookmark:
		offset := m.sess.JumpToLine(m.currentLine())
		if _, err := m.sess.AddBookmark(value, offset); err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus("书签添加成功", false)
		}

	case promptAddToLibrary:
		if err := m.sess.AddCurrentToLibrary(value); err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus("已添加到书库", false)
		}

	case promptRename:
		if err := m.sess.Library().Rename(m.renaming, value); err != nil {
			m.setStatus(err.Error(), true)
		}
		m.renaming = ""
		m.mode = modeLibrary
	}
	m.refreshLists()
	return m, nil
}

func loadError(source string, err error) string {
	switch {
	case errors.Is(err, session.ErrLoadInFlight):
		return "正在加载另一个文件"
	case document.IsURL(source):
		return "加载网络文件失败: " + err.Error()
	default:
		return "读取文件失败: " + err.Error()
	}
}

func libraryError(b library.Book, err error) string {
	if errors.Is(err, library.ErrNotFound) {
		return "文件不存在: " + b.FilePath
	}
	return err.Error()
}

func (m model) View() string {
	var body string
	switch m.mode {
	case modeTOC, modeBookmarks, modeLibrary:
		body = m.lists[m.mode].View()
	case modePrompt:
		body = titleStyle.Render(m.input.Placeholder) + "\n\n" + m.input.View()
	default:
		if m.sess.Document() == nil {
			body = "按 o 打开文件或 URL，按 l 打开书库。"
		} else {
			body = m.view.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.statusLine(), body, m.controlsLine())
}

func (m model) statusLine() string {
	if m.status != "" {
		if m.failed {
			return errorStyle.Render(m.status)
		}
		return infoStyle.Render(m.status)
	}
	if m.loading {
		return infoStyle.Render("正在加载...")
	}
	doc := m.sess.Document()
	if doc == nil {
		return statusStyle.Render("txtr")
	}
	line := m.currentLine()
	pct := 0.0
	if doc.LineCount() > 0 {
		pct = float64(line+1) / float64(doc.LineCount()) * 100
	}
	return statusStyle.Render(fmt.Sprintf("%s | %s | 第%d/%d行 %.0f%%",
		doc.Source, doc.ChapterTitle(line), line+1, doc.LineCount(), pct))
}

func (m model) controlsLine() string {
	switch m.mode {
	case modeTOC:
		return controlsStyle.Render("ENTER: 跳转  /: 过滤  ESC: 返回")
	case modeBookmarks:
		return controlsStyle.Render("ENTER: 跳转  D: 删除  ESC: 返回")
	case modeLibrary:
		return controlsStyle.Render("ENTER: 打开  R: 重命名  D: 删除  S: 备份  ESC: 返回")
	case modePrompt:
		return controlsStyle.Render("ENTER: 确定  ESC: 取消")
	}
	return controlsStyle.Render("O: 打开  T: 目录  N/P: 章节  B: 书签  M: 管理书签  A: 加入书库  L: 书库  Q: 退出")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	charset := flag.String("charset", cfg.Charset, "Text encoding of local and remote files")
	timeout := flag.Duration("timeout", cfg.HTTPTimeout, "Timeout for URL loads")
	showTOC := flag.Bool("toc", false, "Show table of contents after loading")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "txtr - Terminal Text Book Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  txtr [options] [file|url]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nFormats: %s\n", strings.Join(document.SupportedFormats(), ", "))
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  txtr book.txt                       Read a local file\n")
		fmt.Fprintf(os.Stderr, "  txtr -charset gb18030 book.txt      Read a GB18030 file\n")
		fmt.Fprintf(os.Stderr, "  txtr https://example.com/book.txt   Read a remote file\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("txtr %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var store prefs.Store
	fs, err := prefs.NewFileStore(cfg.PrefsFile)
	switch {
	case fs == nil:
		log.Warn("preferences unavailable, library will not persist", logger.Error(err))
		store = prefs.NewMemory()
	case err != nil:
		log.Warn("preferences unreadable, starting empty", logger.Error(err))
		store = fs
	default:
		log.Debug("preferences opened", logger.String("path", fs.Path()))
		store = fs
	}

	lib := library.NewStore(store, library.Options{BackupDir: cfg.BackupDir, Log: log})
	loader := document.NewLoader(*charset, *timeout, log)
	sess := session.New(loader, lib, log)

	m := newModel(sess, *timeout)
	m.showTOC = *showTOC
	if flag.NArg() > 0 {
		var cmd tea.Cmd
		m, cmd = m.startLoad(flag.Arg(0))
		m.initCmd = cmd
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
