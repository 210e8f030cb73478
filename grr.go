//go:build gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/txtr/internal/config"
	"github.com/metcalfc/txtr/internal/document"
	"github.com/metcalfc/txtr/internal/library"
	"github.com/metcalfc/txtr/internal/logger"
	"github.com/metcalfc/txtr/internal/session"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const appID = "io.github.metcalfc.txtr"

// fynePrefs stores values in the application's fyne preferences.
type fynePrefs struct {
	p fyne.Preferences
}

func (f fynePrefs) Load(key string) (string, error) { return f.p.String(key), nil }
func (f fynePrefs) Save(key, value string) error {
	f.p.SetString(key, value)
	return nil
}

type gui struct {
	sess    *session.Session
	timeout time.Duration
	log     logger.Logger

	win    fyne.Window
	text   *readerText
	tree   *widget.Tree
	root   document.Node
	status *widget.Label
	left   fyne.CanvasObject
	split  *container.Split
}

// Tree node IDs: "" is fyne's implicit root, rootID our label node, and
// chapter nodes use their index.
const rootID = "root"

func (g *gui) childUIDs(id widget.TreeNodeID) []widget.TreeNodeID {
	switch id {
	case "":
		return []widget.TreeNodeID{rootID}
	case rootID:
		ids := make([]widget.TreeNodeID, len(g.root.Children))
		for i := range g.root.Children {
			ids[i] = strconv.Itoa(i)
		}
		return ids
	}
	return nil
}

func (g *gui) node(id widget.TreeNodeID) (document.Node, bool) {
	if id == rootID || id == "" {
		return g.root, true
	}
	i, err := strconv.Atoi(id)
	if err != nil || i < 0 || i >= len(g.root.Children) {
		return document.Node{}, false
	}
	return g.root.Children[i], true
}

func (g *gui) buildTree() *widget.Tree {
	tree := widget.NewTree(
		g.childUIDs,
		func(id widget.TreeNodeID) bool { return id == "" || id == rootID },
		func(branch bool) fyne.CanvasObject { return widget.NewLabel("章节") },
		func(id widget.TreeNodeID, branch bool, o fyne.CanvasObject) {
			if n, ok := g.node(id); ok {
				o.(*widget.Label).SetText(n.Text())
			}
		},
	)
	tree.OnSelected = func(id widget.TreeNodeID) {
		if n, ok := g.node(id); ok && n.Kind == document.ChapterNode {
			g.jumpTo(n.Chapter.StartLine)
		}
	}
	return tree
}

func (g *gui) currentLine() int {
	// The caret offset goes through the core mapping so out of range
	// positions clamp consistently.
	offset := g.sess.JumpToLine(g.text.line()) + g.text.CursorColumn
	return g.sess.CurrentLine(offset)
}

func (g *gui) jumpTo(line int) {
	line = g.sess.CurrentLine(g.sess.JumpToLine(line))
	g.text.moveTo(line)
	g.win.Canvas().Focus(g.text)
	g.updateStatus()
}

func (g *gui) updateStatus() {
	doc := g.sess.Document()
	if doc == nil {
		g.status.SetText("请打开文件")
		return
	}
	line := g.currentLine()
	g.status.SetText(fmt.Sprintf("%s | %s | 第%d/%d行", doc.Source, doc.ChapterTitle(line), line+1, doc.LineCount()))
}

func (g *gui) load(source string) {
	source = strings.TrimSpace(source)
	if source == "" {
		return
	}
	if g.sess.Loading() {
		dialog.ShowInformation("提示", "正在加载另一个文件", g.win)
		return
	}
	g.status.SetText("正在加载 " + source + " ...")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		doc, err := g.sess.LoadDocument(ctx, source)

		fyne.Do(func() {
			if err != nil {
				title := "读取文件失败"
				if document.IsURL(source) {
					title = "加载网络文件失败"
				}
				if errors.Is(err, session.ErrLoadInFlight) {
					title = "正在加载另一个文件"
				}
				dialog.ShowError(fmt.Errorf("%s: %w", title, err), g.win)
				g.updateStatus()
				return
			}
			g.show(doc)
		})
	}()
}

func (g *gui) show(doc *document.Document) {
	g.root = document.BuildTree(doc.Chapters)
	g.tree.Refresh()
	g.tree.OpenBranch(rootID)

	g.text.SetText(doc.Text())
	g.win.SetTitle("txtr - " + doc.Source)

	line := 0
	if l, ok := g.sess.Resume(); ok {
		line = l
	}
	g.jumpTo(line)
}

func (g *gui) toggleDirectory() {
	if g.left.Visible() {
		g.left.Hide()
		g.split.Offset = 0
	} else {
		g.left.Show()
		g.split.Offset = 0.25
	}
	g.split.Refresh()
}

func (g *gui) promptText(title, label, initial string, submit func(string)) {
	entry := widget.NewEntry()
	entry.SetText(initial)
	dialog.ShowForm(title, "确定", "取消", []*widget.FormItem{widget.NewFormItem(label, entry)}, func(ok bool) {
		if ok && strings.TrimSpace(entry.Text) != "" {
			submit(strings.TrimSpace(entry.Text))
		}
	}, g.win)
}

func (g *gui) openFile() {
	dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, g.win)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		g.load(path)
	}, g.win)
}

func (g *gui) addBookmark() {
	if g.sess.Document() == nil {
		dialog.ShowInformation("提示", "请先打开文件", g.win)
		return
	}
	offset := g.sess.JumpToLine(g.currentLine())
	g.promptText("添加书签", "书签名称", "", func(name string) {
		if _, err := g.sess.AddBookmark(name, offset); err != nil {
			dialog.ShowError(err, g.win)
			return
		}
		dialog.ShowInformation("成功", "书签添加成功", g.win)
	})
}

func (g *gui) manageBookmarks() {
	bms := g.sess.Bookmarks()
	selected := -1

	list := widget.NewList(
		func() int { return len(bms) },
		func() fyne.CanvasObject { return widget.NewLabel("书签") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			b := bms[id]
			o.(*widget.Label).SetText(fmt.Sprintf("%s  第%d行  %s", b.Name, b.LineNumber+1, b.CreatedAt.Format("2006-01-02 15:04")))
		},
	)
	list.OnSelected = func(id widget.ListItemID) { selected = id }

	w := fyne.CurrentApp().NewWindow("管理书签")
	del := widget.NewButton("删除", func() {
		if selected < 0 || selected >= len(bms) {
			return
		}
		g.sess.DeleteBookmark(bms[selected])
		bms = g.sess.Bookmarks()
		selected = -1
		list.UnselectAll()
		list.Refresh()
	})
	w.SetContent(container.NewBorder(nil, container.NewHBox(del, widget.NewButton("关闭", w.Close)), nil, nil, list))
	w.Resize(fyne.NewSize(500, 300))
	w.Show()
}

func (g *gui) addToLibrary() {
	doc := g.sess.Document()
	if doc == nil || document.IsURLKey(doc.Key) {
		dialog.ShowInformation("提示", "请先打开本地文件", g.win)
		return
	}
	g.promptText("添加到书库", "书库名称", "", func(name string) {
		if err := g.sess.AddCurrentToLibrary(name); err != nil {
			dialog.ShowError(err, g.win)
			return
		}
		dialog.ShowInformation("成功", "已添加到书库", g.win)
	})
}

func (g *gui) manageLibrary() {
	lib := g.sess.Library()
	books := lib.List()
	selected := -1

	list := widget.NewList(
		func() int { return len(books) },
		func() fyne.CanvasObject { return widget.NewLabel("书籍") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			b := books[id]
			o.(*widget.Label).SetText(fmt.Sprintf("%s  %s  %s", b.Name, b.FilePath, b.AddedAt.Format("2006-01-02")))
		},
	)
	list.OnSelected = func(id widget.ListItemID) { selected = id }

	w := fyne.CurrentApp().NewWindow("书库管理")
	reload := func() {
		books = lib.List()
		selected = -1
		list.UnselectAll()
		list.Refresh()
	}
	current := func() (library.Book, bool) {
		if selected < 0 || selected >= len(books) {
			return library.Book{}, false
		}
		return books[selected], true
	}

	open := widget.NewButton("打开", func() {
		b, ok := current()
		if !ok {
			return
		}
		req, err := lib.Open(b)
		if err != nil {
			if errors.Is(err, library.ErrNotFound) {
				dialog.ShowInformation("错误", "文件不存在: "+b.FilePath, w)
				return
			}
			dialog.ShowError(err, w)
			return
		}
		w.Close()
		g.load(req.Path)
	})
	rename := widget.NewButton("重命名", func() {
		b, ok := current()
		if !ok {
			return
		}
		entry := widget.NewEntry()
		entry.SetText(b.Name)
		dialog.ShowForm("重命名", "确定", "取消", []*widget.FormItem{widget.NewFormItem("新名称", entry)}, func(ok bool) {
			if name := strings.TrimSpace(entry.Text); ok && name != "" {
				if err := lib.Rename(b.Name, name); err != nil {
					dialog.ShowError(err, w)
				}
				reload()
			}
		}, w)
	})
	remove := widget.NewButton("删除", func() {
		b, ok := current()
		if !ok {
			return
		}
		dialog.ShowConfirm("确认删除", "确定要删除《"+b.Name+"》吗？", func(yes bool) {
			if !yes {
				return
			}
			if err := lib.Remove(b.Name); err != nil {
				dialog.ShowError(err, w)
			}
			reload()
		}, w)
	})

	w.SetContent(container.NewBorder(nil, container.NewHBox(open, rename, remove, widget.NewButton("关闭", w.Close)), nil, nil, list))
	w.Resize(fyne.NewSize(600, 400))
	w.Show()
}

func (g *gui) backupLibrary() {
	path, err := g.sess.Library().Backup()
	if err != nil {
		dialog.ShowError(fmt.Errorf("书库备份失败: %w", err), g.win)
		return
	}
	dialog.ShowInformation("成功", "书库备份完成\n"+path, g.win)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	charset := flag.String("charset", cfg.Charset, "Text encoding of local and remote files")
	timeout := flag.Duration("timeout", cfg.HTTPTimeout, "Timeout for URL loads")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "txtr - Text Book Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  txtr [options] [file|url]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("txtr %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	logPath := cfg.LogFile
	if logPath == "" {
		logPath = "stderr"
	}
	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog, logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	a := app.NewWithID(appID)
	lib := library.NewStore(fynePrefs{a.Preferences()}, library.Options{BackupDir: cfg.BackupDir, Log: log})

	g := &gui{
		sess:    session.New(document.NewLoader(*charset, *timeout, log), lib, log),
		timeout: *timeout,
		log:     log,
		win:     a.NewWindow("txtr"),
		status:  widget.NewLabel("请打开文件"),
		root:    document.BuildTree(nil),
	}

	g.text = newReaderText()
	g.text.OnCursorChanged = g.updateStatus

	g.tree = g.buildTree()
	g.left = container.NewBorder(widget.NewLabel("目录"), nil, nil, nil, g.tree)
	g.split = container.NewHSplit(g.left, g.text)
	g.split.Offset = 0.25

	g.win.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("文件",
			fyne.NewMenuItem("打开", g.openFile),
			fyne.NewMenuItem("打开网络文件", func() {
				g.promptText("打开网络文件", "URL", "", g.load)
			}),
		),
		fyne.NewMenu("书签",
			fyne.NewMenuItem("添加书签", g.addBookmark),
			fyne.NewMenuItem("管理书签", g.manageBookmarks),
		),
		fyne.NewMenu("书库",
			fyne.NewMenuItem("添加到书库", g.addToLibrary),
			fyne.NewMenuItem("管理书库", g.manageLibrary),
			fyne.NewMenuItem("备份书库", g.backupLibrary),
		),
	))

	buttons := container.NewHBox(
		widget.NewButton("隐藏/显示目录", g.toggleDirectory),
		widget.NewButton("添加书签", g.addBookmark),
	)
	g.win.SetContent(container.NewBorder(nil, container.NewBorder(nil, nil, buttons, nil, g.status), nil, nil, g.split))
	g.win.Resize(fyne.NewSize(1000, 700))

	if flag.NArg() > 0 {
		g.load(flag.Arg(0))
	}

	g.win.ShowAndRun()
}
