package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/ha1tch/fsm-canvas/pkg/canvasfile"
	"github.com/ha1tch/fsm-canvas/pkg/editor"
	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
)

// app wires the editing engine to a tcell screen: it translates
// terminal mouse/key events into engine events and redraws after each.
type app struct {
	screen tcell.Screen
	ed     *editor.Editor
	path   string
	name   string
	cfg    Config

	modified bool
	message  string
	quit     bool

	// Active text prompt, nil when none. While set, keystrokes go to
	// the buffer instead of the engine.
	prompt      string
	buffer      string
	onSubmit    func(string)
	prompting   bool
	lastButtons tcell.ButtonMask

	// Pending context target from a right press.
	contextHit   editor.Hit
	contextWorld geom.Point
	hasContext   bool
}

func newApp(doc *graph.Document, path, name string, cfg Config) *app {
	a := &app{path: path, name: name, cfg: cfg}
	a.ed = editor.New(doc, editor.Options{
		HistoryCapacity: cfg.History.Limit,
		Logger:          logger,
	})
	a.ed.SetOnContextMenu(func(h editor.Hit, w geom.Point) {
		a.contextHit = h
		a.contextWorld = w
		a.hasContext = true
	})
	return a
}

func (a *app) run() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	screen.EnableMouse()
	screen.Clear()
	a.screen = screen

	w, h := screen.Size()
	a.ed.SetViewportSize(float64(w), float64(h))

	// Restore the view where the user left off.
	if a.path != "" {
		if sc, err := canvasfile.LoadSidecar(a.path); err == nil {
			a.applyView(sc.View)
		}
	}

	for !a.quit {
		a.draw()
		screen.Show()

		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
			w, h := screen.Size()
			a.ed.SetViewportSize(float64(w), float64(h))
		case *tcell.EventKey:
			a.handleKey(ev)
		case *tcell.EventMouse:
			a.handleMouse(ev)
		}
	}
	return nil
}

func (a *app) close() {
	if a.screen != nil {
		a.screen.Fini()
	}
}

func (a *app) applyView(v canvasfile.ViewState) {
	vp := a.ed.Viewport()
	vp.Reset()
	if v.Zoom > 0 && v.Zoom != 1 {
		vp.ZoomBy(v.Zoom)
	}
	vp.PanBy(v.PanX, v.PanY)
}

func (a *app) status(format string, args ...any) {
	a.message = fmt.Sprintf(format, args...)
}

// ask opens a one-line text prompt; fn runs on Enter with the entered
// text.
func (a *app) ask(prompt, initial string, fn func(string)) {
	a.prompt = prompt
	a.buffer = initial
	a.onSubmit = fn
	a.prompting = true
}

func (a *app) handleKey(ev *tcell.EventKey) {
	if a.prompting {
		a.handlePromptKey(ev)
		return
	}

	switch ev.Key() {
	case tcell.KeyCtrlZ:
		a.ed.Undo()
		a.modified = true
		return
	case tcell.KeyCtrlY:
		a.ed.Redo()
		a.modified = true
		return
	case tcell.KeyCtrlS:
		a.save()
		return
	case tcell.KeyEscape:
		a.ed.HandleKey(editor.KeyEvent{Key: editor.KeyEscape})
		return
	case tcell.KeyDelete, tcell.KeyBackspace, tcell.KeyBackspace2:
		a.ed.HandleKey(editor.KeyEvent{Key: editor.KeyDelete})
		a.modified = true
		return
	}

	switch ev.Rune() {
	case 'q':
		a.quit = true
	case 'n':
		a.promptNewNode(a.ed.PointerWorld())
	case 'e':
		a.promptRename()
	case 'l':
		a.startConnectionFromSelection()
	case 'f':
		a.ed.HandleKey(editor.KeyEvent{Key: editor.KeyFit})
	case 'g':
		a.ed.CenterView()
	case 'd':
		a.ed.HandleKey(editor.KeyEvent{Key: editor.KeyDuplicate})
		a.modified = true
	case 't':
		a.ed.RunTreeLayout()
		a.modified = true
		a.status("tree layout applied")
	case 'c':
		a.ed.RunConcentrate()
		a.modified = true
		a.status("concentrate arrangement applied")
	case 'm':
		a.mergeSelection()
	case '+', '=':
		a.zoomAtCenter(editor.ZoomStepFactor)
	case '-':
		a.zoomAtCenter(1 / editor.ZoomStepFactor)
	case '0':
		a.ed.Viewport().Reset()
	}
}

func (a *app) handlePromptKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.prompting = false
	case tcell.KeyEnter:
		fn := a.onSubmit
		text := a.buffer
		a.prompting = false
		if fn != nil {
			fn(text)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.buffer) > 0 {
			a.buffer = a.buffer[:len(a.buffer)-1]
		}
	default:
		if r := ev.Rune(); r >= ' ' {
			a.buffer += string(r)
		}
	}
}

func (a *app) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	fx, fy := float64(x), float64(y)
	buttons := ev.Buttons()

	var mod editor.Modifiers
	if ev.Modifiers()&(tcell.ModCtrl|tcell.ModShift) != 0 {
		mod = editor.ModMulti
	}

	if buttons&tcell.WheelUp != 0 {
		a.ed.Viewport().ZoomAt(editor.ZoomStepFactor, fx, fy)
	}
	if buttons&tcell.WheelDown != 0 {
		a.ed.Viewport().ZoomAt(1/editor.ZoomStepFactor, fx, fy)
	}

	// tcell reports the live button mask; edges are ours to detect.
	// Button1 = left, Button2 = right, Button3 = middle.
	pressed := buttons &^ a.lastButtons
	released := a.lastButtons &^ buttons
	a.lastButtons = buttons

	send := func(kind editor.PointerKind, btn editor.Button) {
		a.ed.HandlePointer(editor.PointerEvent{Kind: kind, Btn: btn, Mod: mod, X: fx, Y: fy})
	}

	if pressed&tcell.Button1 != 0 {
		send(editor.PointerDown, editor.ButtonLeft)
	}
	if pressed&tcell.Button2 != 0 {
		send(editor.PointerDown, editor.ButtonRight)
	}
	if pressed&tcell.Button3 != 0 {
		send(editor.PointerDown, editor.ButtonMiddle)
	}

	send(editor.PointerMove, editor.ButtonNone)

	if released&tcell.Button1 != 0 {
		send(editor.PointerUp, editor.ButtonLeft)
		a.modified = true
	}
	if released&tcell.Button3 != 0 {
		send(editor.PointerUp, editor.ButtonMiddle)
	}

	if a.hasContext {
		a.hasContext = false
		a.openContext()
	}
}

// openContext acts on the most recent right press: on a node it starts
// a connection, on empty canvas it offers a new node.
func (a *app) openContext() {
	switch a.contextHit.Kind {
	case editor.HitNode:
		a.ed.StartConnection(a.contextHit.NodeID)
		a.status("connecting: click a target node")
	case editor.HitNone:
		a.promptNewNode(a.contextWorld)
	}
}

func (a *app) promptNewNode(at geom.Point) {
	a.ask("node name: ", "", func(name string) {
		if name == "" {
			return
		}
		a.ed.AddNodeAt(name, at)
		a.modified = true
	})
}

func (a *app) promptRename() {
	ids := a.ed.Selection().NodeIDs()
	if len(ids) != 1 {
		a.status("select exactly one node to rename")
		return
	}
	n, ok := a.ed.Document().Node(ids[0])
	if !ok {
		return
	}
	a.ask("rename: ", n.Name, func(name string) {
		if name == "" {
			return
		}
		a.ed.UpdateNode(ids[0], func(n *graph.Node) { n.Name = name })
		a.modified = true
	})
}

func (a *app) startConnectionFromSelection() {
	ids := a.ed.Selection().NodeIDs()
	if len(ids) != 1 {
		a.status("select exactly one source node first")
		return
	}
	a.ed.StartConnection(ids[0])
	a.status("connecting: click a target node")
}

func (a *app) mergeSelection() {
	ids := a.ed.Selection().NodeIDs()
	if len(ids) != 1 {
		a.status("select exactly one node to merge from")
		return
	}
	if err := a.ed.MergeCommonConditions(ids[0]); err != nil {
		a.status("merge failed: %v", err)
		return
	}
	a.modified = true
	a.status("common conditions merged")
}

func (a *app) zoomAtCenter(factor float64) {
	w, h := a.screen.Size()
	a.ed.Viewport().ZoomAt(factor, float64(w)/2, float64(h)/2)
}

func (a *app) save() {
	if a.path == "" {
		a.ask("save as: ", "diagram.json", func(path string) {
			if path == "" {
				return
			}
			a.path = path
			a.save()
		})
		return
	}
	if err := canvasfile.WriteFile(a.path, a.ed.Document(), a.name); err != nil {
		a.status("save failed: %v", err)
		return
	}
	vp := a.ed.Viewport()
	px, py := vp.Pan()
	sc := canvasfile.Sidecar{View: canvasfile.ViewState{Zoom: vp.Zoom(), PanX: px, PanY: py}}
	if err := canvasfile.SaveSidecar(a.path, sc); err != nil {
		logger.Debug("sidecar save failed", "err", err)
	}
	a.modified = false
	a.status("saved %s", a.path)
}
