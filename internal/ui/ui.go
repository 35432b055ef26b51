package ui

import (
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Screen is a full-screen Console: a conversation view, a one line input and,
// in dev mode, a debug pane the logger writes to.
type Screen struct {
	app          *tview.Application
	textView     *tview.TextView
	input        *tview.InputField
	debugConsole *tview.TextView
	mainFlex     *tview.Flex

	lines chan string
	done  chan struct{}
}

func NewScreen(dev bool) *Screen {
	s := &Screen{
		app:   tview.NewApplication(),
		lines: make(chan string, 16),
		done:  make(chan struct{}),
	}
	s.app.EnablePaste(true)
	s.app.EnableMouse(true)

	s.textView = s.initConversationView()
	s.input = s.initInput()

	subFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(s.textView, 0, 1, false).
		AddItem(s.input, 3, 0, true)
	s.mainFlex = tview.NewFlex().
		AddItem(subFlex, 0, 2, true)

	if dev {
		s.debugConsole = s.initDebugConsole()
		s.mainFlex.AddItem(s.debugConsole, 0, 1, false)
	}
	return s
}

func (s *Screen) initConversationView() *tview.TextView {
	textView := tview.NewTextView().
		SetChangedFunc(func() {
			s.app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	textView.SetTitle("PUBG Q&A").SetBorder(true)
	textView.SetScrollable(true)
	textView.ScrollToEnd()
	textView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter:
			s.app.SetFocus(s.input)
		}
		return event
	})
	return textView
}

func (s *Screen) initInput() *tview.InputField {
	input := tview.NewInputField().SetLabel("> ")
	input.SetTitle("Input").SetBorder(true)

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := input.GetText()
			input.SetText("")
			fmt.Fprintf(s.textView, "[yellow::]%s[-]\n", tview.Escape(text))
			select {
			case s.lines <- text:
			default:
				fmt.Fprintln(s.textView, "[red::]Busy, input ignored.[-]")
			}
		case tcell.KeyEscape:
			if s.textView.GetText(false) != "" {
				s.app.SetFocus(s.textView)
			}
		}
	})
	return input
}

func (s *Screen) initDebugConsole() *tview.TextView {
	console := tview.NewTextView().
		SetChangedFunc(func() {
			s.app.Draw()
		}).
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	console.SetTitle("Debugger").SetBorder(true)
	console.ScrollToEnd()
	return console
}

// DebugConsole returns the debug pane, or nil outside dev mode.
func (s *Screen) DebugConsole() io.Writer {
	if s.debugConsole == nil {
		return nil
	}
	return s.debugConsole
}

func (s *Screen) ReadLine() (string, error) {
	select {
	case line := <-s.lines:
		return line, nil
	case <-s.done:
		return "", io.EOF
	}
}

func (s *Screen) Println(a ...interface{}) {
	fmt.Fprint(s.textView, tview.Escape(fmt.Sprintln(a...)))
}

func (s *Screen) Printf(format string, a ...interface{}) {
	fmt.Fprint(s.textView, tview.Escape(fmt.Sprintf(format, a...)))
}

func (s *Screen) Clear() {
	s.textView.Clear()
}

// Run starts loop on its own goroutine and runs the screen until loop
// returns or the user closes the screen (Ctrl-C).
func (s *Screen) Run(loop func(Console)) error {
	go func() {
		// returns once the event loop runs, so Stop cannot precede Run
		s.app.QueueUpdate(func() {})
		loop(s)
		s.app.Stop()
	}()

	err := s.app.SetRoot(s.mainFlex, true).SetFocus(s.input).Run()
	close(s.done)
	return err
}
