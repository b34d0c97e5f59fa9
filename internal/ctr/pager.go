package ctr

import (
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/term"
)

// runPager shows lines in a scrollable view when stdout is an interactive
// terminal and the content would not fit on screen; otherwise it prints
// them plainly so the output stays pipeable.
func runPager(title string, lines []string) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	}

	// Short content needs no pager; two rows go to the border.
	if _, height, err := term.GetSize(fd); err == nil && len(lines) <= height-2 {
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	}

	app := tview.NewApplication()

	view := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	view.SetBorder(true).SetTitle(" " + title + " ")

	// Build logs carry the tools' ANSI colors; translate them for tview.
	fmt.Fprint(tview.ANSIWriter(view), strings.Join(lines, "\n"))

	footer := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]Scroll with the arrow or paging keys. 'q' or Esc quits.[white]")

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(view, 0, 1, true).
		AddItem(footer, 1, 0, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				app.Stop()
				return nil
			}
		}
		return event
	})

	if err := app.SetRoot(layout, true).SetFocus(view).Run(); err != nil {
		return fmt.Errorf("pager failed: %w", err)
	}
	return nil
}
