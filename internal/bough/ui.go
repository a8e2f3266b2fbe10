package bough

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// tviewPrompter renders prompts as short-lived full-screen tview apps.
// Every prompt blocks until answered; Esc dismisses and reports
// ErrCancelled.
type tviewPrompter struct{}

func newTviewPrompter() Prompter {
	return tviewPrompter{}
}

func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

func (tviewPrompter) Select(title string, options []string) (int, error) {
	app := tview.NewApplication()
	list := tview.NewList().ShowSecondaryText(false)
	selected := -1
	for i, option := range options {
		index := i
		list.AddItem(option, "", 0, func() {
			selected = index
			app.Stop()
		})
	}
	list.SetDoneFunc(func() {
		app.Stop()
	})
	list.SetBorder(true).SetTitle(" " + title + " ")

	height := len(options) + 2
	if height > 20 {
		height = 20
	}
	if err := app.SetRoot(centered(list, 72, height), true).Run(); err != nil {
		return 0, err
	}
	if selected < 0 {
		return 0, ErrCancelled
	}
	return selected, nil
}

func (tviewPrompter) Confirm(title, yesLabel, noLabel string) (bool, error) {
	app := tview.NewApplication()
	answered := false
	confirmed := false
	modal := tview.NewModal().
		SetText(title).
		AddButtons([]string{yesLabel, noLabel}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			answered = buttonIndex >= 0
			confirmed = buttonLabel == yesLabel
			app.Stop()
		})
	if err := app.SetRoot(modal, true).Run(); err != nil {
		return false, err
	}
	if !answered {
		return false, ErrCancelled
	}
	return confirmed, nil
}

func (tviewPrompter) Input(title, initial string) (string, error) {
	app := tview.NewApplication()
	answered := false
	field := tview.NewInputField().
		SetLabel(" > ").
		SetText(initial).
		SetFieldWidth(60)
	field.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			answered = true
		}
		app.Stop()
	})
	field.SetBorder(true).SetTitle(" " + title + " ")

	if err := app.SetRoot(centered(field, 72, 3), true).Run(); err != nil {
		return "", err
	}
	if !answered {
		return "", ErrCancelled
	}
	return field.GetText(), nil
}

// runUI shows the worktree list: Enter opens the selected directory as a
// workspace, n/s/y/r trigger the workflows, q quits. The table re-reads
// live state after every repository-state-changed notification.
func runUI(eng *Engine) int {
	repo, cwd, err := requireRepoHere(eng)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorMsg(err.Error()))
		return 1
	}

	app := tview.NewApplication()
	table := tview.NewTable().SetSelectable(true, false)
	table.SetBorder(true).SetTitle(" bough — " + repo.Root + " ")
	footer := tview.NewTextView().
		SetText(" enter open • n new • s switch • y sync • r refresh • q quit").
		SetTextColor(tcell.ColorGray)

	var rows []ListRow
	reload := func() {
		fresh, err := eng.listRows(repo, cwd)
		if err != nil {
			return
		}
		rows = fresh
		table.Clear()
		for col, head := range []string{"CUR", "BRANCH", "STATUS", "PATH"} {
			table.SetCell(0, col, tview.NewTableCell(head).
				SetTextColor(tcell.ColorGreen).
				SetSelectable(false))
		}
		for i, row := range rows {
			cur := ""
			if row.Current {
				cur = "*"
			}
			status := "clean"
			color := tcell.ColorGreen
			if row.Dirty {
				status = "dirty"
				color = tcell.ColorRed
			}
			branch := row.Branch
			if branch == "" {
				branch = "detached"
			}
			table.SetCell(i+1, 0, tview.NewTableCell(cur))
			table.SetCell(i+1, 1, tview.NewTableCell(truncateCell(branch, 40)).SetTextColor(tcell.ColorTeal))
			table.SetCell(i+1, 2, tview.NewTableCell(status).SetTextColor(color))
			table.SetCell(i+1, 3, tview.NewTableCell(row.Path).SetTextColor(tcell.ColorBlue))
		}
		table.Select(1, 0)
	}
	reload()

	token := eng.Events().Subscribe(func() {
		reload()
	})
	defer eng.Events().Unsubscribe(token)

	runWorkflow := func(fn func()) {
		// Workflows spawn their own prompt apps; suspend the list first.
		app.Suspend(fn)
		reload()
	}

	table.SetSelectedFunc(func(row, col int) {
		if row-1 < 0 || row-1 >= len(rows) {
			return
		}
		_ = eng.host.OpenDirectory(rows[row-1].Path)
	})
	table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			app.Stop()
			return nil
		case 'r':
			reload()
			return nil
		case 'n':
			runWorkflow(func() { _, _ = eng.CreateBranch(repo, CreateFromDefault) })
			return nil
		case 's':
			runWorkflow(func() { _ = eng.SwitchBranch(repo, cwd) })
			return nil
		case 'y':
			row, _ := table.GetSelection()
			if row-1 >= 0 && row-1 < len(rows) && rows[row-1].Branch != "" {
				branch := rows[row-1].Branch
				runWorkflow(func() { _, _ = eng.Sync(repo, branch) })
			}
			return nil
		}
		return event
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(table, 0, 1, true).
		AddItem(footer, 1, 0, false)

	if err := app.SetRoot(layout, true).Run(); err != nil {
		fmt.Fprintln(os.Stderr, errorMsg(err.Error()))
		return 1
	}
	return 0
}
