package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/charmbracelet/log"

	"pomodoro-todo/internal/client"
	"pomodoro-todo/pkg/activity"
	"pomodoro-todo/pkg/task"
)

var theme *material.Theme

// Pages
const (
	pageTasks = iota
	pageActivity
)

var levelColors = map[activity.Level]color.NRGBA{
	activity.LevelSuccess: {R: 0x00, G: 0xC0, B: 0x00, A: 0xFF},
	activity.LevelWarning: {R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF},
	activity.LevelInfo:    {R: 0x00, G: 0xA0, B: 0xFF, A: 0xFF},
	activity.LevelNeutral: {R: 0x80, G: 0x80, B: 0x80, A: 0xFF},
}

var (
	grey    = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	danger  = color.NRGBA{R: 0xC0, G: 0x30, B: 0x30, A: 0xFF}
	running = color.NRGBA{R: 0xFF, G: 0x60, B: 0x40, A: 0xFF}
)

type rowButtons struct {
	complete widget.Clickable
	timer    widget.Clickable
	remove   widget.Clickable
}

type UI struct {
	api    *client.Client
	window *app.Window

	currentPage int

	// Nav buttons
	navTasks    widget.Clickable
	navActivity widget.Clickable

	mirror client.Mirror

	// Guards events and lastError, written by background goroutines.
	mu        sync.Mutex
	events    []activity.Event
	lastError string

	// Tasks
	taskList widget.List
	editor   widget.Editor
	addBtn   widget.Clickable
	rows     map[string]*rowButtons

	// Activity
	eventList  widget.List
	refreshBtn widget.Clickable
}

func main() {
	base := os.Getenv("API_BASE")
	if base == "" {
		base = defaultBase
	}

	theme = material.NewTheme()
	theme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	theme.Palette.Bg = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xFF}
	theme.Palette.Fg = color.NRGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	theme.Palette.ContrastBg = color.NRGBA{R: 0xC0, G: 0x40, B: 0x30, A: 0xFF}
	theme.Palette.ContrastFg = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	ui := &UI{
		api:    client.New(base),
		window: new(app.Window),
		rows:   make(map[string]*rowButtons),
	}
	ui.taskList.Axis = layout.Vertical
	ui.eventList.Axis = layout.Vertical
	ui.editor.SingleLine = true
	ui.editor.Submit = true

	ctx, cancel := context.WithCancel(context.Background())
	go ui.follow(ctx)

	go func() {
		ui.window.Option(app.Title("Pomodoro To-Do"))
		ui.window.Option(app.Size(unit.Dp(720), unit.Dp(800)))
		err := ui.run(ui.window)
		cancel()
		if err != nil {
			log.Fatal("window", "err", err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func (ui *UI) run(w *app.Window) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			ui.handleInput(gtx)
			ui.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

// follow keeps a stream open to the server, reconnecting after failures.
// The open stream is what keeps the server's timers ticking.
func (ui *UI) follow(ctx context.Context) {
	ui.fetchEvents(ctx)
	for {
		err := ui.api.Stream(ctx, func(m client.Message) {
			ui.mirror.Apply(m)
			if m.Notification != nil {
				go ui.fetchEvents(ctx)
			}
			ui.window.Invalidate()
		})
		if ctx.Err() != nil {
			return
		}
		log.Warn("stream closed", "err", err)
		ui.mirror.SetOffline()
		ui.window.Invalidate()

		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (ui *UI) fetchEvents(ctx context.Context) {
	events, err := ui.api.Events(ctx, 100)
	if err != nil {
		log.Warn("fetch events", "err", err)
		return
	}
	ui.mu.Lock()
	ui.events = events
	ui.mu.Unlock()
	ui.window.Invalidate()
}

func (ui *UI) handleInput(gtx layout.Context) {
	if ui.navTasks.Clicked(gtx) {
		ui.currentPage = pageTasks
	}
	if ui.navActivity.Clicked(gtx) {
		ui.currentPage = pageActivity
	}
	if ui.refreshBtn.Clicked(gtx) {
		go ui.fetchEvents(context.Background())
	}

	submit := ui.addBtn.Clicked(gtx)
	for {
		ev, ok := ui.editor.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.SubmitEvent); ok {
			submit = true
		}
	}
	if submit {
		text := ui.editor.Text()
		if strings.TrimSpace(text) != "" {
			ui.editor.SetText("")
		}
		go ui.command(func(ctx context.Context) error {
			_, err := ui.api.Add(ctx, text)
			return err
		})
	}

	snap, _, _ := ui.mirror.State()
	client.Retain(ui.rows, snap.Tasks)
	for _, t := range snap.Tasks {
		btns := ui.buttons(t.ID)
		id := t.ID
		if btns.complete.Clicked(gtx) {
			go ui.command(func(ctx context.Context) error {
				_, err := ui.api.ToggleCompletion(ctx, id)
				return err
			})
		}
		if btns.timer.Clicked(gtx) && ui.mirror.Startable(id) {
			go ui.command(func(ctx context.Context) error {
				_, err := ui.api.ToggleTimer(ctx, id)
				return err
			})
		}
		if btns.remove.Clicked(gtx) {
			go ui.command(func(ctx context.Context) error {
				return ui.api.Remove(ctx, id)
			})
		}
	}
}

// command runs one API call. Outcomes arrive through the stream; only
// failures are shown here.
func (ui *UI) command(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := fn(ctx)

	ui.mu.Lock()
	var apiErr *client.APIError
	switch {
	case err == nil:
		ui.lastError = ""
	case errors.Is(err, task.ErrEmptyText):
		// The server also broadcasts the warning as a notification.
		ui.lastError = ""
	case errors.As(err, &apiErr):
		ui.lastError = apiErr.Message
	default:
		ui.lastError = err.Error()
		log.Error("command", "err", err)
	}
	ui.mu.Unlock()
	ui.window.Invalidate()
}

func (ui *UI) buttons(id string) *rowButtons {
	b, ok := ui.rows[id]
	if !ok {
		b = new(rowButtons)
		ui.rows[id] = b
	}
	return b
}

func (ui *UI) layout(gtx layout.Context) layout.Dimensions {
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return ui.layoutNav(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(16)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				switch ui.currentPage {
				case pageActivity:
					return ui.layoutActivity(gtx)
				default:
					return ui.layoutTasks(gtx)
				}
			})
		}),
	)
}

func (ui *UI) layoutNav(gtx layout.Context) layout.Dimensions {
	gtx.Constraints.Min.X = gtx.Dp(unit.Dp(140))
	gtx.Constraints.Max.X = gtx.Dp(unit.Dp(140))
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(16), Bottom: unit.Dp(16), Left: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				label := material.H6(theme, "pomo")
				label.Color = theme.Palette.ContrastFg
				return label.Layout(gtx)
			})
		}),
		layout.Rigid(navBtn(theme, &ui.navTasks, "Tasks", ui.currentPage == pageTasks)),
		layout.Rigid(navBtn(theme, &ui.navActivity, "Activity", ui.currentPage == pageActivity)),
	)
}

func navBtn(th *material.Theme, btn *widget.Clickable, label string, active bool) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Top: unit.Dp(2), Bottom: unit.Dp(2), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			b := material.Button(th, btn, label)
			if active {
				b.Background = th.Palette.ContrastBg
			} else {
				b.Background = color.NRGBA{A: 0}
			}
			b.Color = th.Palette.Fg
			return b.Layout(gtx)
		})
	}
}

func (ui *UI) layoutTasks(gtx layout.Context) layout.Dimensions {
	snap, notice, online := ui.mirror.State()
	ui.mu.Lock()
	lastError := ui.lastError
	ui.mu.Unlock()

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Pomodoro To-Do").Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if online {
				return layout.Dimensions{}
			}
			label := material.Caption(theme, "Connecting to server...")
			label.Color = grey
			return label.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{}.Layout(gtx,
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return material.Editor(theme, &ui.editor, "Add a new task...").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return material.Button(theme, &ui.addBtn, "Add").Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			switch {
			case lastError != "":
				label := material.Body2(theme, lastError)
				label.Color = danger
				return label.Layout(gtx)
			case notice != nil:
				label := material.Body2(theme, notice.Message)
				label.Color = levelColors[notice.Level]
				return label.Layout(gtx)
			}
			return layout.Dimensions{}
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.ProgressBar(theme, float32(snap.Progress.Percent/100)).Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			p := snap.Progress
			label := material.Caption(theme, fmt.Sprintf("%.0f%% complete (%d/%d)", p.Percent, p.Completed, p.Total))
			label.Color = grey
			return label.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(theme, &ui.taskList).Layout(gtx, len(snap.Tasks), func(gtx layout.Context, i int) layout.Dimensions {
				return ui.layoutTask(gtx, snap.Tasks[i])
			})
		}),
	)
}

func (ui *UI) layoutTask(gtx layout.Context, t task.Task) layout.Dimensions {
	btns := ui.buttons(t.ID)
	return layout.Inset{Bottom: unit.Dp(6)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				label := "Done"
				if t.Completed {
					label = "Undo"
				}
				return material.Button(theme, &btns.complete, label).Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						label := material.Body1(theme, t.Text)
						if t.Completed {
							label.Color = grey
						} else {
							label.Font.Weight = font.Bold
						}
						return label.Layout(gtx)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						label := material.Caption(theme, "Time spent: "+task.FormatClock(t.TimeSpent))
						label.Color = grey
						return label.Layout(gtx)
					}),
				)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				label := material.H6(theme, task.FormatClock(t.Timer))
				if t.IsRunning {
					label.Color = running
				}
				return label.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				label := "Start"
				if t.IsRunning {
					label = "Pause"
				}
				b := material.Button(theme, &btns.timer, label)
				if t.Completed {
					b.Background = grey
					gtx = gtx.Disabled()
				}
				return b.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				b := material.Button(theme, &btns.remove, "Remove")
				b.Background = danger
				return b.Layout(gtx)
			}),
		)
	})
}

func (ui *UI) layoutActivity(gtx layout.Context) layout.Dimensions {
	ui.mu.Lock()
	events := ui.events
	ui.mu.Unlock()

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return material.H5(theme, "Activity").Layout(gtx)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return material.Button(theme, &ui.refreshBtn, "Refresh").Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(theme, &ui.eventList).Layout(gtx, len(events), func(gtx layout.Context, i int) layout.Dimensions {
				e := events[i]
				return layout.Inset{Bottom: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Body2(theme, fmt.Sprintf("[%s] %s", e.Timestamp.Format("15:04:05"), e.Type))
							label.Font.Weight = font.Bold
							return label.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							msg := e.Message
							if msg == "" {
								msg = "-"
							}
							label := material.Caption(theme, msg)
							if c, ok := levelColors[e.Level]; ok {
								label.Color = c
							} else {
								label.Color = grey
							}
							return label.Layout(gtx)
						}),
					)
				})
			})
		}),
	)
}
