package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/coulomb/internal/config"
	"github.com/san-kum/coulomb/internal/dynamo"
	"github.com/san-kum/coulomb/internal/field"
)

type frameMsg time.Time

// Player steps through a recorded trajectory, drawing the field of every
// shown frame. Frames advance by Skip recorded steps per tick.
type Player struct {
	cfg     *config.Config
	tr      *dynamo.Trajectory
	masses  []float64
	charges []float64
	sampler *field.Sampler
	heat    *Heatmap

	frame  int
	skip   int
	paused bool
	done   bool

	canvas string
	err    error
}

func NewPlayer(cfg *config.Config, tr *dynamo.Trajectory) Player {
	sampler := field.NewSampler(cfg.Constants)
	sampler.Workers = 0

	p := Player{
		cfg:     cfg,
		tr:      tr,
		masses:  cfg.Particles.Masses(),
		charges: cfg.Particles.Charges(),
		sampler: sampler,
		heat:    NewHeatmap(64, 32),
		skip:    cfg.Playback.Skip,
	}
	if p.skip < 1 {
		p.skip = 1
	}
	p.render()
	return p
}

func (p Player) Frame() int   { return p.frame }
func (p Player) Skip() int    { return p.skip }
func (p Player) Paused() bool { return p.paused }
func (p Player) Err() error   { return p.err }

func (p Player) interval() time.Duration {
	fps := p.cfg.Playback.FPS
	if fps < 1 {
		fps = config.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

func (p Player) tick() tea.Cmd {
	return tea.Tick(p.interval(), func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (p Player) Init() tea.Cmd {
	return p.tick()
}

func (p Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return p, tea.Quit
		case " ":
			p.paused = !p.paused
		case "r":
			p.seek(0)
		case "[", "left", "h":
			p.seek(p.frame - p.skip)
		case "]", "right", "l":
			p.seek(p.frame + p.skip)
		case "+", "=":
			p.skip *= 2
		case "-", "_":
			if p.skip > 1 {
				p.skip /= 2
			}
		case "c":
			p.heat.Colormap = p.heat.Colormap.Next()
			p.render()
		}
	case tea.WindowSizeMsg:
		cols, rows := msg.Width-4, msg.Height-8
		if cols > 0 && rows > 0 {
			p.heat.Cols, p.heat.Rows = cols, rows
			p.render()
		}
	case frameMsg:
		if !p.paused && !p.done {
			p.seek(p.frame + p.skip)
		}
		return p, p.tick()
	}
	return p, nil
}

// seek moves to recorded step i, clamped to the trajectory.
func (p *Player) seek(i int) {
	last := p.tr.Len() - 1
	if i < 0 {
		i = 0
	}
	p.done = i >= last
	if i > last {
		i = last
	}
	if i != p.frame || p.canvas == "" {
		p.frame = i
		p.render()
	}
}

func (p *Player) render() {
	if p.tr.Len() == 0 {
		p.canvas, p.err = "", nil
		return
	}
	x := p.tr.At(p.frame)
	grid, err := p.sampler.Sample(x, p.charges, p.cfg.Field.Bound, p.cfg.Field.N)
	if err != nil {
		p.canvas, p.err = "", err
		return
	}
	p.err = nil
	p.canvas = p.heat.Render(grid, Markers(x, p.masses, p.charges))
}

func (p Player) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(strings.ToUpper(p.cfg.Name)) + "\n")

	if p.err != nil {
		b.WriteString(ErrorStyle.Render(p.err.Error()) + "\n")
	} else {
		b.WriteString(p.canvas + "\n")
	}

	status := StatusRunning.Render("▶ playing")
	if p.paused {
		status = StatusPaused.Render("❚❚ paused")
	} else if p.done {
		status = StatusPaused.Render("■ end")
	}

	last := p.tr.Len() - 1
	progress := 0.0
	if last > 0 {
		progress = float64(p.frame) / float64(last)
	}
	t := 0.0
	if p.tr.Len() > 0 {
		t = p.tr.Times[p.frame]
	}

	b.WriteString(fmt.Sprintf("%s  %s  %s  %s  %s\n",
		status,
		Metric("step", fmt.Sprintf("%d/%d", p.frame, last)),
		Metric("t", fmt.Sprintf("%.3es", t)),
		Metric("skip", fmt.Sprintf("%d", p.skip)),
		Metric("cmap", p.heat.Colormap.Name),
	))
	b.WriteString(ProgressBar(progress, 40) + "\n")
	b.WriteString(KeyHint.Render("space pause  [/] step  +/- skip  r rewind  c colormap  q quit"))

	return b.String()
}

// Play runs the player full screen until the user quits.
func Play(p Player) error {
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}
