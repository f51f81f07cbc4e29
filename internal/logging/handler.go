package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// timeFormat keeps seconds: a burn is a sequence of tool runs and eject
// delays, and their spacing matters when reading a log.
const timeFormat = "15:04:05"

// palette colors the parts of a console line. A nil palette writes plain
// text.
type palette struct {
	time, key          *color.Color
	trace, debug, info *color.Color
	warn, err          *color.Color
}

func newPalette() *palette {
	return &palette{
		time:  color.New(color.FgHiBlack),
		key:   color.New(color.FgCyan),
		trace: color.New(color.FgHiBlack),
		debug: color.New(color.FgMagenta),
		info:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		err:   color.New(color.FgRed, color.Bold),
	}
}

func (p *palette) level(l slog.Level) *color.Color {
	switch {
	case l >= slog.LevelError:
		return p.err
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l > LevelTrace:
		return p.debug
	default:
		return p.trace
	}
}

func paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

// Handler is the console slog.Handler: one line per record,
// "15:04:05 LEVEL message key=value ...". Lines are colored only when the
// output is a terminal that accepts colors.
type Handler struct {
	level  slog.Leveler
	out    io.Writer
	mu     *sync.Mutex
	colors *palette
	prefix string // rendered attrs from WithAttrs
	groups string // "group." prefix from WithGroup
}

// NewHandler creates a console handler writing to out.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{level: slog.LevelInfo, out: out, mu: &sync.Mutex{}}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	if SupportsColor(out) {
		h.colors = newPalette()
	}
	return h
}

// Enabled reports whether level passes the handler's minimum level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes r as a single line.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	if !r.Time.IsZero() {
		b.WriteString(h.color(func(p *palette) *color.Color { return p.time }, r.Time.Format(timeFormat)))
		b.WriteByte(' ')
	}
	name := fmt.Sprintf("%-5s", levelName(r.Level))
	b.WriteString(h.color(func(p *palette) *color.Color { return p.level(r.Level) }, name))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, h.groups, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *Handler) color(pick func(*palette) *color.Color, s string) string {
	if h.colors == nil {
		return s
	}
	return paint(pick(h.colors), s)
}

func (h *Handler) writeAttr(b *strings.Builder, groups string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.writeAttr(b, groups+a.Key+".", ga)
		}
		return
	}

	var value string
	switch a.Value.Kind() {
	case slog.KindString:
		value = quoteIfNeeded(a.Value.String())
	case slog.KindDuration:
		value = a.Value.Duration().String()
	case slog.KindTime:
		value = a.Value.Time().Format(time.RFC3339)
	default:
		value = fmt.Sprint(a.Value.Any())
	}
	b.WriteByte(' ')
	b.WriteString(h.color(func(p *palette) *color.Color { return p.key }, groups+a.Key))
	b.WriteByte('=')
	b.WriteString(value)
}

// quoteIfNeeded quotes values containing spaces, so a raw line of cdrecord
// or growisofs output stays one value.
func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}

// WithAttrs renders attrs once; they are appended to every later line.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	for _, a := range attrs {
		h.writeAttr(&b, h.groups, a)
	}
	c := *h
	c.prefix = h.prefix + b.String()
	return &c
}

// WithGroup prefixes the keys of later attributes with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = h.groups + name + "."
	return &c
}
