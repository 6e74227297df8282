package digest

import (
	"html"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DefaultTimezone = "America/New_York"

	// DateLayout renders dates as "05 Mar 2024".
	DateLayout = "02 Jan 2006"

	taskURLPrefix = "https://app.asana.com/0/"
	noProject     = "No Project Assigned"
	htmlSeparator = " &rsaquo; "
	textSeparator = " › "

	breadcrumbOpen = `<small style="color: #999; text-transform: uppercase; letter-spacing: 1px;">`
	dueDateOpen    = `<small style="color: #999; font-style: italic;">`
)

// Renderer turns tasks into the HTML fragments of a digest. It holds no
// state besides its options, so the same input always renders the same bytes.
type Renderer struct {
	loc    *time.Location
	escape bool
}

type Option func(*Renderer)

// WithLocation sets the zone due dates are displayed in.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithEscaping HTML-escapes every task, project and team name before it is
// interpolated into markup.
func WithEscaping(escape bool) Option {
	return func(r *Renderer) { r.escape = escape }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{loc: DefaultLocation()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultLocation returns America/New_York. The zone database is embedded,
// so the lookup cannot fail at runtime.
func DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		panic(err)
	}
	return loc
}

func (r *Renderer) text(s string) string {
	if r.escape {
		return html.EscapeString(s)
	}
	return s
}

// Breadcrumb renders the team › project › parent label shown above a task.
func (r *Renderer) Breadcrumb(t Task) string {
	label := lineage(t, htmlSeparator, r.text)
	return breadcrumbOpen + label + "</small><br>"
}

// Lineage is the plain-text form of the breadcrumb label.
func Lineage(t Task) string {
	return lineage(t, textSeparator, func(s string) string { return s })
}

func lineage(t Task, sep string, text func(string) string) string {
	var b strings.Builder

	var leaf string
	hasParent := t.Parent != nil
	if hasParent {
		leaf = t.Parent.Name
	}
	t = t.subject()

	// Only the first project is shown.
	if p, ok := t.firstProject(); ok {
		if p.Team != nil {
			b.WriteString(text(p.Team.Name))
			b.WriteString(sep)
		}
		b.WriteString(text(p.Name))
	}

	if hasParent {
		b.WriteString(sep)
		b.WriteString(text(leaf))
	}

	if b.Len() == 0 {
		return noProject
	}
	return b.String()
}

// TaskURL builds the deep link for t. The task segment is always t's own id;
// the project segment comes from the subject's first project and falls back
// to the workspace id.
func TaskURL(t Task) string {
	taskID := t.ID
	projectID := string(t.Workspace)

	if p, ok := t.subject().firstProject(); ok {
		projectID = p.ID
	}

	return taskURLPrefix + projectID + "/" + taskID
}

// DueDate renders d in the renderer's zone, or nothing when d is nil.
func (r *Renderer) DueDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return dueDateOpen + FormatDate(*d, r.loc) + "</small>"
}

// FormatDate formats t as "DD Mon YYYY" in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = DefaultLocation()
	}
	return t.In(loc).Format(DateLayout)
}

// RenderTask renders one task paragraph.
func (r *Renderer) RenderTask(t Task) string {
	var b strings.Builder
	b.WriteString("<p>")
	b.WriteString(r.Breadcrumb(t))
	b.WriteString(`<a href="`)
	b.WriteString(r.text(TaskURL(t)))
	b.WriteString(`"><strong>`)
	b.WriteString(r.text(t.Name))
	b.WriteString("</strong></a> ")
	b.WriteString(r.DueDate(t.DueOn))
	b.WriteString("</p>")
	return b.String()
}

// RenderSection renders the already filtered tasks of one workspace followed
// by the section separator.
func (r *Renderer) RenderSection(tasks []Task) string {
	var b strings.Builder
	for _, t := range tasks {
		b.WriteString(r.RenderTask(t))
	}
	b.WriteString("<br><br>")
	return b.String()
}
