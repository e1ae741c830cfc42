// Package xmlcodec renders and parses the wire XML bodies of the protocol.
// Serialization is hand-rolled so element order and formatting match the
// service byte for byte; parsing is lenient about unknown elements but
// strict about well-formedness.
package xmlcodec

import (
	"strconv"
	"strings"
	"time"
)

// Prolog opens every serialized document.
const Prolog = `<?xml version="1.0" encoding="utf-8"?>`

// AccessPolicyTimeFormat is the timestamp format of stored access policies
// and user delegation keys.
const AccessPolicyTimeFormat = "2006-01-02T15:04:05Z"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape escapes the five XML special characters.
func Escape(s string) string { return escaper.Replace(s) }

// writer builds a document with exact control over element order.
type writer struct {
	b strings.Builder
}

func newWriter() *writer {
	w := &writer{}
	w.b.WriteString(Prolog)
	return w
}

func (w *writer) raw(s string) { w.b.WriteString(s) }

func (w *writer) open(name string) {
	w.b.WriteString("<")
	w.b.WriteString(name)
	w.b.WriteString(">")
}

func (w *writer) openAttr(name string, attrs ...[2]string) {
	w.b.WriteString("<")
	w.b.WriteString(name)
	for _, a := range attrs {
		w.b.WriteString(" ")
		w.b.WriteString(a[0])
		w.b.WriteString(`="`)
		w.b.WriteString(Escape(a[1]))
		w.b.WriteString(`"`)
	}
	w.b.WriteString(">")
}

func (w *writer) close(name string) {
	w.b.WriteString("</")
	w.b.WriteString(name)
	w.b.WriteString(">")
}

// elem writes <name>value</name> with the value escaped.
func (w *writer) elem(name, value string) {
	w.open(name)
	w.b.WriteString(Escape(value))
	w.close(name)
}

// elemOpt writes the element only when value is non-empty.
func (w *writer) elemOpt(name, value string) {
	if value != "" {
		w.elem(name, value)
	}
}

func (w *writer) elemInt(name string, v int) {
	w.elem(name, strconv.Itoa(v))
}

func (w *writer) elemUint(name string, v uint64) {
	w.elem(name, strconv.FormatUint(v, 10))
}

func (w *writer) elemBool(name string, v bool) {
	w.elem(name, strconv.FormatBool(v))
}

func (w *writer) elemTime(name string, t time.Time, layout string) {
	w.elem(name, t.UTC().Format(layout))
}

func (w *writer) String() string { return w.b.String() }
