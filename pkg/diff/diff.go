package diff

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aryann/difflib"

	"roster/pkg/schema"
	"roster/pkg/utils"
)

type ChangeType int

const (
	Unchanged ChangeType = iota
	Modified
)

func (c ChangeType) String() string {
	if c == Modified {
		return "modified"
	}
	return "unchanged"
}

func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

type WordDelta struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

type StringDiff struct {
	Old    string      `json:"old"`
	New    string      `json:"new"`
	Deltas []WordDelta `json:"deltas"`
}

type FieldDiff struct {
	Path string     `json:"path"`
	Str  StringDiff `json:"diff"`
}

type CharacterDiff struct {
	Name       string      `json:"name"`
	State      ChangeType  `json:"state"`
	FieldDiffs []FieldDiff `json:"fields,omitempty"`
}

// Characters compares two records field by field.
func Characters(o, n schema.Character) CharacterDiff {
	fd := make([]FieldDiff, 0, 5)
	addFieldDiff := func(path, a, b string) {
		if a == b {
			return
		}
		fd = append(fd, FieldDiff{Path: path, Str: strDiff(a, b)})
	}

	addFieldDiff("Name", o.Name, n.Name)
	addFieldDiff("ImagePath", o.ImagePath, n.ImagePath)
	addFieldDiff("Skill", strconv.Itoa(o.Skill), strconv.Itoa(n.Skill))
	addFieldDiff("Luck", strconv.Itoa(o.Luck), strconv.Itoa(n.Luck))
	addFieldDiff("Stamina", strconv.Itoa(o.Stamina), strconv.Itoa(n.Stamina))

	state := Unchanged
	if len(fd) > 0 {
		state = Modified
	}
	return CharacterDiff{Name: n.Name, State: state, FieldDiffs: fd}
}

func strDiff(a, b string) StringDiff {
	if a == b {
		return StringDiff{Old: a, New: b, Deltas: []WordDelta{{Op: Equal, Text: a}}}
	}
	at := utils.TokenizeWords(a)
	bt := utils.TokenizeWords(b)
	recs := difflib.Diff(at, bt)
	deltas := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			deltas = append(deltas, WordDelta{Op: Equal, Text: r.Payload})
		case difflib.LeftOnly:
			deltas = append(deltas, WordDelta{Op: Delete, Text: r.Payload})
		case difflib.RightOnly:
			deltas = append(deltas, WordDelta{Op: Insert, Text: r.Payload})
		}
	}
	return StringDiff{Old: a, New: b, Deltas: coalesce(deltas)}
}

// coalesce merges adjacent deltas with the same op.
func coalesce(in []WordDelta) []WordDelta {
	out := make([]WordDelta, 0, len(in))
	for _, d := range in {
		if n := len(out); n > 0 && out[n-1].Op == d.Op {
			out[n-1].Text += d.Text
			continue
		}
		out = append(out, d)
	}
	return out
}

const (
	ansiReset = "\x1b[0m"
	fgGreen   = "\x1b[32m"
	fgRed     = "\x1b[31m"
	fgYellow  = "\x1b[33m"
	faint     = "\x1b[2m"
	uline     = "\x1b[4m"
	strike    = "\x1b[9m"
)

func renderStringDiff(sd StringDiff) string {
	var b strings.Builder
	for _, d := range sd.Deltas {
		switch d.Op {
		case Equal:
			b.WriteString(d.Text)
		case Insert:
			fmt.Fprintf(&b, "%s%s%s%s", fgGreen, uline, d.Text, ansiReset)
		case Delete:
			fmt.Fprintf(&b, "%s%s%s%s", fgRed, strike, d.Text, ansiReset)
		}
	}
	return b.String()
}

func (d CharacterDiff) Print(w io.Writer) {
	tag := faint + "[=]" + ansiReset
	if d.State == Modified {
		tag = fgYellow + "[~]" + ansiReset
	}
	fmt.Fprintf(w, "  %s %s\n", tag, d.Name)
	for _, f := range d.FieldDiffs {
		fmt.Fprintf(w, "    %s: %s\n", f.Path, renderStringDiff(f.Str))
	}
}
