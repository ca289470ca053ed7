package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
)

// ErrJSON produces a standard JSON error response.
func ErrJSON(msg string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   msg,
	}
}

type levRows struct {
	prev []int
	curr []int
}

var rowsPool = sync.Pool{
	New: func() any {
		return &levRows{
			prev: make([]int, 0, 64),
			curr: make([]int, 0, 64),
		}
	},
}

// Levenshtein returns the edit distance between two strings.
func Levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	al, bl := len(ar), len(br)
	if al == 0 {
		return bl
	}
	if bl == 0 {
		return al
	}

	if bl > al {
		ar, br = br, ar
		al, bl = bl, al
	}

	rows := rowsPool.Get().(*levRows)
	if cap(rows.prev) < bl+1 {
		rows.prev = make([]int, bl+1)
	} else {
		rows.prev = rows.prev[:bl+1]
	}
	if cap(rows.curr) < bl+1 {
		rows.curr = make([]int, bl+1)
	} else {
		rows.curr = rows.curr[:bl+1]
	}

	for j := 0; j <= bl; j++ {
		rows.prev[j] = j
	}

	for i := 1; i <= al; i++ {
		rows.curr[0] = i
		for j := 1; j <= bl; j++ {
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			rows.curr[j] = min(rows.prev[j]+1, rows.curr[j-1]+1, rows.prev[j-1]+cost)
		}
		rows.prev, rows.curr = rows.curr, rows.prev
	}

	res := rows.prev[bl]
	rowsPool.Put(rows)
	return res
}

// Similarity returns a float between 0 and 1 (1 = identical).
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1.0
	}
	dist := Levenshtein(a, b)
	maxLen := float64(max(utf8.RuneCountInString(a), utf8.RuneCountInString(b)))
	if maxLen == 0 {
		return 0
	}
	return 1.0 - float64(dist)/maxLen
}

// Closest returns the candidate most similar to s, provided it scores at
// least threshold.
func Closest(s string, threshold float64, candidates ...string) (string, bool) {
	best, bestScore := "", 0.0
	for _, c := range candidates {
		if score := Similarity(s, c); score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == "" || bestScore < threshold {
		return "", false
	}
	return best, true
}

// CleanAssetPath normalizes a slash-separated path relative to an assets
// root. Paths that are empty, absolute or climb out of the root are rejected.
func CleanAssetPath(s string) (string, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	if s == "" || path.IsAbs(s) {
		return "", false
	}
	s = path.Clean(s)
	if s == "." || s == ".." || strings.HasPrefix(s, "../") {
		return "", false
	}
	return s, true
}

type SSEWriter struct {
	w    *echo.Response
	fl   http.Flusher
	done bool
}

// NewSSEWriter initializes SSE headers and returns a writer.
func NewSSEWriter(c echo.Context) (*SSEWriter, error) {
	w := c.Response()
	f, ok := w.Writer.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("SSE not supported: ResponseWriter not flushable")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &SSEWriter{w: w, fl: f}, nil
}

// Event sends an SSE event with an event name and data (struct/map/string).
// Multi-line string payloads are split across data lines.
func (s *SSEWriter) Event(event string, data any) error {
	if s.done {
		return nil
	}
	var payload string
	switch v := data.(type) {
	case string:
		payload = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(payload, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	if _, err := s.w.Write([]byte(b.String())); err != nil {
		return err
	}
	s.fl.Flush()
	return nil
}

// Close finalizes the stream.
func (s *SSEWriter) Close() {
	if s.done {
		return
	}
	s.done = true
	fmt.Fprint(s.w, "event: close\ndata: null\n\n")
	s.fl.Flush()
}
