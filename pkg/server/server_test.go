package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gen2brain/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/pkg/catalog"
	"roster/pkg/schema"
	"roster/pkg/store"
	"roster/pkg/view"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewServer(ctx, store.New(catalog.Default()), Options{AssetsDir: t.TempDir(), SSEBuffer: 4})
}

func do(t *testing.T, s *Server, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetRoot(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Dropdown Demo</title>")
	for _, name := range []string{"matt", "susan", "jerry", "cory", "kristi"} {
		assert.Contains(t, body, `<option value="`+name+`"`)
	}
	assert.Equal(t, 1, strings.Count(body, `<option value="matt"`))
	assert.Contains(t, body, `<option value="matt" selected>`)
	assert.Contains(t, body, "<p>Skill: 5</p>")
	assert.Contains(t, body, "<p>Luck: 2</p>")
	assert.Contains(t, body, "<p>Stamina: 3</p>")
	assert.Contains(t, body, `src="/images/matt.png"`)
	assert.NotContains(t, body, `class="snackbar"`)
}

func TestPostSelectAndDismiss(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"character": {"cory"}}.Encode()
	rec := do(t, s, http.MethodPost, "/select", form, "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	st := s.Store.Snapshot()
	assert.Equal(t, "cory", st.Character.Name)
	assert.Equal(t, 1, st.Sequence)

	body := do(t, s, http.MethodGet, "/", "", "").Body.String()
	assert.Contains(t, body, `<option value="cory" selected>`)
	assert.Contains(t, body, "<p>Luck: 9</p>")
	assert.Contains(t, body, `id="snackbar_1"`)
	assert.Contains(t, body, "Cory met a woman at a bar")

	rec = do(t, s, http.MethodPost, "/dismiss", "", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, s.Store.Snapshot().Sequence)
	assert.Equal(t, "cory", s.Store.Snapshot().Character.Name)

	body = do(t, s, http.MethodGet, "/", "", "").Body.String()
	assert.NotContains(t, body, `class="snackbar"`)
}

func TestPostSelectUnknown(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"character": {"nobody"}}.Encode()
	rec := do(t, s, http.MethodPost, "/select", form, "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.Store.Snapshot().Sequence)
	assert.Equal(t, "matt", s.Store.Snapshot().Character.Name)
}

func TestAPICharacters(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/characters", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	chars := decode[[]map[string]any](t, rec)
	require.Len(t, chars, 5)
	assert.Equal(t, "matt", chars[0]["name"])
	assert.Equal(t, "kristi", chars[4]["name"])

	rec = do(t, s, http.MethodGet, "/api/characters/susan", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	susan := decode[map[string]any](t, rec)
	assert.Equal(t, "susan.png", susan["image_path"])
	assert.Equal(t, float64(8), susan["stamina"])

	rec = do(t, s, http.MethodGet, "/api/characters/sussan", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	miss := decode[map[string]any](t, rec)
	assert.Equal(t, false, miss["success"])
	assert.Equal(t, "susan", miss["suggestion"])
}

func TestAPISelectAndDismiss(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/state", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[map[string]any](t, rec)
	assert.Equal(t, float64(0), st["sequence"])
	assert.Equal(t, false, st["notification_visible"])
	assert.Equal(t, "Matt plans to take over the office by getting everyone else fired", st["message"])

	rec = do(t, s, http.MethodPost, "/api/select", `{"name":"jerry"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), st["sequence"])
	assert.Equal(t, true, st["notification_visible"])
	assert.NotEmpty(t, st["notification_id"])
	assert.Equal(t, "jerry", st["character"].(map[string]any)["name"])

	rec = do(t, s, http.MethodPost, "/api/select", `{"name":"jerry"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, rec)["sequence"])

	rec = do(t, s, http.MethodPost, "/api/dismiss", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[map[string]any](t, rec)
	assert.Equal(t, float64(0), st["sequence"])
	assert.Nil(t, st["notification_id"])
	assert.Equal(t, "jerry", st["character"].(map[string]any)["name"])
}

func TestAPISelectErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		suggestion any
	}{
		{"malformed json", `{"name":`, nil},
		{"missing name", `{}`, nil},
		{"unknown name", `{"name":"krysti"}`, "kristi"},
		{"unrelated name", `{"name":"zzzzzzzz"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/select", tt.body, "application/json")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[map[string]any](t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.suggestion, body["suggestion"])
		})
	}
	assert.Equal(t, 0, s.Store.Snapshot().Sequence)
}

func TestAPIStory(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/story/unknown_name", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[storyResponse](t, rec)
	assert.Equal(t, storyResponse{Name: "unknown_name", Message: "The story of unknown_name begins!", Known: false}, st)

	rec = do(t, s, http.MethodGet, "/api/story/matt", "", "")
	st = decode[storyResponse](t, rec)
	assert.True(t, st.Known)
	assert.Equal(t, "Matt plans to take over the office by getting everyone else fired", st.Message)
}

func TestAPISchemaAndDuplicates(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/schema", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sch := decode[map[string]any](t, rec)
	assert.Equal(t, "array", sch["type"])

	rec = do(t, s, http.MethodGet, "/api/duplicates", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dups := decode[[]map[string]any](t, rec)
	require.Len(t, dups, 1)
	assert.Equal(t, "matt", dups[0]["name"])
	assert.Equal(t, true, dups[0]["identical"])
	assert.Equal(t, "unchanged", dups[0]["diff"].(map[string]any)["state"])
}

func TestGetImage(t *testing.T) {
	t.Run("placeholder for missing asset", func(t *testing.T) {
		s := newTestServer(t)

		rec := do(t, s, http.MethodGet, "/images/matt.png", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))

		img, err := webp.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, portraitSize, img.Bounds().Dx())
		assert.Equal(t, 1, s.Portraits.Len())
	})

	t.Run("asset is re-encoded", func(t *testing.T) {
		s := newTestServer(t)

		src := image.NewRGBA(image.Rect(0, 0, 16, 8))
		src.Set(1, 1, color.RGBA{R: 255, A: 255})
		f, err := os.Create(filepath.Join(s.assetsDir, "susan.png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, src))
		require.NoError(t, f.Close())

		rec := do(t, s, http.MethodGet, "/images/susan.png", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		img, err := webp.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
		assert.Equal(t, 8, img.Bounds().Dy())
	})

	t.Run("corrupt asset", func(t *testing.T) {
		s := newTestServer(t)
		require.NoError(t, os.WriteFile(filepath.Join(s.assetsDir, "cory.png"), []byte("not an image"), 0o644))

		rec := do(t, s, http.MethodGet, "/images/cory.png", "", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, 0, s.Portraits.Len())
	})

	t.Run("unowned file", func(t *testing.T) {
		s := newTestServer(t)
		rec := do(t, s, http.MethodGet, "/images/other.png", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("traversal", func(t *testing.T) {
		s := newTestServer(t)
		rec := do(t, s, http.MethodGet, "/images/..%2Fmatt.png", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(t, s, http.MethodGet, "/images/portraits/../../matt.png", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("asset in subdirectory", func(t *testing.T) {
		cat, err := catalog.New([]schema.Character{
			{Name: "matt", ImagePath: "portraits/matt.png", Skill: 5, Luck: 2, Stamina: 3},
			{Name: "susan", ImagePath: "portraits/missing.png", Skill: 3, Luck: 4, Stamina: 5},
		})
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		s := NewServer(ctx, store.New(cat), Options{AssetsDir: t.TempDir(), SSEBuffer: 4})

		require.NoError(t, os.MkdirAll(filepath.Join(s.assetsDir, "portraits"), 0o755))
		writePNG(t, filepath.Join(s.assetsDir, "portraits", "matt.png"), 12, 6)

		rec := do(t, s, http.MethodGet, view.ImageURL("portraits/matt.png"), "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		img, err := webp.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 12, img.Bounds().Dx())
		assert.Equal(t, 6, img.Bounds().Dy())

		rec = do(t, s, http.MethodGet, view.ImageURL("portraits/missing.png"), "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		img, err = webp.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, portraitSize, img.Bounds().Dx())

		rec = do(t, s, http.MethodGet, "/images/portraits/other.png", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("refresh picks up a replaced asset", func(t *testing.T) {
		s := newTestServer(t)
		writePNG(t, filepath.Join(s.assetsDir, "jerry.png"), 16, 8)

		rec := do(t, s, http.MethodGet, "/images/jerry.png", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		writePNG(t, filepath.Join(s.assetsDir, "jerry.png"), 10, 20)

		rec = do(t, s, http.MethodGet, "/images/jerry.png", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		img, err := webp.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx(), "cached copy is served until refreshed")

		rec = do(t, s, http.MethodGet, "/images/jerry.png?refresh=1", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		img, err = webp.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 10, img.Bounds().Dx())
		assert.Equal(t, 20, img.Bounds().Dy())

		rec = do(t, s, http.MethodGet, "/images/jerry.png", "", "")
		img, err = webp.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 10, img.Bounds().Dx())
	})
}

func writePNG(t *testing.T, name string, w, h int) {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	src.Set(0, 0, color.RGBA{G: 255, A: 255})
	f, err := os.Create(name)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())
}

func TestPlaceholderBars(t *testing.T) {
	ch, _ := catalog.Default().Get("kristi")
	img := placeholder(ch)

	bounds := img.Bounds()
	assert.Equal(t, portraitSize, bounds.Dx())
	assert.Equal(t, portraitSize, bounds.Dy())

	bar := color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	// Bottom of the first bar is always drawn for a positive stat.
	assert.Equal(t, bar, img.At(25, portraitSize-21))
	// Top-left corner is background.
	assert.NotEqual(t, bar, img.At(0, 0))
}

func TestOfferLatest(t *testing.T) {
	ch := make(chan store.State, 2)
	for i := 1; i <= 5; i++ {
		offerLatest(ch, store.State{Sequence: i})
	}
	require.Len(t, ch, 2)
	assert.Equal(t, 4, (<-ch).Sequence)
	assert.Equal(t, 5, (<-ch).Sequence)
}

func TestEvents(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Echo)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 8)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var cur strings.Builder
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				events <- cur.String()
				cur.Reset()
				continue
			}
			cur.WriteString(line)
			cur.WriteString("\n")
		}
	}()

	next := func() string {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed")
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	first := next()
	assert.True(t, strings.HasPrefix(first, "event: state\n"))
	assert.Contains(t, first, `<option value="matt" selected>`)
	assert.NotContains(t, first, "snackbar")

	require.Eventually(t, func() bool { return s.Store.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	s.Store.MustSelect("susan")

	second := next()
	assert.Contains(t, second, `<option value="susan" selected>`)
	assert.Contains(t, second, `id="snackbar_1"`)
	assert.Contains(t, second, "Susan wants to save the company")

	cancel()
	require.Eventually(t, func() bool { return s.Store.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
