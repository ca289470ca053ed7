// Package view turns the selection state into what the page renders.
package view

import (
	"net/url"
	"strconv"
	"strings"

	"roster/pkg/catalog"
	"roster/pkg/schema"
	"roster/pkg/store"
	"roster/pkg/story"
)

const (
	Title = "Dropdown Demo"
	Label = "character"
)

type Option struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type Notification struct {
	Visible bool   `json:"visible"`
	Message string `json:"message"`
	Key     string `json:"key"`
	ID      string `json:"id,omitempty"`
}

type Page struct {
	Title        string        `json:"title"`
	Label        string        `json:"label"`
	Options      []Option      `json:"options"`
	Selected     string        `json:"selected"`
	Stats        []schema.Stat `json:"stats"`
	ImageURL     string        `json:"image_url,omitempty"`
	Notification Notification  `json:"notification"`
}

// Build lays out the page for st. The notification is visible only
// after a selection that has not been dismissed.
func Build(cat *catalog.Catalog, st store.State) Page {
	ch := st.Character

	names := cat.Names()
	opts := make([]Option, 0, len(names))
	for _, n := range names {
		opts = append(opts, Option{Name: n, Selected: n == ch.Name})
	}

	return Page{
		Title:    Title,
		Label:    Label,
		Options:  opts,
		Selected: ch.Name,
		Stats:    ch.Stats(),
		ImageURL: ImageURL(ch.ImagePath),
		Notification: Notification{
			Visible: st.NotificationVisible(),
			Message: story.Resolve(ch.Name),
			Key:     "snackbar_" + strconv.Itoa(st.Sequence),
			ID:      st.NotificationID,
		},
	}
}

// ImageURL is the route serving the portrait for an image reference.
func ImageURL(imagePath string) string {
	if imagePath == "" {
		return ""
	}
	segs := strings.Split(strings.ReplaceAll(imagePath, "\\", "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return "/images/" + strings.Join(segs, "/")
}
