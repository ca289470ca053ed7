package server

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"
	"github.com/labstack/echo/v4"

	"roster/pkg/schema"
	"roster/pkg/utils"
)

const portraitSize = 240

var errNoOwner = errors.New("no character uses this image")

// GET /images/*
// ?refresh=1 re-encodes the portrait, picking up a replaced asset file.
func (s *Server) handleGetImage(c echo.Context) error {
	raw := c.Param("*")
	if u, err := url.PathUnescape(raw); err == nil {
		raw = u
	}
	file, ok := utils.CleanAssetPath(raw)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}

	var data []byte
	var err error
	if c.QueryParam("refresh") != "" {
		data, err = s.Portraits.Force(file)
	} else {
		data, err = s.Portraits.Get(file)
	}
	if errors.Is(err, errNoOwner) {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	if err != nil {
		log.Error("portrait failed", "file", file, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "portrait failed")
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Blob(http.StatusOK, "image/webp", data)
}

// owner returns the character whose cleaned image reference is file.
func (s *Server) owner(file string) (schema.Character, bool) {
	for _, ch := range s.Catalog.Characters() {
		if p, ok := utils.CleanAssetPath(ch.ImagePath); ok && p == file {
			return ch, true
		}
	}
	return schema.Character{}, false
}

// loadPortrait encodes the asset for file as WebP, drawing a placeholder
// when the asset is missing.
func (s *Server) loadPortrait(file string) ([]byte, error) {
	ch, ok := s.owner(file)
	if !ok {
		return nil, errNoOwner
	}

	img, err := decodeAsset(filepath.Join(s.assetsDir, filepath.FromSlash(file)))
	if errors.Is(err, os.ErrNotExist) {
		log.Info("portrait asset missing, drawing placeholder", "file", file, "name", ch.Name)
		img = placeholder(ch)
	} else if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeAsset(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// placeholder draws one bar per stat on a background derived from the name.
func placeholder(ch schema.Character) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, portraitSize, portraitSize))

	h := fnv.New32a()
	h.Write([]byte(ch.Name))
	sum := h.Sum32()
	bg := color.RGBA{R: uint8(sum>>16) | 0x40, G: uint8(sum>>8) | 0x40, B: uint8(sum) | 0x40, A: 0xff}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	stats := ch.Stats()
	top := 10
	for _, st := range stats {
		top = max(top, st.Value)
	}

	const margin = 20
	barW := (portraitSize - margin*(len(stats)+1)) / len(stats)
	maxH := portraitSize - 2*margin
	bar := &image.Uniform{C: color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}}
	for i, st := range stats {
		hgt := max(st.Value, 0) * maxH / top
		x0 := margin + i*(barW+margin)
		r := image.Rect(x0, portraitSize-margin-hgt, x0+barW, portraitSize-margin)
		draw.Draw(img, r, bar, image.Point{}, draw.Src)
	}
	return img
}
