package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
	"github.com/TarekGIS4/bns-agriculture-project/logging"
)

// handleTile proxies one map tile with the server's credentials. Tiles are
// cached by map name and coordinates.
func (a *App) handleTile(w http.ResponseWriter, r *http.Request) {
	mapName, err := parseLayerToken(a.cfg.TileTokenSecret, chi.URLParam(r, "token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(strings.TrimSuffix(chi.URLParam(r, "y"), ".png"))
	if errZ != nil || errX != nil || errY != nil || z < 0 || x < 0 || y < 0 {
		http.Error(w, "bad tile coordinates", http.StatusBadRequest)
		return
	}

	key := fmt.Sprintf("%s/%d/%d/%d", mapName, z, x, y)
	png, ok := a.tiles.Get(key)
	if !ok {
		ev, err := a.session(r.Context())
		if err != nil {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), a.cfg.RequestTimeout)
		defer cancel()
		png, err = ev.Tile(ctx, mapName, z, x, y)
		if err != nil {
			if errors.Is(err, ee.ErrNotFound) {
				http.Error(w, "tile not found", http.StatusNotFound)
				return
			}
			logging.Warnw("tile fetch failed", "request_id", requestID(r.Context()), "tile", key, "error", err)
			http.Error(w, "tile fetch failed", http.StatusBadGateway)
			return
		}
		a.tiles.Add(key, png)
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}
