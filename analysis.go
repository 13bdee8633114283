package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
	"github.com/TarekGIS4/bns-agriculture-project/logging"
	"github.com/TarekGIS4/bns-agriculture-project/pipeline"
	"github.com/TarekGIS4/bns-agriculture-project/viewer"
)

// analysis is one full page render's worth of results.
type analysis struct {
	result *pipeline.Result
	layers []viewer.Layer
	view   *viewer.Viewer
	trend  *viewer.Layer
}

// analyze runs every stage for one request. Nothing is cached between
// requests except the authenticated session.
func (a *App) analyze(ctx context.Context, sel viewer.Selection) (*analysis, error) {
	ev, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Run(ctx, ev, a.cfg.Study, a.cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	layers, err := viewer.MapLayers(ctx, ev, res.Entries, a.cfg.Vis, a.cfg.RequestTimeout)
	if err != nil {
		return nil, &pipeline.StageError{Stage: pipeline.StageViewer, Err: err}
	}
	series := viewer.NewSeries(layers)
	view := viewer.Build(series, series, a.cfg.Vis, sel)
	if err := view.SetTileURLs(a.tileURL); err != nil {
		return nil, &pipeline.StageError{Stage: pipeline.StageViewer, Err: err}
	}
	for i := range layers {
		if layers[i].HasData() {
			if layers[i].TileURL, err = a.tileURL(layers[i].MapName); err != nil {
				return nil, &pipeline.StageError{Stage: pipeline.StageViewer, Err: err}
			}
		}
	}

	out := &analysis{result: res, layers: layers, view: view}
	if res.Trend != nil {
		tl, err := viewer.TrendLayer(ctx, ev, res.Trend.Image, a.cfg.TrendVis, a.cfg.RequestTimeout)
		if err != nil {
			return nil, &pipeline.StageError{Stage: pipeline.StageTrend, Err: err}
		}
		if tl.TileURL, err = a.tileURL(tl.MapName); err != nil {
			return nil, &pipeline.StageError{Stage: pipeline.StageViewer, Err: err}
		}
		out.trend = &tl
	}

	logging.Infow("analysis complete",
		"region", res.Region.AssetID,
		"composites", len(res.Composites()),
		"mode", view.Mode,
		"fallback", view.Fallback,
	)
	return out, nil
}

// tileURL is the proxy URL template of a map, in Leaflet's {z}/{x}/{y} form.
func (a *App) tileURL(mapName string) (string, error) {
	tok, err := signLayerToken(a.cfg.TileTokenSecret, mapName, a.cfg.TileTokenTTL)
	if err != nil {
		return "", err
	}
	return "/tiles/" + tok + "/{z}/{x}/{y}", nil
}

// banner is a user-facing failure message.
type banner struct {
	Title  string
	Detail string
	Stage  pipeline.Stage
}

func bannerFor(err error) banner {
	stage := pipeline.StageOf(err)
	title := "Unexpected error"
	if stage != "" {
		title = stage.Title()
	}
	detail := err.Error()
	var se *pipeline.StageError
	if errors.As(err, &se) {
		detail = se.Err.Error()
	}
	return banner{Title: title, Detail: detail, Stage: stage}
}

// statusFor maps a pipeline failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case pipeline.StageOf(err) == pipeline.StageAuth:
		return http.StatusServiceUnavailable
	case errors.Is(err, ee.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case pipeline.StageOf(err) == "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func logFailure(r *http.Request, err error) {
	logging.Errorw("pipeline failed",
		"request_id", requestID(r.Context()),
		"stage", string(pipeline.StageOf(err)),
		"error", fmt.Sprint(err),
	)
}
