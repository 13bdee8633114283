package main

import (
	"net/http"
	"strconv"

	"github.com/TarekGIS4/bns-agriculture-project/reftable"
	"github.com/TarekGIS4/bns-agriculture-project/viewer"
)

// handleHome renders the title, project sidebar and introduction.
func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "home.html", pageData{Site: a.cfg.Site, Active: "home", Map: a.cfg.Map})
}

// handleNDVI runs the whole pipeline and renders the viewer, or a banner for
// the stage that failed.
func (a *App) handleNDVI(w http.ResponseWriter, r *http.Request) {
	data := pageData{Site: a.cfg.Site, Active: "ndvi", Map: a.cfg.Map}

	an, err := a.analyze(r.Context(), selection(r))
	if err != nil {
		logFailure(r, err)
		b := bannerFor(err)
		data.Error = &b
		a.render(w, statusFor(err), "ndvi.html", data)
		return
	}
	data.NDVI = newNDVIView(a.cfg, an)
	a.render(w, http.StatusOK, "ndvi.html", data)
}

// handleBands renders the static band reference with download links.
func (a *App) handleBands(w http.ResponseWriter, r *http.Request) {
	a.render(w, http.StatusOK, "bands.html", pageData{Site: a.cfg.Site, Active: "bands", Tables: reftable.All()})
}

// selection reads ?left=, ?right= and ?year=. Unparsable values are ignored.
func selection(r *http.Request) viewer.Selection {
	q := r.URL.Query()
	year := func(k string) int {
		n, _ := strconv.Atoi(q.Get(k))
		return n
	}
	return viewer.Selection{Left: year("left"), Right: year("right"), Year: year("year")}
}
