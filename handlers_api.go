package main

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/TarekGIS4/bns-agriculture-project/logging"
	"github.com/TarekGIS4/bns-agriculture-project/models"
	"github.com/TarekGIS4/bns-agriculture-project/pipeline"
	"github.com/TarekGIS4/bns-agriculture-project/reftable"
)

// handleSeries returns the composite series, its tile URLs and the trend.
func (a *App) handleSeries(w http.ResponseWriter, r *http.Request) {
	an, err := a.analyze(r.Context(), selection(r))
	if err != nil {
		logFailure(r, err)
		out := seriesDTO(a.cfg.Study, nil)
		out.Status = models.SeriesStatusError
		out.Stage = string(pipeline.StageOf(err))
		out.ErrorMessage = bannerFor(err).Detail
		writeJSON(w, statusFor(err), out)
		return
	}
	writeJSON(w, http.StatusOK, seriesDTO(a.cfg.Study, an))
}

func (a *App) handleBandsJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bandTables())
}

func (a *App) handleBandsCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := reftable.WriteCSV(&buf, reftable.All()...); err != nil {
		http.Error(w, "csv error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="landsat_bands.csv"`)
	_, _ = w.Write(buf.Bytes())
}

func (a *App) handleBandsPDF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := reftable.WritePDF(&buf, "Landsat 5 and Landsat 8 satellite data", reftable.All()...); err != nil {
		logging.Errorw("render pdf", "error", err)
		http.Error(w, "pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="landsat_bands.pdf"`)
	_, _ = w.Write(buf.Bytes())
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
