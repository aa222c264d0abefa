package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rubiojr/signalscope/pkg/chart"
	"github.com/rubiojr/signalscope/pkg/export"
	"github.com/rubiojr/signalscope/pkg/loader"
	"github.com/rubiojr/signalscope/pkg/metrics"
	"github.com/rubiojr/signalscope/pkg/selection"
	"github.com/rubiojr/signalscope/pkg/sensor"
	"github.com/rubiojr/signalscope/pkg/series"
	"github.com/rubiojr/signalscope/pkg/version"
)

func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	tags, result := s.snapshot.Tags()
	src := s.snapshot.Source()

	response := StatusResponse{
		Status:   result.Status(),
		Source:   src.Type(),
		Location: src.Location(),
		Error:    result.Message(),
		TagCount: len(tags),
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) HandleTags(w http.ResponseWriter, r *http.Request) {
	tags, ok := s.readyTags(w)
	if !ok {
		return
	}

	response := ListTagsResponse{
		Tags:  make([]TagResponse, 0, len(tags)),
		Count: len(tags),
	}
	for _, tag := range tags {
		response.Tags = append(response.Tags, TagResponse{
			ID:          tag.ID,
			Label:       tag.Label,
			Unit:        tag.Unit,
			SiteName:    tag.SiteName,
			AssetName:   tag.AssetName,
			FullPath:    tag.FullPath,
			SampleCount: len(tag.Samples),
		})
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) HandleSeries(w http.ResponseWriter, r *http.Request) {
	tags, ok := s.readyTags(w)
	if !ok {
		return
	}
	st := selection.FromQuery(r.URL.Query())
	s.writeJSON(w, http.StatusOK, BuildSeries(tags, st, "api"))
}

// BuildSeries aligns the tags selected in st. caller labels the alignment
// in metrics.
func BuildSeries(tags []sensor.FlattenedTag, st selection.State, caller string) *SeriesResponse {
	selected := st.Resolve(tags)
	rows := series.Align(selected)
	metrics.ObserveAlign(caller, len(rows))

	response := &SeriesResponse{
		TagIDs:        st.TagIDs,
		Rows:          rows,
		UnitLabel:     series.UnitLabel(selected),
		Series:        make([]SeriesInfo, 0, len(selected)),
		QualityFilter: st.Quality,
	}
	for i, tag := range selected {
		response.Series = append(response.Series, SeriesInfo{
			ID:       tag.ID,
			Label:    tag.Label,
			Unit:     tag.Unit,
			FullPath: tag.FullPath,
			Color:    chart.ColorFor(i),
			Points:   series.PointCount(rows, tag.ID),
		})
	}
	return response
}

func (s *Server) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, export.FormatXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSX)
}

func (s *Server) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, export.FormatPDF, "application/pdf", export.PDF)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, format, contentType string, build func(export.Table) ([]byte, error)) {
	tags, ok := s.readyTags(w)
	if !ok {
		return
	}

	st := selection.FromQuery(r.URL.Query())
	selected := st.Resolve(tags)
	if len(selected) == 0 {
		s.writeError(w, http.StatusBadRequest, "empty_selection", "select at least one sensor to export")
		return
	}
	rows := series.Align(selected)
	metrics.ObserveAlign("export", len(rows))

	data, err := build(export.NewTable("Signal Scope - aligned readings", selected, rows))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	filename := fmt.Sprintf("signalscope-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if _, err := w.Write(data); err != nil {
		s.logger.Warnf("writing %s export: %v", format, err)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.snapshot.Current().Status() == loader.StatusError {
		status = "degraded"
	}
	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   version.APIVersion(),
	}
	s.writeJSON(w, http.StatusOK, response)
}
