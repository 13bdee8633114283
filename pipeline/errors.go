package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a step of the pipeline. A failing stage halts the ones after it.
type Stage string

const (
	StageAuth      Stage = "auth"
	StageRegion    Stage = "region"
	StageArchive   Stage = "archive"
	StageComposite Stage = "composite"
	StageTrend     Stage = "trend"
	StageViewer    Stage = "viewer"
)

var stageTitles = map[Stage]string{
	StageAuth:      "Failed to initialize Earth Engine",
	StageRegion:    "Failed to load the region of interest",
	StageArchive:   "Failed to load Landsat data",
	StageComposite: "Failed to create yearly NDVI composites",
	StageTrend:     "Failed to compute the NDVI trend",
	StageViewer:    "Failed to display the map",
}

// Title is the user-facing headline of a failure in this stage.
func (s Stage) Title() string {
	if t, ok := stageTitles[s]; ok {
		return t
	}
	return string(s)
}

// StageError ties an error to the stage it halted.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage.Title(), e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: s, Err: err}
}

// StageOf returns the stage of err, or "" if err did not come from a stage.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// ErrEmptySeries means no year of the study range has a contributing image.
var ErrEmptySeries = errors.New("no annual composite has any contributing image")
