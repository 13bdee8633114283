package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
)

// Study describes one analysis: where, which years and how to treat gaps.
type Study struct {
	Region        string      `yaml:"region" json:"region"`
	FirstYear     int         `yaml:"first_year" json:"firstYear"`
	LastYear      int         `yaml:"last_year" json:"lastYear"`
	EmptyPolicy   EmptyPolicy `yaml:"empty_policy" json:"emptyPolicy"`
	MaskSaturated bool        `yaml:"mask_saturated" json:"maskSaturated"`
	Trend         bool        `yaml:"trend" json:"trend"`
}

// DefaultStudy is the Beni Suef governorate over the full Landsat 5/8 record.
func DefaultStudy() Study {
	return Study{
		Region:      "projects/ee-risgis897/assets/beni-gov",
		FirstYear:   1984,
		LastYear:    2024,
		EmptyPolicy: EmptyOmit,
		Trend:       true,
	}
}

func (s Study) Validate() error {
	if s.Region == "" {
		return errors.New("study region is required")
	}
	if s.FirstYear <= 0 || s.LastYear < s.FirstYear {
		return fmt.Errorf("invalid year range %d-%d", s.FirstYear, s.LastYear)
	}
	if !s.EmptyPolicy.Valid() {
		return fmt.Errorf("unknown empty-year policy %q", s.EmptyPolicy)
	}
	return nil
}

// DialFunc opens a session with the remote service.
type DialFunc func(ctx context.Context, creds ee.Credentials) (ee.Evaluator, error)

// Bootstrap checks the credential bundle and only then dials. Any failure is a
// StageAuth error.
func Bootstrap(ctx context.Context, creds ee.Credentials, dial DialFunc) (ee.Evaluator, error) {
	if err := creds.Validate(); err != nil {
		return nil, stageErr(StageAuth, err)
	}
	ev, err := dial(ctx, creds)
	if err != nil {
		return nil, stageErr(StageAuth, err)
	}
	return ev, nil
}

// Result is everything a page render needs from one pipeline run.
type Result struct {
	Study        Study
	Region       Region
	ArchiveSizes map[Generation]int
	Merged       ee.ImageCollection
	Entries      []Entry
	// Trend is nil when disabled or when fewer than two composites exist.
	Trend *TrendResult
}

// Composites returns the non-empty entries of the series.
func (r *Result) Composites() []Composite { return Composites(r.Entries) }

// Run executes the region, archive, composite and trend stages in order and
// stops at the first failure. An empty series is not an error.
func Run(ctx context.Context, ev ee.Evaluator, study Study, timeout time.Duration) (*Result, error) {
	if err := study.Validate(); err != nil {
		return nil, err
	}

	region, err := LoadRegion(ctx, ev, study.Region, timeout)
	if err != nil {
		return nil, stageErr(StageRegion, err)
	}

	opts := MaskOptions{MaskSaturated: study.MaskSaturated}
	var (
		prepared []ee.ImageCollection
		sizes    = map[string]ee.Object{}
	)
	for _, g := range Generations() {
		s, err := Sensor(g)
		if err != nil {
			return nil, stageErr(StageArchive, err)
		}
		prepared = append(prepared, Prepared(region.Collection, s, opts))
		sizes[g.String()] = Archive(region.Collection, s).Size()
	}
	archiveSizes, err := archiveSizes(ctx, ev, sizes, timeout)
	if err != nil {
		return nil, stageErr(StageArchive, err)
	}

	merged := Merge(prepared...)
	series := SeriesCollection(merged, region.Collection, study.FirstYear, study.LastYear)
	raw, err := compute(ctx, ev, series.AggregateArray("year"), timeout)
	if err != nil {
		return nil, stageErr(StageComposite, err)
	}
	var years []float64
	if err := json.Unmarshal(raw, &years); err != nil {
		return nil, stageErr(StageComposite, fmt.Errorf("decode composite years: %w", err))
	}
	supported := make([]int, len(years))
	for i, y := range years {
		supported[i] = int(y)
	}
	entries, err := BuildEntries(merged, region.Collection, study.FirstYear, study.LastYear, supported, study.EmptyPolicy)
	if err != nil {
		return nil, stageErr(StageComposite, err)
	}

	res := &Result{
		Study:        study,
		Region:       region,
		ArchiveSizes: archiveSizes,
		Merged:       merged,
		Entries:      entries,
	}
	if study.Trend {
		res.Trend, err = Trend(ctx, ev, entries, region, timeout)
		if err != nil {
			return nil, stageErr(StageTrend, err)
		}
	}
	return res, nil
}

func archiveSizes(ctx context.Context, ev ee.Evaluator, sizes map[string]ee.Object, timeout time.Duration) (map[Generation]int, error) {
	raw, err := compute(ctx, ev, ee.Dict(sizes), timeout)
	if err != nil {
		return nil, err
	}
	var byName map[string]float64
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("decode archive sizes: %w", err)
	}
	out := make(map[Generation]int, len(byName))
	for _, g := range Generations() {
		out[g] = int(byName[g.String()])
	}
	return out, nil
}

// compute materializes o, bounded by timeout when it is positive.
func compute(ctx context.Context, ev ee.Evaluator, o ee.Object, timeout time.Duration) (json.RawMessage, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return ev.Compute(ctx, o)
}
