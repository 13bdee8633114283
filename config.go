package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
	"github.com/TarekGIS4/bns-agriculture-project/pipeline"
)

// Site is the static text of the dashboard.
type Site struct {
	Title   string `yaml:"title"`
	Intro   string `yaml:"intro"`
	About   string `yaml:"about"`
	LogoURL string `yaml:"logo_url"`
}

// MapView is the initial map position, used until the region bounds are known.
type MapView struct {
	Center [2]float64 `yaml:"center"` // lat, lon
	Zoom   int        `yaml:"zoom"`
}

type Config struct {
	Port           string
	Debug          bool
	AllowedOrigins []string
	RequestTimeout time.Duration

	EEBaseURL   string
	ProjectID   string
	Credentials ee.Credentials

	TileTokenSecret string
	TileTokenTTL    time.Duration
	TileCacheSize   int
	TileCacheTTL    time.Duration

	Study    pipeline.Study
	Vis      ee.VisParams
	TrendVis ee.VisParams
	Map      MapView
	Site     Site
}

// studyFile is the optional YAML file named by STUDY_FILE.
type studyFile struct {
	Study    *pipeline.Study `yaml:"study"`
	Vis      *ee.VisParams   `yaml:"vis"`
	TrendVis *ee.VisParams   `yaml:"trend_vis"`
	Map      *MapView        `yaml:"map"`
	Site     *Site           `yaml:"site"`
}

func defaultConfig() Config {
	return Config{
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:8080", "http://127.0.0.1:8080", "https://*.streamlit.app", "https://*.run.app"},
		RequestTimeout: 60 * time.Second,
		EEBaseURL:      ee.DefaultBaseURL,
		TileTokenTTL:   2 * time.Hour,
		TileCacheSize:  1024,
		TileCacheTTL:   15 * time.Minute,
		Study:          pipeline.DefaultStudy(),
		Vis: ee.VisParams{
			Min:     0.1,
			Max:     0.8,
			Palette: []string{"white", "yellow", "yellowgreen", "green", "darkgreen"},
		},
		TrendVis: ee.VisParams{Min: -0.01, Max: 0.01, Palette: []string{"red", "white", "green"}},
		Map:      MapView{Center: [2]float64{29.1, 30.6}, Zoom: 9},
		Site: Site{
			Title: "Vegetation Cover Monitoring (NDVI) with Satellite Imagery",
			Intro: "Explore the NDVI time series from 1984 to 2024 built from Landsat 5 and Landsat 8 " +
				"imagery over the desert hinterland of Beni Suef Governorate, Egypt.",
			About: "Fourth-year graduation project, Faculty of Arts, Beni Suef University. " +
				"Surveying and Geographic Information Systems program.",
			LogoURL: "https://i.ibb.co/KpW5J9m/20110405173531.png",
		},
	}
}

// loadConfig reads .env (if present), the optional study file and then the
// environment, in that order of increasing precedence.
func loadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path := os.Getenv("STUDY_FILE"); path != "" {
		if err := cfg.loadStudyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadStudyFile decodes the file over the current settings, so keys the file
// leaves out keep their defaults.
func (c *Config) loadStudyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read study file: %w", err)
	}
	f := studyFile{Study: &c.Study, Vis: &c.Vis, TrendVis: &c.TrendVis, Map: &c.Map, Site: &c.Site}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse study file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	c.Port = getenv("PORT", c.Port)
	c.EEBaseURL = getenv("EE_BASE_URL", c.EEBaseURL)
	c.TileTokenSecret = getenv("TILE_TOKEN_SECRET", c.TileTokenSecret)
	c.Study.Region = getenv("STUDY_REGION", c.Study.Region)
	c.Study.EmptyPolicy = pipeline.EmptyPolicy(getenv("EMPTY_POLICY", string(c.Study.EmptyPolicy)))
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	var err error
	if c.Debug, err = envBool("DEBUG", c.Debug); err != nil {
		return err
	}
	if c.Study.MaskSaturated, err = envBool("MASK_SATURATED", c.Study.MaskSaturated); err != nil {
		return err
	}
	if c.Study.Trend, err = envBool("TREND", c.Study.Trend); err != nil {
		return err
	}
	if c.Study.FirstYear, err = envInt("FIRST_YEAR", c.Study.FirstYear); err != nil {
		return err
	}
	if c.Study.LastYear, err = envInt("LAST_YEAR", c.Study.LastYear); err != nil {
		return err
	}
	if c.TileCacheSize, err = envInt("TILE_CACHE_SIZE", c.TileCacheSize); err != nil {
		return err
	}
	if c.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.TileTokenTTL, err = envDuration("TILE_TOKEN_TTL", c.TileTokenTTL); err != nil {
		return err
	}
	if c.TileCacheTTL, err = envDuration("TILE_CACHE_TTL", c.TileCacheTTL); err != nil {
		return err
	}

	if path := os.Getenv("EE_SERVICE_ACCOUNT_FILE"); path != "" {
		creds, err := ee.LoadCredentialsFile(path)
		if err != nil {
			return err
		}
		c.Credentials = creds
	}
	c.Credentials.ClientEmail = getenv("EE_CLIENT_EMAIL", c.Credentials.ClientEmail)
	c.Credentials.PrivateKey = getenv("EE_PRIVATE_KEY", c.Credentials.PrivateKey)
	c.Credentials.ProjectID = getenv("EE_PROJECT_ID", c.Credentials.ProjectID)
	c.ProjectID = c.Credentials.ProjectID
	return nil
}

// Validate checks settings the server cannot start without. Missing
// credentials are not among them: the pages report those to the user.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if c.TileTokenSecret == "" {
		errs = append(errs, errors.New("TILE_TOKEN_SECRET is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.TileCacheSize <= 0 {
		errs = append(errs, errors.New("TILE_CACHE_SIZE must be positive"))
	}
	if c.Vis.Max <= c.Vis.Min || len(c.Vis.Palette) == 0 {
		errs = append(errs, fmt.Errorf("invalid vis params %+v", c.Vis))
	}
	if err := c.Study.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
