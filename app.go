package main

import (
	"context"
	"fmt"
	"html/template"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"

	ee "github.com/TarekGIS4/bns-agriculture-project/earthengine"
	"github.com/TarekGIS4/bns-agriculture-project/pipeline"
)

type App struct {
	cfg   Config
	dial  pipeline.DialFunc
	pages map[string]*template.Template
	tiles *expirable.LRU[string, []byte]

	mu sync.Mutex
	ev ee.Evaluator // nil until a bootstrap succeeds
}

func newApp(cfg Config, dial pipeline.DialFunc) (*App, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if dial == nil {
		dial = serviceDialer(cfg)
	}
	return &App{
		cfg:   cfg,
		dial:  dial,
		pages: pages,
		tiles: expirable.NewLRU[string, []byte](cfg.TileCacheSize, nil, cfg.TileCacheTTL),
	}, nil
}

// serviceDialer connects to the real service. The session outlives the
// request that opened it, so its token source must not inherit cancellation.
func serviceDialer(cfg Config) pipeline.DialFunc {
	return func(ctx context.Context, creds ee.Credentials) (ee.Evaluator, error) {
		return ee.Dial(context.WithoutCancel(ctx), creds, ee.Options{
			BaseURL: cfg.EEBaseURL,
			Project: cfg.ProjectID,
			Timeout: cfg.RequestTimeout,
		})
	}
}

// session returns the shared evaluator, bootstrapping it on first use. A
// failed bootstrap is not remembered; the next request tries again.
func (a *App) session(ctx context.Context) (ee.Evaluator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ev != nil {
		return a.ev, nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()
	ev, err := pipeline.Bootstrap(ctx, a.cfg.Credentials, a.dial)
	if err != nil {
		return nil, err
	}
	a.ev = ev
	return ev, nil
}
