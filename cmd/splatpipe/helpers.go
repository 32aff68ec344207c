package main

import (
	"fmt"

	"splatpipe/internal/execx"
	"splatpipe/internal/logging"
	"splatpipe/internal/pipeline"
	"splatpipe/internal/store"
)

func newRunner() *execx.ExecRunner {
	r := execx.NewRunner(logging.New("exec"))
	r.DryRun = rootFlags.dryRun
	return r
}

// newPipeline builds the pipeline from config, runner and run store.
// The returned closer releases the store.
func newPipeline(dbPath string) (*pipeline.Pipeline, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open run store: %w", err)
	}
	p := pipeline.New(cfg, newRunner(), st)
	return p, func() { _ = st.Close() }, nil
}
