package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/r3d91ll/spectrafit/pkg/config"
	"github.com/r3d91ll/spectrafit/pkg/dataset"
	"github.com/r3d91ll/spectrafit/pkg/export"
	"github.com/r3d91ll/spectrafit/pkg/models"
	"github.com/r3d91ll/spectrafit/pkg/sampler"
	"github.com/r3d91ll/spectrafit/pkg/spinner"
)

func runFit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if lg, err := newLogger(cfg.Logging, verbose); err == nil {
		logger = lg
	}

	var progress io.Writer
	if !noProgress {
		progress = cmd.ErrOrStderr()
	}
	_, err = fit(ctx, cfg, cmd.OutOrStdout(), progress, logger)
	return err
}

// fit runs the configured fit and exports its results. Progress text goes to
// out when cfg.Output.Progress is set; the progress bar goes to bar unless
// bar is nil.
func fit(ctx context.Context, cfg *config.Config, out, bar io.Writer, logger *zap.Logger) (export.Paths, error) {
	var paths export.Paths

	table, err := dataset.ReadCSVFile(cfg.Data.Path)
	if err != nil {
		return paths, err
	}
	if cfg.Data.CL != nil {
		cl := *cfg.Data.CL
		table.CL = &cl
	}
	data, err := dataset.Validate(table, logger)
	if err != nil {
		return paths, err
	}
	logger.Info("loaded spectrum",
		zap.String("path", cfg.Data.Path),
		zap.Int("points", data.Len()),
		zap.Int("upper_limits", data.NumUpperLimits()))

	entry, err := models.Default().Lookup(cfg.Model.Name)
	if err != nil {
		return paths, err
	}
	e0 := cfg.Model.E0
	if e0 == 0 {
		e0 = models.GeometricMean(data.Energy)
	}

	p0, labels := cfg.Model.P0, cfg.Model.Labels
	if len(p0) == 0 {
		p0 = entry.P0
		if len(labels) == 0 {
			labels = entry.Labels
		}
	}
	p0, labels = slices.Clone(p0), slices.Clone(labels)

	pr, err := cfg.Prior(labels)
	if err != nil {
		return paths, err
	}
	if pr == nil {
		pr = entry.Prior
	}

	seed := cfg.Sampler.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	var observers []sampler.Observer
	if cfg.Output.Progress {
		observers = append(observers, sampler.NewReporter(out))
	}
	var phaseBar *spinner.PhaseProgress
	if bar != nil {
		phaseBar = spinner.NewPhaseProgress(bar)
		observers = append(observers, phaseBar)
	}

	logger.Info("starting fit",
		zap.String("model", entry.Name),
		zap.Float64("e0", e0),
		zap.Uint64("seed", seed))

	s, pos, err := sampler.Prepare(ctx, sampler.Options{
		Dataset:      data,
		P0:           p0,
		Model:        entry.New(e0),
		Prior:        pr,
		Walkers:      cfg.Sampler.Walkers,
		BurnSteps:    cfg.Sampler.BurnSteps,
		Labels:       labels,
		Guess:        cfg.Sampler.Guess,
		Threads:      cfg.Sampler.Threads,
		Seed:         seed,
		StretchScale: cfg.Sampler.StretchScale,
		Logger:       logger,
		Observers:    observers,
	})
	if err == nil {
		_, err = s.Run(ctx, pos, cfg.Sampler.Steps)
	}
	if err != nil {
		if phaseBar != nil {
			phaseBar.Abort("fit aborted")
		}
		return paths, err
	}

	acceptance := s.Chain().AcceptanceFraction()
	logger.Info("fit complete",
		zap.Int("steps", s.Chain().Len()),
		zap.Float64("mean_acceptance", stat.Mean(acceptance, nil)))

	digest, err := export.HashFile(cfg.Data.Path)
	if err != nil {
		return paths, err
	}
	rh := runHash(cfg, entry.Name, s.Labels(), s.InitialVector(), s.Walkers(), e0, data.CL, seed, digest)

	paths, err = export.WriteRun(cfg.Output.Dir, s, rh, cfg.Output.Chain)
	if err != nil {
		return paths, err
	}
	logger.Info("results written",
		zap.String("dir", cfg.Output.Dir),
		zap.String("run_id", rh.RunID),
		zap.String("hash", rh.ShortHash()))
	fmt.Fprintf(out, "\nRun %s (%s) written to %s\n", rh.RunID, rh.ShortHash(), cfg.Output.Dir)
	return paths, nil
}

// runHash records everything that determines the chain of a fit.
func runHash(cfg *config.Config, model string, labels []string, p0 []float64, walkers int,
	e0, cl float64, seed uint64, digest string) *export.RunHash {
	priorDesc := cfg.PriorString()
	if priorDesc == "" {
		priorDesc = "registry:" + model
	}
	stretch := cfg.Sampler.StretchScale
	if stretch == 0 {
		stretch = sampler.DefaultStretchScale
	}

	return export.NewHashBuilder().
		WithToolVersion(version).
		WithModel(model, labels, p0).
		WithPrior(priorDesc).
		WithSampler(walkers, cfg.Sampler.BurnSteps, cfg.Sampler.Steps, seed).
		WithStretchScale(stretch).
		WithData(digest).
		WithParameter("e0", strconv.FormatFloat(e0, 'g', -1, 64)).
		WithParameter("cl", strconv.FormatFloat(cl, 'g', -1, 64)).
		WithParameter("guess", strconv.FormatBool(cfg.Sampler.Guess)).
		Build()
}

// exitCode maps an error to a process status: 130 for an interrupted run.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	}
	return 1
}
