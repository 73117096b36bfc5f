package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mdpost/internal/artifacts"
	"mdpost/internal/cfg"
	"mdpost/internal/importance"
	"mdpost/internal/metrics"
	"mdpost/internal/process"
	"mdpost/internal/report"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	p := process.New(importance.Options{CompatShift: c.CompatShift}, metrics.NewTracker(m))

	store := initializeStore(c)
	if store != nil {
		defer store.Close()
	}
	var client *artifacts.Client
	if c.TrainingURL != "" {
		client = artifacts.NewClient(c.TrainingURL, c.RESTTimeout)
	}

	startMetricsServer(ctx, c)

	pipe := &pipeline{cfg: c, proc: p, store: store, client: client, metrics: m}
	if err := pipe.runAll(ctx); err != nil {
		log.Error().Err(err).Msg("processing run failed")
	}

	if c.WatchURL == "" {
		return
	}

	// Watch mode: re-run whenever the training service publishes a new
	// artifact, until interrupted.
	events := make(chan artifacts.Event, 16)
	errs := make(chan error, 16)
	watcher := artifacts.NewWatcher(c.WatchURL)
	go func() {
		if err := watcher.Stream(ctx, events, errs); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("artifact stream ended")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case ev := <-events:
			if err := pipe.runOne(ctx, ev); err != nil {
				log.Error().Err(err).Str("model", ev.Model).Msg("reprocessing failed")
			}
		case err := <-errs:
			m.WatchReconnects.Inc()
			log.Warn().Err(err).Msg("artifact stream error")
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

type pipeline struct {
	cfg     cfg.Settings
	proc    *process.Processor
	store   *artifacts.Store
	client  *artifacts.Client
	metrics *metrics.Metrics
}

// runAll processes every configured model and statistical method.
func (p *pipeline) runAll(ctx context.Context) error {
	var firstErr error
	for _, model := range p.cfg.Models {
		if err := p.processModel(ctx, model); err != nil {
			log.Error().Err(err).Str("model", model).Msg("model processing failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	for _, method := range p.cfg.StatMethods {
		if err := p.processStat(ctx, method); err != nil {
			log.Error().Err(err).Str("method", method).Msg("statistical processing failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if err := p.processDirections(ctx); err != nil {
		log.Warn().Err(err).Msg("direction estimation skipped")
	}
	return firstErr
}

// runOne reprocesses the model or method named by an artifact event.
func (p *pipeline) runOne(ctx context.Context, ev artifacts.Event) error {
	switch ev.Kind {
	case "decomposition":
		return p.processModel(ctx, ev.Model)
	case "distributions":
		return p.processDirections(ctx)
	default:
		for _, method := range p.cfg.StatMethods {
			if method == ev.Model {
				return p.processStat(ctx, method)
			}
		}
		return p.processModel(ctx, ev.Model)
	}
}

// processModel handles both supervised models and PCA: "PCA" resolves
// to a decomposition artifact, everything else to extracted importances.
func (p *pipeline) processModel(ctx context.Context, model string) error {
	var src process.Source
	if model == "PCA" {
		pca, err := p.fetchPCA(ctx, model)
		if err != nil {
			return err
		}
		src = process.PCASource{
			Model:    model,
			Ratios:   pca.VarianceRatios,
			Loadings: pca.Loadings,
			Cutoff:   p.cfg.VarianceCutoff,
		}
	} else {
		a, err := p.fetchImportances(ctx, model)
		if err != nil {
			return err
		}
		src = process.ModelSource{Model: model, Scores: a.Importances}
	}

	fi, ranked, err := src.Importances()
	if err != nil {
		return err
	}
	if err := p.write(report.WriteFeatureImportances(
		filepath.Join(p.cfg.OutDir, model+"_Feature_Importances.csv"), fi, ranked)); err != nil {
		return err
	}

	res, err := p.proc.PerResidue(src)
	if err != nil {
		return err
	}
	return p.write(report.WriteResidueImportances(
		filepath.Join(p.cfg.OutDir, model+"_Per_Residue_Importances.csv"), res.Ranked))
}

func (p *pipeline) processStat(ctx context.Context, method string) error {
	a, err := p.fetchImportances(ctx, method)
	if err != nil {
		return err
	}
	src := process.StatSource{Method: method, Scores: a.Importances}

	res, err := p.proc.PerResidue(src)
	if err != nil {
		return err
	}
	return p.write(report.WriteResidueImportances(
		filepath.Join(p.cfg.OutDir, statReportName(method)), res.Ranked))
}

func (p *pipeline) processDirections(ctx context.Context) error {
	if len(p.cfg.StatMethods) == 0 {
		return nil
	}
	a, err := p.fetchDistributions(ctx, "stat_model")
	if err != nil {
		return err
	}
	if len(a.Observations) == 0 {
		return nil
	}

	directions, err := process.EstimateDirections(a.ClassNames, a.FeatureOrder, a.Observations)
	if err != nil {
		return err
	}
	return p.write(report.WriteFeatureDirections(
		filepath.Join(p.cfg.OutDir, "feature_direction_estimates.csv"), directions, a.FeatureOrder))
}

func (p *pipeline) fetchImportances(ctx context.Context, model string) (*artifacts.ImportanceArtifact, error) {
	if p.client != nil {
		a, err := p.client.FetchImportances(ctx, model)
		if err == nil {
			p.metrics.ArtifactFetches.Inc()
			if p.store != nil {
				if err := p.store.SaveImportances(*a); err != nil {
					log.Warn().Err(err).Str("model", model).Msg("artifact cache write failed")
				}
			}
			return a, nil
		}
		p.metrics.ArtifactFetchErrors.Inc()
		if p.store == nil {
			return nil, err
		}
		log.Warn().Err(err).Str("model", model).Msg("fetch failed, falling back to local store")
	}
	if p.store == nil {
		return nil, fmt.Errorf("no artifact source configured for %s", model)
	}
	return p.store.LatestImportances(model)
}

func (p *pipeline) fetchPCA(ctx context.Context, model string) (*artifacts.PCAArtifact, error) {
	if p.client != nil {
		a, err := p.client.FetchPCA(ctx, model)
		if err == nil {
			p.metrics.ArtifactFetches.Inc()
			if p.store != nil {
				if err := p.store.SavePCA(*a); err != nil {
					log.Warn().Err(err).Str("model", model).Msg("artifact cache write failed")
				}
			}
			return a, nil
		}
		p.metrics.ArtifactFetchErrors.Inc()
		if p.store == nil {
			return nil, err
		}
		log.Warn().Err(err).Str("model", model).Msg("fetch failed, falling back to local store")
	}
	if p.store == nil {
		return nil, fmt.Errorf("no artifact source configured for %s", model)
	}
	return p.store.LatestPCA(model)
}

func (p *pipeline) fetchDistributions(ctx context.Context, name string) (*artifacts.DistributionsArtifact, error) {
	if p.client != nil {
		a, err := p.client.FetchDistributions(ctx, name)
		if err == nil {
			p.metrics.ArtifactFetches.Inc()
			return a, nil
		}
		p.metrics.ArtifactFetchErrors.Inc()
		if p.store == nil {
			return nil, err
		}
	}
	if p.store == nil {
		return nil, fmt.Errorf("no artifact source configured for %s", name)
	}
	return p.store.LatestDistributions(name)
}

func (p *pipeline) write(err error) error {
	if err != nil {
		p.metrics.ReportWriteErrors.Inc()
		return err
	}
	p.metrics.ReportsWritten.Inc()
	return nil
}

func statReportName(method string) string {
	switch method {
	case process.MethodJensenShannon:
		return "Jensen_Shannon_Distances_Per_Residue.csv"
	case process.MethodMutualInformation:
		return "Mutual_Information_Scores_Per_Residue.csv"
	default:
		return "Linear_Correlation_Scores_Per_Residue.csv"
	}
}

func initializeStore(c cfg.Settings) *artifacts.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := artifacts.Open(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("artifact store initialization failed, continuing without persistence")
		return nil
	}
	return store
}

func startMetricsServer(ctx context.Context, c cfg.Settings) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}
