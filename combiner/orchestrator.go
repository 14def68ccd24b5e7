// Package combiner runs one reconciliation pass: it reads every feed file in the input
// directory, merges listings by uniqueID (last write wins), writes each normalized
// row through to the store and regenerates the combined feed document.
package combiner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"listing_combiner/config"
	"listing_combiner/feed"
	"listing_combiner/identity"
	"listing_combiner/logging"
	"listing_combiner/models"
	"listing_combiner/services"
	"listing_combiner/storage"
)

// ErrRunInProgress is returned when Run is called while another run holds the store.
var ErrRunInProgress = errors.New("combine run already in progress")

// Publisher copies the finished artifact somewhere public.
type Publisher interface {
	UploadFile(ctx context.Context, path, key, contentType string) (string, error)
}

type Orchestrator struct {
	paths      config.PathsConfig
	feed       config.FeedConfig
	open       storage.Opener
	normalizer *services.Normalizer

	publisher  Publisher
	publishKey string

	mu  sync.Mutex
	now func() time.Time
}

func NewOrchestrator(cfg *config.Config, open storage.Opener) *Orchestrator {
	return &Orchestrator{
		paths:      cfg.Paths,
		feed:       cfg.Feed,
		open:       open,
		normalizer: services.NewNormalizer(cfg.Feed.SiteDirectionKey, cfg.Feed.PhoneTypes),
		now:        time.Now,
	}
}

// SetPublisher enables publishing the output artifact under key after each run.
func (o *Orchestrator) SetPublisher(p Publisher, key string) {
	o.publisher = p
	o.publishKey = key
}

// Run performs one full pass. The returned run record is populated even when the
// run fails; the run log is flushed in both cases.
func (o *Orchestrator) Run(ctx context.Context) (*models.CombineRun, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	runLog := logging.NewRunLog()
	run := &models.CombineRun{
		ID:        uuid.NewString(),
		StartedAt: o.now(),
		Status:    models.CombineRunRunning,
	}
	log.Info().Str("run_id", run.ID).Str("input", o.paths.InputDir).Msg("combine run started")

	err := o.runWithStore(ctx, run, runLog)
	o.finish(run, runLog, err)

	if ferr := runLog.Flush(o.paths.CombineLog, o.now()); ferr != nil {
		log.Error().Err(ferr).Msg("flush run log")
		if err == nil {
			err = ferr
		}
	}
	return run, err
}

func (o *Orchestrator) runWithStore(ctx context.Context, run *models.CombineRun, runLog *logging.RunLog) error {
	store, err := o.open(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.CreateRun(ctx, run); err != nil {
		return err
	}

	registry := NewRegistry()
	merged, err := o.combine(ctx, services.NewListingService(store, o.normalizer), registry, run, runLog)
	if err == nil {
		err = o.buildOutput(ctx, registry, runLog)
	}
	// Inputs leave the input directory only once the artifact reflects them.
	if err == nil && o.paths.MoveProcessed {
		for _, name := range merged {
			o.moveProcessed(name, runLog)
		}
	}
	run.UniqueCount = registry.Len()

	o.finish(run, nil, err)
	if uerr := store.UpdateRun(context.WithoutCancel(ctx), run); uerr != nil {
		log.Error().Err(uerr).Str("run_id", run.ID).Msg("update run record")
	}
	return err
}

// finish stamps the terminal state. With a nil runLog only the record is touched.
func (o *Orchestrator) finish(run *models.CombineRun, runLog *logging.RunLog, err error) {
	if run.FinishedAt == nil {
		now := o.now()
		run.FinishedAt = &now
	}
	if err != nil {
		run.Status = models.CombineRunFailed
		run.ErrorMessage = err.Error()
	} else {
		run.Status = models.CombineRunCompleted
	}
	if runLog == nil {
		return
	}

	if err != nil {
		runLog.Error("combination aborted: %v", err)
		return
	}
	runLog.Add("combination finished: %d unique properties", run.UniqueCount)
	log.Info().
		Str("run_id", run.ID).
		Int("files", run.FilesSeen).
		Int("files_skipped", run.FilesSkipped).
		Int("added", run.ListingsAdded).
		Int("updated", run.ListingsUpdated).
		Int("skipped", run.ListingsSkipped).
		Int("unique", run.UniqueCount).
		Msg("combination finished")
}

// combine merges every input file into registry and returns the names of the files
// that were merged.
func (o *Orchestrator) combine(ctx context.Context, svc *services.ListingService, registry *Registry, run *models.CombineRun, runLog *logging.RunLog) ([]string, error) {
	files, err := o.inputFiles(runLog)
	if err != nil {
		return nil, err
	}

	var merged []string
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		run.FilesSeen++

		processed, err := o.processFile(ctx, name, svc, registry, run, runLog)
		if err != nil {
			return nil, err
		}
		if !processed {
			run.FilesSkipped++
			continue
		}
		merged = append(merged, name)
	}
	return merged, nil
}

// inputFiles lists feed files in lexicographic order so merges are reproducible.
func (o *Orchestrator) inputFiles(runLog *logging.RunLog) ([]string, error) {
	entries, err := os.ReadDir(o.paths.InputDir)
	if err != nil {
		if os.IsNotExist(err) {
			runLog.Warn("input directory %s not found", o.paths.InputDir)
			return nil, nil
		}
		return nil, fmt.Errorf("scan input: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), o.feed.Extension) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// processFile merges every listing of one file. It returns false when the file was
// skipped; an error means the run must abort.
func (o *Orchestrator) processFile(ctx context.Context, name string, svc *services.ListingService, registry *Registry, run *models.CombineRun, runLog *logging.RunLog) (bool, error) {
	data, err := os.ReadFile(filepath.Join(o.paths.InputDir, name))
	if err != nil {
		runLog.Warn("skipped file %s: %v", name, err)
		return false, nil
	}

	root, err := feed.Parse(data)
	if err != nil {
		runLog.Warn("skipped file %s: malformed XML: %v", name, err)
		return false, nil
	}

	listings, ok := feed.Listings(root, o.feed.Container, o.feed.Listing)
	if !ok {
		runLog.Warn("skipped file %s: no <%s>", name, o.feed.Listing)
		return false, nil
	}

	for _, listing := range listings {
		id, ok := identity.Key(listing)
		if !ok {
			run.ListingsSkipped++
			runLog.Warn("listing without uniqueID in %s", name)
			continue
		}

		if _, err := svc.ProcessListing(ctx, listing); err != nil {
			return false, fmt.Errorf("%s: property %s: %w", name, id, err)
		}

		if registry.Put(id, listing) {
			run.ListingsUpdated++
			runLog.Add("updated property %s from %s", id, name)
		} else {
			run.ListingsAdded++
			runLog.Add("added property %s from %s", id, name)
		}
	}
	return true, nil
}

func (o *Orchestrator) moveProcessed(name string, runLog *logging.RunLog) {
	if err := os.MkdirAll(o.paths.ProcessedDir, 0755); err != nil {
		runLog.Warn("could not move %s: %v", name, err)
		return
	}
	dst := filepath.Join(o.paths.ProcessedDir, name)
	if err := os.Rename(filepath.Join(o.paths.InputDir, name), dst); err != nil {
		runLog.Warn("could not move %s: %v", name, err)
		return
	}
	runLog.Add("moved processed file %s to %s", name, o.paths.ProcessedDir)
}

func (o *Orchestrator) buildOutput(ctx context.Context, registry *Registry, runLog *logging.RunLog) error {
	if err := feed.WriteFile(o.paths.OutputFile, o.feed.OutputRoot, registry.Values()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("path", o.paths.OutputFile).Int("listings", registry.Len()).Msg("output written")

	if o.publisher == nil {
		return nil
	}
	url, err := o.publisher.UploadFile(ctx, o.paths.OutputFile, o.publishKey, "application/xml")
	if err != nil {
		runLog.Warn("publish %s failed: %v", o.paths.OutputFile, err)
		return nil
	}
	runLog.Add("published feed to %s", url)
	return nil
}
