// Package regress creates seeded reference containers and checks stored
// containers against them.
package regress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"detkit/internal/dataset"
	"detkit/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrDuplicateName = errors.New("duplicate dataset name")

// Mode selects how many datasets Compare verifies.
type Mode int

const (
	// ModeAll checks every dataset and matches only if all match.
	ModeAll Mode = iota
	// ModeFirst stops after the first dataset in sorted order.
	ModeFirst
)

type Options struct {
	Seed   int64
	Driver string
	Mode   Mode
}

// Result is the outcome for one dataset.
type Result struct {
	Name   string
	Match  bool
	Reason string
}

type Report struct {
	Results []Result
}

// Match is true when every checked dataset matched.
func (r *Report) Match() bool {
	for _, res := range r.Results {
		if !res.Match {
			return false
		}
	}
	return len(r.Results) > 0
}

// Create writes one generated array per spec into a fresh container at
// path. specs is sorted in place; the sorted specs are returned.
func Create(ctx context.Context, path string, specs []dataset.Spec, opts Options) ([]dataset.Spec, error) {
	dataset.SortSpecs(specs)
	if err := checkUniqueNames(specs); err != nil {
		return nil, err
	}

	c, err := storage.CreateContainer(ctx, path, opts.Driver)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	gen := dataset.NewGenerator(opts.Seed)
	for _, spec := range specs {
		arr, err := gen.Generate(spec)
		if err != nil {
			return nil, err
		}
		if err := c.Put(ctx, arr); err != nil {
			return nil, err
		}
		log.Debug().Str("dataset", spec.Name).Str("dtype", string(spec.DType)).Ints("dims", spec.Dims).Msg("stored")
	}

	if err := writeMeta(ctx, c, specs, opts.Seed); err != nil {
		return nil, err
	}
	return specs, c.Close()
}

func writeMeta(ctx context.Context, c storage.MetaStore, specs []dataset.Spec, seed int64) error {
	raw := make([]string, len(specs))
	for i, s := range specs {
		raw[i] = s.Raw
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	meta := [][2]string{
		{storage.MetaSeed, strconv.FormatInt(seed, 10)},
		{storage.MetaSpecs, string(encoded)},
		{storage.MetaRunID, uuid.NewString()},
		{storage.MetaCreatedAt, time.Now().UTC().Format(time.RFC3339)},
	}
	for _, kv := range meta {
		if err := c.SetMeta(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to record %s: %w", kv[0], err)
		}
	}
	return nil
}

func checkUniqueNames(specs []dataset.Spec) error {
	seen := make(map[string]string, len(specs))
	for _, s := range specs {
		if prev, ok := seen[s.Name]; ok {
			return fmt.Errorf("%w: %q used by %q and %q", ErrDuplicateName, s.Name, prev, s.Raw)
		}
		seen[s.Name] = s.Raw
	}
	return nil
}

// Compare regenerates each spec from the seed in sorted order and checks
// it against the array stored under the same name. specs is sorted in
// place.
func Compare(ctx context.Context, path string, specs []dataset.Spec, opts Options) (*Report, error) {
	dataset.SortSpecs(specs)

	c, err := storage.OpenContainer(ctx, path, opts.Driver)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	warnOnSeedMismatch(ctx, c, opts.Seed)

	gen := dataset.NewGenerator(opts.Seed)
	report := &Report{}
	for _, spec := range specs {
		generated, err := gen.Generate(spec)
		if err != nil {
			return nil, err
		}
		stored, err := c.Get(ctx, spec.Name)
		if err != nil {
			return nil, err
		}

		res := Result{Name: spec.Name, Reason: generated.Diff(stored)}
		res.Match = res.Reason == ""
		report.Results = append(report.Results, res)

		if opts.Mode == ModeFirst {
			break
		}
	}
	return report, nil
}

func warnOnSeedMismatch(ctx context.Context, c storage.MetaStore, seed int64) {
	stored, ok, err := c.Meta(ctx, storage.MetaSeed)
	if err != nil {
		log.Debug().Err(err).Msg("container has no readable metadata")
		return
	}
	if ok && stored != strconv.FormatInt(seed, 10) {
		log.Warn().Str("stored_seed", stored).Int64("seed", seed).Msg("container was created with a different seed")
	}
}
