// Package dashboard runs one pass of the group selector: from the inputs of
// a user interaction to every derived output the page shows.
//
// A pass recomputes everything from the remote tables. Tables are fetched at
// most once per pass and never kept between passes.
package dashboard

import (
	"context"
	"errors"
	"strings"

	"github.com/gnps/groupselector/pkg/features"
	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/gnps/groupselector/pkg/groups"
	"github.com/gnps/groupselector/pkg/link"
	"github.com/gnps/groupselector/pkg/metadata"
	"github.com/gnps/groupselector/pkg/table"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const Version = "0.1"

var ErrNoFeature = errors.New("dashboard: selected feature is not in the table")

// Input is what the user has entered so far.
type Input struct {
	// Task is the task identifier. Empty means the default task.
	Task string

	// Column is the grouping column. Empty or unknown means the default column.
	Column string

	// Group1 and Group2 are the selected terms. Terms not offered for Column
	// are dropped; when nothing remains, the default term is selected.
	Group1 []string
	Group2 []string

	// Feature is the cluster index of the selected feature, or "".
	Feature string

	// Filters are feature table filters, column to expression.
	Filters map[string]string

	// Page is the 0-origin page of the feature table.
	Page int
}

// Errors holds the failure of each stage. A nil field means the stage succeeded.
type Errors struct {
	Metadata error
	Features error
	Groups   error
	Filter   error
	Select   error
}

// Any reports whether some stage failed.
func (e Errors) Any() bool {
	return e.Metadata != nil || e.Features != nil || e.Groups != nil ||
		e.Filter != nil || e.Select != nil
}

// State is the outcome of a pass.
type State struct {
	Task string

	Columns metadata.Columns
	Column  string

	Terms  metadata.Terms
	Group1 []string
	Group2 []string

	USIs1 []string
	USIs2 []string

	// Features is the filtered feature table; nil when the cluster summary is unavailable.
	Features    *features.Table
	FeaturePage []table.Row
	Page        int
	Pages       int

	SelectedFeature string
	Selected        *link.Feature

	// Link is the viewer URL. It is "" when groups cannot be resolved.
	Link string

	Errors Errors
}

type Orchestrator struct {
	fetcher     gnps.Fetcher
	viewerRoot  string
	defaultTask string
	logger      *zap.Logger
}

type Option func(*Orchestrator)

func WithViewerRoot(root string) Option {
	return func(o *Orchestrator) {
		o.viewerRoot = root
	}
}

func WithDefaultTask(task string) Option {
	return func(o *Orchestrator) {
		o.defaultTask = task
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func New(fetcher gnps.Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:    fetcher,
		viewerRoot: link.DefaultViewerRoot,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DefaultTask is the task used when the input names none.
func (o *Orchestrator) DefaultTask() string {
	return o.defaultTask
}

// TaskFromPath returns the first non-empty segment of a navigation path.
func TaskFromPath(p string) (string, bool) {
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			return seg, true
		}
	}
	return "", false
}

// Run computes the state for in.
//
// Run never fails as a whole; failures of a stage are reported in
// State.Errors and the stages depending on it are left empty.
func (o *Orchestrator) Run(ctx context.Context, in Input) State {
	st := State{Task: in.Task}
	if st.Task == "" {
		st.Task = o.defaultTask
	}
	logger := o.logger.With(zap.String("task", st.Task))

	ts := groups.NewTables(o.fetcher, st.Task)
	var clusterSummary *table.Table
	{
		var eg errgroup.Group
		eg.Go(func() error {
			// errors stay in ts and surface at each use.
			_ = ts.Prefetch(ctx)
			return nil
		})
		eg.Go(func() error {
			clusterSummary, st.Errors.Features = o.fetcher.Fetch(ctx, st.Task, gnps.ClusterSummary)
			return nil
		})
		_ = eg.Wait()
	}

	o.features(&st, clusterSummary, in)

	md, err := ts.Metadata(ctx)
	if err != nil {
		st.Errors.Metadata = err
		logger.Warn("metadata is unavailable", zap.Error(err))
		st.Columns = metadata.ResolveColumns(nil)
		st.Terms = metadata.ResolveTerms(nil, "")
		return st
	}

	st.Columns = metadata.ResolveColumns(md)
	st.Column = st.Columns.Default
	if st.Columns.Contains(in.Column) {
		st.Column = in.Column
	}
	if st.Columns.Empty() {
		st.Terms = metadata.ResolveTerms(nil, "")
		logger.Debug("no grouping column is available")
		return st
	}

	st.Terms = metadata.ResolveTerms(md, st.Column)
	st.Group1 = selectTerms(st.Terms, in.Group1, st.Terms.Default1)
	st.Group2 = selectTerms(st.Terms, in.Group2, st.Terms.Default2)

	if st.USIs1, err = ts.Resolve(ctx, st.Column, st.Group1...); err != nil {
		st.Errors.Groups = err
	} else if st.USIs2, err = ts.Resolve(ctx, st.Column, st.Group2...); err != nil {
		st.Errors.Groups = err
	}
	if st.Errors.Groups != nil {
		st.USIs1, st.USIs2 = nil, nil
		logger.Warn("groups cannot be resolved", zap.Error(st.Errors.Groups))
		return st
	}

	st.Link = link.Build(o.viewerRoot, st.USIs1, st.USIs2, st.Selected)
	logger.Debug(
		"pass completed",
		zap.String("column", st.Column),
		zap.Strings("group1", st.Group1),
		zap.Strings("group2", st.Group2),
		zap.Int("usi1", len(st.USIs1)),
		zap.Int("usi2", len(st.USIs2)),
		zap.String("feature", st.SelectedFeature),
	)
	return st
}

func (o *Orchestrator) features(st *State, clusterSummary *table.Table, in Input) {
	if st.Errors.Features != nil {
		o.logger.Warn("feature table is unavailable", zap.String("task", st.Task), zap.Error(st.Errors.Features))
		return
	}

	ft := features.New(clusterSummary)
	filtered, err := ft.Filter(in.Filters)
	if err != nil {
		st.Errors.Filter = err
		filtered = ft
	}
	st.Features = filtered
	st.Pages = filtered.Pages(features.PageSize)
	st.Page = min(max(in.Page, 0), max(st.Pages-1, 0))
	st.FeaturePage = filtered.Page(st.Page, features.PageSize)

	if in.Feature == "" {
		return
	}
	row, ok := filtered.Find(in.Feature)
	if !ok {
		st.Errors.Select = ErrNoFeature
		return
	}
	selected, err := features.Selected(row)
	if err != nil {
		st.Errors.Select = err
		return
	}
	st.SelectedFeature = in.Feature
	st.Selected = selected
}

func selectTerms(terms metadata.Terms, wanted []string, fallback string) []string {
	selected := []string{}
	seen := map[string]struct{}{}
	for _, w := range wanted {
		if _, dup := seen[w]; dup || !terms.Contains(w) {
			continue
		}
		seen[w] = struct{}{}
		selected = append(selected, w)
	}
	if len(selected) == 0 && !terms.Empty() {
		selected = append(selected, fallback)
	}
	return selected
}
