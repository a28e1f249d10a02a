// Package groups resolves the sample files belonging to a metadata group and
// formats them as universal spectrum identifiers.
package groups

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/gnps/groupselector/pkg/table"
	"golang.org/x/sync/errgroup"
)

const (
	// JoinKey is the column shared by the metadata and the file summary.
	JoinKey = "filename"

	// PathColumn holds the full path of a file in the file summary.
	PathColumn = "full_CCMS_path"
)

// ErrGroupResolution matches every *GroupResolutionError with errors.Is.
var ErrGroupResolution = errors.New("groups: group resolution failed")

// GroupResolutionError wraps a fetch failure met while resolving a group.
type GroupResolutionError struct {
	Task   string
	Column string
	Terms  []string
	Cause  error
}

func (e *GroupResolutionError) Error() string {
	return fmt.Sprintf(
		"groups: cannot resolve %s=%s of task %s: %s",
		e.Column, strings.Join(e.Terms, "|"), e.Task, e.Cause,
	)
}

func (e *GroupResolutionError) Unwrap() error {
	return e.Cause
}

func (e *GroupResolutionError) Is(target error) bool {
	return target == ErrGroupResolution
}

// USI formats the spectrum identifier of the first scan of a task's file.
func USI(task string, filename string) string {
	return fmt.Sprintf("mzspec:GNPS:TASK-%s-f.%s:scan:1", task, filename)
}

// Tables is the set of tables of one task used by one computation.
//
// It is not shared across computations. Tables are fetched at most once;
// a failed fetch is remembered and returned again.
type Tables struct {
	task    string
	fetcher gnps.Fetcher

	metadata    *fetched
	fileSummary *fetched
	joined      *table.Table
	joinErr     error
}

type fetched struct {
	table *table.Table
	err   error
}

// NewTables starts an empty snapshot of task. Nothing is fetched yet.
func NewTables(fetcher gnps.Fetcher, task string) *Tables {
	return &Tables{task: task, fetcher: fetcher}
}

// Task is the task identifier of the snapshot.
func (ts *Tables) Task() string {
	return ts.task
}

// Metadata returns the merged metadata table, fetching it on first use.
func (ts *Tables) Metadata(ctx context.Context) (*table.Table, error) {
	if ts.metadata == nil {
		t, err := ts.fetcher.Fetch(ctx, ts.task, gnps.MetadataMerged)
		ts.metadata = &fetched{table: t, err: err}
	}
	return ts.metadata.table, ts.metadata.err
}

// FileSummary returns the file summary with the derived filename column,
// fetching it on first use.
func (ts *Tables) FileSummary(ctx context.Context) (*table.Table, error) {
	if ts.fileSummary == nil {
		t, err := ts.fetcher.Fetch(ctx, ts.task, gnps.FileSummary)
		if err == nil {
			t = withFilename(t)
		}
		ts.fileSummary = &fetched{table: t, err: err}
	}
	return ts.fileSummary.table, ts.fileSummary.err
}

// Prefetch downloads the metadata and the file summary concurrently.
//
// The first failure is returned; both results are kept either way. A failure
// does not cancel the other download, so each table reports its own error.
func (ts *Tables) Prefetch(ctx context.Context) error {
	var eg errgroup.Group
	if ts.metadata == nil {
		eg.Go(func() error {
			_, err := ts.fetchInto(ctx, gnps.MetadataMerged)
			return err
		})
	}
	if ts.fileSummary == nil {
		eg.Go(func() error {
			_, err := ts.fetchInto(ctx, gnps.FileSummary)
			return err
		})
	}
	return eg.Wait()
}

// fetchInto is Prefetch's worker; each goroutine writes its own field.
func (ts *Tables) fetchInto(ctx context.Context, kind gnps.ResultKind) (*table.Table, error) {
	t, err := ts.fetcher.Fetch(ctx, ts.task, kind)
	switch kind {
	case gnps.MetadataMerged:
		ts.metadata = &fetched{table: t, err: err}
	case gnps.FileSummary:
		if err == nil {
			t = withFilename(t)
		}
		ts.fileSummary = &fetched{table: t, err: err}
	}
	return t, err
}

func withFilename(t *table.Table) *table.Table {
	return t.WithColumn(JoinKey, func(r table.Row) table.Cell {
		p := r.Get(PathColumn)
		if p.IsNull() {
			return table.Null()
		}
		return table.Text(path.Base(p.String()))
	})
}

// Joined returns the metadata left-joined with the file summary on filename.
func (ts *Tables) Joined(ctx context.Context) (*table.Table, error) {
	if ts.joined != nil || ts.joinErr != nil {
		return ts.joined, ts.joinErr
	}

	md, err := ts.Metadata(ctx)
	if err != nil {
		ts.joinErr = err
		return nil, err
	}
	fs, err := ts.FileSummary(ctx)
	if err != nil {
		ts.joinErr = err
		return nil, err
	}

	ts.joined, ts.joinErr = table.LeftJoin(md, fs, JoinKey)
	return ts.joined, ts.joinErr
}

// Resolve lists identifiers of files whose column value equals one of terms
// exactly, in join order. Each joined row contributes at most once.
//
// A cell "control,case" does not match the term "case".
func (ts *Tables) Resolve(ctx context.Context, column string, terms ...string) ([]string, error) {
	fail := func(err error) error {
		return &GroupResolutionError{Task: ts.task, Column: column, Terms: terms, Cause: err}
	}

	joined, err := ts.Joined(ctx)
	if err != nil {
		return nil, fail(err)
	}

	// the join suffixes a metadata column also found in the file summary.
	valueColumn := column
	if column != JoinKey && ts.fileSummary.table.Has(column) {
		valueColumn = column + "_x"
	}

	wanted := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		wanted[t] = struct{}{}
	}

	usis := []string{}
	for _, r := range joined.Rows() {
		v := r.Get(valueColumn)
		if v.IsNull() {
			continue
		}
		if _, ok := wanted[v.String()]; !ok {
			continue
		}
		usis = append(usis, USI(ts.task, fileOf(r)))
	}
	return usis, nil
}

// fileOf names the file of a joined row. Metadata rows without a matching
// file summary fall back to the metadata filename.
func fileOf(r table.Row) string {
	if p := r.Get(PathColumn); !p.IsNull() {
		return path.Base(p.String())
	}
	return r.Get(JoinKey).String()
}

// ResolveGroup fetches the tables of task and resolves one group term.
func ResolveGroup(ctx context.Context, fetcher gnps.Fetcher, task, column, term string) ([]string, error) {
	ts := NewTables(fetcher, task)
	if err := ts.Prefetch(ctx); err != nil {
		return nil, &GroupResolutionError{Task: task, Column: column, Terms: []string{term}, Cause: err}
	}
	return ts.Resolve(ctx, column, term)
}
