package groups_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/gnps/groupselector/pkg/groups"
	"github.com/gnps/groupselector/pkg/table"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeFetcher struct {
	mu     sync.Mutex
	tables map[gnps.ResultKind]string
	fail   map[gnps.ResultKind]error
	calls  map[gnps.ResultKind]int
}

func (f *fakeFetcher) Fetch(_ context.Context, task string, kind gnps.ResultKind) (*table.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[gnps.ResultKind]int{}
	}
	f.calls[kind]++

	if err, ok := f.fail[kind]; ok {
		return nil, &gnps.RemoteFetchError{Task: task, Kind: kind, Cause: err}
	}
	return table.ParseTSV(strings.NewReader(f.tables[kind]))
}

const metadataTSV = "filename\tATTRIBUTE_type\tATTRIBUTE_site\n" +
	"a.mzML\tcase\tnorth\n" +
	"c.mzML\tcontrol,case\tsouth\n" +
	"b.mzML\tcase\tsouth\n" +
	"d.mzML\tcontrol\tnorth\n" +
	"e.mzML\tcase\tnorth\n"

const fileSummaryTSV = "full_CCMS_path\tMS2s\n" +
	"MSV000/ccms_peak/a.mzML\t120\n" +
	"MSV000/ccms_peak/b.mzML\t80\n" +
	"MSV000/ccms_peak/c.mzML\t90\n" +
	"MSV000/ccms_peak/d.mzML\t70\n"

func newFetcher() *fakeFetcher {
	return &fakeFetcher{tables: map[gnps.ResultKind]string{
		gnps.MetadataMerged: metadataTSV,
		gnps.FileSummary:    fileSummaryTSV,
	}}
}

func TestResolveGroup(t *testing.T) {
	t.Run("it returns identifiers of files whose value equals the term, in join order", func(t *testing.T) {
		got, err := groups.ResolveGroup(context.Background(), newFetcher(), "T1", "ATTRIBUTE_type", "case")
		require.NoError(t, err)

		want := []string{
			"mzspec:GNPS:TASK-T1-f.a.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.b.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.e.mzML:scan:1",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("identifiers (-want +got):\n%s", diff)
		}
	})

	t.Run("a term reachable only through a multi-label cell matches nothing", func(t *testing.T) {
		f := newFetcher()
		f.tables[gnps.MetadataMerged] = "filename\tATTRIBUTE_type\n" +
			"a.mzML\tcontrol,case\n"

		got, err := groups.ResolveGroup(context.Background(), f, "T1", "ATTRIBUTE_type", "case")
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("two matching files give the two identifiers", func(t *testing.T) {
		f := newFetcher()
		f.tables[gnps.MetadataMerged] = "filename\tATTRIBUTE_type\n" +
			"a.mzML\tcase\n" +
			"x.mzML\tcontrol\n" +
			"b.mzML\tcase\n"

		got, err := groups.ResolveGroup(context.Background(), f, "T1", "ATTRIBUTE_type", "case")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"mzspec:GNPS:TASK-T1-f.a.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.b.mzML:scan:1",
		}, got)
	})

	t.Run("metadata rows without a file summary keep their metadata filename", func(t *testing.T) {
		got, err := groups.ResolveGroup(context.Background(), newFetcher(), "T1", "ATTRIBUTE_site", "north")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"mzspec:GNPS:TASK-T1-f.a.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.d.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.e.mzML:scan:1",
		}, got)
	})

	t.Run("the count equals the number of joined rows equal to the term", func(t *testing.T) {
		f := newFetcher()
		f.tables[gnps.FileSummary] = fileSummaryTSV + "MSV001/ccms_peak/a.mzML\t10\n"

		got, err := groups.ResolveGroup(context.Background(), f, "T1", "ATTRIBUTE_type", "case")
		require.NoError(t, err)
		assert.Len(t, got, 4, "a.mzML is listed twice in the file summary")
	})

	t.Run("a column also present in the file summary is matched on the metadata values", func(t *testing.T) {
		f := newFetcher()
		f.tables[gnps.MetadataMerged] = "filename\tSampleType\n" +
			"a.mzML\tcase\n" +
			"b.mzML\tcase\n"
		f.tables[gnps.FileSummary] = "full_CCMS_path\tSampleType\n" +
			"MSV000/ccms_peak/a.mzML\tblank\n" +
			"MSV000/ccms_peak/b.mzML\n"

		got, err := groups.ResolveGroup(context.Background(), f, "T1", "SampleType", "case")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"mzspec:GNPS:TASK-T1-f.a.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.b.mzML:scan:1",
		}, got)

		got, err = groups.ResolveGroup(context.Background(), f, "T1", "SampleType", "blank")
		require.NoError(t, err)
		assert.Empty(t, got, "file summary values are not terms of the metadata")
	})

	t.Run("a path column in the metadata does not break the file names", func(t *testing.T) {
		f := newFetcher()
		f.tables[gnps.MetadataMerged] = "filename\tfull_CCMS_path\tATTRIBUTE_type\n" +
			"a.mzML\tlocal/renamed.mzML\tcase\n"

		got, err := groups.ResolveGroup(context.Background(), f, "T1", "ATTRIBUTE_type", "case")
		require.NoError(t, err)
		assert.Equal(t, []string{"mzspec:GNPS:TASK-T1-f.a.mzML:scan:1"}, got)
	})

	for _, kind := range []gnps.ResultKind{gnps.MetadataMerged, gnps.FileSummary} {
		t.Run("a failed "+kind.Name()+" fetch is a GroupResolutionError wrapping the fetch error", func(t *testing.T) {
			f := newFetcher()
			f.fail = map[gnps.ResultKind]error{kind: errors.New("boom")}

			_, err := groups.ResolveGroup(context.Background(), f, "T1", "ATTRIBUTE_type", "case")
			require.ErrorIs(t, err, groups.ErrGroupResolution)
			assert.ErrorIs(t, err, gnps.ErrRemoteFetch)

			var gre *groups.GroupResolutionError
			require.ErrorAs(t, err, &gre)
			assert.Equal(t, "T1", gre.Task)
		})
	}
}

func TestTables(t *testing.T) {
	t.Run("a snapshot fetches each table once however many groups are resolved", func(t *testing.T) {
		f := newFetcher()
		ts := groups.NewTables(f, "T1")
		ctx := context.Background()

		require.NoError(t, ts.Prefetch(ctx))
		_, err := ts.Metadata(ctx)
		require.NoError(t, err)
		g1, err := ts.Resolve(ctx, "ATTRIBUTE_type", "case")
		require.NoError(t, err)
		g2, err := ts.Resolve(ctx, "ATTRIBUTE_type", "control")
		require.NoError(t, err)

		assert.Len(t, g1, 3)
		assert.Equal(t, []string{"mzspec:GNPS:TASK-T1-f.d.mzML:scan:1"}, g2)
		assert.Equal(t, 1, f.calls[gnps.MetadataMerged])
		assert.Equal(t, 1, f.calls[gnps.FileSummary])
	})

	t.Run("several terms select rows matching any of them, each row once", func(t *testing.T) {
		ts := groups.NewTables(newFetcher(), "T1")

		got, err := ts.Resolve(context.Background(), "ATTRIBUTE_type", "control", "case", "case")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"mzspec:GNPS:TASK-T1-f.a.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.b.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.d.mzML:scan:1",
			"mzspec:GNPS:TASK-T1-f.e.mzML:scan:1",
		}, got)
	})

	t.Run("the file summary gets a filename column from the path", func(t *testing.T) {
		ts := groups.NewTables(newFetcher(), "T1")

		fs, err := ts.FileSummary(context.Background())
		require.NoError(t, err)
		names, err := fs.Column(groups.JoinKey)
		require.NoError(t, err)
		assert.Equal(t, "a.mzML", names[0].String())
	})

	t.Run("a failed fetch is remembered", func(t *testing.T) {
		f := newFetcher()
		f.fail = map[gnps.ResultKind]error{gnps.MetadataMerged: errors.New("boom")}
		ts := groups.NewTables(f, "T1")
		ctx := context.Background()

		_, err1 := ts.Metadata(ctx)
		_, err2 := ts.Metadata(ctx)
		assert.Error(t, err1)
		assert.Equal(t, err1, err2)
		assert.Equal(t, 1, f.calls[gnps.MetadataMerged])
	})
}

func TestUSI(t *testing.T) {
	assert.Equal(t, "mzspec:GNPS:TASK-abc-f.x.mzXML:scan:1", groups.USI("abc", "x.mzXML"))
}
