package gnps_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gnps/groupselector/pkg/gnps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu   sync.Mutex
	kind []string
	errs []error
}

func (o *recordingObserver) ObserveFetch(kind string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kind = append(o.kind, kind)
	o.errs = append(o.errs, err)
}

func TestFetch(t *testing.T) {
	t.Run("it requests the download endpoint with task and file selector", func(t *testing.T) {
		var gotPath, gotTask, gotFile string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotTask = r.URL.Query().Get("task")
			gotFile = r.URL.Query().Get("file")
			w.Header().Set("Content-Type", "text/tab-separated-values")
			w.Write([]byte("filename\tATTRIBUTE_type\na.mzML\tcase\n"))
		}))
		defer server.Close()

		obs := &recordingObserver{}
		testee, err := gnps.NewClient(server.URL, gnps.WithObserver(obs))
		require.NoError(t, err)

		tbl, err := testee.Fetch(context.Background(), "T1", gnps.MetadataMerged)
		require.NoError(t, err)

		assert.Equal(t, "/ProteoSAFe/DownloadResultFile", gotPath)
		assert.Equal(t, "T1", gotTask)
		assert.Equal(t, "metadata_merged/", gotFile)
		assert.Equal(t, []string{"filename", "ATTRIBUTE_type"}, tbl.Columns())
		assert.Equal(t, []string{"metadata_merged"}, obs.kind)
		assert.Nil(t, obs.errs[0])
	})

	for name, kind := range map[string]gnps.ResultKind{
		"cluster summary": gnps.ClusterSummary,
		"file summary":    gnps.FileSummary,
	} {
		t.Run("it maps "+name+" to its file selector", func(t *testing.T) {
			var gotFile string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotFile = r.URL.Query().Get("file")
				w.Write([]byte("x\n1\n"))
			}))
			defer server.Close()

			testee, err := gnps.NewClient(server.URL + "/")
			require.NoError(t, err)
			_, err = testee.Fetch(context.Background(), "T1", kind)
			require.NoError(t, err)
			assert.Equal(t, string(kind), gotFile)
		})
	}

	t.Run("a missing task is a RemoteFetchError carrying the status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		obs := &recordingObserver{}
		testee, err := gnps.NewClient(server.URL, gnps.WithObserver(obs))
		require.NoError(t, err)

		_, err = testee.Fetch(context.Background(), "nope", gnps.FileSummary)
		require.ErrorIs(t, err, gnps.ErrRemoteFetch)

		var rfe *gnps.RemoteFetchError
		require.True(t, errors.As(err, &rfe))
		assert.Equal(t, http.StatusNotFound, rfe.StatusCode)
		assert.Equal(t, "nope", rfe.Task)
		assert.Equal(t, gnps.FileSummary, rfe.Kind)
		assert.ErrorIs(t, obs.errs[0], gnps.ErrRemoteFetch)
	})

	t.Run("an HTML page is not accepted as a table", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("\n  <!DOCTYPE html><html><body>Task not found</body></html>"))
		}))
		defer server.Close()

		testee, err := gnps.NewClient(server.URL)
		require.NoError(t, err)

		_, err = testee.Fetch(context.Background(), "T1", gnps.ClusterSummary)
		assert.ErrorIs(t, err, gnps.ErrRemoteFetch)
	})

	t.Run("an empty body is a RemoteFetchError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		testee, err := gnps.NewClient(server.URL)
		require.NoError(t, err)

		_, err = testee.Fetch(context.Background(), "T1", gnps.ClusterSummary)
		assert.ErrorIs(t, err, gnps.ErrRemoteFetch)
	})

	t.Run("an unreachable server is a RemoteFetchError without status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		addr := server.URL
		server.Close()

		testee, err := gnps.NewClient(addr, gnps.WithTimeout(time.Second))
		require.NoError(t, err)

		_, err = testee.Fetch(context.Background(), "T1", gnps.MetadataMerged)
		var rfe *gnps.RemoteFetchError
		require.ErrorAs(t, err, &rfe)
		assert.Zero(t, rfe.StatusCode)
	})

	t.Run("an unknown kind is refused without a request", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		testee, err := gnps.NewClient(server.URL)
		require.NoError(t, err)

		_, err = testee.Fetch(context.Background(), "T1", gnps.ResultKind("other/"))
		assert.ErrorIs(t, err, gnps.ErrRemoteFetch)
		assert.False(t, called)
	})
}

func TestNewClient(t *testing.T) {
	t.Run("it refuses a relative api root", func(t *testing.T) {
		_, err := gnps.NewClient("/ProteoSAFe")
		assert.Error(t, err)
	})
}

func TestDownloadURL(t *testing.T) {
	assert.Equal(
		t,
		"https://gnps.ucsd.edu/ProteoSAFe/DownloadResultFile?file=metadata_merged%2F&task=abc",
		gnps.DownloadURL("https://gnps.ucsd.edu/", "abc", gnps.MetadataMerged),
	)
}
