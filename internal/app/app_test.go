package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/encoding/charmap"

	"github.com/fiscalsync/ajustes-sync/internal/catalogue"
	"github.com/fiscalsync/ajustes-sync/internal/config"
	"github.com/fiscalsync/ajustes-sync/internal/coordinator"
	"github.com/fiscalsync/ajustes-sync/internal/records"
	"github.com/fiscalsync/ajustes-sync/internal/sources"
	sourcemocks "github.com/fiscalsync/ajustes-sync/internal/sources/mocks"
	"github.com/fiscalsync/ajustes-sync/internal/status"
	statusmocks "github.com/fiscalsync/ajustes-sync/internal/status/mocks"
	pkgsync "github.com/fiscalsync/ajustes-sync/internal/sync"
	syncmocks "github.com/fiscalsync/ajustes-sync/internal/sync/mocks"
	writermocks "github.com/fiscalsync/ajustes-sync/internal/writer/mocks"
)

const testRunID = "0b6f3c1e-5d7a-4c2b-9e8f-123456789abc"

func tableID(id int) *int {
	return &id
}

func cp1252(t *testing.T, s string) string {
	t.Helper()
	out, err := charmap.Windows1252.NewEncoder().String(s)
	require.NoError(t, err)
	return out
}

// upstream serves region tables keyed by idTabela
func upstream(t *testing.T, tables map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := tables[r.URL.Query().Get(sources.QueryTableID)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

type syncEndpoint struct {
	server *httptest.Server
	calls  atomic.Int32
	body   atomic.Value
	runID  atomic.Value
}

func newSyncEndpoint(t *testing.T, statusCode int, response string) *syncEndpoint {
	t.Helper()
	e := &syncEndpoint{}
	e.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		e.body.Store(body)
		e.runID.Store(r.Header.Get(pkgsync.HeaderRunID))
		w.WriteHeader(statusCode)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(e.server.Close)
	return e
}

func (e *syncEndpoint) records(t *testing.T) []records.Record {
	t.Helper()
	raw, ok := e.body.Load().([]byte)
	require.True(t, ok, "sync endpoint received no body")
	var recs []records.Record
	require.NoError(t, json.Unmarshal(raw, &recs))
	return recs
}

func testConfig(t *testing.T, baseURL, syncURL string, regions []catalogue.Region) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Source.BaseURL = baseURL
	cfg.Source.Timeout = "5s"
	cfg.Sync.Endpoint = syncURL
	cfg.Sync.Timeout = "5s"
	cfg.Snapshot.Path = filepath.Join(dir, "out", "ajustes.csv")
	cfg.Report.Path = filepath.Join(dir, "data", "run-report.json")
	cfg.Regions = regions
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...SyncAppOptions) *SyncApp {
	t.Helper()
	fixed := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	base := []SyncAppOptions{
		WithConfig(cfg),
		WithClock(func() time.Time { return fixed }),
		WithRunIDGenerator(func() string { return testRunID }),
	}
	app, err := NewSyncApp(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	return app
}

var threeRegions = []catalogue.Region{
	{Name: "Bahia", PackageID: 11, TableID: tableID(190)},
	{Name: "Roraima", PackageID: 28},
	{Name: "Ceara", PackageID: 13, TableID: tableID(35)},
}

func bahiaTable(t *testing.T) string {
	t.Helper()
	return cp1252(t, "Tabela de Códigos de Ajustes da Apuração do ICMS - BA\r\n"+
		"BA010001|Crédito de ICMS d'água|01012020|\r\n"+
		"BA020002|Estorno de débito|01062021|31122022\r\n")
}

func TestSyncApp_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	source := upstream(t, map[string]string{
		"190": bahiaTable(t),
		"35":  "",
	})
	endpoint := newSyncEndpoint(t, http.StatusOK, `{"status":"ok","inserted":2}`)
	cfg := testConfig(t, source.URL, endpoint.server.URL, threeRegions)

	report, err := newTestApp(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, status.PhaseComplete, report.Phase)
	assert.Equal(t, testRunID, report.RunID)
	assert.Equal(t, 2, report.RecordCount)

	require.Len(t, report.Regions, 3)
	assert.Equal(t, sources.OutcomeSuccess, report.Regions[0].Outcome)
	assert.Equal(t, 2, report.Regions[0].Rows)
	assert.Equal(t, sources.OutcomeSkipped, report.Regions[1].Outcome)
	assert.Equal(t, sources.OutcomeEmptyResponse, report.Regions[2].Outcome)

	counts := report.Counts()
	assert.Equal(t, 1, counts[sources.OutcomeSuccess])
	assert.Equal(t, 1, counts[sources.OutcomeSkipped])
	assert.Equal(t, 1, counts[sources.OutcomeEmptyResponse])

	// one POST carrying both records
	assert.Equal(t, int32(1), endpoint.calls.Load())
	assert.Equal(t, testRunID, endpoint.runID.Load())
	assert.Equal(t, []records.Record{
		{AdjustmentCode: "BA010001", Description: "Crédito de ICMS d''água", StartDate: "01012020", EndDate: "31129999", RegionCode: "BA"},
		{AdjustmentCode: "BA020002", Description: "Estorno de débito", StartDate: "01062021", EndDate: "31122022", RegionCode: "BA"},
	}, endpoint.records(t))

	require.NotNil(t, report.Sync)
	assert.Equal(t, 2, report.Sync.Delivered)
	assert.Equal(t, `{"status":"ok","inserted":2}`, report.Sync.Confirmation)

	// snapshot
	require.NotNil(t, report.Snapshot)
	assert.Equal(t, cfg.Snapshot.Path, report.Snapshot.Location)
	data, err := os.ReadFile(cfg.Snapshot.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimPrefix(strings.TrimSpace(string(data)), "\ufeff"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "cod_aj_apur,descricao,data_inicio,data_fim,uf", lines[0])
	assert.Equal(t, "BA010001,Crédito de ICMS d''água,01012020,31129999,BA", lines[1])

	// persisted report
	saved, err := status.NewFileReportPersistence(cfg.Report.Path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testRunID, saved.RunID)
	assert.Equal(t, status.PhaseComplete, saved.Phase)
}

func TestSyncApp_Run_SyncFailureAfterSnapshot(t *testing.T) {
	t.Parallel()

	source := upstream(t, map[string]string{"190": bahiaTable(t), "35": ""})
	endpoint := newSyncEndpoint(t, http.StatusInternalServerError, "database unavailable")
	cfg := testConfig(t, source.URL, endpoint.server.URL, threeRegions)

	report, err := newTestApp(t, cfg).Run(context.Background())
	require.Error(t, err)

	var deliveryErr *pkgsync.DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, http.StatusInternalServerError, deliveryErr.StatusCode)

	assert.Equal(t, status.PhasePartiallyFailed, report.Phase)
	assert.Equal(t, http.StatusInternalServerError, report.Sync.StatusCode)
	assert.NotEmpty(t, report.Sync.Error)
	assert.Empty(t, report.Snapshot.Error)
	assert.FileExists(t, cfg.Snapshot.Path)
	assert.Equal(t, int32(1), endpoint.calls.Load())
}

func TestSyncApp_Run_NoData(t *testing.T) {
	t.Parallel()

	source := upstream(t, map[string]string{"35": "   \r\n"})
	endpoint := newSyncEndpoint(t, http.StatusOK, `{}`)
	cfg := testConfig(t, source.URL, endpoint.server.URL, threeRegions)

	report, err := newTestApp(t, cfg).Run(context.Background())
	require.ErrorIs(t, err, coordinator.ErrNoDataAvailable)
	require.NotNil(t, report)

	assert.Equal(t, status.PhaseNoData, report.Phase)
	assert.Zero(t, report.RecordCount)
	assert.Nil(t, report.Snapshot)
	assert.Nil(t, report.Sync)

	// Bahia 404 is a network failure, Ceara is blank
	assert.Equal(t, sources.OutcomeNetworkFailure, report.Regions[0].Outcome)
	assert.Equal(t, http.StatusNotFound, report.Regions[0].StatusCode)
	assert.Equal(t, sources.OutcomeEmptyResponse, report.Regions[2].Outcome)

	assert.Zero(t, endpoint.calls.Load())
	assert.NoFileExists(t, cfg.Snapshot.Path)
	assert.FileExists(t, cfg.Report.Path)
}

func TestSyncApp_Run_SyncDisabled(t *testing.T) {
	t.Parallel()

	source := upstream(t, map[string]string{"190": bahiaTable(t)})
	endpoint := newSyncEndpoint(t, http.StatusOK, `{}`)
	cfg := testConfig(t, source.URL, endpoint.server.URL, threeRegions[:1])
	cfg.Sync.Enabled = false

	report, err := newTestApp(t, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, status.PhaseComplete, report.Phase)
	assert.True(t, report.Sync.Skipped)
	assert.Equal(t, pkgsync.ReasonDisabled, report.Sync.Reason)
	assert.Zero(t, endpoint.calls.Load())
	assert.FileExists(t, cfg.Snapshot.Path)
}

func TestSyncApp_Run_WriteFailureStillSyncs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	fetcher := sourcemocks.NewMockRegionFetcher(ctrl)
	snapshot := writermocks.NewMockSnapshotWriter(ctrl)
	synchronizer := syncmocks.NewMockSynchronizer(ctrl)
	persistence := statusmocks.NewMockReportPersistence(ctrl)

	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(&sources.Outcome{
		Region: "Bahia",
		Kind:   sources.OutcomeSuccess,
		Rows:   []records.RawRow{{AdjustmentCode: "BA1", Description: "x", StartDate: "01012020", EndDate: "nan"}},
	})

	writeErr := errors.New("disk full")
	gomock.InOrder(
		snapshot.EXPECT().Write(gomock.Any(), gomock.Len(1)).Return("", writeErr),
		synchronizer.EXPECT().
			Deliver(gomock.Any(), gomock.Len(1)).
			DoAndReturn(func(ctx context.Context, recs []records.Record) (*pkgsync.Result, error) {
				assert.Equal(t, testRunID, pkgsync.RunIDFromContext(ctx))
				assert.Equal(t, records.OpenEndDate, recs[0].EndDate)
				return &pkgsync.Result{Delivered: 1}, nil
			}),
	)
	persistence.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("read-only filesystem"))

	cfg := config.Default()
	cfg.Regions = threeRegions[:1]

	report, err := newTestApp(t, cfg,
		WithRegionFetcher(fetcher),
		WithSnapshotWriter(snapshot),
		WithSynchronizer(synchronizer),
		WithReportPersistence(persistence),
	).Run(context.Background())

	require.ErrorIs(t, err, writeErr)
	assert.Equal(t, status.PhasePartiallyFailed, report.Phase)
	assert.Equal(t, "disk full", report.Snapshot.Error)
	assert.Equal(t, 1, report.Sync.Delivered)
	assert.Empty(t, report.Sync.Error)
}

func TestSyncApp_Run_WriteAndSyncFailuresJoined(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	fetcher := sourcemocks.NewMockRegionFetcher(ctrl)
	snapshot := writermocks.NewMockSnapshotWriter(ctrl)
	synchronizer := syncmocks.NewMockSynchronizer(ctrl)

	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(&sources.Outcome{
		Region: "Bahia",
		Kind:   sources.OutcomeSuccess,
		Rows:   []records.RawRow{{AdjustmentCode: "BA1"}},
	})
	writeErr := errors.New("disk full")
	syncErr := &pkgsync.DeliveryError{Err: errors.New("connection refused")}
	snapshot.EXPECT().Write(gomock.Any(), gomock.Any()).Return("", writeErr)
	synchronizer.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil, syncErr)

	cfg := config.Default()
	cfg.Regions = threeRegions[:1]
	cfg.Report.Path = ""

	report, err := newTestApp(t, cfg,
		WithRegionFetcher(fetcher),
		WithSnapshotWriter(snapshot),
		WithSynchronizer(synchronizer),
	).Run(context.Background())

	require.ErrorIs(t, err, writeErr)
	var deliveryErr *pkgsync.DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, status.PhasePartiallyFailed, report.Phase)
	assert.Zero(t, report.Sync.StatusCode)
}

func TestSyncApp_Run_CancelledContext(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	fetcher := sourcemocks.NewMockRegionFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).AnyTimes().Return(&sources.Outcome{Kind: sources.OutcomeNetworkFailure})

	cfg := config.Default()
	cfg.Report.Path = ""

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestApp(t, cfg, WithRegionFetcher(fetcher)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)
}
