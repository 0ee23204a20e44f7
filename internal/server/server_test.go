package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/beaconcheck/internal/app"
	"github.com/raysh454/beaconcheck/internal/browser"
	"github.com/raysh454/beaconcheck/internal/runstore"
	"github.com/raysh454/beaconcheck/internal/server"
	"github.com/raysh454/beaconcheck/internal/testutil"
)

const twoRows = "Url,Fieldname,Value\n" +
	"http://shop.test/,pageName,home\n" +
	"http://shop.test/cart,pageName,cart\n"

type fixture struct {
	srv     *server.Server
	app     *app.Application
	session *testutil.FakeSession
	dir     string
}

func newFixture(t *testing.T, withHistory bool) *fixture {
	t.Helper()

	cfg := app.DefaultConfig()
	cfg.Capture.WindowMs = 30
	cfg.Capture.PollIntervalMs = 10
	dir := t.TempDir()
	cfg.Server.UploadDir = filepath.Join(dir, "uploads")

	logger := &testutil.DummyLogger{}
	fs := testutil.NewFakeSession()
	fs.PageEntries["http://shop.test/"] = []browser.LogEntry{
		testutil.Response("1", "http://metrics.shop.test/b/ss/shop/1/?pageName=home&events=event1", 200),
	}

	var store *runstore.Store
	if withHistory {
		var err error
		store, err = runstore.Open(filepath.Join(dir, "runs.db"), logger)
		require.NoError(t, err)
	}

	a := app.Assemble(cfg, fs, store, logger)
	s, err := server.NewServer(server.Config{App: a, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return &fixture{srv: s, app: a, session: fs, dir: dir}
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type uploadBody struct {
	Message string              `json:"message"`
	Rows    []map[string]string `json:"rows"`
	Error   string              `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) uploadBody {
	t.Helper()
	var out uploadBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), rec.Body.String())
	return out
}

// ─── Upload ────────────────────────────────────────────────────────────

func TestServer_UploadForm(t *testing.T) {
	f := newFixture(t, false)

	rec := serve(f.srv, httptest.NewRequest(http.MethodGet, "/upload", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	form := doc.Find("form")
	assert.Equal(t, "/upload", form.AttrOr("action", ""))
	assert.Equal(t, "post", form.AttrOr("method", ""))
	assert.Equal(t, "multipart/form-data", form.AttrOr("enctype", ""))
	assert.Equal(t, 1, form.Find(`input[type="file"][name="file"]`).Length())
}

func TestServer_Upload_Processes(t *testing.T) {
	f := newFixture(t, false)

	rec := serve(f.srv, uploadRequest(t, "sample.csv", twoRows))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(server.HeaderRunID))

	body := decode(t, rec)
	assert.Equal(t, "File processed successfully!", body.Message)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, "Pass", body.Rows[0]["Status"])
	assert.Equal(t, "Fail", body.Rows[1]["Status"])
	assert.Equal(t, "http://shop.test/cart", body.Rows[1]["Url"])

	saved, err := os.ReadFile(filepath.Join(f.dir, "uploads", "sample.csv"))
	require.NoError(t, err)
	assert.Equal(t, twoRows, string(saved))
}

func TestServer_Upload_PreservesColumnOrder(t *testing.T) {
	f := newFixture(t, false)

	csv := "Value,Url,Note,Fieldname\nhome,http://shop.test/,first,pageName\n"
	rec := serve(f.srv, uploadRequest(t, "order.csv", csv))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	raw := rec.Body.String()
	idx := func(s string) int { return strings.Index(raw, s) }
	assert.Less(t, idx(`"Value"`), idx(`"Url"`))
	assert.Less(t, idx(`"Url"`), idx(`"Note"`))
	assert.Less(t, idx(`"Fieldname"`), idx(`"Status"`))
}

func TestServer_Upload_HeaderOnly(t *testing.T) {
	f := newFixture(t, false)

	rec := serve(f.srv, uploadRequest(t, "empty.csv", "Url,Fieldname,Value\n"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"File processed successfully!","rows":[]}`, rec.Body.String())
}

func TestServer_Upload_NoFilePart(t *testing.T) {
	f := newFixture(t, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serve(f.srv, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No file part"}`, rec.Body.String())
	assert.Empty(t, f.session.Navigated)
}

func TestServer_Upload_NotMultipart(t *testing.T) {
	f := newFixture(t, false)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(f.srv, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No file part"}`, rec.Body.String())
}

func TestServer_Upload_NoSelectedFile(t *testing.T) {
	f := newFixture(t, false)

	rec := serve(f.srv, uploadRequest(t, "", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No selected file"}`, rec.Body.String())
	assert.Empty(t, f.session.Navigated)
}

func TestServer_Upload_ProcessingFailure(t *testing.T) {
	f := newFixture(t, false)

	rec := serve(f.srv, uploadRequest(t, "bad.csv", "Url,Value\nhttp://shop.test/,x\n"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(server.HeaderRunID))
}

// ─── Runs ──────────────────────────────────────────────────────────────

func TestServer_Runs_History(t *testing.T) {
	f := newFixture(t, true)

	rec := serve(f.srv, uploadRequest(t, "sample.csv", twoRows))
	require.Equal(t, http.StatusOK, rec.Code)
	runID := rec.Header().Get(server.HeaderRunID)

	rec = serve(f.srv, httptest.NewRequest(http.MethodGet, "/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0]["id"])
	assert.Equal(t, "done", runs[0]["status"])

	rec = serve(f.srv, httptest.NewRequest(http.MethodGet, "/runs/"+runID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var run struct {
		ID     string              `json:"id"`
		Passed int                 `json:"passed"`
		Failed int                 `json:"failed"`
		Rows   []map[string]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Failed)
	assert.Len(t, run.Rows, 2)

	rec = serve(f.srv, httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Runs_HistoryDisabled(t *testing.T) {
	f := newFixture(t, false)

	rec := serve(f.srv, httptest.NewRequest(http.MethodGet, "/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(f.srv, httptest.NewRequest(http.MethodGet, "/runs/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RunsWebSocket(t *testing.T) {
	f := newFixture(t, false)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/runs", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return f.app.Checker.Events().Subscribers() == 1
	}, 2*time.Second, 10*time.Millisecond)

	req := uploadRequest(t, "sample.csv", twoRows)
	resp, err := http.Post(ts.URL+"/upload", req.Header.Get("Content-Type"), req.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var ev app.RunEvent
		require.NoError(t, conn.ReadJSON(&ev))
		types = append(types, string(ev.Type))
		if ev.Type == app.EventRunFinished {
			assert.Equal(t, 1, ev.Passed)
			assert.Equal(t, 1, ev.Failed)
			break
		}
	}
	assert.Equal(t, []string{"run_started", "row_visited", "row_visited", "run_finished"}, types)
}

// ─── System ────────────────────────────────────────────────────────────

func TestServer_Health(t *testing.T) {
	f := newFixture(t, false)

	rec := serve(f.srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t, false)
	require.Equal(t, http.StatusOK, serve(f.srv, uploadRequest(t, "sample.csv", twoRows)).Code)

	rec := serve(f.srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "beaconcheck_runs_total")
	assert.Contains(t, rec.Body.String(), "beaconcheck_captured_responses_total")
}

func TestServer_SwaggerDoc(t *testing.T) {
	f := newFixture(t, false)

	rec := serve(f.srv, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "beaconcheck API")
	assert.Contains(t, rec.Body.String(), "/upload")
}

func TestServer_CloseReleasesSession(t *testing.T) {
	f := newFixture(t, false)

	require.NoError(t, f.srv.Close())
	assert.True(t, f.session.Closed)
}

func TestNewServer_RequiresApplication(t *testing.T) {
	_, err := server.NewServer(server.Config{})
	assert.Error(t, err)
}
