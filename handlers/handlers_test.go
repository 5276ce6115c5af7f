package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alharthydev/compresspro/config"
	"github.com/alharthydev/compresspro/internal/encode"
	"github.com/alharthydev/compresspro/internal/hardware"
	"github.com/alharthydev/compresspro/internal/job"
	"github.com/alharthydev/compresspro/internal/probe"
	"github.com/alharthydev/compresspro/internal/settings"
	"github.com/alharthydev/compresspro/internal/types"
)

type fakeOpener struct {
	block bool
}

func (o *fakeOpener) Open(_ context.Context, candidate types.EncoderCandidate, _ types.CompressionRequest) (encode.Encoder, error) {
	return &fakeEncoder{candidate: candidate, block: o.block}, nil
}

type fakeEncoder struct {
	candidate types.EncoderCandidate
	block     bool
}

func (e *fakeEncoder) Run(ctx context.Context, onProgress func(frame int64, speed float64)) error {
	if onProgress != nil {
		onProgress(50, 2.0)
		onProgress(100, 2.0)
	}
	if e.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (e *fakeEncoder) Candidate() types.EncoderCandidate { return e.candidate }
func (e *fakeEncoder) Close() error                      { return nil }

type fakeProber struct{}

func (fakeProber) Probe(context.Context, string) (probe.SourceInfo, error) {
	return probe.SourceInfo{VideoCodec: "h264", Width: 1280, Height: 720, TotalFrames: 100}, nil
}

type fakeDetector struct{}

func (fakeDetector) Detect() []hardware.Capability {
	return []hardware.Capability{
		{Type: types.HardwareNVENC, DeviceName: "NVIDIA GeForce RTX 3060", Encoders: []string{"h264_nvenc"}, Available: true},
		{Type: types.HardwareCPU, DeviceName: "software", Available: true},
	}
}

type testEnv struct {
	server  *httptest.Server
	manager *job.Manager
	dir     string
}

func newTestEnv(t *testing.T, opener encode.Opener) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := settings.NewStore(filepath.Join(dir, "settings.json"), logger)
	manager := job.NewManager(opener, fakeProber{}, store, logger)

	router := NewRouter(manager, fakeDetector{}, store, config.DefaultPresets(), types.HardwareAuto, logger)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		manager.Shutdown()
		server.Close()
	})

	return &testEnv{server: server, manager: manager, dir: dir}
}

func (env *testEnv) validBody(t *testing.T) map[string]any {
	t.Helper()

	inputPath := filepath.Join(env.dir, "input.mp4")
	require.NoError(t, os.WriteFile(inputPath, []byte("fake video"), 0o600))

	return map[string]any{
		"input_path":  inputPath,
		"output_path": filepath.Join(env.dir, "output.mp4"),
		"codec":       "h264",
		"crf":         23,
	}
}

func postCompress(t *testing.T, env *testEnv, body map[string]any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(env.server.URL+"/compress", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeSnapshot(t *testing.T, resp *http.Response) job.Snapshot {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var snap job.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

// waitTerminal polls GET /jobs/{id} until the job reaches a final state.
func waitTerminal(t *testing.T, env *testEnv, id string) job.Snapshot {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(env.server.URL + "/jobs/" + id)
		require.NoError(t, err)
		snap := decodeSnapshot(t, resp)
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for terminal job status")
	return job.Snapshot{}
}

func TestCompressAcceptsAndCompletesJob(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	resp := postCompress(t, env, env.validBody(t))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	snap := decodeSnapshot(t, resp)
	require.NotEmpty(t, snap.ID)

	final := waitTerminal(t, env, snap.ID)
	assert.Equal(t, types.JobCompleted, final.Status)
	require.NotNil(t, final.Result)
	assert.Equal(t, "h264_nvenc", final.Result.Encoder)
}

func TestCompressRejectsInvalidBody(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	resp, err := http.Post(env.server.URL+"/compress", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompressRejectsUnknownCodec(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	body := env.validBody(t)
	body["codec"] = "mpeg4"

	resp := postCompress(t, env, body)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompressRejectsMissingInput(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	body := env.validBody(t)
	body["input_path"] = filepath.Join(env.dir, "missing.mp4")

	resp := postCompress(t, env, body)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompressRejectsConcurrentJob(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{block: true})

	first := postCompress(t, env, env.validBody(t))
	require.Equal(t, http.StatusAccepted, first.StatusCode)
	snap := decodeSnapshot(t, first)

	second := postCompress(t, env, env.validBody(t))
	defer func() { _ = second.Body.Close() }()
	assert.Equal(t, http.StatusConflict, second.StatusCode)

	cancelJob(t, env, snap.ID)
	waitTerminal(t, env, snap.ID)
}

func TestCompressAppliesQualityPreset(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	body := env.validBody(t)
	delete(body, "crf")
	body["quality_preset"] = "high"

	resp := postCompress(t, env, body)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	snap := decodeSnapshot(t, resp)
	waitTerminal(t, env, snap.ID)

	// Settings persisted on success reflect the preset values.
	settingsResp, err := http.Get(env.server.URL + "/settings")
	require.NoError(t, err)
	defer func() { _ = settingsResp.Body.Close() }()

	var saved settings.Settings
	require.NoError(t, json.NewDecoder(settingsResp.Body).Decode(&saved))
	assert.Equal(t, 18, saved.CRF)
	assert.Equal(t, "slow", saved.Preset)
}

func TestCompressRejectsUnknownPreset(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	body := env.validBody(t)
	body["quality_preset"] = "cinematic"

	resp := postCompress(t, env, body)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func cancelJob(t *testing.T, env *testEnv, id string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/jobs/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestCancelRunningJob(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{block: true})

	resp := postCompress(t, env, env.validBody(t))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	snap := decodeSnapshot(t, resp)

	cancelJob(t, env, snap.ID)

	final := waitTerminal(t, env, snap.ID)
	assert.Equal(t, types.JobCancelled, final.Status)
}

func TestJobEndpointsUnknownID(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	resp, err := http.Get(env.server.URL + "/jobs/nope")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/jobs/nope", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = delResp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, delResp.StatusCode)
}

func TestSystemEndpoint(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	resp, err := http.Get(env.server.URL + "/system")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var system SystemResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&system))
	assert.Len(t, system.Hardware, 2)
	assert.Positive(t, system.System.LogicalCores)
}

func TestSettingsEndpointDefaults(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	resp, err := http.Get(env.server.URL + "/settings")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var saved settings.Settings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, "h264", saved.Codec)
	assert.Equal(t, 23, saved.CRF)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProgressWebSocketStreamsUntilTerminal(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{block: true})

	resp := postCompress(t, env, env.validBody(t))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	snap := decodeSnapshot(t, resp)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/jobs/" + snap.ID
	conn, wsResp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = wsResp.Body.Close() }()
	defer func() { _ = conn.Close() }()

	cancelJob(t, env, snap.ID)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var ev job.Event
		if readErr := conn.ReadJSON(&ev); readErr != nil {
			t.Fatalf("connection closed before terminal event: %v", readErr)
		}
		if ev.Result != nil {
			assert.Equal(t, types.JobCancelled, ev.Result.Status)
			return
		}
	}
}

func TestProgressWebSocketUnknownJob(t *testing.T) {
	env := newTestEnv(t, &fakeOpener{})

	resp, err := http.Get(env.server.URL + "/ws/jobs/nope")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
