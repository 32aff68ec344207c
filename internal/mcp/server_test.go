package mcp_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"splatpipe/internal/config"
	"splatpipe/internal/execx"
	"splatpipe/internal/logging"
	mcpserver "splatpipe/internal/mcp"
	"splatpipe/internal/pipeline"
	"splatpipe/internal/store"
)

func newTestServer(t *testing.T) (*mcpserver.Server, *execx.FakeRunner, *store.MemStore) {
	t.Helper()
	fake := &execx.FakeRunner{}
	st := store.NewMemStore()
	p := pipeline.New(config.Default(), fake, st)
	return mcpserver.NewServer(p), fake, st
}

// writeCheckpoint lays out a minimal model directory with one checkpoint.
func writeCheckpoint(t *testing.T, modelDir string, iteration, gaussians int) {
	t.Helper()
	dir := filepath.Join(modelDir, "point_cloud", fmt.Sprintf("iteration_%d", iteration))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	header := fmt.Sprintf("ply\nformat binary_little_endian 1.0\nelement vertex %d\nproperty float x\nproperty float y\nproperty float z\nend_header\n", gaussians)
	if err := os.WriteFile(filepath.Join(dir, "point_cloud.ply"), []byte(header), 0o644); err != nil {
		t.Fatal(err)
	}
}

func callTool(t *testing.T, s *mcpserver.Server, name string, args map[string]any) (*sdkmcp.CallToolResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ct, st := sdkmcp.NewInMemoryTransports()
	srvSession, err := s.MCPServer.Connect(ctx, st, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer srvSession.Close()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "dev"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	return session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
}

func toolErrorText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	if !res.IsError {
		t.Fatal("expected a tool error")
	}
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func TestServer_RegistersAllTools(t *testing.T) {
	s, _, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ct, st := sdkmcp.NewInMemoryTransports()
	srvSession, err := s.MCPServer.Connect(ctx, st, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer srvSession.Close()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "dev"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, tool := range listed.Tools {
		got[tool.Name] = true
	}
	for _, want := range []string{
		"prepare_dataset", "train_model", "render_views",
		"compute_metrics", "get_status", "list_runs",
	} {
		if !got[want] {
			t.Errorf("tool %s not registered (got %v)", want, listed.Tools)
		}
	}
}

func TestServer_PrepareRejectsUnknownType(t *testing.T) {
	s, fake, _ := newTestServer(t)

	res, err := callTool(t, s, "prepare_dataset", map[string]any{
		"input":  t.TempDir(),
		"output": filepath.Join(t.TempDir(), "ds"),
		"type":   "lidar",
	})
	if err != nil {
		t.Fatal(err)
	}
	if text := toolErrorText(t, res); !strings.Contains(text, "photos or video") {
		t.Errorf("error text = %q", text)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("no external command should run, got %v", fake.CommandLines())
	}
}

func TestServer_PrepareRejectsRatiosWithoutTestSplit(t *testing.T) {
	s, fake, _ := newTestServer(t)

	res, err := callTool(t, s, "prepare_dataset", map[string]any{
		"input":       t.TempDir(),
		"output":      filepath.Join(t.TempDir(), "ds"),
		"type":        "photos",
		"train_ratio": 0.9,
		"val_ratio":   0.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if text := toolErrorText(t, res); !strings.Contains(text, "test split") {
		t.Errorf("error text = %q", text)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("no external command should run, got %v", fake.CommandLines())
	}
}

func TestServer_StatusReportsCheckpoints(t *testing.T) {
	s, _, _ := newTestServer(t)

	model := t.TempDir()
	writeCheckpoint(t, model, 7000, 120000)
	writeCheckpoint(t, model, 30000, 2400000)

	res, err := callTool(t, s, "get_status", map[string]any{"model": model})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %v", res.Content)
	}

	out, ok := res.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("structured content is %T", res.StructuredContent)
	}
	cps, ok := out["checkpoints"].([]any)
	if !ok || len(cps) != 2 {
		t.Fatalf("checkpoints = %v", out["checkpoints"])
	}
	first := cps[0].(map[string]any)
	if first["iteration"].(float64) != 7000 {
		t.Errorf("first iteration = %v, want 7000", first["iteration"])
	}
	if first["gaussians"].(float64) != 120000 {
		t.Errorf("gaussians = %v, want 120000", first["gaussians"])
	}
}

func TestServer_ListRunsNewestFirst(t *testing.T) {
	s, _, st := newTestServer(t)

	for i, kind := range []string{store.KindPrepare, store.KindTrain} {
		id, err := st.StartRun(&store.Run{
			Kind:      kind,
			ModelPath: fmt.Sprintf("/models/m%d", i),
			Status:    store.StatusRunning,
			StartedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := st.FinishRun(id, store.StatusOK, ""); err != nil {
			t.Fatal(err)
		}
	}

	res, err := callTool(t, s, "list_runs", map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %v", res.Content)
	}
	out := res.StructuredContent.(map[string]any)
	runs := out["runs"].([]any)
	if len(runs) != 2 {
		t.Fatalf("runs = %v", runs)
	}
	if kind := runs[0].(map[string]any)["kind"]; kind != store.KindTrain {
		t.Errorf("newest run kind = %v, want %s", kind, store.KindTrain)
	}
}

func TestWatchParent_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mcpserver.WatchParent(ctx, logging.New("test"), cancel)
	cancel()

	// The watchdog goroutine must exit cleanly after cancel.
	time.Sleep(20 * time.Millisecond)
}
