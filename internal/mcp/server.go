// Package mcp exposes the pipeline stages as MCP tools over stdio, so agent
// frontends can drive dataset preparation, training, rendering and
// evaluation without shelling out to the CLI.
package mcp

import (
	"context"
	"fmt"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"splatpipe/internal/artifacts"
	"splatpipe/internal/pipeline"
	"splatpipe/internal/trainer"
)

// Server wraps the MCP SDK server around one Pipeline. Stages run external
// GPU-heavy processes, so only one tool invocation may be active at a time;
// concurrent calls fail fast instead of queueing.
type Server struct {
	MCPServer *sdkmcp.Server
	Pipeline  *pipeline.Pipeline

	mu   sync.Mutex
	busy string // name of the running tool, "" when idle
}

// NewServer creates an MCP server exposing the pipeline tools.
func NewServer(p *pipeline.Pipeline) *Server {
	s := &Server{Pipeline: p}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "splatpipe", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "prepare_dataset",
		Description: "Arrange photos or a video into a training dataset: frame extraction, train/val/test split, COLMAP reconstruction.",
	}, s.handlePrepare)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "train_model",
		Description: "Train a Gaussian Splatting model on a prepared dataset. Blocks until training finishes.",
	}, s.handleTrain)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "render_views",
		Description: "Render train/test views from a trained model checkpoint.",
	}, s.handleRender)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "compute_metrics",
		Description: "Run the external evaluation on rendered views and return PSNR/SSIM/LPIPS per method.",
	}, s.handleMetrics)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_status",
		Description: "Inspect a model directory: checkpoints, Gaussian counts, cameras, rendered sets, evaluation presence.",
	}, s.handleStatus)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_runs",
		Description: "List recent pipeline runs from the run store, newest first.",
	}, s.handleListRuns)
}

// acquire marks the server busy for tool, or reports what it is busy with.
func (s *Server) acquire(tool string) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy != "" {
		return nil, fmt.Errorf("pipeline is busy running %s; retry when it finishes", s.busy)
	}
	s.busy = tool
	return func() {
		s.mu.Lock()
		s.busy = ""
		s.mu.Unlock()
	}, nil
}

// --- Tool input/output types ---

type prepareInput struct {
	Input      string  `json:"input" jsonschema:"path to a video file or a directory of photos"`
	Output     string  `json:"output" jsonschema:"dataset directory to create"`
	Type       string  `json:"type" jsonschema:"input type: photos or video"`
	FPS        int     `json:"fps,omitempty" jsonschema:"frames per second for video extraction (default 2)"`
	TrainRatio float64 `json:"train_ratio,omitempty" jsonschema:"training split ratio (default 0.8)"`
	ValRatio   float64 `json:"val_ratio,omitempty" jsonschema:"validation split ratio (default 0.1)"`
	SkipColmap bool    `json:"skip_colmap,omitempty" jsonschema:"skip the COLMAP reconstruction"`
}

type prepareOutput struct {
	Dataset     string `json:"dataset"`
	Images      int    `json:"images"`
	Train       int    `json:"train"`
	Val         int    `json:"val"`
	Test        int    `json:"test"`
	Registered  int    `json:"registered,omitempty"`
	SparsePts   int    `json:"sparse_points,omitempty"`
	CameraModel string `json:"camera_model,omitempty"`
}

type trainInput struct {
	Dataset    string `json:"dataset" jsonschema:"prepared dataset directory"`
	Model      string `json:"model" jsonschema:"output model directory"`
	Iterations int    `json:"iterations,omitempty" jsonschema:"training iterations (default from config, 30000)"`
	Eval       bool   `json:"eval,omitempty" jsonschema:"hold out a test set during training"`
}

type trainOutput struct {
	Model       string `json:"model"`
	Checkpoints []int  `json:"checkpoints,omitempty"`
}

type renderInput struct {
	Model     string `json:"model" jsonschema:"trained model directory"`
	Iteration int    `json:"iteration,omitempty" jsonschema:"checkpoint iteration (default: latest)"`
	SkipTrain bool   `json:"skip_train,omitempty" jsonschema:"skip rendering the training views"`
	SkipTest  bool   `json:"skip_test,omitempty" jsonschema:"skip rendering the test views"`
}

type renderOutput struct {
	Model      string   `json:"model"`
	RenderSets []string `json:"render_sets,omitempty"`
}

type metricsInput struct {
	Model string `json:"model" jsonschema:"trained model directory with rendered views"`
}

type metricsOutput struct {
	Results map[string]artifacts.Metrics `json:"results"`
}

type statusInput struct {
	Model string `json:"model" jsonschema:"model directory to inspect"`
}

type statusCheckpoint struct {
	Iteration int   `json:"iteration"`
	Gaussians int   `json:"gaussians,omitempty"`
	SizeBytes int64 `json:"size_bytes"`
}

type statusOutput struct {
	Model       string             `json:"model"`
	Checkpoints []statusCheckpoint `json:"checkpoints"`
	Cameras     int                `json:"cameras"`
	HasResults  bool               `json:"has_results"`
	RenderSets  []string           `json:"render_sets,omitempty"`
}

type listRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max runs to return (default 20)"`
}

type runInfo struct {
	ID      int64  `json:"id"`
	Kind    string `json:"kind"`
	Dataset string `json:"dataset,omitempty"`
	Model   string `json:"model,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Started string `json:"started"`
}

type listRunsOutput struct {
	Runs []runInfo `json:"runs"`
}

// --- Handlers ---

func (s *Server) handlePrepare(ctx context.Context, _ *sdkmcp.CallToolRequest, input prepareInput) (*sdkmcp.CallToolResult, prepareOutput, error) {
	release, err := s.acquire("prepare_dataset")
	if err != nil {
		return nil, prepareOutput{}, err
	}
	defer release()

	if input.Type != "photos" && input.Type != "video" {
		return nil, prepareOutput{}, fmt.Errorf("type must be photos or video, got %q", input.Type)
	}
	res, err := s.Pipeline.Prepare(ctx, pipeline.PrepareRequest{
		Input:      input.Input,
		Output:     input.Output,
		Video:      input.Type == "video",
		FPS:        input.FPS,
		TrainRatio: input.TrainRatio,
		ValRatio:   input.ValRatio,
		SkipColmap: input.SkipColmap,
	})
	if err != nil {
		return nil, prepareOutput{}, err
	}
	out := prepareOutput{
		Dataset: res.Dataset,
		Images:  res.Images,
		Train:   res.Train,
		Val:     res.Val,
		Test:    res.Test,
	}
	if res.Model != nil {
		out.Registered = res.Model.Images
		out.SparsePts = res.Model.Points
		out.CameraModel = res.Model.CameraModel
	}
	return nil, out, nil
}

func (s *Server) handleTrain(ctx context.Context, _ *sdkmcp.CallToolRequest, input trainInput) (*sdkmcp.CallToolResult, trainOutput, error) {
	release, err := s.acquire("train_model")
	if err != nil {
		return nil, trainOutput{}, err
	}
	defer release()

	err = s.Pipeline.Train(ctx, trainer.TrainOptions{
		Dataset:    input.Dataset,
		Model:      input.Model,
		Iterations: input.Iterations,
		Eval:       input.Eval,
	})
	if err != nil {
		return nil, trainOutput{}, err
	}

	out := trainOutput{Model: input.Model}
	if summary, err := artifacts.ScanModel(input.Model); err == nil {
		for _, cp := range summary.Checkpoints {
			out.Checkpoints = append(out.Checkpoints, cp.Iteration)
		}
	}
	return nil, out, nil
}

func (s *Server) handleRender(ctx context.Context, _ *sdkmcp.CallToolRequest, input renderInput) (*sdkmcp.CallToolResult, renderOutput, error) {
	release, err := s.acquire("render_views")
	if err != nil {
		return nil, renderOutput{}, err
	}
	defer release()

	err = s.Pipeline.Render(ctx, trainer.RenderOptions{
		Model:     input.Model,
		Iteration: input.Iteration,
		SkipTrain: input.SkipTrain,
		SkipTest:  input.SkipTest,
	})
	if err != nil {
		return nil, renderOutput{}, err
	}

	out := renderOutput{Model: input.Model}
	if summary, err := artifacts.ScanModel(input.Model); err == nil {
		out.RenderSets = summary.RenderSets
	}
	return nil, out, nil
}

func (s *Server) handleMetrics(ctx context.Context, _ *sdkmcp.CallToolRequest, input metricsInput) (*sdkmcp.CallToolResult, metricsOutput, error) {
	release, err := s.acquire("compute_metrics")
	if err != nil {
		return nil, metricsOutput{}, err
	}
	defer release()

	res, err := s.Pipeline.Metrics(ctx, input.Model)
	if err != nil {
		return nil, metricsOutput{}, err
	}
	return nil, metricsOutput{Results: res}, nil
}

func (s *Server) handleStatus(_ context.Context, _ *sdkmcp.CallToolRequest, input statusInput) (*sdkmcp.CallToolResult, statusOutput, error) {
	summary, err := artifacts.ScanModel(input.Model)
	if err != nil {
		return nil, statusOutput{}, err
	}
	out := statusOutput{
		Model:      summary.Dir,
		Cameras:    summary.Cameras,
		HasResults: summary.HasResults,
		RenderSets: summary.RenderSets,
	}
	for _, cp := range summary.Checkpoints {
		out.Checkpoints = append(out.Checkpoints, statusCheckpoint{
			Iteration: cp.Iteration,
			Gaussians: cp.Gaussians,
			SizeBytes: cp.SizeBytes,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListRuns(_ context.Context, _ *sdkmcp.CallToolRequest, input listRunsInput) (*sdkmcp.CallToolResult, listRunsOutput, error) {
	if s.Pipeline.Store == nil {
		return nil, listRunsOutput{}, fmt.Errorf("run store is not configured")
	}
	runs, err := s.Pipeline.Store.RecentRuns(input.Limit)
	if err != nil {
		return nil, listRunsOutput{}, err
	}
	out := listRunsOutput{}
	for _, r := range runs {
		out.Runs = append(out.Runs, runInfo{
			ID:      r.ID,
			Kind:    r.Kind,
			Dataset: r.DatasetPath,
			Model:   r.ModelPath,
			Status:  r.Status,
			Error:   r.Error,
			Started: r.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return nil, out, nil
}
