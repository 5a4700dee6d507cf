package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/locate"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

type ReadDirectoryRequest struct {
	Path string `json:"path"`
}

type DirEntry struct {
	Name      string `json:"name"`
	Type      string `json:"type"` // "directory" | "file"
	Path      string `json:"path"`
	Extension string `json:"extension,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

type FindDocumentsRequest struct {
	Pattern  string `json:"pattern"`
	RootPath string `json:"root_path"`
}

type ConvertRequest struct {
	InputPath    string `json:"input_path"`
	OutputFormat string `json:"output_format"`
}

type SaveRequest struct {
	InputPath    string `json:"input_path"`
	OutputPath   string `json:"output_path"`
	OutputFormat string `json:"output_format"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (t *Tools) policy() (*roots.Policy, error) {
	p := t.store.Load()
	if p == nil {
		return nil, common.ErrNoRoots
	}
	return p, nil
}

func (t *Tools) withRequest(ctx context.Context, op string) context.Context {
	ctx = common.WithOperation(ctx, op)
	ctx, _ = common.EnsureRequestID(ctx)
	return ctx
}

func (t *Tools) listRoots(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.policy()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t.pipe.ListRoots(p))
}

func (t *Tools) readDirectory(_ context.Context, _ mcp.CallToolRequest, args ReadDirectoryRequest) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(args.Path) == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	p, err := t.policy()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := p.Authorize(args.Path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("%q is not a directory", args.Path)), nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.logger.Warn("read directory failed", "path", dir, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("cannot read %q: %v", args.Path, err)), nil
	}

	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		ent := DirEntry{Name: e.Name(), Type: "file", Path: filepath.Join(dir, e.Name())}
		if e.IsDir() {
			ent.Type = "directory"
		} else if info, err := e.Info(); err == nil {
			ent.Extension = strings.ToLower(filepath.Ext(e.Name()))
			ent.Size = info.Size()
		}
		out = append(out, ent)
	}
	// directories first, then files, each by name
	slices.SortStableFunc(out, func(a, b DirEntry) int {
		if a.Type != b.Type {
			if a.Type == "directory" {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return jsonResult(out)
}

func (t *Tools) findDocuments(ctx context.Context, _ mcp.CallToolRequest, args FindDocumentsRequest) (*mcp.CallToolResult, error) {
	p, err := t.policy()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.RootPath != "" {
		root, err := roots.Resolve(args.RootPath)
		if err != nil || !slices.Contains(p.Roots(), root) {
			return mcp.NewToolResultError(fmt.Sprintf("path %q is not an allowed root", args.RootPath)), nil
		}
		if p, err = roots.NewPolicy([]string{root}, t.logger); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	ctx = t.withRequest(ctx, "find")
	out := []locate.Match{}
	for m := range locate.NewLocator(p, t.logger).Find(ctx, args.Pattern) {
		out = append(out, m)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (t *Tools) convert(ctx context.Context, op string, req pipeline.Request) (*pipeline.Result, error) {
	p, err := t.policy()
	if err != nil {
		return nil, err
	}
	if req.Format == "" {
		req.Format = "markdown"
	}
	return t.pipe.Convert(t.withRequest(ctx, op), p, req)
}

func (t *Tools) convertDocument(ctx context.Context, _ mcp.CallToolRequest, args ConvertRequest) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(args.InputPath) == "" {
		return mcp.NewToolResultError("input_path is required"), nil
	}
	res, err := t.convert(ctx, "convert", pipeline.Request{Path: args.InputPath, Format: args.OutputFormat})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Output), nil
}

func (t *Tools) saveConversion(ctx context.Context, _ mcp.CallToolRequest, args SaveRequest) (*mcp.CallToolResult, error) {
	if strings.TrimSpace(args.InputPath) == "" || strings.TrimSpace(args.OutputPath) == "" {
		return mcp.NewToolResultError("input_path and output_path are required"), nil
	}
	res, err := t.convert(ctx, "save", pipeline.Request{
		Path:        args.InputPath,
		Format:      args.OutputFormat,
		Destination: args.OutputPath,
	})
	if err != nil && res != nil && errors.Is(err, common.ErrWrite) {
		// the conversion itself succeeded; hand back the output
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(err.Error()), mcp.NewTextContent(res.Output)},
			IsError: true,
		}, nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Successfully converted and saved to %s", res.SavedTo)), nil
}
