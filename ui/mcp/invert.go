package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	domainCache "github.com/AzielCF/az-invert/domains/cache"
	domainInvert "github.com/AzielCF/az-invert/domains/invert"
	pkgError "github.com/AzielCF/az-invert/pkg/error"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type InvertHandler struct {
	invertService domainInvert.IInvertUsecase
	cacheService  domainCache.ICacheUsecase
}

func InitMcpInvert(invertService domainInvert.IInvertUsecase, cacheService domainCache.ICacheUsecase) *InvertHandler {
	return &InvertHandler{
		invertService: invertService,
		cacheService:  cacheService,
	}
}

func (h *InvertHandler) AddInvertTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolInvertImage(), h.handleInvertImage)
	mcpServer.AddTool(h.toolCacheStats(), h.handleCacheStats)
}

func (h *InvertHandler) toolInvertImage() mcp.Tool {
	return mcp.NewTool(
		"invert_image",
		mcp.WithDescription("Upload an image (PNG, JPEG or GIF) and get the black/white inverted version. Results are cached by content. "+
			"The returned original_url and processed_url are paths on the REST server (az-invert rest), not on this MCP server."),
		mcp.WithTitleAnnotation("Invert Image"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("filename",
			mcp.Description("Original file name, used for the stored copy. Must end in .png, .jpg, .jpeg or .gif."),
			mcp.Required(),
		),
		mcp.WithString("image_base64",
			mcp.Description("The image bytes, standard base64 encoded."),
			mcp.Required(),
		),
	)
}

func (h *InvertHandler) handleInvertImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := request.RequireString("filename")
	if err != nil {
		return nil, err
	}
	encoded, err := request.RequireString("image_base64")
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError("image_base64 is not valid base64"), nil
	}

	resp, err := h.invertService.Process(ctx, domainInvert.InvertRequest{Filename: filename, Data: data})
	if err != nil {
		var genericErr pkgError.GenericError
		if errors.As(err, &genericErr) && genericErr.StatusCode() < 500 {
			return mcp.NewToolResultError(genericErr.Error()), nil
		}
		return nil, err
	}

	fallback := fmt.Sprintf("Processed image available on the REST server at %s (original at %s)", resp.ProcessedURL, resp.OriginalURL)
	if resp.CacheHit {
		fallback += ", served from cache"
	}
	return mcp.NewToolResultStructured(resp, fallback), nil
}

func (h *InvertHandler) toolCacheStats() mcp.Tool {
	return mcp.NewTool(
		"cache_stats",
		mcp.WithDescription("Report how many originals and processed images are stored and how much space they use."),
		mcp.WithTitleAnnotation("Cache Stats"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *InvertHandler) handleCacheStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.cacheService.GetStats(ctx)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("%d originals and %d processed images using %s", stats.Originals, stats.Artifacts, stats.HumanSize)
	return mcp.NewToolResultStructured(stats, fallback), nil
}
