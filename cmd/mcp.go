package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	coreconfig "github.com/AzielCF/az-invert/core/config"
	"github.com/AzielCF/az-invert/ui/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the image inverter MCP server using SSE",
	Long:  `Start an MCP (Model Context Protocol) server using Server-Sent Events (SSE) transport, exposing the invert_image and cache_stats tools to AI agents.`,
	Run:   mcpServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("mcp-port", "8080", "Port for the SSE MCP server")
	mcpCmd.Flags().String("host", "localhost", "Host for the SSE MCP server")
	_ = viper.BindPFlag(coreconfig.KeyMCPPort, mcpCmd.Flags().Lookup("mcp-port"))
	_ = viper.BindPFlag(coreconfig.KeyMCPHost, mcpCmd.Flags().Lookup("host"))
}

func mcpServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	mcpServer := server.NewMCPServer(
		"Az-Invert MCP Server",
		cfg.App.Version,
		server.WithToolCapabilities(true),
	)

	invertHandler := mcp.InitMcpInvert(invertUsecase, cacheUsecase)
	invertHandler.AddInvertTools(mcpServer)

	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s:%s", cfg.MCP.Host, cfg.MCP.Port)),
		server.WithKeepAlive(true),
	)

	addr := fmt.Sprintf("%s:%s", cfg.MCP.Host, cfg.MCP.Port)
	logrus.Printf("Starting Az-Invert MCP SSE server on %s", addr)
	logrus.Printf("SSE endpoint: http://%s/sse", addr)
	logrus.Printf("Message endpoint: http://%s/message", addr)

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[MCP] Reception of termination signal, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	if err := sseServer.Start(addr); err != nil {
		logrus.Fatalf("Failed to start SSE server: %v", err)
	}
}
