package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ascod-toast-classifier/internal/api"
	"github.com/ascod-toast-classifier/internal/config"
	"github.com/ascod-toast-classifier/internal/domain"
	"github.com/ascod-toast-classifier/internal/logging"
	"github.com/ascod-toast-classifier/internal/service"
	"github.com/ascod-toast-classifier/internal/setup"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "ascod-classifier",
		Short:        "ASCOD/TOAST stroke etiology classification service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default: ./config.yaml, ./config/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(encodeCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(mcpConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func encodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the clinical narrative for a structured JSON payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			analyzer, err := buildCLI()
			if err != nil {
				return err
			}
			payload, err := readPayload(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			text, err := analyzer.Encode(payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "-", "JSON payload file, - for stdin")
	return cmd
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one JSON payload and print the response body",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			analyzer, err := buildCLI()
			if err != nil {
				return err
			}
			payload, err := readPayload(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := analyzer.Analyze(ctx, payload)
			if err != nil {
				_ = printJSON(cmd.OutOrStdout(), domain.NewErrorResponse(err))
				return err
			}
			return printJSON(cmd.OutOrStdout(), domain.NewAnalyzeResponse(result))
		},
	}
	cmd.Flags().StringP("file", "f", "-", "JSON payload file, - for stdin")
	return cmd
}

func mcpConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-config",
		Short: "Manage the MCP server entry in a desktop MCP client config",
	}
	cmd.PersistentFlags().String("client-config", "", "client config file (default: platform location)")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Add or update the stdio MCP server entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientConfig, _ := cmd.Flags().GetString("client-config")
			binary, _ := cmd.Flags().GetString("binary")
			envPairs, _ := cmd.Flags().GetStringToString("env")

			path, err := setup.Register(setup.Options{
				ConfigPath: clientConfig,
				BinaryPath: binary,
				Env:        envPairs,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\n", setup.ServerName, path)
			return nil
		},
	}
	registerCmd.Flags().String("binary", "", "path to the MCP server binary (default: search PATH and ./bin, ./build)")
	registerCmd.Flags().StringToString("env", nil, "environment for the server process, e.g. --env GEMINI_API_KEY=...")

	unregisterCmd := &cobra.Command{
		Use:   "unregister",
		Short: "Remove the MCP server entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientConfig, _ := cmd.Flags().GetString("client-config")
			removed, err := setup.Unregister(clientConfig)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not registered\n", setup.ServerName)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", setup.ServerName)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the MCP server registration",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientConfig, _ := cmd.Flags().GetString("client-config")
			status, err := setup.GetStatus(clientConfig)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}

	cmd.AddCommand(registerCmd, unregisterCmd, statusCmd)
	return cmd
}

func runServer() error {
	configManager, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configManager.GetConfig()
	logger := logging.New(cfg.Logging)

	analyzer, err := service.BuildAnalyzer(cfg.Classifier, logger)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
	}).Info("Starting ASCOD/TOAST classification server")

	server := api.NewServer(configManager, analyzer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func loadConfig() (*config.Manager, error) {
	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	configManager, err := config.NewManager(opts...)
	if err != nil {
		return nil, err
	}
	if err := configManager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return configManager, nil
}

// buildCLI wires the pipeline for one-shot commands. Logs go to stderr so
// stdout carries only the command output.
func buildCLI() (*service.AnalyzerService, error) {
	configManager, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg := configManager.GetConfig()
	loggingCfg := cfg.Logging
	loggingCfg.Output = "stderr"
	logger := logging.New(loggingCfg)

	return service.BuildAnalyzer(cfg.Classifier, logger)
}

func readPayload(file string, stdin io.Reader) (map[string]interface{}, error) {
	var data []byte
	var err error
	if file == "" || file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var payload map[string]interface{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return payload, nil
}

func printJSON(w io.Writer, body interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(body)
}
