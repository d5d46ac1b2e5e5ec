/*
Copyright © 2025 teenai
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teenai/paperchat-be/config"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/storage"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "paperchat-be",
	Short: "Backend for the paper chat service",
	Long: `paperchat-be indexes uploaded PDF papers into a vector database and
answers questions about them, either by retrieving the most relevant
passages or by summarizing a whole document. Run "paperchat-be start"
to serve the HTTP API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.yaml", "config file")
}

// initConfig reads ENV variables so flags can be overridden per deployment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newAIService builds the configured AI backend. Gemini rotates through its
// API keys, OpenAI also covers any OpenAI-compatible local endpoint.
func newAIService(cfg *config.Config) (service.AIService, error) {
	switch cfg.AIProvider {
	case "gemini":
		return service.NewGeminiService(cfg.Gemini.APIKeys, cfg.Gemini.Model, cfg.Gemini.EmbedModel)
	case "openai":
		return service.NewOpenAIService(cfg.OpenAI.Endpoint, cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.EmbedModel), nil
	default:
		return nil, fmt.Errorf("unknown ai provider: %q", cfg.AIProvider)
	}
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return storage.NewLocal(cfg.UploadDir)
	case "minio":
		return storage.NewMinIO(cfg.Storage.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}
