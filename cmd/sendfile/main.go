package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/sendfile/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "sendfile",
	Short:   "Static file server with conditional GET and byte ranges",
	Long: `sendfile serves files from a directory over HTTP with ETag and
Last-Modified validation, single and multipart byte ranges, index files
and extension fallback.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		files, _ := cmd.Flags().GetStringSlice("config")
		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("root", "", "directory to serve (default: ./public, env: SENDFILE_SEND_ROOT)")
	rootCmd.PersistentFlags().String("dotfiles", "", "dotfile policy: allow, deny, ignore (env: SENDFILE_SEND_DOTFILES)")
	rootCmd.PersistentFlags().String("index", "", "index files, comma separated, or false (default: index.html)")
	rootCmd.PersistentFlags().String("extensions", "", "fallback extensions, comma separated (env: SENDFILE_SEND_EXTENSIONS)")
	rootCmd.PersistentFlags().String("storage", "", "storage backend: os, s3 (env: SENDFILE_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("bucket", "", "S3 bucket for the s3 backend (env: SENDFILE_STORAGE_BUCKET)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: SENDFILE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
