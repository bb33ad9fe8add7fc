package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tsawler/finsight"
)

var (
	configPath string
	dataDir    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "Question answering over PDF financial disclosure documents",
	Long: `finsight ingests PDF disclosure documents, extracts their text and
financial tables, and answers questions about them with cited,
confidence-tiered responses.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.finsight/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.finsight/data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// newEngine assembles an Engine from the config file, environment and flags.
func newEngine() (*finsight.Engine, *Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	opts := []finsight.Option{
		finsight.WithDataDir(cfg.DataDir),
		finsight.WithLLM(cfg.llmConfig()),
		finsight.WithLogger(log),
	}
	if cfg.OCR {
		opts = append(opts, finsight.WithOCR())
	}

	engine, err := finsight.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	return engine, cfg, nil
}
