package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize api-explorer with default configuration and directory structure",
	Long: `Creates the default configuration file (config.yaml) and data directory structure.

This command will:
  - Create config.yaml with default settings
  - Create data/ directory for file storage
  - Create data/credentials/, data/vault/, data/bookmarks/ and data/usage/

If config.yaml already exists, it will not be overwritten unless --force is used.`,
	RunE: runInit,
}

var (
	initForce bool
	initPath  string
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
	initCmd.Flags().StringVarP(&initPath, "path", "p", ".", "Path where to initialize (default: current directory)")
}

func runInit(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(initPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	configFile := filepath.Join(absPath, "config.yaml")
	dataDir := filepath.Join(absPath, "data")

	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("config.yaml already exists. Use --force to overwrite")
	}

	dirs := []string{
		dataDir,
		filepath.Join(dataDir, "credentials"),
		filepath.Join(dataDir, "vault"),
		filepath.Join(dataDir, "bookmarks"),
		filepath.Join(dataDir, "usage"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		fmt.Printf("Created directory: %s\n", dir)
	}

	config := map[string]interface{}{
		"server": map[string]interface{}{
			"port": 5173,
			"host": "127.0.0.1",
		},
		"storage": map[string]interface{}{
			"type": "file",
			"path": "./data",
		},
		"execution": map[string]interface{}{
			"timeoutMs": 30000,
			"useProxy":  false,
			"proxyBase": "",
		},
		"events": map[string]interface{}{
			"maxEvents": 500,
		},
		"logging": map[string]interface{}{
			"level":  "info",
			"format": "json",
		},
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	header := `# API-Explorer Configuration

`
	configData := []byte(header + string(data))

	if err := os.WriteFile(configFile, configData, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	fmt.Printf("Created config file: %s\n", configFile)

	fmt.Println()
	fmt.Println("Initialization complete! You can now start the server with:")
	fmt.Println()
	fmt.Printf("  cd %s\n", absPath)
	fmt.Println("  api-explorer serve")
	fmt.Println()

	return nil
}
