// CLI for structural analysis and the debug visualization server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/beatlab/structuralmap/pkg/config"
	"github.com/beatlab/structuralmap/pkg/pipeline"
	"github.com/beatlab/structuralmap/pkg/server"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "app",
	Short: "Structural analysis and visualization",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <audio-file-or-directory>",
	Short: "Analyze audio files and write StructuralMap JSON sidecars",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		template, _ := cmd.Flags().GetString("template")
		return runAnalyze(args[0], force, template)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the debug visualization server on :8080",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.RunWithDecoder(decodeAudioFile)
	},
}

func init() {
	analyzeCmd.Flags().BoolP("force", "f", false, "Force re-analysis even if JSON exists")
	analyzeCmd.Flags().String("template", "default", "Genre preset: default/jazz/rock/classical/electronic/acoustic")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAnalyze(target string, force bool, template string) error {
	cfg, err := config.WithPreset(template)
	if err != nil {
		return err
	}
	p := pipeline.New(cfg)

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return analyzeFile(p, target, force)
	}

	return filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isAudioFile(strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		if analyzeErr := analyzeFile(p, path, force); analyzeErr != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, analyzeErr)
		}
		return nil
	})
}

func analyzeFile(p *pipeline.Pipeline, path string, force bool) error {
	sidecar := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	if !force {
		if _, err := os.Stat(sidecar); err == nil {
			fmt.Printf("%s: sidecar exists, skipping\n", path)
			return nil
		}
	}

	pcm, err := decodeAudioFile(path)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	sm, err := p.Run(context.Background(), pcm, func(percent int) {
		fmt.Printf("%s: %d%%\n", path, percent)
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	data, err := json.MarshalIndent(sm, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(sidecar, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	fmt.Printf("%s: wrote %s (%d sections)\n", path, sidecar, len(sm.Sections))
	return nil
}

func isAudioFile(ext string) bool {
	switch ext {
	case ".mp3":
		return true
	default:
		return false
	}
}
