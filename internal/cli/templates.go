package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daryltucker/llm-matrix/internal/assets"
	"github.com/daryltucker/llm-matrix/internal/output"
)

var overwriteTemplates bool

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage starter configuration files",
}

var installCmd = &cobra.Command{
	Use:   "install [dir]",
	Short: "Write example llm_matrix.yaml, providers.yaml and questions.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetDir := "."
		if len(args) == 1 {
			targetDir = args[0]
		}
		output.Logger.Info("Installing templates...", "target", targetDir)

		if err := os.MkdirAll(targetDir, 0755); err != nil {
			return fmt.Errorf("failed to create target directory %s: %w", targetDir, err)
		}

		count, err := installTemplates(targetDir, overwriteTemplates)
		if err != nil {
			return err
		}

		output.Logger.Info("Installation Complete", "total_files", count)
		return nil
	},
}

// installTemplates copies the embedded templates into dir and returns how
// many files were written. Existing files are kept unless overwrite is set.
func installTemplates(dir string, overwrite bool) (int, error) {
	entries, err := fs.ReadDir(assets.Templates, "templates")
	if err != nil {
		return 0, fmt.Errorf("failed to read embedded templates: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		targetPath := filepath.Join(dir, entry.Name())
		if !overwrite {
			if _, err := os.Stat(targetPath); err == nil {
				output.Logger.Warn("Skipping existing file", "path", targetPath)
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return count, fmt.Errorf("failed to stat %s: %w", targetPath, err)
			}
		}

		content, err := fs.ReadFile(assets.Templates, "templates/"+entry.Name())
		if err != nil {
			output.Logger.Error("Failed to read embedded file", "file", entry.Name(), "error", err)
			continue
		}

		if err := os.WriteFile(targetPath, content, 0644); err != nil {
			output.Logger.Error("Failed to write to target", "path", targetPath, "error", err)
			continue
		}

		output.Logger.Info("Installed template", "name", entry.Name())
		count++
	}
	return count, nil
}

func init() {
	templatesCmd.AddCommand(installCmd)
	rootCmd.AddCommand(templatesCmd)
	installCmd.Flags().BoolVar(&overwriteTemplates, "force", false, "Overwrite existing files")
}
