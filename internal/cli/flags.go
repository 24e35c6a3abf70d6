package cli

import (
	"github.com/spf13/pflag"

	"github.com/daryltucker/llm-matrix/internal/config"
)

// inputFlags are the overrides shared by commands that read the input files.
type inputFlags struct {
	providersFile string
	questionsFile string
	outputDir     string
}

func (f *inputFlags) bind(fs *pflag.FlagSet, withQuestions bool) {
	fs.StringVarP(&f.providersFile, "providers", "P", "", "Path to providers.yaml (overrides config)")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "Export directory for JSONL/CSV output (overrides config)")
	if withQuestions {
		fs.StringVarP(&f.questionsFile, "questions-file", "Q", "", "Path to questions.yaml (overrides config)")
	}
}

func (f *inputFlags) apply(cfg *config.Config) {
	if f.providersFile != "" {
		cfg.ProvidersFile = f.providersFile
	}
	if f.questionsFile != "" {
		cfg.QuestionsFile = f.questionsFile
	}
	if f.outputDir != "" {
		cfg.ExportDir = f.outputDir
	}
}
