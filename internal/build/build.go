// Package build runs the offline batch pipeline: parse the dictionary
// source files, validate the corpus, persist the store, and derive the
// export artifacts. The pipeline is single-threaded and all-or-nothing;
// a failing step leaves the previously published store untouched.
package build

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sveinbjornt/ensk.is/internal/dictparse"
	"github.com/sveinbjornt/ensk.is/internal/exports"
	"github.com/sveinbjornt/ensk.is/internal/ipa"
	"github.com/sveinbjornt/ensk.is/internal/models"
	"github.com/sveinbjornt/ensk.is/internal/store"
	"github.com/sveinbjornt/ensk.is/internal/validate"
)

// Options configures a pipeline run.
type Options struct {
	SourceDir  string // directory of .txt source files
	StorePath  string // SQLite store to (re)build
	ExportsDir string // artifact directory; empty disables exports
	IPAUKPath  string // optional word→IPA table, UK variant
	IPAUSPath  string // optional word→IPA table, US variant

	// Now supplies the generated_at metadata value. Nil means
	// time.Now; tests pin it for reproducible output.
	Now func() time.Time
}

// Run executes the pipeline. Validation problems are returned as a
// validate.Violations error carrying the complete list.
func Run(opts Options, logger *slog.Logger) error {
	start := time.Now()

	entries, err := dictparse.Dir(opts.SourceDir)
	if err != nil {
		return err
	}
	logger.Info("sources parsed",
		slog.String("dir", opts.SourceDir),
		slog.Int("entries", len(entries)))

	if err := validate.Corpus(entries); err != nil {
		return err
	}
	logger.Info("corpus validated", slog.Int("entries", len(entries)))

	if err := enrichIPA(entries, opts, logger); err != nil {
		return err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	meta := map[string]string{
		store.MetaGeneratedAt: now().UTC().Format(time.RFC3339),
	}
	if err := store.Build(opts.StorePath, entries, meta); err != nil {
		return err
	}
	logger.Info("store written", slog.String("path", opts.StorePath))

	if opts.ExportsDir != "" {
		sorted, err := publishedOrder(opts.StorePath)
		if err != nil {
			return err
		}
		if err := exports.WriteAll(opts.ExportsDir, sorted, opts.StorePath); err != nil {
			return err
		}
		logger.Info("exports written", slog.String("dir", opts.ExportsDir))
	}

	logger.Info("build finished",
		slog.Int("entries", len(entries)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// enrichIPA fills missing phonetic transcriptions from the configured
// tables. Transcriptions present in the source files win.
func enrichIPA(entries []models.DictionaryEntry, opts Options, logger *slog.Logger) error {
	uk, err := loadTable(ipa.UK, opts.IPAUKPath)
	if err != nil {
		return err
	}
	us, err := loadTable(ipa.US, opts.IPAUSPath)
	if err != nil {
		return err
	}
	if uk == nil && us == nil {
		return nil
	}

	filled := 0
	for i := range entries {
		e := &entries[i]
		if e.IPAUK == "" {
			if s := uk.Lookup(e.Headword); s != "" {
				e.IPAUK = s
				filled++
			}
		}
		if e.IPAUS == "" {
			if s := us.Lookup(e.Headword); s != "" {
				e.IPAUS = s
				filled++
			}
		}
	}
	logger.Info("IPA enrichment done", slog.Int("filled", filled))
	return nil
}

func loadTable(lang ipa.Lang, path string) (*ipa.Table, error) {
	if path == "" {
		return nil, nil
	}
	return ipa.LoadTable(lang, path)
}

// publishedOrder reads the freshly built store back so the exports use
// the exact publication ordering.
func publishedOrder(storePath string) ([]models.DictionaryEntry, error) {
	r, err := store.Open(storePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := r.AllEntries()
	if err != nil {
		return nil, fmt.Errorf("build: read back store: %w", err)
	}
	return out, nil
}

// Verify parses and validates the sources without touching the store.
// It is the standalone CI gate.
func Verify(sourceDir string, logger *slog.Logger) error {
	entries, err := dictparse.Dir(sourceDir)
	if err != nil {
		return err
	}
	logger.Info("sources parsed", slog.Int("entries", len(entries)))
	return validate.Corpus(entries)
}
