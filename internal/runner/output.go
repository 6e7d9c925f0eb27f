package runner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cctools/cctest/internal/classify"
	apperrors "github.com/cctools/cctest/internal/errors"
)

// persist writes the form XML and raw output files requested in opts.
func (r *Runner) persist(o *classify.Outcome, opts Options) error {
	if opts.OutputXMLPath != "" {
		if o.FormXML == "" {
			r.Progress.Warnf("%s: no form XML captured; %s not written", o.Fixture, opts.OutputXMLPath)
		} else if err := writeFile(opts.OutputXMLPath, o.FormXML+"\n"); err != nil {
			return apperrors.FileNotWritable(opts.OutputXMLPath, err)
		} else {
			r.Progress.Infof("%s: form XML written to %s", o.Fixture, opts.OutputXMLPath)
		}
	}
	if opts.RawOutputPath != "" {
		if err := writeFile(opts.RawOutputPath, o.RawOutput); err != nil {
			return apperrors.FileNotWritable(opts.RawOutputPath, err)
		}
		r.Progress.Debugf("%s: raw output written to %s", o.Fixture, opts.RawOutputPath)
	}
	return nil
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// PathFor names a per-fixture output file inside dir: the fixture file's
// base name with ext, e.g. tests/intake.yaml -> dir/intake.xml.
func PathFor(dir, fixturePath, ext string) string {
	base := filepath.Base(fixturePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+ext)
}
