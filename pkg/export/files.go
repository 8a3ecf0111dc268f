package export

import (
	"os"
	"path/filepath"

	ferrors "github.com/r3d91ll/spectrafit/pkg/errors"
	"github.com/r3d91ll/spectrafit/pkg/sampler"
)

// Output file names written by WriteRun.
const (
	ChainFile   = "chain.csv"
	SummaryFile = "summary.csv"
	RunFile     = "run.json"
)

// Paths lists the files produced by WriteRun.
type Paths struct {
	Chain   string
	Summary string
	Run     string
}

// WriteRun writes the chain, its marginal summary and the run record into
// dir, creating it if needed. If writeChain is false only the summary and
// the run record are written.
func WriteRun(dir string, s *sampler.Sampler, rh *RunHash, writeChain bool) (Paths, error) {
	var paths Paths
	if s == nil || s.Chain() == nil || s.Chain().Len() == 0 {
		return paths, ferrors.New(ferrors.ErrExportNoData, ferrors.CategoryIO, "sampler has no recorded steps")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return paths, ferrors.WrapIO(err, ferrors.ErrIOWriteFailed, "failed to create output directory").
			WithContext("path", dir)
	}

	labels := s.Labels()
	chain := s.Chain()

	if writeChain {
		paths.Chain = filepath.Join(dir, ChainFile)
		if err := writeFile(paths.Chain, func(f *os.File) error {
			return ExportChainToCSV(f, chain, labels, nil)
		}); err != nil {
			return paths, err
		}
	}

	summaries, err := Summarize(chain.Flat(), labels)
	if err != nil {
		return paths, err
	}
	paths.Summary = filepath.Join(dir, SummaryFile)
	if err := writeFile(paths.Summary, func(f *os.File) error {
		return WriteSummaryCSV(f, summaries)
	}); err != nil {
		return paths, err
	}

	if rh != nil {
		data, err := rh.ToJSON()
		if err != nil {
			return paths, ferrors.WrapIO(err, ferrors.ErrIOWriteFailed, "failed to encode run record")
		}
		paths.Run = filepath.Join(dir, RunFile)
		if err := os.WriteFile(paths.Run, []byte(data+"\n"), 0o644); err != nil {
			return paths, ferrors.WrapIO(err, ferrors.ErrIOWriteFailed, "failed to write run record").
				WithContext("path", paths.Run)
		}
	}
	return paths, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return ferrors.WrapIO(err, ferrors.ErrIOWriteFailed, "failed to create file").WithContext("path", path)
	}
	if err := write(f); err != nil {
		f.Close()
		if _, ok := ferrors.AsFitError(err); ok {
			return err
		}
		return ferrors.WrapIO(err, ferrors.ErrIOWriteFailed, "failed to write file").WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return ferrors.WrapIO(err, ferrors.ErrIOWriteFailed, "failed to close file").WithContext("path", path)
	}
	return nil
}
