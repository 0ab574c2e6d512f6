package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/xlandscape/catchflow/internal/catchment"
)

// errSentinelName is the file the external solver is expected to create
// when it hits a numerical failure, mirroring the TOXSWA ".ERR" sentinel.
const errSentinelName = "solver.ERR"

// ReferenceDriver is a reference Driver implementation that shells out to
// an external solver binary per reach, with init/run/cleanup exactly as
// specified in section 4.7: idempotent init, timestep-halving retry
// against an error sentinel, and flux-file cleanup gated by
// DeleteUpstreamFluxFiles.
type ReferenceDriver struct {
	Cfg        Config
	SolverPath string // path to the external solver executable

	// Env, if non-nil, overrides the environment passed to the solver
	// process. A restricted environment (e.g. an empty PATH) must still
	// work; the default is the minimal []string{} (no inherited
	// variables), matching the "must tolerate a restricted environment"
	// requirement.
	Env []string
}

// NewReferenceDriver validates cfg and returns a ready ReferenceDriver.
func NewReferenceDriver(cfg Config, solverPath string) (*ReferenceDriver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ReferenceDriver{Cfg: cfg, SolverPath: solverPath, Env: []string{}}, nil
}

func (d *ReferenceDriver) reachDir(id catchment.ReachID) string {
	return filepath.Join(d.Cfg.WorkDir, string(id))
}

func (d *ReferenceDriver) staticInputPaths(id catchment.ReachID) (hyd, txw, mfl string) {
	dir := d.reachDir(id)
	return filepath.Join(dir, "reach.hyd"), filepath.Join(dir, "reach.txw"), filepath.Join(dir, "reach.mfl")
}

func (d *ReferenceDriver) upstreamFluxPath(id catchment.ReachID) string {
	return filepath.Join(d.reachDir(id), "reach.mfu")
}

func (d *ReferenceDriver) resultPath(id catchment.ReachID) string {
	return filepath.Join(d.reachDir(id), "result.csv")
}

func (d *ReferenceDriver) rawOutputPath(id catchment.ReachID) string {
	return filepath.Join(d.reachDir(id), "solver_raw.out")
}

var hydTemplate = template.Must(template.New("hyd").Parse(
	"# hydrology for {{.ID}}\nlength={{.Attributes.Length}}\nwidth={{.Attributes.Width}}\nbankSlope={{.Attributes.BankSlope}}\n"))

var txwTemplate = template.Must(template.New("txw").Parse(
	"# water body geometry for {{.ID}}\nsuspendedSolids={{.Attributes.SuspendedSolids}}\norganicMatter={{.Attributes.OrganicMatter}}\nbulkDensity={{.Attributes.BulkDensity}}\nporosity={{.Attributes.Porosity}}\n"))

var mflTemplate = template.Must(template.New("mfl").Parse(
	"# mass-flow schedule for {{.ID}}\nnSegments={{.Attributes.NSegments}}\nhasUpstreamLoading={{.HasUpstreamLoading}}\n"))

// Init prepares the per-reach static input files. See Driver.Init.
func (d *ReferenceDriver) Init(ctx context.Context, snap catchment.Snapshot) (catchment.ReportStatus, error) {
	if err := os.MkdirAll(d.reachDir(snap.ID), 0755); err != nil {
		return catchment.StatusError, newDriverError(string(snap.ID), "init", err)
	}

	if snap.Skip {
		if snap.MassOutflowFileNeeded {
			if err := writeDummyMfu(d.upstreamFluxPath(snap.ID)); err != nil {
				return catchment.StatusError, newDriverError(string(snap.ID), "init", err)
			}
		}
		return catchment.StatusSkipReach, nil
	}

	hyd, txw, mfl := d.staticInputPaths(snap.ID)
	if fileExistsNonEmpty(hyd) && fileExistsNonEmpty(txw) && fileExistsNonEmpty(mfl) {
		return catchment.StatusSkipExist, nil
	}

	if err := renderTemplate(hydTemplate, hyd, snap); err != nil {
		return catchment.StatusError, newDriverError(string(snap.ID), "init", err)
	}
	if err := renderTemplate(txwTemplate, txw, snap); err != nil {
		return catchment.StatusError, newDriverError(string(snap.ID), "init", err)
	}
	if err := renderTemplate(mflTemplate, mfl, snap); err != nil {
		return catchment.StatusError, newDriverError(string(snap.ID), "init", err)
	}
	return catchment.StatusOk, nil
}

// Run invokes the external solver, retrying at a halved timestep on
// numerical failure. See Driver.Run.
func (d *ReferenceDriver) Run(ctx context.Context, snap catchment.Snapshot) (Report, error) {
	if snap.Skip {
		if err := writeZeroValuedResult(d.resultPath(snap.ID)); err != nil {
			return Report{}, newDriverError(string(snap.ID), "run", err)
		}
		return Report{Status: catchment.StatusSkipReach}, nil
	}

	resultPath := d.resultPath(snap.ID)
	if fileExistsNonEmpty(resultPath) {
		return Report{Status: catchment.StatusSkipExist}, nil
	}

	timeStep := d.Cfg.TimeStepDefault
	if timeStep <= 0 {
		timeStep = d.Cfg.MassFlowTimestepParam
	}
	minTimeStep := d.Cfg.TimeStepMin
	if minTimeStep <= 0 {
		minTimeStep = d.Cfg.MinMassFlowTimestep
	}

	attempts := 0
	for {
		attempts++
		failed, runErr := d.invokeSolver(ctx, snap, timeStep)
		if runErr != nil {
			return Report{Status: catchment.StatusError, Attempts: attempts}, newDriverError(string(snap.ID), "run", runErr)
		}

		outcome := EvaluateRetry(failed, timeStep, minTimeStep)
		switch outcome.Kind {
		case RetryOk:
			if err := d.harvestSuccess(snap); err != nil {
				return Report{Status: catchment.StatusError, Attempts: attempts}, newDriverError(string(snap.ID), "run", err)
			}
			return Report{
				Status:        catchment.StatusOk,
				Attempts:      attempts,
				FinalTimeStep: timeStep,
				RawOutputKept: d.Cfg.KeepOriginalOutputs,
			}, nil
		case RetryAgain:
			timeStep = outcome.TimeStep
			continue
		case RetryGiveUp:
			return Report{Status: catchment.StatusError, Attempts: attempts, FinalTimeStep: timeStep},
				newDriverError(string(snap.ID), "run", fmt.Errorf("numerical failure persisted below minimum timestep %v", minTimeStep))
		}
	}
}

// Cleanup deletes the reach's upstream-flux file when configured to.
func (d *ReferenceDriver) Cleanup(ctx context.Context, snap catchment.Snapshot) (catchment.ReportStatus, error) {
	if !d.Cfg.DeleteUpstreamFluxFiles {
		return catchment.StatusOk, nil
	}
	path := d.upstreamFluxPath(snap.ID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return catchment.StatusError, newDriverError(string(snap.ID), "cleanup", err)
	}
	return catchment.StatusOk, nil
}

// invokeSolver runs the external solver for one attempt at the given
// timestep and reports whether the numerical-failure sentinel appeared.
// If SolverPath is empty, the attempt is treated as a deterministic
// no-op success — useful for wiring the scheduler up before a real
// solver binary is installed.
func (d *ReferenceDriver) invokeSolver(ctx context.Context, snap catchment.Snapshot, timeStep float64) (failed bool, err error) {
	dir := d.reachDir(snap.ID)
	sentinel := filepath.Join(dir, errSentinelName)
	_ = os.Remove(sentinel)

	if d.SolverPath == "" {
		return false, nil
	}

	cmd := exec.CommandContext(ctx, d.SolverPath,
		"--reach", string(snap.ID),
		"--timestep", fmt.Sprintf("%v", timeStep),
	)
	cmd.Dir = dir
	cmd.Env = d.Env

	runErr := cmd.Run()
	if _, statErr := os.Stat(sentinel); statErr == nil {
		return true, nil
	}
	if runErr != nil {
		return false, runErr
	}
	return false, nil
}

// harvestSuccess writes the post-processed per-reach result and, unless
// KeepOriginalOutputs is set, removes the raw solver output to cap peak
// disk usage.
func (d *ReferenceDriver) harvestSuccess(snap catchment.Snapshot) error {
	if err := writeProcessedResult(d.resultPath(snap.ID), snap); err != nil {
		return err
	}
	if !d.Cfg.KeepOriginalOutputs {
		raw := d.rawOutputPath(snap.ID)
		if err := os.Remove(raw); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func renderTemplate(tmpl *template.Template, path string, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeDummyMfu(path string) error {
	return writeFileAtomic(path, []byte("# placeholder upstream-flux file (skipped reach)\n"))
}

func writeZeroValuedResult(path string) error {
	return writeFileAtomic(path, []byte("# zero-valued result (skipped reach)\n"))
}

func writeProcessedResult(path string, snap catchment.Snapshot) error {
	content := fmt.Sprintf("# result for %s\nhasUpstreamLoading=%v\n", snap.ID, snap.HasUpstreamLoading)
	return writeFileAtomic(path, []byte(content))
}

func fileExistsNonEmpty(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() > 0
}
