// Package planner computes the stage plan for a deploy before anything runs.
//
// The plan makes the two existence gates of the pipeline (runtime
// environment, data store) and the install policy decision explicit, so
// `deploy --dry-run` can show exactly what a run would do and the engine
// executes the same decisions it displayed.
package planner

import "fmt"

// Stage identifies one pipeline stage.
type Stage string

const (
	StageWorkspace Stage = "workspace"
	StageRuntime   Stage = "runtime"
	StageStore     Stage = "store"
	StageProcess   Stage = "process"
	StageHealth    Stage = "health"
)

// Action is what a stage will do for the current facts.
type Action string

const (
	// ActionCreate creates the stage's artifact from scratch.
	ActionCreate Action = "create"

	// ActionSkip leaves an already-satisfied artifact untouched.
	ActionSkip Action = "skip"

	// ActionInstall reinstalls the package set into an existing runtime
	// environment.
	ActionInstall Action = "install"

	// ActionStart launches a new instance with no prior one to stop.
	ActionStart Action = "start"

	// ActionRestart stops the recorded prior instance, then launches.
	ActionRestart Action = "restart"

	// ActionProbe runs the post-launch health probe.
	ActionProbe Action = "probe"
)

// Facts are the observations the plan is derived from.
type Facts struct {
	// WorkspaceExists reports whether the workspace directory is present.
	WorkspaceExists bool

	// EnvExists reports whether the runtime environment is present.
	EnvExists bool

	// StoreExists reports whether the data store file is present.
	StoreExists bool

	// PriorPID is the recorded pid of a previous instance, 0 if none.
	PriorPID int

	// InstallPolicy is the configured policy ("always", "if-missing",
	// "if-changed").
	InstallPolicy string

	// PackagesChanged reports whether the package list fingerprint differs
	// from the last recorded deploy. Only consulted by "if-changed".
	PackagesChanged bool
}

// Step is one planned stage action.
type Step struct {
	Stage  Stage
	Action Action
	Detail string
}

// Plan is the ordered list of stage actions for one deploy.
type Plan struct {
	Steps []Step
}

// Build derives the stage plan from the observed facts.
func Build(facts Facts) *Plan {
	plan := &Plan{}

	if facts.WorkspaceExists {
		plan.add(StageWorkspace, ActionSkip, "workspace directory exists")
	} else {
		plan.add(StageWorkspace, ActionCreate, "create workspace directory")
	}

	switch {
	case !facts.EnvExists:
		plan.add(StageRuntime, ActionCreate, "create runtime environment and install packages")
	case installNeeded(facts):
		plan.add(StageRuntime, ActionInstall, fmt.Sprintf("install packages (policy %s)", facts.InstallPolicy))
	default:
		plan.add(StageRuntime, ActionSkip, fmt.Sprintf("packages up to date (policy %s)", facts.InstallPolicy))
	}

	if facts.StoreExists {
		plan.add(StageStore, ActionSkip, "data store exists, schema init skipped")
	} else {
		plan.add(StageStore, ActionCreate, "initialize data store schema")
	}

	if facts.PriorPID > 0 {
		plan.add(StageProcess, ActionRestart, fmt.Sprintf("stop pid %d, then launch", facts.PriorPID))
	} else {
		plan.add(StageProcess, ActionStart, "launch new instance")
	}

	plan.add(StageHealth, ActionProbe, "probe health endpoint after launch delay")

	return plan
}

// installNeeded decides whether an existing environment gets a package
// install under the configured policy.
func installNeeded(facts Facts) bool {
	switch facts.InstallPolicy {
	case "if-missing":
		return false
	case "if-changed":
		return facts.PackagesChanged
	default:
		// "always" and anything unrecognized reinstall, the conservative
		// behavior.
		return true
	}
}

// Step returns the planned step for the given stage, or nil.
func (p *Plan) Step(stage Stage) *Step {
	for i := range p.Steps {
		if p.Steps[i].Stage == stage {
			return &p.Steps[i]
		}
	}
	return nil
}

func (p *Plan) add(stage Stage, action Action, detail string) {
	p.Steps = append(p.Steps, Step{Stage: stage, Action: action, Detail: detail})
}
