package planner

import "testing"

func TestBuild_FreshMachine(t *testing.T) {
	// Fresh machine: nothing exists, no prior process
	plan := Build(Facts{InstallPolicy: "always"})

	if len(plan.Steps) != 5 {
		t.Fatalf("plan has %d steps, want 5", len(plan.Steps))
	}

	want := map[Stage]Action{
		StageWorkspace: ActionCreate,
		StageRuntime:   ActionCreate,
		StageStore:     ActionCreate,
		StageProcess:   ActionStart,
		StageHealth:    ActionProbe,
	}
	for stage, action := range want {
		step := plan.Step(stage)
		if step == nil {
			t.Fatalf("missing step for stage %s", stage)
		}
		if step.Action != action {
			t.Errorf("stage %s action = %s, want %s", stage, step.Action, action)
		}
	}
}

func TestBuild_EverythingExists(t *testing.T) {
	plan := Build(Facts{
		WorkspaceExists: true,
		EnvExists:       true,
		StoreExists:     true,
		PriorPID:        4242,
		InstallPolicy:   "always",
	})

	if got := plan.Step(StageWorkspace).Action; got != ActionSkip {
		t.Errorf("workspace action = %s, want skip", got)
	}
	// "always" reinstalls even into an existing environment
	if got := plan.Step(StageRuntime).Action; got != ActionInstall {
		t.Errorf("runtime action = %s, want install", got)
	}
	if got := plan.Step(StageStore).Action; got != ActionSkip {
		t.Errorf("store action = %s, want skip", got)
	}
	if got := plan.Step(StageProcess).Action; got != ActionRestart {
		t.Errorf("process action = %s, want restart", got)
	}
}

func TestBuild_InstallPolicies(t *testing.T) {
	base := Facts{WorkspaceExists: true, EnvExists: true, StoreExists: true}

	cases := []struct {
		name    string
		policy  string
		changed bool
		want    Action
	}{
		{"always reinstalls", "always", false, ActionInstall},
		{"if-missing skips existing env", "if-missing", false, ActionSkip},
		{"if-missing skips even when changed", "if-missing", true, ActionSkip},
		{"if-changed skips unchanged", "if-changed", false, ActionSkip},
		{"if-changed installs changed", "if-changed", true, ActionInstall},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			facts := base
			facts.InstallPolicy = tc.policy
			facts.PackagesChanged = tc.changed

			plan := Build(facts)
			if got := plan.Step(StageRuntime).Action; got != tc.want {
				t.Errorf("runtime action = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestBuild_MissingEnvAlwaysCreates(t *testing.T) {
	// A missing environment is created regardless of policy
	for _, policy := range []string{"always", "if-missing", "if-changed"} {
		plan := Build(Facts{WorkspaceExists: true, InstallPolicy: policy})
		if got := plan.Step(StageRuntime).Action; got != ActionCreate {
			t.Errorf("policy %s: runtime action = %s, want create", policy, got)
		}
	}
}

func TestStep_UnknownStage(t *testing.T) {
	plan := Build(Facts{InstallPolicy: "always"})
	if plan.Step(Stage("bogus")) != nil {
		t.Error("Step for unknown stage should be nil")
	}
}
