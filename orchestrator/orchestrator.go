// Package orchestrator runs the ordered pipeline of provisioning steps.
// Steps carry a declarative stage payload (files to render, commands to
// run) plus applicability gates; the pipeline executes them sequentially,
// records one result per step, and halts on the first failure. There is no
// rollback: a failed run leaves the host partially provisioned for the
// operator to remediate.
package orchestrator

import (
	"context"
	"errors"

	yip "github.com/mudler/yip/pkg/schema"
	"github.com/sirupsen/logrus"

	"github.com/uthrapathy-m/cks-course-environment/domain"
)

// Step is one provisioning action. Either Stage describes it declaratively
// or Run executes it in-process; the gate slices restrict applicability, an
// empty slice meaning "applies everywhere".
type Step struct {
	Stage    yip.Stage
	Families []domain.Family
	Runtimes []domain.RuntimeKind
	Roles    []domain.NodeRole

	// Disabled records the step as skipped without touching the host. Used
	// for steps the configuration opts out of, so the run log still shows
	// them.
	Disabled bool

	// Run, when set, takes precedence over Stage's payload. Stage.Name is
	// still used as the step name.
	Run func(ctx context.Context) error
}

// Name returns the step's display name.
func (s Step) Name() string { return s.Stage.Name }

func (s Step) applies(profile domain.PlatformProfile, cfg domain.ProvisionConfig) bool {
	return containsOrEmpty(s.Families, profile.Family) &&
		containsOrEmpty(s.Runtimes, cfg.ContainerRuntime) &&
		containsOrEmpty(s.Roles, cfg.Role)
}

func containsOrEmpty[T comparable](set []T, value T) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}

// Runner executes steps in order against one resolved host profile.
type Runner struct {
	log      *logrus.Entry
	executor StageExecutor
	profile  domain.PlatformProfile
	cfg      domain.ProvisionConfig
}

func NewRunner(log *logrus.Entry, executor StageExecutor, profile domain.PlatformProfile, cfg domain.ProvisionConfig) *Runner {
	return &Runner{log: log, executor: executor, profile: profile, cfg: cfg}
}

// Execute runs the pipeline. The returned results cover exactly the steps
// reached before completion or the first failure: inapplicable and
// guard-skipped steps are recorded as skipped, and when step N fails the
// result list holds N entries with the last one failed.
func (r *Runner) Execute(ctx context.Context, steps []Step) ([]domain.StepResult, error) {
	results := make([]domain.StepResult, 0, len(steps))

	for _, step := range steps {
		log := r.log.WithField("step", step.Name())

		if step.Disabled {
			log.Debug("disabled by configuration, skipping")
			results = append(results, domain.StepResult{
				StepName: step.Name(),
				Outcome:  domain.OutcomeSkipped,
				Detail:   "disabled by configuration",
			})
			continue
		}

		if !step.applies(r.profile, r.cfg) {
			log.Debug("not applicable on this platform, skipping")
			results = append(results, domain.StepResult{
				StepName: step.Name(),
				Outcome:  domain.OutcomeSkipped,
				Detail:   "not applicable",
			})
			continue
		}

		log.Info("running")
		detail, err := r.apply(ctx, step)
		if errors.Is(err, ErrConditionNotMet) {
			log.Debug("condition not met, skipping")
			results = append(results, domain.StepResult{
				StepName: step.Name(),
				Outcome:  domain.OutcomeSkipped,
				Detail:   "condition not met",
			})
			continue
		}
		if err != nil {
			log.WithError(err).Error("failed")
			results = append(results, domain.StepResult{
				StepName: step.Name(),
				Outcome:  domain.OutcomeFailed,
				Detail:   err.Error(),
			})
			return results, &domain.ServiceStartError{Step: step.Name(), Err: err}
		}

		results = append(results, domain.StepResult{
			StepName: step.Name(),
			Outcome:  domain.OutcomeSuccess,
			Detail:   detail,
		})
	}

	return results, nil
}

func (r *Runner) apply(ctx context.Context, step Step) (string, error) {
	if step.Run != nil {
		return "", step.Run(ctx)
	}
	return r.executor.Apply(ctx, step.Stage)
}
