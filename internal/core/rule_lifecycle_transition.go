package core

import (
	"context"
	"fmt"

	"upvcerp/pkg/domain"
)

// LifecycleTransitionRule blocks status changes that bypass an entity's
// lifecycle. Service commands already transition through the entity methods;
// the rule catches writes that set a status directly.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (r lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		after, ok := change.After.(domain.Stateful)
		if !ok {
			continue
		}
		entity, id, state := after.LifecycleState()
		machine, ok := domain.LifecycleFor(entity)
		if !ok {
			continue
		}
		if !machine.Valid(state) {
			res.Violations = append(res.Violations, r.violation(entity, id,
				fmt.Sprintf("%s %s is set to invalid state %q", entity, id, state)))
			continue
		}
		before, ok := change.Before.(domain.Stateful)
		if !ok {
			continue
		}
		_, _, from := before.LifecycleState()
		if from == state {
			continue
		}
		if err := machine.Check(id, from, state); err != nil {
			res.Violations = append(res.Violations, r.violation(entity, id, err.Error()))
		}
	}
	return res, nil
}

func (r lifecycleTransitionRule) violation(entity domain.EntityType, id, msg string) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityBlock,
		Message:  msg,
		Entity:   entity,
		EntityID: id,
	}
}
