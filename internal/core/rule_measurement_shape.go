package core

import (
	"context"

	"tailorbook/pkg/domain"
)

// NewMeasurementShapeRule returns the rule that blocks measurements whose
// dimensions are missing, negative or not finite.
func NewMeasurementShapeRule() domain.Rule {
	return measurementShapeRule{}
}

type measurementShapeRule struct{}

func (measurementShapeRule) Name() string { return "measurement_shape" }

func (r measurementShapeRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityMeasurement || change.Action == domain.ChangeDelete {
			continue
		}
		m, ok := view.FindMeasurement(change.ID)
		if !ok {
			continue
		}
		if m.Data == nil {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  "measurement " + m.ID + " has no dimensions",
				Entity:   domain.EntityMeasurement,
				EntityID: m.ID,
			})
			continue
		}
		if err := m.Data.Validate(); err != nil {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  "measurement " + m.ID + ": " + err.Error(),
				Entity:   domain.EntityMeasurement,
				EntityID: m.ID,
			})
		}
	}
	return res, nil
}
