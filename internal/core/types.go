package core

import "tailorbook/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Customer           = domain.Customer
	Measurement        = domain.Measurement
	MeasurementData    = domain.MeasurementData
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	AppState           = domain.AppState
	Action             = domain.Action
	Change             = domain.Change
	ChangeAction       = domain.ChangeAction
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	ErrNotFound        = domain.ErrNotFound
)

const (
	EntityCustomer    = domain.EntityCustomer
	EntityMeasurement = domain.EntityMeasurement
	EntityOrder       = domain.EntityOrder
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ChangeCreate
	ActionUpdate = domain.ChangeUpdate
	ActionDelete = domain.ChangeDelete
)
