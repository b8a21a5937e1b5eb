package core

import "housingcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	User               = domain.User
	Project            = domain.Project
	Flat               = domain.Flat
	Application        = domain.Application
	Registration       = domain.Registration
	Enquiry            = domain.Enquiry
	Booking            = domain.Booking
	Graph              = domain.Graph
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityUser         = domain.EntityUser
	EntityProject      = domain.EntityProject
	EntityApplication  = domain.EntityApplication
	EntityRegistration = domain.EntityRegistration
	EntityEnquiry      = domain.EntityEnquiry
	EntityBooking      = domain.EntityBooking
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
