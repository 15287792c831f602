package core

import "discoverycore/pkg/domain"

type (
	EntityType         = domain.EntityType
	IntakeWindowState  = domain.IntakeWindowState
	BriefStatus        = domain.BriefStatus
	FindingType        = domain.FindingType
	TicketType         = domain.TicketType
	TicketStatus       = domain.TicketStatus
	ActorRole          = domain.ActorRole
	GateName           = domain.GateName
	Severity           = domain.Severity
	Base               = domain.Base
	Tenant             = domain.Tenant
	ExecutiveBrief     = domain.ExecutiveBrief
	DiscoveryNotes     = domain.DiscoveryNotes
	Finding            = domain.Finding
	FindingsObject     = domain.FindingsObject
	Ticket             = domain.Ticket
	TicketView         = domain.TicketView
	GateDecision       = domain.GateDecision
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityTenant         = domain.EntityTenant
	EntityDiscoveryNotes = domain.EntityDiscoveryNotes
	EntityTicket         = domain.EntityTicket
)

const (
	IntakeWindowOpen   = domain.IntakeWindowOpen
	IntakeWindowClosed = domain.IntakeWindowClosed
)

const (
	BriefStatusDraft        = domain.BriefStatusDraft
	BriefStatusReadyForExec = domain.BriefStatusReadyForExec
	BriefStatusAcknowledged = domain.BriefStatusAcknowledged
	BriefStatusWaived       = domain.BriefStatusWaived
)

const (
	FindingCurrentFact   = domain.FindingCurrentFact
	FindingFrictionPoint = domain.FindingFrictionPoint
	FindingGoal          = domain.FindingGoal
	FindingConstraint    = domain.FindingConstraint
)

const (
	TicketDiagnostic      = domain.TicketDiagnostic
	TicketCapabilityBuild = domain.TicketCapabilityBuild
	TicketConstraintCheck = domain.TicketConstraintCheck
)

const (
	TicketStatusGenerated = domain.TicketStatusGenerated
	TicketStatusProposed  = domain.TicketStatusProposed
	TicketStatusApproved  = domain.TicketStatusApproved
	TicketStatusRejected  = domain.TicketStatusRejected
	TicketStatusArchived  = domain.TicketStatusArchived
)

const (
	RoleExecutive = domain.RoleExecutive
	RoleObserver  = domain.RoleObserver
)

const (
	GateIntakeWindow   = domain.GateIntakeWindow
	GateExecutiveBrief = domain.GateExecutiveBrief
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
