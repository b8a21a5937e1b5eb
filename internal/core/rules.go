package core

import "housingcore/pkg/domain"

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in allocation invariants.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(NewFlatInventoryRule())
	engine.Register(NewOfficerCapacityRule())
	engine.Register(NewActiveApplicationRule())
	engine.Register(NewActiveRegistrationRule())
	engine.Register(NewProjectWindowRule())
	return engine
}
