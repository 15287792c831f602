package main

import (
	"fmt"

	"discoverycore/internal/core"
	"discoverycore/pkg/domain"
)

// newService opens the storage backend selected by the environment and wires
// the default rules engine.
func newService() (*core.Service, error) {
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return core.NewService(store), nil
}

func parseRole(raw string) (domain.ActorRole, error) {
	switch domain.ActorRole(raw) {
	case domain.RoleExecutive:
		return domain.RoleExecutive, nil
	case domain.RoleObserver:
		return domain.RoleObserver, nil
	default:
		return "", fmt.Errorf("unknown role %q (want executive or observer)", raw)
	}
}
