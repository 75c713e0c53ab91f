package config

import (
	"errors"
	"fmt"
)

// Validate checks the topology for internal consistency. Port and database
// path uniqueness across launched roles is enforced here so a collision
// surfaces at load time instead of as a bind failure minutes into a run.
func (t *Topology) Validate() error {
	if len(t.Nodes) == 0 {
		return errors.New("topology requires at least one full node")
	}

	claimed := map[int]string{}
	claim := func(port int, owner string) error {
		if port == 0 {
			return nil
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("%s: port %d out of range", owner, port)
		}
		if existing, ok := claimed[port]; ok {
			return fmt.Errorf("%s: port %d already claimed by %s", owner, port, existing)
		}
		claimed[port] = owner
		return nil
	}

	svc := &t.Services
	roles := []struct {
		name string
		spec *RoleSpec
	}{
		{"farmer", svc.Farmer},
		{"harvester", svc.Harvester},
		{"timelord", svc.Timelord},
		{"timelordLauncher", svc.TimelordLauncher},
		{"daemon", svc.Daemon},
	}
	for _, role := range roles {
		if role.spec == nil {
			return fmt.Errorf("services.%s: missing", role.name)
		}
		if role.spec.Binary == "" {
			return fmt.Errorf("services.%s: binary must not be empty", role.name)
		}
		if err := claim(role.spec.Port, "services."+role.name); err != nil {
			return err
		}
		if err := claim(role.spec.RPCPort, "services."+role.name); err != nil {
			return err
		}
	}

	if svc.Introducer == nil {
		return errors.New("services.introducer: missing")
	}
	if svc.Introducer.Host == "" {
		return errors.New("services.introducer: host must not be empty")
	}
	if err := claim(svc.Introducer.Port, "services.introducer"); err != nil {
		return err
	}

	paths := map[string]string{}
	for idx, node := range t.Nodes {
		owner := fmt.Sprintf("nodes[%d]", idx)
		if node == nil {
			return fmt.Errorf("%s: missing", owner)
		}
		if node.Port == 0 {
			return fmt.Errorf("%s: port must be set", owner)
		}
		if node.RPCPort == 0 {
			return fmt.Errorf("%s: rpcPort must be set", owner)
		}
		if node.DatabasePath == "" {
			return fmt.Errorf("%s: databasePath must be set", owner)
		}
		if err := claim(node.Port, owner); err != nil {
			return err
		}
		if err := claim(node.RPCPort, owner); err != nil {
			return err
		}
		if existing, ok := paths[node.DatabasePath]; ok {
			return fmt.Errorf("%s: database path %q already claimed by %s", owner, node.DatabasePath, existing)
		}
		paths[node.DatabasePath] = owner
	}

	return nil
}
