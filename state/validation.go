package state

import (
	"fmt"
	"regexp"
	"slices"
)

var namePattern = regexp.MustCompile("^[0-9A-Za-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%q is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(%q) = %d > 100 is too long", s, len(s))
	}
	return nil
}

func CentralConfigValidator(cfg *CentralCfg) error {
	seen := make([]NodeId, 0)
	for _, r := range cfg.Routers {
		if err := NameValidator(string(r.Id)); err != nil {
			return err
		}
		if !r.Endpoint.IsValid() {
			return fmt.Errorf("router %s has an invalid endpoint", r.Id)
		}
		if slices.Contains(seen, r.Id) {
			return fmt.Errorf("duplicate node id: %s", r.Id)
		}
		seen = append(seen, r.Id)
	}
	for _, h := range cfg.Hosts {
		if err := NameValidator(string(h.Id)); err != nil {
			return err
		}
		if !h.Endpoint.IsValid() {
			return fmt.Errorf("host %s has an invalid endpoint", h.Id)
		}
		if slices.Contains(seen, h.Id) {
			return fmt.Errorf("duplicate node id: %s", h.Id)
		}
		if !cfg.IsRouter(h.Router) {
			return fmt.Errorf("host %s is attached to unknown router %s", h.Id, h.Router)
		}
		seen = append(seen, h.Id)
	}
	edges := make([]Pair[NodeId, NodeId], 0)
	for _, l := range cfg.Links {
		if !cfg.IsRouter(l.A) {
			return fmt.Errorf("link references unknown router %s", l.A)
		}
		if !cfg.IsRouter(l.B) {
			return fmt.Errorf("link references unknown router %s", l.B)
		}
		if l.A == l.B {
			return fmt.Errorf("self link on %s", l.A)
		}
		edge := Pair[NodeId, NodeId]{l.A, l.B}
		if l.B < l.A {
			edge = Pair[NodeId, NodeId]{l.B, l.A}
		}
		if slices.Contains(edges, edge) {
			return fmt.Errorf("duplicate link: %s, %s", edge.V1, edge.V2)
		}
		edges = append(edges, edge)
	}
	return nil
}

func LocalConfigValidator(cfg *CentralCfg, local *LocalCfg) error {
	if err := NameValidator(string(local.Id)); err != nil {
		return err
	}
	if !local.Bind.IsValid() {
		return fmt.Errorf("bind address is invalid")
	}
	if !cfg.IsRouter(local.Id) && !cfg.IsHost(local.Id) {
		return fmt.Errorf("node %s does not appear in the central config", local.Id)
	}
	return nil
}
