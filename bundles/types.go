// Package bundles holds the declarative bundle library (named groups of
// tool steps with a dependency graph and a gather strategy) and the
// topological phase resolution that turns a bundle's step graph into a
// sequence of concurrently-runnable phases.
package bundles

import (
	"github.com/ryemyster/shaleyeah-toolkernel/registry"
)

// GatherStrategy controls how a BundleResult's overallSuccess is computed.
type GatherStrategy string

const (
	// GatherAll requires every required step to succeed.
	GatherAll GatherStrategy = "all"
	// GatherMajority requires more than half of the required steps to succeed.
	GatherMajority GatherStrategy = "majority"
)

// Step is one tool call within a Bundle.
type Step struct {
	ToolName    string               `yaml:"toolName" json:"toolName"`
	DetailLevel registry.DetailLevel `yaml:"detailLevel,omitempty" json:"detailLevel,omitempty"`
	Parallel    bool                 `yaml:"parallel" json:"parallel"`
	Optional    bool                 `yaml:"optional" json:"optional"`
	DependsOn   []string             `yaml:"dependsOn,omitempty" json:"dependsOn,omitempty"`
}

// Bundle is a named, declarative group of tool steps.
type Bundle struct {
	Name           string         `yaml:"name" json:"name"`
	Steps          []Step         `yaml:"steps" json:"steps"`
	GatherStrategy GatherStrategy `yaml:"gatherStrategy" json:"gatherStrategy"`
}
