package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AttributeSpec is one attribute entry in a domain spec file.
type AttributeSpec struct {
	Name string    `yaml:"name"`
	Kind ValueKind `yaml:"kind"`
}

// DomainSpec declares the canonical attribute set for one domain. Specs are
// fed to the bootstrapper, which registers them idempotently.
type DomainSpec struct {
	Domain     string          `yaml:"domain"`
	Attributes []AttributeSpec `yaml:"attributes"`
}

// Validate checks structural soundness of the spec: non-empty domain,
// non-empty unique attribute names, known kinds.
func (s *DomainSpec) Validate() error {
	if s.Domain == "" {
		return fmt.Errorf("domain spec with empty domain")
	}
	seen := make(map[string]struct{}, len(s.Attributes))
	for _, attr := range s.Attributes {
		if attr.Name == "" {
			return fmt.Errorf("domain %q: attribute with empty name", s.Domain)
		}
		if _, dup := seen[attr.Name]; dup {
			return fmt.Errorf("domain %q: duplicate attribute %q", s.Domain, attr.Name)
		}
		seen[attr.Name] = struct{}{}
		if !attr.Kind.Valid() {
			return fmt.Errorf("domain %q: attribute %q has unknown kind %q", s.Domain, attr.Name, attr.Kind)
		}
	}
	return nil
}

type domainSpecFile struct {
	Domains []DomainSpec `yaml:"domains"`
}

// LoadDomainSpecs reads and validates a YAML domain spec file, the static
// domain→attribute list handed to the bootstrapper by deployment tooling.
func LoadDomainSpecs(path string) ([]DomainSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain specs: %w", err)
	}

	var file domainSpecFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse domain specs: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Domains))
	for i := range file.Domains {
		if err := file.Domains[i].Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[file.Domains[i].Domain]; dup {
			return nil, fmt.Errorf("duplicate domain %q in spec file", file.Domains[i].Domain)
		}
		seen[file.Domains[i].Domain] = struct{}{}
	}

	return file.Domains, nil
}
