package project

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by LoadSeed:
//
//	projects:
//	  - name: folio
//	    description: portfolio backend
//	    tags: [go, echo]
//	    is_featured: true
type SeedFile struct {
	Projects []CreateInput `yaml:"projects"`
}

// LoadSeed decodes a seed file. Unknown keys are rejected.
func LoadSeed(r io.Reader) ([]CreateInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return f.Projects, nil
}

// Seed creates every input through svc, stopping at the first failure. It
// returns the projects created so far.
func Seed(ctx context.Context, svc *Service, inputs []CreateInput) ([]*Project, error) {
	created := make([]*Project, 0, len(inputs))
	for i, in := range inputs {
		p, err := svc.Create(ctx, in)
		if err != nil {
			return created, fmt.Errorf("seed project %d (%q): %w", i, in.Name, err)
		}
		created = append(created, p)
	}
	return created, nil
}
