package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/healthai-agent/internal/domain"
)

type seedFile struct {
	Documents []domain.KnowledgeDocument `yaml:"documents"`
}

// LoadYAML reads knowledge documents from a file shaped like:
//
//	documents:
//	  - title: Manejo de la ansiedad
//	    content: ...
func LoadYAML(path string) ([]domain.KnowledgeDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode knowledge file %s: %w", path, err)
	}
	return f.Documents, nil
}
