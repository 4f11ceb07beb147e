package generator

import "github.com/toyz/abitest/internal/models"

// SuiteGenerator defines the interface for turning wrapper metadata into a test suite and its file
type SuiteGenerator interface {
	Generate(metadata *models.WrapperMetadata) (*Result, error)
	RenderFile(result *Result, opts FileOptions) ([]byte, error)
}
