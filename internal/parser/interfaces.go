package parser

import "github.com/toyz/abitest/internal/models"

// WrapperParser defines the interface for extracting a wrapper type's signatures
type WrapperParser interface {
	ParseDirectory(path, wrapper string) (*models.WrapperMetadata, error)
	ParseSource(filename, source, wrapper string) (*models.WrapperMetadata, error)
}
