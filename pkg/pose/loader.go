package pose

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-poseperfect/internal/httpc"
)

// maxCatalogSize bounds catalogs fetched over HTTP.
const maxCatalogSize = 1 << 20

// catalogFile is the on-disk layout:
//
//	poses:
//	  - name: front_biceps
//	    features:
//	      LeftArmAngle: -150
//	      RightArmAngle: 150
type catalogFile struct {
	Poses []Template `yaml:"poses"`
}

// ParseCatalog decodes a YAML pose table into a catalog.
func ParseCatalog(data []byte, opts ...CatalogOption) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("pose: parse catalog: %w", err)
	}
	return NewCatalog(f.Poses, opts...)
}

// LoadCatalog reads a YAML pose table from path.
func LoadCatalog(path string, opts ...CatalogOption) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pose: read catalog: %w", err)
	}
	return ParseCatalog(data, opts...)
}

// FetchCatalog downloads a YAML pose table from url.
func FetchCatalog(ctx context.Context, url string, opts ...CatalogOption) (*Catalog, error) {
	data, err := httpc.Fetch(ctx, url, maxCatalogSize)
	if err != nil {
		return nil, fmt.Errorf("pose: fetch catalog: %w", err)
	}
	return ParseCatalog(data, opts...)
}

// MarshalCatalog encodes templates in the same layout LoadCatalog reads.
func MarshalCatalog(templates []Template) ([]byte, error) {
	return yaml.Marshal(catalogFile{Poses: templates})
}
