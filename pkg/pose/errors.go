package pose

import "errors"

// Sentinel errors for the pose package.
var (
	// ErrEmptyCatalog indicates a catalog with no templates. Nothing can be spawned from it.
	ErrEmptyCatalog = errors.New("pose: catalog has no templates")

	// ErrDuplicateTemplate indicates two templates share a name.
	ErrDuplicateTemplate = errors.New("pose: duplicate template name")

	// ErrInvalidTemplate indicates a template without a name or without features.
	ErrInvalidTemplate = errors.New("pose: invalid template")

	// ErrUnknownFeature indicates a template targets a feature the extractor never produces.
	ErrUnknownFeature = errors.New("pose: unknown feature")

	// ErrUnknownTemplate indicates a lookup by a name the catalog does not hold.
	ErrUnknownTemplate = errors.New("pose: unknown template")
)
