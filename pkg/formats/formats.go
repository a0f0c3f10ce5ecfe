package formats

import (
	"path/filepath"
	"strings"
)

// GFMDLExt is the file extension of GFMDL models.
const GFMDLExt = ".gfmdl"

// IsGFMDLPath reports whether path names a GFMDL model by its extension.
func IsGFMDLPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), GFMDLExt)
}
