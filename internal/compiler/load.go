package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/arcflow/internal/strategy"
)

// LoadFile reads and decodes a CUE strategy file.
func LoadFile(path string) (*strategy.Description, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy: %w", err)
	}
	return LoadString(string(src), path)
}

// LoadString decodes CUE strategy source. filename is used for positions.
func LoadString(src, filename string) (*strategy.Description, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return DecodeCUE(v)
}
