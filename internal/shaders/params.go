package shaders

import (
	"fmt"
	"io/fs"
	"regexp"
)

var (
	paramsStruct = regexp.MustCompile(`(?s)struct Params \{(.*?)\}`)
	paramsField  = regexp.MustCompile(`(\w+)\s*:\s*\w+\s*,`)
)

// ParamFields lists the members of the Params uniform declared by the named
// source. A GPU backend fills them from the variant parameters of the same
// key; the CPU device reads the parameters directly.
func ParamFields(name string) ([]string, error) {
	data, err := fs.ReadFile(FS, name)
	if err != nil {
		return nil, err
	}
	m := paramsStruct.FindSubmatch(data)
	if m == nil {
		return nil, fmt.Errorf("shaders: %s declares no Params uniform", name)
	}
	var fields []string
	for _, f := range paramsField.FindAllSubmatch(m[1], -1) {
		fields = append(fields, string(f[1]))
	}
	return fields, nil
}
