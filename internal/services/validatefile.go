package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/internal/schema"
	"github.com/hfsrb/hfsrb/internal/validate"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// FileValidation is the result of validating one payload file.
type FileValidation struct {
	Schema  string          `json:"schema"`
	Payload string          `json:"payload"`
	Result  validate.Result `json:"result"`
}

// ResolveSchemaPath turns a schema argument into a file path. A bare name
// such as "ahq-long" resolves to <compiledDir>/ahq-long.schema.json;
// anything with a separator or a .json suffix is taken as a path.
func ResolveSchemaPath(arg, compiledDir string) string {
	if strings.ContainsAny(arg, `/\`) || strings.HasSuffix(arg, ".json") {
		return arg
	}
	return filepath.Join(compiledDir, arg+hfsrb.SchemaFileSuffix)
}

// ValidateFile validates payloadPath against schemaPath. The payload file
// may be a bare payload object or a stored envelope, in which case its
// "payload" section is validated. Violations are returned in the result,
// not as an error.
func ValidateFile(fsProvider filesystem.FileSystemProvider, schemaPath, payloadPath string) (*FileValidation, error) {
	data, err := fsProvider.ReadFile(schemaPath)
	if err != nil {
		return nil, &SchemaResolutionError{Schema: schemaPath, Err: err}
	}
	schemaDoc, err := schema.Parse(data)
	if err != nil {
		return nil, &SchemaResolutionError{Schema: schemaPath, Err: err}
	}

	data, err = fsProvider.ReadFile(payloadPath)
	if err != nil {
		return nil, err
	}
	instance, err := jsonvalue.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", payloadPath, hfsrb.ErrMalformedInput, err)
	}
	if obj, ok := instance.AsObject(); ok {
		if inner, ok := obj.Get("payload"); ok && inner.Kind() == jsonvalue.KindObject {
			instance = inner
		}
	}

	return &FileValidation{
		Schema:  schemaPath,
		Payload: payloadPath,
		Result:  validate.New().Validate(instance, schemaDoc),
	}, nil
}
