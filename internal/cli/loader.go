package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/luozhenyu/pgfulltext/internal/compiler"
	"github.com/luozhenyu/pgfulltext/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all validation errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the tables loaded from a schema directory.
type LoadResult struct {
	Tables    []*schema.Blueprint
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// LoadSchema loads CUE table definitions from dir, compiles them into
// Blueprints carrying prefix, and validates the result.
// If mode is LoadModeFailFast, at most one error is returned.
func LoadSchema(dir, prefix string, mode LoadMode, opts ...compiler.Option) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	tables, err := compiler.CompileTables(value, prefix, opts...)
	if err != nil {
		return result, []error{convertCompileError(err)}
	}
	result.Tables = compiler.SortByInheritance(tables)

	var errs []error
	for _, verr := range compiler.Validate(tables) {
		errs = append(errs, &LoadError{
			Code:    verr.Code,
			Field:   verr.Field,
			Message: verr.Message,
		})
		if mode == LoadModeFailFast {
			break
		}
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Field:   compileErr.Field,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
// Validation codes E101-E108 come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeSettings    = "E008" // Settings file unreadable
	ErrCodeStore       = "E009" // Ledger database error

	// Schema compile errors
	ErrCodeNoTables        = "E010" // No table struct
	ErrCodeInvalidColumn   = "E011" // Bad column definition
	ErrCodeInvalidFulltext = "E012" // Bad fulltext definition
	ErrCodeInvalidInherits = "E013" // Bad inherits list
	ErrCodeInvalidDrop     = "E014" // Bad drop_fulltext list
	ErrCodeCUE             = "E015" // CUE evaluation error
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "table":
		return ErrCodeNoTables
	case field == "cue":
		return ErrCodeCUE
	case field == "inherits":
		return ErrCodeInvalidInherits
	case field == "drop_fulltext":
		return ErrCodeInvalidDrop
	case field == "columns" || strings.HasPrefix(field, "columns."):
		return ErrCodeInvalidColumn
	case strings.HasPrefix(field, "fulltext"):
		return ErrCodeInvalidFulltext
	default:
		return ErrCodeGeneric
	}
}
