package rulepack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadMode controls how errors are handled during pack loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes for LoadError.
const (
	ErrCodeNotFound       = "PACK_NOT_FOUND"
	ErrCodeNoFiles        = "NO_CUE_FILES"
	ErrCodeScanError      = "SCAN_ERROR"
	ErrCodeLoadFailed     = "LOAD_FAILED"
	ErrCodeBuildFailed    = "BUILD_FAILED"
	ErrCodeInvalidFormula = "INVALID_FORMULA"
)

// LoadError represents an error that occurred while loading a pack.
type LoadError struct {
	Code    string
	Message string
	Formula string    // Formula name, when the error is scoped to one.
	Pos     token.Pos // CUE position if available.
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Formula != "" {
		msg = fmt.Sprintf("formula %q: %s", e.Formula, msg)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// FindCUEFiles returns the .cue files directly under dir, sorted by name.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".cue") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir loads a formula pack from a directory of CUE files.
//
// If mode is LoadModeFailFast, returns on the first invalid formula.
// If mode is LoadModeCollectAll, decodes every formula and reports all
// faults, which is what the validate command wants for authoring feedback.
// In collect-all mode a partially valid pack is returned alongside the
// errors so callers can report what did load.
func LoadDir(dir string, mode LoadMode) (*Pack, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("pack directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing pack directory: %v", err)}}
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
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
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

	pack, errs := DecodePack(value, mode)
	if pack != nil {
		pack.Name = filepath.Base(dir)
	}
	return pack, errs
}

// DecodePack decodes a formula pack from an already-built CUE value. The
// value's top-level "formula" struct maps names to formula declarations.
func DecodePack(value cue.Value, mode LoadMode) (*Pack, []error) {
	var errs []error

	formulasVal := value.LookupPath(cue.ParsePath("formula"))
	if !formulasVal.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: `pack declares no top-level "formula" struct`}}
	}

	iter, err := formulasVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("iterating formulas: %v", err)}}
	}

	pack := &Pack{}
	for iter.Next() {
		spec, err := decodeFormula(iter.Label(), iter.Value())
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return nil, errs
			}
			continue
		}
		pack.Formulas = append(pack.Formulas, *spec)
	}
	sortFormulas(pack.Formulas)

	if len(errs) > 0 && mode == LoadModeFailFast {
		return nil, errs
	}
	return pack, errs
}

// decodeFormula decodes one formula declaration.
func decodeFormula(name string, v cue.Value) (*FormulaSpec, error) {
	spec := &FormulaSpec{Name: name}

	exprVal := v.LookupPath(cue.ParsePath("expression"))
	if !exprVal.Exists() {
		return nil, &LoadError{
			Code:    ErrCodeInvalidFormula,
			Message: "expression is required",
			Formula: name,
			Pos:     v.Pos(),
		}
	}
	expr, err := exprVal.String()
	if err != nil {
		return nil, &LoadError{
			Code:    ErrCodeInvalidFormula,
			Message: fmt.Sprintf("expression must be a string: %v", err),
			Formula: name,
			Pos:     exprVal.Pos(),
		}
	}
	spec.Expression = expr

	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidFormula,
				Message: fmt.Sprintf("description must be a string: %v", err),
				Formula: name,
				Pos:     descVal.Pos(),
			}
		}
		spec.Description = desc
	}

	testsVal := v.LookupPath(cue.ParsePath("tests"))
	if testsVal.Exists() {
		tests, err := decodeTests(name, testsVal)
		if err != nil {
			return nil, err
		}
		spec.Tests = tests
	}

	return spec, nil
}

func decodeTests(formula string, v cue.Value) ([]FormulaTest, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &LoadError{
			Code:    ErrCodeInvalidFormula,
			Message: fmt.Sprintf("tests must be a list: %v", err),
			Formula: formula,
			Pos:     v.Pos(),
		}
	}

	var tests []FormulaTest
	for iter.Next() {
		tc, err := decodeTest(formula, iter.Value())
		if err != nil {
			return nil, err
		}
		tests = append(tests, *tc)
	}
	return tests, nil
}

func decodeTest(formula string, v cue.Value) (*FormulaTest, error) {
	tc := &FormulaTest{}

	bindingsVal := v.LookupPath(cue.ParsePath("bindings"))
	if bindingsVal.Exists() {
		iter, err := bindingsVal.Fields()
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidFormula,
				Message: fmt.Sprintf("test bindings must be a struct: %v", err),
				Formula: formula,
				Pos:     bindingsVal.Pos(),
			}
		}
		tc.Bindings = make(map[string]float64)
		for iter.Next() {
			num, err := iter.Value().Float64()
			if err != nil {
				return nil, &LoadError{
					Code:    ErrCodeInvalidFormula,
					Message: fmt.Sprintf("test binding %q must be numeric: %v", iter.Label(), err),
					Formula: formula,
					Pos:     iter.Value().Pos(),
				}
			}
			tc.Bindings[iter.Label()] = num
		}
	}

	expectVal := v.LookupPath(cue.ParsePath("expect"))
	errVal := v.LookupPath(cue.ParsePath("expect_error"))

	switch {
	case expectVal.Exists() && errVal.Exists():
		return nil, &LoadError{
			Code:    ErrCodeInvalidFormula,
			Message: "test declares both expect and expect_error",
			Formula: formula,
			Pos:     v.Pos(),
		}
	case expectVal.Exists():
		num, err := expectVal.Float64()
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidFormula,
				Message: fmt.Sprintf("expect must be numeric: %v", err),
				Formula: formula,
				Pos:     expectVal.Pos(),
			}
		}
		tc.Expect = &num
	case errVal.Exists():
		code, err := errVal.String()
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidFormula,
				Message: fmt.Sprintf("expect_error must be a string: %v", err),
				Formula: formula,
				Pos:     errVal.Pos(),
			}
		}
		tc.ExpectError = code
	default:
		return nil, &LoadError{
			Code:    ErrCodeInvalidFormula,
			Message: "test declares neither expect nor expect_error",
			Formula: formula,
			Pos:     v.Pos(),
		}
	}

	return tc, nil
}
