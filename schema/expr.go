package schema

import (
	"math/big"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/conform-io/conform/value"
)

// ExprSchema accepts values for which a CEL expression over the variable
// "self" evaluates to true. The schema itself stays plain data: only the
// expression source is stored, and it is compiled on first use.
//
// An expression that does not compile, does not yield a boolean, or fails at
// evaluation time validates nothing, consistent with the rest of the
// malformation taxonomy.
type ExprSchema struct {
	Source string

	once sync.Once
	prg  cel.Program
	err  error
}

func (*ExprSchema) schemaNode() {}

// Expr builds a refinement schema from a CEL expression over "self".
//
//	schema.Expr("self > 0 && self < 100")
//	schema.Expr("self.startsWith(\"https://\")")
func Expr(source string) *ExprSchema {
	return &ExprSchema{Source: source}
}

func (s *ExprSchema) compile() (cel.Program, error) {
	s.once.Do(func() {
		// Numbers reach expressions as either int or double depending on
		// how the document was parsed, so comparisons must work across
		// the two kinds.
		env, err := cel.NewEnv(
			cel.Variable("self", cel.DynType),
			cel.CrossTypeNumericComparisons(true),
		)
		if err != nil {
			s.err = err
			return
		}
		ast, iss := env.Compile(s.Source)
		if iss != nil && iss.Err() != nil {
			s.err = iss.Err()
			return
		}
		s.prg, s.err = env.Program(ast)
	})
	return s.prg, s.err
}

func (s *ExprSchema) eval(v any) bool {
	prg, err := s.compile()
	if err != nil {
		return false
	}

	// Big integers and the absence sentinel have no CEL representation.
	if value.IsAbsent(v) {
		return false
	}
	if _, ok := v.(*big.Int); ok {
		return false
	}

	out, _, err := prg.Eval(map[string]any{"self": v})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
