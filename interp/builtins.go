package interp

import (
	"fmt"
	"math"
)

// arg0 is the first argument, or NaN when the declaration took none.
func arg0(args []float64) float64 {
	if len(args) == 0 {
		return math.NaN()
	}
	return args[0]
}

func unary(f func(float64) float64) Extern {
	return func(_ *Machine, args []float64) float64 {
		return f(arg0(args))
	}
}

var builtins = map[string]Extern{
	"putchard": func(m *Machine, args []float64) float64 {
		m.out.Write([]byte{byte(arg0(args))})
		return 0
	},
	"printd": func(m *Machine, args []float64) float64 {
		fmt.Fprintf(m.out, "%f\n", arg0(args))
		return 0
	},
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"sqrt": unary(math.Sqrt),
	"exp":  unary(math.Exp),
	"log":  unary(math.Log),
	"fabs": unary(math.Abs),
}
