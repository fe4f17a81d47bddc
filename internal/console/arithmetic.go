package console

import (
	"errors"
	"fmt"
	"io"
)

var ErrDivisionByZero = errors.New("division by zero")

const arithmeticRetryMessage = "Arithmetic exception. Try again."

type ArithmeticResult struct {
	Sum        int
	Difference int
	Product    int
	Quotient   int
	Remainder  int
}

func Arithmetic(n, m int) (ArithmeticResult, error) {
	if m == 0 {
		return ArithmeticResult{}, ErrDivisionByZero
	}
	return ArithmeticResult{
		Sum:        n + m,
		Difference: n - m,
		Product:    n * m,
		Quotient:   n / m,
		Remainder:  n % m,
	}, nil
}

// RunArithmetic prompts for two integers until a division succeeds and
// writes the results to out. Any bad answer starts over from the first
// integer.
func RunArithmetic(p *Prompter, out io.Writer) (ArithmeticResult, error) {
	for {
		n, err := p.TryReadInt("Enter the first integer: ")
		if errors.Is(err, ErrInvalidInteger) {
			continue
		}
		if err != nil {
			return ArithmeticResult{}, err
		}
		m, err := p.TryReadInt("Enter the second integer: ")
		if errors.Is(err, ErrInvalidInteger) {
			continue
		}
		if err != nil {
			return ArithmeticResult{}, err
		}

		result, err := Arithmetic(n, m)
		if errors.Is(err, ErrDivisionByZero) {
			fmt.Fprintln(out, arithmeticRetryMessage)
			continue
		}

		fmt.Fprintf(out, "%d + %d = %d\n", n, m, result.Sum)
		fmt.Fprintf(out, "%d - %d = %d\n", n, m, result.Difference)
		fmt.Fprintf(out, "%d * %d = %d\n", n, m, result.Product)
		fmt.Fprintf(out, "%d / %d = %d\n", n, m, result.Quotient)
		fmt.Fprintf(out, "%d %% %d = %d\n", n, m, result.Remainder)
		return result, nil
	}
}
