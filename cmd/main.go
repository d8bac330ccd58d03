package main

import "os"

// ExitError is an error that should cause the program to exit with the
// given code.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func main() {
	if c, err := RootCommand.ExecuteC(); err != nil {
		if exit, ok := err.(*ExitError); ok {
			os.Exit(exit.Code)
		}

		c.PrintErrln("Error:", err)
		c.Usage()
		os.Exit(1)
	}
}
