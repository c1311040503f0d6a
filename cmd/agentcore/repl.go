package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// repl reads the user prompts line by line until "exit" or the end of input,
// and prints the answers.
func repl(ctx context.Context, in io.Reader, out io.Writer, name, banner, farewell string, answer func(context.Context, string) (string, error)) error {
	fmt.Fprintf(out, "\n%s\n", banner)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "\nYou > ")
		if !scanner.Scan() {
			break
		}
		prompt := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(prompt, "exit") {
			fmt.Fprintln(out, farewell)
			return nil
		}
		if prompt == "" {
			continue
		}

		res, err := answer(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "\n%s > error: %s\n", name, err.Error())
			continue
		}
		fmt.Fprintf(out, "\n%s > %s\n", name, res)
	}
	return scanner.Err()
}
