package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eventatlas/eventatlas/app"
	"github.com/spf13/cobra"
)

var ANSWERS = map[string]bool{
	"y":   true,
	"yes": true,
	"n":   false,
	"no":  false,
}

func prompt(cmd *cobra.Command, q string) bool {
	fmt.Fprint(cmd.OutOrStdout(), "> "+q+" [Y/N] ")
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return ANSWERS[strings.ToLower(strings.TrimSpace(answer))]
}

// printJSON writes v indented to the command output
func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(b))
	return nil
}

// withApp builds the application without starting its servers, fn runs before clients are released
func withApp(fn func(a *app.Application) error) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
