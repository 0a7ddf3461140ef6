package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	gateerrors "github.com/rungate/rungate/internal/errors"
	"github.com/rungate/rungate/internal/rule"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the rule table",
}

var rulesNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Write a starter rule table",
	Long: `Write the built-in default rule table to a file so it can be
edited. Refuses to overwrite an existing file unless --force is given.`,
	RunE: runRulesNew,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compile and validate a rule table",
	RunE:  runRulesValidate,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the effective rules and their scope",
	RunE:  runRulesShow,
}

var (
	rulesFile     string
	rulesNewForce bool
)

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesFile, "rules", rule.DefaultTableFile, "rule table file")
	rulesNewCmd.Flags().BoolVar(&rulesNewForce, "force", false, "overwrite an existing rule table")

	rulesCmd.AddCommand(rulesNewCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesNew(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(rulesFile); err == nil && !rulesNewForce {
		return gateerrors.New(gateerrors.ErrCodeFileWriteFailed,
			fmt.Sprintf("rule table %s already exists", rulesFile)).
			WithSuggestion("Pass --force to overwrite it")
	}

	if err := rule.Save(rule.DefaultTable(), rulesFile); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", rulesFile)
	return nil
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	table, err := rule.Load(rulesFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule(s) OK\n", rulesFile, len(table.Rules))
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd, rulesFile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tENTRY\tTIMEOUT\tSCOPE")
	for i := range table.Rules {
		r := &table.Rules[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Kind, r.Entry, r.EffectiveTimeout(), ruleScope(r))
	}
	return w.Flush()
}

// ruleScope renders a rule's file scope in one line.
func ruleScope(r *rule.Rule) string {
	var parts []string
	if len(r.Types) > 0 {
		parts = append(parts, "types="+strings.Join(r.Types, ","))
	}
	if r.Pattern != "" {
		parts = append(parts, "pattern="+r.Pattern)
	}
	if r.Exclude != "" {
		parts = append(parts, "exclude=yes")
	}
	return strings.Join(parts, " ")
}
