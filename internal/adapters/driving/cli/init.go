package cli

import (
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a commented default config file",
	Annotations: map[string]string{standalone: "true"},
	RunE:        runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	loader, err := newLoader()
	if err != nil {
		return err
	}
	if err := loader.Init(initForce); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", loader.Path())
	cmd.Println("Set notes_dir and add [[rules]], then run: notewatch scan")
	return nil
}
