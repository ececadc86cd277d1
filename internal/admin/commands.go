package admin

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/seed"
	"github.com/dmitrijs2005/studyshelf/internal/server/services"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.deps.Migrator.RunMigrations(cmd.Context(), opts.deps.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.deps.Migrator.RollbackMigration(cmd.Context(), opts.deps.DB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "latest migration rolled back")
			return nil
		},
	})
	return cmd
}

func NewSeedSubjectsCommand(opts *RootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-subjects",
		Short: "Load the subject vocabulary into the database",
		Long: `Load the subject vocabulary into the database.

Without --file the built-in list is used. Existing subjects keep their
names; their position is updated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects, err := loadSubjects(file)
			if err != nil {
				return err
			}
			if err := opts.deps.Vocabulary.Seed(cmd.Context(), subjects); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d subjects\n", len(subjects))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML vocabulary file")
	return cmd
}

func loadSubjects(file string) ([]models.Subject, error) {
	if file == "" {
		return seed.Subjects()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return seed.ParseSubjects(data)
}

func NewSubjectsCommand(opts *RootOptions) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "List the subjects of an academic year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := opts.deps.Vocabulary.Subjects(cmd.Context(), year)
			if err != nil {
				return err
			}
			for i, n := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s\n", i+1, n)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 1, "academic year (1-4)")
	return cmd
}

func NewCreateUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user [username]",
		Short: "Create an account, prompting for its password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				var err error
				name, err = GetSimpleText(bufio.NewReader(cmd.InOrStdin()), "Username", cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			pw, err := GetNewPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			u, err := opts.deps.Users.Register(cmd.Context(), services.Credentials{
				UserName: strings.TrimSpace(name),
				Password: string(pw),
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.UserName, u.ID)
			return nil
		},
	}
	return cmd
}
