package cli

import (
	"fmt"
	"text/tabwriter"

	"loyalty/internal/auth"
	"loyalty/internal/database"
	"loyalty/internal/domain"
	"loyalty/internal/models"
	"loyalty/internal/repository"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and seed defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.db()
			if err != nil {
				return err
			}
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := database.Seed(cmd.Context(), db); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database migrated and seeded")
			return nil
		},
	}
}

// LevelFile is the TOML layout read by "levels apply":
//
//	[[level]]
//	from = 1
//	to = 3
//	percentage = "10.00"
//	total = "30.00"
type LevelFile struct {
	Level []models.LevelConfig `toml:"level"`
}

func newLevelsCmd(e *env) *cobra.Command {
	levels := &cobra.Command{
		Use:   "levels",
		Short: "Show or replace the level percentage table",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the level table in effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := e.app(cmd.Context())
			if err != nil {
				return err
			}
			printLevels(cmd, app.Levels.Current())
			return nil
		},
	}

	var file string
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Replace the level table from a TOML file",
		Long:  `Validates all five rows and replaces the table in one transaction. Nothing is written when any row is rejected.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var lf LevelFile
			if _, err := toml.DecodeFile(file, &lf); err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			app, err := e.app(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := app.Levels.Replace(cmd.Context(), lf.Level)
			if err != nil {
				return err
			}
			printLevels(cmd, rows)
			return nil
		},
	}
	apply.Flags().StringVarP(&file, "file", "f", "", "path to the level TOML file")
	_ = apply.MarkFlagRequired("file")

	levels.AddCommand(show, apply)
	return levels
}

func printLevels(cmd *cobra.Command, rows []models.LevelConfig) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FROM\tTO\tPER LEVEL\tRANGE TOTAL")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", r.LevelFrom, r.LevelTo, r.CPPercentagePerLevel.StringFixed(2), r.TotalPercentageForRange.StringFixed(2))
	}
	_ = w.Flush()
}

func newSweepCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the unlock gate for every member out of sync with the referral graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := e.app(cmd.Context())
			if err != nil {
				return err
			}
			report, err := app.Sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "candidates=%d unlocked=%d released=%s failed=%d\n",
				report.Candidates, report.Unlocked, report.Released.StringFixed(2), report.Failed)
			return nil
		},
	}
}

func newUnlockCmd(e *env) *cobra.Command {
	var memberID uint
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Run the unlock gate for one member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := e.app(cmd.Context())
			if err != nil {
				return err
			}
			res, err := app.Sweeper.Unlock(cmd.Context(), memberID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "member=%d referrals=%d->%d level=%d->%d released=%s\n",
				res.MemberID, res.PreviousReferrals, res.NewReferrals, res.PreviousLevel, res.NewLevel, res.Released.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().UintVar(&memberID, "member", 0, "member ID")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newTokenCmd(e *env) *cobra.Command {
	var memberID uint
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.db()
			if err != nil {
				return err
			}
			m, err := repository.NewMemberRepository(db).GetByID(cmd.Context(), memberID)
			if err != nil {
				return err
			}
			token, err := auth.GenerateAccessToken(&e.config().JWT, m.ID, m.Email, m.Role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().UintVar(&memberID, "member", 0, "member ID")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}

func newPromoteCmd(e *env) *cobra.Command {
	var (
		memberID uint
		demote   bool
	)
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant or revoke the admin role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.db()
			if err != nil {
				return err
			}
			role := domain.RoleAdmin
			if demote {
				role = domain.RoleMember
			}
			if err := repository.NewMemberRepository(db).UpdateRole(cmd.Context(), memberID, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "member %d is now %s\n", memberID, role)
			return nil
		},
	}
	cmd.Flags().UintVar(&memberID, "member", 0, "member ID")
	cmd.Flags().BoolVar(&demote, "demote", false, "revoke the admin role instead")
	_ = cmd.MarkFlagRequired("member")
	return cmd
}
