package app

import (
	"fmt"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-blogauth"
)

func newUsersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer user accounts",
	}
	cmd.AddCommand(
		newUserStatusCmd(opts, "disable", auth.UserStatusDisabled),
		newUserStatusCmd(opts, "enable", auth.UserStatusActive),
		newUserSessionsCmd(opts),
	)
	return cmd
}

func newUserSessionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <username>",
		Short: "Show how many live sessions an account holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zl, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, zl)
			if err != nil {
				return err
			}
			defer rt.Close()

			counter, ok := rt.repo.Sessions().(auth.SessionCounter)
			if !ok {
				return fmt.Errorf("session store %T can not count sessions", rt.repo.Sessions())
			}

			user, err := rt.repo.Users().GetWithSecret(ctx, args[0])
			if err != nil {
				return err
			}

			n, err := counter.CountByUser(ctx, user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s has %d live session(s)\n", user.Username, n)
			return nil
		},
	}
}

func newUserStatusCmd(opts *options, use string, target auth.UserStatus) *cobra.Command {
	var (
		revoke bool
		reason string
	)

	cmd := &cobra.Command{
		Use:   use + " <username>",
		Short: fmt.Sprintf("Mark an account %s", target),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zl, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg, zl)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.repo.Users().GetWithSecret(ctx, args[0])
			if err != nil {
				return err
			}

			sm := auth.NewUserStateMachine(rt.repo.Users(), rt.repo.Sessions(),
				auth.WithStateMachineLogger(rt.logger),
				auth.WithStateMachineActivitySink(rt.activity),
			)

			transitionOpts := []auth.TransitionOption{auth.WithTransitionReason(reason)}
			if revoke {
				transitionOpts = append(transitionOpts, auth.WithSessionRevocation())
			}

			updated, err := sm.Transition(ctx, auth.ActorRef{ID: "cli", Type: "admin"}, user, target, transitionOpts...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", updated.Username, updated.Status())
			if cfg.Database.Debug {
				fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(updated.Public()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with the status change")
	if target == auth.UserStatusDisabled {
		cmd.Flags().BoolVar(&revoke, "revoke-sessions", false, "Delete every session of the user immediately")
	}
	return cmd
}
