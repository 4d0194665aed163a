package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "User administration commands (admin only)",
	}

	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserGetCmd())
	cmd.AddCommand(newUserRoleCmd())
	cmd.AddCommand(newUserDeleteCmd())

	return cmd
}

func userPath(id string) string {
	return "/api/v1/admin/user/" + url.PathEscape(id)
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.UsersResponse

			if err := client.Get("/api/v1/admin/users", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newUserGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.UserResponse

			if err := client.Get(userPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newUserRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "role <id> <user|tutor|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.UserResponse

			req := request.UpdateRoleRequest{Role: args[1]}
			if err := client.Put(userPath(args[0]), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse

			if err := client.Delete(userPath(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
