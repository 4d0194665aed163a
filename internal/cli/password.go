package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
)

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password recovery and change commands",
	}

	cmd.AddCommand(newPasswordForgotCmd())
	cmd.AddCommand(newPasswordResetCmd())
	cmd.AddCommand(newPasswordUpdateCmd())

	return cmd
}

func newPasswordForgotCmd() *cobra.Command {
	var req request.ForgotPasswordRequest

	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Email a one-time reset code to an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse

			if err := client.Post("/api/v1/password/forgot", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Account email address (required)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newPasswordResetCmd() *cobra.Command {
	var req request.ResetPasswordRequest

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password using an emailed reset code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}

			var result response.AuthResponse
			if err := client.Put("/api/v1/password/reset", req, &result); err != nil {
				return err
			}
			return saveSession(cmd, result)
		},
	}

	cmd.Flags().StringVar(&req.OTP, "code", "", "Reset code from the email (required)")
	cmd.Flags().StringVar(&req.Password, "pass", "", "New password (required)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm", "", "Confirmation of the new password (default: --pass)")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newPasswordUpdateCmd() *cobra.Command {
	var req request.UpdatePasswordRequest

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the current user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.NewPassword
			}

			var result response.AuthResponse
			if err := client.Put("/api/v1/password/update", req, &result); err != nil {
				return err
			}
			return saveSession(cmd, result)
		},
	}

	cmd.Flags().StringVar(&req.OldPassword, "old", "", "Current password (required)")
	cmd.Flags().StringVar(&req.NewPassword, "new", "", "New password (required)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm", "", "Confirmation of the new password (default: --new)")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}
