package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Account and session commands",
	}

	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthMeCmd())
	cmd.AddCommand(newAuthUpdateCmd())

	return cmd
}

// saveSession stores the token of a successful register, login or reset
func saveSession(cmd *cobra.Command, result response.AuthResponse) error {
	if err := cfg.SaveToken(result.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	output(cmd).Print(result)
	return nil
}

func newAuthRegisterCmd() *cobra.Command {
	var req request.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.AuthResponse

			if err := client.Post("/api/v1/register", req, &result); err != nil {
				return err
			}
			return saveSession(cmd, result)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Password, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var req request.LoginRequest
	var as string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/login"
			switch as {
			case "":
			case "admin", "tutor":
				path = "/api/v1/" + as + "/login"
			default:
				return fmt.Errorf("--as must be admin or tutor")
			}

			var result response.AuthResponse
			if err := client.Post(path, req, &result); err != nil {
				return err
			}
			return saveSession(cmd, result)
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Password, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&as, "as", "", "Login endpoint to use: admin, tutor")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and forget the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse

			if err := client.Get("/api/v1/logout", &result); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAuthMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.UserResponse

			if err := client.Get("/api/v1/me", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newAuthUpdateCmd() *cobra.Command {
	var req request.UpdateProfileRequest
	var avatar string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the current user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.UserResponse

			var err error
			if avatar != "" {
				fields := map[string]string{"name": req.Name, "email": req.Email}
				err = client.Upload(http.MethodPut, "/api/v1/me/update", fields, "avatar", avatar, &result)
			} else {
				err = client.Put("/api/v1/me/update", req, &result)
			}
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "New display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "New email address")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Path to a new avatar image")

	return cmd
}
