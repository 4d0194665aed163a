package cli

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/coursehub/internal/api/request"
	"github.com/mcoot/coursehub/internal/api/response"
)

func newVideoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Video commands",
	}

	cmd.AddCommand(newVideoListCmd())
	cmd.AddCommand(newVideoGetCmd())
	cmd.AddCommand(newVideoMineCmd())
	cmd.AddCommand(newVideoUploadCmd())
	cmd.AddCommand(newVideoUpdateCmd())
	cmd.AddCommand(newVideoDeleteCmd())

	return cmd
}

func newVideoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every video",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.VideosResponse

			if err := client.Get("/api/v1/videos", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newVideoGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get video details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.VideoResponse

			if err := client.Get("/api/v1/video/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newVideoMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the videos uploaded by the current tutor",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.VideosResponse

			if err := client.Get("/api/v1/user/videos", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newVideoUploadCmd() *cobra.Command {
	var title, description, file string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a video (tutor only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]string{"title": title, "description": description}
			var result response.VideoResponse

			if err := client.Upload(http.MethodPost, "/api/v1/video/upload", fields, "video", file, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Video title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Video description")
	cmd.Flags().StringVar(&file, "file", "", "Path to the video file (required)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newVideoUpdateCmd() *cobra.Command {
	var req request.UpdateVideoRequest

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a video's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Title == "" && req.Description == "" {
				return fmt.Errorf("--title or --description is required")
			}

			var result response.VideoResponse
			if err := client.Put("/api/v1/video/update/"+url.PathEscape(args[0]), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "New title")
	cmd.Flags().StringVar(&req.Description, "description", "", "New description")

	return cmd
}

func newVideoDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MessageResponse

			if err := client.Delete("/api/v1/video/delete/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
