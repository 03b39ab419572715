package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/inkrhythm/internal/batch"
	"github.com/lehigh-university-libraries/inkrhythm/internal/gateway"
	"github.com/lehigh-university-libraries/inkrhythm/internal/intake"
	"github.com/lehigh-university-libraries/inkrhythm/internal/models"
	"github.com/lehigh-university-libraries/inkrhythm/internal/present"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newAppraiseCmd() *cobra.Command {
	var (
		masterPath string
		userPath   string
		format     string
		document   string
		copyReport bool
		stickers   bool
		maxUpload  int64
		width      int
	)

	cmd := &cobra.Command{
		Use:   "appraise",
		Short: "Appraise one practice image against a master copy",
		Long: `Sends the master copy and the practice work to the configured provider and
prints the appraisal. The markdown report can be copied to the system clipboard
and a printable HTML document can be written alongside.`,
		Example: `  # Print a styled report in the terminal
  inkrhythm appraise --master jcg.png --user practice.jpg

  # Machine-readable output
  inkrhythm appraise --master jcg.png --user practice.jpg --format json

  # Copy the markdown report, write the printable document and suggest stickers
  inkrhythm appraise --master jcg.png --user practice.jpg --copy --document report.html --stickers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := batch.ReadImageFile(masterPath, intake.SlotMaster, maxUpload)
			if err != nil {
				return err
			}
			user, err := batch.ReadImageFile(userPath, intake.SlotUser, maxUpload)
			if err != nil {
				return err
			}

			gw, err := gateway.New(gateway.ConfigFromEnv())
			if err != nil {
				return fmt.Errorf("failed to configure gateway: %w", err)
			}

			slog.Info("Appraising", "master", masterPath, "user", userPath)
			result, err := gw.CompareImages(cmd.Context(), master, user)
			if err != nil {
				return fmt.Errorf("failed to appraise: %w", err)
			}

			if err := printAppraisal(cmd, result, format, width); err != nil {
				return err
			}

			if document != "" {
				if err := writeDocument(document, result, master, user); err != nil {
					return err
				}
				slog.Info("Document written", "path", document)
			}

			if copyReport {
				ack := present.NewCopyAck(0)
				defer ack.Stop()
				if err := ack.Copy(present.SystemClipboard{}, result.MarkdownReport); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "已複製！")
			}

			if stickers {
				return printStickers(cmd.Context(), cmd, gw, result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&masterPath, "master", "", "Path to the master copy image (required)")
	cmd.Flags().StringVar(&userPath, "user", "", "Path to the practice image (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, markdown, json, yaml)")
	cmd.Flags().StringVar(&document, "document", "", "Write the printable HTML document to this path")
	cmd.Flags().BoolVar(&copyReport, "copy", false, "Copy the markdown report to the system clipboard")
	cmd.Flags().BoolVar(&stickers, "stickers", false, "Also request sticker copy suggestions")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", intake.DefaultMaxBytes, "Maximum image size in bytes")
	cmd.Flags().IntVar(&width, "width", 100, "Word wrap width for text output")

	_ = cmd.MarkFlagRequired("master")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printAppraisal(cmd *cobra.Command, result *models.AppraisalResult, format string, width int) error {
	out := cmd.OutOrStdout()

	switch format {
	case "text":
		rendered, err := present.RenderTerminal(result, width)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(out, rendered)
		return err
	case "markdown":
		_, err := fmt.Fprintln(out, present.Summary(result))
		return err
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(result)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeDocument(path string, result *models.AppraisalResult, master, user *intake.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	defer file.Close()

	if err := present.RenderDocument(file, result, master, user, false); err != nil {
		return err
	}
	return file.Close()
}

func printStickers(ctx context.Context, cmd *cobra.Command, s present.Suggester, result *models.AppraisalResult) error {
	board := present.NewStickerBoard(ctx, s)
	board.Present(result)
	board.Wait()

	state := board.State()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n書法貼圖工坊 · %s\n", state.Conclusion)
	if state.Failed {
		fmt.Fprintln(out, "  (no suggestions available)")
	}
	for _, line := range state.Lines {
		fmt.Fprintf(out, "  %s\n", line)
	}
	for _, t := range state.Templates {
		fmt.Fprintf(out, "  %s %s %s\n", t.Icon, t.Theme, t.Text)
	}
	return nil
}
