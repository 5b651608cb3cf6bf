package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/utcp/internal/codec"
)

func init() {
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode an envelope back to the original document",
		Long: "Decode a UTCP envelope, a split index (parts are read from the index's directory)\n" +
			"or plain text. Writes the result to -o, or to the envelope path without .utcp.",
		Args: cobra.ExactArgs(1),
		Run:  runDecode,
	}

	cmd.Flags().StringP("output", "o", "", "Output path")
	cmd.Flags().Bool("stdout", false, "Write the decoded document to stdout instead of a file")

	RootCmd.AddCommand(cmd)
}

type decodeSummary struct {
	Path         string             `json:"path"`
	Output       string             `json:"output,omitempty"`
	Format       string             `json:"format"`
	Size         int                `json:"size"`
	Verified     bool               `json:"verified"`
	Verification codec.Verification `json:"verification"`
}

func runDecode(cmd *cobra.Command, args []string) {
	path := args[0]
	out, _ := cmd.Flags().GetString("output")
	toStdout, _ := cmd.Flags().GetBool("stdout")

	d, err := decodeFile(cmd.Context(), path, out)
	if err != nil {
		exitErr("decode", err)
	}

	if toStdout {
		fmt.Print(d.Content)
		return
	}
	if err := os.WriteFile(d.OutputFilename, []byte(d.Content), 0o644); err != nil {
		exitErr("write output", err)
	}

	sum := decodeSummary{
		Path:         path,
		Output:       d.OutputFilename,
		Format:       string(d.Format),
		Size:         len(d.Content),
		Verified:     d.Verified(),
		Verification: d.Verification,
	}
	if jsonOutput() {
		printJSON(sum)
		return
	}
	fmt.Println(headStyle.Render("Decoded " + path))
	fmt.Println(field("format", sum.Format))
	fmt.Println(field("size", bytesOf(sum.Size)))
	fmt.Println(field("output", sum.Output))
	fmt.Println(field("verification", status(sum.Verified, "ok", "FAILED")))
	fmt.Println(labelStyle.Render("") + " " + checksLine(sum.Verification))
}

// decodeFile decodes the envelope at path, loading split parts from the
// same directory.
func decodeFile(ctx context.Context, path, output string) (*codec.Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return codec.Decode(ctx, string(data), path, codec.DecodeOptions{
		OutputFilename: output,
		LoadPart:       dirLoader(filepath.Dir(path)),
		Logger:         newLogger(),
	})
}

func dirLoader(dir string) codec.PartLoader {
	return func(ctx context.Context, name string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		// Index entries are base names; never follow a path out of dir.
		b, err := os.ReadFile(filepath.Join(dir, filepath.Base(name)))
		if err != nil {
			return "", fmt.Errorf("load part %s: %w", name, err)
		}
		return string(b), nil
	}
}
