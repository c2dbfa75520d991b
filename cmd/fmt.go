package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inferara/infs/internal/writeback"
)

var (
	fmtWrite bool
	fmtCheck bool
)

// stdinName decides the formatter for standard input.
const stdinName = "<stdin>.wat"

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Format WebAssembly text (.wat, .wast) and Go sources",
	Long: `Format WebAssembly text and Go source files.

With no files, WAT is read from standard input and written to standard output.
Files are validated before formatting; a file with a syntax error is reported
and left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fmtWrite && fmtCheck {
			return fmt.Errorf("--write and --check are mutually exclusive")
		}
		if len(args) == 0 {
			return formatStdin(cmd.InOrStdin(), cmd.OutOrStdout())
		}

		var unformatted int
		for _, path := range args {
			if !writeback.Supported(path) {
				return fmt.Errorf("%s: unsupported file type", path)
			}
			switch {
			case fmtWrite:
				changed, err := writeback.FormatFile(path)
				if err != nil {
					return err
				}
				if changed {
					logger.Info("Formatted.", "file", path)
				}
			case fmtCheck:
				ok, err := isFormatted(path)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), path)
					unformatted++
				}
			default:
				out, err := formatPath(path)
				if err != nil {
					return err
				}
				if _, err := cmd.OutOrStdout().Write(out); err != nil {
					return err
				}
			}
		}
		if unformatted > 0 {
			return fmt.Errorf("%d file(s) need formatting", unformatted)
		}
		return nil
	},
}

func formatStdin(in io.Reader, out io.Writer) error {
	content, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	_, err = out.Write(writeback.FormatBuffer(content, stdinName))
	return err
}

func formatPath(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := writeback.Validate(content, path); err != nil {
		return nil, err
	}
	return writeback.FormatBuffer(content, path), nil
}

func isFormatted(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	out, err := formatPath(path)
	if err != nil {
		return false, err
	}
	return bytes.Equal(content, out), nil
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write result to the source file instead of stdout")
	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "List files whose formatting differs and exit non-zero")
	rootCmd.AddCommand(fmtCmd)
}
