package cmd

import (
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/form"
	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

var (
	postFlags      requestFlags
	postFieldFlags []string
	postFileFlags  []string
	postBlobFlags  []string
)

var postCmd = &cobra.Command{
	Use:   "post <url> | <path> | <host[:port]> <path>",
	Short: "Send a multipart/form-data POST request",
	Long: `Send a POST request whose body is a multipart/form-data form.

Fields:
  --field name=value                 text field
  --file  name=path[;mime]           file read from disk, MIME type inferred when omitted
  --blob  name=path;mime|filename    bytes read from path ("-" for stdin) sent as a file

Values go through variable interpolation ({{name}}, ${ENV}).

Examples:
  hitclient post api/forgotpassword --field email=user@example.com
  hitclient post localhost:8000 /upload --file avatar=./me.png;image/png
  echo hello | hitclient post /notes --blob "note=-;text/plain|note.txt"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: postCommand,
}

func init() {
	postFlags.register(postCmd)
	postCmd.Flags().StringArrayVarP(&postFieldFlags, "field", "F", nil, "Text field name=value, repeatable")
	postCmd.Flags().StringArrayVar(&postFileFlags, "file", nil, "File field name=path[;mime], repeatable")
	postCmd.Flags().StringArrayVar(&postBlobFlags, "blob", nil, "Blob field name=path;mime|filename, repeatable")
}

func postCommand(cmd *cobra.Command, args []string) error {
	fields, err := parseFormFlags(postFieldFlags, postFileFlags, postBlobFlags, cmd.InOrStdin())
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	return exchange(cmd, nethttp.MethodPost, args, &postFlags, fields,
		func(conn *http.Connection, path string, flags session.Flag, headers map[string]string) (*http.Reader, error) {
			req := configure(conn.Post(path), &postFlags, flags, headers)
			for _, field := range fields {
				req = req.AddFormData(field.Name, field)
			}
			return req.Send()
		})
}

// parseFormFlags builds form fields from the --field, --file and --blob flags
func parseFormFlags(texts, files, blobs []string, stdin io.Reader) ([]form.Field, error) {
	var fields []form.Field

	for _, def := range texts {
		name, value, err := splitField(def)
		if err != nil {
			return nil, err
		}
		fields = append(fields, form.Text(name, app.resolver.Resolve(value)))
	}

	for _, def := range files {
		name, value, err := splitField(def)
		if err != nil {
			return nil, err
		}
		path, mime, _ := strings.Cut(value, ";")
		fields = append(fields, form.File(name, app.resolver.Resolve(path), strings.TrimSpace(mime)))
	}

	for _, def := range blobs {
		name, value, err := splitField(def)
		if err != nil {
			return nil, err
		}
		path, meta, ok := strings.Cut(value, ";")
		if !ok {
			return nil, fmt.Errorf("blob %q must be name=path;mime|filename", def)
		}
		mime, filename, ok := strings.Cut(meta, "|")
		if !ok {
			return nil, fmt.Errorf("blob %q must be name=path;mime|filename", def)
		}
		path = app.resolver.Resolve(path)
		if filename == "" && path != "-" {
			filename = form.BaseName(path)
		}
		data, err := readBlob(path, stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read blob %q: %w", name, err)
		}
		fields = append(fields, form.Blob(name, data, mime, filename))
	}

	return fields, nil
}

func splitField(def string) (string, string, error) {
	name, value, ok := strings.Cut(def, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid field %q, expected name=value", def)
	}
	return name, value, nil
}
