package cmd

import (
	"fmt"
	"io"
	"maps"
	neturl "net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitclient/packages/capture"
	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
	"github.com/abdul-hamid-achik/hitclient/packages/form"
	"github.com/abdul-hamid-achik/hitclient/packages/history"
	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/output"
	"github.com/abdul-hamid-achik/hitclient/packages/session"
)

// requestFlags are shared by get and post
type requestFlags struct {
	headers      []string
	referrer     string
	accept       []string
	protoVersion string
	secure       bool
	refresh      bool
	noProxyCache bool
	schema       string
	captures     []string
	history      string
	quiet        bool
}

func (f *requestFlags) register(c *cobra.Command) {
	c.Flags().StringArrayVarP(&f.headers, "header", "H", nil, `Extra header "Name: value", repeatable`)
	c.Flags().StringVar(&f.referrer, "referrer", "", "Referer header")
	c.Flags().StringSliceVar(&f.accept, "accept", nil, "Accepted media types, comma-separated")
	c.Flags().StringVar(&f.protoVersion, "version-proto", "", "Protocol version, only HTTP/1.1 is supported")
	c.Flags().BoolVar(&f.secure, "secure", false, "Use TLS")
	c.Flags().BoolVar(&f.refresh, "refresh", false, "Ask caches to revalidate")
	c.Flags().BoolVar(&f.noProxyCache, "no-proxy-cache", false, "Bypass proxy caches")
	c.Flags().StringVar(&f.schema, "schema", "", "Validate the JSON response body against a JSON schema file")
	c.Flags().StringArrayVar(&f.captures, "capture", nil, `Capture a value "name=source[:path]", e.g. id=data.id or rid=header:X-Request-Id`)
	c.Flags().StringVar(&f.history, "history", getEnvString("HITCLIENT_HISTORY", ""), "Record the exchange in a history database, e.g. sqlite://history.db (env: HITCLIENT_HISTORY)")
	c.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Print only the response body")
}

func (f *requestFlags) sessionFlags(addr http.Address) session.Flag {
	flags := addr.Flags()
	if f.refresh {
		flags |= session.FlagRefresh
	}
	if f.noProxyCache {
		flags |= session.FlagBypassProxyCache
	}
	return flags
}

// resolveTarget turns the positional arguments into an address and a path.
// Accepted forms are "<url>", "<path>" (host from config) and "<host[:port]> <path>".
func resolveTarget(args []string, cfg *config.Config, secure bool) (http.Address, string, error) {
	var (
		addr http.Address
		path string
		err  error
	)

	switch {
	case len(args) == 2:
		addr, err = http.ParseAddress(args[0])
		if err != nil {
			return addr, "", err
		}
		path = args[1]

	case len(args) == 1 && strings.Contains(args[0], "://"):
		addr, err = http.ParseAddress(args[0])
		if err != nil {
			return addr, "", err
		}
		u, _ := neturl.Parse(args[0])
		path = u.RequestURI()

	case len(args) == 1:
		if cfg.Port < 0 || cfg.Port > 65535 {
			return addr, "", withExitCode(ExitConfigError, fmt.Errorf("invalid port %d", cfg.Port))
		}
		addr = http.Address{Host: cfg.Host, Port: uint16(cfg.Port)}
		path = args[0]

	default:
		return addr, "", withExitCode(ExitUsageError, fmt.Errorf("expected <url>, <path> or <host[:port]> <path>"))
	}

	if secure || cfg.GetSecure() {
		addr.Secure = true
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return addr, path, nil
}

// parseHeaders parses "Name: value" pairs
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid header %q, expected \"Name: value\"", v))
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// builderRequest is satisfied by http.GetRequest and http.PostRequest
type builderRequest[R any] interface {
	Version(version string) R
	Referrer(referrer string) R
	AcceptTypes(types ...string) R
	Flags(flags session.Flag) R
	Header(key, value string) R
}

// configure applies the shared flags to a request value
func configure[R builderRequest[R]](req R, f *requestFlags, flags session.Flag, headers map[string]string) R {
	req = req.Flags(flags)
	if f.protoVersion != "" {
		req = req.Version(f.protoVersion)
	}
	if f.referrer != "" {
		req = req.Referrer(f.referrer)
	}
	if len(f.accept) > 0 {
		req = req.AcceptTypes(f.accept...)
	}
	for _, name := range slices.Sorted(maps.Keys(headers)) {
		req = req.Header(name, headers[name])
	}
	return req
}

// sendFunc sends one request on conn
type sendFunc func(conn *http.Connection, path string, flags session.Flag, headers map[string]string) (*http.Reader, error)

// exchange runs a single request through a fresh builder and reports it
func exchange(cmd *cobra.Command, method string, args []string, f *requestFlags, fields []form.Field, send sendFunc) error {
	args = slices.Clone(args)
	for i := range args {
		args[i] = app.resolver.Resolve(args[i])
	}
	addr, path, err := resolveTarget(args, app.config, f.secure)
	if err != nil {
		return err
	}

	opts, err := app.sessionOptions()
	if err != nil {
		return err
	}

	var captures []capture.Capture
	for _, def := range f.captures {
		c, err := capture.Parse(def)
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		captures = append(captures, c)
	}

	headers, err := requestHeaders(f)
	if err != nil {
		return err
	}

	ex := &output.Exchange{
		Method:  method,
		URL:     addr.String() + path,
		Headers: headers,
		Fields:  fields,
		SentAt:  time.Now(),
	}

	b := http.NewBuilder(app.config.UserAgent, opts...)
	defer b.Close()

	conn, err := b.Connect(addr.Host, addr.Port)
	if err == nil {
		var reader *http.Reader
		reader, err = send(conn, path, f.sessionFlags(addr), headers)
		if err == nil {
			ex.Response, err = reader.Response()
		}
	}
	ex.Err = err

	if ex.Response != nil {
		ex.Captures = capture.ExtractAll(ex.Response, captures)
		if f.schema != "" {
			ex.SchemaErr = capture.ValidateSchema(ex.Response, f.schema, app.config.BaseDir)
		}
	}

	record(f, ex, requestBytes(fields, app.config.BaseDir))

	formatter := app.formatter(cmd.OutOrStdout(), f.quiet)
	formatter.FormatExchange(ex)
	if fl, ok := formatter.(output.Flushable); ok {
		if err := fl.Flush(); err != nil {
			return err
		}
	}

	switch {
	case ex.Err != nil:
		return reported(exitCode(ex.Err), ex.Err)
	case ex.SchemaErr != nil:
		return reported(ExitRequestFailure, ex.SchemaErr)
	case !ex.Response.IsSuccess():
		return reported(ExitRequestFailure, fmt.Errorf("%s", ex.Response.Status))
	}
	return nil
}

// requestHeaders merges config headers with flag headers and resolves variables
func requestHeaders(f *requestFlags) (map[string]string, error) {
	flagHeaders, err := parseHeaders(f.headers)
	if err != nil {
		return nil, err
	}
	headers := maps.Clone(app.config.Headers)
	if headers == nil {
		headers = make(map[string]string, len(flagHeaders))
	}
	maps.Copy(headers, flagHeaders)
	return app.resolver.ResolveAll(headers), nil
}

// record writes the exchange to the history database when one is configured
func record(f *requestFlags, ex *output.Exchange, reqBytes int) {
	conn := f.history
	if conn == "" {
		conn = app.config.HistoryDB
	}
	if conn == "" {
		return
	}

	store, err := history.Open(conn)
	if err != nil {
		app.logger.Warn().Err(err).Msg("history disabled")
		return
	}
	defer store.Close()

	entry := history.Entry{
		SentAt:       ex.SentAt,
		Method:       ex.Method,
		URL:          ex.URL,
		RequestBytes: reqBytes,
	}
	if ex.Response != nil {
		entry.Status = ex.Response.StatusCode
		entry.Duration = ex.Response.Duration
		entry.ResponseBytes = len(ex.Response.Body)
	}
	if ex.Err != nil {
		entry.Error = ex.Err.Error()
		if kind := session.KindOf(ex.Err); kind != session.ErrNone {
			entry.ErrorKind = kind.String()
		}
	}

	if _, err := store.Record(entry); err != nil {
		app.logger.Warn().Err(err).Msg("failed to record history")
	}
}

// requestBytes estimates the payload size of fields
func requestBytes(fields []form.Field, baseDir string) int {
	n := 0
	for _, field := range fields {
		switch field.Kind {
		case form.KindText:
			n += len(field.Value)
		case form.KindBlob:
			n += len(field.Data)
		case form.KindFile:
			path := field.Value
			if baseDir != "" && !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			if info, err := os.Stat(path); err == nil {
				n += int(info.Size())
			}
		}
	}
	return n
}

// readBlob loads a blob field's data from path, or stdin for "-"
func readBlob(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
