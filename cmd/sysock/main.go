// Package main implements sysock, an interactive shell that drives a
// single readiness-polled TCP transport.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertbit/grumble"
	"github.com/jedib0t/go-pretty/table"
	"go.uber.org/zap"

	"github.com/nczempin/sysock/config"
	"github.com/nczempin/sysock/protocol"
	"github.com/nczempin/sysock/transport"
)

// Global state.
var (
	cfg  *config.Config          // loaded settings
	log  *zap.Logger             // console logger
	conn *transport.SysTransport // the one transport this shell owns
)

// unescape turns Go escapes typed at the prompt ("\r\n", "\x00") into bytes.
func unescape(s string) ([]byte, error) {
	u, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return nil, fmt.Errorf("invalid escape sequence in %q", s)
	}
	return []byte(u), nil
}

// RenderStatusTable formats the transport state into a human-readable table.
func RenderStatusTable(t *transport.SysTransport) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	tw.AppendHeader(table.Row{"Connection ID", "Backend", "State", "Endpoint", "Buffered"})

	state, endpoint := "disconnected", "-"
	if t.Connected() {
		state, endpoint = "connected", t.Endpoint().String()
	}
	tw.AppendRow(table.Row{t.ID().String(), t.Backend().String(), state, endpoint, t.Buffered()})

	return tw.Render()
}

// AddCommands registers all shell commands with the application.
func AddCommands(app *grumble.App) {
	app.AddCommand(&grumble.Command{
		Name:    "connect",
		Aliases: []string{"open"},
		Help:    "connect to an IPv4 endpoint (a.b.c.d:port)",
		Args: func(a *grumble.Args) {
			a.String("endpoint", "target address and port")
		},
		Flags: func(f *grumble.Flags) {
			f.Duration("t", "timeout", 0, "connect timeout (default from config)")
		},
		Run: func(c *grumble.Context) error {
			ep, err := transport.ParseEndpoint(c.Args.String("endpoint"))
			if err != nil {
				return err
			}
			timeout := c.Flags.Duration("timeout")
			if timeout <= 0 {
				timeout = cfg.ConnectTimeoutDuration()
			}

			start := time.Now()
			if err := conn.Connect(ep, timeout); err != nil {
				log.Error("connect failed", zap.Stringer("endpoint", ep), zap.Error(err))
				return nil
			}
			log.Info("connected", zap.Stringer("endpoint", ep), zap.Duration("took", time.Since(start)))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name:    "disconnect",
		Aliases: []string{"close"},
		Help:    "close the connection",
		Run: func(c *grumble.Context) error {
			conn.Disconnect()
			log.Info("disconnected")
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name:    "write",
		Aliases: []string{"send"},
		Help:    `send text; Go escapes such as \r\n are expanded`,
		Args: func(a *grumble.Args) {
			a.StringList("text", "text to send, joined with single spaces")
		},
		Run: func(c *grumble.Context) error {
			data, err := unescape(strings.Join(c.Args.StringList("text"), " "))
			if err != nil {
				return err
			}
			if err := conn.Write(data); err != nil {
				log.Error("write failed", zap.Error(err))
				return nil
			}
			log.Info("sent", zap.Int("bytes", len(data)))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name:    "readtext",
		Aliases: []string{"rt"},
		Help:    "read until the terminator arrives",
		Flags: func(f *grumble.Flags) {
			f.String("T", "terminator", "", `terminator with Go escapes (default from config, usually \r\n)`)
			f.Duration("t", "timeout", 0, "per-read timeout (default from config)")
		},
		Run: func(c *grumble.Context) error {
			term := []byte(cfg.Terminator)
			if s := c.Flags.String("terminator"); s != "" {
				var err error
				if term, err = unescape(s); err != nil {
					return err
				}
			}
			data, err := conn.ReadText(term, readTimeout(c))
			if err != nil {
				log.Error("read failed", zap.Error(err))
				return nil
			}
			c.App.Println(strconv.Quote(string(data)))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name:    "readbin",
		Aliases: []string{"rb"},
		Help:    "read an exact number of bytes and hex-dump them",
		Args: func(a *grumble.Args) {
			a.Int("size", "number of bytes to read")
		},
		Flags: func(f *grumble.Flags) {
			f.Duration("t", "timeout", 0, "per-read timeout (default from config)")
		},
		Run: func(c *grumble.Context) error {
			data, n, err := conn.ReadBinary(c.Args.Int("size"), readTimeout(c))
			if err != nil {
				log.Error("read failed", zap.Error(err))
				return nil
			}
			c.App.Printf("%d bytes\n%s", n, hex.Dump(data))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name: "get",
		Help: "send an HTTP/1.1 GET over the current connection",
		Args: func(a *grumble.Args) {
			a.String("path", "request path", grumble.Default("/"))
		},
		Flags: func(f *grumble.Flags) {
			f.String("H", "host", "", "Host header (default: the endpoint)")
		},
		Run: func(c *grumble.Context) error {
			if !conn.Connected() {
				log.Warn("not connected. Use 'connect <a.b.c.d:port>' first")
				return nil
			}
			host := c.Flags.String("host")
			if host == "" {
				host = conn.Endpoint().String()
			}

			proto := protocol.NewHttp1Protocol(conn, cfg.ReadTimeoutDuration())
			resp, err := proto.PerformRequest(&protocol.HttpRequest{
				Method:  protocol.MethodGet,
				Path:    c.Args.String("path"),
				Headers: []protocol.HttpHeader{{Key: "Host", Value: host}},
			})
			if err != nil {
				log.Error("request failed", zap.Error(err))
				return nil
			}

			c.App.Printf("%d %s\n", resp.StatusCode, resp.StatusMessage)
			for _, h := range resp.Headers {
				c.App.Printf("%s: %s\n", h.Key, h.Value)
			}
			c.App.Println()
			c.App.Println(string(resp.Body))
			return nil
		},
	})

	app.AddCommand(&grumble.Command{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "show the transport state",
		Run: func(c *grumble.Context) error {
			c.App.Println(RenderStatusTable(conn))
			return nil
		},
	})
}

func readTimeout(c *grumble.Context) time.Duration {
	if d := c.Flags.Duration("timeout"); d > 0 {
		return d
	}
	return cfg.ReadTimeoutDuration()
}

// configureLogging builds a console logger at the configured level.
func configureLogging(level zap.AtomicLevel) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = level
	zc.DisableStacktrace = true
	zc.EncoderConfig.TimeKey = ""
	return zc.Build()
}

// setupCLI initializes the command-line interface with basic configuration.
func setupCLI() *grumble.App {
	var histFile string
	home, err := os.UserHomeDir()
	if err != nil {
		histFile = ".sysock_history"
	} else {
		histFile = filepath.Join(home, ".sysock_history")
	}

	app := grumble.New(&grumble.Config{
		Name:        "sysock",
		Description: "interactive readiness-polled TCP transport",
		HistoryFile: histFile,
		Prompt:      "sysock » ",
		Flags: func(f *grumble.Flags) {
			f.String("c", "config", "", "path to configuration file (default "+config.DefaultPath+")")
			f.String("b", "backend", "", "I/O backend: syscall, iouring or ring")
		},
	})

	app.OnInit(func(a *grumble.App, flags grumble.FlagMap) error {
		var err error
		cfg, err = config.LoadConfig(flags.String("config"))
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if b := flags.String("backend"); b != "" {
			cfg.Backend = b
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		if log, err = configureLogging(cfg.Level()); err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		transport.SetLogger(log)

		conn, err = transport.NewSysTransport(cfg.TransportOptions(log.Named("transport"))...)
		if err != nil {
			return fmt.Errorf("failed to create transport: %w", err)
		}
		return nil
	})

	app.OnClose(func() error {
		if conn != nil {
			conn.Destroy()
		}
		if log != nil {
			_ = log.Sync()
		}
		return nil
	})

	return app
}

func main() {
	app := setupCLI()
	AddCommands(app)

	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
