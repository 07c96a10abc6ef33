package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/schollz/progressbar/v3"
	"github.com/tr1v3r/pkg/log"
	"github.com/urfave/cli/v3"

	"github.com/tr1v3r/dlnactl/internal/client"
	"github.com/tr1v3r/dlnactl/internal/config"
	"github.com/tr1v3r/dlnactl/internal/media"
	"github.com/tr1v3r/dlnactl/internal/monitoring"
	"github.com/tr1v3r/dlnactl/internal/netutil"
	"github.com/tr1v3r/dlnactl/internal/upnp"
	"github.com/tr1v3r/dlnactl/internal/uuid"
)

var cfg config.Config

func main() {
	defer log.Close()

	cfg = config.Load()

	cmd := &cli.Command{
		Name:  "dlnactl",
		Usage: "discover, browse and stream from DLNA media servers",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}
			if id, err := uuid.LoadOrCreate(cfg.InstancePath); err == nil {
				log.Debug("instance id=%s", id)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdDiscover(),
			cmdBrowse(),
			cmdDownload(),
			cmdTransport("play", "start playback on a renderer"),
			cmdTransport("pause", "pause playback on a renderer"),
			cmdTransport("stop", "stop playback on a renderer"),
			cmdWake(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error("%v", err)
		monitoring.GetMetrics().LogMetrics()
		os.Exit(1)
	}
}

func parseClass(s string) (upnp.ServiceClass, error) {
	switch strings.ToLower(s) {
	case "dms", "server":
		return upnp.DMS, nil
	case "dmr", "renderer":
		return upnp.DMR, nil
	default:
		return upnp.DMS, fmt.Errorf("unknown service class %q (want dms or dmr)", s)
	}
}

func cmdDiscover() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "search the local network for media servers or renderers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "class", Value: "dms", Usage: "service class: dms or dmr"},
			&cli.DurationFlag{Name: "wait", Value: 4 * time.Second, Usage: "how long to collect replies"},
			&cli.IntFlag{Name: "repeats", Value: config.DefaultSSDPRepeats, Usage: "extra M-SEARCH datagrams against packet loss"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			class, err := parseClass(cmd.String("class"))
			if err != nil {
				return err
			}
			if ip, err := netutil.FirstUsableIPv4(); err == nil {
				log.Debug("local ip=%s", ip)
			}
			c := client.New(cfg)
			n, err := c.Discover(class, cmd.Duration("wait"), int(cmd.Int("repeats")))
			if err != nil {
				return err
			}
			for i, s := range c.Servers() {
				fmt.Printf("%2d  %s:%d  %q  control=%s\n", i, s.IP, s.Port, s.FriendlyName, s.ControlURL)
			}
			log.Info("discovery done found=%d", n)
			monitoring.GetMetrics().LogMetrics()
			return nil
		},
	}
}

// serverFlags let browse and the transport commands skip discovery when the
// peer is already known.
func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "host", Usage: "server address, skips discovery"},
		&cli.IntFlag{Name: "port", Value: 8200, Usage: "server control port"},
		&cli.StringFlag{Name: "control", Usage: "server control URL path"},
		&cli.IntFlag{Name: "server", Usage: "index into the discovered server list"},
	}
}

// resolveServer returns the target peer, discovering class peers first
// unless --host pins one manually.
func resolveServer(cmd *cli.Command, c *client.Client, class upnp.ServiceClass) (int, media.Server, error) {
	if host := cmd.String("host"); host != "" {
		c.AddServer(host, int(cmd.Int("port")), cmd.String("control"), "")
		s, err := c.ServerInfo(c.ServerCount() - 1)
		return c.ServerCount() - 1, s, err
	}
	if _, err := c.Discover(class, cfg.SSDPWait, cfg.SSDPRepeats); err != nil {
		return 0, media.Server{}, err
	}
	i := int(cmd.Int("server"))
	s, err := c.ServerInfo(i)
	return i, s, err
}

func cmdBrowse() *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Usage:     "list the children of a directory on a media server",
		ArgsUsage: "[objectID]",
		Flags: append(serverFlags(),
			&cli.IntFlag{Name: "start", Usage: "starting index"},
			&cli.IntFlag{Name: "count", Value: config.DefaultBrowseMaxCount, Usage: "maximum entries"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c := client.New(cfg)
			idx, _, err := resolveServer(cmd, c, upnp.DMS)
			if err != nil {
				return err
			}
			objectID := cmd.Args().First()
			if objectID == "" {
				objectID = "0"
			}
			entries, err := c.Browse(idx, objectID, uint32(cmd.Int("start")), int(cmd.Int("count")))
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.IsDirectory {
					fmt.Printf("d  %-8s  %s\n", e.ID, e.Name)
					continue
				}
				size := "?"
				if !e.SizeMissing {
					size = fmt.Sprintf("%d", e.Size)
				}
				fmt.Printf("-  %-8s  %s  [%s, %s bytes]\n", e.ID, e.Name, e.Kind, size)
			}
			return nil
		},
	}
}

func cmdDownload() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "stream a resource URL from a media server into a file",
		ArgsUsage: "<resource-url> [output-file]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rawURL := cmd.Args().First()
			if rawURL == "" {
				return fmt.Errorf("resource URL required")
			}
			e, err := entryFromURL(rawURL)
			if err != nil {
				return err
			}
			out := cmd.Args().Get(1)
			if out == "" {
				out = path.Base(e.URI)
			}

			c := client.New(cfg)
			size, sized, err := c.ReadStart(&e)
			if err != nil {
				return err
			}
			defer c.ReadStop()

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			total := int64(-1)
			if sized {
				total = int64(size)
			}
			bar := progressbar.DefaultBytes(total, "downloading")
			n, err := io.Copy(io.MultiWriter(f, bar), c)
			if err != nil {
				return err
			}
			log.Info("download done file=%s bytes=%d", out, n)
			printTags(out)
			return nil
		},
	}
}

// printTags reports embedded audio metadata of a finished download, when
// the format carries any.
func printTags(file string) {
	f, err := os.Open(file)
	if err != nil {
		return
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil {
		log.Debug("no readable tags file=%s err=%v", file, err)
		return
	}
	log.Info("tags title=%q artist=%q album=%q", m.Title(), m.Artist(), m.Album())
}

func cmdTransport(name, usage string) *cli.Command {
	flags := serverFlags()
	if name == "play" {
		flags = append(flags, &cli.StringFlag{Name: "uri", Usage: "resource to load before playing"})
	}
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c := client.New(cfg)
			_, r, err := resolveServer(cmd, c, upnp.DMR)
			if err != nil {
				return err
			}
			switch name {
			case "play":
				if uri := cmd.String("uri"); uri != "" {
					if err := c.SetTransportURI(r, uri); err != nil {
						return err
					}
				}
				return c.Play(r)
			case "pause":
				return c.Pause(r)
			default:
				return c.Stop(r)
			}
		},
	}
}

func cmdWake() *cli.Command {
	return &cli.Command{
		Name:      "wake",
		Usage:     "send a Wake-on-LAN magic packet to a sleeping server",
		ArgsUsage: "<mac-address>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mac := cmd.Args().First()
			if mac == "" {
				return fmt.Errorf("MAC address required")
			}
			if err := netutil.WakeOnLAN(mac); err != nil {
				return err
			}
			log.Info("magic packet sent mac=%s", mac)
			return nil
		},
	}
}

// entryFromURL builds a download entry from a plain resource URL.
func entryFromURL(rawURL string) (media.Entry, error) {
	e := media.Entry{URI: rawURL}
	if !strings.HasPrefix(rawURL, "http://") {
		return e, fmt.Errorf("resource URL must be http://host:port/path")
	}
	rest := strings.TrimPrefix(rawURL, "http://")
	hostport, _, _ := strings.Cut(rest, "/")
	host, portStr, found := strings.Cut(hostport, ":")
	port := 80
	if found {
		if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil {
			return e, fmt.Errorf("bad port in %q", rawURL)
		}
	}
	if host == "" {
		return e, fmt.Errorf("no host in %q", rawURL)
	}
	e.DownloadHost = host
	e.DownloadPort = port
	return e, nil
}
