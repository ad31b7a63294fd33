package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/stellar-audiodevices/internal/domain/devices"
	"github.com/edumarques81/stellar-audiodevices/internal/infra/api"
)

func (a *app) listDevices(ctx context.Context) error {
	snap, err := a.svc.FetchDevices(ctx)
	if err != nil {
		return fmt.Errorf("fetch devices: %w", err)
	}
	return writeJSON(a.out, snap)
}

func (a *app) watch(ctx context.Context) error {
	store := a.svc.Store()
	id, updates := store.Subscribe()
	defer store.Unsubscribe(id)

	url := a.cfg.Endpoint.WebSocketURL(a.cfg.Channel.Path)
	ch := devices.NewChannel(a.svc, url, devices.WithRetryDelay(a.cfg.Channel.RetryDelay))
	ch.Start(ctx)
	defer ch.Close()

	log.Info().Str("url", url).Msg("Watching audio devices, press Ctrl+C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			fmt.Fprintln(a.out, summarize(snap))
		}
	}
}

func (a *app) volume(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsageFor("volume <source|sink> <index> <level>")
	}
	kind, index, err := parseDevice(args[0], args[1])
	if err != nil {
		return err
	}
	level, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("volume level %q: %w", args[2], err)
	}
	return a.svc.SetVolume(ctx, kind, index, level)
}

func (a *app) mute(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsageFor("mute <source|sink> <index> <true|false>")
	}
	kind, index, err := parseDevice(args[0], args[1])
	if err != nil {
		return err
	}
	mute, err := strconv.ParseBool(args[2])
	if err != nil {
		return fmt.Errorf("mute flag %q: %w", args[2], err)
	}
	return a.svc.ToggleMute(ctx, kind, index, mute)
}

func (a *app) profile(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsageFor("profile <card> <profile>")
	}
	card, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("card index %q: %w", args[0], err)
	}
	profile, err := devices.ParseProfile(args[1])
	if err != nil {
		return err
	}
	return a.svc.SetProfile(ctx, card, profile)
}

func (a *app) setDefault(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsageFor("default <source|sink> <index> <name>")
	}
	kind, index, err := parseDevice(args[0], args[1])
	if err != nil {
		return err
	}
	return a.svc.SetDefault(ctx, kind, index, args[2])
}

func (a *app) request(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	method := fs.String("X", "GET", "HTTP method")
	asText := fs.Bool("text", false, "Print the body as text instead of JSON")
	data := fs.String("d", "", "Request body")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsageFor("request [-X method] [-text] [-d body] <path|url>")
	}

	opts := api.RequestOptions{
		Method:      strings.ToUpper(*method),
		ParseAsText: *asText,
	}
	if *data != "" {
		opts.Body = *data
	}

	if *asText {
		resp, err := api.Send[string](ctx, a.client, fs.Arg(0), opts)
		if err != nil {
			return err
		}
		if resp.Body != nil {
			fmt.Fprintln(a.out, *resp.Body)
		}
		return nil
	}

	resp, err := api.Send[any](ctx, a.client, fs.Arg(0), opts)
	if err != nil {
		return err
	}
	if resp.Body == nil {
		return nil
	}
	return writeJSON(a.out, *resp.Body)
}

func parseDevice(kindArg, indexArg string) (devices.DeviceKind, int, error) {
	kind, err := devices.ParseDeviceKind(kindArg)
	if err != nil {
		return "", 0, err
	}
	index, err := strconv.Atoi(indexArg)
	if err != nil {
		return "", 0, fmt.Errorf("device index %q: %w", indexArg, err)
	}
	return kind, index, nil
}

// summarize renders one line per published snapshot for watch.
func summarize(snap *devices.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ts=%d", snap.Timestamp)
	if d, ok := snap.DefaultSink(); ok {
		fmt.Fprintf(&b, " sink=%q vol=%g muted=%t", d.Description, d.Volume, d.IsMuted)
	}
	if d, ok := snap.DefaultSource(); ok {
		fmt.Fprintf(&b, " source=%q vol=%g muted=%t", d.Description, d.Volume, d.IsMuted)
	}
	fmt.Fprintf(&b, " cards=%d sources=%d sinks=%d", len(snap.Cards), len(snap.Sources), len(snap.Sinks))
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func errUsageFor(form string) error {
	return fmt.Errorf("usage: audioctl %s: %w", form, errUsage)
}
