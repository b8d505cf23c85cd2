package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"

	"github.com/nikhilbhutani/speechgateway/internal/client"
	"github.com/nikhilbhutani/speechgateway/internal/config"
)

type systemClipboard struct{}

func (systemClipboard) ReadText() (string, error) {
	return clipboard.ReadAll()
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var (
		apiURL = flag.String("url", cfg.Client.APIURL, "gateway API base URL")
		token  = flag.String("token", "", "bearer token for gateways with auth enabled")
		text   = flag.String("text", "", "text to speak (default: read stdin)")
		paste  = flag.Bool("paste", false, "take the text from the clipboard")
		player = flag.String("player", "mpg123", "audio player command; empty disables playback")
		out    = flag.String("out", "", "write the MP3 to this file instead of playing it")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *apiURL, *token, *text, *paste, *player, *out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, apiURL, token, text string, paste bool, player, out string) error {
	if out == "" && player == "" {
		return errors.New("nothing to do: set -player or -out")
	}

	store, err := client.NewFileStore("")
	if err != nil {
		return err
	}
	defer os.RemoveAll(store.Dir())

	var playback *client.Playback
	stopped := make(chan struct{}, 1)
	if out == "" {
		playback = client.NewPlayback(client.ExecPlayer(player))
		playback.OnChange(func(s client.PlaybackState) {
			fmt.Fprintf(os.Stderr, "player: playing=%t visible=%t\n", s.IsPlaying, s.IsVisible)
			if !s.IsPlaying {
				select {
				case stopped <- struct{}{}:
				default:
				}
			}
		})
	}

	lc := client.NewLifecycle(client.New(apiURL, client.WithToken(token)), store, playback)
	defer lc.Close()
	lc.OnChange(func(s client.State) {
		switch s.Status {
		case client.StatusSubmitting:
			fmt.Fprintln(os.Stderr, "Generating...")
		case client.StatusFailed:
			fmt.Fprintln(os.Stderr, s.Reason)
		}
	})

	fromStdin := false
	switch {
	case paste:
		if err := lc.Paste(systemClipboard{}); err != nil {
			return err
		}
	case text != "":
		lc.SetText(text)
	default:
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		lc.SetText(string(b))
		fromStdin = true
	}

	if err := lc.Submit(ctx); err != nil {
		if errors.Is(err, client.ErrEmptyText) {
			return errors.New("nothing to say: text is empty")
		}
		return client.ErrSynthesisFailed
	}

	h := lc.State().Handle
	if out != "" {
		return copyFile(h.Path, out)
	}
	if !playback.Ready() {
		return fmt.Errorf("player %q unavailable; use -out to save the audio", player)
	}
	if err := playback.TogglePlay(); err != nil {
		return err
	}
	if fromStdin {
		// stdin is spent; play once and exit.
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		return nil
	}
	return interact(ctx, playback)
}

func interact(ctx context.Context, playback *client.Playback) error {
	fmt.Fprintln(os.Stderr, "commands: p play/pause, v show/hide player, q quit")

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch line {
			case "p":
				if err := playback.TogglePlay(); err != nil {
					slog.Warn("toggle playback", "error", err)
				}
			case "v":
				playback.ToggleVisibility()
			case "q":
				return nil
			}
		}
	}
}

func copyFile(src, dst string) error {
	b, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}
