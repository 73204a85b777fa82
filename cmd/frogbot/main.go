// Command frogbot plays frog levels through the REST API. It is useful for
// smoke testing a running server and for checking that a level can be won.
//
//	frogbot --url http://localhost:8080 --config frog --games 3 --chase-flies
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
)

var log = logrus.WithField("component", "frogbot")

// Client talks to one session on the puzzle server.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// frogView is a game state whose level is decoded as a frog level.
type frogView struct {
	engine.GameState
	Level *engine.FrogState `json:"level"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// CreateSession starts a session on configID and remembers its id.
func (c *Client) CreateSession(ctx context.Context, configID string, seed int64) (*frogView, error) {
	var info struct {
		ID        string    `json:"id"`
		GameState *frogView `json:"game_state"`
	}
	req := map[string]any{"config_id": configID, "seed": seed}
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, err
	}
	if info.GameState == nil || info.GameState.Kind != engine.KindFrog {
		return nil, fmt.Errorf("config %q is not a frog level", configID)
	}
	c.sessionID = info.ID
	return info.GameState, nil
}

func (c *Client) State(ctx context.Context) (*frogView, error) {
	var st frogView
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+c.sessionID+"/state", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

type actionResult struct {
	Outcome   *engine.Outcome `json:"outcome"`
	GameState *frogView       `json:"game_state"`
}

func (c *Client) Move(ctx context.Context, d grid.Direction) (*frogView, error) {
	var res actionResult
	req := map[string]string{"direction": string(d)}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+c.sessionID+"/move", req, &res); err != nil {
		return nil, err
	}
	if res.Outcome != nil && !res.Outcome.Accepted {
		return res.GameState, fmt.Errorf("hop %s was blocked", d)
	}
	return res.GameState, nil
}

func (c *Client) Reset(ctx context.Context) (*frogView, error) {
	var res actionResult
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+c.sessionID+"/reset", nil, &res); err != nil {
		return nil, err
	}
	return res.GameState, nil
}

// GameResult summarizes one played attempt.
type GameResult struct {
	Attempt int
	Won     bool
	Stars   int
	Hops    int
	Flies   int
}

// Player drives a session with a strategy.
type Player struct {
	Client   *Client
	Strategy SafeStrategy
	Delay    time.Duration
}

// Play hops until the level ends or the strategy runs out of safe hops.
func (p *Player) Play(ctx context.Context, st *frogView) (*GameResult, error) {
	for !st.Completed && !st.GameOver {
		if st.Level == nil {
			return nil, fmt.Errorf("state has no frog level")
		}
		dir, ok := p.Strategy.NextMove(st.Level)
		if !ok {
			log.WithField("frog", st.Level.Frog).Warn("no safe hop left")
			break
		}

		next, err := p.Client.Move(ctx, dir)
		if err != nil {
			return nil, err
		}
		st = next
		log.WithFields(logrus.Fields{
			"direction": dir,
			"frog":      st.Level.Frog,
			"flies":     st.Level.FliesEaten,
		}).Debug("hopped")

		if p.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.Delay):
			}
			// Flies spawn and expire between hops.
			if st, err = p.Client.State(ctx); err != nil {
				return nil, err
			}
		}
	}

	res := &GameResult{Attempt: st.Attempt, Won: st.Completed, Stars: st.Stars}
	if st.Level != nil {
		res.Hops = st.Level.Hops
		res.Flies = st.Level.FliesEaten
	}
	return res, nil
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "frogbot",
		Usage:  "play frog levels through the REST API",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "puzzle server URL"},
			&cli.StringFlag{Name: "config", Value: "frog", Usage: "frog config id"},
			&cli.Int64Flag{Name: "seed", Usage: "session seed (0 picks one)"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "attempts to play"},
			&cli.BoolFlag{Name: "chase-flies", Usage: "go after flies before the worm"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between hops"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("v") {
		logrus.SetLevel(logrus.DebugLevel)
	}

	client := NewClient(cmd.String("url"))
	st, err := client.CreateSession(ctx, cmd.String("config"), cmd.Int64("seed"))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	log.WithField("session", client.sessionID).Info("session created")

	player := &Player{
		Client:   client,
		Strategy: SafeStrategy{ChaseFlies: cmd.Bool("chase-flies")},
		Delay:    cmd.Duration("delay"),
	}

	w := cmd.Root().Writer
	wins := 0
	for i := 0; i < cmd.Int("games"); i++ {
		if i > 0 {
			if st, err = client.Reset(ctx); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
		res, err := player.Play(ctx, st)
		if err != nil {
			return err
		}
		if res.Won {
			wins++
		}
		fmt.Fprintf(w, "Attempt %d: won=%t stars=%d hops=%d flies=%d\n",
			res.Attempt, res.Won, res.Stars, res.Hops, res.Flies)
	}
	fmt.Fprintf(w, "Session %s: %d/%d won\n", client.sessionID, wins, cmd.Int("games"))

	if wins == 0 {
		return fmt.Errorf("no attempt was won")
	}
	return nil
}

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Error("frogbot failed")
		os.Exit(1)
	}
}
