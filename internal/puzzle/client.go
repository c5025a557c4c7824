// internal/puzzle/client.go
//
// HTTP implementation of game.Puzzle against the content API served by
// internal/httpserver (routes_puzzle.go).
//
// Transport failures and non-2xx responses come back as errors; the session
// wraps them into game.NetworkError. An empty cue response carrying a
// message becomes a game.NoPuzzleError.

package puzzle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/robalobadob/triads/internal/game"
)

// Client talks to a remote content API.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for baseURL. A nil hc gets a 10s timeout client.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

// StatusError is a non-2xx response from the content API.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Path, e.Status, e.Body)
}

type cuesResponse struct {
	Groups  []game.CueGroup `json:"groups"`
	Cues    []game.Cue      `json:"cues"`
	Message string          `json:"message,omitempty"`
}

type checkRequest struct {
	Cues   []game.Cue `json:"cues"`
	Answer string     `json:"answer,omitempty"`
}

type checkResponse struct {
	OK     bool              `json:"ok"`
	Solved *game.SolvedTriad `json:"solved,omitempty"`
}

type bonusRequest struct {
	SolvedIDs []int `json:"solvedIds"`
}

type solutionsResponse struct {
	Solutions []game.SolvedTriad `json:"solutions"`
}

// FetchCueGroups calls GET /api/cues.
func (c *Client) FetchCueGroups(ctx context.Context, difficulty string) ([]game.CueGroup, error) {
	var out cuesResponse
	path := "/api/cues?difficulty=" + url.QueryEscape(difficulty)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Groups) == 0 {
		return nil, &game.NoPuzzleError{Message: out.Message}
	}
	return out.Groups, nil
}

// CheckTriad calls POST /api/triad/check.
func (c *Client) CheckTriad(ctx context.Context, cues []game.Cue) (bool, error) {
	var out checkResponse
	if err := c.do(ctx, http.MethodPost, "/api/triad/check", checkRequest{Cues: cues}, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

// CheckAnswer calls POST /api/answer/check.
func (c *Client) CheckAnswer(ctx context.Context, cues []game.Cue, answer string) (*game.SolvedTriad, error) {
	var out checkResponse
	if err := c.do(ctx, http.MethodPost, "/api/answer/check", checkRequest{Cues: cues, Answer: answer}, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, nil
	}
	return out.Solved, nil
}

// FetchBonusCues calls POST /api/bonus.
func (c *Client) FetchBonusCues(ctx context.Context, solvedIDs []int) ([]game.Cue, error) {
	var out cuesResponse
	if err := c.do(ctx, http.MethodPost, "/api/bonus", bonusRequest{SolvedIDs: solvedIDs}, &out); err != nil {
		return nil, err
	}
	return out.Cues, nil
}

// FetchGroupSolutions calls GET /api/solutions/{setID}.
func (c *Client) FetchGroupSolutions(ctx context.Context, setID int) ([]game.SolvedTriad, error) {
	var out solutionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/solutions/"+strconv.Itoa(setID), nil, &out); err != nil {
		return nil, err
	}
	return out.Solutions, nil
}

// FetchHint calls POST /api/hint.
func (c *Client) FetchHint(ctx context.Context, cues []game.Cue) (game.HintContent, error) {
	var out game.HintContent
	err := c.do(ctx, http.MethodPost, "/api/hint", checkRequest{Cues: cues}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", path, err)
	}
	return nil
}
