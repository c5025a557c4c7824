package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/triads/assets"
	"github.com/robalobadob/triads/internal/auth"
	"github.com/robalobadob/triads/internal/config"
	"github.com/robalobadob/triads/internal/daily"
	"github.com/robalobadob/triads/internal/db"
	"github.com/robalobadob/triads/internal/game"
	"github.com/robalobadob/triads/internal/play"
	"github.com/robalobadob/triads/internal/profile"
	"github.com/robalobadob/triads/internal/puzzle"
	"github.com/robalobadob/triads/internal/store"
	"github.com/robalobadob/triads/internal/words"
)

type fixture struct {
	srv      *Server
	ts       *httptest.Server
	content  *puzzle.Store
	profiles *profile.SQLStore
	daily    *daily.Store
	client   *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn, assets.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := words.Init(); err != nil {
		t.Fatalf("words: %v", err)
	}
	content := puzzle.NewStore(conn, "test-salt")
	if _, err := content.Seed(context.Background(), words.Sets()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := config.Load()
	cfg.Server.ClientOrigin = "http://localhost:5173"
	cfg.Game.DefaultDifficulty = "easy"
	cfg.Game.FeedbackDelay = 10 * time.Millisecond
	cfg.Game.FrameInterval = time.Hour
	cfg.Game.ResizeDebounce = 10 * time.Millisecond

	tables := store.NewMemoryStore()
	f := &fixture{
		content:  content,
		profiles: profile.NewSQLStore(conn),
		daily:    daily.NewStore(conn),
	}
	f.srv = New(Deps{
		Config:   cfg,
		Puzzle:   content,
		Tables:   tables,
		Tokens:   auth.NewTokens(auth.Config{Secret: "test"}),
		Accounts: auth.NewAccounts(conn),
		Profiles: f.profiles,
		Daily:    f.daily,
	})
	f.ts = httptest.NewServer(f.srv.Router())
	t.Cleanup(f.ts.Close)
	t.Cleanup(func() { tables.Sweep(-time.Second) })

	jar, _ := cookiejar.New(nil)
	f.client = &http.Client{Jar: jar}
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, f.ts.URL+path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestHealthAndNotFound(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("expected health ok, got %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("expected CORS origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	rec = httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "not_found") {
		t.Fatalf("expected JSON 404, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	f.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/game/new", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rec.Code)
	}
}

func TestContentAPIThroughClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := puzzle.NewClient(f.ts.URL, nil)

	groups, err := c.FetchCueGroups(ctx, "easy")
	if err != nil || len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %v %v", groups, err)
	}
	if groups[0].CommonWord != "" {
		t.Fatalf("keyword leaked over the wire: %q", groups[0].CommonWord)
	}
	sol, err := f.content.FetchGroupSolutions(ctx, groups[0].SetID)
	if err != nil {
		t.Fatalf("solutions: %v", err)
	}

	if ok, err := c.CheckTriad(ctx, groups[0].Cues[:]); err != nil || !ok {
		t.Fatalf("expected triad, got %v %v", ok, err)
	}
	solved, err := c.CheckAnswer(ctx, groups[0].Cues[:], strings.ToUpper(sol[0].Keyword))
	if err != nil || solved == nil || solved.Keyword != sol[0].Keyword {
		t.Fatalf("expected solved triad, got %+v %v", solved, err)
	}
	wrong, err := c.CheckAnswer(ctx, groups[0].Cues[:], "definitely-not")
	if err != nil || wrong != nil {
		t.Fatalf("expected wrong answer, got %+v %v", wrong, err)
	}
	hint, err := c.FetchHint(ctx, groups[1].Cues[:])
	if err != nil || hint.KeywordLength != len(sol[1].Keyword) {
		t.Fatalf("unexpected hint %+v %v", hint, err)
	}
	bonus, err := c.FetchBonusCues(ctx, []int{groups[0].ID, groups[1].ID, groups[2].ID})
	if err != nil || len(bonus) != 3 || bonus[0].Word != sol[3].Cues[0] {
		t.Fatalf("unexpected bonus %v %v", bonus, err)
	}

	_, err = c.FetchGroupSolutions(ctx, 999)
	var se *puzzle.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	_, err = c.FetchBonusCues(ctx, []int{groups[0].ID})
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	_, err = c.FetchCueGroups(ctx, "impossible")
	var np *game.NoPuzzleError
	if !errors.As(err, &np) {
		t.Fatalf("expected NoPuzzleError, got %v", err)
	}
}

func TestPlayFlow(t *testing.T) {
	f := newFixture(t)

	var view play.View
	if code := f.do(t, http.MethodPost, "/game/new", map[string]any{"difficulty": "easy", "width": 390, "height": 640}, &view); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if len(view.Game.Groups) != 3 || len(view.Board.Bubbles) != 9 {
		t.Fatalf("expected 3 groups on 9 bubbles, got %d / %d", len(view.Game.Groups), len(view.Board.Bubbles))
	}
	if view.Board.Bounds.Width != 390 {
		t.Fatalf("expected requested bounds, got %+v", view.Board.Bounds)
	}
	base := "/game/" + view.ID

	var errBody map[string]string
	if code := f.do(t, http.MethodPost, base+"/answer", map[string]string{"answer": "x"}, &errBody); code != http.StatusConflict || errBody["error"] != "not_accepting" {
		t.Fatalf("expected 409 not_accepting, got %d %v", code, errBody)
	}
	if code := f.do(t, http.MethodPost, base+"/hint", map[string]string{"flavor": "BOGUS"}, &errBody); code != http.StatusBadRequest || errBody["error"] != "invalid_flavor" {
		t.Fatalf("expected 400 invalid_flavor, got %d %v", code, errBody)
	}
	if code := f.do(t, http.MethodPost, base+"/bonus", nil, &errBody); code != http.StatusConflict || errBody["error"] != "not_accepting" {
		t.Fatalf("expected 409 for a bonus retry mid-round, got %d %v", code, errBody)
	}
	if code := f.do(t, http.MethodPost, base+"/click", map[string]int{"cueId": -1}, &errBody); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown cue, got %d", code)
	}

	group := view.Game.Groups[0]
	for _, c := range group.Cues {
		if code := f.do(t, http.MethodPost, base+"/click", map[string]int{"cueId": c.ID}, &view); code != http.StatusOK {
			t.Fatalf("click %d: status %d", c.ID, code)
		}
	}
	if view.Game.State != game.StateAcceptAnswer {
		t.Fatalf("expected ACCEPT_ANSWER, got %s", view.Game.State)
	}

	sol, _ := f.content.FetchGroupSolutions(context.Background(), group.SetID)
	keyword := ""
	for _, st := range sol {
		if st.ID == group.ID {
			keyword = st.Keyword
		}
	}
	if code := f.do(t, http.MethodPost, base+"/answer", map[string]string{"answer": keyword}, &view); code != http.StatusOK {
		t.Fatalf("answer: status %d", code)
	}
	if view.Game.State != game.StateCorrectAnswer || len(view.Game.Solved) != 1 {
		t.Fatalf("expected CORRECT_ANSWER with one solved, got %s %d", view.Game.State, len(view.Game.Solved))
	}

	deadline := time.Now().Add(2 * time.Second)
	for view.Game.State != game.StatePlaying {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for PLAYING, still %s", view.Game.State)
		}
		time.Sleep(10 * time.Millisecond)
		f.do(t, http.MethodGet, base, nil, &view)
	}
	if len(view.Game.Groups) != 2 {
		t.Fatalf("expected 2 groups left, got %d", len(view.Game.Groups))
	}

	if code := f.do(t, http.MethodPost, base+"/resize", map[string]float64{"width": 0}, &errBody); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad size, got %d", code)
	}
	var share map[string]string
	if code := f.do(t, http.MethodGet, base+"/share", nil, &share); code != http.StatusOK || !strings.HasPrefix(share["text"], "Triads") {
		t.Fatalf("unexpected share %d %v", code, share)
	}

	if code := f.do(t, http.MethodDelete, base, nil, nil); code != http.StatusOK {
		t.Fatalf("delete: status %d", code)
	}
	if code := f.do(t, http.MethodGet, base, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestNewTableRejectsUnknownDifficulty(t *testing.T) {
	f := newFixture(t)
	var body map[string]string
	if code := f.do(t, http.MethodPost, "/game/new", map[string]string{"difficulty": "nightmare"}, &body); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", code, body)
	}
}

func TestSignupClaimsGuestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var me profileRes
	if code := f.do(t, http.MethodGet, "/profile/me", nil, &me); code != http.StatusOK || me.GamesPlayed != 0 {
		t.Fatalf("unexpected guest profile %d %+v", code, me)
	}
	guest := game.NewUser("")
	guest.Record(game.TierGreat, time.Now())
	if err := f.profiles.Set(ctx, me.DeviceID, guest); err != nil {
		t.Fatalf("set: %v", err)
	}

	var acc map[string]any
	creds := map[string]string{"username": "ada_l", "password": "correct horse"}
	if code := f.do(t, http.MethodPost, "/auth/signup", creds, &acc); code != http.StatusCreated {
		t.Fatalf("signup: status %d %v", code, acc)
	}
	if code := f.do(t, http.MethodPost, "/auth/signup", creds, nil); code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", code)
	}

	var after profileRes
	f.do(t, http.MethodGet, "/profile/me", nil, &after)
	if after.DeviceID != acc["id"] || after.GamesPlayed != 1 || after.Profile.Username != "ada_l" {
		t.Fatalf("expected claimed profile on account, got %+v", after)
	}
	if left, _ := f.profiles.Get(ctx, me.DeviceID); left != nil {
		t.Fatalf("expected guest profile cleared, got %+v", left)
	}

	var id auth.Identity
	if code := f.do(t, http.MethodGet, "/auth/me", nil, &id); code != http.StatusOK || id.Username != "ada_l" {
		t.Fatalf("unexpected /auth/me %d %+v", code, id)
	}

	f.do(t, http.MethodPost, "/auth/logout", nil, nil)
	if code := f.do(t, http.MethodGet, "/auth/me", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", code)
	}
	if code := f.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "ada_l", "password": "nope nope"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", code)
	}
	if code := f.do(t, http.MethodPost, "/auth/login", creds, nil); code != http.StatusOK {
		t.Fatalf("expected login, got %d", code)
	}

	if code := f.do(t, http.MethodDelete, "/profile/me", nil, nil); code != http.StatusOK {
		t.Fatalf("clear: status %d", code)
	}
	f.do(t, http.MethodGet, "/profile/me", nil, &after)
	if after.GamesPlayed != 0 {
		t.Fatalf("expected empty profile after clear, got %+v", after)
	}
}

func TestDeviceToken(t *testing.T) {
	f := newFixture(t)
	var dev map[string]any
	if code := f.do(t, http.MethodPost, "/auth/device", nil, &dev); code != http.StatusCreated || dev["token"] == "" {
		t.Fatalf("unexpected device response %d %v", code, dev)
	}
	var me profileRes
	f.do(t, http.MethodGet, "/profile/me", nil, &me)
	if me.DeviceID != dev["id"] {
		t.Fatalf("expected profile keyed by device id %v, got %s", dev["id"], me.DeviceID)
	}
	if code := f.do(t, http.MethodGet, "/auth/me", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected device token rejected on /auth/me, got %d", code)
	}
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, r := range []daily.Result{
		{DeviceID: "a", Date: "2024-06-01", SetID: 1, Score: 10, Won: true},
		{DeviceID: "b", Date: "2024-06-01", SetID: 1, Score: 15, Won: true},
		{DeviceID: "c", Date: "2024-06-02", SetID: 2, Score: 3},
	} {
		if err := f.daily.InsertResult(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	var lb leaderboardRes
	if code := f.do(t, http.MethodGet, "/daily/leaderboard?date=2024-06-01", nil, &lb); code != http.StatusOK {
		t.Fatalf("leaderboard: status %d", code)
	}
	if len(lb.Rows) != 2 || lb.Rows[0].DeviceID != "b" {
		t.Fatalf("unexpected rows %+v", lb.Rows)
	}
	if code := f.do(t, http.MethodGet, "/daily/leaderboard?date=June", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", code)
	}

	var today todayRes
	if code := f.do(t, http.MethodGet, "/daily/today", nil, &today); code != http.StatusOK || today.Played {
		t.Fatalf("unexpected today %d %+v", code, today)
	}
}

func TestFinishedGameIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.srv.recordResult(game.Result{SessionID: "s", DeviceID: "dev", SetID: 1, Score: 12, Won: true,
		FinishedAt: time.Date(2024, 6, 3, 22, 0, 0, 0, time.UTC)})
	played, err := f.daily.AlreadyPlayed(context.Background(), "dev", "2024-06-03")
	if err != nil || !played {
		t.Fatalf("expected result recorded, got %v %v", played, err)
	}
}

func TestStream(t *testing.T) {
	f := newFixture(t)
	var view play.View
	f.do(t, http.MethodPost, "/game/new", nil, &view)

	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/game/" + view.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first play.Event
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if first.Type != play.EventState || first.State == nil || len(first.State.Groups) != 3 {
		t.Fatalf("expected initial state event, got %+v", first)
	}

	if err := conn.WriteJSON(map[string]string{"type": "hint", "flavor": "BOGUS"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	cue := view.Game.Groups[0].Cues[0].ID
	if err := conn.WriteJSON(map[string]any{"type": "click", "cueId": cue}); err != nil {
		t.Fatalf("write: %v", err)
	}

	sawError, sawSelect := false, false
	for !sawError || !sawSelect {
		var msg struct {
			Type  string         `json:"type"`
			Error string         `json:"error"`
			State *game.Snapshot `json:"state"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v (error seen %v, select seen %v)", err, sawError, sawSelect)
		}
		switch {
		case msg.Type == "error" && msg.Error == "invalid_flavor":
			sawError = true
		case msg.Type == string(play.EventState) && msg.State != nil && len(msg.State.Selected) == 1:
			sawSelect = true
		}
	}

	bad := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/game/missing/ws"
	if _, resp, err := websocket.DefaultDialer.Dial(bad, nil); err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown table, got %v", err)
	}
}
