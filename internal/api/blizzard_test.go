package api

import (
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"

	"pvp-analytics/internal/config"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type fakeArmory struct {
	tokenCalls   atomic.Int32
	profileCalls atomic.Int32
	rejectFirst  atomic.Bool
}

func (f *fakeArmory) handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch {
	case path == "/token":
		n := f.tokenCalls.Add(1)
		if !strings.HasPrefix(string(ctx.Request.Header.Peek("Authorization")), "Basic ") {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}
		ctx.SetContentType("application/json")
		if n == 1 {
			ctx.SetBodyString(`{"access_token":"tok-1","token_type":"bearer","expires_in":86399}`)
		} else {
			ctx.SetBodyString(`{"access_token":"tok-2","token_type":"bearer","expires_in":86399}`)
		}

	case strings.HasPrefix(path, "/profile/wow/character/"):
		f.profileCalls.Add(1)
		if f.rejectFirst.CompareAndSwap(true, false) {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(string(ctx.Request.Header.Peek("Authorization")), "Bearer tok-") {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}
		if string(ctx.QueryArgs().Peek("namespace")) != "profile-us" {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			return
		}
		switch path {
		case "/profile/wow/character/azjol-nerub/alpha":
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{
				"id": 1, "name": "Alpha", "level": 80,
				"character_class": {"id": 1, "name": "Warrior"},
				"active_spec": {"id": 71, "name": "Arms"},
				"race": {"id": 2, "name": "Orc"},
				"faction": {"type": "HORDE", "name": "Horde"},
				"realm": {"name": "Azjol-Nerub", "slug": "azjol-nerub"}
			}`)
		case "/profile/wow/character/azjol-nerub/broken":
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}

	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func newTestClient(t *testing.T) (*BlizzardClient, *fakeArmory) {
	t.Helper()
	armory := &fakeArmory{}
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: armory.handle}
	go server.Serve(ln)
	t.Cleanup(func() { ln.Close() })

	cfg := &config.Config{BlizzardClientID: "id", BlizzardClientSecret: "secret"}
	c := NewBlizzardClient(cfg, zerolog.Nop())
	c.tokenURL = "http://oauth.test/token"
	c.apiHost = "http://%s.api.test"
	c.client.Dial = func(addr string) (net.Conn, error) { return ln.Dial() }
	return c, armory
}

func TestGetPlayerData(t *testing.T) {
	c, armory := newTestClient(t)
	ctx := context.Background()

	profile, err := c.GetPlayerData(ctx, "Azjol-Nerub", "Alpha", "US")
	if err != nil {
		t.Fatalf("GetPlayerData() error = %v", err)
	}
	if profile == nil {
		t.Fatal("GetPlayerData() = nil, want profile")
	}
	if profile.Class != "Warrior" || profile.Spec != "Arms" || profile.Race != "Orc" || profile.Faction != "Horde" {
		t.Errorf("profile = %+v", profile)
	}

	missing, err := c.GetPlayerData(ctx, "Azjol-Nerub", "Nobody", "us")
	if err != nil {
		t.Fatalf("GetPlayerData(missing) error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetPlayerData(missing) = %+v, want nil", missing)
	}

	if _, err := c.GetPlayerData(ctx, "Azjol-Nerub", "Broken", "us"); err == nil {
		t.Error("GetPlayerData(broken) error = nil, want error")
	}

	if got := armory.tokenCalls.Load(); got != 1 {
		t.Errorf("token requested %d times, want 1", got)
	}
}

func TestGetPlayerDataRefreshesRejectedToken(t *testing.T) {
	c, armory := newTestClient(t)
	armory.rejectFirst.Store(true)

	profile, err := c.GetPlayerData(context.Background(), "Azjol-Nerub", "Alpha", "us")
	if err != nil {
		t.Fatalf("GetPlayerData() error = %v", err)
	}
	if profile == nil || profile.Class != "Warrior" {
		t.Errorf("profile = %+v, want Warrior", profile)
	}
	if got := armory.tokenCalls.Load(); got != 2 {
		t.Errorf("token requested %d times, want 2", got)
	}
	if got := armory.profileCalls.Load(); got != 2 {
		t.Errorf("profile requested %d times, want 2", got)
	}
}

func TestRealmSlug(t *testing.T) {
	tests := map[string]string{
		"Stormrage":        "stormrage",
		"Azjol-Nerub":      "azjol-nerub",
		"Kel'Thuzad":       "kelthuzad",
		" Argent Dawn ":    "argent-dawn",
		"Twisting  Nether": "twisting-nether",
	}
	for in, want := range tests {
		if got := RealmSlug(in); got != want {
			t.Errorf("RealmSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNoopEnricher(t *testing.T) {
	profile, err := NoopEnricher{}.GetPlayerData(context.Background(), "Stormrage", "Alpha", "us")
	if profile != nil || err != nil {
		t.Errorf("NoopEnricher.GetPlayerData() = %v, %v; want nil, nil", profile, err)
	}
}
