package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"devdash/internal/model"
)

// newHubClient builds a registered client without a real connection.
// Broadcast and WatchedChannels never touch the conn.
func newHubClient(h *Hub, channels ...string) *Client {
	c := &Client{
		send: make(chan []byte, 8),
		hub:  h,
		subs: make(map[string]bool),
	}
	for _, ch := range channels {
		c.subs[ch] = true
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

type envelope struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
	TS      string          `json:"ts"`
}

func recvEnvelope(t *testing.T, c *Client) envelope {
	t.Helper()
	select {
	case msg := <-c.send:
		var env envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("bad envelope: %v", err)
		}
		return env
	default:
		t.Fatal("expected a queued message")
		return envelope{}
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName("nga", "gdp"); got != "series:NGA:gdp" {
		t.Errorf("expected series:NGA:gdp, got %s", got)
	}
}

func TestParseChannel(t *testing.T) {
	country, indicator, ok := parseChannel("series:NGA:gdp_growth")
	if !ok || country != "NGA" || indicator != "gdp_growth" {
		t.Errorf("parseChannel: got (%s, %s, %v)", country, indicator, ok)
	}

	for _, bad := range []string{"", "series:NGA", "prices:NGA:gdp", "series::gdp", "series:NGA:"} {
		if _, _, ok := parseChannel(bad); ok {
			t.Errorf("expected parse failure for %q", bad)
		}
	}
}

func TestHub_BroadcastFanout(t *testing.T) {
	h := NewHub(nil)
	ch := ChannelName("NGA", "gdp")
	subscriber := newHubClient(h, ch)
	bystander := newHubClient(h, ChannelName("KEN", "gdp"))

	h.Broadcast(ch, json.RawMessage(`[{"year":2020,"value":1}]`))

	env := recvEnvelope(t, subscriber)
	if env.Channel != ch {
		t.Errorf("expected channel %s, got %s", ch, env.Channel)
	}
	if len(bystander.send) != 0 {
		t.Error("unsubscribed client received a broadcast")
	}
}

func TestHub_LatestReplay(t *testing.T) {
	h := NewHub(nil)
	ch := ChannelName("NGA", "gdp")

	if _, ok := h.Latest(ch); ok {
		t.Fatal("expected no envelope before any broadcast")
	}

	h.Broadcast(ch, json.RawMessage(`[]`))
	env, ok := h.Latest(ch)
	if !ok || len(env) == 0 {
		t.Fatal("expected stored envelope after broadcast")
	}
	if _, ok := h.Latest(ChannelName("KEN", "gdp")); ok {
		t.Error("unexpected envelope for a quiet channel")
	}
}

func TestHub_WatchedChannels(t *testing.T) {
	h := NewHub(nil)
	a := ChannelName("NGA", "gdp")
	b := ChannelName("KEN", "inflation")
	newHubClient(h, a, b)
	newHubClient(h, a)

	channels := h.WatchedChannels()
	if len(channels) != 2 {
		t.Fatalf("expected union of 2 channels, got %v", channels)
	}
	seen := map[string]bool{}
	for _, ch := range channels {
		seen[ch] = true
	}
	if !seen[a] || !seen[b] {
		t.Errorf("missing channels in %v", channels)
	}
}

func TestHub_RemoveClientIdempotent(t *testing.T) {
	h := NewHub(nil)
	c := newHubClient(h)

	h.RemoveClient(c)
	h.RemoveClient(c) // second remove must not close the channel twice

	if h.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", h.ClientCount())
	}
}

func TestRefresher_PushesAndSuppresses(t *testing.T) {
	svc := &fakeService{series: map[string]model.Series{"NGA": trendSeries()}}
	h := NewHub(nil)
	ch := ChannelName("NGA", "gdp")
	client := newHubClient(h, ch)

	r := NewRefresher(svc, h, time.Hour, 2000)
	ctx := context.Background()

	r.refreshAll(ctx)
	env := recvEnvelope(t, client)
	if env.Channel != ch {
		t.Fatalf("expected push on %s, got %s", ch, env.Channel)
	}
	var pushed model.Series
	if err := json.Unmarshal(env.Data, &pushed); err != nil {
		t.Fatalf("bad series payload: %v", err)
	}
	if len(pushed) != 3 {
		t.Errorf("expected 3 observations in push, got %d", len(pushed))
	}

	// Unchanged data on the next cycle produces no push.
	r.refreshAll(ctx)
	if len(client.send) != 0 {
		t.Error("expected no push for unchanged series")
	}

	// Changed data does.
	svc.series["NGA"] = append(trendSeries(), model.Observation{Year: 2003, Value: 16, CountryName: "Nigeria", CountryCode: "NGA"})
	r.refreshAll(ctx)
	if len(client.send) != 1 {
		t.Error("expected a push after the series changed")
	}
}

func TestRefresher_SkipsEmptySeries(t *testing.T) {
	svc := &fakeService{series: map[string]model.Series{}}
	h := NewHub(nil)
	newHubClient(h, ChannelName("NGA", "gdp"))

	r := NewRefresher(svc, h, time.Hour, 2000)
	r.refreshAll(context.Background())

	if _, ok := h.Latest(ChannelName("NGA", "gdp")); ok {
		t.Error("expected no broadcast for an empty series")
	}
}
