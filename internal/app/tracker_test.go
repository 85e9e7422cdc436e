package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"rebellion/internal/domain"
)

type nameCall struct {
	PlayerID string
	Name     string
}

type broadcastCall struct {
	Seconds int
	Text    string
}

// fakeHost records what the tracker asks of the game server
type fakeHost struct {
	world *World

	mu         sync.Mutex
	names      []nameCall
	broadcasts []broadcastCall
}

func newFakeHost() *fakeHost {
	return &fakeHost{world: NewWorld()}
}

func (h *fakeHost) SetDisplayName(playerID, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.names = append(h.names, nameCall{PlayerID: playerID, Name: name})
}

func (h *fakeHost) Broadcast(seconds int, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts = append(h.broadcasts, broadcastCall{Seconds: seconds, Text: text})
}

func (h *fakeHost) Players() []domain.PlayerState {
	return h.world.Players()
}

func (h *fakeHost) Player(playerID string) (domain.PlayerState, bool) {
	return h.world.Player(playerID)
}

func (h *fakeHost) namesFor(playerID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, c := range h.names {
		if c.PlayerID == playerID {
			out = append(out, c.Name)
		}
	}
	return out
}

func (h *fakeHost) lastName(playerID string) string {
	names := h.namesFor(playerID)
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}

func (h *fakeHost) broadcastCalls() []broadcastCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]broadcastCall(nil), h.broadcasts...)
}

// place moves a player in the fake world
func (h *fakeHost) place(t *testing.T, playerID string, pos domain.Vector3, items ...domain.ItemType) {
	t.Helper()
	players := h.world.Players()
	found := false
	for i := range players {
		if players[i].ID == playerID {
			players[i].Position = pos
			players[i].Items = items
			found = true
		}
	}
	if !found {
		t.Fatalf("player %s not in world", playerID)
	}
	h.world.Replace(players)
}

type eventLog struct {
	mu     sync.Mutex
	events []*domain.TrackerEvent
}

func (l *eventLog) sink(e *domain.TrackerEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []domain.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testSettings keeps the periodic tasks from firing so tests drive evaluate directly
func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.TickInterval = time.Hour
	s.RetryInterval = 2 * time.Hour
	return s
}

func newTestTracker(t *testing.T) (*Tracker, *fakeHost, *eventLog) {
	t.Helper()
	host := newFakeHost()
	events := &eventLog{}
	tk := NewTracker(host, testSettings(), testLogger(), events.sink)
	t.Cleanup(tk.Close)
	return tk, host, events
}

// join verifies a player and assigns a role the way the host would
func join(tk *Tracker, host *fakeHost, playerID, nickname string, role domain.Role) {
	host.world.Join(playerID, nickname)
	host.world.SetRole(playerID, role, "")
	tk.PlayerVerified(playerID, nickname)
	tk.RoleChanged(playerID, role)
}

func points(t *testing.T, tk *Tracker, playerID string) int {
	t.Helper()
	rec, ok := tk.Record(playerID)
	if !ok {
		t.Fatalf("no record for %s", playerID)
	}
	return rec.Points
}

func TestTrackerIgnoresUntrackedRoles(t *testing.T) {
	tk, host, _ := newTestTracker(t)

	join(tk, host, "p1", "Alice", domain.RoleScientist)
	tk.ItemPickedUp("p1", "GunAK")
	tk.RoleChanged("p1", domain.RoleFacilityGuard)

	if names := host.namesFor("p1"); len(names) != 0 {
		t.Fatalf("untracked player was renamed: %v", names)
	}
	if tk.tasks.Running("p1") {
		t.Fatalf("untracked player has a task")
	}
	if got := points(t, tk, "p1"); got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}
}

func TestTrackerLabelsOnSpawn(t *testing.T) {
	tk, host, events := newTestTracker(t)

	join(tk, host, "p1", "Alice", domain.RoleClassD)

	if got, want := host.lastName("p1"), "Alice(0/200)[compliant]"; got != want {
		t.Fatalf("name = %q, want %q", got, want)
	}
	if !tk.tasks.Running("p1") {
		t.Fatalf("tracked player has no task")
	}
	want := []domain.EventType{domain.EventPlayerTracked, domain.EventLabelChanged}
	if diff := cmp.Diff(want, events.types()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackerRoleChangeIsIdempotent(t *testing.T) {
	tk, host, _ := newTestTracker(t)

	join(tk, host, "p1", "Alice", domain.RoleClassD)
	tk.RoleChanged("p1", domain.RoleClassD)
	tk.RoleChanged("p1", domain.RoleClassD)

	if names := host.namesFor("p1"); len(names) != 1 {
		t.Fatalf("expected a single rename, got %v", names)
	}
	if n := tk.tasks.Len(); n != 1 {
		t.Fatalf("tasks = %d, want 1", n)
	}
}

func TestTrackerPickupScoresRestrictedItems(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)

	tk.ItemPickedUp("p1", "Medkit")
	if got := points(t, tk, "p1"); got != 0 {
		t.Fatalf("unrestricted pickup scored %d", got)
	}

	tk.ItemPickedUp("p1", "GunAK")
	if got := points(t, tk, "p1"); got != 100 {
		t.Fatalf("points = %d, want 100", got)
	}
	if got, want := host.lastName("p1"), "Alice(100/200)[suspected]"; got != want {
		t.Fatalf("name = %q, want %q", got, want)
	}
	if len(host.broadcastCalls()) != 0 {
		t.Fatalf("unexpected broadcast")
	}
}

func TestTrackerRebellionBroadcastsOnce(t *testing.T) {
	tk, host, events := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)

	tk.ItemPickedUp("p1", "GunAK")
	tk.ItemPickedUp("p1", "GunCOM15")
	tk.ItemPickedUp("p1", "GunE11SR")

	rec, _ := tk.Record("p1")
	if !rec.Rebelled || rec.Points != 200 {
		t.Fatalf("record = %+v, want rebelled at 200", rec)
	}
	if got, want := host.lastName("p1"), "Alice[REBELLED]"; got != want {
		t.Fatalf("name = %q, want %q", got, want)
	}

	want := []broadcastCall{{Seconds: 3, Text: "Attention Foundation personnel: Alice has rebelled as Class-D!"}}
	if diff := cmp.Diff(want, host.broadcastCalls()); diff != "" {
		t.Fatalf("broadcasts mismatch (-want +got):\n%s", diff)
	}

	rebelled := 0
	for _, typ := range events.types() {
		if typ == domain.EventRebelled {
			rebelled++
		}
	}
	if rebelled != 1 {
		t.Fatalf("rebelled events = %d, want 1", rebelled)
	}

	// Rebels stay rebels for the rest of the tenure
	if _, keep := tk.evaluate(context.Background(), "p1"); !keep {
		t.Fatalf("evaluate stopped for a rebel")
	}
	if got := points(t, tk, "p1"); got != 200 {
		t.Fatalf("points changed after rebellion: %d", got)
	}
}

func TestTrackerDecayFloorsAtZero(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)

	tk.mu.Lock()
	tk.records["p1"].Points = 10
	tk.mu.Unlock()

	for i := 0; i < 7; i++ {
		wait, keep := tk.evaluate(context.Background(), "p1")
		if !keep || wait != time.Hour {
			t.Fatalf("evaluate = (%v, %v), want (1h, true)", wait, keep)
		}
	}
	if got := points(t, tk, "p1"); got != 0 {
		t.Fatalf("points = %d, want 0", got)
	}
	if got, want := host.lastName("p1"), "Alice(0/200)[compliant]"; got != want {
		t.Fatalf("name = %q, want %q", got, want)
	}
}

func TestTrackerHoldingContraband(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	host.place(t, "p1", domain.Vector3{}, "GunAK")

	tk.evaluate(context.Background(), "p1")
	tk.evaluate(context.Background(), "p1")

	rec, _ := tk.Record("p1")
	if rec.Points != 4 || rec.LastCause != domain.CauseHolding {
		t.Fatalf("record = %+v, want 4 points from holding", rec)
	}
}

func TestTrackerNearbyContraband(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	join(tk, host, "c1", "Carl", domain.RoleChaosRifleman)
	join(tk, host, "g1", "Gina", domain.RoleFacilityGuard)

	// An armed guard is not a rebel carrier
	host.place(t, "g1", domain.Vector3{X: 1}, "GunE11SR")
	host.place(t, "c1", domain.Vector3{X: 50}, "GunAK")
	tk.evaluate(context.Background(), "p1")
	if got := points(t, tk, "p1"); got != 0 {
		t.Fatalf("points = %d, want 0 with no rebel carrier in range", got)
	}

	host.place(t, "c1", domain.Vector3{X: 10}, "GunAK")
	tk.evaluate(context.Background(), "p1")
	rec, _ := tk.Record("p1")
	if rec.Points != 2 || rec.LastCause != domain.CauseNearbyContraband {
		t.Fatalf("record = %+v, want 2 points from nearby contraband", rec)
	}
}

func TestTrackerDeadCarrierDoesNotCount(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	join(tk, host, "c1", "Carl", domain.RoleChaosRifleman)
	join(tk, host, "p2", "Bob", domain.RoleClassD)

	tk.mu.Lock()
	tk.records["p1"].Points = 10
	tk.mu.Unlock()

	players := host.world.Players()
	for i := range players {
		if players[i].ID == "c1" || players[i].ID == "p2" {
			players[i].Alive = false
			players[i].Position = domain.Vector3{X: 1}
			players[i].Items = []domain.ItemType{"GunAK"}
		}
	}
	host.world.Replace(players)

	tk.evaluate(context.Background(), "p1")

	rec, _ := tk.Record("p1")
	if rec.Points != 8 || rec.LastCause != domain.CauseDecay {
		t.Fatalf("record = %+v, want decay to 8 with only dead carriers nearby", rec)
	}
}

func TestTrackerDamageToProtected(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	join(tk, host, "p2", "Bob", domain.RoleClassD)
	join(tk, host, "p3", "Cleo", domain.RoleClassD)
	join(tk, host, "g1", "Gina", domain.RoleFacilityGuard)

	host.place(t, "p2", domain.Vector3{X: 5})
	host.place(t, "p3", domain.Vector3{X: 50})

	tk.PlayerHurt("p1", "g1")

	if rec, _ := tk.Record("p1"); !rec.Rebelled || rec.Points != 999 {
		t.Fatalf("attacker = %+v, want rebelled at 999", rec)
	}
	if got := points(t, tk, "p2"); got != 20 {
		t.Fatalf("nearby points = %d, want 20", got)
	}
	if got := points(t, tk, "p3"); got != 0 {
		t.Fatalf("far points = %d, want 0", got)
	}
	if got := points(t, tk, "g1"); got != 0 {
		t.Fatalf("guard record scored %d", got)
	}
	if n := len(host.broadcastCalls()); n != 1 {
		t.Fatalf("broadcasts = %d, want 1", n)
	}
}

func TestTrackerChaosDamageScoresBystanders(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "c1", "Carl", domain.RoleChaosMarauder)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	join(tk, host, "s1", "Sam", domain.RoleScientist)
	host.place(t, "p1", domain.Vector3{Z: 3})

	tk.PlayerHurt("c1", "s1")

	if got := points(t, tk, "p1"); got != 20 {
		t.Fatalf("bystander points = %d, want 20", got)
	}
	if got := points(t, tk, "c1"); got != 0 {
		t.Fatalf("chaos attacker scored %d", got)
	}
}

func TestTrackerIgnoresNonProtectedVictims(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	join(tk, host, "p2", "Bob", domain.RoleClassD)
	join(tk, host, "x1", "Xeno", domain.RoleScp173)

	tk.PlayerHurt("p1", "p2")
	tk.PlayerHurt("p1", "x1")
	tk.PlayerHurt("p1", "p1")
	tk.PlayerHurt("", "p2")

	if got := points(t, tk, "p1"); got != 0 {
		t.Fatalf("attacker points = %d, want 0", got)
	}
	if got := points(t, tk, "p2"); got != 0 {
		t.Fatalf("bystander points = %d, want 0", got)
	}
}

func TestTrackerLeavingRoleRestoresName(t *testing.T) {
	tk, host, events := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	tk.ItemPickedUp("p1", "GunAK")

	tk.RoleChanged("p1", domain.RoleSpectator)

	if got := host.lastName("p1"); got != "Alice" {
		t.Fatalf("name = %q, want original", got)
	}
	rec, _ := tk.Record("p1")
	if rec.Tracked || rec.Points != 0 || rec.LastSuffix != "" {
		t.Fatalf("record not reset: %+v", rec)
	}
	if tk.tasks.Running("p1") {
		t.Fatalf("task still running")
	}

	types := events.types()
	if types[len(types)-1] != domain.EventPlayerReleased {
		t.Fatalf("last event = %s, want %s", types[len(types)-1], domain.EventPlayerReleased)
	}

	// A fresh tenure starts from zero
	tk.RoleChanged("p1", domain.RoleClassD)
	if got, want := host.lastName("p1"), "Alice(0/200)[compliant]"; got != want {
		t.Fatalf("name = %q, want %q", got, want)
	}
}

func TestTrackerReverifyRestoresName(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	tk.ItemPickedUp("p1", "GunAK")

	tk.PlayerVerified("p1", "Alice")

	if got := host.lastName("p1"); got != "Alice" {
		t.Fatalf("name = %q, want original after re-verify", got)
	}
	rec, _ := tk.Record("p1")
	if rec.Tracked || rec.Points != 0 || rec.LastSuffix != "" {
		t.Fatalf("record not replaced: %+v", rec)
	}
	if tk.tasks.Running("p1") {
		t.Fatalf("stale task kept after re-verify")
	}
}

func TestTrackerPlayerDestroyed(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)

	tk.PlayerDestroyed("p1")
	host.world.Leave("p1")

	if _, ok := tk.Record("p1"); ok {
		t.Fatalf("record kept after destroy")
	}
	if tk.tasks.Running("p1") {
		t.Fatalf("task kept after destroy")
	}

	// Late events for a departed player are ignored
	tk.ItemPickedUp("p1", "GunAK")
	tk.RoleChanged("p1", domain.RoleClassD)
	if _, ok := tk.Record("p1"); ok {
		t.Fatalf("record recreated by a late event")
	}
}

func TestTrackerEvaluateStopsForDisconnectedPlayer(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)

	players := host.world.Players()
	players[0].Status = domain.StatusDisconnected
	host.world.Replace(players)

	if _, keep := tk.evaluate(context.Background(), "p1"); keep {
		t.Fatalf("evaluate should stop once the player is disconnected")
	}
}

func TestTrackerEvaluateRetriesWhenPlayerMissingFromWorld(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)

	host.world.Replace(nil)
	wait, keep := tk.evaluate(context.Background(), "p1")
	if !keep || wait != 2*time.Hour {
		t.Fatalf("evaluate = (%v, %v), want retry interval", wait, keep)
	}
}

func TestTrackerTaskSurvivesSnapshotGap(t *testing.T) {
	host := newFakeHost()
	settings := testSettings()
	settings.TickInterval = 10 * time.Millisecond
	settings.RetryInterval = 10 * time.Millisecond
	tk := NewTracker(host, settings, testLogger(), nil)
	t.Cleanup(tk.Close)

	join(tk, host, "p1", "Alice", domain.RoleClassD)

	host.world.Replace(nil)
	time.Sleep(50 * time.Millisecond)
	host.world.Replace([]domain.PlayerState{
		{ID: "p1", Nickname: "Alice", Role: domain.RoleClassD, Alive: true, Items: []domain.ItemType{"GunAK"}},
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec, _ := tk.Record("p1"); rec.Points > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec, _ := tk.Record("p1")
	if !tk.tasks.Running("p1") || rec.Points == 0 || rec.LastCause != domain.CauseHolding {
		t.Fatalf("running=%v record=%+v, want scoring to resume", tk.tasks.Running("p1"), rec)
	}
}

func TestTrackerEvaluateRetriesWithoutRecord(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	host.world.Join("p1", "Alice")

	wait, keep := tk.evaluate(context.Background(), "p1")
	if !keep || wait != 2*time.Hour {
		t.Fatalf("evaluate = (%v, %v), want retry interval", wait, keep)
	}
}

func TestTrackerEvaluateHonoursCancellation(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, keep := tk.evaluate(ctx, "p1"); keep {
		t.Fatalf("evaluate should stop on a cancelled context")
	}
}

func TestTrackerRoundEnded(t *testing.T) {
	tk, host, events := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	join(tk, host, "p2", "Bob", domain.RoleClassD)
	tk.ItemPickedUp("p1", "GunAK")
	tk.ItemPickedUp("p1", "GunAK")

	tk.RoundEnded()

	if tk.tasks.Len() != 0 {
		t.Fatalf("tasks = %d, want 0", tk.tasks.Len())
	}
	if host.lastName("p1") != "Alice" || host.lastName("p2") != "Bob" {
		t.Fatalf("names not restored: %q %q", host.lastName("p1"), host.lastName("p2"))
	}
	for _, rec := range tk.Records() {
		if rec.Tracked || rec.Rebelled || rec.Points != 0 {
			t.Fatalf("record not reset: %+v", rec)
		}
	}
	if tk.TrackedCount() != 0 || tk.RebelledCount() != 0 {
		t.Fatalf("counts not cleared")
	}
	types := events.types()
	if types[len(types)-1] != domain.EventRoundReset {
		t.Fatalf("last event = %s, want %s", types[len(types)-1], domain.EventRoundReset)
	}
}

func TestTrackerRoundRestartingStopsTasks(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)

	tk.RoundRestarting()

	if tk.tasks.Running("p1") {
		t.Fatalf("task survived round restart")
	}
	if _, ok := tk.Record("p1"); !ok {
		t.Fatalf("record dropped on round restart")
	}
}

func TestTrackerDisable(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	tk.ItemPickedUp("p1", "GunAK")

	tk.Disable()

	if tk.Enabled() {
		t.Fatalf("tracker still enabled")
	}
	if host.lastName("p1") != "Alice" {
		t.Fatalf("name not restored: %q", host.lastName("p1"))
	}
	if len(tk.Records()) != 0 {
		t.Fatalf("records kept after disable")
	}

	tk.PlayerVerified("p1", "Alice")
	tk.RoleChanged("p1", domain.RoleClassD)
	if len(tk.Records()) != 0 {
		t.Fatalf("events handled while disabled")
	}

	tk.Enable()
	tk.PlayerVerified("p1", "Alice")
	tk.RoleChanged("p1", domain.RoleClassD)
	if tk.TrackedCount() != 1 {
		t.Fatalf("tracked = %d after enable, want 1", tk.TrackedCount())
	}
}

func TestTrackerResendLabels(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "Alice", domain.RoleClassD)
	join(tk, host, "s1", "Sam", domain.RoleScientist)

	if n := tk.ResendLabels(); n != 1 {
		t.Fatalf("resent = %d, want 1", n)
	}
	if diff := cmp.Diff([]string{"Alice(0/200)[compliant]", "Alice(0/200)[compliant]"}, host.namesFor("p1")); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackerTruncatesLongNames(t *testing.T) {
	tk, host, _ := newTestTracker(t)
	join(tk, host, "p1", "AVeryLongNicknameThatGoesOnAndOn", domain.RoleClassD)

	got := host.lastName("p1")
	if want := "AVeryLongNick(0/200)[compliant]"; got != want {
		t.Fatalf("name = %q, want %q", got, want)
	}
}

func TestTrackerStartsDisabled(t *testing.T) {
	host := newFakeHost()
	settings := testSettings()
	settings.Enabled = false
	tk := NewTracker(host, settings, testLogger(), nil)
	t.Cleanup(tk.Close)

	join(tk, host, "p1", "Alice", domain.RoleClassD)
	tk.ItemPickedUp("p1", "GunAK")

	if tk.Enabled() || len(tk.Records()) != 0 || len(host.namesFor("p1")) != 0 {
		t.Fatalf("disabled tracker reacted to events")
	}
}
