package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"rebellion/internal/domain"
)

// Host is the game server as seen by the tracker. Implementations must not
// block: the tracker calls them while holding its lock.
type Host interface {
	SetDisplayName(playerID, name string)
	Broadcast(durationSeconds int, text string)
	// Players returns every connected player
	Players() []domain.PlayerState
	Player(playerID string) (domain.PlayerState, bool)
}

// EventSink receives tracker events. It is called under the tracker lock.
type EventSink func(event *domain.TrackerEvent)

// Tracker scores Class-D players and keeps their display-name label current
type Tracker struct {
	mu       sync.Mutex
	host     Host
	settings domain.Settings
	records  map[string]*domain.PlayerRecord
	tasks    *TaskArena
	enabled  bool
	sink     EventSink
	logger   *slog.Logger
}

// NewTracker creates a tracker bound to host. A nil sink discards events.
func NewTracker(host Host, settings domain.Settings, logger *slog.Logger, sink EventSink) *Tracker {
	if sink == nil {
		sink = func(*domain.TrackerEvent) {}
	}
	if settings.RestrictedItems == nil {
		settings.RestrictedItems = domain.NewItemSet(domain.DefaultRestrictedItems...)
	}
	return &Tracker{
		host:     host,
		settings: settings,
		records:  make(map[string]*domain.PlayerRecord),
		tasks:    NewTaskArena(),
		enabled:  settings.Enabled,
		sink:     sink,
		logger:   logger,
	}
}

// Settings returns the tracker settings
func (t *Tracker) Settings() domain.Settings {
	return t.settings
}

// Enabled reports whether the tracker reacts to events
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Enable resumes event handling after Disable
func (t *Tracker) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = true
}

// PlayerVerified creates a fresh record when a player is first seen
func (t *Tracker) PlayerVerified(playerID, nickname string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}

	t.tasks.Stop(playerID)
	if old, ok := t.records[playerID]; ok {
		t.restoreName(old)
	}
	t.records[playerID] = domain.NewPlayerRecord(playerID, nickname)
}

// RoleChanged starts or stops tracking depending on the new role
func (t *Tracker) RoleChanged(playerID string, role domain.Role) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}

	rec, ok := t.records[playerID]
	if !ok {
		return
	}

	if role.IsTracked() {
		rec.Tracked = true
		if rec.OriginalName == "" {
			if p, ok := t.host.Player(playerID); ok {
				rec.OriginalName = p.Nickname
			}
		}
		if t.tasks.Start(playerID, t.settings.TickInterval, t.taskFor(playerID)) {
			t.sink(domain.NewPlayerEvent(domain.EventPlayerTracked, playerID, nil))
		}
		t.updateLabel(rec)
		return
	}

	wasTracked := rec.Tracked
	rec.Tracked = false
	t.tasks.Stop(playerID)
	t.restoreName(rec)
	rec.Reset()
	if wasTracked {
		t.sink(domain.NewPlayerEvent(domain.EventPlayerReleased, playerID, nil))
	}
}

// PlayerDestroyed forgets a disconnecting player
func (t *Tracker) PlayerDestroyed(playerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks.Stop(playerID)

	rec, ok := t.records[playerID]
	if !ok {
		return
	}
	t.restoreName(rec)
	delete(t.records, playerID)
}

// ItemPickedUp scores a tracked player picking up a restricted item
func (t *Tracker) ItemPickedUp(playerID string, item domain.ItemType) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return
	}

	rec, ok := t.records[playerID]
	if !ok || !rec.Tracked {
		return
	}
	if !t.settings.RestrictedItems.Contains(item) {
		return
	}

	rec.AddPoints(t.settings.PickupPoints, domain.CausePickup)
	t.reevaluate(rec)
}

// ItemDropped is accepted for completeness; dropping contraband carries no penalty
func (t *Tracker) ItemDropped(playerID string, item domain.ItemType) {}

// PlayerHurt scores hostile damage dealt to the protected side
func (t *Tracker) PlayerHurt(attackerID, victimID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled || attackerID == "" || attackerID == victimID {
		return
	}

	attackerRec, ok := t.records[attackerID]
	if !ok {
		return
	}
	attacker, ok := t.host.Player(attackerID)
	if !ok {
		return
	}
	victim, ok := t.host.Player(victimID)
	if !ok {
		return
	}

	isRebel := attackerRec.Tracked || attacker.Team.IsHostileAlly()
	if !isRebel || !victim.Team.IsProtected() {
		return
	}

	if attackerRec.Tracked {
		attackerRec.AddPoints(t.settings.DamageToProtectedPoints, domain.CauseDamageToProtected)
		t.reevaluate(attackerRec)
	}

	for _, p := range t.host.Players() {
		if p.ID == attackerID {
			continue
		}
		rec, ok := t.records[p.ID]
		if !ok || !rec.Tracked {
			continue
		}
		if !p.Position.Within(attacker.Position, t.settings.ProximityRadius) {
			continue
		}
		rec.AddPoints(t.settings.NearbyViolencePoints, domain.CauseNearbyViolence)
		t.reevaluate(rec)
	}
}

// RoundEnded restores every name and clears all scores. Tasks are cancelled
// as well; tracking resumes with the next role assignment.
func (t *Tracker) RoundEnded() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks.StopAll()
	for _, rec := range t.records {
		t.restoreName(rec)
		rec.Reset()
		rec.Tracked = false
	}
	t.sink(domain.NewEvent(domain.EventRoundReset, &domain.RoundResetPayload{Records: len(t.records)}))
}

// RoundRestarting tears down every per-player task
func (t *Tracker) RoundRestarting() {
	stopped := t.tasks.StopAll()
	t.logger.Debug("round restarting, tasks stopped", "count", stopped)
}

// Disable stops all tasks, restores every name and forgets every record.
// Events are ignored until Enable is called.
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = false
	t.tasks.StopAll()
	for _, rec := range t.records {
		t.restoreName(rec)
	}
	t.records = make(map[string]*domain.PlayerRecord)
}

// Close disables the tracker and waits for its tasks to exit
func (t *Tracker) Close() {
	t.Disable()
	t.tasks.Wait()
}

// ResendLabels re-issues the current display name of every labelled player
func (t *Tracker) ResendLabels() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, rec := range t.records {
		if rec.LastSuffix == "" {
			continue
		}
		t.host.SetDisplayName(rec.PlayerID, domain.DisplayName(rec.OriginalName, rec.LastSuffix, t.settings.MaxNameLength))
		n++
	}
	return n
}

// Record returns a copy of a player's record
func (t *Tracker) Record(playerID string) (domain.PlayerRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[playerID]
	if !ok {
		return domain.PlayerRecord{}, false
	}
	return *rec, true
}

// Records returns copies of all records ordered by player ID
func (t *Tracker) Records() []domain.PlayerRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.PlayerRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// TrackedCount returns the number of players currently in the tracked role
func (t *Tracker) TrackedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, rec := range t.records {
		if rec.Tracked {
			n++
		}
	}
	return n
}

// RebelledCount returns the number of players locked in as rebels
func (t *Tracker) RebelledCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, rec := range t.records {
		if rec.Rebelled {
			n++
		}
	}
	return n
}

// taskFor returns the periodic evaluation step of one player
func (t *Tracker) taskFor(playerID string) TaskFunc {
	return func(ctx context.Context) (time.Duration, bool) {
		return t.evaluate(ctx, playerID)
	}
}

// evaluate is one periodic scoring step for a tracked player
func (t *Tracker) evaluate(ctx context.Context, playerID string) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ctx.Err() != nil || !t.enabled {
		return 0, false
	}

	// A player missing from the host view may reappear with the next snapshot
	player, ok := t.host.Player(playerID)
	if !ok {
		return t.settings.RetryInterval, true
	}
	if !player.IsConnected() {
		return 0, false
	}

	rec, ok := t.records[playerID]
	if !ok {
		return t.settings.RetryInterval, true
	}
	if rec.Rebelled {
		return t.settings.TickInterval, true
	}

	switch {
	case t.settings.RestrictedItems.ContainsAny(player.Items):
		rec.AddPoints(t.settings.HoldingPerTick, domain.CauseHolding)
	case t.nearbyContraband(player):
		rec.AddPoints(t.settings.NearbyContrabandPerTick, domain.CauseNearbyContraband)
	default:
		rec.Decay(t.settings.DecayPerTick)
	}
	t.reevaluate(rec)

	return t.settings.TickInterval, true
}

// nearbyContraband reports whether an armed rebel-side player stands within range
func (t *Tracker) nearbyContraband(self domain.PlayerState) bool {
	for _, p := range t.host.Players() {
		if p.ID == self.ID || !p.Alive || !p.Team.IsRebelSide() {
			continue
		}
		if !p.Position.Within(self.Position, t.settings.ProximityRadius) {
			continue
		}
		if t.settings.RestrictedItems.ContainsAny(p.Items) {
			return true
		}
	}
	return false
}

func (t *Tracker) reevaluate(rec *domain.PlayerRecord) {
	t.checkRebellion(rec)
	t.updateLabel(rec)
}

// checkRebellion flips a record to rebelled once it reaches the threshold
func (t *Tracker) checkRebellion(rec *domain.PlayerRecord) {
	if !rec.CrossThreshold(t.settings.RebellionThreshold) {
		return
	}

	t.updateLabel(rec)

	nickname := rec.OriginalName
	if p, ok := t.host.Player(rec.PlayerID); ok && p.Nickname != "" {
		nickname = p.Nickname
	}
	t.host.Broadcast(t.settings.BroadcastSeconds(), fmt.Sprintf(t.settings.BroadcastTemplate, nickname))

	t.sink(domain.NewPlayerEvent(domain.EventRebelled, rec.PlayerID, &domain.RebelledPayload{
		Nickname: nickname,
		Points:   rec.Points,
		Cause:    rec.LastCause,
	}))

	if t.settings.Debug {
		t.logger.Debug("player rebelled",
			"playerID", rec.PlayerID,
			"nickname", nickname,
			"points", rec.Points,
			"cause", rec.LastCause,
		)
	}
}

// updateLabel rewrites the display name when the computed label changed
func (t *Tracker) updateLabel(rec *domain.PlayerRecord) {
	label := domain.Label(rec, t.settings)
	if label == rec.LastSuffix {
		return
	}
	rec.LastSuffix = label

	name := domain.DisplayName(rec.OriginalName, label, t.settings.MaxNameLength)
	t.host.SetDisplayName(rec.PlayerID, name)

	t.sink(domain.NewPlayerEvent(domain.EventLabelChanged, rec.PlayerID, &domain.LabelChangedPayload{
		Label:       label,
		DisplayName: name,
		Points:      rec.Points,
	}))
}

// restoreName puts the original name back if a label is currently shown
func (t *Tracker) restoreName(rec *domain.PlayerRecord) {
	if rec.LastSuffix == "" || rec.OriginalName == "" {
		return
	}
	t.host.SetDisplayName(rec.PlayerID, rec.OriginalName)
}
