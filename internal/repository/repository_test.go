package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pvp-analytics/internal/config"
	"pvp-analytics/internal/database"
	"pvp-analytics/internal/domain"

	"github.com/rs/zerolog"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver: config.DriverModernc,
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
	db, err := database.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPlayerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository(newTestDB(t), zerolog.Nop())

	players := []*domain.Player{
		{Name: "Alpha", Realm: "Stormrage", Region: "us"},
		{Name: "Bravo", Realm: "Proudmoore", Region: "eu", Class: "Mage"},
	}
	if err := repo.AddRange(ctx, players); err != nil {
		t.Fatalf("AddRange() error = %v", err)
	}
	for _, p := range players {
		if p.ID == 0 {
			t.Fatalf("AddRange() did not assign an ID to %s", p.Name)
		}
	}

	found, err := repo.FindByNames(ctx, []string{"ALPHA", "bravo", "charlie", "alpha"})
	if err != nil {
		t.Fatalf("FindByNames() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("FindByNames() returned %d players, want 2", len(found))
	}
	if found[1].Class != "Mage" || found[1].Realm != "Proudmoore" {
		t.Errorf("FindByNames()[1] = %+v, want Bravo-Proudmoore Mage", found[1])
	}

	players[0].Class = "Warrior"
	players[0].Faction = "Horde"
	if err := repo.UpdateRange(ctx, players[:1]); err != nil {
		t.Fatalf("UpdateRange() error = %v", err)
	}
	got, err := repo.GetByID(ctx, players[0].ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Class != "Warrior" || got.Faction != "Horde" || got.Region != "us" {
		t.Errorf("GetByID() = %+v, want updated class and faction", got)
	}

	// same identity in a different case resolves to the stored row
	dup := &domain.Player{Name: "alpha", Realm: "STORMRAGE"}
	if err := repo.Add(ctx, dup); err != nil {
		t.Fatalf("Add(duplicate) error = %v", err)
	}
	if dup.ID != players[0].ID {
		t.Errorf("Add(duplicate) ID = %d, want %d", dup.ID, players[0].ID)
	}

	if err := repo.Delete(ctx, players[1].ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, players[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestPlayerRepositoryFindByNamesBatches(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository(newTestDB(t), zerolog.Nop())

	var players []*domain.Player
	var names []string
	for i := 0; i < 250; i++ {
		name := "Player" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		players = append(players, &domain.Player{Name: name, Realm: "Realm"})
		names = append(names, name)
	}
	if err := repo.AddRange(ctx, players); err != nil {
		t.Fatalf("AddRange() error = %v", err)
	}

	found, err := repo.FindByNames(ctx, names)
	if err != nil {
		t.Fatalf("FindByNames() error = %v", err)
	}
	if len(found) != len(players) {
		t.Errorf("FindByNames() returned %d players, want %d", len(found), len(players))
	}
}

func seedPlayers(t *testing.T, db *sql.DB, names ...string) []*domain.Player {
	t.Helper()
	repo := NewPlayerRepository(db, zerolog.Nop())
	var players []*domain.Player
	for _, n := range names {
		players = append(players, &domain.Player{Name: n, Realm: "Stormrage"})
	}
	if err := repo.AddRange(context.Background(), players); err != nil {
		t.Fatalf("AddRange() error = %v", err)
	}
	return players
}

func TestMatchRepositoryCreateWithDetails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	players := seedPlayers(t, db, "Alpha", "Bravo")
	matches := NewMatchRepository(db, zerolog.Nop())
	results := NewMatchResultRepository(db, zerolog.Nop())
	combat := NewCombatLogRepository(db, zerolog.Nop())

	start := time.Date(2024, 1, 15, 20, 31, 45, 123000000, time.UTC)
	match := &domain.Match{
		StartTime:    start,
		EndTime:      start.Add(90 * time.Second),
		ArenaZone:    domain.NagrandArena,
		ArenaMatchID: "123",
		GameMode:     domain.TwoVsTwo,
		Duration:     90,
		UniqueHash:   "hash-1",
		IsRanked:     true,
	}
	target := players[1].ID
	entries := []domain.CombatLogEntry{
		{Timestamp: start.Add(time.Second), EventType: "SPELL_DAMAGE", SourcePlayerID: players[0].ID, TargetPlayerID: &target, SpellID: 12294, SpellName: "Mortal Strike", Damage: 100},
		{Timestamp: start.Add(2 * time.Second), EventType: "SPELL_HEAL", SourcePlayerID: players[1].ID, SpellName: "Flash Heal", Healing: 50},
	}
	mrs := []domain.MatchResult{
		{PlayerID: players[0].ID, Spec: "Arms"},
		{PlayerID: players[1].ID, Spec: "Holy"},
	}

	created, err := matches.CreateWithDetails(ctx, match, entries, mrs)
	if err != nil {
		t.Fatalf("CreateWithDetails() error = %v", err)
	}
	if !created || match.ID == 0 {
		t.Fatalf("CreateWithDetails() created = %v, id = %d", created, match.ID)
	}

	got, err := matches.GetByID(ctx, match.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.StartTime.Equal(start) || got.ArenaZone != domain.NagrandArena || got.GameMode != domain.TwoVsTwo || !got.IsRanked {
		t.Errorf("GetByID() = %+v, want stored fields", got)
	}

	storedEntries, err := combat.ListByMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("ListByMatch() error = %v", err)
	}
	if len(storedEntries) != 2 {
		t.Fatalf("ListByMatch() returned %d entries, want 2", len(storedEntries))
	}
	if storedEntries[0].TargetPlayerID == nil || *storedEntries[0].TargetPlayerID != target {
		t.Errorf("entry 0 target = %v, want %d", storedEntries[0].TargetPlayerID, target)
	}
	if storedEntries[1].TargetPlayerID != nil {
		t.Errorf("entry 1 target = %v, want nil", *storedEntries[1].TargetPlayerID)
	}
	if !storedEntries[0].Timestamp.Equal(start.Add(time.Second)) {
		t.Errorf("entry 0 timestamp = %v", storedEntries[0].Timestamp)
	}

	storedResults, err := results.ListByMatch(ctx, match.ID)
	if err != nil {
		t.Fatalf("ListByMatch() error = %v", err)
	}
	if len(storedResults) != 2 || storedResults[0].Spec != "Arms" || storedResults[0].Rating != 0 || storedResults[0].IsWinner {
		t.Errorf("ListByMatch() = %+v, want two placeholder results", storedResults)
	}

	again := &domain.Match{StartTime: start, EndTime: start, GameMode: domain.TwoVsTwo, UniqueHash: "hash-1"}
	created, err = matches.CreateWithDetails(ctx, again, entries, mrs)
	if err != nil {
		t.Fatalf("CreateWithDetails(duplicate) error = %v", err)
	}
	if created || again.ID != match.ID || again.Duration != 90 {
		t.Errorf("CreateWithDetails(duplicate) = created %v, match %+v; want stored match %d", created, again, match.ID)
	}
	if n, _ := combat.CountByMatch(ctx, match.ID); n != 2 {
		t.Errorf("CountByMatch() = %d after duplicate insert, want 2", n)
	}

	byHash, err := matches.FindByHash(ctx, "hash-1")
	if err != nil || byHash == nil || byHash.ID != match.ID {
		t.Errorf("FindByHash() = %v, %v", byHash, err)
	}
	missing, err := matches.FindByHash(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("FindByHash(missing) = %v, %v; want nil, nil", missing, err)
	}

	if err := matches.Delete(ctx, match.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n, _ := combat.CountByMatch(ctx, match.ID); n != 0 {
		t.Errorf("CountByMatch() = %d after delete, want 0", n)
	}
}

func TestMatchRepositoryCreateRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	matches := NewMatchRepository(db, zerolog.Nop())

	start := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
	match := &domain.Match{StartTime: start, EndTime: start, GameMode: domain.TwoVsTwo, UniqueHash: "hash-rollback"}
	// player 999 does not exist, so the foreign key rejects the result row
	_, err := matches.CreateWithDetails(ctx, match, nil, []domain.MatchResult{{PlayerID: 999}})
	if err == nil {
		t.Fatal("CreateWithDetails() error = nil, want foreign key error")
	}
	if got, _ := matches.FindByHash(ctx, "hash-rollback"); got != nil {
		t.Errorf("FindByHash() = %+v, want no match after rollback", got)
	}
}

func TestUploadRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUploadRepository(newTestDB(t), zerolog.Nop())

	upload := &domain.Upload{FileName: "WoWCombatLog.txt"}
	if err := repo.Create(ctx, upload); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if upload.ID == "" || upload.Status != domain.UploadProcessing {
		t.Fatalf("Create() = %+v, want generated id and processing status", upload)
	}

	upload.Format = "traditional"
	upload.Status = domain.UploadCompleted
	upload.MatchCount = 3
	if err := repo.Finish(ctx, upload); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := repo.GetByID(ctx, upload.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != domain.UploadCompleted || got.MatchCount != 3 || got.FinishedAt == nil || got.Format != "traditional" {
		t.Errorf("GetByID() = %+v", got)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}
