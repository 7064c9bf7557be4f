package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Vodeneev/tennispbp/internal/pkg/config"
	"github.com/Vodeneev/tennispbp/internal/pkg/models"
)

// Ensure SQLAnalysisStorage implements AnalysisStorage
var _ AnalysisStorage = (*SQLAnalysisStorage)(nil)

// SQLAnalysisStorage stores analyses in PostgreSQL or SQLite. Queries are
// written with ? placeholders and rebound for the driver.
type SQLAnalysisStorage struct {
	db     *sql.DB
	driver string
}

// NewPostgresAnalysisStorage opens a PostgreSQL backed storage.
func NewPostgresAnalysisStorage(cfg *config.PostgresConfig) (*SQLAnalysisStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	return open(config.DriverPostgres, "postgres", cfg.DSN)
}

// NewSQLiteAnalysisStorage opens a SQLite backed storage. ":memory:" works for tests.
func NewSQLiteAnalysisStorage(path string) (*SQLAnalysisStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	return open(config.DriverSQLite, "sqlite", path)
}

// New picks the storage backend for the configured driver. It returns nil
// without error when persistence is disabled.
func New(cfg *config.Config) (AnalysisStorage, error) {
	if cfg.Storage.Driver == config.DriverNone || cfg.Storage.Driver == "" {
		return nil, nil
	}
	s, err := OpenSQL(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQL opens the configured SQL backend.
func OpenSQL(cfg *config.Config) (*SQLAnalysisStorage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return NewPostgresAnalysisStorage(&cfg.Postgres)
	case config.DriverSQLite:
		return NewSQLiteAnalysisStorage(cfg.Storage.SQLitePath)
	}
	return nil, fmt.Errorf("storage driver %q has no SQL backend", cfg.Storage.Driver)
}

func open(driver, sqlDriver, dsn string) (*SQLAnalysisStorage, error) {
	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if driver == config.DriverSQLite {
		// a :memory: database lives as long as its single connection
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	s := &SQLAnalysisStorage{db: db, driver: driver}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("Analysis storage initialized", "driver", driver)
	return s, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pbp_sets (
		match_id TEXT NOT NULL,
		set_number INTEGER NOT NULL,
		mode TEXT NOT NULL,
		final_home INTEGER NOT NULL,
		final_away INTEGER NOT NULL,
		oracle_home INTEGER,
		oracle_away INTEGER,
		resolved BOOLEAN NOT NULL,
		ambiguous_games INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		warnings TEXT NOT NULL DEFAULT '[]',
		analyzed_at TIMESTAMP NOT NULL,
		PRIMARY KEY (match_id, set_number)
	)`,
	`CREATE TABLE IF NOT EXISTS pbp_games (
		match_id TEXT NOT NULL,
		set_number INTEGER NOT NULL,
		game_number INTEGER NOT NULL,
		server_side TEXT NOT NULL,
		game_winner TEXT NOT NULL,
		is_break BOOLEAN NOT NULL,
		is_tiebreak BOOLEAN NOT NULL,
		PRIMARY KEY (match_id, set_number, game_number)
	)`,
	`CREATE TABLE IF NOT EXISTS pbp_points (
		match_id TEXT NOT NULL,
		set_number INTEGER NOT NULL,
		game_number INTEGER NOT NULL,
		point_number INTEGER NOT NULL,
		server_score INTEGER NOT NULL,
		receiver_score INTEGER NOT NULL,
		winner TEXT NOT NULL,
		is_inferred BOOLEAN NOT NULL,
		PRIMARY KEY (match_id, set_number, game_number, point_number)
	)`,
	`CREATE TABLE IF NOT EXISTS pbp_momentum (
		match_id TEXT NOT NULL,
		set_number INTEGER NOT NULL,
		game_number INTEGER NOT NULL,
		value DOUBLE PRECISION,
		value_api DOUBLE PRECISION,
		value_svg DOUBLE PRECISION,
		source TEXT NOT NULL,
		break_occurred BOOLEAN NOT NULL,
		zone TEXT NOT NULL,
		favored_player TEXT NOT NULL,
		PRIMARY KEY (match_id, set_number, game_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pbp_sets_resolved ON pbp_sets(resolved)`,
}

func (s *SQLAnalysisStorage) initSchema(ctx context.Context) error {
	for _, q := range schema {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// rebind turns ? placeholders into $N for PostgreSQL.
func rebind(driver, query string) string {
	if driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLAnalysisStorage) q(query string) string {
	return rebind(s.driver, query)
}

// StoreAnalysis upserts the set rows and replaces games and momentum in one transaction.
func (s *SQLAnalysisStorage) StoreAnalysis(ctx context.Context, a *models.MatchAnalysis) error {
	if a == nil || a.MatchID == "" {
		return fmt.Errorf("analysis with a match id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsertSet := s.q(`
		INSERT INTO pbp_sets (match_id, set_number, mode, final_home, final_away, oracle_home, oracle_away,
			resolved, ambiguous_games, reason, warnings, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id, set_number) DO UPDATE SET
			mode = excluded.mode,
			final_home = excluded.final_home,
			final_away = excluded.final_away,
			oracle_home = excluded.oracle_home,
			oracle_away = excluded.oracle_away,
			resolved = excluded.resolved,
			ambiguous_games = excluded.ambiguous_games,
			reason = excluded.reason,
			warnings = excluded.warnings,
			analyzed_at = excluded.analyzed_at`)
	insertGame := s.q(`
		INSERT INTO pbp_games (match_id, set_number, game_number, server_side, game_winner, is_break, is_tiebreak)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	insertPoint := s.q(`
		INSERT INTO pbp_points (match_id, set_number, game_number, point_number, server_score, receiver_score, winner, is_inferred)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, table := range []string{"pbp_points", "pbp_games", "pbp_sets"} {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE match_id = ?`), a.MatchID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, set := range a.Sets {
		var oracleHome, oracleAway sql.NullInt64
		if set.Oracle != nil {
			oracleHome = sql.NullInt64{Int64: int64(set.Oracle.Home), Valid: true}
			oracleAway = sql.NullInt64{Int64: int64(set.Oracle.Away), Valid: true}
		}
		warnings, err := json.Marshal(nonNil(set.Warnings))
		if err != nil {
			return fmt.Errorf("failed to marshal warnings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertSet,
			a.MatchID, set.SetNumber, set.Mode.String(), set.FinalScore.Home, set.FinalScore.Away,
			oracleHome, oracleAway, set.Resolved, set.AmbiguousGameCount, set.Reason, string(warnings),
			a.AnalyzedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to store set %d: %w", set.SetNumber, err)
		}

		for _, g := range set.Games {
			if _, err := tx.ExecContext(ctx, insertGame,
				a.MatchID, set.SetNumber, g.GameNumber, string(g.ServerSide), string(g.GameWinner),
				g.IsBreak, g.IsTiebreak,
			); err != nil {
				return fmt.Errorf("failed to store set %d game %d: %w", set.SetNumber, g.GameNumber, err)
			}
			for i, p := range g.Points {
				if _, err := tx.ExecContext(ctx, insertPoint,
					a.MatchID, set.SetNumber, g.GameNumber, i+1, p.ServerScore, p.ReceiverScore,
					string(p.Winner), p.IsInferred,
				); err != nil {
					return fmt.Errorf("failed to store set %d game %d point %d: %w", set.SetNumber, g.GameNumber, i+1, err)
				}
			}
		}
	}

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM pbp_momentum WHERE match_id = ?`), a.MatchID); err != nil {
		return fmt.Errorf("failed to clear momentum: %w", err)
	}
	insertMomentum := s.q(`
		INSERT INTO pbp_momentum (match_id, set_number, game_number, value, value_api, value_svg,
			source, break_occurred, zone, favored_player)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, r := range a.Momentum {
		if _, err := tx.ExecContext(ctx, insertMomentum,
			a.MatchID, r.SetNumber, r.GameNumber, nullFloat(&r.Value), nullFloat(r.ValueAPI), nullFloat(r.ValueSVG),
			string(r.Source), r.BreakOccurred, r.Zone, r.FavoredPlayer,
		); err != nil {
			return fmt.Errorf("failed to store momentum %d/%d: %w", r.SetNumber, r.GameNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis: %w", err)
	}
	return nil
}

// LoadSets reads set rows and their games.
func (s *SQLAnalysisStorage) LoadSets(ctx context.Context, matchID string) ([]models.SetResolution, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT set_number, mode, final_home, final_away, oracle_home, oracle_away,
			resolved, ambiguous_games, reason, warnings
		FROM pbp_sets WHERE match_id = ? ORDER BY set_number`), matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets: %w", err)
	}
	defer rows.Close()

	var sets []models.SetResolution
	for rows.Next() {
		var (
			set                    models.SetResolution
			mode, warnings         string
			oracleHome, oracleAway sql.NullInt64
		)
		if err := rows.Scan(&set.SetNumber, &mode, &set.FinalScore.Home, &set.FinalScore.Away,
			&oracleHome, &oracleAway, &set.Resolved, &set.AmbiguousGameCount, &set.Reason, &warnings); err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		if set.Mode, err = models.ParseSemanticMode(mode); err != nil {
			return nil, err
		}
		if oracleHome.Valid && oracleAway.Valid {
			set.Oracle = &models.SetScore{Home: int(oracleHome.Int64), Away: int(oracleAway.Int64)}
		}
		if err := json.Unmarshal([]byte(warnings), &set.Warnings); err != nil {
			return nil, fmt.Errorf("failed to decode warnings: %w", err)
		}
		if len(set.Warnings) == 0 {
			set.Warnings = nil
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sets {
		games, err := s.loadGames(ctx, matchID, sets[i].SetNumber)
		if err != nil {
			return nil, err
		}
		sets[i].Games = games
	}
	return sets, nil
}

func (s *SQLAnalysisStorage) loadGames(ctx context.Context, matchID string, setNumber int) ([]models.ResolvedGame, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT game_number, server_side, game_winner, is_break, is_tiebreak
		FROM pbp_games WHERE match_id = ? AND set_number = ? ORDER BY game_number`), matchID, setNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []models.ResolvedGame
	for rows.Next() {
		g := models.ResolvedGame{SetNumber: setNumber}
		var server, winner string
		if err := rows.Scan(&g.GameNumber, &server, &winner, &g.IsBreak, &g.IsTiebreak); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		g.ServerSide = models.Side(server)
		g.GameWinner = models.Side(winner)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	points, err := s.loadPoints(ctx, matchID, setNumber)
	if err != nil {
		return nil, err
	}
	for i := range games {
		games[i].Points = points[games[i].GameNumber]
	}
	return games, nil
}

func (s *SQLAnalysisStorage) loadPoints(ctx context.Context, matchID string, setNumber int) (map[int][]models.Point, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT game_number, server_score, receiver_score, winner, is_inferred
		FROM pbp_points WHERE match_id = ? AND set_number = ? ORDER BY game_number, point_number`), matchID, setNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]models.Point)
	for rows.Next() {
		var (
			game   int
			p      models.Point
			winner string
		)
		if err := rows.Scan(&game, &p.ServerScore, &p.ReceiverScore, &winner, &p.IsInferred); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		p.Winner = models.Role(winner)
		out[game] = append(out[game], p)
	}
	return out, rows.Err()
}

// LoadMomentum reads the momentum series. A NULL value comes back as NaN.
func (s *SQLAnalysisStorage) LoadMomentum(ctx context.Context, matchID string) ([]models.MomentumRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT set_number, game_number, value, value_api, value_svg, source, break_occurred, zone, favored_player
		FROM pbp_momentum WHERE match_id = ? ORDER BY set_number, game_number`), matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query momentum: %w", err)
	}
	defer rows.Close()

	var out []models.MomentumRecord
	for rows.Next() {
		var (
			r               models.MomentumRecord
			value, api, svg sql.NullFloat64
			source          string
		)
		if err := rows.Scan(&r.SetNumber, &r.GameNumber, &value, &api, &svg, &source,
			&r.BreakOccurred, &r.Zone, &r.FavoredPlayer); err != nil {
			return nil, fmt.Errorf("failed to scan momentum: %w", err)
		}
		r.Value = math.NaN()
		if value.Valid {
			r.Value = value.Float64
		}
		if api.Valid {
			r.ValueAPI = models.Float(api.Float64)
		}
		if svg.Valid {
			r.ValueSVG = models.Float(svg.Float64)
		}
		r.Source = models.MomentumSource(source)
		out = append(out, r)
	}
	return out, rows.Err()
}

// pbpTables lists every table in child-first order.
var pbpTables = []string{"pbp_points", "pbp_games", "pbp_momentum", "pbp_sets"}

// DeleteMatch removes every stored row of one match.
func (s *SQLAnalysisStorage) DeleteMatch(ctx context.Context, matchID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range pbpTables {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE match_id = ?`), matchID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// PurgeBefore removes matches whose latest analysis is older than cutoff and
// returns how many were removed.
func (s *SQLAnalysisStorage) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT match_id FROM pbp_sets
		GROUP BY match_id
		HAVING MAX(analyzed_at) < ?`), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to list stale matches: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := s.DeleteMatch(ctx, id); err != nil {
			return 0, fmt.Errorf("failed to purge match %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// Close closes the database connection
func (s *SQLAnalysisStorage) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
