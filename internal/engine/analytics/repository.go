package analytics

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"knowyourclient/internal/engine/clientinfo"
	"knowyourclient/internal/pkg/parser"
)

var ErrInvalidDimension = errors.New("invalid breakdown dimension")

// Record is a stored snapshot.
type Record struct {
	ID         string              `json:"id"`
	SourceID   string              `json:"source_id"`
	ReceivedAt int64               `json:"received_at"` // unix millis
	IPAddress  string              `json:"ip_address"`
	IsBot      bool                `json:"is_bot"`
	Snapshot   clientinfo.Snapshot `json:"snapshot"`
}

type DailyStat struct {
	SourceID   string `json:"source_id"`
	Date       string `json:"date"`
	Snapshots  int    `json:"snapshots"`
	UniqueIPs  int    `json:"unique_ips"`
	Bots       int    `json:"bots"`
	TopBrowser string `json:"top_browser"`
	TopOS      string `json:"top_os"`
	TopDevice  string `json:"top_device"`
	TopEngine  string `json:"top_engine"`
}

type BreakdownEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// dimensions maps the public breakdown names to snapshot columns. Only these
// values are ever interpolated into SQL.
var dimensions = map[string]string{
	"browser":  "browser_name",
	"os":       "os_name",
	"device":   "device_type",
	"model":    "device_model",
	"engine":   "engine_name",
	"language": "language",
}

func IsDimension(name string) bool {
	_, ok := dimensions[name]
	return ok
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(rec *Record) error {
	s := rec.Snapshot
	query := `
		INSERT INTO snapshots (
			id, source_id, received_at, ip_address, is_bot,
			browser_name, browser_version, os_name, os_version,
			device_type, device_model, engine_name, engine_version,
			user_agent, app_version, platform, vendor, cookie_enabled,
			language, online, java_enabled, do_not_track,
			screen_resolution, color_depth, pixel_ratio
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		rec.ID, rec.SourceID, rec.ReceivedAt, rec.IPAddress, rec.IsBot,
		s.Browser.Name, s.Browser.Version, s.OS.Name, s.OS.Version,
		s.Device.Type, s.Device.Model, s.Engine.Name, s.Engine.Version,
		s.UserAgent, s.AppVersion, s.Platform, s.Vendor, s.CookieEnabled,
		s.Language, s.OnLine, s.JavaEnabled, string(s.DoNotTrack),
		s.ScreenResolution, s.ColorDepth, s.PixelRatio,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", rec.ID, err)
	}
	return nil
}

func (r *Repository) List(sourceID string, start, end int64, limit, offset int) ([]Record, error) {
	query := `
		SELECT id, source_id, received_at, ip_address, is_bot,
			browser_name, browser_version, os_name, os_version,
			device_type, device_model, engine_name, engine_version,
			user_agent, app_version, platform, vendor, cookie_enabled,
			language, online, java_enabled, do_not_track,
			screen_resolution, color_depth, pixel_ratio
		FROM snapshots
		WHERE source_id = ? AND received_at >= ? AND received_at <= ?
		ORDER BY received_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.Query(query, sourceID, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var dnt string
		s := &rec.Snapshot
		if err := rows.Scan(
			&rec.ID, &rec.SourceID, &rec.ReceivedAt, &rec.IPAddress, &rec.IsBot,
			&s.Browser.Name, &s.Browser.Version, &s.OS.Name, &s.OS.Version,
			&s.Device.Type, &s.Device.Model, &s.Engine.Name, &s.Engine.Version,
			&s.UserAgent, &s.AppVersion, &s.Platform, &s.Vendor, &s.CookieEnabled,
			&s.Language, &s.OnLine, &s.JavaEnabled, &dnt,
			&s.ScreenResolution, &s.ColorDepth, &s.PixelRatio,
		); err != nil {
			return nil, err
		}
		s.DoNotTrack = clientinfo.DoNotTrack(dnt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Breakdown counts snapshots per label of one dimension, most frequent first.
// Bots are excluded.
func (r *Repository) Breakdown(sourceID, dimension string, start, end int64) ([]BreakdownEntry, error) {
	column, ok := dimensions[dimension]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDimension, dimension)
	}

	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) FROM snapshots
		WHERE source_id = ? AND received_at >= ? AND received_at <= ? AND is_bot = 0
		GROUP BY %[1]s
		ORDER BY COUNT(*) DESC, %[1]s ASC
	`, column)
	rows, err := r.db.Query(query, sourceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("breakdown by %s: %w", dimension, err)
	}
	defer rows.Close()

	entries := []BreakdownEntry{}
	for rows.Next() {
		var e BreakdownEntry
		if err := rows.Scan(&e.Label, &e.Count); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ComputeDailyStats aggregates the snapshots a source received on date
// (YYYY-MM-DD, UTC).
func (r *Repository) ComputeDailyStats(sourceID, date string) (*DailyStat, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	startTs := day.UnixMilli()
	endTs := day.Add(24 * time.Hour).UnixMilli()

	stat := &DailyStat{SourceID: sourceID, Date: date}

	err = r.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT ip_address), COALESCE(SUM(is_bot), 0)
		FROM snapshots WHERE source_id = ? AND received_at >= ? AND received_at < ?
	`, sourceID, startTs, endTs).Scan(&stat.Snapshots, &stat.UniqueIPs, &stat.Bots)
	if err != nil {
		return nil, fmt.Errorf("count snapshots: %w", err)
	}

	tops := []struct {
		column string
		dest   *string
	}{
		{"browser_name", &stat.TopBrowser},
		{"os_name", &stat.TopOS},
		{"device_type", &stat.TopDevice},
		{"engine_name", &stat.TopEngine},
	}
	for _, top := range tops {
		if *top.dest, err = r.top(top.column, sourceID, startTs, endTs); err != nil {
			return nil, err
		}
	}

	return stat, nil
}

func (r *Repository) top(column, sourceID string, startTs, endTs int64) (string, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s FROM snapshots
		WHERE source_id = ? AND received_at >= ? AND received_at < ? AND is_bot = 0
		GROUP BY %[1]s ORDER BY COUNT(*) DESC, %[1]s ASC LIMIT 1
	`, column)

	var label string
	err := r.db.QueryRow(query, sourceID, startTs, endTs).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("top %s: %w", column, err)
	}
	return label, nil
}

func (r *Repository) UpsertDailyStats(stat *DailyStat) error {
	query := `
		INSERT INTO daily_stats (id, source_id, date, snapshots, unique_ips, bots, top_browser, top_os, top_device, top_engine, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, date) DO UPDATE SET
			snapshots=excluded.snapshots,
			unique_ips=excluded.unique_ips,
			bots=excluded.bots,
			top_browser=excluded.top_browser,
			top_os=excluded.top_os,
			top_device=excluded.top_device,
			top_engine=excluded.top_engine
	`
	id := fmt.Sprintf("%s_%s", stat.SourceID, stat.Date)

	_, err := r.db.Exec(query,
		id, stat.SourceID, stat.Date, stat.Snapshots, stat.UniqueIPs, stat.Bots,
		stat.TopBrowser, stat.TopOS, stat.TopDevice, stat.TopEngine,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert daily stats %s: %w", id, err)
	}
	return nil
}

func (r *Repository) GetDailyStats(sourceID, startDate, endDate string) ([]DailyStat, error) {
	query := `
		SELECT source_id, date, snapshots, unique_ips, bots, top_browser, top_os, top_device, top_engine
		FROM daily_stats
		WHERE source_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC
	`
	rows, err := r.db.Query(query, sourceID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("get daily stats: %w", err)
	}
	defer rows.Close()

	stats := []DailyStat{}
	for rows.Next() {
		var s DailyStat
		var topBrowser, topOS, topDevice, topEngine sql.NullString
		if err := rows.Scan(&s.SourceID, &s.Date, &s.Snapshots, &s.UniqueIPs, &s.Bots, &topBrowser, &topOS, &topDevice, &topEngine); err != nil {
			return nil, err
		}
		s.TopBrowser = topBrowser.String
		s.TopOS = topOS.String
		s.TopDevice = topDevice.String
		s.TopEngine = topEngine.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ActiveSources lists the sources with at least one snapshot in [start, end).
func (r *Repository) ActiveSources(start, end int64) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT source_id FROM snapshots
		WHERE received_at >= ? AND received_at < ?
		ORDER BY source_id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("active sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		sources = append(sources, id)
	}
	return sources, rows.Err()
}

// DeleteBefore removes snapshots received before ts (unix millis).
func (r *Repository) DeleteBefore(ts int64) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM snapshots WHERE received_at < ?`, ts)
	if err != nil {
		return 0, fmt.Errorf("purge snapshots: %w", err)
	}
	return res.RowsAffected()
}

// unknownLabels are the parser sentinels, used by callers that want to hide
// unclassified traffic from summaries.
var unknownLabels = map[string]bool{
	parser.UnknownBrowser: true,
	parser.UnknownOS:      true,
	parser.UnknownEngine:  true,
	parser.UnknownDevice:  true,
}

func IsUnknownLabel(label string) bool {
	return unknownLabels[label]
}
