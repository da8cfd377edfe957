package behavior

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "github.com/gabrielgmza/simply-backend-sub000/pkg/domain"
	"github.com/gabrielgmza/simply-backend-sub000/pkg/platform/sentinel"
)

// PostgresStore keeps one profile row per user, replaced wholesale on
// rebuild via upsert.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Replace(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO behavior_profiles (
			user_id, preferred_hours, preferred_days, avg_session_secs,
			avg_tx_per_month, avg_amount, top_types, frequent_recipients,
			mean_gap_secs, primary_platform, device_count,
			oldest_device_age_days, location_consistency,
			risk_velocity, risk_amount_volatility, risk_location_variability,
			risk_dormancy, segment, version, data_points, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (user_id) DO UPDATE SET
			preferred_hours = EXCLUDED.preferred_hours,
			preferred_days = EXCLUDED.preferred_days,
			avg_session_secs = EXCLUDED.avg_session_secs,
			avg_tx_per_month = EXCLUDED.avg_tx_per_month,
			avg_amount = EXCLUDED.avg_amount,
			top_types = EXCLUDED.top_types,
			frequent_recipients = EXCLUDED.frequent_recipients,
			mean_gap_secs = EXCLUDED.mean_gap_secs,
			primary_platform = EXCLUDED.primary_platform,
			device_count = EXCLUDED.device_count,
			oldest_device_age_days = EXCLUDED.oldest_device_age_days,
			location_consistency = EXCLUDED.location_consistency,
			risk_velocity = EXCLUDED.risk_velocity,
			risk_amount_volatility = EXCLUDED.risk_amount_volatility,
			risk_location_variability = EXCLUDED.risk_location_variability,
			risk_dormancy = EXCLUDED.risk_dormancy,
			segment = EXCLUDED.segment,
			version = EXCLUDED.version,
			data_points = EXCLUDED.data_points,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		profile.UserID.String(),
		pq.Array(intsToInt64(profile.Temporal.PreferredHours)),
		pq.Array(daysToInt64(profile.Temporal.PreferredDays)),
		int64(profile.Temporal.AvgSessionDuration/time.Second),
		profile.Transactions.AvgPerMonth,
		profile.Transactions.AvgAmount,
		pq.Array(profile.Transactions.TopTypes),
		pq.Array(profile.Transactions.FrequentRecipients),
		int64(profile.Transactions.MeanGap/time.Second),
		profile.Devices.PrimaryPlatform,
		profile.Devices.DeviceCount,
		profile.Devices.OldestDeviceAge,
		profile.Devices.LocationConsistency,
		profile.Risk.Velocity,
		profile.Risk.AmountVolatility,
		profile.Risk.LocationVariability,
		profile.Risk.Dormancy,
		string(profile.Segment),
		profile.Version,
		profile.DataPoints,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("replace behavior profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*Profile, error) {
	query := `
		SELECT user_id, preferred_hours, preferred_days, avg_session_secs,
		       avg_tx_per_month, avg_amount, top_types, frequent_recipients,
		       mean_gap_secs, primary_platform, device_count,
		       oldest_device_age_days, location_consistency,
		       risk_velocity, risk_amount_volatility,
		       risk_location_variability, risk_dormancy, segment, version,
		       data_points, updated_at
		FROM behavior_profiles
		WHERE user_id = $1
	`
	var (
		profile     Profile
		rawUserID   string
		hours, days []int64
		sessionSecs int64
		gapSecs     int64
		topTypes    []string
		recipients  []string
		segment     string
	)
	err := s.db.QueryRowContext(ctx, query, userID.String()).Scan(
		&rawUserID,
		pq.Array(&hours),
		pq.Array(&days),
		&sessionSecs,
		&profile.Transactions.AvgPerMonth,
		&profile.Transactions.AvgAmount,
		pq.Array(&topTypes),
		pq.Array(&recipients),
		&gapSecs,
		&profile.Devices.PrimaryPlatform,
		&profile.Devices.DeviceCount,
		&profile.Devices.OldestDeviceAge,
		&profile.Devices.LocationConsistency,
		&profile.Risk.Velocity,
		&profile.Risk.AmountVolatility,
		&profile.Risk.LocationVariability,
		&profile.Risk.Dormancy,
		&segment,
		&profile.Version,
		&profile.DataPoints,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get behavior profile: %w", err)
	}

	profile.UserID, err = id.ParseUserID(rawUserID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	profile.Temporal.PreferredHours = int64sToInts(hours)
	profile.Temporal.PreferredDays = int64sToDays(days)
	profile.Temporal.AvgSessionDuration = time.Duration(sessionSecs) * time.Second
	profile.Transactions.TopTypes = topTypes
	profile.Transactions.FrequentRecipients = recipients
	profile.Transactions.MeanGap = time.Duration(gapSecs) * time.Second
	profile.Segment = Segment(segment)
	return &profile, nil
}

func intsToInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func int64sToInts(in []int64) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func daysToInt64(in []time.Weekday) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func int64sToDays(in []int64) []time.Weekday {
	if len(in) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(in))
	for i, v := range in {
		out[i] = time.Weekday(v)
	}
	return out
}
