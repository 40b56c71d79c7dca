package timing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AddProcessTime records how long one rebuild took for the given workload
// size. The samples feed duration predictions for later rebuilds.
func AddProcessTime(
	ctx context.Context,
	conn *pgxpool.Pool,
	statType string,
	amount int64,
	durationMs int64,
) error {
	_, err := conn.Exec(
		ctx,
		`INSERT INTO process_time (stat_type, amount, duration_ms)
		 VALUES ($1, $2, $3)`,
		statType, amount, durationMs,
	)
	return err
}

// PredictProcessTime estimates the duration of a workload of the given size
// from the average per-unit duration of past runs. Returns 0 when no samples
// exist yet.
func PredictProcessTime(
	ctx context.Context,
	conn *pgxpool.Pool,
	statType string,
	amount int64,
) (int64, error) {
	var prediction int64
	err := conn.QueryRow(
		ctx,
		`SELECT COALESCE(AVG(duration_ms::float / GREATEST(amount, 1)) * $2, 0)::bigint
		 FROM process_time
		 WHERE stat_type = $1`,
		statType, amount,
	).Scan(&prediction)
	if err != nil {
		return 0, err
	}
	return prediction, nil
}
