package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "busbook/internal/config"
	"busbook/internal/domain"
	"busbook/internal/domain/models"
)

type BusRepo struct {
	DB *sql.DB
}

func (r BusRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

const busColumns = `id, bus_number, bus_name, bus_type, total_seats, available_seats, route, fare_per_seat, status, created_at, updated_at`

func scanBus(row *sql.Row) (models.Bus, error) {
	var b models.Bus
	err := row.Scan(
		&b.ID,
		&b.BusNumber,
		&b.BusName,
		&b.BusType,
		&b.TotalSeats,
		&b.AvailableSeats,
		&b.Route,
		&b.FarePerSeat,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

func (r BusRepo) GetByID(ctx context.Context, id int64) (models.Bus, error) {
	b, err := scanBus(r.db().QueryRowContext(ctx,
		`SELECT `+busColumns+` FROM buses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Bus{}, domain.BusNotFoundError{BusID: id}
	}
	return b, err
}

func (r BusRepo) List(ctx context.Context) ([]models.Bus, error) {
	rows, err := r.db().QueryContext(ctx,
		`SELECT `+busColumns+` FROM buses ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Bus{}
	for rows.Next() {
		var b models.Bus
		if err := rows.Scan(
			&b.ID, &b.BusNumber, &b.BusName, &b.BusType,
			&b.TotalSeats, &b.AvailableSeats, &b.Route, &b.FarePerSeat,
			&b.Status, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReserveSeats decrements available_seats by n in a single guarded statement.
// The capacity check and the decrement are one atomic unit; there is no
// read-then-write window. Returns OutOfCapacityError when the guard rejects.
func (r BusRepo) ReserveSeats(ctx context.Context, ex Execer, busID int64, n uint) error {
	res, err := ex.ExecContext(ctx,
		`UPDATE buses
		 SET available_seats = available_seats - ?, updated_at = NOW()
		 WHERE id = ? AND status = 'active' AND available_seats >= ?`,
		n, busID, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Guard rejected: distinguish missing bus, inactive bus, and capacity.
	var status string
	var available uint
	err = ex.QueryRowContext(ctx,
		`SELECT status, available_seats FROM buses WHERE id = ?`, busID).
		Scan(&status, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BusNotFoundError{BusID: busID}
	}
	if err != nil {
		return err
	}
	if status != models.BusActive {
		return domain.ValidationError{Field: "bus", Msg: "bus is " + status + ", not open for booking"}
	}
	return domain.OutOfCapacityError{BusID: busID, Requested: n, Available: available}
}

// ReleaseSeats returns n seats to the bus, capped at total_seats so the
// inventory invariant survives a double release.
func (r BusRepo) ReleaseSeats(ctx context.Context, ex Execer, busID int64, n uint) error {
	res, err := ex.ExecContext(ctx,
		`UPDATE buses
		 SET available_seats = LEAST(total_seats, available_seats + ?), updated_at = NOW()
		 WHERE id = ?`,
		n, busID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.BusNotFoundError{BusID: busID}
	}
	return nil
}

// AdjustSeats applies a signed seat delta. A positive delta consumes seats
// through the same guarded statement as ReserveSeats, so the capacity check
// and the mutation stay one atomic step.
func (r BusRepo) AdjustSeats(ctx context.Context, ex Execer, busID int64, delta int) error {
	switch {
	case delta > 0:
		return r.ReserveSeats(ctx, ex, busID, uint(delta))
	case delta < 0:
		return r.ReleaseSeats(ctx, ex, busID, uint(-delta))
	default:
		return nil
	}
}

// UpdateStatus sets the bus status and returns the updated row.
func (r BusRepo) UpdateStatus(ctx context.Context, id int64, status string) (models.Bus, error) {
	res, err := r.db().ExecContext(ctx,
		`UPDATE buses SET status = ?, updated_at = NOW() WHERE id = ?`, status, id)
	if err != nil {
		return models.Bus{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Bus{}, err
	}
	if affected == 0 {
		// MySQL reports 0 affected rows for a no-op update too; confirm the
		// bus exists before reporting not found.
		b, err := r.GetByID(ctx, id)
		if err != nil {
			return models.Bus{}, err
		}
		return b, nil
	}
	return r.GetByID(ctx, id)
}
