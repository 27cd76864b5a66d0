package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	intconfig "busbook/internal/config"
	"busbook/internal/domain"
	"busbook/internal/domain/models"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BookingRepo) ex(ex Execer) Execer {
	if ex != nil {
		return ex
	}
	return r.db()
}

const bookingColumns = `id, reference, user_id, bus_id, number_of_seats, total_fare, status,
	travel_date, passenger_name, passenger_phone, payment_method, payment_status, notes,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var b models.Booking
	var status string
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.UserID,
		&b.BusID,
		&b.NumberOfSeats,
		&b.TotalFare,
		&status,
		&b.TravelDate,
		&b.PassengerName,
		&b.PassengerPhone,
		&b.PaymentMethod,
		&b.PaymentStatus,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	b.Status = models.BookingStatus(status)
	return b, err
}

func (r BookingRepo) Insert(ctx context.Context, ex Execer, b models.Booking) (int64, error) {
	res, err := r.ex(ex).ExecContext(ctx,
		`INSERT INTO bookings
		 (reference, user_id, bus_id, number_of_seats, total_fare, status,
		  travel_date, passenger_name, passenger_phone, payment_method, payment_status, notes,
		  created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,NOW(),NOW())`,
		b.Reference, b.UserID, b.BusID, b.NumberOfSeats, b.TotalFare, string(b.Status),
		b.TravelDate, b.PassengerName, b.PassengerPhone, b.PaymentMethod, b.PaymentStatus, b.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r BookingRepo) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	b, err := scanBooking(r.db().QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.BookingNotFoundError{BookingID: id}
	}
	if err != nil {
		return models.Booking{}, err
	}
	seats, err := r.ListSeats(ctx, nil, id)
	if err != nil {
		return models.Booking{}, err
	}
	b.SeatNumbers = seats
	return b, nil
}

// GetForUpdate reads a booking inside a transaction with a row lock, so a
// concurrent release/adjust against the same booking serializes here.
func (r BookingRepo) GetForUpdate(ctx context.Context, ex Execer, id int64) (models.Booking, error) {
	b, err := scanBooking(r.ex(ex).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, domain.BookingNotFoundError{BookingID: id}
	}
	return b, err
}

// UpdateStatus is a compare-and-set transition: the row moves to `to` only
// while still in one of `from`. Returns false when no row matched.
func (r BookingRepo) UpdateStatus(ctx context.Context, ex Execer, id int64, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []any{string(to), id}
	for _, s := range from {
		args = append(args, string(s))
	}
	res, err := r.ex(ex).ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = NOW() WHERE id = ? AND status IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Update performs PATCH-style updates based on key presence.
func (r BookingRepo) Update(ctx context.Context, ex Execer, id int64, upd models.BookingUpdate) error {
	sets := []string{}
	args := []any{}

	if upd.NumberOfSeats != nil {
		sets = append(sets, "number_of_seats=?")
		args = append(args, *upd.NumberOfSeats)
	}
	if upd.TravelDate != nil {
		sets = append(sets, "travel_date=?")
		args = append(args, strings.TrimSpace(*upd.TravelDate))
	}
	if upd.PassengerName != nil {
		sets = append(sets, "passenger_name=?")
		args = append(args, strings.TrimSpace(*upd.PassengerName))
	}
	if upd.PassengerPhone != nil {
		sets = append(sets, "passenger_phone=?")
		args = append(args, strings.TrimSpace(*upd.PassengerPhone))
	}
	if upd.PaymentMethod != nil {
		sets = append(sets, "payment_method=?")
		args = append(args, strings.TrimSpace(*upd.PaymentMethod))
	}
	if upd.PaymentStatus != nil {
		sets = append(sets, "payment_status=?")
		args = append(args, strings.TrimSpace(*upd.PaymentStatus))
	}
	if upd.Notes != nil {
		sets = append(sets, "notes=?")
		args = append(args, *upd.Notes)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, id)

	_, err := r.ex(ex).ExecContext(ctx,
		`UPDATE bookings SET `+strings.Join(sets, ",")+` WHERE id = ?`, args...)
	return err
}

// InsertSeats claims explicit seat numbers for a booking. The unique key on
// (bus_id, travel_date, seat_number) makes two live bookings of the same seat
// impossible; the duplicate-key rejection surfaces as SeatConflictError.
func (r BookingRepo) InsertSeats(ctx context.Context, ex Execer, bookingID, busID int64, travelDate string, seats []int) error {
	if len(seats) == 0 {
		return nil
	}
	values := strings.TrimSuffix(strings.Repeat("(?,?,?,?),", len(seats)), ",")
	args := make([]any, 0, len(seats)*4)
	for _, seat := range seats {
		args = append(args, bookingID, busID, travelDate, seat)
	}
	_, err := r.ex(ex).ExecContext(ctx,
		`INSERT INTO booking_seats (booking_id, bus_id, travel_date, seat_number) VALUES `+values,
		args...)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
		return domain.SeatConflictError{BusID: busID, TravelDate: travelDate, Err: err}
	}
	return err
}

func (r BookingRepo) DeleteSeats(ctx context.Context, ex Execer, bookingID int64) error {
	_, err := r.ex(ex).ExecContext(ctx,
		`DELETE FROM booking_seats WHERE booking_id = ?`, bookingID)
	return err
}

func (r BookingRepo) ListSeats(ctx context.Context, ex Execer, bookingID int64) ([]int, error) {
	rows, err := r.ex(ex).QueryContext(ctx,
		`SELECT seat_number FROM booking_seats WHERE booking_id = ? ORDER BY seat_number ASC`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return out, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r BookingRepo) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r BookingRepo) ListByStatus(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE status = ? ORDER BY created_at DESC`, string(status))
}

func (r BookingRepo) list(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
