package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/example/roadside-dispatch/internal/models"
)

// PostgresStore implements Store on database/sql. All conditional
// updates are expressed as UPDATE predicates so the check and the write
// happen in one statement.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

// DB exposes the underlying handle for migrations at startup.
func (p *PostgresStore) DB() *sql.DB { return p.db }

func (p *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users(id, name, email, phone, role, password_hash, is_verified, is_active, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Name, nullStr(u.Email), nullStr(u.Phone), u.Role, nullStr(u.PasswordHash),
		u.IsVerified, u.IsActive, u.CreatedAt)
	return err
}

const userCols = `id, name, COALESCE(email,''), COALESCE(phone,''), role, COALESCE(password_hash,''), is_verified, is_active, created_at`

func (p *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.PasswordHash,
		&u.IsVerified, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *PostgresStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
}

func (p *PostgresStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
}

func (p *PostgresStore) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE phone=$1`, phone))
}

func (p *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (p *PostgresStore) CreateProvider(ctx context.Context, pr *models.ProviderProfile) error {
	var lat, lng sql.NullFloat64
	if pr.Location != nil {
		lat = sql.NullFloat64{Float64: pr.Location.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: pr.Location.Lng, Valid: true}
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO provider_profiles(user_id, status, lat, lng, service_types, rating, jobs_completed, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (user_id) DO NOTHING`,
		pr.UserID, pr.Status, lat, lng, pq.Array(pr.ServiceTypes), pr.Rating, pr.JobsCompleted, pr.UpdatedAt)
	return err
}

const providerCols = `user_id, status, lat, lng, service_types, rating, jobs_completed, updated_at`

func scanProvider(scan func(dest ...any) error) (*models.ProviderProfile, error) {
	var pr models.ProviderProfile
	var lat, lng sql.NullFloat64
	var types pq.StringArray
	err := scan(&pr.UserID, &pr.Status, &lat, &lng, &types, &pr.Rating, &pr.JobsCompleted, &pr.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		pr.Location = &models.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	pr.ServiceTypes = []string(types)
	return &pr, nil
}

func (p *PostgresStore) ProviderByID(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+providerCols+` FROM provider_profiles WHERE user_id=$1`, userID)
	return scanProvider(row.Scan)
}

func (p *PostgresStore) ListProviders(ctx context.Context) ([]*models.ProviderProfile, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+providerCols+` FROM provider_profiles ORDER BY created_seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.ProviderProfile
	for rows.Next() {
		pr, err := scanProvider(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CountProviders(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM provider_profiles`).Scan(&n)
	return n, err
}

func (p *PostgresStore) SetPresence(ctx context.Context, userID string, status models.PresenceStatus, loc *models.Coordinate) error {
	now := time.Now().UTC()
	if loc != nil {
		_, err := p.db.ExecContext(ctx,
			`INSERT INTO provider_profiles(user_id, status, lat, lng, service_types, rating, jobs_completed, updated_at)
			 VALUES($1,$2,$3,$4,'{}',5,0,$5)
			 ON CONFLICT (user_id) DO UPDATE SET status=$2, lat=$3, lng=$4, updated_at=$5`,
			userID, status, loc.Lat, loc.Lng, now)
		return err
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO provider_profiles(user_id, status, service_types, rating, jobs_completed, updated_at)
		 VALUES($1,$2,'{}',5,0,$3)
		 ON CONFLICT (user_id) DO UPDATE SET status=$2, updated_at=$3`,
		userID, status, now)
	return err
}

func (p *PostgresStore) ClaimProvider(ctx context.Context, userID string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE provider_profiles SET status=$1, updated_at=$2 WHERE user_id=$3 AND status=$4`,
		models.PresenceBusy, time.Now().UTC(), userID, models.PresenceOnline)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *PostgresStore) IncrementJobsCompleted(ctx context.Context, userID string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE provider_profiles SET jobs_completed = jobs_completed + 1 WHERE user_id=$1`, userID)
	return err
}

func (p *PostgresStore) CreateRequest(ctx context.Context, r *models.ServiceRequest) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO service_requests(id, motorist_id, service_type, description, pickup_lat, pickup_lng, provider_id, status, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.MotoristID, r.ServiceType, r.Description, r.Pickup.Lat, r.Pickup.Lng,
		nullStr(r.ProviderID), r.Status, r.CreatedAt, r.UpdatedAt)
	return err
}

const requestCols = `id, motorist_id, service_type, COALESCE(description,''), pickup_lat, pickup_lng, COALESCE(provider_id,''), status, created_at, updated_at`

func scanRequest(scan func(dest ...any) error) (*models.ServiceRequest, error) {
	var r models.ServiceRequest
	err := scan(&r.ID, &r.MotoristID, &r.ServiceType, &r.Description,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.ProviderID, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *PostgresStore) RequestByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+requestCols+` FROM service_requests WHERE id=$1`, id)
	return scanRequest(row.Scan)
}

func (p *PostgresStore) AssignRequest(ctx context.Context, id, providerID string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE service_requests SET provider_id=$1, status=$2, updated_at=$3 WHERE id=$4 AND status=$5`,
		providerID, models.RequestAssigned, time.Now().UTC(), id, models.RequestPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *PostgresStore) UpdateRequestStatus(ctx context.Context, id string, from, to models.RequestStatus) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE service_requests SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *PostgresStore) ListRequests(ctx context.Context, f RequestFilter) ([]*models.ServiceRequest, error) {
	q := `SELECT ` + requestCols + ` FROM service_requests`
	var args []any
	switch {
	case f.MotoristID != "":
		q += ` WHERE motorist_id=$1`
		args = append(args, f.MotoristID)
	case f.ProviderID != "":
		q += ` WHERE provider_id=$1`
		args = append(args, f.ProviderID)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.ServiceRequest
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CountActiveRequests(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_requests WHERE status = ANY($1)`,
		pq.Array([]string{string(models.RequestAssigned), string(models.RequestEnroute), string(models.RequestInProgress)})).Scan(&n)
	return n, err
}

func (p *PostgresStore) CreateApplication(ctx context.Context, a *models.ProviderApplication) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO provider_applications(id, user_id, company_name, service_types, license_number, insurance_policy, status, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.UserID, nullStr(a.CompanyName), pq.Array(a.ServiceTypes),
		nullStr(a.LicenseNumber), nullStr(a.InsurancePolicy), a.Status, a.CreatedAt)
	return err
}

const applicationCols = `id, user_id, COALESCE(company_name,''), service_types, COALESCE(license_number,''), COALESCE(insurance_policy,''), status, created_at`

func scanApplication(scan func(dest ...any) error) (*models.ProviderApplication, error) {
	var a models.ProviderApplication
	var types pq.StringArray
	err := scan(&a.ID, &a.UserID, &a.CompanyName, &types, &a.LicenseNumber, &a.InsurancePolicy, &a.Status, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.ServiceTypes = []string(types)
	return &a, nil
}

func (p *PostgresStore) ApplicationByID(ctx context.Context, id string) (*models.ProviderApplication, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+applicationCols+` FROM provider_applications WHERE id=$1`, id)
	return scanApplication(row.Scan)
}

func (p *PostgresStore) ListApplications(ctx context.Context) ([]*models.ProviderApplication, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+applicationCols+` FROM provider_applications ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.ProviderApplication
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *PostgresStore) SetApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (bool, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE provider_applications SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *PostgresStore) CreatePayment(ctx context.Context, pay *models.Payment) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO payments(id, request_id, motorist_id, provider_id, amount, currency, status, gateway_reference, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		pay.ID, pay.RequestID, pay.MotoristID, nullStr(pay.ProviderID), pay.Amount, pay.Currency,
		pay.Status, nullStr(pay.GatewayReference), pay.CreatedAt, pay.UpdatedAt)
	return err
}

func (p *PostgresStore) SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus, gatewayRef string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE payments SET status=$1, gateway_reference=COALESCE(NULLIF($2,''), gateway_reference), updated_at=$3 WHERE id=$4`,
		status, gatewayRef, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (p *PostgresStore) SumPayments(ctx context.Context) (float64, error) {
	var sum float64
	err := p.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount),0) FROM payments`).Scan(&sum)
	return sum, err
}

func (p *PostgresStore) CreateReview(ctx context.Context, r *models.Review) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO reviews(id, request_id, motorist_id, provider_id, rating, comment, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.RequestID, r.MotoristID, r.ProviderID, r.Rating, nullStr(r.Comment), r.CreatedAt)
	return err
}

func (p *PostgresStore) CreateDispute(ctx context.Context, d *models.Dispute) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO disputes(id, request_id, raised_by, reason, details, status, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.RequestID, d.RaisedBy, d.Reason, nullStr(d.Details), d.Status, d.CreatedAt)
	return err
}

func (p *PostgresStore) CreateNotificationToken(ctx context.Context, t *models.NotificationToken) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO notification_tokens(id, user_id, token, platform, created_at)
		 VALUES($1,$2,$3,$4,$5)`,
		t.ID, t.UserID, t.Token, t.Platform, t.CreatedAt)
	return err
}

func (p *PostgresStore) NotificationTokensByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT token FROM notification_tokens WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Store = (*PostgresStore)(nil)
