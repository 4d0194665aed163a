package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mcoot/coursehub/internal/model"
	"github.com/mcoot/coursehub/internal/storage"
	"github.com/mcoot/coursehub/internal/storage/postgres/migrations"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage is a PostgreSQL-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens a pgx-backed pool and optionally applies migrations
func New(ctx context.Context, cfg Config) (*Storage, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	s := NewWithDB(db)
	if cfg.Migrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
	}
	return s, nil
}

// NewWithDB wraps an existing handle (for testing)
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Migrate sets up goose with the embedded migrations and runs them
func (s *Storage) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

// Close closes the pool
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

type scanner interface {
	Scan(dest ...any) error
}

// User operations

const userColumns = `id, name, email, password_hash, role, avatar_public_id, avatar_url,
	reset_code, reset_expires_at, videos, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	var (
		u       model.User
		code    sql.NullString
		expires sql.NullTime
		videos  []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Avatar.PublicID, &u.Avatar.URL, &code, &expires, &videos,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if code.Valid {
		u.Reset.Code = code.String
	}
	if expires.Valid {
		u.Reset.ExpiresAt = expires.Time
	}
	if len(videos) > 0 {
		if err := json.Unmarshal(videos, &u.Videos); err != nil {
			return nil, fmt.Errorf("decode videos: %w", err)
		}
	}
	return &u, nil
}

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			avatar_public_id = EXCLUDED.avatar_public_id,
			avatar_url = EXCLUDED.avatar_url,
			reset_code = EXCLUDED.reset_code,
			reset_expires_at = EXCLUDED.reset_expires_at,
			videos = EXCLUDED.videos,
			updated_at = EXCLUDED.updated_at`

	videos := user.Videos
	if videos == nil {
		videos = []model.VideoID{}
	}
	videosJSON, err := json.Marshal(videos)
	if err != nil {
		return err
	}

	var code sql.NullString
	var expires sql.NullTime
	if user.Reset.Code != "" {
		code = sql.NullString{String: user.Reset.Code, Valid: true}
		expires = sql.NullTime{Time: user.Reset.ExpiresAt, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, query,
		string(user.ID), user.Name, model.NormalizeEmail(user.Email), user.PasswordHash, string(user.Role),
		user.Avatar.PublicID, user.Avatar.URL, code, expires, videosJSON,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrEmailTaken
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Storage) getUserWhere(ctx context.Context, where string, arg any) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	return s.getUserWhere(ctx, "id = $1", string(id))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUserWhere(ctx, "email = $1", model.NormalizeEmail(email))
}

func (s *Storage) GetUserByResetCode(ctx context.Context, code string) (*model.User, error) {
	if code == "" {
		return nil, model.ErrUserNotFound
	}
	return s.getUserWhere(ctx, "reset_code = $1", code)
}

func (s *Storage) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Storage) DeleteUser(ctx context.Context, id model.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, string(id)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Video operations

const videoColumns = `id, title, description, media_public_id, media_url, tutor_id, created_at, updated_at`

func scanVideo(row scanner) (*model.Video, error) {
	var v model.Video
	if err := row.Scan(&v.ID, &v.Title, &v.Description, &v.Media.PublicID, &v.Media.URL,
		&v.TutorID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Storage) SaveVideo(ctx context.Context, video *model.Video) error {
	query := `INSERT INTO videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			media_public_id = EXCLUDED.media_public_id,
			media_url = EXCLUDED.media_url,
			tutor_id = EXCLUDED.tutor_id,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.db.ExecContext(ctx, query,
		string(video.ID), video.Title, video.Description, video.Media.PublicID, video.Media.URL,
		string(video.TutorID), video.CreatedAt, video.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Storage) GetVideo(ctx context.Context, id model.VideoID) (*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`
	video, err := scanVideo(s.db.QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrVideoNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return video, nil
}

func (s *Storage) queryVideos(ctx context.Context, query string, args ...any) ([]*model.Video, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	videos := []*model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (s *Storage) ListVideos(ctx context.Context) ([]*model.Video, error) {
	return s.queryVideos(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC, id`)
}

func (s *Storage) ListVideosByTutor(ctx context.Context, tutorID model.UserID) ([]*model.Video, error) {
	return s.queryVideos(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE tutor_id = $1 ORDER BY created_at DESC, id`,
		string(tutorID))
}

func (s *Storage) DeleteVideo(ctx context.Context, id model.VideoID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, string(id)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Product operations

const productColumns = `id, name, description, price, category, stock, images,
	rating, num_reviews, created_by, created_at, updated_at`

func scanProduct(row scanner) (*model.Product, error) {
	var (
		p      model.Product
		images []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &images,
		&p.Rating, &p.NumReviews, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	return &p, nil
}

func (s *Storage) SaveProduct(ctx context.Context, product *model.Product) error {
	images := product.Images
	if images == nil {
		images = []model.MediaRef{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			stock = EXCLUDED.stock,
			images = EXCLUDED.images,
			rating = EXCLUDED.rating,
			num_reviews = EXCLUDED.num_reviews,
			updated_at = EXCLUDED.updated_at`

	if _, err := tx.ExecContext(ctx, query,
		string(product.ID), product.Name, product.Description, product.Price, product.Category,
		product.Stock, imagesJSON, product.Rating, product.NumReviews, string(product.CreatedBy),
		product.CreatedAt, product.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if err := replaceReviews(ctx, tx, product); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func replaceReviews(ctx context.Context, db DBTX, product *model.Product) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE product_id = $1`, string(product.ID)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, r := range product.Reviews {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO reviews (id, product_id, user_id, name, rating, comment, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			string(r.ID), string(product.ID), string(r.UserID), r.Name, r.Rating, r.Comment, r.CreatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (s *Storage) loadReviews(ctx context.Context, product *model.Product) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, rating, comment, created_at FROM reviews
		 WHERE product_id = $1 ORDER BY created_at, id`,
		string(product.ID))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	product.Reviews = []model.Review{}
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		product.Reviews = append(product.Reviews, r)
	}
	return rows.Err()
}

func (s *Storage) GetProduct(ctx context.Context, id model.ProductID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(s.db.QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := s.loadReviews(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Storage) ListProducts(ctx context.Context, query model.ProductQuery) (*model.ProductPage, error) {
	page := &model.ProductPage{Products: []*model.Product{}}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&page.TotalCount); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	where, args := productWhere(query)
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&page.FilteredCount); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	args = append(args, query.Limit(), query.Offset())
	list := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, list, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("db error: %w", err)
		}
		page.Products = append(page.Products, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for _, p := range page.Products {
		if err := s.loadReviews(ctx, p); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id model.ProductID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, string(id)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// productWhere builds the WHERE clause and positional args for a product query
func productWhere(q model.ProductQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.Keyword != "" {
		add("name ILIKE $%d", "%"+escapeLike(q.Keyword)+"%")
	}
	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.MinPrice != nil {
		add("price >= $%d", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		add("price <= $%d", *q.MaxPrice)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
