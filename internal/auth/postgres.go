package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gatehouse.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL and returns a store with tuned pool defaults.
func Open(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PGStore{db: db}, nil
}

// NewPGStore wraps an existing database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) DB() *sql.DB { return s.db }

func (s *PGStore) Tokens() TokenStore                     { return &tokenStore{db: s.db} }
func (s *PGStore) Sessions() SessionStore                 { return &sessionStore{db: s.db} }
func (s *PGStore) SessionCookies() SessionCookieStore     { return &cookieStore{db: s.db} }
func (s *PGStore) Users() UserStore                       { return &userStore{db: s.db} }
func (s *PGStore) Clearances() ClearanceStore             { return &clearanceStore{db: s.db} }
func (s *PGStore) Consumers() ConsumerStore               { return &consumerStore{db: s.db} }
func (s *PGStore) ConsumableTokens() ConsumableTokenStore { return &consumableStore{db: s.db} }

// Token store --------------------------------------------------------------
type tokenStore struct{ db *sql.DB }

func (s *tokenStore) Create(ctx context.Context, tok *Token) error {
	if tok.ID == "" {
		tok.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into tokens(id, secret, created_at, expired_at) values($1,$2,$3,$4)`,
		tok.ID, tok.Secret, tok.CreatedAt, tok.ExpiredAt,
	)
	return err
}

func (s *tokenStore) FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*Token, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, secret, created_at, expired_at from tokens where secret=$1 and expired_at > $2`,
		secret, now,
	)
	var tok Token
	if err := row.Scan(&tok.ID, &tok.Secret, &tok.CreatedAt, &tok.ExpiredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tok, nil
}

func (s *tokenStore) Extend(ctx context.Context, tokenID string, expiredAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update tokens set expired_at=$1 where id=$2`, expiredAt, tokenID)
	return err
}

// ForceExpire is the exactly-once linchpin: one conditional update whose
// affected-row count decides who won a racing consume.
func (s *tokenStore) ForceExpire(ctx context.Context, tokenID string, cutoff, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`update tokens set expired_at=$1 where id=$2 and expired_at > $3`,
		cutoff, tokenID, now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Session store ------------------------------------------------------------
type sessionStore struct{ db *sql.DB }

func (s *sessionStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into sessions(id, token_id, created_at) values($1,$2,$3)`,
		sess.ID, sess.TokenID, sess.CreatedAt,
	)
	return err
}

func (s *sessionStore) FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`select s.id, s.token_id, s.created_at
		 from sessions s
		 join tokens t on t.id = s.token_id
		 where t.secret=$1 and t.expired_at > $2`,
		secret, now,
	)
	var sess Session
	if err := row.Scan(&sess.ID, &sess.TokenID, &sess.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

// Session cookie store -----------------------------------------------------
type cookieStore struct{ db *sql.DB }

func (s *cookieStore) Insert(ctx context.Context, cookie *SessionCookie) error {
	if cookie.ID == "" {
		cookie.ID = ids.New()
	}
	cookie.Active = true
	_, err := s.db.ExecContext(ctx,
		`insert into session_cookies(id, session_id, name, value, active, created_at)
		 values($1,$2,$3,$4,$5,$6)`,
		cookie.ID, cookie.SessionID, cookie.Name, cookie.Value, cookie.Active, cookie.CreatedAt,
	)
	return err
}

func (s *cookieStore) FindActive(ctx context.Context, sessionID, name string) (*SessionCookie, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, session_id, name, value, active, created_at
		 from session_cookies
		 where session_id=$1 and name=$2 and active`,
		sessionID, name,
	)
	var c SessionCookie
	if err := row.Scan(&c.ID, &c.SessionID, &c.Name, &c.Value, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *cookieStore) Deactivate(ctx context.Context, sessionID, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`update session_cookies set active=false where session_id=$1 and name=$2 and active`,
		sessionID, name,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// User store ---------------------------------------------------------------
type userStore struct{ db *sql.DB }

func (s *userStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	u.Active = true
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, password_hash, salt, active, clearance_id, created_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		u.ID, u.Username, u.PasswordHash, u.Salt, u.Active, u.ClearanceID, u.CreatedAt,
	)
	return err
}

func (s *userStore) FindActiveByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, salt, active, clearance_id, created_at
		 from users where username=$1 and active`,
		username,
	)
	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Salt, &u.Active, &u.ClearanceID, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Clearance store ----------------------------------------------------------
type clearanceStore struct{ db *sql.DB }

func (s *clearanceStore) List(ctx context.Context) ([]Clearance, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, sequence, name from clearances order by sequence asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Clearance
	for rows.Next() {
		var c Clearance
		if err := rows.Scan(&c.ID, &c.Sequence, &c.Name); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *clearanceStore) FindByName(ctx context.Context, name string) (*Clearance, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, sequence, name from clearances where name=$1`, name)
	var c Clearance
	if err := row.Scan(&c.ID, &c.Sequence, &c.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Consumer store -----------------------------------------------------------
type consumerStore struct{ db *sql.DB }

func (s *consumerStore) Create(ctx context.Context, c *Consumer) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	c.Active = true
	_, err := s.db.ExecContext(ctx,
		`insert into consumers(id, name, active, created_at) values($1,$2,$3,$4)`,
		c.ID, c.Name, c.Active, c.CreatedAt,
	)
	return err
}

func (s *consumerStore) FindActiveByName(ctx context.Context, name string) (*Consumer, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, active, created_at from consumers where name=$1 and active`, name)
	var c Consumer
	if err := row.Scan(&c.ID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Consumable token store ---------------------------------------------------
type consumableStore struct{ db *sql.DB }

func (s *consumableStore) Create(ctx context.Context, ct *ConsumableToken) error {
	if ct.ID == "" {
		ct.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into consumable_tokens(id, token_id, consumer_id, created_at)
		 values($1,$2,$3,$4)`,
		ct.ID, ct.TokenID, ct.ConsumerID, ct.CreatedAt,
	)
	return err
}

func (s *consumableStore) FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*ConsumableToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select ct.id, ct.token_id, ct.consumer_id, c.name, ct.created_at
		 from consumable_tokens ct
		 join tokens t on t.id = ct.token_id
		 join consumers c on c.id = ct.consumer_id
		 where t.secret=$1 and t.expired_at > $2`,
		secret, now,
	)
	var ct ConsumableToken
	if err := row.Scan(&ct.ID, &ct.TokenID, &ct.ConsumerID, &ct.ConsumerName, &ct.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ct, nil
}
