/*
 * Copyright 2025 suzuito.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// connectionManager owns one bun.DB and keeps it alive: it opens the
// driver-specific connection, tunes the pool, and optionally watches health
// in the background, reconnecting when a check fails.
type connectionManager struct {
	cfg    *ConnectionConfig
	logger Logger

	mu        sync.RWMutex
	db        *bun.DB
	connected bool
	lastErr   error
	lastCheck *HealthStatus

	retries   int
	watchOnce sync.Once
	stopWatch chan struct{}
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// A nil config gets the defaults from DefaultConnectionConfig.
func NewDatabaseManager(cfg *ConnectionConfig) AbstractDatabaseManager {
	if cfg == nil {
		cfg = DefaultConnectionConfig()
	}
	return &connectionManager{
		cfg:       cfg,
		lastCheck: &HealthStatus{},
		stopWatch: make(chan struct{}),
	}
}

func (m *connectionManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected && m.db != nil {
		return nil
	}

	if m.cfg.ConnectTimeout <= 0 {
		m.cfg.ConnectTimeout = 30 * time.Second
	}

	db, err := openBunDB(m.cfg)
	if err != nil {
		m.lastErr = err
		return fmt.Errorf("failed to open database: %w", err)
	}
	m.attachHooks(db)
	m.tunePool(db.DB)
	m.db = db

	pingCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		m.lastErr = err
		return fmt.Errorf("database unreachable: %w", err)
	}

	m.connected = true
	m.lastErr = nil
	m.retries = 0

	if m.cfg.Keepalive.HealthCheckInterval > 0 {
		m.watchOnce.Do(func() { go m.watchHealth() })
	}

	if m.logger != nil {
		m.logger.Info("Database connected", "type", m.cfg.Type, "host", m.cfg.Host)
	}
	return nil
}

// openBunDB opens the sql.DB for the configured driver and wraps it with the
// matching Bun dialect.
func openBunDB(cfg *ConnectionConfig) (*bun.DB, error) {
	switch cfg.Type {
	case "mysql":
		sqldb, err := sql.Open("mysql", mysqlDSN(cfg))
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, mysqldialect.New()), nil
	case "postgres", "postgresql":
		sqldb, err := sql.Open("postgres", postgresDSN(cfg))
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case "sqlite", "sqlite3":
		sqldb, err := sql.Open(sqliteshim.ShimName, sqliteDSN(cfg))
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func mysqlDSN(cfg *ConnectionConfig) string {
	dc := mysql.NewConfig()
	dc.User = cfg.Username
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dc.DBName = cfg.DBName
	dc.ParseTime = true
	dc.Loc = time.Local
	dc.Timeout = cfg.ConnectTimeout
	dc.ReadTimeout = cfg.ReadTimeout
	dc.WriteTimeout = cfg.WriteTimeout
	dc.Params = map[string]string{"charset": "utf8mb4"}
	return dc.FormatDSN()
}

func postgresDSN(cfg *ConnectionConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		fmt.Sprintf("host=%s", cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		fmt.Sprintf("user=%s", cfg.Username),
		fmt.Sprintf("password=%s", cfg.Password),
		fmt.Sprintf("dbname=%s", cfg.DBName),
		fmt.Sprintf("sslmode=%s", sslMode),
		fmt.Sprintf("connect_timeout=%d", int(cfg.ConnectTimeout.Seconds())),
	}
	return strings.Join(parts, " ")
}

// sqliteDSN treats an empty or ":memory:" name as a shared in-memory
// database, passes "file:" DSNs through untouched, and otherwise stores a
// <name>.db file in the working directory.
func sqliteDSN(cfg *ConnectionConfig) string {
	switch {
	case cfg.DBName == "" || cfg.DBName == ":memory:":
		return "file::memory:?cache=shared"
	case strings.HasPrefix(cfg.DBName, "file:"):
		return cfg.DBName
	default:
		return cfg.DBName + ".db"
	}
}

func (m *connectionManager) attachHooks(db *bun.DB) {
	if m.cfg.EnableQueryLog {
		db.AddQueryHook(NewQueryHook("SQLLOG", true, nil))
	}
	// BUNDEBUG=1/2 turns on bun's own query tracer independently of the
	// configured query log.
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.FromEnv("BUNDEBUG")))
	if m.cfg.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryLogHook{threshold: m.cfg.SlowQueryTime, logger: m.logger})
	}
}

func (m *connectionManager) tunePool(sqldb *sql.DB) {
	sqldb.SetMaxIdleConns(m.cfg.Pool.MaxIdleConns)
	sqldb.SetMaxOpenConns(m.cfg.Pool.MaxOpenConns)
	sqldb.SetConnMaxLifetime(m.cfg.Pool.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(m.cfg.Pool.ConnMaxIdleTime)
}

func (m *connectionManager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case m.stopWatch <- struct{}{}:
	default:
	}

	if m.db == nil {
		return nil
	}

	err := m.db.Close()
	m.db = nil
	m.connected = false

	if m.logger != nil {
		if err != nil {
			m.logger.Error("Closing database connection failed", "error", err)
		} else {
			m.logger.Info("Database connection closed")
		}
	}
	return err
}

func (m *connectionManager) Reconnect(ctx context.Context) error {
	if m.logger != nil {
		m.logger.Info("Reconnecting to the database")
	}
	if err := m.Disconnect(); err != nil && m.logger != nil {
		m.logger.Warn("Error closing previous connection", "error", err)
	}
	return m.Connect(ctx)
}

func (m *connectionManager) Ping(ctx context.Context) error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (m *connectionManager) GetDB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *connectionManager) GetSQLDB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil
	}
	return m.db.DB
}

func (m *connectionManager) HealthCheck(ctx context.Context) *HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		Connected:     m.connected,
	}

	if m.db == nil {
		status.LastError = "database not initialized"
		m.lastCheck = status
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	err := m.db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)

	status.Healthy = err == nil
	status.Connected = err == nil
	if err != nil {
		status.LastError = err.Error()
	}
	m.lastErr = err

	stats := m.db.DB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections

	m.lastCheck = status
	return status
}

// watchHealth pings the database on a fixed interval until Disconnect and
// reconnects after a failed check when reconnection is enabled.
func (m *connectionManager) watchHealth() {
	ticker := time.NewTicker(m.cfg.Keepalive.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
			status := m.HealthCheck(ctx)
			cancel()
			if !status.Healthy && m.cfg.Keepalive.EnableReconnect {
				m.tryReconnect()
			}
		case <-m.stopWatch:
			return
		}
	}
}

func (m *connectionManager) tryReconnect() {
	if m.retries >= m.cfg.Keepalive.MaxReconnectTries {
		if m.logger != nil {
			m.logger.Error("Giving up on reconnecting", "tries", m.retries)
		}
		return
	}
	m.retries++
	if m.logger != nil {
		m.logger.Info("Reconnect attempt", "try", m.retries)
	}

	time.Sleep(m.cfg.Keepalive.ReconnectInterval)

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ConnectTimeout)
	defer cancel()

	if err := m.Reconnect(ctx); err != nil {
		if m.logger != nil {
			m.logger.Error("Reconnect failed", "error", err, "try", m.retries)
		}
		return
	}
	m.retries = 0
	if m.logger != nil {
		m.logger.Info("Reconnect succeeded")
	}
}

func (m *connectionManager) GetStats() *DBStats {
	sqldb := m.GetSQLDB()
	if sqldb == nil {
		return &DBStats{}
	}

	s := sqldb.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

func (m *connectionManager) RunMigrations(ctx context.Context) error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, m.logger).RunMigrations(ctx)
}

func (m *connectionManager) InitData(ctx context.Context) error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, m.logger).InitData(ctx)
}

func (m *connectionManager) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// slowQueryLogHook warns about statements that ran longer than the threshold.
type slowQueryLogHook struct {
	threshold time.Duration
	logger    Logger
}

func (h *slowQueryLogHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryLogHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil {
		return
	}
	if elapsed := time.Since(event.StartTime); elapsed > h.threshold {
		h.logger.Warn("Slow query",
			"duration", elapsed,
			"threshold", h.threshold,
			"query", event.Query,
		)
	}
}
