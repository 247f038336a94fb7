package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pharmadb/config"
	"pharmadb/models"

	_ "github.com/microsoft/go-mssqldb"
)

// SQLServerService owns the pooled connection to the relational store. It only
// ever sees statements that already passed the safety filter.
type SQLServerService struct {
	db             *sql.DB
	logger         *zap.Logger
	resultsStorage *ResultsStorage
}

func NewSQLServerService(cfg config.SQLServerConfig, resultsDir string, logger *zap.Logger) (*SQLServerService, error) {
	if cfg.Server == "" || cfg.Database == "" {
		return nil, fmt.Errorf("SQL Server configuration is incomplete")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL Server connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		// Non-fatal: the app starts even when SQL Server is temporarily down.
		logger.Warn("failed to ping SQL Server during initialization", zap.Error(err))
	}

	resultsStorage, err := NewResultsStorage(resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize results storage: %w", err)
	}

	return &SQLServerService{
		db:             db,
		logger:         logger,
		resultsStorage: resultsStorage,
	}, nil
}

func buildConnectionString(cfg config.SQLServerConfig) string {
	connStr := fmt.Sprintf("server=%s;port=%s;database=%s",
		cfg.Server, cfg.Port, cfg.Database)

	if cfg.UserID != "" {
		connStr += fmt.Sprintf(";user id=%s;password=%s", cfg.UserID, cfg.Password)
	} else {
		connStr += ";trusted_connection=true"
	}

	if cfg.Encrypt {
		connStr += ";encrypt=true;TrustServerCertificate=true"
	} else {
		connStr += ";encrypt=false"
	}

	return connStr
}

func (s *SQLServerService) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ExecuteQuery runs one read-only statement and materializes the rows.
func (s *SQLServerService) ExecuteQuery(ctx context.Context, query string) (*models.SQLResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("SQL Server connection is not initialized")
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return &models.SQLResult{Error: err.Error()}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return &models.SQLResult{Error: err.Error()}, err
	}

	var resultRows [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return &models.SQLResult{Error: err.Error()}, err
		}

		// Stringify driver values so the row serializes cleanly.
		row := make([]interface{}, len(columns))
		for i, val := range values {
			if val == nil {
				row[i] = nil
			} else {
				row[i] = fmt.Sprintf("%v", val)
			}
		}
		resultRows = append(resultRows, row)
	}

	if err := rows.Err(); err != nil {
		return &models.SQLResult{Error: err.Error()}, err
	}

	return &models.SQLResult{Columns: columns, Rows: resultRows}, nil
}

const schemaColumnsQuery = `SELECT TABLE_NAME, COLUMN_NAME ` +
	`FROM INFORMATION_SCHEMA.COLUMNS ` +
	`WHERE TABLE_SCHEMA='dbo' AND TABLE_NAME IN ('products','selling','buying');`

// SchemaColumns loads the metadata catalog for the three known tables. It is
// the schema.Source implementation the snapshot cache loads from.
func (s *SQLServerService) SchemaColumns(ctx context.Context) (map[string][]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("SQL Server connection is not initialized")
	}

	rows, err := s.db.QueryContext(ctx, schemaColumnsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query INFORMATION_SCHEMA: %w", err)
	}
	defer rows.Close()

	tables := map[string][]string{"products": {}, "selling": {}, "buying": {}}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("failed to scan schema row: %w", err)
		}
		key := table
		tables[key] = append(tables[key], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema rows: %w", err)
	}

	return tables, nil
}

// Ping verifies the connection with SELECT 1.
func (s *SQLServerService) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("SQL Server connection is not initialized")
	}
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

func (s *SQLServerService) IsConnected() bool {
	return s.db != nil && s.db.Ping() == nil
}

func (s *SQLServerService) GetResultsStorage() *ResultsStorage {
	return s.resultsStorage
}
