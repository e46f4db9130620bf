package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"github.com/YodaWagyu/everything-switching/internal/domain/model"
	"github.com/YodaWagyu/everything-switching/internal/domain/repository"
)

// ClickHouseFetcher implements the PeriodFetcher interface on top of the
// ClickHouse sales warehouse.
type ClickHouseFetcher struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Timeout  int
}

func NewClickHouseFetcher(cfg ClickHouseConfig) (*ClickHouseFetcher, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.Timeout) * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	// Check the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	// Ensure tables exist
	if err := createTablesIfNotExist(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &ClickHouseFetcher{conn: conn}, nil
}

var _ repository.PeriodFetcher = (*ClickHouseFetcher)(nil)

func createTablesIfNotExist(conn driver.Conn) error {
	err := conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS sales (
			Date Date,
			CustomerCode String,
			DocNo String,
			Barcode String,
			BranchCode String,
			TotalSales Decimal(20, 4)
		) ENGINE = MergeTree()
		ORDER BY (Date, CustomerCode, Barcode)
	`)
	if err != nil {
		return err
	}

	err = conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS product_master (
			Barcode String,
			ProductName String,
			Brand String,
			CategoryName String,
			SubCategoryName String
		) ENGINE = ReplacingMergeTree()
		ORDER BY Barcode
	`)
	if err != nil {
		return err
	}

	return conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS branch (
			BranchCode String,
			BranchName String,
			OpeningDate Date
		) ENGINE = ReplacingMergeTree()
		ORDER BY BranchCode
	`)
}

// FetchPeriods executes the switching aggregation and splits the rows into
// the before and after record sets.
func (f *ClickHouseFetcher) FetchPeriods(ctx context.Context, spec model.QuerySpec) ([]model.PeriodRecord, []model.PeriodRecord, error) {
	sql, err := BuildSwitchingSQL(spec)
	if err != nil {
		return nil, nil, err
	}

	rows, err := f.conn.Query(ctx, sql)
	if err != nil {
		return nil, nil, fmt.Errorf("switching query failed: %w", err)
	}
	defer rows.Close()

	var before, after []model.PeriodRecord
	for rows.Next() {
		var (
			period   string
			customer string
			entity   string
			amount   decimal.Decimal
			count    uint64
		)
		if err := rows.Scan(&period, &customer, &entity, &amount, &count); err != nil {
			return nil, nil, err
		}
		rec := model.PeriodRecord{
			EntityID:       entity,
			CustomerID:     customer,
			PurchaseAmount: amount,
			PurchaseCount:  int(count),
		}
		switch model.Period(period) {
		case model.PeriodBefore:
			rec.Period = model.PeriodBefore
			before = append(before, rec)
		case model.PeriodAfter:
			rec.Period = model.PeriodAfter
			after = append(after, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// Categories lists the distinct category names in the product master.
func (f *ClickHouseFetcher) Categories(ctx context.Context) ([]string, error) {
	return f.distinct(ctx, `
		SELECT DISTINCT CategoryName
		FROM product_master
		WHERE CategoryName != ''
		ORDER BY CategoryName
	`)
}

// BrandsByCategory lists the distinct brands carried inside one category.
func (f *ClickHouseFetcher) BrandsByCategory(ctx context.Context, category string) ([]string, error) {
	return f.distinct(ctx, `
		SELECT DISTINCT Brand
		FROM product_master
		WHERE CategoryName = ?
		  AND Brand != ''
		ORDER BY Brand
	`, category)
}

func (f *ClickHouseFetcher) distinct(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := f.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func (f *ClickHouseFetcher) Close() error {
	return f.conn.Close()
}
