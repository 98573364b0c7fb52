package database

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/meridian-commerce/storefront/pkg/database"

// slowQueryCfg holds the configurable slow query logging settings.
var slowQueryCfg struct {
	mu        sync.RWMutex
	threshold time.Duration
	logger    *slog.Logger
}

// SetSlowQueryLogging configures slow query detection. Queries exceeding the
// threshold are logged as warnings with operation name, SQL statement, and
// duration. A zero threshold disables slow query logging.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	slowQueryCfg.mu.Lock()
	defer slowQueryCfg.mu.Unlock()
	slowQueryCfg.threshold = threshold
	slowQueryCfg.logger = logger
}

// getSlowQueryConfig returns the current slow query threshold and logger.
func getSlowQueryConfig() (time.Duration, *slog.Logger) {
	slowQueryCfg.mu.RLock()
	defer slowQueryCfg.mu.RUnlock()
	return slowQueryCfg.threshold, slowQueryCfg.logger
}

// TraceQuery starts a span for a database operation. The returned function
// must be called when the operation completes (typically via defer):
//
//	ctx, end := database.TraceQuery(ctx, "GetProduct", "SELECT * FROM products WHERE id = $1")
//	defer func() { end(err) }()
//
// If slow query logging is enabled via SetSlowQueryLogging, queries exceeding
// the configured threshold are logged as warnings.
func TraceQuery(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		// Slow query logging.
		if threshold, logger := getSlowQueryConfig(); threshold > 0 && logger != nil {
			if elapsed := time.Since(start); elapsed >= threshold {
				attrs := []any{
					slog.String("operation", operation),
					slog.String("statement", statement),
					slog.Duration("duration", elapsed),
				}
				if err != nil {
					attrs = append(attrs, slog.String("error", err.Error()))
				}
				logger.WarnContext(ctx, "slow query detected", attrs...)
			}
		}
	}
}

// WithTracing wraps a DBTX so every statement runs inside a TraceQuery
// span, using the leading SQL keyword as the operation name. Pings and
// transaction control are passed through untraced.
func WithTracing(db DBTX) DBTX {
	return &tracingDBTX{db: db}
}

type tracingDBTX struct {
	db DBTX
}

func (t *tracingDBTX) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.db.Begin(ctx)
}

func (t *tracingDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	ctx, end := TraceQuery(ctx, statementOp(sql), sql)
	tag, err := t.db.Exec(ctx, sql, arguments...)
	end(err)
	return tag, err
}

func (t *tracingDBTX) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, end := TraceQuery(ctx, statementOp(sql), sql)
	rows, err := t.db.Query(ctx, sql, args...)
	end(err)
	return rows, err
}

// QueryRow defers span completion to Scan, where pgx actually executes
// the query and surfaces its error.
func (t *tracingDBTX) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, end := TraceQuery(ctx, statementOp(sql), sql)
	return tracedRow{row: t.db.QueryRow(ctx, sql, args...), end: end}
}

func (t *tracingDBTX) Ping(ctx context.Context) error {
	return t.db.Ping(ctx)
}

type tracedRow struct {
	row pgx.Row
	end func(error)
}

func (r tracedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	r.end(err)
	return err
}

func statementOp(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToUpper(fields[0])
}
