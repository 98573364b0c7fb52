package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func TestTraceQuery_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "GetProduct", "SELECT * FROM products WHERE id = $1")
	end(nil)

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)

	span := spans[0]
	assert.Equal(t, "db.GetProduct", span.Name)

	attrs := make(map[string]string)
	for _, a := range span.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "GetProduct", attrs["db.operation"])
	assert.Equal(t, "SELECT * FROM products WHERE id = $1", attrs["db.statement"])
}

func TestTraceQuery_ErrorSetsStatus(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "UpdateProduct", "UPDATE products SET name = $1")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.NotEmpty(t, spans[0].Events, "error event should be recorded")
}

func TestSlowQueryLogging(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	SetSlowQueryLogging(time.Nanosecond, logger)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	_, end := TraceQuery(context.Background(), "ListOrders", "SELECT * FROM orders")
	end(nil)

	logged := buf.String()
	assert.Contains(t, logged, "slow query detected")
	assert.Contains(t, logged, "ListOrders")
}

func TestSlowQueryLogging_UnderThreshold(t *testing.T) {
	setupTestTracer(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	SetSlowQueryLogging(time.Hour, logger)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

	_, end := TraceQuery(context.Background(), "FastSelect", "SELECT 1")
	end(nil)

	assert.Empty(t, buf.String())
}

func TestWithTracing_QuerySpans(t *testing.T) {
	exporter := setupTestTracer(t)

	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	db := WithTracing(mock)

	mock.ExpectQuery("SELECT name FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Canvas Tote"))

	rows, err := db.Query(context.Background(), "SELECT name FROM products")
	require.NoError(t, err)
	rows.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.SELECT", spans[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTracing_QueryRowSpanEndsAtScan(t *testing.T) {
	exporter := setupTestTracer(t)

	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	db := WithTracing(mock)

	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	var count int
	require.NoError(t, db.QueryRow(context.Background(), "SELECT count(*) FROM orders").Scan(&count))
	assert.Equal(t, 3, count)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.SELECT", spans[0].Name)
}

func TestStatementOp(t *testing.T) {
	assert.Equal(t, "SELECT", statementOp("\n\t\tSELECT * FROM products"))
	assert.Equal(t, "INSERT", statementOp("INSERT INTO orders VALUES ($1)"))
	assert.Equal(t, "unknown", statementOp("   "))
}
