package correlation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSetMergesValues(t *testing.T) {
	ctx := Set(context.Background(), map[string]string{"tier": "free"})
	ctx = Set(ctx, map[string]string{"region": "us-east-1"})

	data := Get(ctx)
	require.Equal(t, "free", data["tier"])
	require.Equal(t, "us-east-1", data["region"])
}

func TestSetIgnoresEmptyPairs(t *testing.T) {
	ctx := Set(context.Background(), map[string]string{"": "x", "tier": ""})
	require.Empty(t, Get(ctx))
}

func TestSetDoesNotMutateParentContext(t *testing.T) {
	parent := Set(context.Background(), map[string]string{"tier": "free"})
	_ = Set(parent, map[string]string{"tier": "paid"})

	require.Equal(t, "free", GetValue(parent, "tier"))
}

func TestSetKeyDeleteOnEmptyValue(t *testing.T) {
	ctx := SetKey(context.Background(), "tier", "free")
	require.True(t, Has(ctx, "tier"))

	ctx = SetKey(ctx, "tier", "")
	require.False(t, Has(ctx, "tier"))
}

func TestIDRoundTrip(t *testing.T) {
	ctx := SetID(context.Background(), "corr-42")
	require.Equal(t, "corr-42", ID(ctx))
}

func TestContextWithCorrelationParsesHeader(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), `{"correlation_id":"corr-1","tier":"paid"}`)

	require.Equal(t, "corr-1", ID(ctx))
	require.Equal(t, "paid", GetValue(ctx, "tier"))
}

func TestContextWithCorrelationGeneratesMissingID(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), "")

	id := ID(ctx)
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}

func TestContextWithCorrelationBadHeaderStillGetsID(t *testing.T) {
	ctx := ContextWithCorrelation(context.Background(), "{not json")
	require.NotEmpty(t, ID(ctx))
}

func TestGenerateParseRoundTrip(t *testing.T) {
	ctx := Set(context.Background(), map[string]string{
		IDKey:  "corr-7",
		"tier": "paid",
	})

	parsed, err := Parse(Generate(ctx))
	require.NoError(t, err)
	require.Equal(t, Data{IDKey: "corr-7", "tier": "paid"}, parsed)
}

func TestGenerateEmptyContext(t *testing.T) {
	require.Equal(t, "{}", Generate(context.Background()))
}

func TestRequestIDGeneratedWhenEmpty(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "")
	require.NotEmpty(t, RequestIDFromContext(ctx))
}

func TestRequestIDPreserved(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-9")
	require.Equal(t, "req-9", RequestIDFromContext(ctx))
}

func TestRequestIDMissing(t *testing.T) {
	require.Empty(t, RequestIDFromContext(context.Background()))
}
