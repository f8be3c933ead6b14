package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalCondition_EmptyExpression(t *testing.T) {
	ok, err := EvalCondition("", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalCondition_BooleanForms(t *testing.T) {
	params := map[string]any{
		"enabled":  true,
		"disabled": false,
	}

	cases := []struct {
		expr string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"enabled", true},
		{"disabled", false},
		{"!enabled", false},
		{"!disabled", true},
	}

	for _, tc := range cases {
		got, err := EvalCondition(tc.expr, params)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestEvalCondition_Emptiness(t *testing.T) {
	params := map[string]any{
		"containers": []any{map[string]any{"name": "data"}},
		"none":       []any{},
		"word":       "hello",
		"blank":      "",
		"record":     map[string]any{},
	}

	cases := []struct {
		expr string
		want bool
	}{
		{"empty(none)", true},
		{"empty(containers)", false},
		{"notEmpty(containers)", true},
		{"notEmpty(none)", false},
		{"empty(blank)", true},
		{"notEmpty(word)", true},
		{"empty(record)", true},
	}

	for _, tc := range cases {
		got, err := EvalCondition(tc.expr, params)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestEvalCondition_Equality(t *testing.T) {
	params := map[string]any{
		"environment": "prod",
		"replicas":    3,
		"enabled":     true,
	}

	cases := []struct {
		expr string
		want bool
	}{
		{`environment == "prod"`, true},
		{`environment == "dev"`, false},
		{`environment != "dev"`, true},
		{"replicas == 3", true},
		{"replicas != 3", false},
		{"enabled == true", true},
	}

	for _, tc := range cases {
		got, err := EvalCondition(tc.expr, params)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
	}
}

func TestEvalCondition_UnknownParameter(t *testing.T) {
	_, err := EvalCondition("missing", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parameter")
}

func TestEvalCondition_NonBoolIdentifier(t *testing.T) {
	_, err := EvalCondition("name", map[string]any{"name": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a bool")
}

func TestEvalCondition_BadLiteral(t *testing.T) {
	_, err := EvalCondition("environment == prod", map[string]any{"environment": "prod"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "literal")
}

func TestEvalCondition_OperatorInsideQuotedLiteral(t *testing.T) {
	params := map[string]any{"filter": "a!=b", "route": "x==y"}

	got, err := EvalCondition(`filter == "a!=b"`, params)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalCondition(`filter != "a!=b"`, params)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = EvalCondition(`route == "x==y"`, params)
	require.NoError(t, err)
	assert.True(t, got)
}
